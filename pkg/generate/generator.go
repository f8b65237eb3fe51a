package generate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	sketcherrors "github.com/matzehuels/sketchcanvas/pkg/errors"
	"github.com/matzehuels/sketchcanvas/pkg/gemini"
	"github.com/matzehuels/sketchcanvas/pkg/observability"
	"github.com/matzehuels/sketchcanvas/pkg/payload"
	"github.com/matzehuels/sketchcanvas/pkg/prompt"
	"github.com/matzehuels/sketchcanvas/pkg/shape"
)

const excerptLen = 512

// State is a step of one generation request.
type State string

const (
	StateReceived      State = "Received"
	StateComposing     State = "Composing"
	StateSending       State = "Sending"
	StateExtracting    State = "Extracting"
	StateValidating    State = "Validating"
	StateCompleted     State = "Completed"
	StateFallbackEmpty State = "FallbackEmpty"
	StateFailed        State = "Failed"
)

// Sender delivers a prompt to the generative endpoint and returns the raw
// response body. [*gemini.Client] implements it.
type Sender interface {
	Send(ctx context.Context, prompt string) ([]byte, error)
}

// Request is one generation request.
type Request struct {
	Prompt         string
	ExistingShapes []shape.Shape
}

// Result is what the caller receives. Shapes is never nil.
type Result struct {
	Shapes []shape.Shape
}

// Generator runs generation requests. It holds no per-request state and is
// safe for concurrent use.
type Generator struct {
	sender Sender
	logger *log.Logger
}

// NewGenerator returns a Generator sending through sender. A nil logger
// uses log.Default().
func NewGenerator(sender Sender, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{sender: sender, logger: logger}
}

// run tracks one request through its states.
type run struct {
	ctx      context.Context
	logger   *log.Logger
	started  time.Time
	state    State
	rejected int
}

func (r *run) enter(s State) {
	r.state = s
	r.logger.Debug("generation state", "state", s)
}

func (r *run) finish(s State, shapes int, err error) {
	r.enter(s)
	ev := observability.GenerationEvent{
		State:    string(s),
		Shapes:   shapes,
		Rejected: r.rejected,
		Duration: time.Since(r.started),
		Err:      err,
	}
	defer func() { _ = recover() }()
	observability.Generation().OnGenerateComplete(r.ctx, ev)
}

// Generate runs req to a terminal state.
//
// The error is non-nil only when the prompt is invalid
// (ErrCodeInvalidPrompt) or when the model's array is not valid
// JSON (ErrCodeInvalidUpstreamFormat). All other failures yield an
// empty result.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	if err := sketcherrors.ValidatePrompt(req.Prompt); err != nil {
		return Result{Shapes: []shape.Shape{}}, err
	}

	r := &run{ctx: ctx, logger: g.logger, started: time.Now(), state: StateReceived}
	func() {
		defer func() { _ = recover() }()
		observability.Generation().OnGenerateStart(ctx, len(req.Prompt), len(req.ExistingShapes))
	}()

	r.enter(StateComposing)
	existingJSON := ""
	if len(req.ExistingShapes) > 0 {
		b, err := shape.Marshal(req.ExistingShapes)
		if err != nil {
			g.logger.Error("encode existing shapes", "err", err)
			return g.fallback(r, err), nil
		}
		existingJSON = string(b)
	}
	text := prompt.Compose(existingJSON, req.Prompt)

	r.enter(StateSending)
	body, err := g.sender.Send(ctx, text)
	if err != nil {
		g.logTransportFailure(err)
		return g.fallback(r, err), nil
	}

	r.enter(StateExtracting)
	reply, err := gemini.CandidateText(body)
	if err != nil {
		g.logger.Warn("unusable response envelope", "err", err, "body", payload.Excerpt(string(body), excerptLen))
		return g.fallback(r, err), nil
	}
	arrayText, err := payload.ExtractJSONArray(reply)
	if err != nil {
		g.logger.Warn("no JSON array in model reply", "reply", payload.Excerpt(reply, excerptLen))
		return g.fallback(r, sketcherrors.Wrap(sketcherrors.ErrCodeNoJSONFound, err, "extract shapes")), nil
	}

	r.enter(StateValidating)
	shapes, rejected, err := shape.Parse(arrayText)
	if err != nil {
		g.logger.Error("model returned malformed JSON", "err", err, "payload", payload.Excerpt(arrayText, excerptLen))
		failure := sketcherrors.Wrap(sketcherrors.ErrCodeInvalidUpstreamFormat, err, "model reply is not a valid JSON array")
		r.finish(StateFailed, 0, failure)
		return Result{Shapes: []shape.Shape{}}, failure
	}
	r.rejected = len(rejected)
	for _, rej := range rejected {
		g.logger.Warn("dropped shape", "index", rej.Index, "reason", rej.Reason, "element", payload.Excerpt(string(rej.Raw), excerptLen))
	}

	result := Result{Shapes: merge(req.ExistingShapes, shapes)}
	g.logger.Debug("generation completed", "shapes", len(result.Shapes), "new", len(result.Shapes)-len(req.ExistingShapes), "dropped", len(rejected))
	r.finish(StateCompleted, len(result.Shapes), nil)
	return result, nil
}

// GenerateJSON is the string-in, string-out form used by the HTTP API.
// existingJSON may be blank; otherwise it must be a JSON array of shapes
// (ErrCodeInvalidDrawings). The result is a JSON array.
func (g *Generator) GenerateJSON(ctx context.Context, userPrompt, existingJSON string) (string, error) {
	var existing []shape.Shape
	if strings.TrimSpace(existingJSON) != "" {
		parsed, rejected, err := shape.Parse(existingJSON)
		if err != nil {
			return "", sketcherrors.Wrap(sketcherrors.ErrCodeInvalidDrawings, err, "existing drawings must be a JSON array")
		}
		if len(rejected) > 0 {
			g.logger.Debug("ignoring unrecognized existing shapes", "count", len(rejected))
		}
		existing = parsed
	}

	res, err := g.Generate(ctx, Request{Prompt: userPrompt, ExistingShapes: existing})
	if err != nil {
		return "", err
	}
	out, err := shape.Marshal(res.Shapes)
	if err != nil {
		return "", sketcherrors.Wrap(sketcherrors.ErrCodeInternal, err, "encode shapes")
	}
	return string(out), nil
}

func (g *Generator) fallback(r *run, cause error) Result {
	if errors.Is(cause, context.Canceled) {
		g.logger.Info("generation cancelled by caller")
	}
	r.finish(StateFallbackEmpty, 0, cause)
	return Result{Shapes: []shape.Shape{}}
}

func (g *Generator) logTransportFailure(err error) {
	var te *gemini.TransportError
	if !errors.As(err, &te) {
		g.logger.Error("generative endpoint failed", "err", err)
		return
	}
	kv := []any{"code", te.Code(), "status", te.StatusCode, "attempts", te.Attempts, "err", te.Err}
	if te.Body != "" {
		kv = append(kv, "body", te.Body)
	}
	if te.Exhausted {
		g.logger.Error("generative endpoint unavailable, retries exhausted", kv...)
		return
	}
	g.logger.Error("generative endpoint failed", kv...)
}

// merge keeps existing as a prefix and appends the model's shapes that are
// not already present.
func merge(existing, generated []shape.Shape) []shape.Shape {
	out := make([]shape.Shape, 0, len(existing)+len(generated))
	out = append(out, existing...)
	for _, s := range generated {
		if !contains(existing, s) {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []shape.Shape, s shape.Shape) bool {
	for _, e := range list {
		if shape.Equal(e, s) {
			return true
		}
	}
	return false
}
