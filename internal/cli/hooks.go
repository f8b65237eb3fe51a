package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sketchcanvas/pkg/observability"
)

// pipelineHooks turns pipeline events into debug logs and spinner updates.
type pipelineHooks struct {
	logger *log.Logger

	mu        sync.Mutex
	spinner   *Spinner
	lastState string
}

func (h *pipelineHooks) attach(s *Spinner) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.spinner = s
}

// LastState returns the terminal state of the most recent generation.
func (h *pipelineHooks) LastState() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastState
}

func (h *pipelineHooks) OnAttempt(_ context.Context, ev observability.AttemptEvent) {
	h.logger.Debug("attempt finished",
		"attempt", ev.Attempt,
		"status", ev.StatusCode,
		"duration", ev.Duration.Round(time.Millisecond),
		"retry", ev.Retry,
	)
	if !ev.Retry {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.spinner != nil {
		h.spinner.SetMessage(retryMessage(ev))
	}
}

func (h *pipelineHooks) OnGenerateStart(_ context.Context, promptLen, existingShapes int) {
	h.logger.Debug("generation started", "prompt_len", promptLen, "existing", existingShapes)
}

func (h *pipelineHooks) OnGenerateComplete(_ context.Context, ev observability.GenerationEvent) {
	h.logger.Debug("generation finished",
		"state", ev.State,
		"shapes", ev.Shapes,
		"dropped", ev.Rejected,
		"duration", ev.Duration.Round(time.Millisecond),
	)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastState = ev.State
}

func retryMessage(ev observability.AttemptEvent) string {
	reason := fmt.Sprintf("status %d", ev.StatusCode)
	if ev.StatusCode == 429 {
		reason = "rate limited"
	}
	return fmt.Sprintf("Endpoint %s, retrying in %s (attempt %d)", reason, ev.Delay.Round(100*time.Millisecond), ev.Attempt+1)
}

var (
	_ observability.TransportHooks  = (*pipelineHooks)(nil)
	_ observability.GenerationHooks = (*pipelineHooks)(nil)
)
