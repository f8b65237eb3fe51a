package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	sketcherrors "github.com/matzehuels/sketchcanvas/pkg/errors"
	"github.com/matzehuels/sketchcanvas/pkg/httputil"
	"github.com/matzehuels/sketchcanvas/pkg/observability"
	"github.com/matzehuels/sketchcanvas/pkg/payload"
)

const (
	// DefaultEndpoint is the generateContent URL used when none is configured.
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

	// DefaultTimeout bounds a whole Send, retries included.
	DefaultTimeout = 45 * time.Second

	bodyExcerptLen = 512
	maxBodySize    = 8 << 20
)

// Config holds the transport settings.
type Config struct {
	APIKey   string
	Endpoint string          // generateContent URL; the key is appended as ?key=
	Timeout  time.Duration   // Ceiling for all attempts together; 0 means DefaultTimeout
	Policy   httputil.Policy // Zero value means httputil.DefaultPolicy()
}

// Client sends prompts to the generative endpoint.
type Client struct {
	endpoint *url.URL
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	retrier  httputil.Retrier
	logger   *log.Logger
}

// Option customizes a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSleep replaces the wait between attempts. Tests use it to run the
// retry schedule without real delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.retrier.Sleep = sleep }
}

// NewClient validates cfg and returns a ready client. A nil logger uses
// log.Default().
func NewClient(cfg Config, logger *log.Logger, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, sketcherrors.New(sketcherrors.ErrCodeInvalidConfig, "gemini API key is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if err := sketcherrors.ValidateURL(endpoint); err != nil {
		return nil, sketcherrors.Wrap(sketcherrors.ErrCodeInvalidConfig, err, "gemini endpoint")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, sketcherrors.Wrap(sketcherrors.ErrCodeInvalidConfig, err, "gemini endpoint")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Policy.MaxAttempts == 0 {
		cfg.Policy = httputil.DefaultPolicy()
	}
	if logger == nil {
		logger = log.Default()
	}

	c := &Client{
		endpoint: u,
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout,
		http:     &http.Client{},
		retrier:  httputil.Retrier{Policy: cfg.Policy},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// attemptResult carries what the attempt function learned to the observer
// and to the caller. Attempts are sequential, so no locking is needed.
type attemptResult struct {
	body       []byte
	retryAfter time.Duration
	started    time.Time
}

// Send posts prompt and returns the body of the first 2xx response.
//
// 429 and 5xx responses are retried under the configured policy; other
// statuses and network failures end the call at once. The overall timeout
// covers every attempt and wait. Any failure is a [*TransportError].
func (c *Client) Send(ctx context.Context, prompt string) ([]byte, error) {
	payloadBytes, err := json.Marshal(newRequest(prompt))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var cur attemptResult
	retrier := c.retrier
	retrier.OnAttempt = func(a httputil.Attempt) {
		c.logAttempt(a, cur.retryAfter)
		observability.Transport().OnAttempt(ctx, observability.AttemptEvent{
			Attempt:    a.Number,
			StatusCode: a.Outcome.StatusCode,
			Err:        a.Outcome.Err,
			Delay:      a.Delay,
			Retry:      a.Retry,
			RetryAfter: cur.retryAfter,
			Duration:   time.Since(cur.started),
		})
	}

	out, attempts, err := retrier.Do(ctx, func(ctx context.Context, attempt int) httputil.Outcome {
		cur = attemptResult{started: time.Now()}
		return c.attempt(ctx, payloadBytes, &cur)
	})

	switch {
	case err == nil && out.OK():
		return cur.body, nil
	case errors.Is(err, httputil.ErrExhausted):
		cause := error(fmt.Errorf("status %d", out.StatusCode))
		if out.StatusCode == http.StatusTooManyRequests {
			cause = &sketcherrors.RateLimitedError{RetryAfter: int(cur.retryAfter / time.Second)}
		} else if out.Err != nil {
			cause = out.Err
		}
		return nil, &TransportError{
			Exhausted:  true,
			StatusCode: out.StatusCode,
			Attempts:   attempts,
			Body:       payload.Excerpt(string(cur.body), bodyExcerptLen),
			Err:        cause,
		}
	case err != nil:
		// Context ended while waiting between attempts.
		return nil, &TransportError{StatusCode: out.StatusCode, Attempts: attempts, Err: err}
	case out.Err != nil:
		return nil, &TransportError{Attempts: attempts, Err: out.Err}
	default:
		return nil, &TransportError{
			StatusCode: out.StatusCode,
			Attempts:   attempts,
			Body:       payload.Excerpt(string(cur.body), bodyExcerptLen),
			Err:        errors.New(http.StatusText(out.StatusCode)),
		}
	}
}

// attempt performs one POST. A fresh request is built every time because a
// request body cannot be replayed.
func (c *Client) attempt(ctx context.Context, body []byte, cur *attemptResult) httputil.Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL(), bytes.NewReader(body))
	if err != nil {
		return httputil.Outcome{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	hooks := observability.HTTP()
	host, path := c.endpoint.Host, c.endpoint.Path
	safeHook(func() { hooks.OnRequest(ctx, req.Method, host, path) })

	resp, err := c.http.Do(req)
	if err != nil {
		safeHook(func() { hooks.OnError(ctx, req.Method, host, path, err) })
		if ctxErr := ctx.Err(); ctxErr != nil {
			return httputil.Outcome{Err: ctxErr}
		}
		return httputil.Outcome{Err: err}
	}
	defer resp.Body.Close()
	safeHook(func() { hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(cur.started)) })

	if resp.StatusCode == http.StatusTooManyRequests {
		cur.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return httputil.Outcome{Err: ctxErr}
		}
		return httputil.Outcome{Err: &httputil.RetryableError{Err: fmt.Errorf("read response: %w", err)}}
	}
	cur.body = data
	return httputil.Outcome{StatusCode: resp.StatusCode}
}

// safeHook runs one HTTP hook call. A panicking hook is recovered and ignored.
func safeHook(call func()) {
	defer func() { _ = recover() }()
	call()
}

func (c *Client) requestURL() string {
	u := *c.endpoint
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) logAttempt(a httputil.Attempt, retryAfter time.Duration) {
	o := a.Outcome
	switch {
	case o.OK():
		c.logger.Debug("generative endpoint responded", "attempt", a.Number, "status", o.StatusCode)
	case a.Retry:
		kv := []any{"attempt", a.Number, "status", o.StatusCode, "delay", a.Delay.Round(time.Millisecond)}
		if retryAfter > 0 {
			kv = append(kv, "retry_after", retryAfter)
		}
		if o.Err != nil {
			kv = append(kv, "err", o.Err)
		}
		c.logger.Warn("retrying generative endpoint", kv...)
	case o.Err != nil:
		c.logger.Error("generative endpoint request failed", "attempt", a.Number, "err", o.Err)
	default:
		c.logger.Error("generative endpoint rejected request", "attempt", a.Number, "status", o.StatusCode)
	}
}

// parseRetryAfter reads a Retry-After header given either as delta-seconds
// or as an HTTP date. It returns 0 when the header is absent or unparsable.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}
