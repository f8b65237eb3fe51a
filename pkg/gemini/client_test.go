package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sketcherrors "github.com/matzehuels/sketchcanvas/pkg/errors"
	"github.com/matzehuels/sketchcanvas/pkg/httputil"
	"github.com/matzehuels/sketchcanvas/pkg/observability"
)

const sunBody = `{"candidates":[{"content":{"parts":[{"text":"[{\"type\":\"circle\",\"x\":50,\"y\":50,\"radius\":20,\"color\":\"yellow\"}]"}]}}]}`

// statusSequence serves the given statuses in order, then 200 with body.
func statusSequence(t *testing.T, body string, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		if n <= len(statuses) {
			if statuses[n-1] == http.StatusTooManyRequests {
				w.Header().Set("Retry-After", "7")
			}
			w.WriteHeader(statuses[n-1])
			_, _ = io.WriteString(w, `{"error":{"code":1,"message":"nope"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newTestClient(t *testing.T, endpoint string, rec *sleepRecorder, timeout time.Duration) *Client {
	t.Helper()
	policy := httputil.DefaultPolicy()
	policy.Jitter = func(time.Duration) time.Duration { return 0 }
	c, err := NewClient(Config{
		APIKey:   "test-key",
		Endpoint: endpoint,
		Timeout:  timeout,
		Policy:   policy,
	}, nil, WithSleep(rec.sleep))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

type attemptRecorder struct {
	mu     sync.Mutex
	events []observability.AttemptEvent
}

func (r *attemptRecorder) OnAttempt(_ context.Context, ev observability.AttemptEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	if !sketcherrors.Is(err, sketcherrors.ErrCodeInvalidConfig) {
		t.Fatalf("NewClient without key: err = %v, want INVALID_CONFIG", err)
	}
	_, err = NewClient(Config{APIKey: "k", Endpoint: "ftp://example.com"}, nil)
	if !sketcherrors.Is(err, sketcherrors.ErrCodeInvalidConfig) {
		t.Fatalf("NewClient with ftp endpoint: err = %v, want INVALID_CONFIG", err)
	}
}

func TestSendRequestShape(t *testing.T) {
	var gotKey, gotMethod, gotType string
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, sunBody)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/v1beta/models/m:generateContent", &sleepRecorder{}, time.Second)
	body, err := c.Send(context.Background(), "draw a sun")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotKey != "test-key" {
		t.Errorf("key = %q, want test-key", gotKey)
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q", gotType)
	}
	if len(got.Contents) != 1 || len(got.Contents[0].Parts) != 1 || got.Contents[0].Parts[0].Text != "draw a sun" {
		t.Errorf("request body = %+v", got)
	}

	text, err := CandidateText(body)
	if err != nil {
		t.Fatalf("CandidateText: %v", err)
	}
	if want := `[{"type":"circle","x":50,"y":50,"radius":20,"color":"yellow"}]`; text != want {
		t.Errorf("text = %s, want %s", text, want)
	}
}

func TestSendRetriesRateLimit(t *testing.T) {
	hooks := &attemptRecorder{}
	observability.SetTransportHooks(hooks)
	t.Cleanup(observability.Reset)

	srv, calls := statusSequence(t, sunBody, 429, 429, 429)
	rec := &sleepRecorder{}
	c := newTestClient(t, srv.URL, rec, time.Minute)

	body, err := c.Send(context.Background(), "sun")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(body) != sunBody {
		t.Errorf("body = %s", body)
	}
	if n := calls.Load(); n != 4 {
		t.Errorf("calls = %d, want 4", n)
	}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(rec.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", rec.delays, want)
	}
	for i := range want {
		if rec.delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, rec.delays[i], want[i])
		}
	}

	if len(hooks.events) != 4 {
		t.Fatalf("events = %d, want 4", len(hooks.events))
	}
	for i, ev := range hooks.events[:3] {
		if ev.Attempt != i+1 || ev.StatusCode != 429 || !ev.Retry {
			t.Errorf("event[%d] = %+v", i, ev)
		}
		if ev.RetryAfter != 7*time.Second {
			t.Errorf("event[%d].RetryAfter = %v, want 7s", i, ev.RetryAfter)
		}
	}
	if last := hooks.events[3]; last.StatusCode != 200 || last.Retry {
		t.Errorf("last event = %+v", last)
	}
}

func TestSendExhausted(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		rateLimit bool
	}{
		{"server errors", http.StatusInternalServerError, false},
		{"rate limited", http.StatusTooManyRequests, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := statusSequence(t, sunBody, tt.status, tt.status, tt.status, tt.status, tt.status, tt.status)
			rec := &sleepRecorder{}
			c := newTestClient(t, srv.URL, rec, time.Minute)

			_, err := c.Send(context.Background(), "sun")
			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("err = %v, want *TransportError", err)
			}
			if !te.Exhausted || te.Attempts != 5 || te.StatusCode != tt.status {
				t.Errorf("TransportError = %+v", te)
			}
			if te.Code() != sketcherrors.ErrCodeUpstreamTransient {
				t.Errorf("Code() = %s", te.Code())
			}
			if n := calls.Load(); n != 5 {
				t.Errorf("calls = %d, want 5", n)
			}
			if len(rec.delays) != 4 {
				t.Errorf("sleeps = %d, want 4", len(rec.delays))
			}

			var rl *sketcherrors.RateLimitedError
			if got := errors.As(err, &rl); got != tt.rateLimit {
				t.Errorf("errors.As(RateLimitedError) = %v, want %v", got, tt.rateLimit)
			}
			if tt.rateLimit && rl.RetryAfter != 7 {
				t.Errorf("RetryAfter = %d, want 7", rl.RetryAfter)
			}
		})
	}
}

func TestSendFatalStatus(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv, calls := statusSequence(t, sunBody, status)
			rec := &sleepRecorder{}
			c := newTestClient(t, srv.URL, rec, time.Minute)

			_, err := c.Send(context.Background(), "sun")
			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("err = %v, want *TransportError", err)
			}
			if te.Exhausted || te.StatusCode != status || te.Attempts != 1 {
				t.Errorf("TransportError = %+v", te)
			}
			if te.Code() != sketcherrors.ErrCodeUpstreamFatal {
				t.Errorf("Code() = %s", te.Code())
			}
			if n := calls.Load(); n != 1 {
				t.Errorf("calls = %d, want 1", n)
			}
			if len(rec.delays) != 0 {
				t.Errorf("slept %v, want no retries", rec.delays)
			}
		})
	}
}

func TestSendNetworkFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	rec := &sleepRecorder{}
	c := newTestClient(t, url, rec, time.Minute)
	_, err := c.Send(context.Background(), "sun")

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
	if te.StatusCode != 0 || te.Attempts != 1 || te.Exhausted {
		t.Errorf("TransportError = %+v", te)
	}
	if te.Code() != sketcherrors.ErrCodeUpstreamFatal {
		t.Errorf("Code() = %s", te.Code())
	}
	if len(rec.delays) != 0 {
		t.Errorf("slept %v, want no retries", rec.delays)
	}
}

// panicHTTPHooks panics from every HTTP callback.
type panicHTTPHooks struct{}

func (panicHTTPHooks) OnRequest(context.Context, string, string, string) { panic("on request") }
func (panicHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {
	panic("on response")
}
func (panicHTTPHooks) OnError(context.Context, string, string, string, error) { panic("on error") }

func TestSendSurvivesPanickingHTTPHooks(t *testing.T) {
	observability.SetHTTPHooks(panicHTTPHooks{})
	t.Cleanup(observability.Reset)

	srv, calls := statusSequence(t, sunBody, http.StatusServiceUnavailable)
	c := newTestClient(t, srv.URL, &sleepRecorder{}, time.Minute)
	body, err := c.Send(context.Background(), "sun")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(body) != sunBody || calls.Load() != 2 {
		t.Errorf("body = %s after %d calls", body, calls.Load())
	}

	closed := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := closed.URL
	closed.Close()
	_, err = newTestClient(t, url, &sleepRecorder{}, time.Minute).Send(context.Background(), "sun")
	var te *TransportError
	if !errors.As(err, &te) || te.Code() != sketcherrors.ErrCodeUpstreamFatal {
		t.Errorf("err = %v, want fatal TransportError", err)
	}
}

func TestSendOverallTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &sleepRecorder{}, 50*time.Millisecond)
	start := time.Now()
	_, err := c.Send(context.Background(), "sun")
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Send took %v, want it bounded by the timeout", elapsed)
	}

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
	if te.Code() != sketcherrors.ErrCodeTimeout {
		t.Errorf("Code() = %s, want TIMEOUT", te.Code())
	}
}

func TestSendCancelledDuringBackoff(t *testing.T) {
	srv, calls := statusSequence(t, sunBody, 503, 503, 503)
	ctx, cancel := context.WithCancel(context.Background())

	policy := httputil.DefaultPolicy()
	c, err := NewClient(Config{APIKey: "k", Endpoint: srv.URL, Policy: policy}, nil,
		WithSleep(func(ctx context.Context, d time.Duration) error {
			cancel()
			return httputil.SleepContext(ctx, d)
		}))
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Send(ctx, "sun")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"0", 0},
		{"-4", 0},
		{"soon", 0},
		{now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
		{now.Add(-10 * time.Second).Format(http.TimeFormat), 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in, now); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCandidateText(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"first part only", `{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}},{"content":{"parts":[{"text":"c"}]}}]}`, "a", nil},
		{"no candidates", `{"candidates":[]}`, "", ErrNoCandidates},
		{"no parts", `{"candidates":[{"content":{"parts":[]}}]}`, "", ErrNoCandidates},
		{"upstream error", `{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT"}}`, "", ErrNoCandidates},
		{"not json", `not json at all`, "", ErrMalformedEnvelope},
		{"wrong shape", `{"candidates":"x"}`, "", ErrMalformedEnvelope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CandidateText([]byte(tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
		})
	}
}
