// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks; the binary decides
// what to do with them. The defaults are no-ops, so the generation pipeline
// has no dependency on any observability backend.
//
// # Events
//
//   - [TransportHooks]: one event per attempt against the generative endpoint
//     (status, attempt number, computed delay, Retry-After hint)
//   - [GenerationHooks]: start and terminal state of each generation request
//   - [HTTPHooks]: raw outbound request/response timing
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetTransportHooks(myTransportHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Transport().OnAttempt(ctx, observability.AttemptEvent{Attempt: 2, StatusCode: 429})
//
// Hooks run on the request path. Implementations must return quickly and
// must not panic; callers in this module recover from a panicking hook but
// cannot recover time spent inside one.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Transport Hooks
// =============================================================================

// AttemptEvent describes one finished attempt against the generative endpoint.
type AttemptEvent struct {
	Attempt    int           // 1-indexed attempt number
	StatusCode int           // HTTP status; 0 if no response was received
	Err        error         // Transport error, if any
	Delay      time.Duration // Backoff before the next attempt; 0 if none follows
	Retry      bool          // Whether another attempt follows
	RetryAfter time.Duration // Upstream Retry-After hint on a 429; informational only
	Duration   time.Duration // Time spent in this attempt
}

// TransportHooks receives per-attempt events from the resilient transport.
type TransportHooks interface {
	OnAttempt(ctx context.Context, ev AttemptEvent)
}

// =============================================================================
// Generation Hooks
// =============================================================================

// GenerationEvent describes the terminal state of one generation request.
type GenerationEvent struct {
	State    string        // Terminal state name (Completed, FallbackEmpty, Failed)
	Shapes   int           // Shapes returned to the caller
	Rejected int           // Elements dropped by the shape decoder
	Duration time.Duration // Wall time from Received to the terminal state
	Err      error         // Cause of a fallback or failure
}

// GenerationHooks receives events from the generation orchestrator.
type GenerationHooks interface {
	OnGenerateStart(ctx context.Context, promptLen, existingShapes int)
	OnGenerateComplete(ctx context.Context, ev GenerationEvent)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopTransportHooks is a no-op implementation of TransportHooks.
type NoopTransportHooks struct{}

func (NoopTransportHooks) OnAttempt(context.Context, AttemptEvent) {}

// NoopGenerationHooks is a no-op implementation of GenerationHooks.
type NoopGenerationHooks struct{}

func (NoopGenerationHooks) OnGenerateStart(context.Context, int, int)             {}
func (NoopGenerationHooks) OnGenerateComplete(context.Context, GenerationEvent) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	transportHooks  TransportHooks  = NoopTransportHooks{}
	generationHooks GenerationHooks = NoopGenerationHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetTransportHooks registers custom transport hooks.
// This should be called once at application startup.
func SetTransportHooks(h TransportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		transportHooks = h
	}
}

// SetGenerationHooks registers custom generation hooks.
// This should be called once at application startup.
func SetGenerationHooks(h GenerationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generationHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Transport returns the registered transport hooks.
func Transport() TransportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return transportHooks
}

// Generation returns the registered generation hooks.
func Generation() GenerationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generationHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	transportHooks = NoopTransportHooks{}
	generationHooks = NoopGenerationHooks{}
	httpHooks = NoopHTTPHooks{}
}
