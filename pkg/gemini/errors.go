package gemini

import (
	"context"
	"errors"
	"fmt"

	sketcherrors "github.com/matzehuels/sketchcanvas/pkg/errors"
	"github.com/matzehuels/sketchcanvas/pkg/httputil"
)

// TransportError is returned by [Client.Send] when no usable response was
// obtained.
type TransportError struct {
	Exhausted  bool   // Every attempt ended in 429/5xx
	StatusCode int    // Last HTTP status; 0 if none was received
	Attempts   int    // Attempts made
	Body       string // Excerpt of the last response body
	Err        error  // Underlying cause
}

func (e *TransportError) Error() string {
	switch {
	case e.Exhausted:
		return fmt.Sprintf("generative endpoint unavailable after %d attempts (last status %d): %v", e.Attempts, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("generative endpoint returned status %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("generative endpoint request failed: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transient reports whether the failure was a 429/5xx that ran out of retries.
func (e *TransportError) Transient() bool {
	return e.Exhausted || httputil.IsRetryableStatus(e.StatusCode)
}

// Code classifies the failure in the application's error taxonomy.
func (e *TransportError) Code() sketcherrors.Code {
	switch {
	case errors.Is(e.Err, context.DeadlineExceeded):
		return sketcherrors.ErrCodeTimeout
	case e.Transient():
		return sketcherrors.ErrCodeUpstreamTransient
	default:
		return sketcherrors.ErrCodeUpstreamFatal
	}
}
