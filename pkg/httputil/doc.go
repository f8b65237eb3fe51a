// Package httputil provides the retry machinery used for outbound HTTP calls.
//
// # Overview
//
// The package keeps the retry decision separate from the transport:
//
//   - [Policy]: pure functions deciding whether to retry ([Policy.ShouldRetry])
//     and how long to wait ([Policy.Delay])
//   - [Retrier]: executes any attempt function under a Policy, with an
//     injectable sleep and a per-attempt observer
//
// Because a Policy performs no I/O it can be tested without a network, and a
// Retrier can drive any client: the attempt function returns an [Outcome]
// (status code or error) and the Retrier never sees the response body.
//
// # Retry rules
//
// Retryable outcomes are:
//
//   - 429 rate limit responses
//   - 5xx server errors
//   - errors explicitly wrapped in [RetryableError]
//
// Everything else (other 4xx, connection and DNS failures) ends the loop
// after the first attempt.
//
// # Backoff
//
// Attempt k waits BaseDelay * 2^(k-1) plus a uniform jitter in
// [0, MaxJitter) before attempt k+1. With [DefaultPolicy]:
//
//	attempt 1 fails -> wait 1s + jitter
//	attempt 2 fails -> wait 2s + jitter
//	attempt 3 fails -> wait 4s + jitter
//	attempt 4 fails -> wait 8s + jitter
//	attempt 5 fails -> ErrExhausted
//
// The wait honours context cancellation, so an abandoned request stops
// retrying immediately:
//
//	r := httputil.Retrier{Policy: httputil.DefaultPolicy()}
//	out, attempts, err := r.Do(ctx, func(ctx context.Context, attempt int) httputil.Outcome {
//	    resp, err := client.Do(req.Clone(ctx))
//	    if err != nil {
//	        return httputil.Outcome{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    return httputil.Outcome{StatusCode: resp.StatusCode}
//	})
package httputil
