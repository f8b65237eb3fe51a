package httputil

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"
)

// ErrExhausted is returned by [Retrier.Do] when every allowed attempt ended
// in a retryable outcome.
var ErrExhausted = errors.New("retry attempts exhausted")

// RetryableError wraps an error to indicate it should trigger a retry.
// Transport failures are fatal by default; wrap the ones that are known to
// be transient (for example a body that was cut off mid-read) with this type.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Outcome is the result of one attempt: either a response status or an error.
type Outcome struct {
	StatusCode int
	Err        error
}

// OK reports whether the attempt produced a 2xx response.
func (o Outcome) OK() bool {
	return o.Err == nil && o.StatusCode >= 200 && o.StatusCode < 300
}

// Policy decides whether and when to try again. It holds no I/O and can be
// evaluated without a network.
type Policy struct {
	MaxAttempts int           // Total attempts, including the first
	BaseDelay   time.Duration // Wait after attempt 1; doubles each attempt
	MaxJitter   time.Duration // Upper bound (exclusive) of the random extra wait

	// Jitter returns a value in [0, max). Nil uses math/rand/v2.
	Jitter func(max time.Duration) time.Duration
}

// DefaultPolicy returns the schedule used for the generative endpoint:
// 5 attempts, waits of 1s, 2s, 4s and 8s, each plus up to 500ms of jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxJitter:   500 * time.Millisecond,
	}
}

// IsRetryableStatus reports whether an HTTP status is transient:
// 429 Too Many Requests or any 5xx.
func IsRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Retryable reports whether an outcome may succeed on a later attempt,
// ignoring the attempt budget.
func (p Policy) Retryable(o Outcome) bool {
	if o.Err != nil {
		return errors.As(o.Err, new(*RetryableError))
	}
	return IsRetryableStatus(o.StatusCode)
}

// ShouldRetry reports whether attempt (1-indexed) with outcome o should be
// followed by another attempt.
func (p Policy) ShouldRetry(o Outcome, attempt int) bool {
	return attempt < p.maxAttempts() && p.Retryable(o)
}

// Delay returns the wait after a failed attempt (1-indexed):
// BaseDelay * 2^(attempt-1) plus jitter in [0, MaxJitter).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay << (attempt - 1)
	return d + p.jitter()
}

// MaxTotalDelay is the longest the waits between attempts can add up to.
func (p Policy) MaxTotalDelay() time.Duration {
	var total time.Duration
	for k := 1; k < p.maxAttempts(); k++ {
		total += p.BaseDelay<<(k-1) + p.MaxJitter
	}
	return total
}

func (p Policy) maxAttempts() int {
	return max(p.MaxAttempts, 1)
}

func (p Policy) jitter() time.Duration {
	if p.MaxJitter <= 0 {
		return 0
	}
	if p.Jitter != nil {
		return p.Jitter(p.MaxJitter)
	}
	return rand.N(p.MaxJitter)
}

// Attempt describes one finished attempt for observers.
type Attempt struct {
	Number  int           // 1-indexed
	Outcome Outcome       // What the attempt returned
	Delay   time.Duration // Wait before the next attempt; 0 when none follows
	Retry   bool          // Whether another attempt follows
}

// Retrier runs a function under a [Policy]. Attempts are sequential.
type Retrier struct {
	Policy Policy

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnAttempt is called after every attempt. A panicking observer is
	// recovered and ignored.
	OnAttempt func(Attempt)
}

// Do calls fn until it returns an outcome the policy does not retry, or the
// attempt budget runs out.
//
// It returns the last outcome and the number of attempts made. The error is
// nil when fn's final outcome was not retryable (success or a fatal
// failure, which the caller inspects), [ErrExhausted] when the budget ran
// out on a retryable outcome, or ctx.Err() when the context ended while
// waiting between attempts.
func (r Retrier) Do(ctx context.Context, fn func(ctx context.Context, attempt int) Outcome) (Outcome, int, error) {
	var last Outcome
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return last, attempt - 1, err
		}

		last = fn(ctx, attempt)
		retry := r.Policy.ShouldRetry(last, attempt)

		var delay time.Duration
		if retry {
			delay = r.Policy.Delay(attempt)
		}
		r.observe(Attempt{Number: attempt, Outcome: last, Delay: delay, Retry: retry})

		if !retry {
			if r.Policy.Retryable(last) {
				return last, attempt, ErrExhausted
			}
			return last, attempt, nil
		}

		if err := r.sleep(ctx, delay); err != nil {
			return last, attempt, err
		}
	}
}

func (r Retrier) observe(a Attempt) {
	if r.OnAttempt == nil {
		return
	}
	defer func() { _ = recover() }()
	r.OnAttempt(a)
}

func (r Retrier) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// SleepContext waits for d, returning ctx.Err() early if ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
