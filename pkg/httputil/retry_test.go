package httputil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func noJitter(time.Duration) time.Duration { return 0 }

func TestPolicyShouldRetry(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name    string
		outcome Outcome
		attempt int
		want    bool
	}{
		{"429 first attempt", Outcome{StatusCode: http.StatusTooManyRequests}, 1, true},
		{"500", Outcome{StatusCode: http.StatusInternalServerError}, 2, true},
		{"503", Outcome{StatusCode: http.StatusServiceUnavailable}, 4, true},
		{"503 at budget", Outcome{StatusCode: http.StatusServiceUnavailable}, 5, false},
		{"200", Outcome{StatusCode: http.StatusOK}, 1, false},
		{"400", Outcome{StatusCode: http.StatusBadRequest}, 1, false},
		{"403", Outcome{StatusCode: http.StatusForbidden}, 1, false},
		{"404", Outcome{StatusCode: http.StatusNotFound}, 1, false},
		{"network error", Outcome{Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}, 1, false},
		{"wrapped retryable", Outcome{Err: &RetryableError{Err: errors.New("short read")}}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.ShouldRetry(tt.outcome, tt.attempt); got != tt.want {
				t.Errorf("ShouldRetry(%+v, %d) = %v, want %v", tt.outcome, tt.attempt, got, tt.want)
			}
		})
	}
}

func TestPolicyDelay(t *testing.T) {
	p := DefaultPolicy()
	p.Jitter = noJitter

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	for i, w := range want {
		if got := p.Delay(i + 1); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestPolicyDelayJitterBounds(t *testing.T) {
	p := DefaultPolicy()
	for attempt := 1; attempt <= 5; attempt++ {
		base := time.Second << (attempt - 1)
		for range 50 {
			d := p.Delay(attempt)
			if d < base || d >= base+p.MaxJitter {
				t.Fatalf("Delay(%d) = %v, want in [%v, %v)", attempt, d, base, base+p.MaxJitter)
			}
		}
	}
}

func TestPolicyMaxTotalDelay(t *testing.T) {
	p := DefaultPolicy()
	// 1+2+4+8 seconds plus four jitter ceilings.
	want := 15*time.Second + 4*500*time.Millisecond
	if got := p.MaxTotalDelay(); got != want {
		t.Errorf("MaxTotalDelay() = %v, want %v", got, want)
	}
}

func TestRetrierSucceedsAfterRateLimits(t *testing.T) {
	var slept []time.Duration
	var observed []Attempt
	p := DefaultPolicy()
	p.Jitter = noJitter

	r := Retrier{
		Policy:    p,
		Sleep:     func(_ context.Context, d time.Duration) error { slept = append(slept, d); return nil },
		OnAttempt: func(a Attempt) { observed = append(observed, a) },
	}

	out, attempts, err := r.Do(context.Background(), func(_ context.Context, attempt int) Outcome {
		if attempt <= 3 {
			return Outcome{StatusCode: http.StatusTooManyRequests}
		}
		return Outcome{StatusCode: http.StatusOK}
	})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if !out.OK() || attempts != 4 {
		t.Errorf("Do() = %+v after %d attempts, want 200 after 4", out, attempts)
	}
	wantSlept := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(slept) != len(wantSlept) {
		t.Fatalf("slept %v, want %v", slept, wantSlept)
	}
	for i := range wantSlept {
		if slept[i] != wantSlept[i] {
			t.Errorf("slept[%d] = %v, want %v", i, slept[i], wantSlept[i])
		}
	}
	retries := 0
	for _, a := range observed {
		if a.Retry {
			retries++
		}
	}
	if len(observed) != 4 || retries != 3 {
		t.Errorf("observed %d attempts with %d retries, want 4 and 3", len(observed), retries)
	}
}

func TestRetrierExhausts(t *testing.T) {
	calls := 0
	r := Retrier{
		Policy: DefaultPolicy(),
		Sleep:  func(context.Context, time.Duration) error { return nil },
	}
	out, attempts, err := r.Do(context.Background(), func(context.Context, int) Outcome {
		calls++
		return Outcome{StatusCode: http.StatusInternalServerError}
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("Do() error = %v, want ErrExhausted", err)
	}
	if calls != 5 || attempts != 5 {
		t.Errorf("calls = %d, attempts = %d; want 5", calls, attempts)
	}
	if out.StatusCode != http.StatusInternalServerError {
		t.Errorf("last outcome = %+v", out)
	}
}

func TestRetrierStopsOnFatal(t *testing.T) {
	calls := 0
	r := Retrier{Policy: DefaultPolicy(), Sleep: func(context.Context, time.Duration) error { return nil }}
	out, attempts, err := r.Do(context.Background(), func(context.Context, int) Outcome {
		calls++
		return Outcome{StatusCode: http.StatusUnauthorized}
	})
	if err != nil {
		t.Fatalf("Do() error = %v, want nil for a non-retryable outcome", err)
	}
	if calls != 1 || attempts != 1 || out.StatusCode != http.StatusUnauthorized {
		t.Errorf("calls = %d, attempts = %d, out = %+v", calls, attempts, out)
	}
}

func TestRetrierObserverPanicIgnored(t *testing.T) {
	r := Retrier{
		Policy:    DefaultPolicy(),
		Sleep:     func(context.Context, time.Duration) error { return nil },
		OnAttempt: func(Attempt) { panic("observer bug") },
	}
	out, _, err := r.Do(context.Background(), func(_ context.Context, attempt int) Outcome {
		if attempt == 1 {
			return Outcome{StatusCode: http.StatusBadGateway}
		}
		return Outcome{StatusCode: http.StatusOK}
	})
	if err != nil || !out.OK() {
		t.Errorf("Do() = %+v, %v; want success", out, err)
	}
}

func TestRetrierCancelDuringWait(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	p := DefaultPolicy()
	p.BaseDelay = time.Hour

	done := make(chan error, 1)
	calls := 0
	go func() {
		_, _, err := Retrier{Policy: p}.Do(ctx, func(context.Context, int) Outcome {
			calls++
			return Outcome{StatusCode: http.StatusServiceUnavailable}
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Do() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do() did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetrierCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, attempts, err := Retrier{Policy: DefaultPolicy()}.Do(ctx, func(context.Context, int) Outcome {
		calls++
		return Outcome{StatusCode: http.StatusOK}
	})
	if !errors.Is(err, context.Canceled) || calls != 0 || attempts != 0 {
		t.Errorf("Do() = attempts %d, err %v, calls %d", attempts, err, calls)
	}
}

func TestSleepContext(t *testing.T) {
	if err := SleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("SleepContext() error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := SleepContext(ctx, time.Hour); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("SleepContext() error = %v, want DeadlineExceeded", err)
	}
}
