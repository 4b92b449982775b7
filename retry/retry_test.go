package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

// fast returns a config with three attempts and no meaningful wait, so tests
// run instantly.
func fast() Config {
	return Config{
		MaxAttempts:  3,
		WaitDuration: time.Nanosecond,
	}
}

func TestNew_Defaults(t *testing.T) {
	r := New("backend", Config{})

	if r.Name() != "backend" {
		t.Errorf("Name() = %q, want %q", r.Name(), "backend")
	}
	cfg := r.Config()
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.WaitDuration != 500*time.Millisecond {
		t.Errorf("WaitDuration = %v, want 500ms", cfg.WaitDuration)
	}
	if cfg.ExponentialBackoffMultiplier != 1.5 {
		t.Errorf("ExponentialBackoffMultiplier = %v, want 1.5", cfg.ExponentialBackoffMultiplier)
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	r := New("backend", fast())

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errBoom
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}

	m := r.Metrics()
	if m.SuccessfulCallsWithRetry != 1 {
		t.Errorf("SuccessfulCallsWithRetry = %d, want 1", m.SuccessfulCallsWithRetry)
	}
	if m.SuccessfulCallsWithoutRetry != 0 {
		t.Errorf("SuccessfulCallsWithoutRetry = %d, want 0", m.SuccessfulCallsWithoutRetry)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	r := New("backend", fast())

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return errBoom
	})
	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("Execute() = %v, want ErrMaxRetriesExceeded", err)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("Execute() = %v, should wrap the last error", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if got := r.Metrics().FailedCallsWithRetry; got != 1 {
		t.Errorf("FailedCallsWithRetry = %d, want 1", got)
	}
}

func TestRetry_FirstAttemptSuccess(t *testing.T) {
	r := New("backend", fast())

	if err := r.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if got := r.Metrics().SuccessfulCallsWithoutRetry; got != 1 {
		t.Errorf("SuccessfulCallsWithoutRetry = %d, want 1", got)
	}
}

func TestRetry_IgnoreErrorsFailImmediately(t *testing.T) {
	cfg := fast()
	cfg.IgnoreErrors = []error{context.Canceled}
	r := New("backend", cfg)

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrMaxRetriesExceeded) {
		t.Error("an ignored error must not be wrapped as exhaustion")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_RetryErrorsRestrictRetries(t *testing.T) {
	errTransient := errors.New("transient")
	cfg := fast()
	cfg.RetryErrors = []error{errTransient}
	r := New("backend", cfg)

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("Execute() = %v, want errBoom", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d for a non-retryable error, want 1", attempts)
	}
	if got := r.Metrics().FailedCallsWithoutRetry; got != 1 {
		t.Errorf("FailedCallsWithoutRetry = %d, want 1", got)
	}

	attempts = 0
	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return errTransient
	})
	if attempts != 3 {
		t.Errorf("attempts = %d for a retryable error, want 3", attempts)
	}
}

func TestRetry_RetryErrorPredicate(t *testing.T) {
	cfg := fast()
	cfg.RetryErrorPredicate = func(err error) bool {
		return errors.Is(err, errBoom)
	}
	r := New("backend", cfg)

	attempts := 0
	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return errBoom
	})
	if attempts != 3 {
		t.Errorf("attempts = %d with a matching predicate, want 3", attempts)
	}

	attempts = 0
	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("other")
	})
	if attempts != 1 {
		t.Errorf("attempts = %d with a non-matching predicate, want 1", attempts)
	}
}

func TestRetry_ExecuteHonorsContext(t *testing.T) {
	cfg := Config{MaxAttempts: 3, WaitDuration: time.Minute}
	r := New("backend", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Execute(ctx, func(ctx context.Context) error {
			return errBoom
		})
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Execute() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Execute did not return after cancellation")
	}
}

func TestDo(t *testing.T) {
	r := New("backend", fast())

	attempts := 0
	got, err := Do(context.Background(), r, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errBoom
		}
		return "payload", nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "payload" {
		t.Errorf("Do() = %q, want %q", got, "payload")
	}
}

func TestDo_ResultPredicate(t *testing.T) {
	cfg := fast()
	cfg.RetryResultPredicate = func(result any) bool {
		return result.(int) < 200
	}
	r := New("backend", cfg)

	attempts := 0
	got, err := Do(context.Background(), r, func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 2 {
			return 100, nil
		}
		return 200, nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != 200 {
		t.Errorf("Do() = %d, want 200", got)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestDo_ResultPredicateBudgetReturnsLastResult(t *testing.T) {
	cfg := fast()
	cfg.RetryResultPredicate = func(result any) bool { return true }
	r := New("backend", cfg)

	attempts := 0
	got, err := Do(context.Background(), r, func(ctx context.Context) (int, error) {
		attempts++
		return attempts, nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != 3 {
		t.Errorf("Do() = %d, want the last result 3", got)
	}
}

func TestContext_OnError(t *testing.T) {
	r := New("backend", Config{MaxAttempts: 2, WaitDuration: 10 * time.Millisecond})
	rc := r.NewContext()

	wait, terminal := rc.OnError(errBoom)
	if terminal != nil {
		t.Fatalf("first OnError() terminal = %v, want nil", terminal)
	}
	if wait != 10*time.Millisecond {
		t.Errorf("wait = %v, want 10ms", wait)
	}

	_, terminal = rc.OnError(errBoom)
	if !errors.Is(terminal, ErrMaxRetriesExceeded) {
		t.Errorf("second OnError() terminal = %v, want ErrMaxRetriesExceeded", terminal)
	}
}

func TestRetry_ExponentialBackoff(t *testing.T) {
	r := New("backend", Config{
		MaxAttempts:                  5,
		WaitDuration:                 100 * time.Millisecond,
		EnableExponentialBackoff:     true,
		ExponentialBackoffMultiplier: 2,
	})

	if got := r.interval(1); got != 100*time.Millisecond {
		t.Errorf("interval(1) = %v, want 100ms", got)
	}
	if got := r.interval(2); got != 200*time.Millisecond {
		t.Errorf("interval(2) = %v, want 200ms", got)
	}
	if got := r.interval(3); got != 400*time.Millisecond {
		t.Errorf("interval(3) = %v, want 400ms", got)
	}
}

func TestRetry_MaxWaitDurationCapsBackoff(t *testing.T) {
	r := New("backend", Config{
		MaxAttempts:                  5,
		WaitDuration:                 100 * time.Millisecond,
		EnableExponentialBackoff:     true,
		ExponentialBackoffMultiplier: 10,
		MaxWaitDuration:              250 * time.Millisecond,
	})

	if got := r.interval(3); got != 250*time.Millisecond {
		t.Errorf("interval(3) = %v, want the 250ms cap", got)
	}
}

func TestRetry_RandomizedWait(t *testing.T) {
	r := New("backend", Config{
		MaxAttempts:          3,
		WaitDuration:         100 * time.Millisecond,
		EnableRandomizedWait: true,
		RandomizedWaitFactor: 0.5,
	})

	for i := 0; i < 100; i++ {
		wait := r.interval(1)
		if wait < 50*time.Millisecond || wait > 150*time.Millisecond {
			t.Fatalf("interval(1) = %v, want within [50ms, 150ms]", wait)
		}
	}
}

func TestRetry_IntervalFunction(t *testing.T) {
	r := New("backend", Config{
		MaxAttempts: 3,
		IntervalFunction: func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Millisecond
		},
	})

	if got := r.interval(2); got != 2*time.Millisecond {
		t.Errorf("interval(2) = %v, want 2ms", got)
	}
}

func TestRetry_Events(t *testing.T) {
	r := New("backend", fast())

	retries := make(chan Event, 2)
	successes := make(chan Event, 1)
	defer r.OnRetryEvent(func(e Event) { retries <- e })()
	defer r.OnSuccessEvent(func(e Event) { successes <- e })()

	attempts := 0
	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errBoom
		}
		return nil
	})

	select {
	case e := <-retries:
		if e.Kind != EventRetry || e.Attempt != 1 || !errors.Is(e.Err, errBoom) {
			t.Errorf("retry event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EventRetry")
	}

	select {
	case e := <-successes:
		if e.Kind != EventSuccess || e.Name != "backend" {
			t.Errorf("success event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EventSuccess")
	}
}

func TestRetry_ErrorEvent(t *testing.T) {
	r := New("backend", fast())

	failures := make(chan Event, 1)
	defer r.OnErrorEvent(func(e Event) { failures <- e })()

	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		return errBoom
	})

	select {
	case e := <-failures:
		if e.Kind != EventError || e.Attempt != 3 {
			t.Errorf("error event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EventError")
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{EnableExponentialBackoff: true, EnableRandomizedWait: true}).Validate(); err == nil {
		t.Error("Validate() should reject combined wait strategies")
	}
	if err := (Config{RandomizedWaitFactor: 1.5}).Validate(); err == nil {
		t.Error("Validate() should reject a factor above 1")
	}
	if err := (Config{
		IntervalFunction:         func(int) time.Duration { return 0 },
		EnableExponentialBackoff: true,
	}).Validate(); err == nil {
		t.Error("Validate() should reject an interval function combined with backoff")
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestConfig_WithBase(t *testing.T) {
	base := Config{
		MaxAttempts:  5,
		WaitDuration: time.Second,
	}
	overlay := Config{MaxAttempts: 2, BaseConfig: "shared"}

	merged := overlay.WithBase(base)
	if merged.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want 2", merged.MaxAttempts)
	}
	if merged.WaitDuration != time.Second {
		t.Errorf("WaitDuration = %v, want 1s", merged.WaitDuration)
	}
	if merged.BaseConfig != "" {
		t.Errorf("BaseConfig = %q, want empty after merge", merged.BaseConfig)
	}
}
