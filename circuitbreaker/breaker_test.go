package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

var errBoom = errors.New("boom")

// trippable returns a config that opens after two calls with one failure.
func trippable() Config {
	return Config{
		RingBufferSizeInClosedState:   2,
		RingBufferSizeInHalfOpenState: 1,
		MinimumNumberOfCalls:          2,
		FailureRateThreshold:          50,
		WaitDurationInOpenState:       time.Hour,
	}
}

func trip(cb *CircuitBreaker) {
	cb.OnError(time.Millisecond, errBoom)
	cb.OnError(time.Millisecond, errBoom)
}

func TestNew_Defaults(t *testing.T) {
	cb := New("backend", Config{})

	if cb.Name() != "backend" {
		t.Errorf("Name() = %q, want %q", cb.Name(), "backend")
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want %v", cb.State(), StateClosed)
	}

	cfg := cb.Config()
	if cfg.FailureRateThreshold != 50 {
		t.Errorf("FailureRateThreshold = %v, want 50", cfg.FailureRateThreshold)
	}
	if cfg.SlowCallRateThreshold != 100 {
		t.Errorf("SlowCallRateThreshold = %v, want 100", cfg.SlowCallRateThreshold)
	}
	if cfg.RingBufferSizeInClosedState != 100 {
		t.Errorf("RingBufferSizeInClosedState = %d, want 100", cfg.RingBufferSizeInClosedState)
	}
	if cfg.MinimumNumberOfCalls != 100 {
		t.Errorf("MinimumNumberOfCalls = %d, want 100", cfg.MinimumNumberOfCalls)
	}
	if cfg.WaitDurationInOpenState != 60*time.Second {
		t.Errorf("WaitDurationInOpenState = %v, want 60s", cfg.WaitDurationInOpenState)
	}
}

func TestCircuitBreaker_OpensOnFailureRate(t *testing.T) {
	cb := New("backend", trippable())

	cb.OnSuccess(time.Millisecond)
	if cb.State() != StateClosed {
		t.Fatalf("State() = %v before the window fills, want %v", cb.State(), StateClosed)
	}

	cb.OnError(time.Millisecond, errBoom)
	if cb.State() != StateOpen {
		t.Errorf("State() = %v after 50%% failures, want %v", cb.State(), StateOpen)
	}
	if cb.TryAcquirePermission() {
		t.Error("TryAcquirePermission() should be denied while open")
	}
}

func TestCircuitBreaker_StaysClosedBelowMinimumCalls(t *testing.T) {
	cb := New("backend", Config{
		RingBufferSizeInClosedState: 10,
		MinimumNumberOfCalls:        5,
		FailureRateThreshold:        50,
	})

	for i := 0; i < 4; i++ {
		cb.OnError(time.Millisecond, errBoom)
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %v below minimum calls, want %v", cb.State(), StateClosed)
	}
	if got := cb.Metrics().FailureRate; got != -1 {
		t.Errorf("FailureRate = %v below minimum calls, want -1", got)
	}

	cb.OnError(time.Millisecond, errBoom)
	if cb.State() != StateOpen {
		t.Errorf("State() = %v at minimum calls with 100%% failures, want %v", cb.State(), StateOpen)
	}
}

func TestCircuitBreaker_OpensOnSlowCallRate(t *testing.T) {
	cb := New("backend", Config{
		RingBufferSizeInClosedState: 2,
		MinimumNumberOfCalls:        2,
		SlowCallRateThreshold:       50,
		SlowCallDurationThreshold:   10 * time.Millisecond,
		WaitDurationInOpenState:     time.Hour,
	})

	cb.OnSuccess(time.Millisecond)
	cb.OnSuccess(50 * time.Millisecond)

	if cb.State() != StateOpen {
		t.Errorf("State() = %v after 50%% slow calls, want %v", cb.State(), StateOpen)
	}
}

func TestCircuitBreaker_AcquirePermission(t *testing.T) {
	cb := New("backend", trippable())

	if err := cb.AcquirePermission(); err != nil {
		t.Fatalf("AcquirePermission() while closed = %v", err)
	}

	trip(cb)

	err := cb.AcquirePermission()
	if !errors.Is(err, ErrCallNotPermitted) {
		t.Errorf("AcquirePermission() while open = %v, want ErrCallNotPermitted", err)
	}
	if got := cb.Metrics().NotPermittedCalls; got != 1 {
		t.Errorf("NotPermittedCalls = %d, want 1", got)
	}
}

func TestCircuitBreaker_OpenToHalfOpenAfterWait(t *testing.T) {
	cfg := trippable()
	cfg.WaitDurationInOpenState = 20 * time.Millisecond
	cb := New("backend", cfg)

	trip(cb)
	if cb.TryAcquirePermission() {
		t.Fatal("permission should be denied immediately after opening")
	}

	time.Sleep(40 * time.Millisecond)

	if !cb.TryAcquirePermission() {
		t.Fatal("permission should be granted once the wait duration elapsed")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("State() = %v, want %v", cb.State(), StateHalfOpen)
	}
}

func TestCircuitBreaker_HalfOpenPermitBudget(t *testing.T) {
	cfg := trippable()
	cfg.RingBufferSizeInHalfOpenState = 2
	cb := New("backend", cfg)

	trip(cb)
	if err := cb.TransitionToHalfOpen(); err != nil {
		t.Fatalf("TransitionToHalfOpen() error = %v", err)
	}

	if !cb.TryAcquirePermission() {
		t.Error("first probe should be permitted")
	}
	if !cb.TryAcquirePermission() {
		t.Error("second probe should be permitted")
	}
	if cb.TryAcquirePermission() {
		t.Error("third probe should be denied")
	}

	cb.ReleasePermission()
	if !cb.TryAcquirePermission() {
		t.Error("a released permit should be reusable")
	}
}

func TestCircuitBreaker_HalfOpenClosesOnSuccess(t *testing.T) {
	cb := New("backend", trippable())

	trip(cb)
	if err := cb.TransitionToHalfOpen(); err != nil {
		t.Fatalf("TransitionToHalfOpen() error = %v", err)
	}

	cb.OnSuccess(time.Millisecond)
	if cb.State() != StateClosed {
		t.Errorf("State() = %v after a successful probe, want %v", cb.State(), StateClosed)
	}
}

func TestCircuitBreaker_HalfOpenReopensOnFailure(t *testing.T) {
	cb := New("backend", trippable())

	trip(cb)
	if err := cb.TransitionToHalfOpen(); err != nil {
		t.Fatalf("TransitionToHalfOpen() error = %v", err)
	}

	cb.OnError(time.Millisecond, errBoom)
	if cb.State() != StateOpen {
		t.Errorf("State() = %v after a failed probe, want %v", cb.State(), StateOpen)
	}
}

func TestCircuitBreaker_IgnoreErrors(t *testing.T) {
	cfg := trippable()
	cfg.IgnoreErrors = []error{context.Canceled}
	cb := New("backend", cfg)

	cb.OnError(time.Millisecond, context.Canceled)
	cb.OnError(time.Millisecond, context.Canceled)

	if cb.State() != StateClosed {
		t.Errorf("State() = %v after ignored errors, want %v", cb.State(), StateClosed)
	}
	m := cb.Metrics()
	if m.IgnoredCalls != 2 {
		t.Errorf("IgnoredCalls = %d, want 2", m.IgnoredCalls)
	}
	if m.BufferedCalls != 0 {
		t.Errorf("BufferedCalls = %d, want 0", m.BufferedCalls)
	}
}

func TestCircuitBreaker_IgnoreErrorPredicate(t *testing.T) {
	cfg := trippable()
	cfg.IgnoreErrorPredicate = func(err error) bool {
		return errors.Is(err, errBoom)
	}
	cb := New("backend", cfg)

	trip(cb)

	if cb.State() != StateClosed {
		t.Errorf("State() = %v with a matching ignore predicate, want %v", cb.State(), StateClosed)
	}
}

func TestCircuitBreaker_RecordErrorsRestrictsFailures(t *testing.T) {
	errFatal := errors.New("fatal")
	cfg := trippable()
	cfg.RecordErrors = []error{errFatal}
	cb := New("backend", cfg)

	cb.OnError(time.Millisecond, errBoom)
	cb.OnError(time.Millisecond, errBoom)
	if cb.State() != StateClosed {
		t.Fatalf("State() = %v when errors match no record target, want %v", cb.State(), StateClosed)
	}

	cb.OnError(time.Millisecond, errFatal)
	cb.OnError(time.Millisecond, errFatal)
	if cb.State() != StateOpen {
		t.Errorf("State() = %v after recorded failures, want %v", cb.State(), StateOpen)
	}
}

func TestCircuitBreaker_RecordErrorPredicate(t *testing.T) {
	cfg := trippable()
	cfg.RecordErrorPredicate = func(err error) bool {
		return errors.Is(err, errBoom)
	}
	cb := New("backend", cfg)

	trip(cb)

	if cb.State() != StateOpen {
		t.Errorf("State() = %v with a matching record predicate, want %v", cb.State(), StateOpen)
	}
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	cb := New("backend", trippable())
	cb.TransitionToDisabled()

	trip(cb)
	trip(cb)

	if cb.State() != StateDisabled {
		t.Errorf("State() = %v, want %v", cb.State(), StateDisabled)
	}
	if !cb.TryAcquirePermission() {
		t.Error("a disabled breaker should always permit calls")
	}
	if got := cb.Metrics().BufferedCalls; got != 0 {
		t.Errorf("BufferedCalls = %d while disabled, want 0", got)
	}
}

func TestCircuitBreaker_ForcedOpen(t *testing.T) {
	cb := New("backend", trippable())
	cb.TransitionToForcedOpen()

	if cb.TryAcquirePermission() {
		t.Error("a forced-open breaker should never permit calls")
	}
	if err := cb.AcquirePermission(); !errors.Is(err, ErrCallNotPermitted) {
		t.Errorf("AcquirePermission() = %v, want ErrCallNotPermitted", err)
	}

	cb.TransitionToClosed()
	if !cb.TryAcquirePermission() {
		t.Error("a closed breaker should permit calls again")
	}
}

func TestCircuitBreaker_TransitionToHalfOpenRequiresOpen(t *testing.T) {
	cb := New("backend", trippable())

	if err := cb.TransitionToHalfOpen(); !errors.Is(err, ErrIllegalStateTransition) {
		t.Errorf("TransitionToHalfOpen() from closed = %v, want ErrIllegalStateTransition", err)
	}

	trip(cb)
	if err := cb.TransitionToHalfOpen(); err != nil {
		t.Errorf("TransitionToHalfOpen() from open = %v, want nil", err)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := New("backend", trippable())
	trip(cb)

	cb.Reset()

	if cb.State() != StateClosed {
		t.Errorf("State() = %v after Reset, want %v", cb.State(), StateClosed)
	}
	m := cb.Metrics()
	if m.BufferedCalls != 0 || m.FailedCalls != 0 {
		t.Errorf("Metrics after Reset = %+v, want empty window", m)
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb := New("backend", trippable())

	if err := cb.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("Execute() = %v", err)
	}

	if err := cb.Execute(context.Background(), func(ctx context.Context) error {
		return errBoom
	}); !errors.Is(err, errBoom) {
		t.Errorf("Execute() = %v, want errBoom", err)
	}

	if cb.State() != StateOpen {
		t.Fatalf("State() = %v after 50%% failures, want %v", cb.State(), StateOpen)
	}

	called := false
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCallNotPermitted) {
		t.Errorf("Execute() while open = %v, want ErrCallNotPermitted", err)
	}
	if called {
		t.Error("the operation must not run while the breaker is open")
	}
}

func TestDo(t *testing.T) {
	cb := New("backend", trippable())

	got, err := Do(context.Background(), cb, func(ctx context.Context) (string, error) {
		return "payload", nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "payload" {
		t.Errorf("Do() = %q, want %q", got, "payload")
	}

	trip(cb)

	_, err = Do(context.Background(), cb, func(ctx context.Context) (string, error) {
		return "payload", nil
	})
	if !errors.Is(err, ErrCallNotPermitted) {
		t.Errorf("Do() while open = %v, want ErrCallNotPermitted", err)
	}
}

func TestCircuitBreaker_Metrics(t *testing.T) {
	cb := New("backend", Config{
		RingBufferSizeInClosedState: 10,
		MinimumNumberOfCalls:        4,
		FailureRateThreshold:        80,
		SlowCallDurationThreshold:   10 * time.Millisecond,
	})

	cb.OnSuccess(time.Millisecond)
	cb.OnSuccess(50 * time.Millisecond)
	cb.OnError(time.Millisecond, errBoom)
	cb.OnError(time.Millisecond, errBoom)

	m := cb.Metrics()
	if m.State != StateClosed {
		t.Errorf("State = %v, want %v", m.State, StateClosed)
	}
	if m.BufferedCalls != 4 {
		t.Errorf("BufferedCalls = %d, want 4", m.BufferedCalls)
	}
	if m.SuccessfulCalls != 2 {
		t.Errorf("SuccessfulCalls = %d, want 2", m.SuccessfulCalls)
	}
	if m.FailedCalls != 2 {
		t.Errorf("FailedCalls = %d, want 2", m.FailedCalls)
	}
	if m.SlowCalls != 1 {
		t.Errorf("SlowCalls = %d, want 1", m.SlowCalls)
	}
	if m.FailureRate != 50 {
		t.Errorf("FailureRate = %v, want 50", m.FailureRate)
	}
	if m.SlowCallRate != 25 {
		t.Errorf("SlowCallRate = %v, want 25", m.SlowCallRate)
	}
}

func TestCircuitBreaker_AutomaticHalfOpenTransition(t *testing.T) {
	cfg := trippable()
	cfg.WaitDurationInOpenState = 20 * time.Millisecond
	cfg.AutomaticTransitionFromOpenToHalfOpenEnabled = true
	cb := New("backend", cfg)

	transitions := make(chan Event, 4)
	defer cb.OnStateTransitionEvent(func(e Event) { transitions <- e })()

	trip(cb)

	deadline := time.After(time.Second)
	for {
		select {
		case e := <-transitions:
			if e.To == StateHalfOpen {
				if e.From != StateOpen {
					t.Errorf("transition From = %v, want %v", e.From, StateOpen)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for the automatic half-open transition")
		}
	}
}

func TestCircuitBreaker_Events(t *testing.T) {
	cb := New("backend", trippable())

	successes := make(chan Event, 1)
	failures := make(chan Event, 2)
	denied := make(chan Event, 1)
	transitions := make(chan Event, 1)
	defer cb.OnSuccessEvent(func(e Event) { successes <- e })()
	defer cb.OnErrorEvent(func(e Event) { failures <- e })()
	defer cb.OnNotPermittedEvent(func(e Event) { denied <- e })()
	defer cb.OnStateTransitionEvent(func(e Event) { transitions <- e })()

	cb.OnSuccess(time.Millisecond)

	select {
	case e := <-successes:
		if e.Kind != EventSuccess || e.Name != "backend" || e.Duration != time.Millisecond {
			t.Errorf("success event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EventSuccess")
	}

	cb.OnError(time.Millisecond, errBoom)

	select {
	case e := <-failures:
		if e.Kind != EventError || !errors.Is(e.Err, errBoom) {
			t.Errorf("error event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EventError")
	}

	select {
	case e := <-transitions:
		if e.From != StateClosed || e.To != StateOpen {
			t.Errorf("transition event = %+v, want closed -> open", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EventStateTransition")
	}

	cb.TryAcquirePermission()

	select {
	case e := <-denied:
		if e.Kind != EventNotPermitted {
			t.Errorf("not-permitted event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EventNotPermitted")
	}
}

func TestCircuitBreaker_IgnoredErrorEvent(t *testing.T) {
	cfg := trippable()
	cfg.IgnoreErrors = []error{context.Canceled}
	cb := New("backend", cfg)

	ignored := make(chan Event, 1)
	defer cb.OnIgnoredErrorEvent(func(e Event) { ignored <- e })()

	cb.OnError(time.Millisecond, context.Canceled)

	select {
	case e := <-ignored:
		if e.Kind != EventIgnoredError || !errors.Is(e.Err, context.Canceled) {
			t.Errorf("ignored-error event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EventIgnoredError")
	}
}

func TestCircuitBreaker_ResetEvent(t *testing.T) {
	cb := New("backend", trippable())

	resets := make(chan Event, 1)
	defer cb.OnResetEvent(func(e Event) { resets <- e })()

	cb.Reset()

	select {
	case e := <-resets:
		if e.Kind != EventReset || e.Name != "backend" {
			t.Errorf("reset event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EventReset")
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{StateDisabled, "disabled"},
		{StateForcedOpen, "forced-open"},
		{State(99), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{FailureRateThreshold: 150}).Validate(); err == nil {
		t.Error("Validate() should reject a failure rate above 100")
	}
	if err := (Config{RingBufferSizeInClosedState: -1}).Validate(); err == nil {
		t.Error("Validate() should reject a negative ring buffer size")
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestCircuitBreaker_ConcurrentExecute(t *testing.T) {
	cb := New("backend", Config{
		RingBufferSizeInClosedState: 256,
		MinimumNumberOfCalls:        256,
	})

	var g errgroup.Group
	for i := 0; i < 100; i++ {
		g.Go(func() error {
			return cb.Execute(context.Background(), func(ctx context.Context) error {
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Execute() = %v", err)
	}

	if got := cb.Metrics().SuccessfulCalls; got != 100 {
		t.Errorf("SuccessfulCalls = %d, want 100", got)
	}
	if got := cb.State(); got != StateClosed {
		t.Errorf("State() = %v, want StateClosed", got)
	}
}

func TestConfig_WithBase(t *testing.T) {
	base := Config{
		FailureRateThreshold:    30,
		WaitDurationInOpenState: 5 * time.Second,
		MinimumNumberOfCalls:    20,
	}
	overlay := Config{
		FailureRateThreshold: 60,
		BaseConfig:           "shared",
	}

	merged := overlay.WithBase(base)
	if merged.FailureRateThreshold != 60 {
		t.Errorf("FailureRateThreshold = %v, want 60", merged.FailureRateThreshold)
	}
	if merged.WaitDurationInOpenState != 5*time.Second {
		t.Errorf("WaitDurationInOpenState = %v, want 5s", merged.WaitDurationInOpenState)
	}
	if merged.MinimumNumberOfCalls != 20 {
		t.Errorf("MinimumNumberOfCalls = %d, want 20", merged.MinimumNumberOfCalls)
	}
	if merged.BaseConfig != "" {
		t.Errorf("BaseConfig = %q, want empty after merge", merged.BaseConfig)
	}
}
