package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/shield/events"
	"github.com/jonwraymond/shield/observe"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls flow normally and outcomes are recorded.
	StateClosed State = iota
	// StateOpen means the breaker denies all calls until the wait elapses.
	StateOpen
	// StateHalfOpen means a bounded number of probe calls is permitted.
	StateHalfOpen
	// StateDisabled permits every call and records nothing.
	StateDisabled
	// StateForcedOpen denies every call and records nothing.
	StateForcedOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	case StateDisabled:
		return "disabled"
	case StateForcedOpen:
		return "forced-open"
	default:
		return "unknown"
	}
}

// Ordinal returns the numeric value exported in metrics for this state.
func (s State) Ordinal() int { return int(s) }

// CircuitBreaker implements the circuit breaker pattern over a sliding
// window of call outcomes.
type CircuitBreaker struct {
	name      string
	config    Config
	publisher *events.Publisher[Event]

	mu              sync.Mutex
	state           State
	window          slidingWindow
	openedAt        time.Time
	halfOpenPermits int
	generation      uint64
	timer           *time.Timer

	notPermitted int64
	ignored      int64
}

// New creates a circuit breaker with the given name and configuration.
// Zero-valued config fields take their defaults.
func New(name string, config Config) *CircuitBreaker {
	config = config.withDefaults()

	cb := &CircuitBreaker{
		name:   name,
		config: config,
		publisher: events.NewPublisher[Event](events.PublisherConfig{
			BufferSize: config.EventBufferSize,
			Logger:     config.Logger,
		}),
		state: StateClosed,
	}
	cb.window = cb.newClosedWindow()
	return cb
}

func (cb *CircuitBreaker) newClosedWindow() slidingWindow {
	if cb.config.WindowType == WindowTimeBased {
		return newTimeWindow(cb.config.RingBufferSizeInClosedState)
	}
	return newCountWindow(cb.config.RingBufferSizeInClosedState)
}

// Name returns the breaker's instance name.
func (cb *CircuitBreaker) Name() string { return cb.name }

// Config returns a copy of the breaker's configuration.
func (cb *CircuitBreaker) Config() Config { return cb.config }

// State returns the current state without side effects.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// TryAcquirePermission attempts to obtain a permission without blocking.
// A denial increments the not-permitted counter and publishes an event.
func (cb *CircuitBreaker) TryAcquirePermission() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateDisabled:
		return true

	case StateForcedOpen:
		cb.denyLocked()
		return false

	case StateOpen:
		if time.Since(cb.openedAt) < cb.config.WaitDurationInOpenState {
			cb.denyLocked()
			return false
		}
		cb.transitionLocked(StateHalfOpen)
		fallthrough

	case StateHalfOpen:
		if cb.halfOpenPermits >= cb.config.RingBufferSizeInHalfOpenState {
			cb.denyLocked()
			return false
		}
		cb.halfOpenPermits++
		return true

	default:
		cb.denyLocked()
		return false
	}
}

// AcquirePermission obtains a permission or returns ErrCallNotPermitted.
// It may transition the breaker from open to half-open when the open wait
// has elapsed.
func (cb *CircuitBreaker) AcquirePermission() error {
	if cb.TryAcquirePermission() {
		return nil
	}
	return fmt.Errorf("%w: circuit breaker %q is %s", ErrCallNotPermitted, cb.name, cb.State())
}

// ReleasePermission returns an unused permission without recording an
// outcome. Callers that acquired a permission but cancelled before invoking
// the guarded operation must call it to keep the probe budget consistent.
func (cb *CircuitBreaker) ReleasePermission() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.halfOpenPermits > 0 {
		cb.halfOpenPermits--
	}
}

func (cb *CircuitBreaker) denyLocked() {
	cb.notPermitted++
	cb.publisher.Publish(Event{
		Kind:      EventNotPermitted,
		Name:      cb.name,
		CreatedAt: time.Now(),
	})
}

// OnSuccess records a successful call with its elapsed duration.
func (cb *CircuitBreaker) OnSuccess(duration time.Duration) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateDisabled || cb.state == StateForcedOpen {
		return
	}

	outcome := outcomeSuccess
	if duration >= cb.config.SlowCallDurationThreshold {
		outcome = outcomeSlowSuccess
	}
	cb.recordLocked(duration, outcome, nil)
}

// OnError records a failed call with its elapsed duration. The error is
// classified against the ignore and record lists and predicates; ignored
// errors release the permission without touching the window.
func (cb *CircuitBreaker) OnError(duration time.Duration, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateDisabled || cb.state == StateForcedOpen {
		return
	}

	if !cb.shouldRecord(err) {
		cb.ignored++
		if cb.state == StateHalfOpen && cb.halfOpenPermits > 0 {
			cb.halfOpenPermits--
		}
		cb.publisher.Publish(Event{
			Kind:      EventIgnoredError,
			Name:      cb.name,
			CreatedAt: time.Now(),
			Duration:  duration,
			Err:       err,
		})
		return
	}

	outcome := outcomeFailure
	if duration >= cb.config.SlowCallDurationThreshold {
		outcome = outcomeSlowFailure
	}
	cb.recordLocked(duration, outcome, err)
}

// shouldRecord reports whether err counts as a failure. Ignore rules win
// over record rules; a non-empty record list excludes unlisted errors.
func (cb *CircuitBreaker) shouldRecord(err error) bool {
	for _, target := range cb.config.IgnoreErrors {
		if errors.Is(err, target) {
			return false
		}
	}
	if cb.config.IgnoreErrorPredicate != nil && cb.config.IgnoreErrorPredicate(err) {
		return false
	}
	if cb.config.RecordErrorPredicate != nil && cb.config.RecordErrorPredicate(err) {
		return true
	}
	if len(cb.config.RecordErrors) > 0 {
		for _, target := range cb.config.RecordErrors {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
	return true
}

func (cb *CircuitBreaker) recordLocked(duration time.Duration, outcome callOutcome, err error) {
	snap := cb.window.record(duration, outcome)

	kind := EventSuccess
	if outcome.failed() {
		kind = EventError
	}
	cb.publisher.Publish(Event{
		Kind:      kind,
		Name:      cb.name,
		CreatedAt: time.Now(),
		Duration:  duration,
		Err:       err,
	})

	switch cb.state {
	case StateClosed:
		cb.evaluateClosedLocked(snap)
	case StateHalfOpen:
		if cb.halfOpenPermits > 0 {
			cb.halfOpenPermits--
		}
		cb.evaluateHalfOpenLocked(snap)
	}
}

func (cb *CircuitBreaker) evaluateClosedLocked(snap windowSnapshot) {
	failureRate := snap.failureRate(cb.config.MinimumNumberOfCalls)
	slowRate := snap.slowCallRate(cb.config.MinimumNumberOfCalls)

	if failureRate >= cb.config.FailureRateThreshold || slowRate >= cb.config.SlowCallRateThreshold {
		cb.transitionLocked(StateOpen)
	}
}

func (cb *CircuitBreaker) evaluateHalfOpenLocked(snap windowSnapshot) {
	minCalls := cb.config.RingBufferSizeInHalfOpenState
	failureRate := snap.failureRate(minCalls)
	if failureRate < 0 {
		return
	}

	slowRate := snap.slowCallRate(minCalls)
	if failureRate >= cb.config.FailureRateThreshold || slowRate >= cb.config.SlowCallRateThreshold {
		cb.transitionLocked(StateOpen)
	} else {
		cb.transitionLocked(StateClosed)
	}
}

// transitionLocked moves the breaker to a new state, swaps the window and
// manages the automatic open-to-half-open timer.
func (cb *CircuitBreaker) transitionLocked(to State) {
	from := cb.state
	if from == to {
		return
	}

	cb.generation++
	if cb.timer != nil {
		cb.timer.Stop()
		cb.timer = nil
	}

	cb.state = to

	switch to {
	case StateClosed:
		cb.window = cb.newClosedWindow()
	case StateHalfOpen:
		cb.window = newCountWindow(cb.config.RingBufferSizeInHalfOpenState)
		cb.halfOpenPermits = 0
	case StateOpen:
		cb.openedAt = time.Now()
		if cb.config.AutomaticTransitionFromOpenToHalfOpenEnabled {
			cb.armHalfOpenTimerLocked()
		}
	}

	cb.publisher.Publish(Event{
		Kind:      EventStateTransition,
		Name:      cb.name,
		CreatedAt: time.Now(),
		From:      from,
		To:        to,
	})
}

func (cb *CircuitBreaker) armHalfOpenTimerLocked() {
	gen := cb.generation
	cb.timer = time.AfterFunc(cb.config.WaitDurationInOpenState, func() {
		cb.mu.Lock()
		if cb.state == StateOpen && cb.generation == gen {
			cb.config.Logger.Debug(context.Background(), "automatic transition to half-open",
				observe.Field{Key: "breaker", Value: cb.name})
			cb.transitionLocked(StateHalfOpen)
		}
		cb.mu.Unlock()
	})
}

// TransitionToOpen moves the breaker to the open state.
func (cb *CircuitBreaker) TransitionToOpen() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionLocked(StateOpen)
}

// TransitionToClosed moves the breaker to the closed state with a fresh window.
func (cb *CircuitBreaker) TransitionToClosed() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionLocked(StateClosed)
}

// TransitionToHalfOpen moves the breaker from open to half-open. Any other
// source state returns ErrIllegalStateTransition.
func (cb *CircuitBreaker) TransitionToHalfOpen() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalStateTransition, cb.state, StateHalfOpen)
	}
	cb.transitionLocked(StateHalfOpen)
	return nil
}

// TransitionToDisabled moves the breaker to the disabled state: every call
// is permitted and nothing is recorded.
func (cb *CircuitBreaker) TransitionToDisabled() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionLocked(StateDisabled)
}

// TransitionToForcedOpen moves the breaker to the forced-open state: every
// call is denied and nothing is recorded.
func (cb *CircuitBreaker) TransitionToForcedOpen() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionLocked(StateForcedOpen)
}

// Reset returns the breaker to the closed state, clears all counters and
// publishes a reset event.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.transitionLocked(StateClosed)
	cb.window.reset()
	cb.notPermitted = 0
	cb.ignored = 0

	cb.publisher.Publish(Event{
		Kind:      EventReset,
		Name:      cb.name,
		CreatedAt: time.Now(),
	})
}

// Execute runs the operation through the breaker: acquire a permission,
// invoke, then record the outcome with the elapsed duration. The operation's
// error is returned unchanged.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.AcquirePermission(); err != nil {
		return err
	}

	start := time.Now()
	err := op(ctx)
	elapsed := time.Since(start)

	if err != nil {
		cb.OnError(elapsed, err)
		return err
	}
	cb.OnSuccess(elapsed)
	return nil
}

// Do runs an operation returning a value through the breaker.
func Do[T any](ctx context.Context, cb *CircuitBreaker, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := cb.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}

// Metrics returns a snapshot of the breaker's current statistics.
func (cb *CircuitBreaker) Metrics() Metrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	snap := cb.window.snapshot()
	minCalls := cb.config.MinimumNumberOfCalls
	if cb.state == StateHalfOpen {
		minCalls = cb.config.RingBufferSizeInHalfOpenState
	}

	return Metrics{
		State:             cb.state,
		FailureRate:       snap.failureRate(minCalls),
		SlowCallRate:      snap.slowCallRate(minCalls),
		BufferedCalls:     snap.total,
		SuccessfulCalls:   snap.total - snap.failed,
		FailedCalls:       snap.failed,
		SlowCalls:         snap.slow,
		NotPermittedCalls: cb.notPermitted,
		IgnoredCalls:      cb.ignored,
	}
}

// Metrics contains circuit breaker statistics.
type Metrics struct {
	State             State
	FailureRate       float64 // -1 until the window holds enough calls
	SlowCallRate      float64 // -1 until the window holds enough calls
	BufferedCalls     int
	SuccessfulCalls   int
	FailedCalls       int
	SlowCalls         int
	NotPermittedCalls int64
	IgnoredCalls      int64
}
