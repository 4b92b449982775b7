package ratelimiter

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/shield/events"
)

// NotPermitted is the reservation result for a permission that cannot be
// acquired within the timeout.
const NotPermitted time.Duration = -1

// limiterState is the single mutable record of a limiter. It is replaced
// wholesale by compare-and-swap; fields are never written in place.
type limiterState struct {
	// activeCycle is the refresh cycle the record was computed in.
	activeCycle int64
	// activePermissions is the remaining budget. Negative values count
	// permissions already promised to waiting callers.
	activePermissions int64
	// nanosToWait is the wait computed for the most recent reservation.
	nanosToWait int64
}

// RateLimiter limits the rate of calls using a fixed budget per refresh
// cycle. All methods are safe for concurrent use.
type RateLimiter struct {
	name  string
	start time.Time

	refreshPeriod  int64
	limitForPeriod atomic.Int64
	timeoutNanos   atomic.Int64

	state   atomic.Pointer[limiterState]
	waiting atomic.Int64

	config    Config
	publisher *events.Publisher[Event]
}

// New creates a rate limiter. Zero config fields take defaults.
func New(name string, config Config) *RateLimiter {
	cfg := config.withDefaults()

	rl := &RateLimiter{
		name:          name,
		start:         time.Now(),
		refreshPeriod: cfg.LimitRefreshPeriod.Nanoseconds(),
		config:        cfg,
		publisher: events.NewPublisher[Event](events.PublisherConfig{
			BufferSize: cfg.EventBufferSize,
			Logger:     cfg.Logger,
		}),
	}
	rl.limitForPeriod.Store(int64(cfg.LimitForPeriod))
	rl.timeoutNanos.Store(cfg.TimeoutDuration.Nanoseconds())
	rl.state.Store(&limiterState{activePermissions: int64(cfg.LimitForPeriod)})
	return rl
}

// Name returns the limiter name.
func (rl *RateLimiter) Name() string { return rl.name }

// Config returns the limiter configuration with current dynamic values.
func (rl *RateLimiter) Config() Config {
	cfg := rl.config
	cfg.LimitForPeriod = int(rl.limitForPeriod.Load())
	cfg.TimeoutDuration = time.Duration(rl.timeoutNanos.Load())
	return cfg
}

// ChangeLimitForPeriod replaces the per-cycle permission budget. The new
// limit applies from the next reservation on.
func (rl *RateLimiter) ChangeLimitForPeriod(limit int) {
	rl.limitForPeriod.Store(int64(limit))
}

// ChangeTimeoutDuration replaces the acquisition timeout. The new timeout
// applies from the next reservation on.
func (rl *RateLimiter) ChangeTimeoutDuration(timeout time.Duration) {
	rl.timeoutNanos.Store(timeout.Nanoseconds())
}

// ReservePermission reserves one permission and returns how long the caller
// must wait before using it. It returns zero when the permission is
// immediately available and NotPermitted when the wait would exceed the
// timeout, in which case nothing is reserved.
func (rl *RateLimiter) ReservePermission() time.Duration {
	wait, ok := rl.reserve(rl.timeoutNanos.Load())
	if !ok {
		rl.publisher.Publish(Event{Kind: EventFailedAcquire, Name: rl.name, CreatedAt: time.Now()})
		return NotPermitted
	}
	rl.publisher.Publish(Event{Kind: EventSuccessfulAcquire, Name: rl.name, CreatedAt: time.Now()})
	return time.Duration(wait)
}

// AcquirePermission reserves one permission and sleeps out the returned
// wait. It returns ErrRequestNotPermitted when the reservation is refused
// and the context error when ctx ends first.
func (rl *RateLimiter) AcquirePermission(ctx context.Context) error {
	wait := rl.ReservePermission()
	if wait == NotPermitted {
		return fmt.Errorf("ratelimiter %q: %w", rl.name, ErrRequestNotPermitted)
	}
	if wait == 0 {
		return nil
	}

	rl.waiting.Add(1)
	defer rl.waiting.Add(-1)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reserve advances the limiter state by one reservation attempt. The swap
// loop retries until the state observed at computation time is still current.
func (rl *RateLimiter) reserve(timeoutNanos int64) (nanosToWait int64, permitted bool) {
	for {
		current := rl.state.Load()
		next, ok := rl.nextState(current, timeoutNanos)
		if rl.state.CompareAndSwap(current, next) {
			return next.nanosToWait, ok
		}
	}
}

// nextState computes the successor of current for one reservation at the
// present instant. The permission is consumed only when its wait fits the
// timeout, so refused requests leave the budget untouched.
func (rl *RateLimiter) nextState(current *limiterState, timeoutNanos int64) (*limiterState, bool) {
	elapsed := time.Since(rl.start).Nanoseconds()
	limit := rl.limitForPeriod.Load()

	cycle := elapsed / rl.refreshPeriod
	permissions := current.activePermissions
	if cycle > current.activeCycle {
		permissions = limit
	}

	var wait int64
	if permissions-1 < 0 {
		deficit := -(permissions - 1)
		cyclesToWait := (deficit + limit - 1) / limit
		wait = cyclesToWait*rl.refreshPeriod - elapsed%rl.refreshPeriod
	}

	permitted := wait <= timeoutNanos
	if permitted {
		permissions--
	}
	return &limiterState{
		activeCycle:       cycle,
		activePermissions: permissions,
		nanosToWait:       wait,
	}, permitted
}

// Execute acquires a permission, waiting if necessary, then runs op.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := rl.AcquirePermission(ctx); err != nil {
		return err
	}
	return op(ctx)
}

// Do acquires a permission from rl, waiting if necessary, then runs op and
// returns its result.
func Do[T any](ctx context.Context, rl *RateLimiter, op func(context.Context) (T, error)) (T, error) {
	if err := rl.AcquirePermission(ctx); err != nil {
		var zero T
		return zero, err
	}
	return op(ctx)
}

// Metrics is a point-in-time view of limiter activity.
type Metrics struct {
	// AvailablePermissions is the budget remaining in the current cycle.
	// Negative values count permissions promised to waiting callers.
	AvailablePermissions int

	// WaitingCallers is the number of goroutines sleeping out a reservation.
	WaitingCallers int
}

// Metrics returns a snapshot of limiter activity.
func (rl *RateLimiter) Metrics() Metrics {
	s := rl.state.Load()
	permissions := s.activePermissions

	elapsed := time.Since(rl.start).Nanoseconds()
	if elapsed/rl.refreshPeriod > s.activeCycle {
		permissions = rl.limitForPeriod.Load()
	}
	return Metrics{
		AvailablePermissions: int(permissions),
		WaitingCallers:       int(rl.waiting.Load()),
	}
}
