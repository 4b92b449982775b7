package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/shield/events"
)

// Retry re-invokes failed operations according to its configuration. All
// methods are safe for concurrent use; each logical call gets its own
// Context.
type Retry struct {
	name      string
	config    Config
	publisher *events.Publisher[Event]

	succeededWithoutRetry atomic.Int64
	succeededWithRetry    atomic.Int64
	failedWithoutRetry    atomic.Int64
	failedWithRetry       atomic.Int64
}

// New creates a retry. Zero config fields take defaults.
func New(name string, config Config) *Retry {
	cfg := config.withDefaults()
	return &Retry{
		name:   name,
		config: cfg,
		publisher: events.NewPublisher[Event](events.PublisherConfig{
			BufferSize: cfg.EventBufferSize,
			Logger:     cfg.Logger,
		}),
	}
}

// Name returns the retry name.
func (r *Retry) Name() string { return r.name }

// Config returns the retry configuration.
func (r *Retry) Config() Config { return r.config }

// Context tracks the attempts of one logical call. Create one per call with
// NewContext and report every outcome to it. Not safe for concurrent use.
type Context struct {
	retry   *Retry
	attempt int
	lastErr error
}

// NewContext starts tracking a fresh logical call.
func (r *Retry) NewContext() *Context {
	return &Context{retry: r}
}

// OnError records a failed attempt. The returned wait is how long to pause
// before re-invoking; a non-nil terminal error ends the call instead. The
// terminal error is the original error when it is ignored or not retryable,
// and wraps ErrMaxRetriesExceeded together with the last error once the
// attempt budget is spent.
func (c *Context) OnError(err error) (time.Duration, error) {
	c.attempt++
	r := c.retry

	if r.isIgnored(err) {
		r.publisher.Publish(Event{Kind: EventIgnoredError, Name: r.name, CreatedAt: time.Now(), Attempt: c.attempt, Err: err})
		return 0, err
	}
	if !r.shouldRetry(err) {
		r.recordFailure(c.attempt)
		r.publisher.Publish(Event{Kind: EventError, Name: r.name, CreatedAt: time.Now(), Attempt: c.attempt, Err: err})
		return 0, err
	}
	if c.attempt >= r.config.MaxAttempts {
		r.recordFailure(c.attempt)
		r.publisher.Publish(Event{Kind: EventError, Name: r.name, CreatedAt: time.Now(), Attempt: c.attempt, Err: err})
		return 0, fmt.Errorf("retry %q: %w: %w", r.name, ErrMaxRetriesExceeded, err)
	}

	c.lastErr = err
	wait := r.interval(c.attempt)
	r.publisher.Publish(Event{Kind: EventRetry, Name: r.name, CreatedAt: time.Now(), Attempt: c.attempt, WaitDuration: wait, Err: err})
	return wait, nil
}

// OnResult consults the result predicate after a successful attempt. It
// returns true, and the wait before the next attempt, when the result calls
// for another try and the attempt budget allows one.
func (c *Context) OnResult(result any) (time.Duration, bool) {
	r := c.retry
	if r.config.RetryResultPredicate == nil || !r.config.RetryResultPredicate(result) {
		return 0, false
	}

	c.attempt++
	if c.attempt >= r.config.MaxAttempts {
		return 0, false
	}
	wait := r.interval(c.attempt)
	r.publisher.Publish(Event{Kind: EventRetry, Name: r.name, CreatedAt: time.Now(), Attempt: c.attempt, WaitDuration: wait})
	return wait, true
}

// OnSuccess ends the call successfully. A success event is published only
// when earlier attempts had failed.
func (c *Context) OnSuccess() {
	r := c.retry
	if c.attempt == 0 {
		r.succeededWithoutRetry.Add(1)
		return
	}
	r.succeededWithRetry.Add(1)
	r.publisher.Publish(Event{Kind: EventSuccess, Name: r.name, CreatedAt: time.Now(), Attempt: c.attempt, Err: c.lastErr})
}

func (r *Retry) recordFailure(attempts int) {
	if attempts > 1 {
		r.failedWithRetry.Add(1)
		return
	}
	r.failedWithoutRetry.Add(1)
}

func (r *Retry) isIgnored(err error) bool {
	for _, target := range r.config.IgnoreErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return r.config.IgnoreErrorPredicate != nil && r.config.IgnoreErrorPredicate(err)
}

func (r *Retry) shouldRetry(err error) bool {
	if r.config.RetryErrorPredicate != nil && r.config.RetryErrorPredicate(err) {
		return true
	}
	for _, target := range r.config.RetryErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return r.config.RetryErrorPredicate == nil && len(r.config.RetryErrors) == 0
}

// interval computes the wait after the attempt numbered attempt.
func (r *Retry) interval(attempt int) time.Duration {
	cfg := r.config

	var wait time.Duration
	switch {
	case cfg.IntervalFunction != nil:
		wait = cfg.IntervalFunction(attempt)
	case cfg.EnableExponentialBackoff:
		wait = time.Duration(float64(cfg.WaitDuration) * math.Pow(cfg.ExponentialBackoffMultiplier, float64(attempt-1)))
	case cfg.EnableRandomizedWait:
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		spread := 1 - cfg.RandomizedWaitFactor + 2*cfg.RandomizedWaitFactor*rand.Float64()
		wait = time.Duration(float64(cfg.WaitDuration) * spread)
	default:
		wait = cfg.WaitDuration
	}

	if cfg.MaxWaitDuration > 0 && wait > cfg.MaxWaitDuration {
		wait = cfg.MaxWaitDuration
	}
	return wait
}

// Execute runs op, re-invoking it on retryable errors until it succeeds or
// the attempt budget is spent.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	rc := r.NewContext()
	for {
		err := op(ctx)
		if err == nil {
			rc.OnSuccess()
			return nil
		}
		wait, terminal := rc.OnError(err)
		if terminal != nil {
			return terminal
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Do runs op under r and returns its result. When a result predicate is
// configured, results it flags are re-attempted; the last result is returned
// once the budget is spent.
func Do[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error)) (T, error) {
	rc := r.NewContext()
	for {
		v, err := op(ctx)
		if err == nil {
			if wait, again := rc.OnResult(v); again {
				if err := sleep(ctx, wait); err != nil {
					return v, err
				}
				continue
			}
			rc.OnSuccess()
			return v, nil
		}

		wait, terminal := rc.OnError(err)
		if terminal != nil {
			var zero T
			return zero, terminal
		}
		if err := sleep(ctx, wait); err != nil {
			var zero T
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Metrics is a point-in-time view of retry outcomes.
type Metrics struct {
	SuccessfulCallsWithoutRetry int64
	SuccessfulCallsWithRetry    int64
	FailedCallsWithoutRetry     int64
	FailedCallsWithRetry        int64
}

// Metrics returns a snapshot of retry outcomes.
func (r *Retry) Metrics() Metrics {
	return Metrics{
		SuccessfulCallsWithoutRetry: r.succeededWithoutRetry.Load(),
		SuccessfulCallsWithRetry:    r.succeededWithRetry.Load(),
		FailedCallsWithoutRetry:     r.failedWithoutRetry.Load(),
		FailedCallsWithRetry:        r.failedWithRetry.Load(),
	}
}
