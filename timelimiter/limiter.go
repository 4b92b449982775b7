package timelimiter

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/shield/events"
)

// TimeLimiter bounds the duration of calls. All methods are safe for
// concurrent use.
type TimeLimiter struct {
	name   string
	config Config

	succeeded atomic.Int64
	failed    atomic.Int64
	timedOut  atomic.Int64

	publisher *events.Publisher[Event]
}

// New creates a time limiter. Zero config fields take defaults.
func New(name string, config Config) *TimeLimiter {
	cfg := config.withDefaults()
	return &TimeLimiter{
		name:   name,
		config: cfg,
		publisher: events.NewPublisher[Event](events.PublisherConfig{
			BufferSize: cfg.EventBufferSize,
			Logger:     cfg.Logger,
		}),
	}
}

// Name returns the limiter name.
func (tl *TimeLimiter) Name() string { return tl.name }

// Config returns the limiter configuration.
func (tl *TimeLimiter) Config() Config { return tl.config }

// Execute runs op on its own goroutine and waits up to TimeoutDuration for
// it to finish. On timeout it returns ErrTimeout; unless
// KeepRunningOnTimeout is set, op's context is cancelled at the same moment.
// When ctx itself ends first the context error is returned unchanged.
func (tl *TimeLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := Do(ctx, tl, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do runs op under tl and returns its result.
func Do[T any](ctx context.Context, tl *TimeLimiter, op func(context.Context) (T, error)) (T, error) {
	start := time.Now()

	opCtx := ctx
	var cancel context.CancelFunc
	if !tl.config.KeepRunningOnTimeout {
		opCtx, cancel = context.WithCancel(ctx)
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		if cancel != nil {
			defer cancel()
		}
		v, err := op(opCtx)
		done <- outcome{value: v, err: err}
	}()

	timer := time.NewTimer(tl.config.TimeoutDuration)
	defer timer.Stop()

	select {
	case out := <-done:
		tl.record(out.err, time.Since(start))
		return out.value, out.err
	case <-timer.C:
		if cancel != nil {
			cancel()
		}
		tl.timedOut.Add(1)
		tl.publisher.Publish(Event{Kind: EventTimeout, Name: tl.name, CreatedAt: time.Now(), Duration: time.Since(start)})
		var zero T
		return zero, fmt.Errorf("timelimiter %q: %w after %v", tl.name, ErrTimeout, tl.config.TimeoutDuration)
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		var zero T
		return zero, ctx.Err()
	}
}

func (tl *TimeLimiter) record(err error, elapsed time.Duration) {
	if err != nil {
		tl.failed.Add(1)
		tl.publisher.Publish(Event{Kind: EventError, Name: tl.name, CreatedAt: time.Now(), Duration: elapsed, Err: err})
		return
	}
	tl.succeeded.Add(1)
	tl.publisher.Publish(Event{Kind: EventSuccess, Name: tl.name, CreatedAt: time.Now(), Duration: elapsed})
}

// Metrics is a point-in-time view of time limiter outcomes.
type Metrics struct {
	SuccessfulCalls int64
	FailedCalls     int64
	TimeoutCalls    int64
}

// Metrics returns a snapshot of time limiter outcomes.
func (tl *TimeLimiter) Metrics() Metrics {
	return Metrics{
		SuccessfulCalls: tl.succeeded.Load(),
		FailedCalls:     tl.failed.Load(),
		TimeoutCalls:    tl.timedOut.Load(),
	}
}
