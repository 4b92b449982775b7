package bulkhead

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jonwraymond/shield/events"
)

// Bulkhead caps the number of calls running at once. Callers run the call on
// their own goroutine after acquiring a permit. All methods are safe for
// concurrent use.
type Bulkhead struct {
	name   string
	config Config

	sem      *semaphore.Weighted
	inflight atomic.Int64
	rejected atomic.Int64

	publisher *events.Publisher[Event]
}

// New creates a semaphore bulkhead. Zero config fields take defaults.
func New(name string, config Config) *Bulkhead {
	cfg := config.withDefaults()
	return &Bulkhead{
		name:   name,
		config: cfg,
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrentCalls)),
		publisher: events.NewPublisher[Event](events.PublisherConfig{
			BufferSize: cfg.EventBufferSize,
			Logger:     cfg.Logger,
		}),
	}
}

// Name returns the bulkhead name.
func (b *Bulkhead) Name() string { return b.name }

// Config returns the bulkhead configuration.
func (b *Bulkhead) Config() Config { return b.config }

// TryAcquirePermission attempts to take a permit without waiting.
func (b *Bulkhead) TryAcquirePermission() bool {
	if !b.sem.TryAcquire(1) {
		b.reject()
		return false
	}
	b.permit()
	return true
}

// AcquirePermission takes a permit, waiting up to MaxWaitDuration for one to
// free up. It returns ErrBulkheadFull when the wait elapses and the context
// error when ctx ends first. Every successful acquisition must be paired
// with OnComplete.
func (b *Bulkhead) AcquirePermission(ctx context.Context) error {
	if b.config.MaxWaitDuration <= 0 {
		if !b.TryAcquirePermission() {
			return fmt.Errorf("bulkhead %q: %w", b.name, ErrBulkheadFull)
		}
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, b.config.MaxWaitDuration)
	defer cancel()

	if err := b.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.reject()
		return fmt.Errorf("bulkhead %q: %w", b.name, ErrBulkheadFull)
	}
	b.permit()
	return nil
}

// OnComplete returns a permit. Calling it without a matching acquisition is
// a programming error and panics.
func (b *Bulkhead) OnComplete() {
	b.inflight.Add(-1)
	b.sem.Release(1)
	b.publisher.Publish(Event{Kind: EventCallFinished, Name: b.name, CreatedAt: time.Now()})
}

func (b *Bulkhead) permit() {
	b.inflight.Add(1)
	b.publisher.Publish(Event{Kind: EventCallPermitted, Name: b.name, CreatedAt: time.Now()})
}

func (b *Bulkhead) reject() {
	b.rejected.Add(1)
	b.publisher.Publish(Event{Kind: EventCallRejected, Name: b.name, CreatedAt: time.Now()})
}

// Execute acquires a permit, runs op, and returns the permit.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.AcquirePermission(ctx); err != nil {
		return err
	}
	defer b.OnComplete()
	return op(ctx)
}

// Do acquires a permit from b, runs op, and returns its result.
func Do[T any](ctx context.Context, b *Bulkhead, op func(context.Context) (T, error)) (T, error) {
	if err := b.AcquirePermission(ctx); err != nil {
		var zero T
		return zero, err
	}
	defer b.OnComplete()
	return op(ctx)
}

// Metrics is a point-in-time view of bulkhead activity.
type Metrics struct {
	// AvailableConcurrentCalls is the number of free permits.
	AvailableConcurrentCalls int

	// MaxAllowedConcurrentCalls is the configured permit count.
	MaxAllowedConcurrentCalls int

	// RejectedCalls counts acquisitions refused since creation.
	RejectedCalls int64
}

// Metrics returns a snapshot of bulkhead activity.
func (b *Bulkhead) Metrics() Metrics {
	return Metrics{
		AvailableConcurrentCalls:  b.config.MaxConcurrentCalls - int(b.inflight.Load()),
		MaxAllowedConcurrentCalls: b.config.MaxConcurrentCalls,
		RejectedCalls:             b.rejected.Load(),
	}
}
