package bulkhead

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/jonwraymond/shield/events"
)

// ThreadPoolBulkhead isolates calls on a bounded worker pool with a bounded
// task queue. A submission runs immediately when a worker is free, queues
// while all workers are busy, and is rejected once the queue is full. The
// submitter is never blocked. All methods are safe for concurrent use.
type ThreadPoolBulkhead struct {
	name   string
	config ThreadPoolConfig

	pool     *ants.Pool
	queue    chan func()
	closed   atomic.Bool
	rejected atomic.Int64

	publisher *events.Publisher[Event]
}

// NewThreadPool creates a thread pool bulkhead. Zero config fields take
// defaults.
func NewThreadPool(name string, config ThreadPoolConfig) (*ThreadPoolBulkhead, error) {
	cfg := config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(cfg.MaxThreadPoolSize,
		ants.WithNonblocking(true),
		ants.WithExpiryDuration(cfg.KeepAliveDuration),
	)
	if err != nil {
		return nil, fmt.Errorf("bulkhead %q: creating worker pool: %w", name, err)
	}

	return &ThreadPoolBulkhead{
		name:   name,
		config: cfg,
		pool:   pool,
		queue:  make(chan func(), cfg.QueueCapacity),
		publisher: events.NewPublisher[Event](events.PublisherConfig{
			BufferSize: cfg.EventBufferSize,
			Logger:     cfg.Logger,
		}),
	}, nil
}

// Name returns the bulkhead name.
func (tp *ThreadPoolBulkhead) Name() string { return tp.name }

// Config returns the bulkhead configuration.
func (tp *ThreadPoolBulkhead) Config() ThreadPoolConfig { return tp.config }

// Submit hands task to the pool. It returns ErrBulkheadFull when all workers
// are busy and the queue is full, and ErrBulkheadClosed after Close.
func (tp *ThreadPoolBulkhead) Submit(task func()) error {
	if tp.closed.Load() {
		return fmt.Errorf("bulkhead %q: %w", tp.name, ErrBulkheadClosed)
	}

	err := tp.pool.Submit(func() {
		tp.run(task)
	})
	if err == nil {
		tp.publisher.Publish(Event{Kind: EventCallPermitted, Name: tp.name, CreatedAt: time.Now()})
		return nil
	}
	if !errors.Is(err, ants.ErrPoolOverload) {
		return fmt.Errorf("bulkhead %q: %w", tp.name, err)
	}

	select {
	case tp.queue <- task:
		// A worker may have gone idle between the refused submit and the
		// enqueue; poke one so the task is not stranded.
		_ = tp.pool.Submit(tp.drainQueue)
		tp.publisher.Publish(Event{Kind: EventCallPermitted, Name: tp.name, CreatedAt: time.Now()})
		return nil
	default:
		tp.rejected.Add(1)
		tp.publisher.Publish(Event{Kind: EventCallRejected, Name: tp.name, CreatedAt: time.Now()})
		return fmt.Errorf("bulkhead %q: %w", tp.name, ErrBulkheadFull)
	}
}

// run executes task and then keeps the worker busy while queued tasks remain.
func (tp *ThreadPoolBulkhead) run(task func()) {
	tp.execute(task)
	tp.drainQueue()
}

func (tp *ThreadPoolBulkhead) drainQueue() {
	for {
		select {
		case task := <-tp.queue:
			tp.execute(task)
		default:
			return
		}
	}
}

func (tp *ThreadPoolBulkhead) execute(task func()) {
	defer tp.publisher.Publish(Event{Kind: EventCallFinished, Name: tp.name, CreatedAt: time.Now()})
	task()
}

// Execute submits op to the pool and waits for its result. It returns
// ctx.Err() when ctx ends before op completes; op itself keeps running on
// the pool worker until it observes the cancellation.
func (tp *ThreadPoolBulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	done := make(chan error, 1)
	if err := tp.Submit(func() { done <- op(ctx) }); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts the pool down. Queued tasks that no worker picked up before
// shutdown are dropped; subsequent submissions fail with ErrBulkheadClosed.
func (tp *ThreadPoolBulkhead) Close() {
	if tp.closed.CompareAndSwap(false, true) {
		tp.pool.Release()
	}
}

// ThreadPoolMetrics is a point-in-time view of thread pool activity.
type ThreadPoolMetrics struct {
	// ActiveWorkers is the number of workers currently running tasks.
	ActiveWorkers int

	// MaxWorkers is the configured worker cap.
	MaxWorkers int

	// QueueDepth is the number of tasks waiting for a worker.
	QueueDepth int

	// QueueCapacity is the configured queue bound.
	QueueCapacity int

	// RejectedCalls counts submissions refused since creation.
	RejectedCalls int64
}

// Metrics returns a snapshot of thread pool activity.
func (tp *ThreadPoolBulkhead) Metrics() ThreadPoolMetrics {
	return ThreadPoolMetrics{
		ActiveWorkers: tp.pool.Running(),
		MaxWorkers:    tp.config.MaxThreadPoolSize,
		QueueDepth:    len(tp.queue),
		QueueCapacity: tp.config.QueueCapacity,
		RejectedCalls: tp.rejected.Load(),
	}
}
