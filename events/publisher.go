package events

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/shield/observe"
)

// Event is the contract every primitive lifecycle event satisfies.
type Event interface {
	// InstanceName is the name of the primitive instance that emitted the event.
	InstanceName() string
	// CreationTime is when the event was generated.
	CreationTime() time.Time
}

// Consumer handles a single published event.
type Consumer[T Event] func(event T)

// UnsubscribeFunc removes a subscription when called. Safe to call more than once.
type UnsubscribeFunc func()

// PublisherConfig configures a Publisher.
type PublisherConfig struct {
	// BufferSize is the ring capacity of each subscription.
	// Default: 128
	BufferSize int

	// Logger receives consumer failures. Default: discards.
	Logger observe.Logger
}

// Publisher fans events out to subscriptions.
type Publisher[T Event] struct {
	config PublisherConfig

	mu     sync.RWMutex
	subs   []*subscription[T]
	nextID uint64
	closed bool
}

// SubscribeOption configures a single subscription.
type SubscribeOption[T Event] func(*subscription[T])

// WithFilter delivers only events the predicate accepts.
func WithFilter[T Event](accept func(T) bool) SubscribeOption[T] {
	return func(s *subscription[T]) {
		s.accept = accept
	}
}

// WithBufferSize overrides the ring capacity for one subscription.
func WithBufferSize[T Event](n int) SubscribeOption[T] {
	return func(s *subscription[T]) {
		if n > 0 {
			s.ring = make([]T, n)
		}
	}
}

// NewPublisher creates a new event publisher.
func NewPublisher[T Event](config PublisherConfig) *Publisher[T] {
	// Apply defaults
	if config.BufferSize <= 0 {
		config.BufferSize = 128
	}
	if config.Logger == nil {
		config.Logger = observe.NewNopLogger()
	}

	return &Publisher[T]{config: config}
}

// Subscribe registers a consumer and starts its drain goroutine.
// The returned function cancels the subscription.
func (p *Publisher[T]) Subscribe(consumer Consumer[T], opts ...SubscribeOption[T]) UnsubscribeFunc {
	if consumer == nil {
		return func() {}
	}

	sub := &subscription[T]{
		consumer: consumer,
		ring:     make([]T, p.config.BufferSize),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		logger:   p.config.Logger,
	}
	for _, opt := range opts {
		opt(sub)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return func() {}
	}
	p.nextID++
	sub.id = p.nextID
	p.subs = append(p.subs, sub)
	p.mu.Unlock()

	go sub.drain()

	var once sync.Once
	return func() {
		once.Do(func() { p.unsubscribe(sub.id) })
	}
}

func (p *Publisher[T]) unsubscribe(id uint64) {
	p.mu.Lock()
	for i, s := range p.subs {
		if s.id == id {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			close(s.done)
			break
		}
	}
	p.mu.Unlock()
}

// Publish hands the event to every subscription. It never blocks: a
// subscription whose ring is full loses its oldest buffered event.
func (p *Publisher[T]) Publish(event T) {
	p.mu.RLock()
	subs := p.subs
	p.mu.RUnlock()

	for _, s := range subs {
		s.offer(event)
	}
}

// HasConsumers reports whether any subscription is active. Producers may use
// it to skip building events nobody will see.
func (p *Publisher[T]) HasConsumers() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs) > 0
}

// Close cancels all subscriptions. Subsequent Publish calls are no-ops and
// subsequent Subscribe calls return an inert unsubscribe function.
func (p *Publisher[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	for _, s := range p.subs {
		close(s.done)
	}
	p.subs = nil
}

// Metrics returns current publisher statistics.
func (p *Publisher[T]) Metrics() PublisherMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m := PublisherMetrics{Subscriptions: len(p.subs)}
	for _, s := range p.subs {
		s.mu.Lock()
		m.Buffered += s.count
		m.Dropped += s.dropped
		s.mu.Unlock()
	}
	return m
}

// PublisherMetrics contains publisher statistics.
type PublisherMetrics struct {
	Subscriptions int
	Buffered      int
	Dropped       int64
}

// subscription is one consumer with its private ring buffer.
type subscription[T Event] struct {
	id       uint64
	consumer Consumer[T]
	accept   func(T) bool
	logger   observe.Logger

	mu      sync.Mutex
	ring    []T
	head    int
	count   int
	dropped int64

	wake chan struct{}
	done chan struct{}
}

// offer enqueues the event, evicting the oldest entry when the ring is full.
func (s *subscription[T]) offer(event T) {
	if s.accept != nil && !s.accept(event) {
		return
	}

	s.mu.Lock()
	if s.count == len(s.ring) {
		// Ring full: overwrite the oldest slot.
		s.head = (s.head + 1) % len(s.ring)
		s.count--
		s.dropped++
	}
	s.ring[(s.head+s.count)%len(s.ring)] = event
	s.count++
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription[T]) drain() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if s.count == 0 {
				s.mu.Unlock()
				break
			}
			event := s.ring[s.head]
			var zero T
			s.ring[s.head] = zero
			s.head = (s.head + 1) % len(s.ring)
			s.count--
			s.mu.Unlock()

			s.deliver(event)
		}
	}
}

func (s *subscription[T]) deliver(event T) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(context.Background(), "event consumer panicked",
				observe.Field{Key: "instance", Value: event.InstanceName()},
				observe.Field{Key: "panic", Value: r},
			)
		}
	}()
	s.consumer(event)
}
