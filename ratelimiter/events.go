package ratelimiter

import (
	"time"

	"github.com/jonwraymond/shield/events"
)

// EventKind identifies a limiter lifecycle event.
type EventKind int

const (
	// EventSuccessfulAcquire is published for each granted reservation.
	EventSuccessfulAcquire EventKind = iota
	// EventFailedAcquire is published for each refused reservation.
	EventFailedAcquire
)

func (k EventKind) String() string {
	switch k {
	case EventSuccessfulAcquire:
		return "successful-acquire"
	case EventFailedAcquire:
		return "failed-acquire"
	default:
		return "unknown"
	}
}

// Event is a limiter lifecycle event.
type Event struct {
	Kind      EventKind
	Name      string
	CreatedAt time.Time
}

// InstanceName implements events.Event.
func (e Event) InstanceName() string { return e.Name }

// CreationTime implements events.Event.
func (e Event) CreationTime() time.Time { return e.CreatedAt }

// EventPublisher exposes the limiter's lifecycle event stream.
func (rl *RateLimiter) EventPublisher() *events.Publisher[Event] {
	return rl.publisher
}

// OnSuccessfulAcquireEvent subscribes a consumer to granted reservations only.
func (rl *RateLimiter) OnSuccessfulAcquireEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return rl.publisher.Subscribe(consumer, events.WithFilter[Event](func(e Event) bool {
		return e.Kind == EventSuccessfulAcquire
	}))
}

// OnFailedAcquireEvent subscribes a consumer to refused reservations only.
func (rl *RateLimiter) OnFailedAcquireEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return rl.publisher.Subscribe(consumer, events.WithFilter[Event](func(e Event) bool {
		return e.Kind == EventFailedAcquire
	}))
}
