package timelimiter

import (
	"time"

	"github.com/jonwraymond/shield/events"
)

// EventKind identifies a time limiter lifecycle event.
type EventKind int

const (
	// EventSuccess is published when a call finishes in time.
	EventSuccess EventKind = iota
	// EventError is published when a call fails in time.
	EventError
	// EventTimeout is published when a call exceeds the timeout.
	EventTimeout
)

func (k EventKind) String() string {
	switch k {
	case EventSuccess:
		return "success"
	case EventError:
		return "error"
	case EventTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Event is a time limiter lifecycle event.
type Event struct {
	Kind      EventKind
	Name      string
	CreatedAt time.Time

	// Duration is the elapsed call time when the event fired.
	Duration time.Duration

	// Err is the call error for error events.
	Err error
}

// InstanceName implements events.Event.
func (e Event) InstanceName() string { return e.Name }

// CreationTime implements events.Event.
func (e Event) CreationTime() time.Time { return e.CreatedAt }

// EventPublisher exposes the limiter's lifecycle event stream.
func (tl *TimeLimiter) EventPublisher() *events.Publisher[Event] {
	return tl.publisher
}

func (tl *TimeLimiter) onKind(kind EventKind, consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return tl.publisher.Subscribe(consumer, events.WithFilter[Event](func(e Event) bool {
		return e.Kind == kind
	}))
}

// OnSuccessEvent subscribes a consumer to success events only.
func (tl *TimeLimiter) OnSuccessEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return tl.onKind(EventSuccess, consumer)
}

// OnErrorEvent subscribes a consumer to error events only.
func (tl *TimeLimiter) OnErrorEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return tl.onKind(EventError, consumer)
}

// OnTimeoutEvent subscribes a consumer to timeout events only.
func (tl *TimeLimiter) OnTimeoutEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return tl.onKind(EventTimeout, consumer)
}
