package circuitbreaker

import (
	"time"

	"github.com/jonwraymond/shield/events"
)

// EventKind identifies a breaker lifecycle event.
type EventKind int

const (
	// EventSuccess is published for each recorded successful call.
	EventSuccess EventKind = iota
	// EventError is published for each recorded failed call.
	EventError
	// EventIgnoredError is published when an error is classified as ignored.
	EventIgnoredError
	// EventNotPermitted is published when a permission request is denied.
	EventNotPermitted
	// EventStateTransition is published on every state change.
	EventStateTransition
	// EventReset is published when the breaker is reset.
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventSuccess:
		return "success"
	case EventError:
		return "error"
	case EventIgnoredError:
		return "ignored-error"
	case EventNotPermitted:
		return "not-permitted"
	case EventStateTransition:
		return "state-transition"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is a breaker lifecycle event.
type Event struct {
	Kind      EventKind
	Name      string
	CreatedAt time.Time

	// Duration is the elapsed call duration for success, error and ignored
	// error events.
	Duration time.Duration

	// Err is the recorded error for error and ignored error events.
	Err error

	// From and To carry the transition endpoints for state transition events.
	From State
	To   State
}

// InstanceName implements events.Event.
func (e Event) InstanceName() string { return e.Name }

// CreationTime implements events.Event.
func (e Event) CreationTime() time.Time { return e.CreatedAt }

// EventPublisher exposes the breaker's lifecycle event stream.
func (cb *CircuitBreaker) EventPublisher() *events.Publisher[Event] {
	return cb.publisher
}

func (cb *CircuitBreaker) onKind(kind EventKind, consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return cb.publisher.Subscribe(consumer, events.WithFilter[Event](func(e Event) bool {
		return e.Kind == kind
	}))
}

// OnSuccessEvent subscribes a consumer to success events only.
func (cb *CircuitBreaker) OnSuccessEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return cb.onKind(EventSuccess, consumer)
}

// OnErrorEvent subscribes a consumer to error events only.
func (cb *CircuitBreaker) OnErrorEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return cb.onKind(EventError, consumer)
}

// OnIgnoredErrorEvent subscribes a consumer to ignored error events only.
func (cb *CircuitBreaker) OnIgnoredErrorEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return cb.onKind(EventIgnoredError, consumer)
}

// OnNotPermittedEvent subscribes a consumer to not-permitted events only.
func (cb *CircuitBreaker) OnNotPermittedEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return cb.onKind(EventNotPermitted, consumer)
}

// OnStateTransitionEvent subscribes a consumer to state transition events only.
func (cb *CircuitBreaker) OnStateTransitionEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return cb.onKind(EventStateTransition, consumer)
}

// OnResetEvent subscribes a consumer to reset events only.
func (cb *CircuitBreaker) OnResetEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return cb.onKind(EventReset, consumer)
}
