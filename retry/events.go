package retry

import (
	"time"

	"github.com/jonwraymond/shield/events"
)

// EventKind identifies a retry lifecycle event.
type EventKind int

const (
	// EventRetry is published before each wait for another attempt.
	EventRetry EventKind = iota
	// EventSuccess is published when a call succeeds after earlier failures.
	EventSuccess
	// EventError is published when a call fails terminally.
	EventError
	// EventIgnoredError is published when an error is classified as ignored.
	EventIgnoredError
)

func (k EventKind) String() string {
	switch k {
	case EventRetry:
		return "retry"
	case EventSuccess:
		return "success"
	case EventError:
		return "error"
	case EventIgnoredError:
		return "ignored-error"
	default:
		return "unknown"
	}
}

// Event is a retry lifecycle event.
type Event struct {
	Kind      EventKind
	Name      string
	CreatedAt time.Time

	// Attempt is the number of attempts completed when the event fired.
	Attempt int

	// WaitDuration is the pause before the next attempt for retry events.
	WaitDuration time.Duration

	// Err is the attempt's error, when there was one.
	Err error
}

// InstanceName implements events.Event.
func (e Event) InstanceName() string { return e.Name }

// CreationTime implements events.Event.
func (e Event) CreationTime() time.Time { return e.CreatedAt }

// EventPublisher exposes the retry's lifecycle event stream.
func (r *Retry) EventPublisher() *events.Publisher[Event] {
	return r.publisher
}

func (r *Retry) onKind(kind EventKind, consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return r.publisher.Subscribe(consumer, events.WithFilter[Event](func(e Event) bool {
		return e.Kind == kind
	}))
}

// OnRetryEvent subscribes a consumer to retry events only.
func (r *Retry) OnRetryEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return r.onKind(EventRetry, consumer)
}

// OnSuccessEvent subscribes a consumer to success events only.
func (r *Retry) OnSuccessEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return r.onKind(EventSuccess, consumer)
}

// OnErrorEvent subscribes a consumer to terminal error events only.
func (r *Retry) OnErrorEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return r.onKind(EventError, consumer)
}

// OnIgnoredErrorEvent subscribes a consumer to ignored error events only.
func (r *Retry) OnIgnoredErrorEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return r.onKind(EventIgnoredError, consumer)
}
