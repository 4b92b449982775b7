package bulkhead

import (
	"time"

	"github.com/jonwraymond/shield/events"
)

// EventKind identifies a bulkhead lifecycle event.
type EventKind int

const (
	// EventCallPermitted is published when a call is admitted.
	EventCallPermitted EventKind = iota
	// EventCallRejected is published when a call is refused.
	EventCallRejected
	// EventCallFinished is published when an admitted call completes.
	EventCallFinished
)

func (k EventKind) String() string {
	switch k {
	case EventCallPermitted:
		return "call-permitted"
	case EventCallRejected:
		return "call-rejected"
	case EventCallFinished:
		return "call-finished"
	default:
		return "unknown"
	}
}

// Event is a bulkhead lifecycle event.
type Event struct {
	Kind      EventKind
	Name      string
	CreatedAt time.Time
}

// InstanceName implements events.Event.
func (e Event) InstanceName() string { return e.Name }

// CreationTime implements events.Event.
func (e Event) CreationTime() time.Time { return e.CreatedAt }

// EventPublisher exposes the bulkhead's lifecycle event stream.
func (b *Bulkhead) EventPublisher() *events.Publisher[Event] {
	return b.publisher
}

// OnCallPermittedEvent subscribes a consumer to admissions only.
func (b *Bulkhead) OnCallPermittedEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return b.publisher.Subscribe(consumer, events.WithFilter[Event](func(e Event) bool {
		return e.Kind == EventCallPermitted
	}))
}

// OnCallRejectedEvent subscribes a consumer to rejections only.
func (b *Bulkhead) OnCallRejectedEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return b.publisher.Subscribe(consumer, events.WithFilter[Event](func(e Event) bool {
		return e.Kind == EventCallRejected
	}))
}

// OnCallFinishedEvent subscribes a consumer to completions only.
func (b *Bulkhead) OnCallFinishedEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return b.publisher.Subscribe(consumer, events.WithFilter[Event](func(e Event) bool {
		return e.Kind == EventCallFinished
	}))
}

// EventPublisher exposes the thread pool's lifecycle event stream.
func (tp *ThreadPoolBulkhead) EventPublisher() *events.Publisher[Event] {
	return tp.publisher
}

// OnCallRejectedEvent subscribes a consumer to rejections only.
func (tp *ThreadPoolBulkhead) OnCallRejectedEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return tp.publisher.Subscribe(consumer, events.WithFilter[Event](func(e Event) bool {
		return e.Kind == EventCallRejected
	}))
}
