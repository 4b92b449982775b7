package cache

import (
	"time"

	"github.com/jonwraymond/shield/events"
)

// EventKind identifies a cache lifecycle event.
type EventKind int

const (
	// EventCacheHit is published when a cached result is served.
	EventCacheHit EventKind = iota
	// EventCacheMiss is published when no cached result exists.
	EventCacheMiss
	// EventCacheError is published when key derivation or the store fails.
	EventCacheError
)

func (k EventKind) String() string {
	switch k {
	case EventCacheHit:
		return "cache-hit"
	case EventCacheMiss:
		return "cache-miss"
	case EventCacheError:
		return "cache-error"
	default:
		return "unknown"
	}
}

// Event is a cache lifecycle event.
type Event struct {
	Kind      EventKind
	Name      string
	Key       string
	Err       error
	CreatedAt time.Time
}

// InstanceName implements events.Event.
func (e Event) InstanceName() string { return e.Name }

// CreationTime implements events.Event.
func (e Event) CreationTime() time.Time { return e.CreatedAt }

// EventPublisher exposes the cache's lifecycle event stream.
func (c *CallCache) EventPublisher() *events.Publisher[Event] {
	return c.publisher
}

// OnCacheHitEvent subscribes a consumer to hits only.
func (c *CallCache) OnCacheHitEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return c.publisher.Subscribe(consumer, events.WithFilter[Event](func(e Event) bool {
		return e.Kind == EventCacheHit
	}))
}

// OnCacheMissEvent subscribes a consumer to misses only.
func (c *CallCache) OnCacheMissEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return c.publisher.Subscribe(consumer, events.WithFilter[Event](func(e Event) bool {
		return e.Kind == EventCacheMiss
	}))
}

// OnCacheErrorEvent subscribes a consumer to cache failures only.
func (c *CallCache) OnCacheErrorEvent(consumer events.Consumer[Event]) events.UnsubscribeFunc {
	return c.publisher.Subscribe(consumer, events.WithFilter[Event](func(e Event) bool {
		return e.Kind == EventCacheError
	}))
}

func (c *CallCache) publish(kind EventKind, key string, err error) {
	c.publisher.Publish(Event{
		Kind:      kind,
		Name:      c.name,
		Key:       key,
		Err:       err,
		CreatedAt: time.Now(),
	})
}
