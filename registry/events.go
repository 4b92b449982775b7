package registry

import (
	"time"

	"github.com/jonwraymond/shield/events"
)

// EventKind identifies a registry lifecycle event.
type EventKind int

const (
	// EntryAdded is published when ComputeIfAbsent creates an entry.
	EntryAdded EventKind = iota
	// EntryRemoved is published when Remove deletes an existing entry.
	EntryRemoved
	// EntryReplaced is published when Replace swaps an existing entry.
	EntryReplaced
)

func (k EventKind) String() string {
	switch k {
	case EntryAdded:
		return "added"
	case EntryRemoved:
		return "removed"
	case EntryReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// Event is a registry lifecycle event.
type Event[E any] struct {
	Kind      EventKind
	Name      string
	Entry     E
	OldEntry  E // set only for EntryReplaced
	CreatedAt time.Time
}

// InstanceName implements events.Event.
func (e Event[E]) InstanceName() string { return e.Name }

// CreationTime implements events.Event.
func (e Event[E]) CreationTime() time.Time { return e.CreatedAt }

func newEntryAdded[E any](name string, entry E) Event[E] {
	return Event[E]{Kind: EntryAdded, Name: name, Entry: entry, CreatedAt: time.Now()}
}

func newEntryRemoved[E any](name string, entry E) Event[E] {
	return Event[E]{Kind: EntryRemoved, Name: name, Entry: entry, CreatedAt: time.Now()}
}

func newEntryReplaced[E any](name string, oldEntry, newEntry E) Event[E] {
	return Event[E]{Kind: EntryReplaced, Name: name, Entry: newEntry, OldEntry: oldEntry, CreatedAt: time.Now()}
}

// OnEntryAdded subscribes a consumer to EntryAdded events only.
func (r *Registry[E, C]) OnEntryAdded(consumer events.Consumer[Event[E]]) events.UnsubscribeFunc {
	return r.publisher.Subscribe(consumer, events.WithFilter[Event[E]](func(e Event[E]) bool {
		return e.Kind == EntryAdded
	}))
}

// OnEntryRemoved subscribes a consumer to EntryRemoved events only.
func (r *Registry[E, C]) OnEntryRemoved(consumer events.Consumer[Event[E]]) events.UnsubscribeFunc {
	return r.publisher.Subscribe(consumer, events.WithFilter[Event[E]](func(e Event[E]) bool {
		return e.Kind == EntryRemoved
	}))
}

// OnEntryReplaced subscribes a consumer to EntryReplaced events only.
func (r *Registry[E, C]) OnEntryReplaced(consumer events.Consumer[Event[E]]) events.UnsubscribeFunc {
	return r.publisher.Subscribe(consumer, events.WithFilter[Event[E]](func(e Event[E]) bool {
		return e.Kind == EntryReplaced
	}))
}
