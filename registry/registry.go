package registry

import (
	"fmt"
	"sync"

	"github.com/jonwraymond/shield/events"
)

// DefaultConfigName is the reserved key of the config a registry is built with.
const DefaultConfigName = "default"

// Config configures a Registry.
type Config struct {
	// EventBufferSize is the per-subscription ring capacity of the
	// registry's event publisher. Default: 128
	EventBufferSize int
}

// Registry is a concurrent store of named entries of type E, each built from
// a configuration of type C.
type Registry[E, C any] struct {
	mu      sync.RWMutex
	entries map[string]*slot[E]

	configMu sync.RWMutex
	configs  map[string]C

	publisher *events.Publisher[Event[E]]
}

// slot serializes creation of one entry. The factory runs inside the Once,
// never under the registry lock.
type slot[E any] struct {
	once  sync.Once
	value E
}

// New creates a registry seeded with the default configuration.
func New[E, C any](defaultConfig C, config ...Config) *Registry[E, C] {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	r := &Registry[E, C]{
		entries: make(map[string]*slot[E]),
		configs: make(map[string]C),
		publisher: events.NewPublisher[Event[E]](events.PublisherConfig{
			BufferSize: cfg.EventBufferSize,
		}),
	}
	r.configs[DefaultConfigName] = defaultConfig
	return r
}

// NewFromConfigs creates a registry from a set of named configurations.
// The mapping must contain a "default" entry; it seeds the default config.
func NewFromConfigs[E, C any](configs map[string]C, config ...Config) (*Registry[E, C], error) {
	defaultConfig, ok := configs[DefaultConfigName]
	if !ok {
		return nil, fmt.Errorf("registry: %w: %q", ErrConfigurationNotFound, DefaultConfigName)
	}

	r := New[E, C](defaultConfig, config...)
	for name, c := range configs {
		if name == DefaultConfigName {
			continue
		}
		r.configs[name] = c
	}
	return r, nil
}

// ComputeIfAbsent returns the entry registered under name, invoking factory
// to build it on first demand. For a given name the factory runs at most
// once across all concurrent callers, and it runs without registry locks
// held. Creation publishes an EntryAdded event.
func (r *Registry[E, C]) ComputeIfAbsent(name string, factory func() E) E {
	r.mu.RLock()
	s, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		if s, ok = r.entries[name]; !ok {
			s = &slot[E]{}
			r.entries[name] = s
		}
		r.mu.Unlock()
	}

	s.once.Do(func() {
		s.value = factory()
		r.publisher.Publish(newEntryAdded(name, s.value))
	})
	return s.value
}

// Find returns the entry registered under name, if any.
func (r *Registry[E, C]) Find(name string) (E, bool) {
	r.mu.RLock()
	s, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		var zero E
		return zero, false
	}
	// Wait out a concurrent factory so callers never observe a half-built entry.
	s.once.Do(func() {})
	return s.value, true
}

// Remove deletes the entry registered under name and returns it. An
// EntryRemoved event is published only when an entry existed.
func (r *Registry[E, C]) Remove(name string) (E, bool) {
	r.mu.Lock()
	s, ok := r.entries[name]
	if ok {
		delete(r.entries, name)
	}
	r.mu.Unlock()

	if !ok {
		var zero E
		return zero, false
	}
	s.once.Do(func() {})
	r.publisher.Publish(newEntryRemoved(name, s.value))
	return s.value, true
}

// Replace swaps the entry registered under name for newEntry and returns the
// old entry. Nothing happens when the name is unknown. On success an
// EntryReplaced event carrying both entries is published.
func (r *Registry[E, C]) Replace(name string, newEntry E) (E, bool) {
	r.mu.Lock()
	s, ok := r.entries[name]
	if ok {
		ns := &slot[E]{}
		ns.once.Do(func() {})
		ns.value = newEntry
		r.entries[name] = ns
	}
	r.mu.Unlock()

	if !ok {
		var zero E
		return zero, false
	}
	s.once.Do(func() {})
	r.publisher.Publish(newEntryReplaced(name, s.value, newEntry))
	return s.value, true
}

// Names returns the names of all registered entries.
func (r *Registry[E, C]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// All returns a snapshot of every registered entry.
func (r *Registry[E, C]) All() []E {
	r.mu.RLock()
	slots := make([]*slot[E], 0, len(r.entries))
	for _, s := range r.entries {
		slots = append(slots, s)
	}
	r.mu.RUnlock()

	entries := make([]E, 0, len(slots))
	for _, s := range slots {
		s.once.Do(func() {})
		entries = append(entries, s.value)
	}
	return entries
}

// AddConfiguration registers a shared configuration under name. The reserved
// name "default" is rejected.
func (r *Registry[E, C]) AddConfiguration(name string, config C) error {
	if name == DefaultConfigName {
		return fmt.Errorf("registry: %q is reserved for the default configuration", DefaultConfigName)
	}

	r.configMu.Lock()
	r.configs[name] = config
	r.configMu.Unlock()
	return nil
}

// Configuration returns the configuration registered under name.
func (r *Registry[E, C]) Configuration(name string) (C, bool) {
	r.configMu.RLock()
	c, ok := r.configs[name]
	r.configMu.RUnlock()
	return c, ok
}

// MustConfiguration returns the configuration registered under name or
// ErrConfigurationNotFound.
func (r *Registry[E, C]) MustConfiguration(name string) (C, error) {
	c, ok := r.Configuration(name)
	if !ok {
		return c, fmt.Errorf("registry: %w: %q", ErrConfigurationNotFound, name)
	}
	return c, nil
}

// DefaultConfig returns the configuration the registry was built with.
func (r *Registry[E, C]) DefaultConfig() C {
	r.configMu.RLock()
	defer r.configMu.RUnlock()
	return r.configs[DefaultConfigName]
}

// EventPublisher exposes the registry's lifecycle event stream.
func (r *Registry[E, C]) EventPublisher() *events.Publisher[Event[E]] {
	return r.publisher
}
