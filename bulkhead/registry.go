package bulkhead

import (
	"fmt"

	"github.com/jonwraymond/shield/events"
	"github.com/jonwraymond/shield/registry"
)

// Registry manages named semaphore bulkheads sharing a set of
// configurations.
type Registry struct {
	reg *registry.Registry[*Bulkhead, Config]
}

// NewRegistry creates a registry seeded with the given default configuration.
func NewRegistry(defaultConfig Config, config ...registry.Config) *Registry {
	return &Registry{reg: registry.New[*Bulkhead, Config](defaultConfig, config...)}
}

// NewRegistryFromConfigs creates a registry from a set of named
// configurations. The mapping must contain a "default" entry.
func NewRegistryFromConfigs(configs map[string]Config, config ...registry.Config) (*Registry, error) {
	reg, err := registry.NewFromConfigs[*Bulkhead, Config](configs, config...)
	if err != nil {
		return nil, err
	}
	return &Registry{reg: reg}, nil
}

// Get returns the bulkhead registered under name, creating it from the
// default configuration on first demand.
func (r *Registry) Get(name string) *Bulkhead {
	return r.reg.ComputeIfAbsent(name, func() *Bulkhead {
		return New(name, r.reg.DefaultConfig())
	})
}

// GetWithConfig returns the bulkhead registered under name, creating it from
// config on first demand. When config names a BaseConfig, the base must be
// registered; its values fill the config's zero fields.
func (r *Registry) GetWithConfig(name string, config Config) (*Bulkhead, error) {
	resolved, err := r.resolve(config)
	if err != nil {
		return nil, err
	}
	return r.reg.ComputeIfAbsent(name, func() *Bulkhead {
		return New(name, resolved)
	}), nil
}

// GetWithConfigName returns the bulkhead registered under name, creating it
// from the shared configuration registered under configName on first demand.
func (r *Registry) GetWithConfigName(name, configName string) (*Bulkhead, error) {
	config, err := r.reg.MustConfiguration(configName)
	if err != nil {
		return nil, err
	}
	return r.GetWithConfig(name, config)
}

func (r *Registry) resolve(config Config) (Config, error) {
	if config.BaseConfig == "" {
		return config, nil
	}
	base, err := r.reg.MustConfiguration(config.BaseConfig)
	if err != nil {
		return Config{}, fmt.Errorf("bulkhead: resolving base config: %w", err)
	}
	return config.WithBase(base), nil
}

// Find returns the bulkhead registered under name, if any.
func (r *Registry) Find(name string) (*Bulkhead, bool) {
	return r.reg.Find(name)
}

// Remove deletes the bulkhead registered under name and returns it.
func (r *Registry) Remove(name string) (*Bulkhead, bool) {
	return r.reg.Remove(name)
}

// Replace swaps the bulkhead registered under name and returns the old one.
func (r *Registry) Replace(name string, bulkhead *Bulkhead) (*Bulkhead, bool) {
	return r.reg.Replace(name, bulkhead)
}

// Names returns the names of all registered bulkheads.
func (r *Registry) Names() []string {
	return r.reg.Names()
}

// All returns a snapshot of every registered bulkhead.
func (r *Registry) All() []*Bulkhead {
	return r.reg.All()
}

// AddConfiguration registers a shared configuration under name.
func (r *Registry) AddConfiguration(name string, config Config) error {
	return r.reg.AddConfiguration(name, config)
}

// Configuration returns the shared configuration registered under name.
func (r *Registry) Configuration(name string) (Config, bool) {
	return r.reg.Configuration(name)
}

// EventPublisher exposes the registry's lifecycle event stream.
func (r *Registry) EventPublisher() *events.Publisher[registry.Event[*Bulkhead]] {
	return r.reg.EventPublisher()
}
