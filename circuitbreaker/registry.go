package circuitbreaker

import (
	"fmt"

	"github.com/jonwraymond/shield/events"
	"github.com/jonwraymond/shield/registry"
)

// Registry manages named circuit breakers sharing a set of configurations.
type Registry struct {
	reg *registry.Registry[*CircuitBreaker, Config]
}

// NewRegistry creates a registry seeded with the given default configuration.
func NewRegistry(defaultConfig Config, config ...registry.Config) *Registry {
	return &Registry{reg: registry.New[*CircuitBreaker, Config](defaultConfig, config...)}
}

// NewRegistryFromConfigs creates a registry from a set of named
// configurations. The mapping must contain a "default" entry.
func NewRegistryFromConfigs(configs map[string]Config, config ...registry.Config) (*Registry, error) {
	reg, err := registry.NewFromConfigs[*CircuitBreaker, Config](configs, config...)
	if err != nil {
		return nil, err
	}
	return &Registry{reg: reg}, nil
}

// Get returns the breaker registered under name, creating it from the default
// configuration on first demand.
func (r *Registry) Get(name string) *CircuitBreaker {
	return r.reg.ComputeIfAbsent(name, func() *CircuitBreaker {
		return New(name, r.reg.DefaultConfig())
	})
}

// GetWithConfig returns the breaker registered under name, creating it from
// config on first demand. When config names a BaseConfig, the base must be
// registered; its values fill the config's zero fields.
func (r *Registry) GetWithConfig(name string, config Config) (*CircuitBreaker, error) {
	resolved, err := r.resolve(config)
	if err != nil {
		return nil, err
	}
	return r.reg.ComputeIfAbsent(name, func() *CircuitBreaker {
		return New(name, resolved)
	}), nil
}

// GetWithConfigName returns the breaker registered under name, creating it
// from the shared configuration registered under configName on first demand.
func (r *Registry) GetWithConfigName(name, configName string) (*CircuitBreaker, error) {
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
		return Config{}, fmt.Errorf("circuitbreaker: resolving base config: %w", err)
	}
	return config.WithBase(base), nil
}

// Find returns the breaker registered under name, if any.
func (r *Registry) Find(name string) (*CircuitBreaker, bool) {
	return r.reg.Find(name)
}

// Remove deletes the breaker registered under name and returns it.
func (r *Registry) Remove(name string) (*CircuitBreaker, bool) {
	return r.reg.Remove(name)
}

// Replace swaps the breaker registered under name and returns the old one.
func (r *Registry) Replace(name string, breaker *CircuitBreaker) (*CircuitBreaker, bool) {
	return r.reg.Replace(name, breaker)
}

// Names returns the names of all registered breakers.
func (r *Registry) Names() []string {
	return r.reg.Names()
}

// All returns a snapshot of every registered breaker.
func (r *Registry) All() []*CircuitBreaker {
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
func (r *Registry) EventPublisher() *events.Publisher[registry.Event[*CircuitBreaker]] {
	return r.reg.EventPublisher()
}
