package cache

import (
	"context"
	"sync/atomic"

	"github.com/jonwraymond/shield/events"
	"github.com/jonwraymond/shield/observe"
)

// Config configures a CallCache.
type Config struct {
	// Policy sets the TTL behavior. Default: DefaultPolicy()
	Policy Policy

	// Keyer derives cache keys from call inputs. Default: HashKeyer
	Keyer Keyer

	// Store holds cached results. Default: in-memory store
	Store Store

	// EventBufferSize is the per-subscription ring capacity of the
	// cache's event publisher. Default: 128
	EventBufferSize int

	// Logger receives event consumer failures. Default: discards.
	Logger observe.Logger
}

func (c Config) withDefaults() Config {
	if c.Policy == (Policy{}) {
		c.Policy = DefaultPolicy()
	}
	if c.Keyer == nil {
		c.Keyer = NewHashKeyer()
	}
	if c.Store == nil {
		c.Store = NewMemoryStore()
	}
	if c.Logger == nil {
		c.Logger = observe.NewNopLogger()
	}
	return c
}

// CallCache decorates a call with result caching. A hit returns the stored
// bytes without running the call; a miss runs the call and stores a
// successful result under the policy's TTL. Errors are never cached. All
// methods are safe for concurrent use.
type CallCache struct {
	name   string
	config Config

	hits   atomic.Int64
	misses atomic.Int64

	publisher *events.Publisher[Event]
}

// New creates a call cache. Zero config fields take defaults.
func New(name string, config Config) *CallCache {
	cfg := config.withDefaults()
	return &CallCache{
		name:   name,
		config: cfg,
		publisher: events.NewPublisher[Event](events.PublisherConfig{
			BufferSize: cfg.EventBufferSize,
			Logger:     cfg.Logger,
		}),
	}
}

// Name returns the cache name.
func (c *CallCache) Name() string { return c.name }

// Config returns the cache configuration.
func (c *CallCache) Config() Config { return c.config }

// Execute runs op unless a cached result exists for the given input.
// On a hit the stored bytes are returned and op does not run. On a miss
// op runs and a successful result is stored under the policy TTL.
func (c *CallCache) Execute(ctx context.Context, input any, op func(context.Context) ([]byte, error)) ([]byte, error) {
	if !c.config.Policy.ShouldCache() {
		return op(ctx)
	}

	key, err := c.config.Keyer.Key(c.name, input)
	if err != nil {
		// Key derivation failed, run the call uncached.
		c.publish(EventCacheError, "", err)
		return op(ctx)
	}

	if cached, ok := c.config.Store.Get(ctx, key); ok {
		c.hits.Add(1)
		c.publish(EventCacheHit, key, nil)
		return cached, nil
	}

	c.misses.Add(1)
	c.publish(EventCacheMiss, key, nil)

	result, err := op(ctx)
	if err != nil {
		return result, err
	}

	if ttl := c.config.Policy.EffectiveTTL(0); ttl > 0 {
		if err := c.config.Store.Set(ctx, key, result, ttl); err != nil {
			c.publish(EventCacheError, key, err)
		}
	}
	return result, nil
}

// Invalidate removes the cached result for the given input.
func (c *CallCache) Invalidate(ctx context.Context, input any) error {
	key, err := c.config.Keyer.Key(c.name, input)
	if err != nil {
		return err
	}
	return c.config.Store.Delete(ctx, key)
}

// Metrics is a point-in-time view of cache effectiveness.
type Metrics struct {
	// Hits counts calls served from the cache since creation.
	Hits int64

	// Misses counts calls that ran because no cached result existed.
	Misses int64
}

// Metrics returns a snapshot of cache effectiveness.
func (c *CallCache) Metrics() Metrics {
	return Metrics{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}
