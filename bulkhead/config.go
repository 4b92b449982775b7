package bulkhead

import (
	"fmt"
	"runtime"
	"time"

	"github.com/jonwraymond/shield/observe"
)

// Config configures a semaphore bulkhead.
type Config struct {
	// MaxConcurrentCalls is the number of calls allowed to run at once.
	// Default: 25
	MaxConcurrentCalls int

	// MaxWaitDuration is how long AcquirePermission waits for a permit
	// before giving up. Default: 0 (fail immediately)
	MaxWaitDuration time.Duration

	// EventBufferSize is the per-subscription ring capacity of the
	// bulkhead's event publisher. Default: 128
	EventBufferSize int

	// Logger receives event consumer failures. Default: discards.
	Logger observe.Logger

	// BaseConfig names a shared configuration registered with the bulkhead
	// registry. Zero-valued fields of this config inherit from it.
	BaseConfig string
}

// DefaultConfig returns the default semaphore bulkhead configuration.
func DefaultConfig() Config {
	return Config{MaxConcurrentCalls: 25}
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrentCalls <= 0 {
		c.MaxConcurrentCalls = 25
	}
	if c.Logger == nil {
		c.Logger = observe.NewNopLogger()
	}
	return c
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.MaxConcurrentCalls < 0 {
		return fmt.Errorf("bulkhead: max concurrent calls must not be negative, got %d", c.MaxConcurrentCalls)
	}
	if c.MaxWaitDuration < 0 {
		return fmt.Errorf("bulkhead: max wait duration must not be negative, got %v", c.MaxWaitDuration)
	}
	return nil
}

// WithBase overlays the explicitly set fields of this config onto base and
// returns the result. Zero-valued fields inherit from base.
func (c Config) WithBase(base Config) Config {
	merged := base
	if c.MaxConcurrentCalls > 0 {
		merged.MaxConcurrentCalls = c.MaxConcurrentCalls
	}
	if c.MaxWaitDuration > 0 {
		merged.MaxWaitDuration = c.MaxWaitDuration
	}
	if c.EventBufferSize > 0 {
		merged.EventBufferSize = c.EventBufferSize
	}
	if c.Logger != nil {
		merged.Logger = c.Logger
	}
	merged.BaseConfig = ""
	return merged
}

// ThreadPoolConfig configures a thread pool bulkhead.
type ThreadPoolConfig struct {
	// CoreThreadPoolSize is the default for MaxThreadPoolSize and must not
	// exceed it; the pool keeps no minimum number of workers warm.
	// Default: GOMAXPROCS
	CoreThreadPoolSize int

	// MaxThreadPoolSize is the hard cap on pool workers.
	// Default: CoreThreadPoolSize
	MaxThreadPoolSize int

	// QueueCapacity is the number of tasks held while all workers are busy.
	// Default: 100
	QueueCapacity int

	// KeepAliveDuration is how long an idle worker is retained before it
	// expires; it applies to every worker, not only those above the core
	// size. Default: 20ms
	KeepAliveDuration time.Duration

	// EventBufferSize is the per-subscription ring capacity of the
	// bulkhead's event publisher. Default: 128
	EventBufferSize int

	// Logger receives event consumer failures. Default: discards.
	Logger observe.Logger

	// BaseConfig names a shared configuration registered with the thread
	// pool bulkhead registry. Zero-valued fields of this config inherit
	// from it.
	BaseConfig string
}

// DefaultThreadPoolConfig returns the default thread pool configuration.
func DefaultThreadPoolConfig() ThreadPoolConfig {
	cores := runtime.GOMAXPROCS(0)
	return ThreadPoolConfig{
		CoreThreadPoolSize: cores,
		MaxThreadPoolSize:  cores,
		QueueCapacity:      100,
		KeepAliveDuration:  20 * time.Millisecond,
	}
}

func (c ThreadPoolConfig) withDefaults() ThreadPoolConfig {
	if c.CoreThreadPoolSize <= 0 {
		c.CoreThreadPoolSize = runtime.GOMAXPROCS(0)
	}
	if c.MaxThreadPoolSize <= 0 {
		c.MaxThreadPoolSize = c.CoreThreadPoolSize
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 100
	}
	if c.KeepAliveDuration <= 0 {
		c.KeepAliveDuration = 20 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = observe.NewNopLogger()
	}
	return c
}

// Validate validates the configuration.
func (c ThreadPoolConfig) Validate() error {
	if c.CoreThreadPoolSize < 0 || c.MaxThreadPoolSize < 0 {
		return fmt.Errorf("bulkhead: thread pool sizes must not be negative")
	}
	if c.MaxThreadPoolSize > 0 && c.CoreThreadPoolSize > c.MaxThreadPoolSize {
		return fmt.Errorf("bulkhead: core pool size %d exceeds max pool size %d", c.CoreThreadPoolSize, c.MaxThreadPoolSize)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("bulkhead: queue capacity must not be negative, got %d", c.QueueCapacity)
	}
	return nil
}

// WithBase overlays the explicitly set fields of this config onto base and
// returns the result. Zero-valued fields inherit from base.
func (c ThreadPoolConfig) WithBase(base ThreadPoolConfig) ThreadPoolConfig {
	merged := base
	if c.CoreThreadPoolSize > 0 {
		merged.CoreThreadPoolSize = c.CoreThreadPoolSize
	}
	if c.MaxThreadPoolSize > 0 {
		merged.MaxThreadPoolSize = c.MaxThreadPoolSize
	}
	if c.QueueCapacity > 0 {
		merged.QueueCapacity = c.QueueCapacity
	}
	if c.KeepAliveDuration > 0 {
		merged.KeepAliveDuration = c.KeepAliveDuration
	}
	if c.EventBufferSize > 0 {
		merged.EventBufferSize = c.EventBufferSize
	}
	if c.Logger != nil {
		merged.Logger = c.Logger
	}
	merged.BaseConfig = ""
	return merged
}
