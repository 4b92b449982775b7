package ratelimiter

import (
	"fmt"
	"time"

	"github.com/jonwraymond/shield/observe"
)

// Config configures a rate limiter.
type Config struct {
	// LimitForPeriod is the number of permissions granted per refresh cycle.
	// Default: 50
	LimitForPeriod int

	// LimitRefreshPeriod is the length of one refresh cycle. Default: 500ns
	LimitRefreshPeriod time.Duration

	// TimeoutDuration is the longest a caller is willing to wait for a
	// permission. A reservation whose wait exceeds it is refused.
	// Default: 5s
	TimeoutDuration time.Duration

	// EventBufferSize is the per-subscription ring capacity of the limiter's
	// event publisher. Default: 128
	EventBufferSize int

	// Logger receives event consumer failures. Default: discards.
	Logger observe.Logger

	// BaseConfig names a shared configuration registered with the limiter
	// registry. Zero-valued fields of this config inherit from it.
	BaseConfig string
}

// DefaultConfig returns the default limiter configuration.
func DefaultConfig() Config {
	return Config{
		LimitForPeriod:     50,
		LimitRefreshPeriod: 500 * time.Nanosecond,
		TimeoutDuration:    5 * time.Second,
	}
}

// withDefaults returns the config with zero fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.LimitForPeriod <= 0 {
		c.LimitForPeriod = 50
	}
	if c.LimitRefreshPeriod <= 0 {
		c.LimitRefreshPeriod = 500 * time.Nanosecond
	}
	if c.TimeoutDuration <= 0 {
		c.TimeoutDuration = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = observe.NewNopLogger()
	}
	return c
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.LimitForPeriod < 0 {
		return fmt.Errorf("ratelimiter: limit for period must not be negative, got %d", c.LimitForPeriod)
	}
	if c.LimitRefreshPeriod < 0 {
		return fmt.Errorf("ratelimiter: limit refresh period must not be negative, got %v", c.LimitRefreshPeriod)
	}
	if c.TimeoutDuration < 0 {
		return fmt.Errorf("ratelimiter: timeout duration must not be negative, got %v", c.TimeoutDuration)
	}
	return nil
}

// WithBase overlays the explicitly set fields of this config onto base and
// returns the result. Zero-valued fields inherit from base.
func (c Config) WithBase(base Config) Config {
	merged := base
	if c.LimitForPeriod > 0 {
		merged.LimitForPeriod = c.LimitForPeriod
	}
	if c.LimitRefreshPeriod > 0 {
		merged.LimitRefreshPeriod = c.LimitRefreshPeriod
	}
	if c.TimeoutDuration > 0 {
		merged.TimeoutDuration = c.TimeoutDuration
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
