package timelimiter

import (
	"fmt"
	"time"

	"github.com/jonwraymond/shield/observe"
)

// Config configures a time limiter.
type Config struct {
	// TimeoutDuration is the longest a call may run. Default: 1s
	TimeoutDuration time.Duration

	// KeepRunningOnTimeout leaves the operation's context intact on
	// timeout, letting it wind down on its own. By default the context is
	// cancelled so the operation can stop early.
	KeepRunningOnTimeout bool

	// EventBufferSize is the per-subscription ring capacity of the
	// limiter's event publisher. Default: 128
	EventBufferSize int

	// Logger receives event consumer failures. Default: discards.
	Logger observe.Logger

	// BaseConfig names a shared configuration registered with the time
	// limiter registry. Zero-valued fields of this config inherit from it.
	BaseConfig string
}

// DefaultConfig returns the default time limiter configuration.
func DefaultConfig() Config {
	return Config{TimeoutDuration: time.Second}
}

func (c Config) withDefaults() Config {
	if c.TimeoutDuration <= 0 {
		c.TimeoutDuration = time.Second
	}
	if c.Logger == nil {
		c.Logger = observe.NewNopLogger()
	}
	return c
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.TimeoutDuration < 0 {
		return fmt.Errorf("timelimiter: timeout duration must not be negative, got %v", c.TimeoutDuration)
	}
	return nil
}

// WithBase overlays the explicitly set fields of this config onto base and
// returns the result. Zero-valued fields inherit from base.
func (c Config) WithBase(base Config) Config {
	merged := base
	if c.TimeoutDuration > 0 {
		merged.TimeoutDuration = c.TimeoutDuration
	}
	if c.KeepRunningOnTimeout {
		merged.KeepRunningOnTimeout = true
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
