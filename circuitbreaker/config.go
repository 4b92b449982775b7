package circuitbreaker

import (
	"fmt"
	"time"

	"github.com/jonwraymond/shield/observe"
)

// WindowType selects how the breaker aggregates call outcomes.
type WindowType int

const (
	// WindowCountBased aggregates the last N recorded calls.
	WindowCountBased WindowType = iota
	// WindowTimeBased aggregates the calls recorded in the last N seconds.
	WindowTimeBased
)

func (w WindowType) String() string {
	switch w {
	case WindowCountBased:
		return "count"
	case WindowTimeBased:
		return "time"
	default:
		return "unknown"
	}
}

// Config configures a circuit breaker.
type Config struct {
	// FailureRateThreshold is the failure rate percentage at or above which
	// the breaker opens. Default: 50
	FailureRateThreshold float64

	// SlowCallRateThreshold is the slow-call rate percentage at or above
	// which the breaker opens. Default: 100 (opens only when every call in
	// the window is slow)
	SlowCallRateThreshold float64

	// SlowCallDurationThreshold is the duration at or above which a call
	// counts as slow. Default: 60s
	SlowCallDurationThreshold time.Duration

	// WindowType selects count-based or time-based outcome aggregation in
	// the closed state. Default: WindowCountBased
	WindowType WindowType

	// RingBufferSizeInClosedState is the sliding window size in the closed
	// state: the number of recorded calls for a count window, or the span in
	// seconds for a time window. Default: 100
	RingBufferSizeInClosedState int

	// RingBufferSizeInHalfOpenState is the number of probe calls permitted
	// and recorded in the half-open state. Default: 10
	RingBufferSizeInHalfOpenState int

	// MinimumNumberOfCalls is the number of recorded calls required before
	// the failure rate is evaluated. Default: RingBufferSizeInClosedState
	// for count windows, 100 for time windows.
	MinimumNumberOfCalls int

	// WaitDurationInOpenState is how long the breaker stays open before a
	// probe is allowed. Default: 60s
	WaitDurationInOpenState time.Duration

	// AutomaticTransitionFromOpenToHalfOpenEnabled drives the open to
	// half-open transition with an internal timer, so monitoring observes it
	// even without traffic. Default: false (the transition happens lazily on
	// the next permission request)
	AutomaticTransitionFromOpenToHalfOpenEnabled bool

	// RecordErrors restricts which errors count as failures. When non-empty,
	// an error matching none of the targets (per errors.Is) is ignored.
	RecordErrors []error

	// IgnoreErrors lists errors that neither count as failure nor success.
	// Matched per errors.Is. Checked before RecordErrors.
	IgnoreErrors []error

	// RecordErrorPredicate marks an error as a failure. Evaluated together
	// with RecordErrors.
	RecordErrorPredicate func(error) bool

	// IgnoreErrorPredicate marks an error as ignored. Evaluated together
	// with IgnoreErrors.
	IgnoreErrorPredicate func(error) bool

	// EventBufferSize is the per-subscription ring capacity of the breaker's
	// event publisher. Default: 128
	EventBufferSize int

	// Logger receives event consumer failures and timer diagnostics.
	// Default: discards.
	Logger observe.Logger

	// BaseConfig names a shared configuration registered with the breaker
	// registry. Zero-valued fields of this config inherit from it.
	BaseConfig string
}

// DefaultConfig returns the default breaker configuration.
func DefaultConfig() Config {
	return Config{
		FailureRateThreshold:          50,
		SlowCallRateThreshold:         100,
		SlowCallDurationThreshold:     60 * time.Second,
		RingBufferSizeInClosedState:   100,
		RingBufferSizeInHalfOpenState: 10,
		WaitDurationInOpenState:       60 * time.Second,
	}
}

// withDefaults returns the config with zero fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.FailureRateThreshold <= 0 {
		c.FailureRateThreshold = 50
	}
	if c.SlowCallRateThreshold <= 0 {
		c.SlowCallRateThreshold = 100
	}
	if c.SlowCallDurationThreshold <= 0 {
		c.SlowCallDurationThreshold = 60 * time.Second
	}
	if c.RingBufferSizeInClosedState <= 0 {
		c.RingBufferSizeInClosedState = 100
	}
	if c.RingBufferSizeInHalfOpenState <= 0 {
		c.RingBufferSizeInHalfOpenState = 10
	}
	if c.MinimumNumberOfCalls <= 0 {
		if c.WindowType == WindowTimeBased {
			c.MinimumNumberOfCalls = 100
		} else {
			c.MinimumNumberOfCalls = c.RingBufferSizeInClosedState
		}
	}
	if c.WaitDurationInOpenState <= 0 {
		c.WaitDurationInOpenState = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = observe.NewNopLogger()
	}
	return c
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.FailureRateThreshold < 0 || c.FailureRateThreshold > 100 {
		return fmt.Errorf("circuitbreaker: failure rate threshold must be within (0, 100], got %v", c.FailureRateThreshold)
	}
	if c.SlowCallRateThreshold < 0 || c.SlowCallRateThreshold > 100 {
		return fmt.Errorf("circuitbreaker: slow call rate threshold must be within (0, 100], got %v", c.SlowCallRateThreshold)
	}
	if c.RingBufferSizeInClosedState < 0 || c.RingBufferSizeInHalfOpenState < 0 {
		return fmt.Errorf("circuitbreaker: ring buffer sizes must not be negative")
	}
	return nil
}

// WithBase overlays the explicitly set fields of this config onto base and
// returns the result. Zero-valued fields inherit from base.
func (c Config) WithBase(base Config) Config {
	merged := base
	if c.FailureRateThreshold > 0 {
		merged.FailureRateThreshold = c.FailureRateThreshold
	}
	if c.SlowCallRateThreshold > 0 {
		merged.SlowCallRateThreshold = c.SlowCallRateThreshold
	}
	if c.SlowCallDurationThreshold > 0 {
		merged.SlowCallDurationThreshold = c.SlowCallDurationThreshold
	}
	if c.WindowType != WindowCountBased {
		merged.WindowType = c.WindowType
	}
	if c.RingBufferSizeInClosedState > 0 {
		merged.RingBufferSizeInClosedState = c.RingBufferSizeInClosedState
	}
	if c.RingBufferSizeInHalfOpenState > 0 {
		merged.RingBufferSizeInHalfOpenState = c.RingBufferSizeInHalfOpenState
	}
	if c.MinimumNumberOfCalls > 0 {
		merged.MinimumNumberOfCalls = c.MinimumNumberOfCalls
	}
	if c.WaitDurationInOpenState > 0 {
		merged.WaitDurationInOpenState = c.WaitDurationInOpenState
	}
	if c.AutomaticTransitionFromOpenToHalfOpenEnabled {
		merged.AutomaticTransitionFromOpenToHalfOpenEnabled = true
	}
	if len(c.RecordErrors) > 0 {
		merged.RecordErrors = c.RecordErrors
	}
	if len(c.IgnoreErrors) > 0 {
		merged.IgnoreErrors = c.IgnoreErrors
	}
	if c.RecordErrorPredicate != nil {
		merged.RecordErrorPredicate = c.RecordErrorPredicate
	}
	if c.IgnoreErrorPredicate != nil {
		merged.IgnoreErrorPredicate = c.IgnoreErrorPredicate
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
