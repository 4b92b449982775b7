package retry

import (
	"fmt"
	"time"

	"github.com/jonwraymond/shield/observe"
)

// Config configures a retry.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3
	MaxAttempts int

	// WaitDuration is the base wait between attempts. Default: 500ms
	WaitDuration time.Duration

	// EnableExponentialBackoff grows the wait by ExponentialBackoffMultiplier
	// each attempt. Cannot be combined with EnableRandomizedWait.
	EnableExponentialBackoff bool

	// ExponentialBackoffMultiplier is the per-attempt growth factor.
	// Default: 1.5
	ExponentialBackoffMultiplier float64

	// EnableRandomizedWait spreads each wait uniformly across
	// WaitDuration * (1 +/- RandomizedWaitFactor). Cannot be combined with
	// EnableExponentialBackoff.
	EnableRandomizedWait bool

	// RandomizedWaitFactor is the spread around the base wait, in (0, 1].
	// Default: 0.5
	RandomizedWaitFactor float64

	// MaxWaitDuration caps the computed wait when positive.
	// Default: 0 (uncapped)
	MaxWaitDuration time.Duration

	// IntervalFunction computes the wait after the failed attempt numbered
	// attempt (starting at 1). When set it replaces the built-in wait
	// strategies, which must then be disabled.
	IntervalFunction func(attempt int) time.Duration

	// RetryErrors restricts which errors are retried. When non-empty, an
	// error matching none of the targets (per errors.Is) fails immediately.
	RetryErrors []error

	// IgnoreErrors lists errors that fail immediately without counting as a
	// retryable failure. Matched per errors.Is. Checked before RetryErrors.
	IgnoreErrors []error

	// RetryErrorPredicate marks an error as retryable. Evaluated together
	// with RetryErrors.
	RetryErrorPredicate func(error) bool

	// IgnoreErrorPredicate marks an error as ignored. Evaluated together
	// with IgnoreErrors.
	IgnoreErrorPredicate func(error) bool

	// RetryResultPredicate marks a successful result as needing another
	// attempt. Consulted by Do and Context.OnResult.
	RetryResultPredicate func(any) bool

	// EventBufferSize is the per-subscription ring capacity of the retry's
	// event publisher. Default: 128
	EventBufferSize int

	// Logger receives event consumer failures. Default: discards.
	Logger observe.Logger

	// BaseConfig names a shared configuration registered with the retry
	// registry. Zero-valued fields of this config inherit from it.
	BaseConfig string
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:                  3,
		WaitDuration:                 500 * time.Millisecond,
		ExponentialBackoffMultiplier: 1.5,
		RandomizedWaitFactor:         0.5,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.WaitDuration <= 0 {
		c.WaitDuration = 500 * time.Millisecond
	}
	if c.ExponentialBackoffMultiplier <= 0 {
		c.ExponentialBackoffMultiplier = 1.5
	}
	if c.RandomizedWaitFactor <= 0 {
		c.RandomizedWaitFactor = 0.5
	}
	if c.Logger == nil {
		c.Logger = observe.NewNopLogger()
	}
	return c
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.MaxAttempts < 0 {
		return fmt.Errorf("retry: max attempts must not be negative, got %d", c.MaxAttempts)
	}
	if c.EnableExponentialBackoff && c.EnableRandomizedWait {
		return fmt.Errorf("retry: exponential backoff and randomized wait cannot be combined")
	}
	if c.IntervalFunction != nil && (c.EnableExponentialBackoff || c.EnableRandomizedWait) {
		return fmt.Errorf("retry: interval function cannot be combined with built-in wait strategies")
	}
	if c.RandomizedWaitFactor > 1 {
		return fmt.Errorf("retry: randomized wait factor must be within (0, 1], got %v", c.RandomizedWaitFactor)
	}
	return nil
}

// WithBase overlays the explicitly set fields of this config onto base and
// returns the result. Zero-valued fields inherit from base.
func (c Config) WithBase(base Config) Config {
	merged := base
	if c.MaxAttempts > 0 {
		merged.MaxAttempts = c.MaxAttempts
	}
	if c.WaitDuration > 0 {
		merged.WaitDuration = c.WaitDuration
	}
	if c.EnableExponentialBackoff {
		merged.EnableExponentialBackoff = true
	}
	if c.ExponentialBackoffMultiplier > 0 {
		merged.ExponentialBackoffMultiplier = c.ExponentialBackoffMultiplier
	}
	if c.EnableRandomizedWait {
		merged.EnableRandomizedWait = true
	}
	if c.RandomizedWaitFactor > 0 {
		merged.RandomizedWaitFactor = c.RandomizedWaitFactor
	}
	if c.MaxWaitDuration > 0 {
		merged.MaxWaitDuration = c.MaxWaitDuration
	}
	if c.IntervalFunction != nil {
		merged.IntervalFunction = c.IntervalFunction
	}
	if len(c.RetryErrors) > 0 {
		merged.RetryErrors = c.RetryErrors
	}
	if len(c.IgnoreErrors) > 0 {
		merged.IgnoreErrors = c.IgnoreErrors
	}
	if c.RetryErrorPredicate != nil {
		merged.RetryErrorPredicate = c.RetryErrorPredicate
	}
	if c.IgnoreErrorPredicate != nil {
		merged.IgnoreErrorPredicate = c.IgnoreErrorPredicate
	}
	if c.RetryResultPredicate != nil {
		merged.RetryResultPredicate = c.RetryResultPredicate
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
