package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/shield/bulkhead"
	"github.com/jonwraymond/shield/circuitbreaker"
)

// BreakerChecker reports the health of a circuit breaker based on its
// state. An open or force-open breaker is unhealthy, a half-open breaker
// is degraded while probe calls run, and a closed or disabled breaker is
// healthy.
type BreakerChecker struct {
	breaker *circuitbreaker.CircuitBreaker
}

// NewBreakerChecker creates a checker for the given circuit breaker.
func NewBreakerChecker(cb *circuitbreaker.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{breaker: cb}
}

// Name returns the name of this checker.
func (c *BreakerChecker) Name() string {
	return "circuitbreaker:" + c.breaker.Name()
}

// Check reports the breaker's state and window statistics.
func (c *BreakerChecker) Check(ctx context.Context) Result {
	m := c.breaker.Metrics()

	details := map[string]any{
		"state":               m.State.String(),
		"failure_rate":        m.FailureRate,
		"slow_call_rate":      m.SlowCallRate,
		"buffered_calls":      m.BufferedCalls,
		"failed_calls":        m.FailedCalls,
		"not_permitted_calls": m.NotPermittedCalls,
	}

	switch m.State {
	case circuitbreaker.StateOpen, circuitbreaker.StateForcedOpen:
		return Unhealthy(
			fmt.Sprintf("circuit breaker %q is %s", c.breaker.Name(), m.State),
			circuitbreaker.ErrCallNotPermitted,
		).WithDetails(details)
	case circuitbreaker.StateHalfOpen:
		return Degraded(
			fmt.Sprintf("circuit breaker %q is probing recovery", c.breaker.Name()),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("circuit breaker %q is %s", c.breaker.Name(), m.State),
		).WithDetails(details)
	}
}

// BulkheadChecker reports the health of a bulkhead based on permit
// availability. A saturated bulkhead is degraded; it still serves the
// calls it admitted, but new callers are being refused.
type BulkheadChecker struct {
	bulkhead *bulkhead.Bulkhead
}

// NewBulkheadChecker creates a checker for the given bulkhead.
func NewBulkheadChecker(b *bulkhead.Bulkhead) *BulkheadChecker {
	return &BulkheadChecker{bulkhead: b}
}

// Name returns the name of this checker.
func (c *BulkheadChecker) Name() string {
	return "bulkhead:" + c.bulkhead.Name()
}

// Check reports the bulkhead's permit usage.
func (c *BulkheadChecker) Check(ctx context.Context) Result {
	m := c.bulkhead.Metrics()

	details := map[string]any{
		"available_concurrent_calls":   m.AvailableConcurrentCalls,
		"max_allowed_concurrent_calls": m.MaxAllowedConcurrentCalls,
		"rejected_calls":               m.RejectedCalls,
	}

	if m.AvailableConcurrentCalls <= 0 {
		return Degraded(
			fmt.Sprintf("bulkhead %q is saturated", c.bulkhead.Name()),
		).WithDetails(details)
	}
	return Healthy(
		fmt.Sprintf("bulkhead %q has %d of %d permits free",
			c.bulkhead.Name(), m.AvailableConcurrentCalls, m.MaxAllowedConcurrentCalls),
	).WithDetails(details)
}
