// Package resilience composes fault-tolerance primitives into one
// decorator chain.
//
// Each primitive lives in its own package (circuitbreaker, ratelimiter,
// bulkhead, retry, timelimiter) and can be used on its own. This package
// provides the Executor, which stacks them in a fixed order around a
// single operation:
//
//	Bulkhead -> RateLimiter -> CircuitBreaker -> Retry -> TimeLimiter
//
// The bulkhead and rate limiter gate entry, the breaker refuses calls
// while the downstream is failing, the retry re-runs failed attempts, and
// the time limiter bounds each attempt.
//
// # Usage
//
//	cb := circuitbreaker.New("backend", circuitbreaker.Config{})
//	r := retry.New("backend", retry.Config{MaxAttempts: 3})
//	tl := timelimiter.New("backend", timelimiter.Config{
//	    TimeoutDuration: 2 * time.Second,
//	})
//
//	exec := resilience.NewExecutor("backend",
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithRetry(r),
//	    resilience.WithTimeLimiter(tl),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return callExternalService(ctx)
//	})
//
// Refusals issued before the operation runs (open breaker, full bulkhead,
// exhausted rate limit) satisfy IsRejection and surface the owning
// package's sentinel error.
package resilience
