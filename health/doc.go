// Package health exposes the state of fault-tolerance primitives as
// health checks.
//
// A Checker grades one component as healthy, degraded, or unhealthy.
// BreakerChecker maps circuit breaker states onto that scale (open is
// unhealthy, half-open is degraded) and BulkheadChecker reports a
// saturated bulkhead as degraded. MemoryChecker watches process heap
// usage. Aggregator sweeps a set of checkers concurrently and folds
// the results with Overall.
//
//	agg := health.NewAggregator(health.AggregatorConfig{})
//	agg.Register(health.NewBreakerChecker(cb))
//	agg.Register(health.NewBulkheadChecker(bh))
//
//	results := agg.CheckAll(ctx)
//	fmt.Println(health.Overall(results))
//
// LivenessHandler, ReadinessHandler, and StatusHandler serve the sweep
// over HTTP; RegisterHandlers mounts them under /healthz, /readyz, and
// /health.
package health
