// Package cache decorates calls with deterministic result caching.
//
// The CallCache wraps an operation so that repeated calls with the same
// input are served from a Store instead of re-running. Keys are derived
// from the call name and a canonical JSON rendering of the input
// (SHA-256 based), TTLs come from a Policy, and hits, misses, and store
// failures are published on the cache's event stream.
//
//	cc := cache.New("quote", cache.Config{
//	    Policy: cache.Policy{DefaultTTL: time.Minute},
//	})
//
//	body, err := cc.Execute(ctx, req, func(ctx context.Context) ([]byte, error) {
//	    return fetchQuote(ctx, req)
//	})
//
// Errors are never cached, so a failing call is retried on the next
// Execute with the same input.
package cache
