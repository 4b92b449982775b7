// Package retry re-invokes failed operations a bounded number of times with
// a configurable wait between attempts.
//
// Execute and Do wrap the whole loop. Callers that need to drive attempts
// themselves create a Context from the Retry instance and report each
// outcome to it; the Context answers with the wait before the next attempt
// or with the terminal error once attempts are exhausted.
//
// Waits come from a fixed duration, an exponential backoff, or a randomized
// spread around the base duration. Exponential and randomized waits cannot
// be combined.
//
//	r := retry.New("fetch", retry.Config{
//		MaxAttempts:  5,
//		WaitDuration: 200 * time.Millisecond,
//	})
//
//	err := r.Execute(ctx, func(ctx context.Context) error {
//		return client.Fetch(ctx)
//	})
package retry
