// Package bulkhead limits concurrent calls to protect callers from resource
// exhaustion.
//
// Two isolation styles are provided. Bulkhead caps the number of goroutines
// running a call at once using a weighted semaphore; callers run the call on
// their own goroutine and optionally wait up to MaxWaitDuration for a slot.
// ThreadPoolBulkhead hands the call to a fixed worker pool with a bounded
// queue; a submission that finds the pool busy and the queue full is
// rejected, never silently dropped and never blocking the submitter.
//
//	bh := bulkhead.New("backend", bulkhead.Config{
//		MaxConcurrentCalls: 25,
//		MaxWaitDuration:    10 * time.Millisecond,
//	})
//
//	err := bh.Execute(ctx, func(ctx context.Context) error {
//		return client.Call(ctx)
//	})
package bulkhead
