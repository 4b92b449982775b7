// Package ratelimiter provides a lock-free rate limiter that refreshes a
// fixed permission budget every cycle.
//
// Time is partitioned into cycles of LimitRefreshPeriod starting at the
// limiter's creation. Each cycle grants LimitForPeriod permissions. A request
// that finds the budget exhausted is told how long to wait for enough future
// cycles to cover it; when that wait exceeds TimeoutDuration the request is
// refused. All state lives in one record swapped by compare-and-swap, so
// concurrent callers contend without taking a lock.
//
// Cycle arithmetic uses the monotonic component of time.Time, so wall clock
// jumps do not distort the budget.
//
//	rl := ratelimiter.New("search", ratelimiter.Config{
//		LimitForPeriod:     10,
//		LimitRefreshPeriod: time.Second,
//		TimeoutDuration:    100 * time.Millisecond,
//	})
//
//	err := rl.Execute(ctx, func(ctx context.Context) error {
//		return client.Search(ctx, query)
//	})
package ratelimiter
