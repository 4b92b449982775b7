// Package timelimiter bounds how long a call may run.
//
// Execute runs the operation on its own goroutine and waits up to
// TimeoutDuration for it to finish. On timeout the caller gets ErrTimeout
// immediately; unless KeepRunningOnTimeout is set the operation's context is
// cancelled so it can stop early, otherwise it keeps the original context
// and winds down on its own.
//
//	tl := timelimiter.New("report", timelimiter.Config{
//		TimeoutDuration: 2 * time.Second,
//	})
//
//	err := tl.Execute(ctx, func(ctx context.Context) error {
//		return generate(ctx)
//	})
package timelimiter
