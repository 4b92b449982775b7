package resilience

import (
	"context"

	"github.com/jonwraymond/shield/bulkhead"
	"github.com/jonwraymond/shield/circuitbreaker"
	"github.com/jonwraymond/shield/observe"
	"github.com/jonwraymond/shield/ratelimiter"
	"github.com/jonwraymond/shield/retry"
	"github.com/jonwraymond/shield/timelimiter"
)

// Operation is a guarded call.
type Operation func(ctx context.Context) error

// Executor composes resilience primitives into one decorator chain.
//
// Contract:
//   - Concurrency: safe for concurrent use once built; options must not be
//     applied after the first Execute.
//   - Context: ctx flows through every layer down to the operation.
//   - Errors: refusals surface the underlying primitive's sentinel error.
type Executor struct {
	name        string
	bulkhead    *bulkhead.Bulkhead
	limiter     *ratelimiter.RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	retry       *retry.Retry
	timeLimiter *timelimiter.TimeLimiter
	middleware  *observe.Middleware
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a named executor. With no options it runs the
// operation unguarded.
func NewExecutor(name string, opts ...ExecutorOption) *Executor {
	e := &Executor{
		name:       name,
		middleware: observe.NewNopMiddleware(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the executor name.
func (e *Executor) Name() string { return e.name }

// WithBulkhead adds concurrency isolation to the executor.
func WithBulkhead(b *bulkhead.Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *ratelimiter.RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.limiter = rl
	}
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.breaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *retry.Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithTimeLimiter adds a per-attempt time limit to the executor.
func WithTimeLimiter(tl *timelimiter.TimeLimiter) ExecutorOption {
	return func(e *Executor) {
		e.timeLimiter = tl
	}
}

// WithMiddleware instruments every Execute with tracing, metrics, and
// logging.
func WithMiddleware(mw *observe.Middleware) ExecutorOption {
	return func(e *Executor) {
		if mw != nil {
			e.middleware = mw
		}
	}
}

// Execute runs the operation through all configured primitives.
//
// Decoration order, outermost first:
//  1. Bulkhead - bounds concurrent entries
//  2. Rate Limiter - bounds entry rate
//  3. Circuit Breaker - refuses while the downstream is failing
//  4. Retry - re-runs failed attempts
//  5. Time Limiter - bounds each attempt's duration
//
// The retry sits inside the breaker, so one Execute counts as one breaker
// call regardless of attempts. The time limiter sits inside the retry, so
// each attempt gets a fresh budget.
func (e *Executor) Execute(ctx context.Context, op Operation) error {
	chain := op

	if e.timeLimiter != nil {
		inner := chain
		chain = func(ctx context.Context) error {
			return e.timeLimiter.Execute(ctx, inner)
		}
	}

	if e.retry != nil {
		inner := chain
		chain = func(ctx context.Context) error {
			return e.retry.Execute(ctx, inner)
		}
	}

	if e.breaker != nil {
		inner := chain
		chain = func(ctx context.Context) error {
			return e.breaker.Execute(ctx, inner)
		}
	}

	if e.limiter != nil {
		inner := chain
		chain = func(ctx context.Context) error {
			return e.limiter.Execute(ctx, inner)
		}
	}

	if e.bulkhead != nil {
		inner := chain
		chain = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}

	inst := observe.Instance{Name: e.name, Kind: "executor"}
	err := e.middleware.Wrap(inst, observe.CallFunc(chain))(ctx)
	if IsRejection(err) {
		e.middleware.RecordRejection(ctx, inst)
	}
	return err
}

// Do runs an operation returning a value through the executor.
func Do[T any](ctx context.Context, e *Executor, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, opErr := op(ctx)
		if opErr != nil {
			return opErr
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
