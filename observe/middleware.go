package observe

import (
	"context"
	"time"
)

// CallFunc is the signature of a guarded call.
type CallFunc func(ctx context.Context) error

// Middleware wraps guarded calls with observability (tracing, metrics,
// logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe CallFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped call are recorded and propagated
//     unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability
// components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NewNopMiddleware creates a Middleware that records nothing.
func NewNopMiddleware() *Middleware {
	return NewMiddleware(newNoopTracer(), &noopMetrics{}, &noopLogger{})
}

// Wrap wraps fn with tracing, metrics, and logging under inst.
func (m *Middleware) Wrap(inst Instance, fn CallFunc) CallFunc {
	return func(ctx context.Context) error {
		ctx, span := m.tracer.StartSpan(ctx, inst)
		start := time.Now()

		err := fn(ctx)
		duration := time.Since(start)

		m.tracer.EndSpan(span, err)
		m.metrics.RecordCall(ctx, inst, duration, err)

		logger := m.logger.WithInstance(inst)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "guarded call failed", fields...)
		} else {
			logger.Debug(ctx, "guarded call completed", fields...)
		}

		return err
	}
}

// RecordRejection records a call refused by the named primitive before it
// ran.
func (m *Middleware) RecordRejection(ctx context.Context, inst Instance) {
	m.metrics.RecordRejection(ctx, inst)
	m.logger.WithInstance(inst).Warn(ctx, "call rejected")
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	tracer := newTracer(obs.Tracer())

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(tracer, metrics, obs.Logger()), nil
}
