package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Instance identifies one resilience primitive instance for telemetry.
type Instance struct {
	Name string // instance name (required)
	Kind string // primitive kind, e.g. "circuitbreaker" (may be empty)
}

// SpanName returns the deterministic span name for this instance.
// Format: call.<kind>.<name> or call.<name>
func (i Instance) SpanName() string {
	if i.Kind != "" {
		return "call." + i.Kind + "." + i.Name
	}
	return "call." + i.Name
}

// Tracer wraps OpenTelemetry tracing with per-instance span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for one guarded call.
	StartSpan(ctx context.Context, inst Instance) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with instance metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, inst Instance) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("instance.name", inst.Name),
	}
	if inst.Kind != "" {
		attrs = append(attrs, attribute.String("instance.kind", inst.Kind))
	}

	ctx, span := t.tracer.Start(ctx, inst.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, inst Instance) (context.Context, trace.Span) {
	return t.noop.Start(ctx, inst.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
