package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records guarded-call metrics for resilience instances.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records one guarded call with duration and error status.
	RecordCall(ctx context.Context, inst Instance, duration time.Duration, err error)

	// RecordRejection records a call refused before it ran, by the named
	// primitive (open breaker, full bulkhead, exhausted limiter).
	RecordRejection(ctx context.Context, inst Instance)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter         metric.Meter
	totalCount    metric.Int64Counter
	errorCount    metric.Int64Counter
	rejectedCount metric.Int64Counter
	durationHist  metric.Float64Histogram
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"resilience.calls.total",
		metric.WithDescription("Total number of guarded calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"resilience.calls.errors",
		metric.WithDescription("Total number of failed guarded calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	rejectedCount, err := meter.Int64Counter(
		"resilience.calls.rejected",
		metric.WithDescription("Total number of calls refused before running"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"resilience.call.duration_ms",
		metric.WithDescription("Guarded call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:         meter,
		totalCount:    totalCount,
		errorCount:    errorCount,
		rejectedCount: rejectedCount,
		durationHist:  durationHist,
	}, nil
}

func (m *metricsImpl) attrs(inst Instance) metric.MeasurementOption {
	kv := []attribute.KeyValue{
		attribute.String("instance.name", inst.Name),
	}
	if inst.Kind != "" {
		kv = append(kv, attribute.String("instance.kind", inst.Kind))
	}
	return metric.WithAttributes(kv...)
}

// RecordCall records metrics for one guarded call.
func (m *metricsImpl) RecordCall(ctx context.Context, inst Instance, duration time.Duration, err error) {
	opt := m.attrs(inst)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordRejection records one refused call.
func (m *metricsImpl) RecordRejection(ctx context.Context, inst Instance) {
	m.rejectedCount.Add(ctx, 1, m.attrs(inst))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, inst Instance, duration time.Duration, err error) {
}

func (m *noopMetrics) RecordRejection(ctx context.Context, inst Instance) {}
