// Package telemetry wires the core's observability surface: a counter and
// histogram over function invocations, plus a tracer for per-invocation
// spans. The core only ever talks to the otel API surface; wiring a
// concrete exporter is a host-application concern.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Metrics is the core's telemetry surface.
type Metrics struct {
	invocations metric.Int64Counter
	duration    metric.Float64Histogram
	tracer      trace.Tracer
}

// New builds Metrics from meter and tracer. meter/tracer are typically
// obtained from a global otel.Meter/otel.Tracer provider configured by the
// host application.
func New(meter metric.Meter, tracer trace.Tracer) (*Metrics, error) {
	invocations, err := meter.Int64Counter(
		"function_invocations",
		metric.WithDescription("count of function invocations by name and status"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"function_duration_ms",
		metric.WithDescription("function invocation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{invocations: invocations, duration: duration, tracer: tracer}, nil
}

// StartSpan starts a span named name, returning the derived context.
func (m *Metrics) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, name)
}

// RecordInvocation increments the invocation counter and records the
// duration histogram, both tagged with function_name and status.
func (m *Metrics) RecordInvocation(ctx context.Context, functionName, status string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("function_name", functionName),
		attribute.String("status", status),
	)
	m.invocations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
}
