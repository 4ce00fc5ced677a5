// Package o11y defines the minimal metrics and tracing abstractions the
// engine reports through. Implementations can be backed by OpenTelemetry
// (see the otel package), Prometheus, or anything else; the engine never
// depends on a concrete telemetry stack.
package o11y

import (
	"context"
)

// MetricsProvider creates named instruments for engine metrics.
type MetricsProvider interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
	Gauge(name string) Gauge
}

// TracingProvider starts spans around engine phases such as connection
// attempts.
type TracingProvider interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Counter is a monotonically increasing metric, e.g. frames sent.
type Counter interface {
	Add(ctx context.Context, value int64, labels ...Label)
}

// Histogram records a distribution, e.g. handshake duration.
type Histogram interface {
	Record(ctx context.Context, value float64, labels ...Label)
}

// Gauge is a value that can go up and down, e.g. queued callbacks.
// Callers report deltas.
type Gauge interface {
	Add(ctx context.Context, delta float64, labels ...Label)
}

// Span is one traced unit of work.
type Span interface {
	SetAttributes(labels ...Label)
	SetStatus(code SpanStatusCode, description string)
	End()
}

// Label is a key-value pair attached to metrics and spans.
type Label struct {
	Key   string
	Value string
}

// SpanStatusCode is the completion status of a span.
type SpanStatusCode int

const (
	SpanStatusUnset SpanStatusCode = iota
	SpanStatusOK
	SpanStatusError
)
