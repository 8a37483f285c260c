package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys stamped on client-operation spans.
const (
	AttrClientName    = "veldt.client"
	AttrOperationName = "veldt.operation"
	AttrDurationMs    = "duration_ms"
)

// Operation tracks one logical client operation that may cover several
// exchanges, such as a retried upload or a parallel ranged download. It
// opens a parent span that the per-exchange transport spans nest under,
// and records operation metrics when a sink is attached.
type Operation struct {
	client  string
	name    string
	start   time.Time
	span    trace.Span
	metrics *Metrics
}

// StartOperation opens a span named "<client>.<name>". metrics may be nil.
func StartOperation(ctx context.Context, client, name string, metrics *Metrics) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, client+"."+name)
	span.SetAttributes(
		attribute.String(AttrClientName, client),
		attribute.String(AttrOperationName, name),
	)
	metrics.RecordOperationStart(ctx, client)
	return ctx, &Operation{
		client:  client,
		name:    name,
		start:   time.Now(),
		span:    span,
		metrics: metrics,
	}
}

// End closes the span, recording err when non-nil. Call exactly once.
func (o *Operation) End(ctx context.Context, err error) {
	duration := time.Since(o.start)
	status := "ok"
	if err != nil {
		status = "error"
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.SetAttributes(attribute.Int64(AttrDurationMs, duration.Milliseconds()))
	o.span.End()
	o.metrics.RecordOperationEnd(ctx, o.client, o.name, status, duration)
}

// Duration returns the elapsed time since the operation started.
func (o *Operation) Duration() time.Duration {
	return time.Since(o.start)
}
