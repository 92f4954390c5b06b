package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Cache operation names.
const (
	OpGet = "get"
	OpSet = "set"
)

// OpMeta describes one cache operation for telemetry purposes.
type OpMeta struct {
	Bin     string // Cache bin (required)
	Op      string // Operation name, e.g. OpGet (required)
	Backend string // Backend kind (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: cache.<op>.<bin>
func (m OpMeta) SpanName() string {
	return "cache." + m.Op + "." + m.Bin
}

// ID returns "<bin>.<op>".
func (m OpMeta) ID() string {
	return m.Bin + "." + m.Op
}

// Validate checks the required fields.
func (m OpMeta) Validate() error {
	if m.Bin == "" {
		return ErrMissingBin
	}
	if m.Op == "" {
		return ErrMissingOp
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with cache-operation spans.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a cache operation.
	StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the outcome and any error.
	EndSpan(span trace.Span, outcome string, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with operation metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("cache.bin", meta.Bin),
		attribute.String("cache.op", meta.Op),
		attribute.Bool("cache.error", false),
	}
	if meta.Backend != "" {
		attrs = append(attrs, attribute.String("cache.backend", meta.Backend))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, outcome string, err error) {
	if outcome != "" {
		span.SetAttributes(attribute.String("cache.outcome", outcome))
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("cache.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AnnotateKey records the derived cache identifier on the span in ctx.
func AnnotateKey(ctx context.Context, key string) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("cache.key", key))
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

func (t *noopTracer) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ string, _ error) {
	span.End()
}
