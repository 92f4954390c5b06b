package observe

import (
	"context"
	"time"
)

// OperationFunc performs one cache operation and reports its outcome,
// e.g. "hit" or "stored".
type OperationFunc func(ctx context.Context) (outcome string, err error)

// Middleware wraps cache operations with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Observe is safe for concurrent use.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NewLoggingMiddleware creates a Middleware that only logs.
func NewLoggingMiddleware(logger Logger) *Middleware {
	return NewMiddleware(nil, nil, logger)
}

// Observe runs fn inside a span and records its metrics and log line.
func (m *Middleware) Observe(ctx context.Context, meta OpMeta, fn OperationFunc) (string, error) {
	ctx, span := m.tracer.StartSpan(ctx, meta)
	start := time.Now()

	outcome, err := fn(ctx)

	duration := time.Since(start)
	m.tracer.EndSpan(span, outcome, err)
	m.metrics.RecordOperation(ctx, meta, outcome, duration, err)

	opLogger := m.logger.WithOp(meta)
	fields := []Field{
		{Key: "outcome", Value: outcome},
		{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
	}
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		opLogger.Warn(ctx, "cache operation failed", fields...)
	} else {
		opLogger.Debug(ctx, "cache operation completed", fields...)
	}

	return outcome, err
}

// MiddlewareFromObserver creates a Middleware from an Observer.
// This is a convenience function for common use cases.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
