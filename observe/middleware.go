package observe

import (
	"context"
	"time"
)

// ExecuteFunc runs one case, retries included, and reports how many attempts
// it took.
type ExecuteFunc func(ctx context.Context, meta CaseMeta) (attempts int, err error)

// Middleware wraps case execution with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
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

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Wrap wraps fn with tracing, metrics and logging.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, meta CaseMeta) (int, error) {
		if err := meta.Validate(); err != nil {
			return 0, err
		}

		ctx, span := m.tracer.StartSpan(ctx, meta)

		start := time.Now()
		attempts, err := fn(ctx, meta)
		duration := time.Since(start)

		m.tracer.EndSpan(span, attempts, err)
		m.metrics.RecordCase(ctx, meta, duration, attempts, err)

		caseLogger := m.logger.WithCase(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
			{Key: "attempts", Value: attempts},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			caseLogger.Error(ctx, "case failed", fields...)
		} else {
			caseLogger.Info(ctx, "case passed", fields...)
		}

		return attempts, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
