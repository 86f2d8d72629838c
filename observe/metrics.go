package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records per-case execution metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCase records one case execution with its duration, attempt count
	// and final error.
	RecordCase(ctx context.Context, meta CaseMeta, duration time.Duration, attempts int, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	failureCount metric.Int64Counter
	attemptCount metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the case instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"stackcheck.case.total",
		metric.WithDescription("Total number of test case executions"),
		metric.WithUnit("{case}"),
	)
	if err != nil {
		return nil, err
	}

	failureCount, err := meter.Int64Counter(
		"stackcheck.case.failures",
		metric.WithDescription("Test cases that failed after all attempts"),
		metric.WithUnit("{case}"),
	)
	if err != nil {
		return nil, err
	}

	attemptCount, err := meter.Int64Counter(
		"stackcheck.case.attempts",
		metric.WithDescription("Attempts made across all test cases, retries included"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"stackcheck.case.duration_ms",
		metric.WithDescription("Test case duration in milliseconds, retries included"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		failureCount: failureCount,
		attemptCount: attemptCount,
		durationHist: durationHist,
	}, nil
}

// RecordCase records metrics for a case execution.
func (m *metricsImpl) RecordCase(ctx context.Context, meta CaseMeta, duration time.Duration, attempts int, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("case.id", meta.CaseID()),
		attribute.String("case.name", meta.Name),
	}
	if meta.Suite != "" {
		attrs = append(attrs, attribute.String("case.suite", meta.Suite))
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.failureCount.Add(ctx, 1, opt)
	}
	if attempts > 0 {
		m.attemptCount.Add(ctx, int64(attempts), opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

type noopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return noopMetrics{}
}

func (noopMetrics) RecordCase(context.Context, CaseMeta, time.Duration, int, error) {}
