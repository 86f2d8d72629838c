package observe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	found := findMetric(rm, name)
	if found == nil {
		return 0
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64] for %s, got %T", name, found.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_TotalCounterIncrements(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordCase(context.Background(), CaseMeta{Suite: "health", Name: "api health"}, 100*time.Millisecond, 1, nil)

	rm := collect(t, reader)
	if got := sumValue(t, rm, "stackcheck.case.total"); got != 1 {
		t.Errorf("expected total 1, got %d", got)
	}
}

func TestMetrics_FailureCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	meta := CaseMeta{Suite: "health", Name: "api health"}

	m.RecordCase(context.Background(), meta, time.Millisecond, 1, nil)
	if got := sumValue(t, collect(t, reader), "stackcheck.case.failures"); got != 0 {
		t.Errorf("expected no failures after success, got %d", got)
	}

	m.RecordCase(context.Background(), meta, time.Millisecond, 3, errors.New("503"))
	if got := sumValue(t, collect(t, reader), "stackcheck.case.failures"); got != 1 {
		t.Errorf("expected 1 failure, got %d", got)
	}
}

func TestMetrics_AttemptsCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	meta := CaseMeta{Suite: "health", Name: "web root"}

	m.RecordCase(context.Background(), meta, time.Millisecond, 3, errors.New("boom"))
	m.RecordCase(context.Background(), meta, time.Millisecond, 1, nil)

	if got := sumValue(t, collect(t, reader), "stackcheck.case.attempts"); got != 4 {
		t.Errorf("expected 4 attempts, got %d", got)
	}
}

func TestMetrics_DurationHistogramRecords(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordCase(context.Background(), CaseMeta{Name: "docs"}, 250*time.Millisecond, 1, nil)

	found := findMetric(collect(t, reader), "stackcheck.case.duration_ms")
	if found == nil {
		t.Fatal("stackcheck.case.duration_ms metric not found")
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("expected 1 data point, got %d", len(hist.DataPoints))
	}
	if hist.DataPoints[0].Sum != 250 {
		t.Errorf("expected sum 250, got %f", hist.DataPoints[0].Sum)
	}
}

func TestMetrics_LabelsApplied(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordCase(context.Background(), CaseMeta{Suite: "integration", Name: "redoc"}, time.Millisecond, 1, nil)

	found := findMetric(collect(t, reader), "stackcheck.case.total")
	if found == nil {
		t.Fatal("stackcheck.case.total metric not found")
	}
	sum := found.Data.(metricdata.Sum[int64])
	attrs := sum.DataPoints[0].Attributes

	if v, ok := attrs.Value(attribute.Key("case.suite")); !ok || v.AsString() != "integration" {
		t.Errorf("expected case.suite=integration, got %v", v)
	}
	if v, ok := attrs.Value(attribute.Key("case.id")); !ok || v.AsString() != "integration/redoc" {
		t.Errorf("expected case.id=integration/redoc, got %v", v)
	}
}

func TestMetrics_ConcurrentRecording(t *testing.T) {
	m, reader := newTestMetrics(t)
	meta := CaseMeta{Suite: "integration", Name: "concurrent requests"}

	const numGoroutines = 50
	var wg sync.WaitGroup
	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordCase(context.Background(), meta, time.Millisecond, 1, nil)
		}()
	}
	wg.Wait()

	if got := sumValue(t, collect(t, reader), "stackcheck.case.total"); got != numGoroutines {
		t.Errorf("expected count %d, got %d", numGoroutines, got)
	}
}

// findMetric searches for a metric by name in ResourceMetrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}
