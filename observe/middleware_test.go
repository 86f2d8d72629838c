package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

type middlewareHarness struct {
	recorder *tracetest.SpanRecorder
	reader   *sdkmetric.ManualReader
	logs     *bytes.Buffer
	mw       *Middleware
}

func newHarness(t *testing.T) *middlewareHarness {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	var logs bytes.Buffer
	mw := NewMiddleware(NewTracer(tp.Tracer("test")), metrics, NewLoggerWithWriter("info", &logs))
	return &middlewareHarness{recorder: recorder, reader: reader, logs: &logs, mw: mw}
}

func TestMiddleware_SuccessPath(t *testing.T) {
	h := newHarness(t)
	meta := CaseMeta{Suite: "health", Name: "api health"}

	wrapped := h.mw.Wrap(func(ctx context.Context, m CaseMeta) (int, error) {
		return 2, nil
	})
	attempts, err := wrapped(context.Background(), meta)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}

	spans := h.recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "stackcheck.case.health.api_health" {
		t.Errorf("unexpected span name %q", spans[0].Name())
	}

	var rm metricdata.ResourceMetrics
	if err := h.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	if findMetric(rm, "stackcheck.case.total") == nil {
		t.Error("stackcheck.case.total metric not found")
	}

	var entry map[string]any
	if err := json.Unmarshal(h.logs.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if entry["msg"] != "case passed" {
		t.Errorf("expected 'case passed', got %v", entry["msg"])
	}
	if entry["case.suite"] != "health" {
		t.Errorf("expected case.suite=health, got %v", entry["case.suite"])
	}
}

func TestMiddleware_ErrorPath(t *testing.T) {
	h := newHarness(t)
	want := errors.New("expected status 200, got 503")

	wrapped := h.mw.Wrap(func(ctx context.Context, m CaseMeta) (int, error) {
		return 3, want
	})
	attempts, err := wrapped(context.Background(), CaseMeta{Suite: "health", Name: "api health"})
	if !errors.Is(err, want) {
		t.Fatalf("expected original error, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}

	var rm metricdata.ResourceMetrics
	if err := h.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	if findMetric(rm, "stackcheck.case.failures") == nil {
		t.Error("stackcheck.case.failures metric not found")
	}

	out := h.logs.String()
	if !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, "503") {
		t.Errorf("expected error log mentioning 503, got %q", out)
	}
}

func TestMiddleware_PropagatesContext(t *testing.T) {
	h := newHarness(t)

	var inner trace.SpanContext
	wrapped := h.mw.Wrap(func(ctx context.Context, m CaseMeta) (int, error) {
		inner = trace.SpanContextFromContext(ctx)
		return 1, nil
	})
	if _, err := wrapped(context.Background(), CaseMeta{Name: "docs"}); err != nil {
		t.Fatal(err)
	}

	if !inner.IsValid() {
		t.Fatal("expected a valid span context inside the wrapped function")
	}
	if inner.SpanID() != h.recorder.Ended()[0].SpanContext().SpanID() {
		t.Error("wrapped function did not receive the case span")
	}
}

func TestMiddleware_RejectsUnnamedCase(t *testing.T) {
	h := newHarness(t)
	called := false

	wrapped := h.mw.Wrap(func(ctx context.Context, m CaseMeta) (int, error) {
		called = true
		return 1, nil
	})
	_, err := wrapped(context.Background(), CaseMeta{Suite: "health"})
	if !errors.Is(err, ErrMissingCaseName) {
		t.Fatalf("expected ErrMissingCaseName, got %v", err)
	}
	if called {
		t.Error("wrapped function should not run for an unnamed case")
	}
}

func TestMiddleware_MeasuresDuration(t *testing.T) {
	h := newHarness(t)

	wrapped := h.mw.Wrap(func(ctx context.Context, m CaseMeta) (int, error) {
		time.Sleep(20 * time.Millisecond)
		return 1, nil
	})
	if _, err := wrapped(context.Background(), CaseMeta{Name: "slow"}); err != nil {
		t.Fatal(err)
	}

	var entry map[string]any
	if err := json.Unmarshal(h.logs.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if d, ok := entry["duration_ms"].(float64); !ok || d < 20 {
		t.Errorf("expected duration_ms >= 20, got %v", entry["duration_ms"])
	}
}

func TestMiddleware_NilComponentsNoop(t *testing.T) {
	mw := NewMiddleware(nil, nil, nil)

	wrapped := mw.Wrap(func(ctx context.Context, m CaseMeta) (int, error) {
		return 1, nil
	})
	if _, err := wrapped(context.Background(), CaseMeta{Name: "x"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mw.Logger() == nil {
		t.Error("expected non-nil logger")
	}
}

func TestMiddlewareFromObserver(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "stackcheck"})
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}
	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver: %v", err)
	}
	if _, err := mw.Wrap(func(ctx context.Context, m CaseMeta) (int, error) { return 1, nil })(context.Background(), CaseMeta{Name: "x"}); err != nil {
		t.Fatal(err)
	}
}
