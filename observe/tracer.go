package observe

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CaseMeta identifies one test case execution for telemetry purposes.
type CaseMeta struct {
	Suite string // Suite the case belongs to (may be empty)
	Name  string // Case name (required)
	RunID string // Orchestrator run identifier (optional)
}

// SpanName returns the deterministic span name for this case.
// Format: stackcheck.case.<suite>.<name>, with spaces replaced by underscores.
func (m CaseMeta) SpanName() string {
	if m.Suite != "" {
		return "stackcheck.case." + spanSegment(m.Suite) + "." + spanSegment(m.Name)
	}
	return "stackcheck.case." + spanSegment(m.Name)
}

// CaseID returns suite/name, or just name when the suite is empty.
func (m CaseMeta) CaseID() string {
	if m.Suite != "" {
		return m.Suite + "/" + m.Name
	}
	return m.Name
}

// Validate reports ErrMissingCaseName when Name is empty.
func (m CaseMeta) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrMissingCaseName
	}
	return nil
}

func spanSegment(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}

// Tracer wraps OpenTelemetry tracing with case-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a case execution.
	StartSpan(ctx context.Context, meta CaseMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording attempts and any error.
	EndSpan(span trace.Span, attempts int, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with case metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CaseMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("case.id", meta.CaseID()),
		attribute.String("case.name", meta.Name),
		attribute.Bool("case.failed", false),
	}
	if meta.Suite != "" {
		attrs = append(attrs, attribute.String("case.suite", meta.Suite))
	}
	if meta.RunID != "" {
		attrs = append(attrs, attribute.String("run.id", meta.RunID))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, attempts int, err error) {
	span.SetAttributes(attribute.Int("case.attempts", attempts))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("case.failed", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

// NopTracer returns a tracer that records nothing.
func NopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CaseMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, attempts int, err error) {
	span.End()
}
