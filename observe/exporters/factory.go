// Package exporters builds the OpenTelemetry span exporters and metric readers
// selected by STACKCHECK_TRACE_EXPORTER and STACKCHECK_METRICS_EXPORTER.
package exporters

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Endpoint variables, checked in order.
var (
	traceEndpointVars  = []string{"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"}
	metricEndpointVars = []string{"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"}
	jaegerEndpointVars = []string{"OTEL_EXPORTER_JAEGER_ENDPOINT"}
)

// Options carries what a run hands to the factories.
type Options struct {
	// Writer receives stdout exporter output. Default: os.Stderr
	Writer io.Writer

	// Lookup reads endpoint variables. Default: os.LookupEnv
	Lookup func(string) (string, bool)
}

func (o Options) writer() io.Writer {
	if o.Writer == nil {
		return os.Stderr
	}
	return o.Writer
}

// endpoint returns the first non-empty value among vars.
func (o Options) endpoint(vars []string) (string, error) {
	lookup := o.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, v := range vars {
		if s, ok := lookup(v); ok && s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("endpoint not configured: set %s", vars[0])
}

// NewTracingExporter returns the span exporter for name (stdout, otlp,
// jaeger). "none" and "" return a nil exporter.
func NewTracingExporter(ctx context.Context, name string, opts Options) (sdktrace.SpanExporter, error) {
	switch name {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(opts.writer()), stdouttrace.WithoutTimestamps())

	case "otlp", "jaeger":
		vars := traceEndpointVars
		if name == "jaeger" {
			vars = jaegerEndpointVars
		}
		url, err := opts.endpoint(vars)
		if err != nil {
			return nil, fmt.Errorf("%s exporter: %w", name, err)
		}
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(url))

	case "none", "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown exporter: %q", name)
	}
}

// NewMetricsReader returns the metric reader for name (stdout, otlp,
// prometheus). "none" and "" return a nil reader. Push readers flush on
// shutdown, so a short run still exports its counters.
func NewMetricsReader(ctx context.Context, name string, opts Options) (sdkmetric.Reader, error) {
	switch name {
	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(opts.writer()))
		if err != nil {
			return nil, fmt.Errorf("stdout metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "otlp":
		url, err := opts.endpoint(metricEndpointVars)
		if err != nil {
			return nil, fmt.Errorf("otlp metrics exporter: %w", err)
		}
		exp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpointURL(url))
		if err != nil {
			return nil, fmt.Errorf("otlp metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "prometheus":
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		return exp, nil

	case "none", "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown metrics exporter: %q", name)
	}
}
