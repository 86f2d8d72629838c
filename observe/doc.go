// Package observe instruments test case execution with tracing, metrics and
// structured logging.
//
// Every case the suite runner executes becomes one span
// (stackcheck.case.<suite>.<case>), one sample in the case metrics and one
// JSON log line. Exporters are chosen at start-up (stdout, otlp, prometheus,
// none) so CI can ship run telemetry to an existing collector.
package observe
