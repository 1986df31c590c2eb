// Package instrumentation provides OpenTelemetry metrics and tracing
// for the assistant.
//
// The Provider owns the meter and tracer providers and their exporters.
// Metrics cover the HTTP API, conversation tool invocations, model
// requests and calendar provider operations. Prometheus is the default
// metrics exporter; OTLP and stdout exporters are available for
// collector-based setups and local debugging. Tracing is off by default
// and enabled via TRACING_EXPORTER.
//
// All recording methods are safe on a zero-value Metrics so code paths
// never need to check whether instrumentation is enabled.
package instrumentation
