// Package observe provides tracing, metrics and structured logging for DOM
// queries and the tools that expose them.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup and log output. The query engine and the tool
// dispatcher take a Telemetry bundle; a zero or partial bundle falls back to
// no-ops.
package observe
