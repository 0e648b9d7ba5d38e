package observe

import (
	"context"
	"encoding/json"
	"time"
)

// ExecuteFunc runs one tool call on its raw JSON arguments.
type ExecuteFunc func(ctx context.Context, tool ToolMeta, input json.RawMessage) (any, error)

// Middleware wraps tool execution with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
//   - Ownership: input and output pass through untouched. Input is never logged.
type Middleware struct {
	tel Telemetry
	now func() time.Time
}

// NewMiddleware creates a Middleware reporting through tel.
func NewMiddleware(tel Telemetry) *Middleware {
	return &Middleware{tel: tel.OrNop(), now: time.Now}
}

// Wrap wraps fn with a span, a metric sample and one log line per call.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, tool ToolMeta, input json.RawMessage) (any, error) {
		ctx, span := m.tel.Tracer.StartTool(ctx, tool)
		start := m.now()

		result, err := fn(ctx, tool, input)

		duration := m.now().Sub(start)
		m.tel.Metrics.RecordTool(ctx, tool, duration, err)

		log := m.tel.Logger.With(Field{Key: "tool", Value: tool.Name})
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
			{Key: "input_bytes", Value: len(input)},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			log.Error(ctx, "tool call failed", fields...)
		} else {
			log.Info(ctx, "tool call completed", fields...)
		}

		m.tel.Tracer.EndSpan(span, err)
		return result, err
	}
}

// MiddlewareFromObserver creates a Middleware on the observer's providers.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	tel, err := TelemetryFromObserver(obs)
	if err != nil {
		return nil, err
	}
	return NewMiddleware(tel), nil
}
