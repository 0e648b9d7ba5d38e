package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ToolMeta describes a tool exposed to the dispatch layer.
type ToolMeta struct {
	Name    string   // Tool name (required)
	Version string   // Tool version (optional)
	Tags    []string // Tool tags (optional)
}

// SpanName returns the span name for a call of this tool.
// Format: tool.call.<name>
func (m ToolMeta) SpanName() string {
	return "tool.call." + m.Name
}

// QueryMeta describes one DOM query.
type QueryMeta struct {
	Mode string // selector|search
	Page string // page identity, empty until resolved
}

// SpanName returns the span name for the query.
// Format: dom.query.<mode>
func (m QueryMeta) SpanName() string {
	return "dom.query." + m.Mode
}

// Tracer wraps OpenTelemetry tracing with tool and query spans.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartTool starts a span for a tool call.
	StartTool(ctx context.Context, meta ToolMeta) (context.Context, trace.Span)

	// StartQuery starts a span for a query.
	StartQuery(ctx context.Context, meta QueryMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartTool(ctx context.Context, meta ToolMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("tool.name", meta.Name),
		attribute.Bool("tool.error", false),
	}
	if meta.Version != "" {
		attrs = append(attrs, attribute.String("tool.version", meta.Version))
	}
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("tool.tags", meta.Tags))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

func (t *tracerImpl) StartQuery(ctx context.Context, meta QueryMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("query.mode", meta.Mode),
	}
	if meta.Page != "" {
		attrs = append(attrs, attribute.String("page.url", meta.Page))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("tool.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopTracer returns a tracer whose spans record nothing.
func NopTracer() Tracer {
	return NewTracer(tracenoop.NewTracerProvider().Tracer("noop"))
}
