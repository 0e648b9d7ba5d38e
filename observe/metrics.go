package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// QueryOutcome is what a finished query reports.
type QueryOutcome struct {
	Duration  time.Duration
	FromCache bool
	Returned  int
	Err       error
}

// Metrics records tool and query metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordTool records a tool call with duration and error status.
	RecordTool(ctx context.Context, meta ToolMeta, duration time.Duration, err error)

	// RecordQuery records a finished query.
	RecordQuery(ctx context.Context, meta QueryMeta, outcome QueryOutcome)
}

type metricsImpl struct {
	toolCalls    metric.Int64Counter
	toolErrors   metric.Int64Counter
	toolDuration metric.Float64Histogram

	queries       metric.Int64Counter
	queryErrors   metric.Int64Counter
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	queryDuration metric.Float64Histogram
	returned      metric.Int64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &metricsImpl{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.toolCalls, "domquery.tool.calls", "Total number of tool calls", "{call}"},
		{&m.toolErrors, "domquery.tool.errors", "Total number of failed tool calls", "{error}"},
		{&m.queries, "domquery.query.total", "Total number of DOM queries", "{query}"},
		{&m.queryErrors, "domquery.query.errors", "Total number of failed DOM queries", "{error}"},
		{&m.cacheHits, "domquery.cache.hits", "Queries served from the result cache", "{query}"},
		{&m.cacheMisses, "domquery.cache.misses", "Queries evaluated against the document", "{query}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
	}

	m.toolDuration, err = meter.Float64Histogram(
		"domquery.tool.duration_ms",
		metric.WithDescription("Tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	m.queryDuration, err = meter.Float64Histogram(
		"domquery.query.duration_ms",
		metric.WithDescription("DOM query duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	m.returned, err = meter.Int64Histogram(
		"domquery.query.returned",
		metric.WithDescription("Elements returned per query"),
		metric.WithUnit("{element}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordTool(ctx context.Context, meta ToolMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("tool.name", meta.Name))

	m.toolCalls.Add(ctx, 1, opt)
	if err != nil {
		m.toolErrors.Add(ctx, 1, opt)
	}
	m.toolDuration.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordQuery(ctx context.Context, meta QueryMeta, outcome QueryOutcome) {
	// Page URLs are unbounded; only the mode is a metric dimension.
	opt := metric.WithAttributes(attribute.String("query.mode", meta.Mode))

	m.queries.Add(ctx, 1, opt)
	m.queryDuration.Record(ctx, float64(outcome.Duration.Microseconds())/1000, opt)

	if outcome.Err != nil {
		m.queryErrors.Add(ctx, 1, opt)
		return
	}
	if outcome.FromCache {
		m.cacheHits.Add(ctx, 1, opt)
	} else {
		m.cacheMisses.Add(ctx, 1, opt)
	}
	m.returned.Record(ctx, int64(outcome.Returned), opt)
}

// ObserveCacheSize registers an asynchronous gauge reporting size().
func ObserveCacheSize(meter metric.Meter, size func() int) (metric.Registration, error) {
	gauge, err := meter.Int64ObservableGauge(
		"domquery.cache.entries",
		metric.WithDescription("Entries held by the result cache, including stale ones"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(gauge, int64(size()))
		return nil
	}, gauge)
}

type nopMetrics struct{}

// NopMetrics returns metrics that record nothing.
func NopMetrics() Metrics {
	return nopMetrics{}
}

func (nopMetrics) RecordTool(context.Context, ToolMeta, time.Duration, error) {}
func (nopMetrics) RecordQuery(context.Context, QueryMeta, QueryOutcome)       {}
