package query

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/domquery/cache"
	"github.com/jonwraymond/domquery/dom"
	"github.com/jonwraymond/domquery/observe"
)

// Engine evaluates queries against documents through a result cache.
//
// Contract:
//   - Concurrency: safe for concurrent use. Without dedupe, identical
//     concurrent misses each evaluate and the last write wins.
//   - Context: ctx is passed to every document call.
//   - Errors: ErrInvalidArgument for bad params, ErrEvaluation for runtime
//     failures. Failed queries are never cached.
//   - Ownership: the returned Result belongs to the caller.
type Engine struct {
	cache  cache.Cache
	tel    observe.Telemetry
	now    func() time.Time
	dedupe bool

	flights   singleflight.Group
	flightKey cache.Keyer
}

// Option configures an Engine.
type Option func(*Engine)

// WithTelemetry sets the tracer, metrics and logger the engine reports through.
func WithTelemetry(tel observe.Telemetry) Option {
	return func(e *Engine) {
		e.tel = tel
	}
}

// WithClock overrides the time source used for cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithDedupe makes concurrent identical misses share one evaluation.
func WithDedupe(enabled bool) Option {
	return func(e *Engine) {
		e.dedupe = enabled
	}
}

// New creates an engine backed by c. A nil cache disables caching.
func New(c cache.Cache, opts ...Option) *Engine {
	e := &Engine{
		cache:     c,
		now:       time.Now,
		flightKey: cache.NewDelimitedKeyer(true),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tel = e.tel.OrNop()
	return e
}

// Query runs params against doc.
func (e *Engine) Query(ctx context.Context, doc dom.Document, params Params) (res *Result, err error) {
	start := e.now()
	meta := observe.QueryMeta{Mode: string(params.Mode())}

	ctx, span := e.tel.Tracer.StartQuery(ctx, meta)
	defer func() {
		outcome := observe.QueryOutcome{Duration: e.now().Sub(start), Err: err}
		if res != nil {
			outcome.FromCache = res.FromCache
			outcome.Returned = res.ReturnedCount
		}
		e.tel.Metrics.RecordQuery(ctx, meta, outcome)
		e.logOutcome(ctx, meta, outcome)
		e.tel.Tracer.EndSpan(span, err)
	}()

	p, err := params.Normalize()
	if err != nil {
		return nil, err
	}

	page, err := doc.URL(ctx)
	if err != nil {
		return nil, evaluationError(err)
	}
	meta.Page = page
	span.SetAttributes(attribute.String("page.url", page))

	shape := p.Shape()
	store := e.cache != nil && !p.NoCache

	if store && !p.ForceRefresh {
		if listing, ok := e.lookup(ctx, page, shape); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return e.annotate(listing, true), nil
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	listing, err := e.evaluate(ctx, doc, page, p, store)
	if err != nil {
		return nil, err
	}
	return e.annotate(listing, false), nil
}

// lookup reads a cached listing. An undecodable payload counts as a miss.
func (e *Engine) lookup(ctx context.Context, page string, shape cache.Shape) (*Listing, bool) {
	data, ok := e.cache.Get(ctx, page, shape)
	if !ok {
		return nil, false
	}
	var listing Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		e.tel.Logger.Warn(ctx, "discarding undecodable cache entry",
			observe.Field{Key: "page", Value: page},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return nil, false
	}
	return &listing, true
}

func (e *Engine) annotate(listing *Listing, fromCache bool) *Result {
	res := &Result{Listing: *listing, FromCache: fromCache}
	if fromCache {
		ts := e.now()
		res.CacheTimestamp = &ts
	}
	return res
}

// evaluate computes a listing, sharing in-flight work when dedupe is on.
func (e *Engine) evaluate(ctx context.Context, doc dom.Document, page string, p Params, store bool) (*Listing, error) {
	if !e.dedupe {
		return e.compute(ctx, doc, page, p, store)
	}

	key := e.flightKey.Key(page, p.Shape()) + cache.KeySeparator + strconv.FormatBool(store)
	v, err, shared := e.flights.Do(key, func() (any, error) {
		return e.compute(ctx, doc, page, p, store)
	})
	if err != nil {
		return nil, err
	}
	listing := v.(*Listing)
	if shared {
		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("query.shared", true))
		cp := *listing
		cp.Elements = slices.Clone(listing.Elements)
		listing = &cp
	}
	return listing, nil
}

func (e *Engine) compute(ctx context.Context, doc dom.Document, page string, p Params, store bool) (*Listing, error) {
	viewport, err := doc.Viewport(ctx)
	if err != nil {
		return nil, evaluationError(err)
	}

	var (
		nodes  []dom.Node
		scores []int
	)
	switch p.Mode() {
	case ModeSelector:
		nodes, err = doc.QuerySelectorAll(ctx, p.Selector)
		if err != nil {
			return nil, evaluationError(err)
		}
	case ModeSearch:
		all, err := doc.Elements(ctx)
		if err != nil {
			return nil, evaluationError(err)
		}
		matches := rank(all, p.SearchText)
		nodes = make([]dom.Node, len(matches))
		scores = make([]int, len(matches))
		for i, m := range matches {
			nodes[i] = m.node
			scores[i] = m.score
		}
	}

	total := len(nodes)
	from := min(p.Offset, total)
	to := min(from+p.Limit, total)
	window := nodes[from:to]

	var refs []string
	if len(window) > 0 {
		ids := make([]int, len(window))
		for i, n := range window {
			ids[i] = n.ID
		}
		refs, err = doc.Tag(ctx, ids)
		if err != nil {
			return nil, evaluationError(err)
		}
		if len(refs) != len(ids) {
			return nil, evaluationError(fmt.Errorf("tagged %d of %d elements", len(refs), len(ids)))
		}
	}

	elements := make([]Element, len(window))
	for i, n := range window {
		el := Element{
			Index:       from + i,
			TagName:     strings.ToLower(n.TagName),
			TextContent: truncate(strings.TrimSpace(n.Text), p.MaxTextLength),
			IsVisible:   n.Rect.HasArea() && n.Rect.Intersects(viewport),
			Position:    n.Rect,
			Ref:         refs[i],
		}
		if !p.OmitAttributes && len(n.Attributes) > 0 {
			el.Attributes = n.Attributes
		}
		if scores != nil {
			score := scores[from+i]
			el.RelevanceScore = &score
		}
		elements[i] = el
	}

	listing := &Listing{
		TotalCount:    total,
		Offset:        p.Offset,
		Limit:         p.Limit,
		ReturnedCount: len(elements),
		HasMore:       to < total,
		Elements:      elements,
	}

	if store {
		e.store(ctx, page, p.Shape(), listing)
	}
	return listing, nil
}

func (e *Engine) store(ctx context.Context, page string, shape cache.Shape, listing *Listing) {
	data, err := json.Marshal(listing)
	if err == nil {
		err = e.cache.Set(ctx, page, shape, data)
	}
	if err != nil {
		e.tel.Logger.Warn(ctx, "query result not cached",
			observe.Field{Key: "page", Value: page},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
}

func (e *Engine) logOutcome(ctx context.Context, meta observe.QueryMeta, o observe.QueryOutcome) {
	fields := []observe.Field{
		{Key: "mode", Value: meta.Mode},
		{Key: "page", Value: meta.Page},
		{Key: "duration_ms", Value: float64(o.Duration.Microseconds()) / 1000},
	}
	if o.Err != nil {
		fields = append(fields, observe.Field{Key: "error", Value: o.Err.Error()})
		e.tel.Logger.Debug(ctx, "query failed", fields...)
		return
	}
	fields = append(fields,
		observe.Field{Key: "from_cache", Value: o.FromCache},
		observe.Field{Key: "returned", Value: o.Returned},
	)
	e.tel.Logger.Debug(ctx, "query completed", fields...)
}

func evaluationError(err error) error {
	return fmt.Errorf("%w: %w", ErrEvaluation, err)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
