package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jonwraymond/domquery/cache"
	"github.com/jonwraymond/domquery/observe"
	"github.com/jonwraymond/domquery/query"
)

// Tool names.
const (
	QueryDOM    = "query_dom"
	ClearCache  = "clear_cache"
	CacheStatus = "cache_status"
)

// Handler runs one tool call.
type Handler func(ctx context.Context, input json.RawMessage) (any, error)

// Tool is a named handler with its metadata.
type Tool struct {
	Meta        observe.ToolMeta
	Description string
	Handler     Handler `json:"-"`
}

// Store is the cache the tools manage.
type Store interface {
	cache.Cache
	Stats() cache.Stats
}

// QueryInput is the argument object of query_dom. Omitted fields take the
// engine defaults; includeAttributes and useCache default to true.
type QueryInput struct {
	Selector          string `json:"selector,omitempty"`
	SearchText        string `json:"searchText,omitempty"`
	Limit             int    `json:"limit,omitempty"`
	Offset            int    `json:"offset,omitempty"`
	IncludeAttributes *bool  `json:"includeAttributes,omitempty"`
	MaxTextLength     int    `json:"maxTextLength,omitempty"`
	UseCache          *bool  `json:"useCache,omitempty"`
	ForceRefresh      bool   `json:"forceRefresh,omitempty"`
}

// Params converts the input to engine parameters.
func (in QueryInput) Params() query.Params {
	return query.Params{
		Selector:       in.Selector,
		SearchText:     in.SearchText,
		Limit:          in.Limit,
		Offset:         in.Offset,
		MaxTextLength:  in.MaxTextLength,
		OmitAttributes: in.IncludeAttributes != nil && !*in.IncludeAttributes,
		NoCache:        in.UseCache != nil && !*in.UseCache,
		ForceRefresh:   in.ForceRefresh,
	}
}

// ClearInput is the argument object of clear_cache. URL wins over
// OlderThanSeconds; with neither, the whole cache is cleared.
type ClearInput struct {
	URL              string   `json:"url,omitempty"`
	OlderThanSeconds *float64 `json:"olderThanSeconds,omitempty"`
}

// ClearOutput reports what clear_cache removed.
type ClearOutput struct {
	Cleared   int `json:"cleared"`
	Remaining int `json:"remaining"`
}

// StatusOutput is the result of cache_status. Size includes expired entries
// not yet removed by a read.
type StatusOutput struct {
	Size        int    `json:"size"`
	MaxEntries  int    `json:"maxEntries"`
	MaxAgeMs    int64  `json:"maxAgeMs"`
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Expirations uint64 `json:"expirations"`
	Evictions   uint64 `json:"evictions"`
}

// decode reads input into v. Empty input is an empty object.
func decode(input json.RawMessage, v any) error {
	if len(bytes.TrimSpace(input)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

func queryTool(engine *query.Engine, docs DocumentSource) Tool {
	return Tool{
		Meta: observe.ToolMeta{Name: QueryDOM, Tags: []string{"dom", "read"}},
		Description: "Query the current page by CSS selector or by text search. " +
			"Results are paginated and cached per page URL.",
		Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
			var in QueryInput
			if err := decode(input, &in); err != nil {
				return nil, err
			}
			doc, err := docs.Document(ctx)
			if err != nil {
				return nil, err
			}
			return engine.Query(ctx, doc, in.Params())
		},
	}
}

func clearTool(store Store) Tool {
	return Tool{
		Meta:        observe.ToolMeta{Name: ClearCache, Tags: []string{"cache", "write"}},
		Description: "Clear cached query results for a URL, older than an age, or all of them.",
		Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
			var in ClearInput
			if err := decode(input, &in); err != nil {
				return nil, err
			}

			var cleared int
			switch {
			case in.URL != "":
				cleared = store.InvalidatePage(ctx, in.URL)
			case in.OlderThanSeconds != nil:
				secs := *in.OlderThanSeconds
				if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
					return nil, fmt.Errorf("%w: olderThanSeconds must be a non-negative number", ErrInvalidInput)
				}
				cleared = store.InvalidateOlderThan(ctx, secondsToDuration(secs))
			default:
				cleared = store.Clear(ctx)
			}
			return ClearOutput{Cleared: cleared, Remaining: store.Size()}, nil
		},
	}
}

func statusTool(store Store) Tool {
	return Tool{
		Meta:        observe.ToolMeta{Name: CacheStatus, Tags: []string{"cache", "read"}},
		Description: "Report cache size, limits and hit counters.",
		Handler: func(_ context.Context, input json.RawMessage) (any, error) {
			var in struct{}
			if err := decode(input, &in); err != nil {
				return nil, err
			}
			s := store.Stats()
			return StatusOutput{
				Size:        s.Size,
				MaxEntries:  s.MaxEntries,
				MaxAgeMs:    s.MaxAge.Milliseconds(),
				Hits:        s.Hits,
				Misses:      s.Misses,
				Expirations: s.Expirations,
				Evictions:   s.Evictions,
			}, nil
		},
	}
}

// secondsToDuration converts secs, saturating at the largest Duration.
func secondsToDuration(secs float64) time.Duration {
	ns := secs * float64(time.Second)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}
