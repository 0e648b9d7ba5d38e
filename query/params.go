package query

import (
	"fmt"

	"github.com/jonwraymond/domquery/cache"
)

// Parameter defaults and limits.
const (
	DefaultLimit         = 20
	MaxLimit             = 100
	DefaultMaxTextLength = 500
)

// Mode names the retrieval strategy.
type Mode string

const (
	ModeSelector Mode = "selector"
	ModeSearch   Mode = "search"
)

// Params describes one query. The zero value of every option is its
// default: limit 20, offset 0, attributes included, text cut at 500
// characters, cache used.
type Params struct {
	// Selector is a CSS selector. Exactly one of Selector and SearchText is required.
	Selector string

	// SearchText is matched case-insensitively against direct text and attribute values.
	SearchText string

	// Limit is the page size, capped at MaxLimit. Zero means DefaultLimit.
	Limit int

	// Offset skips that many results.
	Offset int

	// MaxTextLength truncates each element's text. Zero means DefaultMaxTextLength.
	MaxTextLength int

	// OmitAttributes drops attribute maps from the result.
	OmitAttributes bool

	// NoCache bypasses the cache for both reading and writing.
	NoCache bool

	// ForceRefresh skips the cache read but stores the fresh result.
	ForceRefresh bool
}

// Mode returns the strategy the params select.
func (p Params) Mode() Mode {
	if p.Selector != "" {
		return ModeSelector
	}
	return ModeSearch
}

// Normalize validates p and applies defaults.
func (p Params) Normalize() (Params, error) {
	switch {
	case p.Selector == "" && p.SearchText == "":
		return p, fmt.Errorf("%w: selector or searchText is required", ErrInvalidArgument)
	case p.Selector != "" && p.SearchText != "":
		return p, fmt.Errorf("%w: selector and searchText are mutually exclusive", ErrInvalidArgument)
	case p.Limit < 0:
		return p, fmt.Errorf("%w: limit must not be negative, got %d", ErrInvalidArgument, p.Limit)
	case p.Offset < 0:
		return p, fmt.Errorf("%w: offset must not be negative, got %d", ErrInvalidArgument, p.Offset)
	case p.MaxTextLength < 0:
		return p, fmt.Errorf("%w: maxTextLength must not be negative, got %d", ErrInvalidArgument, p.MaxTextLength)
	}

	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.MaxTextLength == 0 {
		p.MaxTextLength = DefaultMaxTextLength
	}
	return p, nil
}

// Shape returns the cache shape of normalized params.
func (p Params) Shape() cache.Shape {
	return cache.Shape{
		Selector:          p.Selector,
		SearchText:        p.SearchText,
		Offset:            p.Offset,
		Limit:             p.Limit,
		IncludeAttributes: !p.OmitAttributes,
		MaxTextLength:     p.MaxTextLength,
	}
}
