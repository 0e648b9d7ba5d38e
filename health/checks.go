package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/domquery/cache"
	"github.com/jonwraymond/domquery/dom"
)

// StatsSource reports cache counters.
type StatsSource interface {
	Stats() cache.Stats
}

// CacheChecker reports result cache occupancy. A full cache is degraded:
// every new result now evicts a live one.
type CacheChecker struct {
	cache StatsSource
}

// NewCacheChecker creates a checker over c.
func NewCacheChecker(c StatsSource) *CacheChecker {
	return &CacheChecker{cache: c}
}

// Name returns "cache".
func (c *CacheChecker) Name() string {
	return "cache"
}

// Check reads the cache counters.
func (c *CacheChecker) Check(context.Context) Result {
	s := c.cache.Stats()
	details := map[string]any{
		"size":        s.Size,
		"max_entries": s.MaxEntries,
		"max_age":     s.MaxAge.String(),
		"hits":        s.Hits,
		"misses":      s.Misses,
		"expirations": s.Expirations,
		"evictions":   s.Evictions,
	}

	if s.MaxEntries > 0 && s.Size >= s.MaxEntries {
		return Degraded(fmt.Sprintf("cache full at %d entries", s.Size)).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d of %d entries", s.Size, s.MaxEntries)).WithDetails(details)
}

// DocumentFunc returns the document queries currently run against.
type DocumentFunc func(ctx context.Context) (dom.Document, error)

// DocumentChecker verifies the current document still answers.
type DocumentChecker struct {
	current DocumentFunc
}

// NewDocumentChecker creates a checker over current.
func NewDocumentChecker(current DocumentFunc) *DocumentChecker {
	return &DocumentChecker{current: current}
}

// Name returns "document".
func (c *DocumentChecker) Name() string {
	return "document"
}

// Check resolves the document and reads its URL.
func (c *DocumentChecker) Check(ctx context.Context) Result {
	doc, err := c.current(ctx)
	if err != nil {
		return Unhealthy("no document", err)
	}
	if doc == nil {
		return Unhealthy("no document", ErrNoDocument)
	}

	url, err := doc.URL(ctx)
	if err != nil {
		return Unhealthy("document unreachable", err)
	}
	return Healthy("document attached").WithDetails(map[string]any{"url": url})
}
