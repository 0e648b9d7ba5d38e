package query

import (
	"time"

	"github.com/jonwraymond/domquery/dom"
)

// Listing is one page of matches. It is the unit the cache stores.
type Listing struct {
	TotalCount    int       `json:"totalCount"`
	Offset        int       `json:"offset"`
	Limit         int       `json:"limit"`
	ReturnedCount int       `json:"returnedCount"`
	HasMore       bool      `json:"hasMore"`
	Elements      []Element `json:"elements"`
}

// Result is the query response envelope.
type Result struct {
	Listing

	// FromCache and CacheTimestamp describe how this call was served. They
	// are never stored.
	FromCache      bool       `json:"fromCache"`
	CacheTimestamp *time.Time `json:"cacheTimestamp,omitempty"`
}

// Element describes one matched element.
type Element struct {
	Index          int            `json:"index"`
	TagName        string         `json:"tagName"`
	TextContent    string         `json:"textContent"`
	IsVisible      bool           `json:"isVisible"`
	Position       dom.Rect       `json:"position"`
	Attributes     dom.Attributes `json:"attributes,omitempty"`
	RelevanceScore *int           `json:"relevanceScore,omitempty"`
	Ref            string         `json:"ref"`
}
