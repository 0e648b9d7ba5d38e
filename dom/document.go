package dom

import (
	"context"
	"errors"
)

// ErrDetached indicates the document can no longer be evaluated, for example
// after its tab was closed.
var ErrDetached = errors.New("dom: document is detached")

// Document is a live document the engine queries.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Context: every method is a handoff to the page runtime and must honor
//     cancellation.
//   - Ordering: QuerySelectorAll and Elements return nodes in document order.
//   - Identity: Node.ID stays valid for Tag until the document changes;
//     after that Tag reports ErrDetached for it.
type Document interface {
	// URL returns the page identity results are scoped to.
	URL(ctx context.Context) (string, error)

	// Viewport returns the visible rectangle in the same coordinates as Node.Rect.
	Viewport(ctx context.Context) (Rect, error)

	// QuerySelectorAll returns every element matching selector. Invalid
	// selector syntax is an error.
	QuerySelectorAll(ctx context.Context, selector string) ([]Node, error)

	// Elements returns every element in the document.
	Elements(ctx context.Context) ([]Node, error)

	// Tag assigns reference tags to the given nodes, reusing any tag a node
	// already carries. The result is parallel to ids.
	Tag(ctx context.Context, ids []int) ([]string, error)
}

// Node is element data returned by the runtime.
type Node struct {
	ID         int        `json:"id"`
	TagName    string     `json:"tagName"`
	Text       string     `json:"text"`
	DirectText string     `json:"directText"`
	Attributes Attributes `json:"attributes"`
	Rect       Rect       `json:"rect"`
}

// Rect is a bounding box in CSS pixels.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// HasArea reports whether the box has non-zero width and height.
func (r Rect) HasArea() bool {
	return r.Width > 0 && r.Height > 0
}

// Intersects reports whether r and o overlap with positive area.
func (r Rect) Intersects(o Rect) bool {
	return r.Left < o.Left+o.Width &&
		o.Left < r.Left+r.Width &&
		r.Top < o.Top+o.Height &&
		o.Top < r.Top+r.Height
}
