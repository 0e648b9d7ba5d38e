package chromedoc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonwraymond/domquery/dom"
)

// Evaluator runs a script in the page and returns its JSON-encoded value.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation.
// - Errors: script exceptions are returned as errors.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string) ([]byte, error)
}

// Document queries a page through an Evaluator.
type Document struct {
	eval Evaluator
}

// New creates a Document.
func New(eval Evaluator) *Document {
	return &Document{eval: eval}
}

func (d *Document) run(ctx context.Context, expression string, out any) error {
	raw, err := d.eval.Evaluate(ctx, expression)
	if err != nil {
		return fmt.Errorf("chromedoc: evaluate: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("chromedoc: decode result: %w", err)
	}
	return nil
}

// URL returns location.href.
func (d *Document) URL(ctx context.Context) (string, error) {
	var url string
	if err := d.run(ctx, urlScript, &url); err != nil {
		return "", err
	}
	return url, nil
}

// Viewport returns the window's inner size.
func (d *Document) Viewport(ctx context.Context) (dom.Rect, error) {
	var r dom.Rect
	if err := d.run(ctx, viewportScript, &r); err != nil {
		return dom.Rect{}, err
	}
	return r, nil
}

// QuerySelectorAll runs document.querySelectorAll.
func (d *Document) QuerySelectorAll(ctx context.Context, selector string) ([]dom.Node, error) {
	arg, err := json.Marshal(selector)
	if err != nil {
		return nil, err
	}
	var nodes []dom.Node
	if err := d.run(ctx, fmt.Sprintf(querySelectorAllScript, arg), &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Elements returns every element in the page.
func (d *Document) Elements(ctx context.Context) ([]dom.Node, error) {
	var nodes []dom.Node
	if err := d.run(ctx, elementsScript, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Tag assigns or reads back data-domquery-ref on each node.
func (d *Document) Tag(ctx context.Context, ids []int) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	arg, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}

	var tags []*string
	if err := d.run(ctx, fmt.Sprintf(tagScript, arg), &tags); err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, fmt.Errorf("chromedoc: tagged %d of %d nodes", len(tags), len(ids))
	}

	refs := make([]string, len(tags))
	for i, t := range tags {
		if t == nil {
			return nil, fmt.Errorf("chromedoc: node %d: %w", ids[i], dom.ErrDetached)
		}
		refs[i] = *t
	}
	return refs, nil
}

var _ dom.Document = (*Document)(nil)
