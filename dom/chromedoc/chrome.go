package chromedoc

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// Chrome evaluates scripts in the tab bound to a chromedp context.
type Chrome struct {
	tab context.Context
}

// NewChrome wraps a context created by chromedp.NewContext.
func NewChrome(tab context.Context) *Chrome {
	return &Chrome{tab: tab}
}

// Evaluate runs expression and returns its value as JSON. Canceling ctx
// aborts the call without closing the tab.
func (c *Chrome) Evaluate(ctx context.Context, expression string) ([]byte, error) {
	runCtx, cancel := context.WithCancel(c.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var raw []byte
	if err := chromedp.Run(runCtx, chromedp.Evaluate(expression, &raw)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return raw, nil
}

// Open starts a headless browser, navigates to url and returns the document.
// The returned cancel closes the browser.
func Open(ctx context.Context, url string, opts ...chromedp.ExecAllocatorOption) (*Document, context.CancelFunc, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], opts...)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tab, cancelTab := chromedp.NewContext(allocCtx)

	cancel := func() {
		cancelTab()
		cancelAlloc()
	}

	if err := chromedp.Run(tab, chromedp.Navigate(url)); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("chromedoc: navigate %s: %w", url, err)
	}
	return New(NewChrome(tab)), cancel, nil
}

var _ Evaluator = (*Chrome)(nil)
