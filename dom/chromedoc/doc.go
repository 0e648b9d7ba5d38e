// Package chromedoc implements dom.Document over a live Chrome tab.
//
// Every operation is a single evaluate(script) round trip through an
// Evaluator. The page keeps a small registry on window.__domquery mapping
// elements to numeric IDs (weakly held, so it never pins detached nodes) and
// reference tags, which are written to the data-domquery-ref attribute and
// reused across calls.
package chromedoc
