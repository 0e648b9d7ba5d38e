// Package htmldoc implements dom.Document over static HTML.
//
// It serves offline snapshots, the CLI and tests. Selectors are matched with
// cascadia. Static HTML has no layout engine, so boxes come from an
// approximation: an explicit data-rect="top,left,width,height" attribute
// wins, hidden elements get an empty box, and every other element occupies one
// line box stacked in document order.
package htmldoc
