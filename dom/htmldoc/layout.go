package htmldoc

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jonwraymond/domquery/dom"
)

// LayoutFunc computes the box of n, the index-th element in document order.
type LayoutFunc func(n *html.Node, index int) dom.Rect

// nonRendered elements never produce a box.
var nonRendered = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Title:    true,
	atom.Meta:     true,
	atom.Link:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
	atom.Noscript: true,
	atom.Base:     true,
}

// StackedLayout gives each rendered element a full-width line box of
// lineHeight pixels at index*lineHeight, so elements deep in a long document
// fall below the viewport.
func StackedLayout(lineHeight float64) LayoutFunc {
	return func(n *html.Node, index int) dom.Rect {
		if r, ok := explicitRect(n); ok {
			return r
		}
		if hidden(n) {
			return dom.Rect{}
		}
		return dom.Rect{
			Top:    float64(index) * lineHeight,
			Width:  DefaultViewportWidth,
			Height: lineHeight,
		}
	}
}

// explicitRect parses data-rect="top,left,width,height".
func explicitRect(n *html.Node) (dom.Rect, bool) {
	raw, ok := attr(n, "data-rect")
	if !ok {
		return dom.Rect{}, false
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return dom.Rect{}, false
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return dom.Rect{}, false
		}
		v[i] = f
	}
	return dom.Rect{Top: v[0], Left: v[1], Width: v[2], Height: v[3]}, true
}

// hidden reports whether n or an ancestor is not rendered.
func hidden(n *html.Node) bool {
	for p := n; p != nil && p.Type == html.ElementNode; p = p.Parent {
		if nonRendered[p.DataAtom] {
			return true
		}
		if _, ok := attr(p, "hidden"); ok {
			return true
		}
		if p.DataAtom == atom.Input {
			if t, _ := attr(p, "type"); strings.EqualFold(t, "hidden") {
				return true
			}
		}
		if style, ok := attr(p, "style"); ok {
			s := strings.ReplaceAll(strings.ToLower(style), " ", "")
			if strings.Contains(s, "display:none") || strings.Contains(s, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
