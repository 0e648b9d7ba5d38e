package htmldoc

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/jonwraymond/domquery/dom"
)

// Default viewport and line box dimensions.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultLineHeight     = 20
)

// Document is a parsed HTML page.
type Document struct {
	url      string
	viewport dom.Rect
	layout   LayoutFunc

	mu      sync.Mutex
	root    *html.Node
	nodes   []*html.Node
	index   map[*html.Node]int
	base    int
	refs    map[*html.Node]string
	nextRef int
}

// Option configures a Document.
type Option func(*Document)

// WithViewport sets the viewport size.
func WithViewport(width, height float64) Option {
	return func(d *Document) {
		d.viewport = dom.Rect{Width: width, Height: height}
	}
}

// WithLayout replaces the default layout approximation.
func WithLayout(fn LayoutFunc) Option {
	return func(d *Document) {
		if fn != nil {
			d.layout = fn
		}
	}
}

// Parse reads HTML from r. url becomes the page identity.
func Parse(url string, r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse %s: %w", url, err)
	}

	d := &Document{
		url:      url,
		viewport: dom.Rect{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
		layout:   StackedLayout(DefaultLineHeight),
		refs:     make(map[*html.Node]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.load(root)
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(url, src string, opts ...Option) (*Document, error) {
	return Parse(url, strings.NewReader(src), opts...)
}

// Navigate replaces the page, as a browser navigation would. Reference tags
// do not survive.
func (d *Document) Navigate(url string, r io.Reader) error {
	root, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("htmldoc: parse %s: %w", url, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.url = url
	d.refs = make(map[*html.Node]string)
	d.load(root)
	return nil
}

// load indexes every element in document order. IDs continue past the
// previous page's so stale ones never resolve. Callers hold mu or own d.
func (d *Document) load(root *html.Node) {
	d.root = root
	d.base += len(d.nodes)
	d.nodes = nil
	d.index = make(map[*html.Node]int)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			d.index[n] = len(d.nodes)
			d.nodes = append(d.nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

// URL returns the page identity.
func (d *Document) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

// Viewport returns the configured viewport.
func (d *Document) Viewport(ctx context.Context) (dom.Rect, error) {
	if err := ctx.Err(); err != nil {
		return dom.Rect{}, err
	}
	return d.viewport, nil
}

// QuerySelectorAll matches selector against the whole document.
func (d *Document) QuerySelectorAll(ctx context.Context, selector string) ([]dom.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: invalid selector %q: %w", selector, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	matches := sel.MatchAll(d.root)
	out := make([]dom.Node, 0, len(matches))
	for _, n := range matches {
		out = append(out, d.describe(n))
	}
	return out, nil
}

// Elements returns every element.
func (d *Document) Elements(ctx context.Context) ([]dom.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]dom.Node, 0, len(d.nodes))
	for _, n := range d.nodes {
		out = append(out, d.describe(n))
	}
	return out, nil
}

// Tag assigns e<N> tags on first use and returns existing ones after.
func (d *Document) Tag(ctx context.Context, ids []int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	refs := make([]string, len(ids))
	for i, id := range ids {
		idx := id - d.base
		if idx < 0 || idx >= len(d.nodes) {
			return nil, fmt.Errorf("htmldoc: unknown node %d: %w", id, dom.ErrDetached)
		}
		n := d.nodes[idx]
		ref, ok := d.refs[n]
		if !ok {
			d.nextRef++
			ref = fmt.Sprintf("e%d", d.nextRef)
			d.refs[n] = ref
		}
		refs[i] = ref
	}
	return refs, nil
}

func (d *Document) describe(n *html.Node) dom.Node {
	attrs := make(dom.Attributes, 0, len(n.Attr))
	for _, a := range n.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		attrs = append(attrs, dom.Attribute{Name: name, Value: a.Val})
	}

	idx := d.index[n]
	return dom.Node{
		ID:         d.base + idx,
		TagName:    strings.ToUpper(n.Data),
		Text:       textContent(n),
		DirectText: directText(n),
		Attributes: attrs,
		Rect:       d.layout(n, idx),
	}
}

// textContent concatenates every descendant text node.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// directText concatenates only the immediate text children.
func directText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

var _ dom.Document = (*Document)(nil)
