package tools

import (
	"context"
	"sync"

	"github.com/jonwraymond/domquery/dom"
)

// DocumentSource supplies the document a call runs against.
type DocumentSource interface {
	Document(ctx context.Context) (dom.Document, error)
}

// DocumentSourceFunc adapts a function to DocumentSource.
type DocumentSourceFunc func(ctx context.Context) (dom.Document, error)

// Document calls f.
func (f DocumentSourceFunc) Document(ctx context.Context) (dom.Document, error) {
	return f(ctx)
}

// CurrentDocument holds a swappable document, for callers that navigate.
type CurrentDocument struct {
	mu  sync.RWMutex
	doc dom.Document
}

// NewCurrentDocument returns a holder for doc, which may be nil.
func NewCurrentDocument(doc dom.Document) *CurrentDocument {
	return &CurrentDocument{doc: doc}
}

// Set replaces the document.
func (c *CurrentDocument) Set(doc dom.Document) {
	c.mu.Lock()
	c.doc = doc
	c.mu.Unlock()
}

// Document returns the held document or ErrNoDocument.
func (c *CurrentDocument) Document(context.Context) (dom.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.doc == nil {
		return nil, ErrNoDocument
	}
	return c.doc, nil
}
