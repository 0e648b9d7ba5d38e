package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// KeySeparator joins key fields. It cannot appear in a URL or in CSS, which
// keeps distinct shapes from concatenating to the same key.
const KeySeparator = "\x1f"

// Keyer derives cache keys from a page identity and a query shape.
//
// Contract:
// - Determinism: same inputs must produce same key.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(page string, shape Shape) string
}

// DelimitedKeyer joins page, selector, search text, offset and limit.
type DelimitedKeyer struct {
	// Strict appends includeAttributes and maxTextLength.
	Strict bool
}

// NewDelimitedKeyer creates a keyer.
func NewDelimitedKeyer(strict bool) *DelimitedKeyer {
	return &DelimitedKeyer{Strict: strict}
}

// Key returns the delimited key.
// Format: page␟selector␟searchText␟offset␟limit[␟attrs␟maxText]
func (k *DelimitedKeyer) Key(page string, shape Shape) string {
	var b strings.Builder
	b.Grow(len(page) + len(shape.Selector) + len(shape.SearchText) + 16)

	b.WriteString(page)
	b.WriteString(KeySeparator)
	b.WriteString(shape.Selector)
	b.WriteString(KeySeparator)
	b.WriteString(shape.SearchText)
	b.WriteString(KeySeparator)
	b.WriteString(strconv.Itoa(shape.Offset))
	b.WriteString(KeySeparator)
	b.WriteString(strconv.Itoa(shape.Limit))

	if k.Strict {
		b.WriteString(KeySeparator)
		b.WriteString(strconv.FormatBool(shape.IncludeAttributes))
		b.WriteString(KeySeparator)
		b.WriteString(strconv.Itoa(shape.MaxTextLength))
	}

	return b.String()
}

// HashedKeyer reduces another keyer's output to a fixed-length digest.
// Useful when page identities are long data: or blob: URLs.
type HashedKeyer struct {
	inner Keyer
}

// NewHashedKeyer wraps inner. A nil inner uses a non-strict DelimitedKeyer.
func NewHashedKeyer(inner Keyer) *HashedKeyer {
	if inner == nil {
		inner = NewDelimitedKeyer(false)
	}
	return &HashedKeyer{inner: inner}
}

// Key returns query:<hash> where hash is the first 16 hex characters of
// SHA-256 of the inner key.
func (k *HashedKeyer) Key(page string, shape Shape) string {
	sum := sha256.Sum256([]byte(k.inner.Key(page, shape)))
	return "query:" + hex.EncodeToString(sum[:8])
}

var (
	_ Keyer = (*DelimitedKeyer)(nil)
	_ Keyer = (*HashedKeyer)(nil)
)
