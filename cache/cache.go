package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 4096

// Sentinel errors for cache operations.
var (
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Shape is the part of a query that selects a cache slot.
type Shape struct {
	Selector   string
	SearchText string
	Offset     int
	Limit      int

	// IncludeAttributes and MaxTextLength only reach the key under
	// Policy.StrictKeys.
	IncludeAttributes bool
	MaxTextLength     int
}

// Entry is a stored query result.
type Entry struct {
	Value      []byte
	CreatedAt  time.Time
	Page       string
	Selector   string
	SearchText string
}

// Age returns how old the entry is at now.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// Cache is the interface the query engine uses to store results.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: no operation fails; a missing or expired entry is a miss.
// - Ownership: values are returned as stored; callers must not mutate them.
type Cache interface {
	// Get returns the payload stored for page and shape. Returns (nil, false)
	// on miss or expiry; an expired entry is removed.
	Get(ctx context.Context, page string, shape Shape) ([]byte, bool)

	// Set stores value, replacing and refreshing any entry under the same key.
	Set(ctx context.Context, page string, shape Shape, value []byte) error

	// InvalidatePage removes every entry computed against page.
	InvalidatePage(ctx context.Context, page string) int

	// Clear removes every entry.
	Clear(ctx context.Context) int

	// InvalidateOlderThan removes every entry older than age.
	InvalidateOlderThan(ctx context.Context, age time.Duration) int

	// Size returns the number of stored entries, including stale ones not yet
	// removed by a read.
	Size() int
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
