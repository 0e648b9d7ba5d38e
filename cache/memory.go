package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// MemoryCache is an in-memory cache implementation.
//
// Entries live in an LRU list where only Set counts as use: Get peeks and
// never reorders. The list tail is therefore always the oldest entry, so
// capacity eviction and age sweeps need no scan.
type MemoryCache struct {
	mu      sync.Mutex
	entries *simplelru.LRU[string, *Entry]
	policy  Policy
	keyer   Keyer
	hashed  Keyer
	now     func() time.Time

	hits        uint64
	misses      uint64
	expirations uint64
	evictions   uint64
}

// Option configures a MemoryCache.
type Option func(*MemoryCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithKeyer overrides key derivation.
func WithKeyer(k Keyer) Option {
	return func(c *MemoryCache) {
		if k != nil {
			c.keyer = k
		}
	}
}

// NewMemoryCache creates a new in-memory cache with the given policy.
func NewMemoryCache(policy Policy, opts ...Option) *MemoryCache {
	policy = policy.withDefaults()

	c := &MemoryCache{
		policy: policy,
		keyer:  NewDelimitedKeyer(policy.StrictKeys),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.hashed = NewHashedKeyer(c.keyer)

	// NewLRU only fails for a non-positive size, which withDefaults rules out.
	c.entries, _ = simplelru.NewLRU[string, *Entry](policy.MaxEntries, nil)
	return c
}

// Policy returns the effective policy.
func (c *MemoryCache) Policy() Policy {
	return c.policy
}

func (c *MemoryCache) key(page string, shape Shape) string {
	key := c.keyer.Key(page, shape)
	if ValidateKey(key) != nil {
		return c.hashed.Key(page, shape)
	}
	return key
}

// Get retrieves a value from the cache. Returns (nil, false) on miss or expiry.
func (c *MemoryCache) Get(_ context.Context, page string, shape Shape) ([]byte, bool) {
	key := c.key(page, shape)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Peek(key)
	if !ok {
		c.misses++
		return nil, false
	}

	if c.policy.Expired(entry.CreatedAt, c.now()) {
		c.entries.Remove(key)
		c.expirations++
		c.misses++
		return nil, false
	}

	c.hits++
	return entry.Value, true
}

// Set stores value under page and shape. A new key at capacity evicts the
// oldest entry first; an existing key is overwritten with a fresh timestamp.
func (c *MemoryCache) Set(_ context.Context, page string, shape Shape, value []byte) error {
	key := c.key(page, shape)

	c.mu.Lock()
	defer c.mu.Unlock()

	// CreatedAt is read under mu: the LRU tail is the oldest entry.
	entry := &Entry{
		Value:      value,
		CreatedAt:  c.now(),
		Page:       page,
		Selector:   shape.Selector,
		SearchText: shape.SearchText,
	}
	if c.entries.Add(key, entry) {
		c.evictions++
	}

	return nil
}

// InvalidatePage removes every entry whose page identity equals page.
func (c *MemoryCache) InvalidatePage(_ context.Context, page string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range c.entries.Keys() {
		entry, ok := c.entries.Peek(key)
		if ok && entry.Page == page {
			c.entries.Remove(key)
			removed++
		}
	}
	return removed
}

// Clear removes every entry. Calling it on an empty cache is a no-op.
func (c *MemoryCache) Clear(_ context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.entries.Len()
	c.entries.Purge()
	return n
}

// InvalidateOlderThan removes entries whose age exceeds age, regardless of
// the policy's MaxAge.
func (c *MemoryCache) InvalidateOlderThan(_ context.Context, age time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for {
		key, entry, ok := c.entries.GetOldest()
		if !ok || entry.Age(now) <= age {
			return removed
		}
		c.entries.Remove(key)
		removed++
	}
}

// Size returns the number of stored entries, stale ones included.
func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Size        int
	MaxEntries  int
	MaxAge      time.Duration
	Hits        uint64
	Misses      uint64
	Expirations uint64
	Evictions   uint64
}

// Stats returns current counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Size:        c.entries.Len(),
		MaxEntries:  c.policy.MaxEntries,
		MaxAge:      c.policy.MaxAge,
		Hits:        c.hits,
		Misses:      c.misses,
		Expirations: c.expirations,
		Evictions:   c.evictions,
	}
}

// Ensure MemoryCache implements Cache
var _ Cache = (*MemoryCache)(nil)
