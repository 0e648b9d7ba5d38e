package cache

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

const testPage = "https://example.com/page"

func TestMemoryCache_GetSet(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()
	shape := Shape{Selector: "li", Limit: 20}

	val, ok := cache.Get(ctx, testPage, shape)
	if ok {
		t.Error("Get on empty cache should return ok=false")
	}
	if val != nil {
		t.Error("Get on empty cache should return nil value")
	}

	value := []byte(`{"totalCount":1}`)
	if err := cache.Set(ctx, testPage, shape, value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := cache.Get(ctx, testPage, shape)
	if !ok {
		t.Fatal("Get after Set should return ok=true")
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}

	// Same shape on another page is a different slot.
	if _, ok := cache.Get(ctx, testPage+"#other", shape); ok {
		t.Error("Get for another page should miss")
	}
}

func TestMemoryCache_RenderOptionsShareSlot(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	stored := Shape{Selector: "a", Limit: 20, IncludeAttributes: true, MaxTextLength: 500}
	probe := Shape{Selector: "a", Limit: 20, IncludeAttributes: false, MaxTextLength: 10}

	_ = cache.Set(ctx, testPage, stored, []byte("v"))
	if _, ok := cache.Get(ctx, testPage, probe); !ok {
		t.Error("shapes differing only in render options should share a slot")
	}

	strict := NewMemoryCache(Policy{StrictKeys: true})
	_ = strict.Set(ctx, testPage, stored, []byte("v"))
	if _, ok := strict.Get(ctx, testPage, probe); ok {
		t.Error("strict keys should separate render options")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{MaxAge: time.Minute}, WithClock(clock.Now))
	ctx := context.Background()
	shape := Shape{SearchText: "submit", Limit: 20}

	_ = cache.Set(ctx, testPage, shape, []byte("result"))

	clock.Advance(time.Minute - time.Millisecond)
	if _, ok := cache.Get(ctx, testPage, shape); !ok {
		t.Fatal("entry should be served just before max age")
	}

	clock.Advance(2 * time.Millisecond)
	if _, ok := cache.Get(ctx, testPage, shape); ok {
		t.Fatal("entry should be absent just after max age")
	}
	if cache.Size() != 0 {
		t.Errorf("expired entry should be removed by the read, size=%d", cache.Size())
	}

	stats := cache.Stats()
	if stats.Expirations != 1 {
		t.Errorf("Expirations = %d, want 1", stats.Expirations)
	}
}

func TestMemoryCache_SizeCountsStaleEntries(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{MaxAge: time.Second}, WithClock(clock.Now))
	ctx := context.Background()

	_ = cache.Set(ctx, testPage, Shape{Selector: "a"}, []byte("a"))
	_ = cache.Set(ctx, testPage, Shape{Selector: "b"}, []byte("b"))
	clock.Advance(time.Hour)

	if got := cache.Size(); got != 2 {
		t.Errorf("Size() = %d, want 2 (no background sweep)", got)
	}
}

func TestMemoryCache_SetOverwriteRefreshesTimestamp(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{MaxAge: time.Minute}, WithClock(clock.Now))
	ctx := context.Background()
	shape := Shape{Selector: "li", Limit: 20}

	_ = cache.Set(ctx, testPage, shape, []byte("value1"))
	clock.Advance(50 * time.Second)
	_ = cache.Set(ctx, testPage, shape, []byte("value2"))
	clock.Advance(50 * time.Second)

	got, ok := cache.Get(ctx, testPage, shape)
	if !ok {
		t.Fatal("overwritten entry should be fresh")
	}
	if string(got) != "value2" {
		t.Errorf("Get returned %q, want value2", got)
	}
	if cache.Size() != 1 {
		t.Errorf("overwrite should not add an entry, size=%d", cache.Size())
	}
}

func TestMemoryCache_CapacityEviction(t *testing.T) {
	clock := newFakeClock()
	const maxEntries = 5
	cache := NewMemoryCache(Policy{MaxEntries: maxEntries}, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < maxEntries; i++ {
		_ = cache.Set(ctx, testPage, Shape{Offset: i}, []byte(fmt.Sprint(i)))
		clock.Advance(time.Millisecond)
	}
	if cache.Size() != maxEntries {
		t.Fatalf("Size() = %d, want %d", cache.Size(), maxEntries)
	}

	// Reading the oldest entry must not protect it from eviction.
	if _, ok := cache.Get(ctx, testPage, Shape{Offset: 0}); !ok {
		t.Fatal("oldest entry should still be present")
	}

	_ = cache.Set(ctx, testPage, Shape{Offset: maxEntries}, []byte("new"))

	if cache.Size() != maxEntries {
		t.Errorf("Size() = %d, want %d", cache.Size(), maxEntries)
	}
	if _, ok := cache.Get(ctx, testPage, Shape{Offset: 0}); ok {
		t.Error("oldest entry should have been evicted")
	}
	for i := 1; i <= maxEntries; i++ {
		if _, ok := cache.Get(ctx, testPage, Shape{Offset: i}); !ok {
			t.Errorf("entry %d should survive eviction", i)
		}
	}
	if got := cache.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestMemoryCache_EvictionFollowsRefresh(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{MaxEntries: 2}, WithClock(clock.Now))
	ctx := context.Background()

	_ = cache.Set(ctx, testPage, Shape{Selector: "a"}, []byte("a"))
	clock.Advance(time.Millisecond)
	_ = cache.Set(ctx, testPage, Shape{Selector: "b"}, []byte("b"))
	clock.Advance(time.Millisecond)
	// Refreshing "a" makes "b" the oldest.
	_ = cache.Set(ctx, testPage, Shape{Selector: "a"}, []byte("a2"))
	clock.Advance(time.Millisecond)
	_ = cache.Set(ctx, testPage, Shape{Selector: "c"}, []byte("c"))

	if _, ok := cache.Get(ctx, testPage, Shape{Selector: "b"}); ok {
		t.Error("b should have been evicted as the oldest entry")
	}
	if _, ok := cache.Get(ctx, testPage, Shape{Selector: "a"}); !ok {
		t.Error("refreshed entry a should survive")
	}
}

func TestMemoryCache_CapacityEvictsFreshEntries(t *testing.T) {
	cache := NewMemoryCache(Policy{MaxEntries: 1, MaxAge: time.Hour})
	ctx := context.Background()

	_ = cache.Set(ctx, testPage, Shape{Selector: "a"}, []byte("a"))
	_ = cache.Set(ctx, testPage, Shape{Selector: "b"}, []byte("b"))

	if _, ok := cache.Get(ctx, testPage, Shape{Selector: "a"}); ok {
		t.Error("a fresh entry should still be evicted at capacity")
	}
}

func TestMemoryCache_InvalidatePage(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()
	other := "https://example.com/other"

	_ = cache.Set(ctx, testPage, Shape{Selector: "a"}, []byte("1"))
	_ = cache.Set(ctx, testPage, Shape{SearchText: "x"}, []byte("2"))
	_ = cache.Set(ctx, other, Shape{Selector: "a"}, []byte("3"))

	if n := cache.InvalidatePage(ctx, testPage); n != 2 {
		t.Errorf("InvalidatePage removed %d, want 2", n)
	}
	if _, ok := cache.Get(ctx, testPage, Shape{Selector: "a"}); ok {
		t.Error("entry for invalidated page should be gone")
	}
	if _, ok := cache.Get(ctx, testPage, Shape{SearchText: "x"}); ok {
		t.Error("entry for invalidated page should be gone")
	}
	got, ok := cache.Get(ctx, other, Shape{Selector: "a"})
	if !ok || string(got) != "3" {
		t.Errorf("entry for other page should be unchanged, got %q ok=%v", got, ok)
	}
	if n := cache.InvalidatePage(ctx, "https://never.example"); n != 0 {
		t.Errorf("InvalidatePage for unknown page removed %d", n)
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_ = cache.Set(ctx, testPage, Shape{Offset: i}, []byte("v"))
	}

	if n := cache.Clear(ctx); n != 10 {
		t.Errorf("Clear removed %d, want 10", n)
	}
	if cache.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", cache.Size())
	}
	if n := cache.Clear(ctx); n != 0 {
		t.Errorf("second Clear removed %d, want 0", n)
	}
	if cache.Size() != 0 {
		t.Errorf("Size() after second Clear = %d, want 0", cache.Size())
	}
}

func TestMemoryCache_InvalidateOlderThan(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{MaxAge: time.Hour}, WithClock(clock.Now))
	ctx := context.Background()

	_ = cache.Set(ctx, testPage, Shape{Selector: "old"}, []byte("old"))
	clock.Advance(30 * time.Second)
	_ = cache.Set(ctx, testPage, Shape{Selector: "mid"}, []byte("mid"))
	clock.Advance(20 * time.Second)
	_ = cache.Set(ctx, testPage, Shape{Selector: "new"}, []byte("new"))

	// Ages are now 50s, 20s, 0s.
	if n := cache.InvalidateOlderThan(ctx, 10*time.Second); n != 2 {
		t.Errorf("InvalidateOlderThan removed %d, want 2", n)
	}
	if _, ok := cache.Get(ctx, testPage, Shape{Selector: "new"}); !ok {
		t.Error("young entry should survive")
	}
	if cache.Size() != 1 {
		t.Errorf("Size() = %d, want 1", cache.Size())
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	cache := NewMemoryCache(Policy{MaxEntries: 7, MaxAge: 2 * time.Second})
	ctx := context.Background()

	_ = cache.Set(ctx, testPage, Shape{Selector: "a"}, []byte("a"))
	cache.Get(ctx, testPage, Shape{Selector: "a"})
	cache.Get(ctx, testPage, Shape{Selector: "b"})

	s := cache.Stats()
	if s.Size != 1 || s.MaxEntries != 7 || s.MaxAge != 2*time.Second {
		t.Errorf("unexpected limits in stats: %+v", s)
	}
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 1/1", s.Hits, s.Misses)
	}
}

func TestMemoryCache_LongKeysAreHashed(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()
	page := "data:text/html," + string(bytes.Repeat([]byte("x"), MaxKeyLength))
	shape := Shape{Selector: "p"}

	_ = cache.Set(ctx, page, shape, []byte("v"))
	if _, ok := cache.Get(ctx, page, shape); !ok {
		t.Error("long page identity should still be cacheable")
	}
	if n := cache.InvalidatePage(ctx, page); n != 1 {
		t.Errorf("InvalidatePage should match stored page, removed %d", n)
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	cache := NewMemoryCache(Policy{MaxEntries: 10})
	ctx := context.Background()

	const numGoroutines = 50
	const opsPerGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				shape := Shape{Selector: "li", Offset: j % 20}
				switch j % 5 {
				case 0, 1:
					_ = cache.Set(ctx, testPage, shape, []byte("v"))
				case 2:
					_, _ = cache.Get(ctx, testPage, shape)
				case 3:
					cache.InvalidateOlderThan(ctx, time.Hour)
				case 4:
					if id%10 == 0 {
						cache.InvalidatePage(ctx, testPage)
					}
				}
			}
		}(i)
	}

	wg.Wait()

	if cache.Size() > 10 {
		t.Errorf("Size() = %d exceeds MaxEntries", cache.Size())
	}
}

func TestMemoryCache_ConcurrentSetKeepsOldestAtTail(t *testing.T) {
	const n = 200
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var ticks atomic.Int64
	tick := func() time.Time {
		ts := base.Add(time.Duration(ticks.Add(1)) * time.Millisecond)
		runtime.Gosched()
		return ts
	}
	cache := NewMemoryCache(Policy{MaxEntries: n}, WithClock(tick))
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_ = cache.Set(ctx, testPage, Shape{Selector: "li", Offset: i}, []byte("v"))
		}(i)
	}
	wg.Wait()

	var prev time.Time
	for _, entry := range cache.entries.Values() {
		if entry.CreatedAt.Before(prev) {
			t.Fatalf("entry created at %v follows one created at %v", entry.CreatedAt, prev)
		}
		prev = entry.CreatedAt
	}
}

// Verify MemoryCache implements Cache interface at compile time
var _ Cache = (*MemoryCache)(nil)
