package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/domquery/cache"
)

func ExampleNewMemoryCache() {
	c := cache.NewMemoryCache(cache.DefaultPolicy())
	ctx := context.Background()

	shape := cache.Shape{Selector: "li", Limit: 20}
	_ = c.Set(ctx, "https://example.com", shape, []byte(`{"totalCount":3}`))

	value, ok := c.Get(ctx, "https://example.com", shape)
	if ok {
		fmt.Println("Value:", string(value))
	}
	// Output:
	// Value: {"totalCount":3}
}

func ExampleMemoryCache_InvalidatePage() {
	c := cache.NewMemoryCache(cache.DefaultPolicy())
	ctx := context.Background()

	_ = c.Set(ctx, "https://a.example", cache.Shape{Selector: "a"}, []byte("1"))
	_ = c.Set(ctx, "https://a.example", cache.Shape{SearchText: "b"}, []byte("2"))
	_ = c.Set(ctx, "https://b.example", cache.Shape{Selector: "a"}, []byte("3"))

	fmt.Println("Removed:", c.InvalidatePage(ctx, "https://a.example"))
	fmt.Println("Remaining:", c.Size())
	// Output:
	// Removed: 2
	// Remaining: 1
}

func ExampleMemoryCache_InvalidateOlderThan() {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := cache.NewMemoryCache(cache.DefaultPolicy(), cache.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_ = c.Set(ctx, "https://example.com", cache.Shape{Selector: "old"}, []byte("1"))
	now = now.Add(45 * time.Second)
	_ = c.Set(ctx, "https://example.com", cache.Shape{Selector: "new"}, []byte("2"))

	fmt.Println("Removed:", c.InvalidateOlderThan(ctx, 30*time.Second))
	fmt.Println("Remaining:", c.Size())
	// Output:
	// Removed: 1
	// Remaining: 1
}

func ExampleDelimitedKeyer_Key() {
	k := cache.NewDelimitedKeyer(false)
	key := k.Key("https://example.com", cache.Shape{Selector: "li", Offset: 20, Limit: 10})
	fmt.Printf("%q\n", key)
	// Output:
	// "https://example.com\x1fli\x1f\x1f20\x1f10"
}
