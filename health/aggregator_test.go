package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func fixed(name string, r Result) Checker {
	return NewCheckerFunc(name, func(context.Context) Result { return r })
}

func TestNewAggregator_Defaults(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{})
	if agg.config.Timeout != DefaultCheckTimeout {
		t.Errorf("Timeout = %v, want %v", agg.config.Timeout, DefaultCheckTimeout)
	}
}

func TestAggregator_RegisterOrder(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{})
	agg.Register(fixed("cache", Healthy("ok")))
	agg.Register(fixed("document", Healthy("ok")))
	agg.Register(fixed("cache", Degraded("full")))

	if diff := cmp.Diff([]string{"cache", "document"}, agg.CheckerNames()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	r, err := agg.Check(context.Background(), "cache")
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusDegraded {
		t.Errorf("re-registered checker not used: %+v", r)
	}

	agg.Unregister("cache")
	if diff := cmp.Diff([]string{"document"}, agg.CheckerNames()); diff != "" {
		t.Errorf("names after Unregister mismatch (-want +got):\n%s", diff)
	}
	if _, err := agg.Check(context.Background(), "cache"); err != ErrCheckerNotFound {
		t.Errorf("Check() error = %v, want %v", err, ErrCheckerNotFound)
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{})
	agg.Register(fixed("a", Healthy("ok")))
	agg.Register(fixed("b", Degraded("full")))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for name, r := range results {
		if r.Timestamp.IsZero() {
			t.Errorf("%s: timestamp not set", name)
		}
	}
	if got := OverallStatus(results); got != StatusDegraded {
		t.Errorf("OverallStatus = %v, want degraded", got)
	}

	agg.Register(fixed("c", Unhealthy("down", nil)))
	if got := OverallStatus(agg.CheckAll(context.Background())); got != StatusUnhealthy {
		t.Errorf("OverallStatus = %v, want unhealthy", got)
	}
}

func TestAggregator_Empty(t *testing.T) {
	results := NewAggregator(AggregatorConfig{}).CheckAll(context.Background())
	if len(results) != 0 || OverallStatus(results) != StatusHealthy {
		t.Errorf("empty aggregator = %v", results)
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	release := make(chan struct{})
	defer close(release)

	agg.Register(NewCheckerFunc("stuck", func(context.Context) Result {
		<-release
		return Healthy("late")
	}))
	agg.Register(fixed("fast", Healthy("ok")))

	results := agg.CheckAll(context.Background())
	if r := results["stuck"]; r.Status != StatusUnhealthy || r.Error != ErrCheckTimeout {
		t.Errorf("stuck = %+v, want timeout", r)
	}
	if r := results["fast"]; r.Status != StatusHealthy {
		t.Errorf("fast = %+v", r)
	}
}

func TestAggregator_Parallel(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{MaxParallel: 2})

	var running, peak atomic.Int32
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		agg.Register(NewCheckerFunc(name, func(context.Context) Result {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return Healthy("ok")
		}))
	}

	if got := len(agg.CheckAll(context.Background())); got != 5 {
		t.Fatalf("got %d results, want 5", got)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak parallelism = %d, want <= 2", got)
	}
}
