package health

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds a full round of checks.
const DefaultCheckTimeout = 10 * time.Second

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout is the maximum time to wait for all checks.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxParallel caps checks running at once. Zero means no cap.
	MaxParallel int
}

// Aggregator combines multiple health checkers into a single composite check.
type Aggregator struct {
	config AggregatorConfig
	now    func() time.Time

	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
}

// NewAggregator creates a new health aggregator.
func NewAggregator(config AggregatorConfig) *Aggregator {
	if config.Timeout <= 0 {
		config.Timeout = DefaultCheckTimeout
	}
	return &Aggregator{
		config:   config,
		now:      time.Now,
		checkers: make(map[string]Checker),
	}
}

// Register adds c under its name, replacing any checker with that name.
func (a *Aggregator) Register(c Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := c.Name()
	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = c
}

// Unregister removes a health checker from the aggregator.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.checkers, name)
	a.order = slices.DeleteFunc(a.order, func(n string) bool { return n == name })
}

// CheckerNames returns checker names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.order)
}

// Check runs a single named health check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	c, ok := a.checkers[name]
	a.mu.RUnlock()

	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return a.run(ctx, c), nil
}

// CheckAll runs every registered check concurrently under one deadline.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	checkers := make([]Checker, 0, len(a.order))
	for _, name := range a.order {
		checkers = append(checkers, a.checkers[name])
	}
	a.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	results := make([]Result, len(checkers))
	var g errgroup.Group
	if a.config.MaxParallel > 0 {
		g.SetLimit(a.config.MaxParallel)
	}
	for i, c := range checkers {
		g.Go(func() error {
			results[i] = a.run(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]Result, len(checkers))
	for i, c := range checkers {
		out[c.Name()] = results[i]
	}
	return out
}

// OverallStatus returns the worst status in results. No results is healthy.
func OverallStatus(results map[string]Result) Status {
	status := StatusHealthy
	for _, r := range results {
		status = status.Worst(r.Status)
	}
	return status
}

// run executes c, giving up when ctx ends even if c does not return.
func (a *Aggregator) run(ctx context.Context, c Checker) Result {
	start := a.now()
	done := make(chan Result, 1)

	go func() {
		done <- c.Check(ctx)
	}()

	var r Result
	select {
	case r = <-done:
	case <-ctx.Done():
		r = Unhealthy("check timed out", ErrCheckTimeout)
	}
	r.Duration = a.now().Sub(start)
	r.Timestamp = start
	return r
}
