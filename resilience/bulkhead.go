package resilience

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent is the bulkhead size when none is configured.
const DefaultMaxConcurrent = 10

// BulkheadConfig configures the bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the maximum number of concurrent operations.
	// Default: 10
	MaxConcurrent int `yaml:"max_concurrent"`

	// MaxWait is the maximum time to wait for a slot.
	// Default: 0 (no waiting, fail immediately)
	MaxWait time.Duration `yaml:"max_wait"`
}

// Bulkhead limits concurrent operations.
type Bulkhead struct {
	config BulkheadConfig
	sem    *semaphore.Weighted

	mu        sync.Mutex
	active    int
	maxActive int
	rejected  int64
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultMaxConcurrent
	}

	return &Bulkhead{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrent)),
	}
}

// Acquire takes a slot, waiting up to MaxWait. Returns ErrBulkheadFull when
// none frees up in time, or the context error if ctx ends first.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if b.sem.TryAcquire(1) {
		b.admitted()
		return nil
	}

	if b.config.MaxWait <= 0 {
		b.reject()
		return ErrBulkheadFull
	}

	waitCtx, cancel := context.WithTimeout(ctx, b.config.MaxWait)
	defer cancel()

	if err := b.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.reject()
		return ErrBulkheadFull
	}
	b.admitted()
	return nil
}

func (b *Bulkhead) admitted() {
	b.mu.Lock()
	b.active++
	b.maxActive = max(b.maxActive, b.active)
	b.mu.Unlock()
}

func (b *Bulkhead) reject() {
	b.mu.Lock()
	b.rejected++
	b.mu.Unlock()
}

// Release returns a slot taken by Acquire.
func (b *Bulkhead) Release() {
	b.mu.Lock()
	if b.active == 0 {
		b.mu.Unlock()
		return
	}
	b.active--
	b.mu.Unlock()
	b.sem.Release(1)
}

// Execute runs the operation within the bulkhead.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()

	return op(ctx)
}

// Metrics returns current bulkhead metrics.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BulkheadMetrics{
		Active:        b.active,
		MaxActive:     b.maxActive,
		Available:     b.config.MaxConcurrent - b.active,
		MaxConcurrent: b.config.MaxConcurrent,
		Rejected:      b.rejected,
	}
}

// BulkheadMetrics contains bulkhead statistics.
type BulkheadMetrics struct {
	Active        int
	MaxActive     int
	Available     int
	MaxConcurrent int
	Rejected      int64
}
