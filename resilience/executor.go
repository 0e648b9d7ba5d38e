package resilience

import (
	"context"
	"time"
)

// Executor composes the guards configured on it.
type Executor struct {
	rateLimiter *RateLimiter
	bulkhead    *Bulkhead
	timeout     *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new executor. With no options it runs op directly.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout bounds every call. Non-positive d leaves calls unbounded.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = NewTimeout(d)
		}
	}
}

// Execute runs op through the configured guards, outermost first:
// rate limiter, bulkhead, timeout. Time spent waiting for a bulkhead slot
// does not count against the timeout.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.bulkhead != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}

// Bulkhead returns the configured bulkhead, or nil.
func (e *Executor) Bulkhead() *Bulkhead {
	return e.bulkhead
}
