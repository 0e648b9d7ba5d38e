package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of operations allowed per second.
	// Default: 100
	Rate float64 `yaml:"rate"`

	// Burst is the maximum burst size.
	// Default: 10
	Burst int `yaml:"burst"`

	// WaitOnLimit waits for a token instead of returning error.
	// Default: false
	WaitOnLimit bool `yaml:"wait_on_limit"`

	// MaxWait is the maximum time to wait for a token.
	// Default: 1 second
	MaxWait time.Duration `yaml:"max_wait"`
}

// RateLimiter is a token bucket limiter.
type RateLimiter struct {
	config  RateLimiterConfig
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.MaxWait <= 0 {
		config.MaxWait = time.Second
	}

	return &RateLimiter{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
	}
}

// Allow reports whether a call may run now, consuming a token if so.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Wait blocks until a token is available, MaxWait passes, or ctx ends.
// Returns ErrRateLimitExceeded when no token can be had within MaxWait.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r := rl.limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	if !r.OK() || delay > rl.config.MaxWait {
		r.Cancel()
		return ErrRateLimitExceeded
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// Execute runs op if the limit allows it.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if rl.config.WaitOnLimit {
		if err := rl.Wait(ctx); err != nil {
			return err
		}
	} else if !rl.Allow() {
		return ErrRateLimitExceeded
	}

	return op(ctx)
}

// Config returns the effective configuration.
func (rl *RateLimiter) Config() RateLimiterConfig {
	return rl.config
}
