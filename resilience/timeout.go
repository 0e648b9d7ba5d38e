package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Timeout bounds operations with a deadline.
type Timeout struct {
	timeout time.Duration
}

// NewTimeout creates a timeout wrapper. Non-positive d means DefaultTimeout.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &Timeout{timeout: d}
}

// Duration returns the effective timeout.
func (t *Timeout) Duration() time.Duration {
	return t.timeout
}

// Execute runs op with a deadline. If the deadline passes first, Execute
// returns ErrTimeout without waiting for op; op sees its context canceled.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
			return fmt.Errorf("%w after %s: %w", ErrTimeout, t.timeout, err)
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
		}
		return ctx.Err()
	}
}
