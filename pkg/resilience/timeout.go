package resilience

import (
	"context"
	"time"

	"github.com/go-errors/errors"
)

// WithTimeout imposes a hard deadline on fn through a child context.
// When the guard's own deadline fires, the failure is converted to
// ErrTimeout; when the caller's context was cancelled first, the
// caller's cancellation propagates unchanged. The guard returns as soon
// as the deadline fires even if fn ignores its context; fn's goroutine
// is left to drain into a buffered channel.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(tctx)
		done <- outcome{value: v, err: err}
	}()

	var zero T
	select {
	case out := <-done:
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, errors.Errorf("after %s: %w", d, ErrTimeout)
		}
		return out.value, out.err
	case <-tctx.Done():
		if ctx.Err() != nil {
			// Caller-initiated cancellation: propagate as-is.
			return zero, ctx.Err()
		}
		return zero, errors.Errorf("after %s: %w", d, ErrTimeout)
	}
}
