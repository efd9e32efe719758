package resilience

import (
	"context"
	"log/slog"

	"github.com/go-errors/errors"
)

// Strategy is one stage of a fallback chain.
type Strategy[T any] func(context.Context) (T, error)

// ExecuteWithFallback tries each strategy in order — primary first, then
// any decreasingly capable fallbacks — returning the first success. Nil
// strategies are skipped. Each stage logs its own failure; only the
// final failure propagates, wrapped in ErrFallbackExhausted together
// with every stage error so the caller can attribute which stage failed.
func ExecuteWithFallback[T any](ctx context.Context, strategies ...Strategy[T]) (T, error) {
	var zero T
	var stageErrs []error

	attempted := 0
	for i, strategy := range strategies {
		if strategy == nil {
			continue
		}
		attempted++
		out, err := strategy(ctx)
		if err == nil {
			return out, nil
		}
		slog.Warn("fallback stage failed", "stage", i, "error", err)
		stageErrs = append(stageErrs, errors.Errorf("stage %d: %w", i, err))
	}

	if attempted == 0 {
		return zero, errors.Errorf("no strategies provided: %w", ErrFallbackExhausted)
	}
	return zero, errors.Errorf("%w: %w", ErrFallbackExhausted, errors.Join(stageErrs...))
}
