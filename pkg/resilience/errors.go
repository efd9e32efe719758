// Package resilience wraps calls to external classification, embedding,
// and reasoning services with a circuit breaker, a graceful-degradation
// fallback chain, and a hard timeout guard.
package resilience

import "github.com/go-errors/errors"

// Error kinds surfaced by this package. Callers distinguish them with
// errors.Is:
//
//   - ErrCircuitOpen: the dependency is cooling down; do not retry yet.
//     Raised synchronously before any call is attempted.
//   - ErrTimeout: the guard's own deadline fired; transient, retryable.
//     Caller-initiated cancellation is propagated as ctx.Err() instead.
//   - ErrFallbackExhausted: every provided strategy failed.
var (
	ErrCircuitOpen       = errors.New("circuit breaker is open")
	ErrTimeout           = errors.New("operation timed out")
	ErrFallbackExhausted = errors.New("all fallback strategies failed")
)
