package resilience

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-errors/errors"
)

var errBoom = errors.New("boom")

func failing(context.Context) error    { return errBoom }
func succeeding(context.Context) error { return nil }

func TestBreaker_OpensAfterFailureThreshold(t *testing.T) {
	b := NewBreaker("classifier", Settings{FailureThreshold: 3, SuccessThreshold: 1, OpenDuration: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Execute(ctx, failing); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: expected dependency error, got %v", i, err)
		}
	}
	if got := b.State(); got != StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	// 4th call must fail fast without invoking the dependency.
	invoked := false
	err := b.Execute(ctx, func(context.Context) error {
		invoked = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if invoked {
		t.Error("dependency was invoked while circuit was open")
	}
}

func TestBreaker_SuccessResetsClosedFailureCount(t *testing.T) {
	b := NewBreaker("classifier", Settings{FailureThreshold: 3, SuccessThreshold: 1, OpenDuration: time.Minute})
	ctx := context.Background()

	_ = b.Execute(ctx, failing)
	_ = b.Execute(ctx, failing)
	_ = b.Execute(ctx, succeeding)
	_ = b.Execute(ctx, failing)
	_ = b.Execute(ctx, failing)

	if got := b.State(); got != StateClosed {
		t.Errorf("state = %v, want closed (success must reset the failure streak)", got)
	}
}

func TestBreaker_HalfOpenProbeAndRecovery(t *testing.T) {
	b := NewBreaker("classifier", Settings{FailureThreshold: 1, SuccessThreshold: 2, OpenDuration: 20 * time.Millisecond})
	ctx := context.Background()

	_ = b.Execute(ctx, failing)
	if got := b.State(); got != StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	time.Sleep(30 * time.Millisecond)

	// The next call after the cooldown is the half-open probe.
	if err := b.Execute(ctx, succeeding); err != nil {
		t.Fatalf("probe call: %v", err)
	}
	if got := b.State(); got != StateHalfOpen {
		t.Fatalf("state after one probe success = %v, want half-open", got)
	}
	if err := b.Execute(ctx, succeeding); err != nil {
		t.Fatalf("second probe call: %v", err)
	}
	if got := b.State(); got != StateClosed {
		t.Errorf("state after success threshold = %v, want closed", got)
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("classifier", Settings{FailureThreshold: 1, SuccessThreshold: 2, OpenDuration: 20 * time.Millisecond})
	ctx := context.Background()

	_ = b.Execute(ctx, failing)
	time.Sleep(30 * time.Millisecond)

	if err := b.Execute(ctx, failing); !errors.Is(err, errBoom) {
		t.Fatalf("probe call: expected dependency error, got %v", err)
	}
	if got := b.State(); got != StateOpen {
		t.Errorf("state = %v, want open after half-open failure", got)
	}
	if err := b.Execute(ctx, succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected fast rejection after reopen, got %v", err)
	}
}

func TestBreaker_TripAndReset(t *testing.T) {
	b := NewBreaker("classifier", Settings{})
	ctx := context.Background()

	b.Trip()
	if err := b.Execute(ctx, succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen after Trip, got %v", err)
	}

	b.Reset()
	if err := b.Execute(ctx, succeeding); err != nil {
		t.Errorf("expected pass-through after Reset, got %v", err)
	}
	if got := b.State(); got != StateClosed {
		t.Errorf("state = %v, want closed", got)
	}
}

func TestBreaker_ConcurrentCallers(t *testing.T) {
	b := NewBreaker("classifier", Settings{FailureThreshold: 5, SuccessThreshold: 2, OpenDuration: time.Minute})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = b.Execute(ctx, succeeding)
			} else {
				_ = b.Execute(ctx, failing)
			}
		}(i)
	}
	wg.Wait()

	// No assertion on the final state (interleaving-dependent); the test
	// exists to fail under the race detector if locking regresses.
	_ = b.State()
}

func TestDo_ReturnsValueThroughBreaker(t *testing.T) {
	b := NewBreaker("classifier", Settings{})
	got, err := Do(context.Background(), b, func(context.Context) (string, error) {
		return "auth-failure", nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != "auth-failure" {
		t.Errorf("Do = %q", got)
	}
}
