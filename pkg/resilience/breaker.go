package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/go-errors/errors"
)

// State is the circuit breaker's position in its state machine.
type State int

const (
	// StateClosed passes calls through and counts consecutive failures.
	StateClosed State = iota
	// StateOpen rejects calls immediately until the cooldown elapses.
	StateOpen
	// StateHalfOpen probes the dependency; one failure reopens the
	// circuit, enough consecutive successes close it.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Settings configures one Breaker.
type Settings struct {
	// FailureThreshold is how many consecutive failures open the circuit.
	FailureThreshold int
	// SuccessThreshold is how many consecutive half-open successes close it.
	SuccessThreshold int
	// OpenDuration is the cooldown before an open circuit admits a probe.
	OpenDuration time.Duration
}

// DefaultSettings returns the settings used when a field is left zero.
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenDuration:     30 * time.Second,
	}
}

// Breaker guards exactly one logical downstream dependency. It is safe
// for concurrent use: all state transitions and counter mutations happen
// under one mutex, and the guarded call itself runs outside the lock.
type Breaker struct {
	name     string
	settings Settings

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
}

// NewBreaker creates a closed breaker for the named dependency. Zero
// settings fields fall back to DefaultSettings.
func NewBreaker(name string, settings Settings) *Breaker {
	def := DefaultSettings()
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = def.FailureThreshold
	}
	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = def.SuccessThreshold
	}
	if settings.OpenDuration <= 0 {
		settings.OpenDuration = def.OpenDuration
	}
	return &Breaker{name: name, settings: settings}
}

// Execute runs fn through the breaker. An open circuit rejects the call
// with ErrCircuitOpen before fn is invoked; otherwise fn's outcome is
// recorded and its error returned as-is.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}
	err := fn(ctx)
	b.afterCall(err)
	return err
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}
	if time.Since(b.lastFailureTime) >= b.settings.OpenDuration {
		// Cooldown elapsed: this call becomes the half-open probe.
		b.state = StateHalfOpen
		b.successCount = 0
		return nil
	}
	return errors.Errorf("%s: %w", b.name, ErrCircuitOpen)
}

func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failureCount++
		b.lastFailureTime = time.Now()
		switch b.state {
		case StateHalfOpen:
			b.state = StateOpen
		case StateClosed:
			if b.failureCount >= b.settings.FailureThreshold {
				b.state = StateOpen
			}
		}
		return
	}

	switch b.state {
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.settings.SuccessThreshold {
			b.state = StateClosed
			b.failureCount = 0
			b.successCount = 0
		}
	case StateClosed:
		b.failureCount = 0
	}
}

// Trip forces the circuit open. Operational override.
func (b *Breaker) Trip() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateOpen
	b.lastFailureTime = time.Now()
}

// Reset forces the circuit closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
}

// State reports the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Do runs a value-returning call through the breaker.
func Do[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := b.Execute(ctx, func(ctx context.Context) error {
		var callErr error
		out, callErr = fn(ctx)
		return callErr
	})
	return out, err
}
