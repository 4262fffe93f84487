package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

// CallObserver is notified after every guarded gateway call.
type CallObserver interface {
	ObserveGatewayCall(provider, op string, err error, elapsed time.Duration)
}

// GuardConfig configures a Guard.
type GuardConfig struct {
	Timeout          time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Observer         CallObserver
}

// DefaultGuardConfig returns the default guard configuration.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// Guard protects calls to one gateway with a per-call timeout and a circuit
// breaker. Rejections by the gateway do not count as failures.
type Guard struct {
	name     string
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker[any]
	observer CallObserver
}

// NewGuard creates a guard for the named gateway.
func NewGuard(name string, cfg GuardConfig) *Guard {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrGatewayRejected)
		},
	}

	return &Guard{
		name:     name,
		timeout:  cfg.Timeout,
		breaker:  gobreaker.NewCircuitBreaker[any](settings),
		observer: cfg.Observer,
	}
}

// Do runs fn under the guard. An open breaker or a timeout surfaces as
// ErrGatewayUnavailable.
func (g *Guard) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	_, err := g.breaker.Execute(func() (any, error) {
		return nil, fn(callCtx)
	})

	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		err = fmt.Errorf("%w: %s circuit open", ErrGatewayUnavailable, g.name)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		err = fmt.Errorf("%w: %s %s timed out: %v", ErrGatewayUnavailable, g.name, op, err)
	}

	if g.observer != nil {
		g.observer.ObserveGatewayCall(g.name, op, err, time.Since(start))
	}
	return err
}

// State returns the breaker state.
func (g *Guard) State() gobreaker.State {
	return g.breaker.State()
}

// RetryPolicy retries idempotent gateway reads with exponential backoff.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// Do calls fn until it succeeds, the error is not retryable, attempts run out,
// or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	wait := p.Backoff
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !retryable(err) || attempt == attempts {
			return err
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
		wait *= 2
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, ErrGatewayRejected) || errors.Is(err, ErrInvalidSignature) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
