package provider

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
)

type recordingObserver struct {
	calls atomic.Int32
}

func (o *recordingObserver) ObserveGatewayCall(string, string, error, time.Duration) {
	o.calls.Add(1)
}

func TestGuard_OpensAfterConsecutiveFailures(t *testing.T) {
	obs := &recordingObserver{}
	g := NewGuard("pix", GuardConfig{FailureThreshold: 2, OpenTimeout: time.Minute, Observer: obs})
	boom := errors.New("connection refused")
	var calls int

	for i := 0; i < 2; i++ {
		err := g.Do(context.Background(), "query", func(context.Context) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())

	err := g.Do(context.Background(), "query", func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.Equal(t, 2, calls, "open breaker must not reach the gateway")
	assert.Equal(t, int32(3), obs.calls.Load())
}

func TestGuard_RejectionsDoNotTrip(t *testing.T) {
	g := NewGuard("pix", GuardConfig{FailureThreshold: 1, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		err := g.Do(context.Background(), "create", func(context.Context) error {
			return ErrGatewayRejected
		})
		assert.ErrorIs(t, err, ErrGatewayRejected)
	}
	assert.Equal(t, gobreaker.StateClosed, g.State())
}

func TestGuard_Timeout(t *testing.T) {
	g := NewGuard("wechat", GuardConfig{Timeout: 10 * time.Millisecond})

	err := g.Do(context.Background(), "create", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestRetryPolicy_Do(t *testing.T) {
	t.Run("retries transient failures", func(t *testing.T) {
		var calls int
		err := RetryPolicy{Attempts: 3, Backoff: time.Millisecond}.Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return ErrGatewayUnavailable
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops at attempts", func(t *testing.T) {
		var calls int
		err := RetryPolicy{Attempts: 2, Backoff: time.Millisecond}.Do(context.Background(), func(context.Context) error {
			calls++
			return ErrGatewayUnavailable
		})
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
		assert.Equal(t, 2, calls)
	})

	t.Run("does not retry rejections", func(t *testing.T) {
		var calls int
		err := RetryPolicy{Attempts: 3, Backoff: time.Millisecond}.Do(context.Background(), func(context.Context) error {
			calls++
			return ErrGatewayRejected
		})
		assert.ErrorIs(t, err, ErrGatewayRejected)
		assert.Equal(t, 1, calls)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var calls int
		err := RetryPolicy{Attempts: 5, Backoff: time.Hour}.Do(ctx, func(context.Context) error {
			calls++
			cancel()
			return ErrGatewayUnavailable
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
