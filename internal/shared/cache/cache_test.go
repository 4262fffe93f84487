package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/server/internal/shared/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachable returns a client for a port nothing listens on.
func unreachable(t *testing.T) redis.UniversalClient {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewRedisClient(t *testing.T) {
	t.Run("ping failure", func(t *testing.T) {
		client, err := NewRedisClient(&config.RedisConfig{Address: "127.0.0.1:1"})

		require.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "ping redis")
	})
}

func TestSplitAddrs(t *testing.T) {
	assert.Equal(t, []string{"localhost:6379"}, splitAddrs("localhost:6379"))
	assert.Equal(t, []string{"a:7000", "b:7001"}, splitAddrs(" a:7000, b:7001 ,"))
	assert.Empty(t, splitAddrs(""))
}

func TestClose(t *testing.T) {
	assert.NoError(t, Close(nil))
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("redis errors are returned", func(t *testing.T) {
		limiter := NewRateLimiter(unreachable(t))

		allowed, remaining, err := limiter.Allow(context.Background(), "checkout:10.0.0.1", 5, time.Minute)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "count requests")
		assert.False(t, allowed)
		assert.Zero(t, remaining)
	})
}
