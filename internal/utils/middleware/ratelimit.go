package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/storefront/server/internal/utils/errors"
	"go.uber.org/zap"
)

// Rate limit response headers.
const (
	RateLimitLimit     = "X-RateLimit-Limit"
	RateLimitRemaining = "X-RateLimit-Remaining"
	RetryAfter         = "Retry-After"
)

// RateLimiter counts requests per key over a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, remaining int, err error)
}

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	// Limit is the maximum number of requests per Window. Zero disables limiting.
	Limit  int
	Window time.Duration
	// KeyFunc identifies the caller. Default is ClientRouteKey.
	KeyFunc func(*gin.Context) string
	// OnLimited is called with the route when a request is rejected.
	OnLimited func(path string)
	Logger    *zap.Logger
}

// ClientRouteKey buckets requests by route and client IP.
func ClientRouteKey(c *gin.Context) string {
	return c.Request.Method + ":" + c.FullPath() + ":" + c.ClientIP()
}

// RateLimit rejects callers over their budget with 429. It fails open: when
// the limiter errors the request is served.
func RateLimit(limiter RateLimiter, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientRouteKey
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	retryAfter := strconv.Itoa(int(math.Max(1, math.Ceil(cfg.Window.Seconds()))))

	return func(c *gin.Context) {
		if limiter == nil || cfg.Limit <= 0 {
			c.Next()
			return
		}

		key := cfg.KeyFunc(c)
		allowed, remaining, err := limiter.Allow(c.Request.Context(), key, cfg.Limit, cfg.Window)
		if err != nil {
			cfg.Logger.Warn("rate limiter unavailable, serving request",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header(RateLimitLimit, strconv.Itoa(cfg.Limit))
		c.Header(RateLimitRemaining, strconv.Itoa(remaining))

		if allowed {
			c.Next()
			return
		}

		if cfg.OnLimited != nil {
			cfg.OnLimited(c.FullPath())
		}
		cfg.Logger.Info("request rate limited", zap.String("key", key))

		appErr := apperrors.TooManyRequests("")
		c.Header(RetryAfter, retryAfter)
		c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
	}
}
