package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader is the header for idempotency key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader marks a response served from the cache.
	IdempotentReplayHeader = "Idempotent-Replayed"

	idempotencyKeyPrefix  = "idempotency:"
	defaultIdempotencyTTL = 24 * time.Hour
	idempotencyLockTTL    = 30 * time.Second
	maxIdempotencyKeyLen  = 255
)

// IdempotencyStore is the subset of the Redis client the middleware uses.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// IdempotencyConfig holds idempotency middleware configuration.
type IdempotencyConfig struct {
	// TTL is how long a response is replayed for.
	TTL time.Duration
	// OnReplay is called with the route when a cached response is served.
	OnReplay func(path string)
	Logger   *zap.Logger
}

// idempotencyResponse stores the cached response.
type idempotencyResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	BodyHash    string `json:"body_hash"`
}

// idempotencyResponseWriter wraps gin.ResponseWriter to capture the response.
type idempotencyResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency returns a middleware that replays the stored response of a
// request retried with the same Idempotency-Key. Reusing a key with a
// different body is rejected. Requests without the header pass through, and
// so does everything when Redis is unavailable.
func Idempotency(store IdempotencyStore, cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL == 0 {
		cfg.TTL = defaultIdempotencyTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if store == nil || key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			abortIdempotency(c, http.StatusBadRequest, "IDEMPOTENCY_KEY_INVALID", "Idempotency-Key is too long")
			return
		}

		bodyHash, err := hashBody(c)
		if err != nil {
			abortIdempotency(c, http.StatusBadRequest, "INVALID_BODY", "failed to read request body")
			return
		}

		ctx := c.Request.Context()
		cacheKey := idempotencyCacheKey(c.Request.Method, c.FullPath(), key)
		log := cfg.Logger.With(zap.String("path", c.FullPath()), zap.String("idempotency_key", key))

		cached, err := getCachedResponse(ctx, store, cacheKey)
		switch {
		case err == nil:
			if cached.BodyHash != bodyHash {
				abortIdempotency(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED",
					"Idempotency-Key was already used with a different request body")
				return
			}
			if cfg.OnReplay != nil {
				cfg.OnReplay(c.FullPath())
			}
			c.Header(IdempotentReplayHeader, "true")
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		case !errors.Is(err, goredis.Nil):
			log.Warn("idempotency lookup failed, serving uncached", zap.Error(err))
			c.Next()
			return
		}

		lockKey := cacheKey + ":lock"
		locked, err := store.SetNX(ctx, lockKey, "1", idempotencyLockTTL).Result()
		if err != nil {
			log.Warn("idempotency lock failed, serving uncached", zap.Error(err))
			c.Next()
			return
		}
		if !locked {
			abortIdempotency(c, http.StatusConflict, "REQUEST_IN_PROGRESS",
				"A request with this idempotency key is already being processed")
			return
		}
		defer store.Del(context.WithoutCancel(ctx), lockKey)

		writer := &idempotencyResponseWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = writer

		c.Next()

		// Server errors are not cached so the client can retry them.
		status := writer.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		resp := &idempotencyResponse{
			StatusCode:  status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
			BodyHash:    bodyHash,
		}
		if err := cacheResponse(context.WithoutCancel(ctx), store, cacheKey, resp, cfg.TTL); err != nil {
			log.Warn("failed to cache idempotent response", zap.Error(err))
		}
	}
}

func abortIdempotency(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// idempotencyCacheKey scopes the client key to the route.
func idempotencyCacheKey(method, route, key string) string {
	hash := sha256.Sum256([]byte(method + ":" + route + ":" + key))
	return idempotencyKeyPrefix + hex.EncodeToString(hash[:])
}

// hashBody hashes the request body and puts it back for the handler.
func hashBody(c *gin.Context) (string, error) {
	if c.Request.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:]), nil
}

func getCachedResponse(ctx context.Context, store IdempotencyStore, key string) (*idempotencyResponse, error) {
	data, err := store.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var resp idempotencyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func cacheResponse(ctx context.Context, store IdempotencyStore, key string, resp *idempotencyResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, data, ttl).Err()
}
