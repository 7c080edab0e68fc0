package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestInMemoryRateLimiter(t *testing.T) {
	rl := NewInMemoryRateLimiter(2, time.Minute)
	defer rl.Close()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	ok, _ = rl.Allow(ctx, "5.6.7.8")
	assert.True(t, ok)
}

func TestInMemoryRateLimiterSweep(t *testing.T) {
	rl := NewInMemoryRateLimiter(1, time.Minute)
	defer rl.Close()
	_, _ = rl.Allow(context.Background(), "k")

	rl.sweep(time.Now().Add(2 * time.Minute))
	rl.mu.Lock()
	_, present := rl.requests["k"]
	rl.mu.Unlock()
	assert.False(t, present)

	ok, _ := rl.Allow(context.Background(), "k")
	assert.True(t, ok)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRateLimiterSharesCountAcrossInstances(t *testing.T) {
	mr, client := newRedis(t)
	a := NewRedisRateLimiter(client, 3, time.Hour)
	b := NewRedisRateLimiter(client, 3, time.Hour)
	ctx := context.Background()

	for _, rl := range []*RedisRateLimiter{a, b, a} {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := b.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = a.Allow(ctx, "9.9.9.9")
	require.NoError(t, err)
	assert.True(t, ok)

	keys := mr.Keys()
	require.Len(t, keys, 2)
	assert.Positive(t, mr.TTL(keys[0]))
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func limitedRouter(limiter RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(RateLimit(limiter, zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewInMemoryRateLimiter(1, time.Minute)
	defer rl.Close()
	r := limitedRouter(rl)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestRateLimitFailsOpen(t *testing.T) {
	w := httptest.NewRecorder()
	limitedRouter(brokenLimiter{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
