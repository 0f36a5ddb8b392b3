package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLimiter(t *testing.T) (*RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRateLimiter(client), mr
}

func TestRedisRateLimiter_Allow_PerMinute(t *testing.T) {
	limiter, _ := setupTestLimiter(t)
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerMinute: 5}

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "ip-1", config)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "ip-1", config)
	require.NoError(t, err)
	assert.False(t, allowed, "6th request should be denied")
}

func TestRedisRateLimiter_Allow_WindowSlides(t *testing.T) {
	limiter, _ := setupTestLimiter(t)
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerMinute: 1}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }

	allowed, err := limiter.Allow(ctx, "ip-1", config)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "ip-1", config)
	require.NoError(t, err)
	assert.False(t, allowed)

	limiter.now = func() time.Time { return base.Add(2 * time.Minute) }
	allowed, err = limiter.Allow(ctx, "ip-1", config)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_Allow_DifferentKeys(t *testing.T) {
	limiter, _ := setupTestLimiter(t)
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerMinute: 2}

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "ip-1", config)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "ip-1", config)
	require.NoError(t, err)
	assert.False(t, allowed, "ip-1 should be rate limited")

	allowed, err = limiter.Allow(ctx, "ip-2", config)
	require.NoError(t, err)
	assert.True(t, allowed, "ip-2 should not be affected")
}

func TestRedisRateLimiter_ZeroLimitsAllow(t *testing.T) {
	limiter, _ := setupTestLimiter(t)

	for i := 0; i < 10; i++ {
		allowed, err := limiter.Allow(context.Background(), "ip-1", RateLimitConfig{})
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestRedisRateLimiter_CountAndReset(t *testing.T) {
	limiter, _ := setupTestLimiter(t)
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerMinute: 5}

	count, err := limiter.Count(ctx, "ip-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	for i := 0; i < 3; i++ {
		_, err := limiter.Allow(ctx, "ip-1", config)
		require.NoError(t, err)
	}

	count, err = limiter.Count(ctx, "ip-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, limiter.Reset(ctx, "ip-1"))

	count, err = limiter.Count(ctx, "ip-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRedisRateLimiter_RedisDown(t *testing.T) {
	limiter, mr := setupTestLimiter(t)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "ip-1", RateLimitConfig{RequestsPerMinute: 1})

	assert.Error(t, err)
}
