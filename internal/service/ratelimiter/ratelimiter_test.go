package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestBucketConfigFromPerMinute(t *testing.T) {
	t.Parallel()
	cfg := NewBucketConfigFromPerMinute(30)
	assert.Equal(t, int64(30), cfg.Capacity)
	assert.InDelta(t, 0.5, cfg.RefillRate, 1e-9)

	assert.Zero(t, NewBucketConfigFromPerMinute(0).Capacity)
}

func TestRedisLuaLimiterAllowsWithinBudget(t *testing.T) {
	t.Parallel()
	l := NewRedisLuaLimiter(newTestRedis(t), NewBucketConfigFromPerMinute(5))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, _, err := l.Allow(ctx, "sess-1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, retryAfter, err := l.Allow(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestRedisLuaLimiterIsolatesKeys(t *testing.T) {
	t.Parallel()
	l := NewRedisLuaLimiter(newTestRedis(t), NewBucketConfigFromPerMinute(1))
	ctx := context.Background()

	allowed, _, err := l.Allow(ctx, "sess-a")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, err = l.Allow(ctx, "sess-b")
	require.NoError(t, err)
	assert.True(t, allowed, "another session keeps its own budget")

	allowed, _, err = l.Allow(ctx, "sess-a")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisLuaLimiterFailsOpen(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := NewRedisLuaLimiter(client, NewBucketConfigFromPerMinute(5))
	mr.Close()

	allowed, _, err := l.Allow(context.Background(), "sess-1")
	assert.Error(t, err)
	assert.True(t, allowed)
}

func TestNewRedisLuaLimiterNilClient(t *testing.T) {
	t.Parallel()
	assert.Nil(t, NewRedisLuaLimiter(nil, NewBucketConfigFromPerMinute(5)))
}

func TestMemoryLimiter(t *testing.T) {
	t.Parallel()
	l := NewMemoryLimiter(3, time.Minute)
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := l.Allow(ctx, "sess-1")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, retryAfter, err := l.Allow(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retryAfter)

	// The window slides: after a minute the oldest hits expire.
	now = now.Add(61 * time.Second)
	allowed, _, err = l.Allow(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryLimiterUnlimited(t *testing.T) {
	t.Parallel()
	l := NewMemoryLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		allowed, _, err := l.Allow(context.Background(), "sess-1")
		require.NoError(t, err)
		require.True(t, allowed)
	}
}
