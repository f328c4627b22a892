package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping test: TEST_REDIS_ADDR is not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 2 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Skipping test: redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLimiter_AllowsUpToLimitThenBlocks(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	limiter := NewLimiter(client, Config{
		Limit:         3,
		Window:        time.Second,
		BlockDuration: 2 * time.Second,
		KeyPrefix:     "taskboard:test:" + uuid.NewString() + ":",
	})
	t.Cleanup(func() { _ = limiter.Reset(ctx, "client") })

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "client")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 2*time.Second, res.RetryAfter)

	res, err = limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.LessOrEqual(t, res.RetryAfter, 2*time.Second)
	assert.Positive(t, res.RetryAfter)

	other, err := limiter.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
	_ = limiter.Reset(ctx, "other")
}

func TestLimiter_ResetUnblocks(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	limiter := NewLimiter(client, Config{
		Limit:         1,
		Window:        time.Minute,
		BlockDuration: time.Minute,
		KeyPrefix:     "taskboard:test:" + uuid.NewString() + ":",
	})

	res, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "client")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	require.NoError(t, limiter.Reset(ctx, "client"))

	res, err = limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	require.NoError(t, limiter.Reset(ctx, "client"))
}

func TestLimiter_UnreachableRedisReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	limiter := NewLimiter(client, Config{Limit: 1, Window: time.Second})
	_, err := limiter.Allow(context.Background(), "client")
	assert.Error(t, err)
}
