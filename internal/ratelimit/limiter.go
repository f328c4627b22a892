// Package ratelimit throttles clients with a Redis sliding window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript counts requests inside the window. Once the limit
// is exceeded the client is blocked for block_ms regardless of the window.
//
// Returns {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local block_key = KEYS[2]
local counter_key = KEYS[3]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])
local block_ms = tonumber(ARGV[5])

local blocked_ttl = redis.call('PTTL', block_key)
if blocked_ttl > 0 then
	return {0, 0, blocked_ttl}
end

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local current = redis.call('ZCARD', key)

if current < limit then
	local counter = redis.call('INCR', counter_key)
	redis.call('ZADD', key, now, now .. ':' .. counter)
	redis.call('PEXPIRE', key, window_ms)
	redis.call('PEXPIRE', counter_key, window_ms)
	return {1, limit - current - 1, 0}
end

if block_ms > 0 then
	redis.call('SET', block_key, 1, 'PX', block_ms)
	return {0, 0, block_ms}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry_after = window_ms
if oldest and #oldest >= 2 then
	retry_after = tonumber(oldest[2]) + window_ms - now
end
return {0, 0, retry_after}
`)

type Config struct {
	Limit         int
	Window        time.Duration
	BlockDuration time.Duration
	KeyPrefix     string
}

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Limiter struct {
	client redis.Cmdable
	config Config
	now    func() time.Time
}

func NewLimiter(client redis.Cmdable, config Config) *Limiter {
	return &Limiter{
		client: client,
		config: config,
		now:    time.Now,
	}
}

// Allow records a request for key and reports whether it may proceed.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	windowStart := now.Add(-l.config.Window)

	base := l.config.KeyPrefix + key
	keys := []string{base, base + ":blocked", base + ":counter"}

	res, err := slidingWindowScript.Run(
		ctx,
		l.client,
		keys,
		now.UnixMilli(),
		windowStart.UnixMilli(),
		l.config.Limit,
		l.config.Window.Milliseconds(),
		l.config.BlockDuration.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected rate limit script result length: %d", len(res))
	}

	return &Result{
		Allowed:    res[0] == 1,
		Limit:      l.config.Limit,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// Reset clears the window and any block for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	base := l.config.KeyPrefix + key
	return l.client.Del(ctx, base, base+":blocked", base+":counter").Err()
}
