package app

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/adanyl0v/taskboard/internal/config"
	"github.com/adanyl0v/taskboard/internal/ratelimit"
)

var (
	globalRedisClient *redis.Client
	globalLimiter     *ratelimit.Limiter
)

// InitRateLimiter connects to Redis when throttling is enabled. An
// unreachable Redis is logged but not fatal: the middleware lets requests
// through while the limiter errors.
func InitRateLimiter() {
	cfg := config.Global()
	if !cfg.RateLimit.Enabled {
		globalLogger.Info().Msg("rate limiting disabled")
		return
	}

	redisCfg := cfg.Redis
	globalRedisClient = redis.NewClient(&redis.Options{
		Addr:        redisCfg.Addr,
		Password:    redisCfg.Password,
		DB:          redisCfg.DB,
		DialTimeout: redisCfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisCfg.DialTimeout)
	defer cancel()

	err := globalRedisClient.Ping(ctx).Err()
	if err != nil {
		globalLogger.Warn().
			Err(err).
			Str("addr", redisCfg.Addr).
			Msg("failed to ping redis")
	} else {
		globalLogger.Info().
			Str("addr", redisCfg.Addr).
			Msg("connected to redis")
	}

	rlCfg := cfg.RateLimit
	globalLimiter = ratelimit.NewLimiter(globalRedisClient, ratelimit.Config{
		Limit:         rlCfg.Limit,
		Window:        rlCfg.Window,
		BlockDuration: rlCfg.BlockDuration,
		KeyPrefix:     rlCfg.KeyPrefix,
	})
}

func CloseRateLimiter() {
	if globalRedisClient == nil {
		return
	}

	err := globalRedisClient.Close()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to close redis client")
		return
	}
	globalLogger.Info().Msg("disconnected from redis")
}
