package ratelimiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFixedWindowLimiter implements a fixed window shared across all
// process instances, so a fleet enforces one budget per client instead
// of one per replica.
type RedisFixedWindowLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisFixedWindowLimiter(client *redis.Client, limit int, window time.Duration) *RedisFixedWindowLimiter {
	return &RedisFixedWindowLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (rl *RedisFixedWindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	redisKey := "ratelimit:" + key

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		// Redis being down should not take the API with it.
		return true, 0
	}

	if incr.Val() <= int64(rl.limit) {
		return true, 0
	}

	ttl, err := rl.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = rl.window
	}
	return false, ttl
}
