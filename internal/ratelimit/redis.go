package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "arcade:ratelimit:"

type redisLimiter struct {
	client  redis.Cmdable
	closer  func() error
	logger  *slog.Logger
	limit   int
	window  time.Duration
	prefix  string
	timeout time.Duration
}

// NewRedis returns a limiter sharing counters through Redis. Redis errors
// fail open so an outage never locks players out.
func NewRedis(client *redis.Client, limit int, window time.Duration, logger *slog.Logger) Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &redisLimiter{
		client:  client,
		closer:  client.Close,
		logger:  logger,
		limit:   limit,
		window:  window,
		prefix:  defaultPrefix,
		timeout: 250 * time.Millisecond,
	}
}

func (rl *redisLimiter) Allow(ctx context.Context, key string) Decision {
	if rl.limit <= 0 {
		return Decision{Allowed: true}
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.logRedisError("incr", err)
		return Decision{Allowed: true, Limit: rl.limit}
	}
	if counter == 1 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			rl.logRedisError("expire", err)
		}
	}
	ttl, err := rl.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = rl.window
	}
	return Decision{
		Allowed:   int(counter) <= rl.limit,
		Count:     int(counter),
		Limit:     rl.limit,
		WindowEnd: time.Now().Add(ttl),
	}
}

func (rl *redisLimiter) Close() {
	if rl.closer != nil {
		_ = rl.closer()
	}
}

func (rl *redisLimiter) logRedisError(op string, err error) {
	rl.logger.Warn("redis rate limiter error", "op", op, "error", err)
}
