// File: internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"tradepost_backend/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Result is the outcome of a limiter check.
type Result struct {
	Allowed   bool
	Remaining int64
}

// Limiter throttles request keys. Implementations must fail open: if the
// backing store is unreachable the request is allowed.
type Limiter interface {
	Limit(ctx context.Context, key string) Result
}

type redisLimiter struct {
	client   *redis.Client
	requests int64
	window   time.Duration
	logger   *zap.Logger
}

// NewRedisLimiter creates a fixed-window limiter on top of redis.
func NewRedisLimiter(client *redis.Client, cfg *config.Config, logger *zap.Logger) Limiter {
	return &redisLimiter{
		client:   client,
		requests: int64(cfg.RateLimitRequests),
		window:   cfg.RateLimitWindow,
		logger:   logger.Named("RateLimiter"),
	}
}

// Limit counts the request against a fixed window keyed by the caller. The
// INCR/EXPIRE pair is pipelined so a crashed request cannot leave a counter
// without a TTL. Availability over strictness: any redis error allows the
// request.
func (l *redisLimiter) Limit(ctx context.Context, key string) Result {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("Rate limiter backend unreachable, failing open",
			zap.String("key", key),
			zap.Error(err),
		)
		return Result{Allowed: true, Remaining: l.requests}
	}

	count := incr.Val()
	remaining := l.requests - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: count <= l.requests, Remaining: remaining}
}
