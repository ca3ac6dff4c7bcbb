// File: internal/platform/redis/client.go
package redis

import (
	"context"
	"fmt"
	"time"

	"tradepost_backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewClient creates a redis client and verifies connectivity with a short
// ping. The rate limiter is the only consumer; callers must tolerate a nil
// client-level error surfacing later as a fail-open decision.
func NewClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
