package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStats records per-key allow/deny counters in Redis so operators can
// inspect throttling behaviour across restarts. Counters live under
// ratelimit:{key}:allowed and ratelimit:{key}:denied with a rolling TTL.
type RedisStats struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisStats(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisStats {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStats{client: client, ttl: ttl, logger: logger}
}

func (s *RedisStats) Record(ctx context.Context, key string, allowed bool, at time.Time) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	counter := fmt.Sprintf("ratelimit:%s:%s", key, outcome)

	pipe := s.client.Pipeline()
	pipe.Incr(ctx, counter)
	pipe.Expire(ctx, counter, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("rate limit stats write failed",
			"event", "ratelimit.stats_failed",
			"module", "platform",
			"layer", "ratelimit",
			"key", key,
			"error", err,
		)
	}
}

// Snapshot returns the allowed/denied counters for a key, treating missing
// counters as zero.
func (s *RedisStats) Snapshot(ctx context.Context, key string) (allowed int64, denied int64, err error) {
	allowed, err = s.client.Get(ctx, fmt.Sprintf("ratelimit:%s:allowed", key)).Int64()
	if err != nil && err != redis.Nil {
		return 0, 0, fmt.Errorf("read allowed counter: %w", err)
	}
	denied, err = s.client.Get(ctx, fmt.Sprintf("ratelimit:%s:denied", key)).Int64()
	if err != nil && err != redis.Nil {
		return 0, 0, fmt.Errorf("read denied counter: %w", err)
	}
	return allowed, denied, nil
}
