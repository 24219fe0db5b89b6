package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAttemptLimiter counts code attempts per key in fixed windows.
// Counters live in Redis so every instance shares them.
type RedisAttemptLimiter struct {
	client      *redis.Client
	keyPrefix   string
	maxAttempts int64
	window      time.Duration
}

// NewRedisAttemptLimiter creates a limiter. keyPrefix defaults to "attempts:".
func NewRedisAttemptLimiter(client *redis.Client, keyPrefix string, maxAttempts int, window time.Duration) *RedisAttemptLimiter {
	if keyPrefix == "" {
		keyPrefix = "attempts:"
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RedisAttemptLimiter{
		client:      client,
		keyPrefix:   keyPrefix,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

// Allow counts an attempt against key and reports whether it is within the
// limit. The increment and the check happen in one transaction, so concurrent
// attempts cannot all slip under the cap.
func (l *RedisAttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	fullKey := l.keyPrefix + key
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		pipe.ExpireNX(ctx, fullKey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("record attempt: %w", err)
	}
	return incr.Val() <= l.maxAttempts, nil
}

// Reset clears the counter after a successful attempt.
func (l *RedisAttemptLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}
