package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CheckInLimiter counts failed check-in attempts per user in a fixed window
type CheckInLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewCheckInLimiter creates a limiter allowing maxAttempts failures per window
func NewCheckInLimiter(client *redis.Client, maxAttempts int, window time.Duration) *CheckInLimiter {
	return &CheckInLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

// Blocked reports whether the user has exhausted their failed attempts
func (l *CheckInLimiter) Blocked(ctx context.Context, userID int64) (bool, error) {
	n, err := l.client.Get(ctx, rateLimitKey(userID)).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check-in limiter get: %w", err)
	}
	return n >= l.maxAttempts, nil
}

// RecordFailure counts one failed attempt; the window starts at the first failure
func (l *CheckInLimiter) RecordFailure(ctx context.Context, userID int64) error {
	key := rateLimitKey(userID)
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check-in limiter incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("check-in limiter expire: %w", err)
		}
	}
	return nil
}
