// Package cache holds the Redis-backed leaderboard and check-in throttle.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefixes for namespacing Redis keys.
const (
	PrefixLeaderboard = "leaderboard:points:"
	PrefixRateLimit   = "ratelimit:checkin:"
)

var (
	// ErrCacheMiss is returned when the requested key is not found in cache.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrNotRanked is returned when a member is absent from an existing leaderboard.
	ErrNotRanked = errors.New("cache: member not ranked")
)

// Config holds Redis connection configuration.
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewClient connects to Redis and verifies the connection with PING
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout+time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func leaderboardKey(periodID int64) string {
	return fmt.Sprintf("%s%d", PrefixLeaderboard, periodID)
}

func leaderboardVersionKey(periodID int64) string {
	return fmt.Sprintf("%s%d:version", PrefixLeaderboard, periodID)
}

func rateLimitKey(userID int64) string {
	return fmt.Sprintf("%s%d", PrefixRateLimit, userID)
}
