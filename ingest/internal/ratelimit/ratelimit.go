// Package ratelimit bounds per-venue ingestion throughput so one noisy agent
// cannot starve the stream for everyone else.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/venuepulse/venuepulse/ingest/internal/metrics"
)

type RateLimiter interface {
	Allow(ctx context.Context, venueID string) (bool, error)
}

type redisRateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisRateLimiter returns a sliding-window limiter on the shared Redis
// client, allowing limit requests per venue per window.
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) RateLimiter {
	return &redisRateLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
	}
}

// Lua script keeps remove-count-add atomic under concurrent gateways.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start)

	local current = redis.call('ZCARD', key)

	if current < limit then
		redis.call('ZADD', key, now, now)
		redis.call('EXPIRE', key, 60)
		return 1
	else
		return 0
	end
`)

func (r *redisRateLimiter) Allow(ctx context.Context, venueID string) (bool, error) {
	now := time.Now().UnixNano()
	windowStart := now - r.window.Nanoseconds()

	result, err := slidingWindow.Run(ctx, r.client,
		[]string{"ratelimit:" + venueID}, now, windowStart, r.limit,
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed := result == 1
	if !allowed {
		metrics.RateLimitHits.WithLabelValues(venueID).Inc()
	}

	return allowed, nil
}

// NoOpRateLimiter always allows requests (for testing or disabled rate limiting)
type NoOpRateLimiter struct{}

func (n *NoOpRateLimiter) Allow(ctx context.Context, venueID string) (bool, error) {
	return true, nil
}
