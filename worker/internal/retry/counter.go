// Package retry tracks per-entry delivery failure counts in Redis so that
// every worker instance sharing the consumer group agrees on how often an
// entry has failed.
package retry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "retry:"

// Counter is a shared failure counter keyed by stream entry ID. Increment and
// delete are single-key atomic operations; no further coordination is needed
// between workers.
type Counter struct {
	rdb *redis.Client
}

// NewCounter returns a Counter on the given Redis client.
func NewCounter(rdb *redis.Client) *Counter {
	return &Counter{rdb: rdb}
}

// Bump increments the failure count for entryID and returns the new value.
// The counter is created on first failure.
func (c *Counter) Bump(ctx context.Context, entryID string) (int64, error) {
	n, err := c.rdb.Incr(ctx, keyPrefix+entryID).Result()
	if err != nil {
		return 0, fmt.Errorf("incr retry counter %s: %w", entryID, err)
	}
	return n, nil
}

// Clear removes the counter for entryID. Called on successful processing and
// when the entry is quarantined.
func (c *Counter) Clear(ctx context.Context, entryID string) error {
	if err := c.rdb.Del(ctx, keyPrefix+entryID).Err(); err != nil {
		return fmt.Errorf("del retry counter %s: %w", entryID, err)
	}
	return nil
}
