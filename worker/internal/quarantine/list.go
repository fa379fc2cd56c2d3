package quarantine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultListKey is the Redis list the pipeline dead-letters into unless
// configured otherwise.
const DefaultListKey = "stream:dlq"

// ListQueue is the default dead-letter backend: a Redis list on the same
// instance as the stream, newest record first.
type ListQueue struct {
	rdb *redis.Client
	key string
}

// NewListQueue returns a ListQueue writing to key.
func NewListQueue(rdb *redis.Client, key string) *ListQueue {
	if key == "" {
		key = DefaultListKey
	}
	return &ListQueue{rdb: rdb, key: key}
}

// Write appends rec to the dead-letter list.
func (q *ListQueue) Write(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal quarantine record: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", q.key, err)
	}
	return nil
}

// List returns up to limit most recent records, newest first. Used by
// inspection tooling; the pipeline itself never reads the list.
func (q *ListQueue) List(ctx context.Context, limit int64) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	raw, err := q.rdb.LRange(ctx, q.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", q.key, err)
	}

	records := make([]Record, 0, len(raw))
	for _, item := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal quarantine record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Len returns the number of quarantined records.
func (q *ListQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("llen %s: %w", q.key, err)
	}
	return n, nil
}
