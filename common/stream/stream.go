// Package stream wraps Redis Streams with the consumer-group delivery
// semantics the transaction pipeline relies on: append-only ordered log,
// claim-once delivery within a group, explicit acknowledgment, and pending
// entry tracking for reclaim sweeps.
package stream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is a single stream envelope as delivered to a consumer.
type Entry struct {
	// ID is assigned by Redis at append time and is strictly increasing
	// within the stream.
	ID string

	// Fields is the flattened payload stored with XADD.
	Fields map[string]string
}

// PendingEntry describes a claimed-but-unacknowledged entry in the group.
type PendingEntry struct {
	ID         string
	Consumer   string
	Idle       time.Duration
	Deliveries int64
}

// Store is a durable ordered log on a single Redis stream key with one
// consumer group. A successful Append guarantees durable enqueue only, never
// processing.
type Store struct {
	rdb   *redis.Client
	key   string
	group string
}

// New returns a Store for the given stream key and consumer group name.
func New(rdb *redis.Client, key, group string) *Store {
	return &Store{rdb: rdb, key: key, group: group}
}

// Key returns the underlying stream key.
func (s *Store) Key() string { return s.key }

// Group returns the consumer group name.
func (s *Store) Group() string { return s.group }

// Append stores fields as a new entry and returns the assigned entry ID.
// It never blocks on consumers.
func (s *Store) Append(ctx context.Context, fields map[string]any) (string, error) {
	id, err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.key,
		Values: fields,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", s.key, err)
	}
	return id, nil
}

// EnsureGroup creates the consumer group positioned at the start of the
// stream if it does not exist. An existing group is left untouched so its
// cursor is never reset; resetting would redeliver already-processed history.
func (s *Store) EnsureGroup(ctx context.Context) error {
	err := s.rdb.XGroupCreateMkStream(ctx, s.key, s.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", s.group, s.key, err)
	}
	return nil
}

// ReadGroup claims up to count previously undelivered entries for consumer,
// blocking up to block waiting for new entries. A timeout returns an empty
// slice, not an error. The blocking read honours ctx cancellation.
func (s *Store) ReadGroup(ctx context.Context, consumer string, count int64, block time.Duration) ([]Entry, error) {
	streams, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: consumer,
		Streams:  []string{s.key, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup %s/%s: %w", s.key, s.group, err)
	}

	var entries []Entry
	for _, st := range streams {
		for _, msg := range st.Messages {
			entries = append(entries, fromMessage(msg))
		}
	}
	return entries, nil
}

// Ack removes the entry from the group's pending set. The entry itself stays
// in the log; the log is append-only and not compacted here.
func (s *Store) Ack(ctx context.Context, entryID string) error {
	if err := s.rdb.XAck(ctx, s.key, s.group, entryID).Err(); err != nil {
		return fmt.Errorf("xack %s: %w", entryID, err)
	}
	return nil
}

// Pending lists up to count claimed-but-unacknowledged entries that have been
// idle for at least minIdle.
func (s *Store) Pending(ctx context.Context, minIdle time.Duration, count int64) ([]PendingEntry, error) {
	ext, err := s.rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: s.key,
		Group:  s.group,
		Idle:   minIdle,
		Start:  "-",
		End:    "+",
		Count:  count,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("xpending %s/%s: %w", s.key, s.group, err)
	}

	pending := make([]PendingEntry, 0, len(ext))
	for _, p := range ext {
		pending = append(pending, PendingEntry{
			ID:         p.ID,
			Consumer:   p.Consumer,
			Idle:       p.Idle,
			Deliveries: p.RetryCount,
		})
	}
	return pending, nil
}

// AutoClaim transfers ownership of up to count entries that have been pending
// longer than minIdle to consumer and returns them for reprocessing. This is
// the redelivery path for entries orphaned by a crashed consumer.
func (s *Store) AutoClaim(ctx context.Context, consumer string, minIdle time.Duration, count int64) ([]Entry, error) {
	msgs, _, err := s.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   s.key,
		Group:    s.group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    count,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("xautoclaim %s/%s: %w", s.key, s.group, err)
	}

	entries := make([]Entry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, fromMessage(msg))
	}
	return entries, nil
}

// Len returns the number of entries in the log, acknowledged or not.
func (s *Store) Len(ctx context.Context) (int64, error) {
	n, err := s.rdb.XLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("xlen %s: %w", s.key, err)
	}
	return n, nil
}

func fromMessage(msg redis.XMessage) Entry {
	fields := make(map[string]string, len(msg.Values))
	for k, v := range msg.Values {
		if sv, ok := v.(string); ok {
			fields[k] = sv
		} else {
			fields[k] = fmt.Sprint(v)
		}
	}
	return Entry{ID: msg.ID, Fields: fields}
}
