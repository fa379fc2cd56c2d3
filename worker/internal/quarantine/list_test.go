package quarantine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*miniredis.Miniredis, *ListQueue) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, NewListQueue(client, "")
}

func TestListQueue_WriteAndList(t *testing.T) {
	_, q := newTestQueue(t)
	ctx := context.Background()

	rec := Record{
		EntryID:         "1700000000000-0",
		OriginalMessage: map[string]string{"venue_id": "v-1", "transaction_count": "bogus"},
		Error:           "decode entry: invalid transaction_count",
	}
	require.NoError(t, q.Write(ctx, rec))

	records, err := q.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec, records[0])

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestListQueue_NewestFirst(t *testing.T) {
	_, q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Write(ctx, Record{EntryID: "1-0", Error: "first"}))
	require.NoError(t, q.Write(ctx, Record{EntryID: "2-0", Error: "second"}))

	records, err := q.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2-0", records[0].EntryID)
	assert.Equal(t, "1-0", records[1].EntryID)
}

// The on-wire field names are a stable contract with inspection tooling.
func TestRecord_WireFormat(t *testing.T) {
	mr, q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Write(ctx, Record{
		EntryID:         "1700000000000-0",
		OriginalMessage: map[string]string{"venue_id": "v-1"},
		Error:           "venue not found",
	}))

	raw, err := mr.Lpop(DefaultListKey)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Contains(t, decoded, "entry_id")
	assert.Contains(t, decoded, "original_message")
	assert.Contains(t, decoded, "error")
}
