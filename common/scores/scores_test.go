package scores

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestPublisher_StoresLastKnownScore(t *testing.T) {
	mr, client := setupTestRedis(t)
	p := NewPublisher(client, "")

	require.NoError(t, p.Publish(context.Background(), "venue-1", 73))

	got, err := mr.Get("venue:venue-1:score")
	require.NoError(t, err)
	assert.Equal(t, "73", got)
}

func TestPublisher_BroadcastsUpdate(t *testing.T) {
	_, client := setupTestRedis(t)
	p := NewPublisher(client, "")

	sub := client.Subscribe(context.Background(), DefaultChannel)
	t.Cleanup(func() { sub.Close() })

	// Wait for the subscription to be established before publishing.
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), "venue-1", 42))

	select {
	case msg := <-sub.Channel():
		var update Update
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &update))
		assert.Equal(t, Update{VenueID: "venue-1", Score: 42}, update)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for score update")
	}
}

func TestPublisher_RepublishesOnEveryUpdate(t *testing.T) {
	mr, client := setupTestRedis(t)
	p := NewPublisher(client, "")
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, "venue-1", 10))
	require.NoError(t, p.Publish(ctx, "venue-1", 55))

	got, err := mr.Get("venue:venue-1:score")
	require.NoError(t, err)
	assert.Equal(t, "55", got)
}
