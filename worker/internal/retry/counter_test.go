package retry

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCounter(t *testing.T) *Counter {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewCounter(client)
}

func TestCounter_BumpIncrements(t *testing.T) {
	c := newTestCounter(t)
	ctx := context.Background()

	for want := int64(1); want <= 4; want++ {
		n, err := c.Bump(ctx, "1700000000000-0")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
}

func TestCounter_IndependentEntries(t *testing.T) {
	c := newTestCounter(t)
	ctx := context.Background()

	_, err := c.Bump(ctx, "entry-a")
	require.NoError(t, err)
	n, err := c.Bump(ctx, "entry-b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCounter_ClearResets(t *testing.T) {
	c := newTestCounter(t)
	ctx := context.Background()

	_, err := c.Bump(ctx, "entry-a")
	require.NoError(t, err)
	_, err = c.Bump(ctx, "entry-a")
	require.NoError(t, err)

	require.NoError(t, c.Clear(ctx, "entry-a"))

	n, err := c.Bump(ctx, "entry-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCounter_ClearMissingIsNoOp(t *testing.T) {
	c := newTestCounter(t)
	assert.NoError(t, c.Clear(context.Background(), "never-seen"))
}
