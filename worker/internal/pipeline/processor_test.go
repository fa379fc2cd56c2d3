package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuepulse/venuepulse/common/stream"
	"github.com/venuepulse/venuepulse/worker/internal/repository"
)

type fakeRepo struct {
	capacity    int
	capacityErr error
	insertErr   error
	inserted    []TransactionEvent
}

func (f *fakeRepo) VenueCapacity(_ context.Context, _ string) (int, error) {
	return f.capacity, f.capacityErr
}

func (f *fakeRepo) InsertTransaction(_ context.Context, venueID string, ts time.Time, quantity int) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, TransactionEvent{VenueID: venueID, Timestamp: ts, Quantity: quantity})
	return nil
}

type fakeScorer struct {
	value int
	err   error
}

func (f *fakeScorer) Score(_ context.Context, _ string, _ int) (int, error) {
	return f.value, f.err
}

type fakePublisher struct {
	err       error
	published []int
}

func (f *fakePublisher) Publish(_ context.Context, _ string, value int) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, value)
	return nil
}

func testEvent() TransactionEvent {
	return TransactionEvent{
		VenueID:   "venue-1",
		Timestamp: time.Date(2024, 6, 1, 22, 15, 0, 0, time.UTC),
		Quantity:  4,
	}
}

func TestProcessor_SuccessPersistsAndPublishes(t *testing.T) {
	repo := &fakeRepo{capacity: 200}
	pub := &fakePublisher{}
	p := NewProcessor(repo, &fakeScorer{value: 42}, pub, discardLogger())

	err := p.Process(context.Background(), testEvent())
	require.NoError(t, err)

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, "venue-1", repo.inserted[0].VenueID)
	assert.Equal(t, []int{42}, pub.published)
}

func TestProcessor_UnknownVenue(t *testing.T) {
	repo := &fakeRepo{capacityErr: repository.ErrVenueNotFound}
	pub := &fakePublisher{}
	p := NewProcessor(repo, &fakeScorer{}, pub, discardLogger())

	err := p.Process(context.Background(), testEvent())
	require.ErrorIs(t, err, repository.ErrVenueNotFound)

	assert.Empty(t, repo.inserted, "nothing persisted for unknown venues")
	assert.Empty(t, pub.published)
}

func TestProcessor_InsertFailureStopsPipeline(t *testing.T) {
	repo := &fakeRepo{capacity: 200, insertErr: errors.New("db down")}
	pub := &fakePublisher{}
	p := NewProcessor(repo, &fakeScorer{value: 42}, pub, discardLogger())

	err := p.Process(context.Background(), testEvent())
	require.Error(t, err)
	assert.Empty(t, pub.published, "no score published when the transaction was not persisted")
}

func TestProcessor_PublishFailureSurfaces(t *testing.T) {
	repo := &fakeRepo{capacity: 200}
	p := NewProcessor(repo, &fakeScorer{value: 42}, &fakePublisher{err: errors.New("redis down")}, discardLogger())

	err := p.Process(context.Background(), testEvent())
	require.Error(t, err)
	// The insert already happened; redelivery makes the pipeline
	// at-least-once, not exactly-once.
	assert.Len(t, repo.inserted, 1)
}

func TestDecodeEntry(t *testing.T) {
	valid := map[string]string{
		stream.FieldVenueID:   "venue-1",
		stream.FieldTimestamp: "2024-06-01T22:15:00Z",
		stream.FieldQuantity:  "4",
	}

	ev, err := decodeEntry(valid)
	require.NoError(t, err)
	assert.Equal(t, "venue-1", ev.VenueID)
	assert.Equal(t, 4, ev.Quantity)
	assert.Equal(t, time.Date(2024, 6, 1, 22, 15, 0, 0, time.UTC), ev.Timestamp.UTC())

	cases := map[string]map[string]string{
		"missing venue":      {stream.FieldTimestamp: "2024-06-01T22:15:00Z", stream.FieldQuantity: "4"},
		"bad timestamp":      {stream.FieldVenueID: "venue-1", stream.FieldTimestamp: "yesterday", stream.FieldQuantity: "4"},
		"missing timestamp":  {stream.FieldVenueID: "venue-1", stream.FieldQuantity: "4"},
		"bad quantity":       {stream.FieldVenueID: "venue-1", stream.FieldTimestamp: "2024-06-01T22:15:00Z", stream.FieldQuantity: "many"},
		"negative quantity":  {stream.FieldVenueID: "venue-1", stream.FieldTimestamp: "2024-06-01T22:15:00Z", stream.FieldQuantity: "-1"},
		"no fields":          {},
	}
	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeEntry(fields)
			require.Error(t, err)
			var decodeErr *DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}
