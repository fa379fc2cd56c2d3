// Package scores is the shared contract for last-known venue scores: the
// Redis key schema, the pub/sub channel and the update wire format. The
// worker publishes through it and the API reads and relays through it.
package scores

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel score updates are announced on.
const DefaultChannel = "updates:venue_scores"

// Update is the wire format pushed to subscribers on every score change.
type Update struct {
	VenueID string `json:"venue_id"`
	Score   int    `json:"score"`
}

// Key returns the Redis key holding the last-known score for a venue. The
// value is ephemeral: it is republished on every update and recomputable from
// persisted transactions.
func Key(venueID string) string {
	return fmt.Sprintf("venue:%s:score", venueID)
}

// Publisher stores the latest score and announces it on the update channel.
type Publisher struct {
	rdb     *redis.Client
	channel string
}

// NewPublisher returns a Publisher on channel, defaulting to DefaultChannel.
func NewPublisher(rdb *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{rdb: rdb, channel: channel}
}

// Channel returns the pub/sub channel name.
func (p *Publisher) Channel() string { return p.channel }

// Publish writes the last-known score key and broadcasts the update. The
// broadcast is best effort: subscribers connected after the publish miss it.
func (p *Publisher) Publish(ctx context.Context, venueID string, value int) error {
	if err := p.rdb.Set(ctx, Key(venueID), value, 0).Err(); err != nil {
		return fmt.Errorf("set score key for %s: %w", venueID, err)
	}

	payload, err := json.Marshal(Update{VenueID: venueID, Score: value})
	if err != nil {
		return fmt.Errorf("marshal score update: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish score update for %s: %w", venueID, err)
	}
	return nil
}
