package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/venuepulse/venuepulse/common/logging"
)

// Repository is the slice of the external store the processor needs.
// InsertTransaction must be atomic: implementations run the insert inside a
// transaction that is rolled back entirely on failure.
type Repository interface {
	VenueCapacity(ctx context.Context, venueID string) (int, error)
	InsertTransaction(ctx context.Context, venueID string, ts time.Time, quantity int) error
}

// Scorer computes the hotness score for a venue.
type Scorer interface {
	Score(ctx context.Context, venueID string, capacity int) (int, error)
}

// Publisher stores and broadcasts a score update.
type Publisher interface {
	Publish(ctx context.Context, venueID string, value int) error
}

// Processor executes the success path for one decoded event: persist the
// transaction, recompute the venue's score, publish the update. The steps run
// sequentially; an error anywhere surfaces to the worker's retry handling.
type Processor struct {
	repo   Repository
	scorer Scorer
	pub    Publisher
	log    *logging.Logger
}

// NewProcessor wires a Processor.
func NewProcessor(repo Repository, scorer Scorer, pub Publisher, log *logging.Logger) *Processor {
	return &Processor{repo: repo, scorer: scorer, pub: pub, log: log}
}

// Process persists ev and publishes the venue's recomputed score.
func (p *Processor) Process(ctx context.Context, ev TransactionEvent) error {
	capacity, err := p.repo.VenueCapacity(ctx, ev.VenueID)
	if err != nil {
		return fmt.Errorf("look up venue %s: %w", ev.VenueID, err)
	}

	if err := p.repo.InsertTransaction(ctx, ev.VenueID, ev.Timestamp, ev.Quantity); err != nil {
		return fmt.Errorf("persist transaction: %w", err)
	}

	value, err := p.scorer.Score(ctx, ev.VenueID, capacity)
	if err != nil {
		return fmt.Errorf("compute score: %w", err)
	}

	if err := p.pub.Publish(ctx, ev.VenueID, value); err != nil {
		return fmt.Errorf("publish score: %w", err)
	}

	p.log.DebugContext(ctx, "transaction processed",
		logging.VenueID(ev.VenueID),
		logging.Score(value),
	)
	return nil
}
