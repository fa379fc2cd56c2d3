// Package score derives the bounded hotness metric for a venue from its
// recently persisted transactions.
package score

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Defaults for the scoring window and saturation behaviour.
const (
	DefaultWindow = 30 * time.Minute

	// DefaultScalingFactor makes the score saturate at half of raw capacity,
	// which keeps the metric lively for venues that rarely fill completely.
	DefaultScalingFactor = 0.5
)

// Store provides the persisted-transaction aggregates the calculator reads.
type Store interface {
	// SumQuantity returns the summed transaction quantity for the venue in
	// [since, until].
	SumQuantity(ctx context.Context, venueID string, since, until time.Time) (int64, error)

	// LatestEventTime returns the most recent persisted transaction timestamp
	// across all venues, or the zero time when none exist.
	LatestEventTime(ctx context.Context) (time.Time, error)
}

// Config tunes the calculator.
type Config struct {
	// Window is the lookback duration, anchored at the reference time.
	Window time.Duration

	// ScalingFactor scales capacity before the score saturates.
	ScalingFactor float64

	// VirtualTime anchors the window at the newest persisted event instead of
	// the wall clock. Required when replaying historical or simulated streams
	// whose timestamps have nothing to do with the current time.
	VirtualTime bool
}

// Calculator computes hotness scores. It is a pure function of persisted
// state at call time: scores are recomputable and never a source of truth.
type Calculator struct {
	store   Store
	window  time.Duration
	scaling float64
	virtual bool
	now     func() time.Time
}

// NewCalculator returns a Calculator over store. Zero config fields fall back
// to the defaults above.
func NewCalculator(store Store, cfg Config) *Calculator {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.ScalingFactor <= 0 {
		cfg.ScalingFactor = DefaultScalingFactor
	}
	return &Calculator{
		store:   store,
		window:  cfg.Window,
		scaling: cfg.ScalingFactor,
		virtual: cfg.VirtualTime,
		now:     time.Now,
	}
}

// Score returns the hotness score in [0,100] for the venue. Capacity of zero
// or less yields zero by convention, with no division.
func (c *Calculator) Score(ctx context.Context, venueID string, capacity int) (int, error) {
	if capacity <= 0 {
		return 0, nil
	}

	ref := c.now().UTC()
	if c.virtual {
		latest, err := c.store.LatestEventTime(ctx)
		if err != nil {
			return 0, fmt.Errorf("resolve virtual now: %w", err)
		}
		if !latest.IsZero() {
			ref = latest
		}
	}

	sum, err := c.store.SumQuantity(ctx, venueID, ref.Add(-c.window), ref)
	if err != nil {
		return 0, fmt.Errorf("sum quantity for %s: %w", venueID, err)
	}

	raw := math.Round(100 * float64(sum) / (float64(capacity) * c.scaling))
	return clamp(int(raw), 0, 100), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
