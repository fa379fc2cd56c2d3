// Package repository is the worker's view of the relational store: venue
// lookups and transaction persistence plus the aggregates the score
// calculator reads.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrVenueNotFound is returned when a venue ID is unknown to the store.
var ErrVenueNotFound = errors.New("venue not found")

// Postgres implements the worker's store access on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects and pings the database.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool.
func (r *Postgres) Close() { r.pool.Close() }

// Ping checks connectivity.
func (r *Postgres) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

// VenueCapacity returns the capacity of the venue, or ErrVenueNotFound.
func (r *Postgres) VenueCapacity(ctx context.Context, venueID string) (int, error) {
	var capacity int
	err := r.pool.QueryRow(ctx,
		`SELECT capacity FROM venues WHERE id = $1`, venueID,
	).Scan(&capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrVenueNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("select venue capacity: %w", err)
	}
	return capacity, nil
}

// InsertTransaction persists one transaction record inside its own
// transaction scope; any failure rolls the insert back entirely.
func (r *Postgres) InsertTransaction(ctx context.Context, venueID string, ts time.Time, quantity int) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO transactions (venue_id, timestamp, quantity) VALUES ($1, $2, $3)`,
			venueID, ts, quantity,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// SumQuantity returns the summed quantity for the venue in [since, until].
func (r *Postgres) SumQuantity(ctx context.Context, venueID string, since, until time.Time) (int64, error) {
	var sum int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0)
         FROM transactions
         WHERE venue_id = $1 AND timestamp >= $2 AND timestamp <= $3`,
		venueID, since, until,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum quantity: %w", err)
	}
	return sum, nil
}

// LatestEventTime returns the newest persisted transaction timestamp across
// all venues, or the zero time when the table is empty. This is the "virtual
// now" anchor when replaying simulated streams.
func (r *Postgres) LatestEventTime(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(timestamp) FROM transactions`).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("select latest event time: %w", err)
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}
