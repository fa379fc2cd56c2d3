// Package repository is the gateway's read-only view of the venue registry:
// signature secrets only, looked up per request.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrVenueNotFound is returned when a venue ID is unknown to the registry.
var ErrVenueNotFound = errors.New("venue not found")

// Postgres looks venues up on a pgx pool.
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

// VenueSecret returns the shared signing secret for the venue, or
// ErrVenueNotFound.
func (r *Postgres) VenueSecret(ctx context.Context, venueID string) (string, error) {
	var secret string
	err := r.pool.QueryRow(ctx,
		`SELECT secret_key FROM venues WHERE id = $1`, venueID,
	).Scan(&secret)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrVenueNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select venue secret: %w", err)
	}
	return secret, nil
}
