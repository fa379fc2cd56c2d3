package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuepulse/venuepulse/api/internal/models"
)

// PostgresRepository implements Repository on a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects and pings the database.
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

// Close releases the pool.
func (r *PostgresRepository) Close() { r.pool.Close() }

// Ping checks connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, email,
	))
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id,
	))
}

func (r *PostgresRepository) scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

func (r *PostgresRepository) ListVenues(ctx context.Context) ([]models.Venue, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, location_lat, location_lon, capacity, created_at
         FROM venues ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("select venues: %w", err)
	}
	defer rows.Close()

	var venues []models.Venue
	for rows.Next() {
		var v models.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Latitude, &v.Longitude, &v.Capacity, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate venues: %w", err)
	}
	return venues, nil
}

func (r *PostgresRepository) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	var v models.Venue
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, location_lat, location_lon, capacity, created_at
         FROM venues WHERE id = $1`, id,
	).Scan(&v.ID, &v.Name, &v.Latitude, &v.Longitude, &v.Capacity, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select venue: %w", err)
	}
	return &v, nil
}

func (r *PostgresRepository) WeeklyVolume(ctx context.Context, venueID string, until time.Time) (int64, error) {
	var volume int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0)
         FROM transactions
         WHERE venue_id = $1 AND timestamp >= $2 AND timestamp <= $3`,
		venueID, until.AddDate(0, 0, -7), until,
	).Scan(&volume)
	if err != nil {
		return 0, fmt.Errorf("sum weekly volume: %w", err)
	}
	return volume, nil
}

func (r *PostgresRepository) TrafficSeries(ctx context.Context, venueID string, since, until time.Time) ([]models.TrafficPoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT date_trunc('minute', timestamp) AS minute, SUM(quantity)
         FROM transactions
         WHERE venue_id = $1 AND timestamp >= $2 AND timestamp <= $3
         GROUP BY minute ORDER BY minute`,
		venueID, since, until,
	)
	if err != nil {
		return nil, fmt.Errorf("select traffic series: %w", err)
	}
	defer rows.Close()

	var series []models.TrafficPoint
	for rows.Next() {
		var p models.TrafficPoint
		if err := rows.Scan(&p.Minute, &p.Quantity); err != nil {
			return nil, fmt.Errorf("scan traffic point: %w", err)
		}
		series = append(series, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traffic series: %w", err)
	}
	return series, nil
}
