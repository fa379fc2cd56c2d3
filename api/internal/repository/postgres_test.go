package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/venuepulse/venuepulse/api/internal/models"
)

// setupTestDatabase creates a PostgreSQL testcontainer and runs migrations.
func setupTestDatabase(t *testing.T) *PostgresRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("venuepulse_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, runMigrations(connStr))

	repo, err := NewPostgresRepository(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	return repo
}

// runMigrations applies the initial schema from the migrations directory.
func runMigrations(connStr string) error {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrationPath := filepath.Join("..", "..", "..", "migrations", "001_init.up.sql")
	migrationSQL, err := os.ReadFile(migrationPath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	return nil
}

func insertVenue(t *testing.T, repo *PostgresRepository, name string, capacity int) string {
	t.Helper()
	id := uuid.NewString()
	_, err := repo.pool.Exec(context.Background(),
		`INSERT INTO venues (id, name, location_lat, location_lon, capacity, secret_key)
         VALUES ($1, $2, 52.37, 4.89, $3, 'test-secret')`,
		id, name, capacity,
	)
	require.NoError(t, err)
	return id
}

func insertTransaction(t *testing.T, repo *PostgresRepository, venueID string, ts time.Time, quantity int) {
	t.Helper()
	_, err := repo.pool.Exec(context.Background(),
		`INSERT INTO transactions (venue_id, timestamp, quantity) VALUES ($1, $2, $3)`,
		venueID, ts, quantity,
	)
	require.NoError(t, err)
}

func TestUsers(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        "owner@example.com",
		PasswordHash: "hashed",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.CreateUser(ctx, user))

	t.Run("duplicate email", func(t *testing.T) {
		dup := &models.User{
			ID:           uuid.NewString(),
			Email:        "owner@example.com",
			PasswordHash: "hashed",
			CreatedAt:    time.Now().UTC(),
		}
		assert.ErrorIs(t, repo.CreateUser(ctx, dup), ErrDuplicateEmail)
	})

	t.Run("get by email", func(t *testing.T) {
		got, err := repo.GetUserByEmail(ctx, "owner@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "hashed", got.PasswordHash)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = repo.GetUserByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestVenues(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()

	anchorID := insertVenue(t, repo, "The Anchor", 200)
	insertVenue(t, repo, "Borealis", 80)

	t.Run("list is ordered by name", func(t *testing.T) {
		venues, err := repo.ListVenues(ctx)
		require.NoError(t, err)
		require.Len(t, venues, 2)
		assert.Equal(t, "Borealis", venues[0].Name)
		assert.Equal(t, "The Anchor", venues[1].Name)
	})

	t.Run("get venue", func(t *testing.T) {
		venue, err := repo.GetVenue(ctx, anchorID)
		require.NoError(t, err)
		assert.Equal(t, "The Anchor", venue.Name)
		assert.Equal(t, 200, venue.Capacity)
	})

	t.Run("unknown venue", func(t *testing.T) {
		_, err := repo.GetVenue(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrVenueNotFound)
	})
}

func TestAnalyticsQueries(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()

	venueID := insertVenue(t, repo, "The Anchor", 200)
	now := time.Date(2024, 6, 8, 22, 0, 0, 0, time.UTC)

	insertTransaction(t, repo, venueID, now.Add(-10*time.Minute), 4)
	insertTransaction(t, repo, venueID, now.Add(-10*time.Minute).Add(20*time.Second), 6)
	insertTransaction(t, repo, venueID, now.Add(-5*time.Minute), 3)
	insertTransaction(t, repo, venueID, now.AddDate(0, 0, -3), 50)
	// Outside the 7-day window.
	insertTransaction(t, repo, venueID, now.AddDate(0, 0, -8), 1000)

	t.Run("weekly volume", func(t *testing.T) {
		volume, err := repo.WeeklyVolume(ctx, venueID, now)
		require.NoError(t, err)
		assert.Equal(t, int64(63), volume)
	})

	t.Run("traffic series groups by minute", func(t *testing.T) {
		series, err := repo.TrafficSeries(ctx, venueID, now.Add(-time.Hour), now)
		require.NoError(t, err)
		require.Len(t, series, 2)
		assert.Equal(t, int64(10), series[0].Quantity, "same-minute rows are summed")
		assert.Equal(t, int64(3), series[1].Quantity)
		assert.True(t, series[0].Minute.Before(series[1].Minute))
	})

	t.Run("empty series for quiet venue", func(t *testing.T) {
		quietID := insertVenue(t, repo, "Quiet Corner", 40)
		series, err := repo.TrafficSeries(ctx, quietID, now.Add(-time.Hour), now)
		require.NoError(t, err)
		assert.Empty(t, series)
	})
}
