// Package seeder populates the database with demo venues and users for
// local development.
package seeder

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Venue is a generated venue together with the secret key agents need to
// sign traffic for it. The secret is only printed at seed time.
type Venue struct {
	ID        string
	Name      string
	Latitude  float64
	Longitude float64
	Capacity  int
	SecretKey string
}

type Seeder struct {
	pool  *pgxpool.Pool
	faker *gofakeit.Faker
}

func New(pool *pgxpool.Pool) *Seeder {
	return &Seeder{pool: pool, faker: gofakeit.New(0)}
}

// RandomVenue generates a plausible venue with a fresh secret key.
func (s *Seeder) RandomVenue() (Venue, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return Venue{}, err
	}

	return Venue{
		ID:        uuid.NewString(),
		Name:      fmt.Sprintf("%s %s", s.faker.AdjectiveDescriptive(), s.faker.NounAbstract()),
		Latitude:  s.faker.Latitude(),
		Longitude: s.faker.Longitude(),
		Capacity:  s.faker.Number(40, 800),
		SecretKey: hex.EncodeToString(secret),
	}, nil
}

// SeedVenues inserts count generated venues and returns them, secrets
// included.
func (s *Seeder) SeedVenues(ctx context.Context, count int) ([]Venue, error) {
	venues := make([]Venue, 0, count)
	for i := 0; i < count; i++ {
		venue, err := s.RandomVenue()
		if err != nil {
			return nil, err
		}

		_, err = s.pool.Exec(ctx,
			`INSERT INTO venues (id, name, location_lat, location_lon, capacity, secret_key)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			venue.ID, venue.Name, venue.Latitude, venue.Longitude, venue.Capacity, venue.SecretKey,
		)
		if err != nil {
			return nil, fmt.Errorf("insert venue %q: %w", venue.Name, err)
		}

		venues = append(venues, venue)
	}
	return venues, nil
}

// SeedUser creates a login for the dashboard. Existing users with the same
// email are left untouched.
func (s *Seeder) SeedUser(ctx context.Context, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at)
         VALUES ($1, $2, $3, $4)
         ON CONFLICT (email) DO NOTHING`,
		id.String(), email, string(hash), time.Now().UTC(),
	)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() == 0 {
		return "", fmt.Errorf("user %s already exists", email)
	}

	return id.String(), nil
}
