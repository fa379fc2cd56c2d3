// Package repository persists users and serves the venue and analytics reads
// behind the API.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/venuepulse/venuepulse/api/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrVenueNotFound  = errors.New("venue not found")
)

// Repository is the store surface the API needs.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	ListVenues(ctx context.Context) ([]models.Venue, error)
	GetVenue(ctx context.Context, id string) (*models.Venue, error)

	// WeeklyVolume sums transaction quantity for the venue over the 7 days
	// before until.
	WeeklyVolume(ctx context.Context, venueID string, until time.Time) (int64, error)

	// TrafficSeries aggregates per-minute quantity for the venue in
	// [since, until].
	TrafficSeries(ctx context.Context, venueID string, since, until time.Time) ([]models.TrafficPoint, error)

	Ping(ctx context.Context) error
}
