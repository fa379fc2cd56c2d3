// Package models holds the read API's wire and storage types.
package models

import "time"

// User is an API account. The password hash never leaves the service.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Venue is the public view of a registered venue. The signing secret is
// deliberately absent: it is only ever read by the ingestion gateway.
type Venue struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
}

// VenueScore pairs a venue with its last published hotness score.
type VenueScore struct {
	VenueID string `json:"venue_id"`
	Score   int    `json:"score"`
}

// TrafficPoint is one minute of aggregated transaction volume.
type TrafficPoint struct {
	Minute   time.Time `json:"minute"`
	Quantity int64     `json:"quantity"`
}

// Analytics is the per-venue traffic report.
type Analytics struct {
	VenueID       string         `json:"venue_id"`
	WeeklyVolume  int64          `json:"weekly_volume"`
	TrafficSeries []TrafficPoint `json:"traffic_series"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
