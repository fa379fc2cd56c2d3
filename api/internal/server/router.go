package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/venuepulse/venuepulse/api/internal/handlers"
	apimw "github.com/venuepulse/venuepulse/api/internal/middleware"
	"github.com/venuepulse/venuepulse/common/middleware"
)

// NewRouter constructs a ServeMux with API routes registered.
func NewRouter(
	auth *handlers.AuthHandler,
	venues *handlers.VenueHandler,
	events *handlers.EventsHandler,
	health *handlers.HealthHandler,
	authMW *apimw.AuthMiddleware,
	cors middleware.CORSConfig,
) http.Handler {
	mux := http.NewServeMux()

	// Auth endpoints
	mux.HandleFunc("POST /auth/register", auth.Register)
	mux.HandleFunc("POST /auth/login", auth.Login)
	mux.HandleFunc("GET /auth/me", authMW.RequireAuth(auth.Me))

	// Venue endpoints
	mux.HandleFunc("GET /venues", authMW.RequireAuth(venues.ListVenues))
	mux.HandleFunc("GET /scores", authMW.RequireAuth(venues.ListScores))
	mux.HandleFunc("GET /analytics/{venue_id}", authMW.RequireAuth(venues.Analytics))

	// Live score feed
	mux.HandleFunc("GET /events", authMW.RequireAuth(events.Stream))

	// Health endpoints
	mux.HandleFunc("/healthz", health.Health)
	mux.HandleFunc("/readyz", health.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(middleware.CORS(cors)(mux))
}
