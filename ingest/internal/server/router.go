package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/venuepulse/venuepulse/common/middleware"
	"github.com/venuepulse/venuepulse/ingest/internal/handlers"
)

// NewRouter constructs a ServeMux with gateway routes registered.
func NewRouter(h *handlers.IngestHandler, ready *handlers.ReadyHandler) http.Handler {
	mux := http.NewServeMux()

	// Ingestion endpoint
	mux.HandleFunc("/ingest", h.HandleIngest)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", ready.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
