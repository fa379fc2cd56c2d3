package handlers

import (
	"context"
	"net/http"
)

// Pinger checks a dependency's connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	deps map[string]Pinger
}

func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Health reports liveness.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready pings every dependency and fails on the first one down.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	for name, dep := range h.deps {
		if err := dep.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable,
				map[string]string{"status": "unavailable", "dependency": name})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
