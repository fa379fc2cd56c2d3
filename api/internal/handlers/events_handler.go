package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/venuepulse/venuepulse/api/internal/relay"
	"github.com/venuepulse/venuepulse/common/logging"
	"github.com/venuepulse/venuepulse/common/middleware"
)

// heartbeatInterval keeps intermediaries from timing out quiet connections
// and lets the server notice dead clients.
const heartbeatInterval = 15 * time.Second

// EventsHandler streams live score updates over Server-Sent Events.
type EventsHandler struct {
	hub *relay.Hub
	log *logging.Logger
}

func NewEventsHandler(hub *relay.Hub, log *logging.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, log: log}
}

// Stream handles GET /events. Every update published on the score channel is
// written as one SSE data frame; the subscription ends when the client
// disconnects.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	updates, cancel := h.hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.log.InfoContext(r.Context(), "live feed client connected",
		"request_id", middleware.GetRequestID(r.Context()),
	)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.InfoContext(r.Context(), "live feed client disconnected")
			return
		case payload, ok := <-updates:
			if !ok {
				// Hub shut down; end the stream cleanly.
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
