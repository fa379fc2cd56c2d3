// Package handlers implements the HTTP surface of the ingestion gateway.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/venuepulse/venuepulse/common/logging"
	"github.com/venuepulse/venuepulse/common/signing"
	"github.com/venuepulse/venuepulse/common/stream"
	"github.com/venuepulse/venuepulse/ingest/internal/metrics"
	"github.com/venuepulse/venuepulse/ingest/internal/ratelimit"
	"github.com/venuepulse/venuepulse/ingest/internal/repository"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Signature"

// DefaultMaxBodySize bounds request bodies at 1 MiB.
const DefaultMaxBodySize = 1 << 20

// SecretStore resolves a venue's shared signing secret.
type SecretStore interface {
	VenueSecret(ctx context.Context, venueID string) (string, error)
}

// Appender is the slice of the stream store the gateway writes to.
type Appender interface {
	Append(ctx context.Context, fields map[string]any) (string, error)
}

// transactionRequest is the JSON body of POST /ingest.
type transactionRequest struct {
	VenueID          string `json:"venue_id"`
	Timestamp        string `json:"timestamp"`
	TransactionCount *int   `json:"transaction_count"`
}

// IngestHandler authenticates and enqueues transaction batches. It never
// touches the transactions table: persistence is the worker's job, and the
// gateway stays fast and stateless.
type IngestHandler struct {
	secrets     SecretStore
	appender    Appender
	limiter     ratelimit.RateLimiter
	maxBodySize int64
	log         *logging.Logger
}

// NewIngestHandler wires an IngestHandler. maxBodySize of zero or less falls
// back to DefaultMaxBodySize.
func NewIngestHandler(secrets SecretStore, appender Appender, limiter ratelimit.RateLimiter, maxBodySize int64, log *logging.Logger) *IngestHandler {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if limiter == nil {
		limiter = &ratelimit.NoOpRateLimiter{}
	}
	return &IngestHandler{
		secrets:     secrets,
		appender:    appender,
		limiter:     limiter,
		maxBodySize: maxBodySize,
		log:         log,
	}
}

// HandleIngest accepts one signed transaction batch and appends it to the
// incoming stream. The check order is deliberate: a missing signature is
// rejected before the body is even parsed, and the signature is verified
// against the venue's secret only after the venue is known to exist.
func (h *IngestHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.reject(w, r, http.StatusMethodNotAllowed, "method not allowed", "method")
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		h.reject(w, r, http.StatusUnauthorized, "Missing signature", "missing_signature")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBodySize+1))
	if err != nil {
		h.reject(w, r, http.StatusBadRequest, "Cannot read body", "body_read")
		return
	}
	if int64(len(body)) > h.maxBodySize {
		h.reject(w, r, http.StatusRequestEntityTooLarge, "Payload too large", "too_large")
		return
	}
	metrics.RequestBytesTotal.Add(float64(len(body)))

	var req transactionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.reject(w, r, http.StatusBadRequest, "Invalid JSON", "bad_json")
		return
	}
	if msg := validate(req); msg != "" {
		h.reject(w, r, http.StatusBadRequest, msg, "bad_schema")
		return
	}

	secret, err := h.secrets.VenueSecret(r.Context(), req.VenueID)
	if errors.Is(err, repository.ErrVenueNotFound) {
		h.reject(w, r, http.StatusNotFound, "Venue not found", "unknown_venue")
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "venue lookup failed", logging.VenueID(req.VenueID), logging.Error(err))
		h.reject(w, r, http.StatusInternalServerError, "Internal error", "lookup")
		return
	}

	// The signature covers the raw body bytes, not the decoded struct, so
	// re-encoding differences between clients cannot break verification.
	if err := signing.Verify(secret, body, signature); err != nil {
		h.reject(w, r, http.StatusForbidden, "Invalid signature", "bad_signature")
		return
	}

	allowed, err := h.limiter.Allow(r.Context(), req.VenueID)
	if err != nil {
		h.log.WarnContext(r.Context(), "rate limit check failed, allowing", logging.Error(err))
	} else if !allowed {
		h.reject(w, r, http.StatusTooManyRequests, "Rate limit exceeded", "rate_limited")
		return
	}

	start := time.Now()
	entryID, err := h.appender.Append(r.Context(), map[string]any{
		stream.FieldVenueID:    req.VenueID,
		stream.FieldTimestamp:  req.Timestamp,
		stream.FieldQuantity:   strconv.Itoa(*req.TransactionCount),
		stream.FieldRawPayload: string(body),
	})
	if err != nil {
		metrics.AppendErrors.Inc()
		h.log.ErrorContext(r.Context(), "stream append failed", logging.VenueID(req.VenueID), logging.Error(err))
		h.reject(w, r, http.StatusInternalServerError, "Internal error", "append")
		return
	}
	metrics.AppendDuration.Observe(time.Since(start).Seconds())
	metrics.RequestsTotal.WithLabelValues(strconv.Itoa(http.StatusAccepted)).Inc()

	h.log.InfoContext(r.Context(), "transaction queued",
		logging.VenueID(req.VenueID),
		logging.EntryID(entryID),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
}

// validate returns an empty string when req is well formed.
func validate(req transactionRequest) string {
	if req.VenueID == "" {
		return "venue_id is required"
	}
	if req.TransactionCount == nil {
		return "transaction_count is required"
	}
	if *req.TransactionCount < 0 {
		return "transaction_count must not be negative"
	}
	if req.Timestamp == "" {
		return "timestamp is required"
	}
	if _, err := time.Parse(time.RFC3339, req.Timestamp); err != nil {
		return "timestamp must be RFC 3339"
	}
	return ""
}

func (h *IngestHandler) reject(w http.ResponseWriter, r *http.Request, status int, detail, reason string) {
	metrics.RequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	metrics.RejectedTotal.WithLabelValues(reason).Inc()

	h.log.WarnContext(r.Context(), "request rejected",
		logging.Status(status),
		"reason", reason,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// Health reports liveness.
func (h *IngestHandler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Pinger checks a dependency's connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyHandler reports readiness once all dependencies respond.
type ReadyHandler struct {
	deps map[string]Pinger
}

// NewReadyHandler wires a ReadyHandler over named dependencies.
func NewReadyHandler(deps map[string]Pinger) *ReadyHandler {
	return &ReadyHandler{deps: deps}
}

// Ready pings every dependency and fails on the first one down.
func (h *ReadyHandler) Ready(w http.ResponseWriter, r *http.Request) {
	for name, dep := range h.deps {
		if err := dep.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "dependency": name})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
