package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/venuepulse/venuepulse/api/internal/metrics"
	"github.com/venuepulse/venuepulse/api/internal/models"
	"github.com/venuepulse/venuepulse/api/internal/repository"
	"github.com/venuepulse/venuepulse/common/logging"
	"github.com/venuepulse/venuepulse/common/scores"
)

// DefaultAnalyticsCacheTTL keeps analytics responses hot for a short window;
// the queries behind them scan a week of transactions.
const DefaultAnalyticsCacheTTL = 30 * time.Second

// trafficSeriesWindow is the lookback for the per-minute series.
const trafficSeriesWindow = 2 * time.Hour

type VenueHandler struct {
	repo     repository.Repository
	rdb      *redis.Client
	cacheTTL time.Duration
	now      func() time.Time
	log      *logging.Logger
}

func NewVenueHandler(repo repository.Repository, rdb *redis.Client, cacheTTL time.Duration, log *logging.Logger) *VenueHandler {
	if cacheTTL <= 0 {
		cacheTTL = DefaultAnalyticsCacheTTL
	}
	return &VenueHandler{
		repo:     repo,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		now:      time.Now,
		log:      log,
	}
}

// ListVenues handles GET /venues.
func (h *VenueHandler) ListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.repo.ListVenues(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "list venues failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if venues == nil {
		venues = []models.Venue{}
	}
	writeJSON(w, http.StatusOK, venues)
}

// ListScores handles GET /scores: the last published score per venue, zero
// for venues that have not seen a transaction yet.
func (h *VenueHandler) ListScores(w http.ResponseWriter, r *http.Request) {
	venues, err := h.repo.ListVenues(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "list venues failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result := make([]models.VenueScore, 0, len(venues))
	for _, venue := range venues {
		value, err := h.lastScore(r.Context(), venue.ID)
		if err != nil {
			h.log.ErrorContext(r.Context(), "read score failed", logging.VenueID(venue.ID), logging.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		result = append(result, models.VenueScore{VenueID: venue.ID, Score: value})
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *VenueHandler) lastScore(ctx context.Context, venueID string) (int, error) {
	raw, err := h.rdb.Get(ctx, scores.Key(venueID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		// A mangled key reads as cold rather than failing the whole listing.
		return 0, nil
	}
	return value, nil
}

// Analytics handles GET /analytics/{venue_id}: a 7-day volume summary plus a
// per-minute traffic series, cached briefly in Redis.
func (h *VenueHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	venueID := r.PathValue("venue_id")
	if venueID == "" {
		writeError(w, http.StatusBadRequest, "venue_id is required")
		return
	}

	cacheKey := "analytics:" + venueID
	if cached, err := h.rdb.Get(r.Context(), cacheKey).Bytes(); err == nil {
		metrics.AnalyticsCacheHits.Inc()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}
	metrics.AnalyticsCacheMisses.Inc()

	if _, err := h.repo.GetVenue(r.Context(), venueID); err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			writeError(w, http.StatusNotFound, "venue not found")
			return
		}
		h.log.ErrorContext(r.Context(), "venue lookup failed", logging.VenueID(venueID), logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	until := h.now().UTC()
	volume, err := h.repo.WeeklyVolume(r.Context(), venueID, until)
	if err != nil {
		h.log.ErrorContext(r.Context(), "weekly volume failed", logging.VenueID(venueID), logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	series, err := h.repo.TrafficSeries(r.Context(), venueID, until.Add(-trafficSeriesWindow), until)
	if err != nil {
		h.log.ErrorContext(r.Context(), "traffic series failed", logging.VenueID(venueID), logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if series == nil {
		series = []models.TrafficPoint{}
	}

	analytics := models.Analytics{
		VenueID:       venueID,
		WeeklyVolume:  volume,
		TrafficSeries: series,
	}

	payload, err := json.Marshal(analytics)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.rdb.Set(r.Context(), cacheKey, payload, h.cacheTTL).Err(); err != nil {
		h.log.WarnContext(r.Context(), "analytics cache write failed", logging.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}
