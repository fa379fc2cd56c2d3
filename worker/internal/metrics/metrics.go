package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Delivery outcomes
	EntriesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuepulse_worker_entries_processed_total",
			Help: "Total number of stream entries processed successfully",
		},
	)

	EntriesRetried = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuepulse_worker_entries_retried_total",
			Help: "Total number of failed deliveries left pending for redelivery",
		},
	)

	EntriesQuarantined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuepulse_worker_entries_quarantined_total",
			Help: "Total number of entries moved to the dead-letter log",
		},
	)

	EntriesReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuepulse_worker_entries_reclaimed_total",
			Help: "Total number of orphaned pending entries reclaimed by the sweep",
		},
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venuepulse_worker_processing_duration_seconds",
			Help:    "Duration of per-entry processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Read-loop health
	ReadErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuepulse_worker_read_errors_total",
			Help: "Total number of stream read failures",
		},
	)

	ScoresPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuepulse_worker_scores_published_total",
			Help: "Total number of score updates published",
		},
	)
)
