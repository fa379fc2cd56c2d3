package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuepulse_ingest_requests_total",
			Help: "Total number of ingestion requests by outcome status code",
		},
		[]string{"status"},
	)

	RequestBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuepulse_ingest_request_bytes_total",
			Help: "Total bytes of request payloads received",
		},
	)

	// Rejection metrics
	RejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuepulse_ingest_rejected_total",
			Help: "Total number of rejected ingestion requests by reason",
		},
		[]string{"reason"},
	)

	// Stream metrics
	AppendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venuepulse_ingest_append_duration_seconds",
			Help:    "Duration of stream append operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AppendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuepulse_ingest_append_errors_total",
			Help: "Total number of failed stream appends",
		},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuepulse_ingest_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"venue"},
	)
)
