package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Live feed metrics
	SubscribersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "venuepulse_api_subscribers_connected",
			Help: "Number of currently connected live score subscribers",
		},
	)

	ScoreUpdatesRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuepulse_api_score_updates_relayed_total",
			Help: "Total number of score updates fanned out to subscribers",
		},
	)

	UpdatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuepulse_api_updates_dropped_total",
			Help: "Total number of updates dropped because a subscriber was too slow",
		},
	)

	// Analytics cache metrics
	AnalyticsCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuepulse_api_analytics_cache_hits_total",
			Help: "Total number of analytics responses served from cache",
		},
	)

	AnalyticsCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuepulse_api_analytics_cache_misses_total",
			Help: "Total number of analytics responses computed from the database",
		},
	)
)
