// Package metrics exposes Prometheus counters for sync activity. The
// collectors are registered on the default registry and served by the status
// server at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnipeITCalls counts destination API calls by operation
	// (prewarm, entity_search, entity_create, asset_search, asset_create,
	// asset_update).
	SnipeITCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "merakisync",
		Name:      "snipeit_api_calls_total",
		Help:      "Snipe-IT API calls issued, by operation.",
	}, []string{"operation"})

	// DevicesProcessed counts per-device outcomes (created, updated, failed).
	DevicesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "merakisync",
		Name:      "devices_processed_total",
		Help:      "Devices processed by the sync, by outcome.",
	}, []string{"outcome"})

	// Runs counts sync runs by final status (completed, failed).
	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "merakisync",
		Name:      "runs_total",
		Help:      "Sync runs, by final status.",
	}, []string{"status"})

	// RunDuration observes wall-clock duration of completed runs.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "merakisync",
		Name:      "run_duration_seconds",
		Help:      "Duration of completed sync runs.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
)
