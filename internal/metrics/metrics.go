// Package metrics provides Prometheus metrics for the aggregator backend
// (RED for the HTTP surface plus pipeline-level counters).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "addonhub"

var (
	// HTTPRequestTotal counts requests by method, path, status (RED: rate).
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, path, and status.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds is request latency histogram (RED: duration).
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10), // 1ms to ~9.3s
		},
		[]string{"method", "path"},
	)

	// ManifestBuildDurationSeconds tracks full fetch-merge pipeline runs.
	ManifestBuildDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "manifest_build_duration_seconds",
			Help:      "Manifest aggregation (fetch-merge) duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
	)

	// AddonFetchFailuresTotal counts per-addon metadata fetches that were
	// skipped from the merged manifest.
	AddonFetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "addon_fetch_failures_total",
			Help:      "Total number of failed per-addon metadata fetches.",
		},
		[]string{"addon"},
	)

	// ManifestCacheHitsTotal counts manifest requests served from cache.
	ManifestCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manifest_cache_hits_total",
			Help:      "Total number of manifest requests served from the TTL cache.",
		},
	)
)
