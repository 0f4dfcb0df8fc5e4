// Package metrics registers the Prometheus collectors for the stream resolution core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytplay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytplay_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytplay_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Cache metrics
var (
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytplay_stream_cache_hits_total",
			Help: "Total number of stream cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytplay_stream_cache_misses_total",
			Help: "Total number of stream cache misses",
		},
	)

	CacheSharedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytplay_stream_cache_shared_total",
			Help: "Total number of callers that joined an in-flight resolution",
		},
	)

	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytplay_stream_cache_evictions_total",
			Help: "Total number of stream cache evictions",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytplay_stream_cache_entries",
			Help: "Number of cached stream descriptors",
		},
	)
)

// Resolver metrics
var (
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytplay_resolutions_total",
			Help: "Total number of stream resolutions by outcome",
		},
		[]string{"outcome"}, // "ok", "network_failure", "extraction_failed", "no_playable_stream", "not_found"
	)

	ResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ytplay_resolution_duration_seconds",
			Help:    "Stream resolution duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	ResolutionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytplay_resolutions_in_flight",
			Help: "Number of stream resolutions currently running",
		},
	)
)

// Data source metrics
var (
	DataSourceOpensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytplay_datasource_opens_total",
			Help: "Total number of data source opens by locator kind and status",
		},
		[]string{"kind", "status"}, // kind: "remote", "http", "file"
	)

	DataSourceBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytplay_datasource_bytes_total",
			Help: "Total bytes served by data sources",
		},
		[]string{"kind"},
	)
)

// Library metrics
var (
	LibraryImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytplay_library_imports_total",
			Help: "Total number of tracks imported into the library",
		},
		[]string{"kind", "status"},
	)
)
