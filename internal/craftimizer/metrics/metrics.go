// Package metrics defines the Prometheus collectors for the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine metrics
var (
	CatalogLookupMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "craftimizer_catalog_lookup_misses_total",
			Help: "Catalog lookups that found no item definition",
		},
	)

	CyclicRecipeCutoffs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "craftimizer_cyclic_recipe_cutoffs_total",
			Help: "Recipe branches cut off because of a dependency cycle",
		},
	)

	RecomputePasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "craftimizer_recompute_passes_total",
			Help: "Full cost recompute passes executed",
		},
	)

	RecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "craftimizer_recompute_duration_seconds",
			Help:    "Duration of full cost recompute passes",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craftimizer_http_requests_total",
			Help: "HTTP requests processed, by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "craftimizer_http_request_duration_seconds",
			Help:    "HTTP request latency, by method and path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Sync metrics
var (
	CatalogSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craftimizer_catalog_syncs_total",
			Help: "Catalog sync runs, by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "craftimizer_catalog_items",
			Help: "Items currently stored in the catalog",
		},
	)
)
