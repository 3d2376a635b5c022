// Package metrics holds the Prometheus collectors for search and ingestion.
// Collectors register on the default registry; serve exposes it at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "discover"

var (
	// ProviderRequests counts external provider calls by outcome
	// (ok, empty, error, breaker_open).
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "External search provider calls",
		},
		[]string{"provider", "outcome"},
	)

	// ProviderLatency tracks provider call duration.
	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_seconds",
			Help:      "External search provider call latency",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"provider"},
	)

	// SearchRequests counts queries by how they were served
	// (internal, fused, degraded, failed).
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Search requests by serving mode",
		},
		[]string{"mode"},
	)

	// IngestItems counts processed ingestion items by outcome.
	IngestItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_items_total",
			Help:      "Ingestion items by outcome",
		},
		[]string{"outcome"},
	)

	// IngestJobs counts jobs reaching a status.
	IngestJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_jobs_total",
			Help:      "Ingestion jobs by status reached",
		},
		[]string{"status"},
	)

	// IngestRetries counts fetch retries.
	IngestRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_retries_total",
			Help:      "Fetch retries during enriched ingestion",
		},
	)
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
