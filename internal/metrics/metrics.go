// Package metrics holds the Prometheus instruments for the review server.
//
// Instruments register on the default registry through promauto and are
// served by the /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookreview_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookreview_api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Rating Aggregation Metrics
	AggregateRecalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_aggregate_recalculations_total",
			Help: "Total number of book rating recalculations",
		},
		[]string{"trigger"}, // "create", "update", "delete", "user_delete", "admin", "verify"
	)

	AggregateDriftDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookreview_aggregate_drift_total",
			Help: "Total number of books found with a stored aggregate that disagrees with their reviews",
		},
	)

	// Recommendation Metrics
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_recommendations_served_total",
			Help: "Total number of recommendations returned, by strategy",
		},
		[]string{"strategy"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookreview_recommendation_duration_seconds",
			Help:    "Time to build a recommendation list",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		},
		[]string{"list_type"},
	)

	// AI Client Metrics
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_ai_requests_total",
			Help: "Total number of AI completion requests, by operation and result",
		},
		[]string{"operation", "result"}, // result: "success", "failure", "rejected"
	)

	AIRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookreview_ai_request_duration_seconds",
			Help:    "AI completion request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookreview_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Cover Lookup Metrics
	CoverLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_cover_lookups_total",
			Help: "Total number of cover lookups, by source",
		},
		[]string{"source"}, // "cache", "openlibrary", "placeholder"
	)

	// Search Metrics
	SearchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_search_queries_total",
			Help: "Total number of catalog searches, by backend",
		},
		[]string{"backend"}, // "bleve", "sql"
	)
)

// RecordAPIRequest records one handled API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRecalculation counts a rating recompute.
func RecordRecalculation(trigger string) {
	AggregateRecalculations.WithLabelValues(trigger).Inc()
}

// RecordRecommendations counts served recommendations per strategy and the
// time taken to build the list.
func RecordRecommendations(listType string, strategies []string, duration time.Duration) {
	for _, s := range strategies {
		RecommendationsServed.WithLabelValues(s).Inc()
	}
	RecommendationDuration.WithLabelValues(listType).Observe(duration.Seconds())
}

// RecordAIRequest records an AI completion attempt.
func RecordAIRequest(operation, result string, duration time.Duration) {
	AIRequestsTotal.WithLabelValues(operation, result).Inc()
	if result != "rejected" {
		AIRequestDuration.Observe(duration.Seconds())
	}
}

// RecordCoverLookup counts a cover lookup by where the URL came from.
func RecordCoverLookup(source string) {
	CoverLookups.WithLabelValues(source).Inc()
}

// RecordSearch counts a catalog search by backend.
func RecordSearch(backend string) {
	SearchQueries.WithLabelValues(backend).Inc()
}
