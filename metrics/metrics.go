package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Tracks the number of HTTP requests.",
	}, []string{"method", "route", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Tracks the latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	relationshipOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "social_relationship_operations_total",
		Help: "Follow graph mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
)

func GetRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestsTotal,
		requestDuration,
		relationshipOperations,
	)

	return registry
}

func ObserveRequest(method, route, status string, seconds float64) {
	requestsTotal.WithLabelValues(method, route, status).Inc()
	requestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordRelationship counts a follow or unfollow. Outcome is one of
// "created", "unchanged", "removed" or "error".
func RecordRelationship(operation, outcome string) {
	relationshipOperations.WithLabelValues(operation, outcome).Inc()
}
