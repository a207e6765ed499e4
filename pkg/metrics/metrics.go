// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ThreadsCreated tracks total threads created.
	ThreadsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dm_threads_created_total",
			Help: "Total threads created",
		},
	)

	// MessagesCreated tracks total messages created.
	MessagesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dm_messages_created_total",
			Help: "Total messages created",
		},
	)

	// MessagesMarkedRead tracks total messages marked as read.
	MessagesMarkedRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dm_messages_marked_read_total",
			Help: "Total messages marked as read",
		},
	)

	// UnreadCacheHits tracks unread-count queries served from cache.
	UnreadCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dm_unread_cache_hits_total",
			Help: "Unread-count queries served from cache",
		},
	)

	// EventPublishFailures tracks failed domain-event publishes.
	EventPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dm_event_publish_failures_total",
			Help: "Failed domain-event publishes",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}
