package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequestsTotal counts outbound calls to the open-data endpoint by outcome.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moa_upstream_requests_total",
			Help: "Total number of upstream market-data requests (by venue and outcome).",
		},
		[]string{"venue", "outcome"},
	)

	// UpstreamRequestDuration measures outbound call latency.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moa_upstream_request_duration_seconds",
			Help:    "Duration of upstream market-data requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms → ~20s
		},
		[]string{"venue"},
	)

	// RetrievalsTotal counts retrieval results per category, status and decision path.
	RetrievalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moa_retrievals_total",
			Help: "Retrieval outcomes by category, status and path (fresh, cache_only, fallback).",
		},
		[]string{"category", "status", "path"},
	)

	// SnapshotWritesTotal counts background snapshot writes.
	SnapshotWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moa_snapshot_writes_total",
			Help: "Snapshot writes by category and result.",
		},
		[]string{"category", "result"},
	)

	// EventsPublishedTotal counts JetStream publishes by subject and status.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moa_events_published_total",
			Help: "Total number of NATS events published (by subject and status).",
		},
		[]string{"subject", "status"},
	)

	// EventPublishLatency measures JetStream publish acknowledgement latency.
	EventPublishLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moa_event_publish_latency_seconds",
			Help:    "Latency of NATS JetStream publishes in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subject"},
	)

	// HookFailuresTotal counts failures in post-commit hooks (archive, publish, catalog).
	HookFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moa_commit_hook_failures_total",
			Help: "Failures of post-commit hooks by hook name.",
		},
		[]string{"hook"},
	)
)

// IncUpstreamRequest increments the upstream request counter.
func IncUpstreamRequest(venue, outcome string) {
	UpstreamRequestsTotal.WithLabelValues(venue, outcome).Inc()
}

// IncRetrieval increments the retrieval outcome counter.
func IncRetrieval(category, status, path string) {
	RetrievalsTotal.WithLabelValues(category, status, path).Inc()
}

// IncSnapshotWrite increments the snapshot write counter.
func IncSnapshotWrite(category, result string) {
	SnapshotWritesTotal.WithLabelValues(category, result).Inc()
}

// IncEventPublished increments the NATS publish counter.
func IncEventPublished(subject, status string) {
	EventsPublishedTotal.WithLabelValues(subject, status).Inc()
}

// IncHookFailure increments the post-commit hook failure counter.
func IncHookFailure(hook string) {
	HookFailuresTotal.WithLabelValues(hook).Inc()
}

// ObserveDuration records elapsed time since start into a HistogramVec or SummaryVec.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()
	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	}
}
