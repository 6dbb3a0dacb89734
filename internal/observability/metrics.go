package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RepositoryQueryLatency records repository call latency by operation and table.
	RepositoryQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkpost_repository_query_duration_seconds",
		Help:    "Repository call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LikeToggles counts like/dislike attempts by outcome.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkpost_like_toggle_total",
		Help: "Like and dislike attempts by outcome",
	}, []string{"action", "outcome"})

	// CacheRequests counts cache lookups by cache name and result (hit, miss, error).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkpost_cache_requests_total",
		Help: "Cache lookups by result",
	}, []string{"cache", "result"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkpost_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		RepositoryQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordLikeToggle counts one like or dislike attempt.
func RecordLikeToggle(action, outcome string) {
	LikeToggles.WithLabelValues(action, outcome).Inc()
}
