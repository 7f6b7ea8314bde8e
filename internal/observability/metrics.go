package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	homeFeedServed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cruddur",
		Subsystem: "home_feed",
		Name:      "requests_served_total",
		Help:      "Number of home feed responses returned to callers.",
	})
	homeFeedFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cruddur",
		Subsystem: "home_feed",
		Name:      "failures_total",
		Help:      "Number of home feed lookups that failed, labeled by reason.",
	}, []string{"reason"})
	homeFeedSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cruddur",
		Subsystem: "home_feed",
		Name:      "result_length",
		Help:      "Number of activities returned per home feed lookup.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
	activityIngestedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cruddur",
		Subsystem: "ingest",
		Name:      "last_activity_ingested_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity written to Postgres.",
	})
)

func init() {
	prometheus.MustRegister(homeFeedServed, homeFeedFailures, homeFeedSize, activityIngestedGauge)
}

// Failure reasons for RecordHomeFeedFailure.
const (
	ReasonEmpty    = "empty"
	ReasonUpstream = "upstream"
)

// RecordHomeFeedServed counts a successful lookup and its result length.
func RecordHomeFeedServed(resultLength int) {
	homeFeedServed.Inc()
	homeFeedSize.Observe(float64(resultLength))
}

// RecordHomeFeedFailure counts a failed lookup.
func RecordHomeFeedFailure(reason string) {
	homeFeedFailures.WithLabelValues(reason).Inc()
}

// RecordActivityIngested updates the ingest watermark gauge.
func RecordActivityIngested(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityIngestedGauge.Set(float64(ts.Unix()))
}
