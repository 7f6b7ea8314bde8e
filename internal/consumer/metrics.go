package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Reasons a message is committed without being stored.
const (
	dropMalformed     = "malformed"
	dropInvalid       = "invalid_activity"
	dropUnknownHandle = "unknown_handle"
)

var (
	ingestedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cruddur",
		Subsystem: "ingest",
		Name:      "messages_committed_total",
		Help:      "Messages handled and committed, by topic and event type.",
	}, []string{"topic", "event_type"})

	retryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cruddur",
		Subsystem: "ingest",
		Name:      "messages_retried_total",
		Help:      "Messages left uncommitted after a handler error, by topic and event type.",
	}, []string{"topic", "event_type"})

	droppedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cruddur",
		Subsystem: "ingest",
		Name:      "messages_dropped_total",
		Help:      "Messages committed without storing an activity, by topic and reason.",
	}, []string{"topic", "reason"})

	committedAtGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cruddur",
		Subsystem: "ingest",
		Name:      "last_committed_message_timestamp_seconds",
		Help:      "Kafka timestamp of the newest committed message per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(ingestedCounter, retryCounter, droppedCounter, committedAtGauge)
}

func recordCommitted(msg Message) {
	ingestedCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
	if !msg.Timestamp.IsZero() {
		committedAtGauge.WithLabelValues(msg.Topic).Set(float64(msg.Timestamp.Unix()))
	}
}

func recordRetry(msg Message) {
	retryCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
}

func recordDropped(topic, reason string) {
	droppedCounter.WithLabelValues(topic, reason).Inc()
}
