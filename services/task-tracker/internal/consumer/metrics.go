package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	processedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "task_tracker",
		Subsystem: "consumer",
		Name:      "events_processed_total",
		Help:      "Number of user events applied to the shadow collection.",
	}, []string{"key", "event"})

	rejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "task_tracker",
		Subsystem: "consumer",
		Name:      "events_rejected_total",
		Help:      "Number of user events dropped as malformed or unknown.",
	}, []string{"reason"})

	lastEventGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "task_tracker",
		Subsystem: "consumer",
		Name:      "last_event_timestamp_seconds",
		Help:      "Timestamp of the most recent user event processed.",
	})
)

func init() {
	prometheus.MustRegister(processedCounter, rejectedCounter, lastEventGauge)
}

func recordProcessed(msg Message, event string) {
	processedCounter.WithLabelValues(msg.Key, event).Inc()
	if !msg.Timestamp.IsZero() {
		lastEventGauge.Set(float64(msg.Timestamp.Unix()))
	}
}

func recordRejected(reason string) {
	rejectedCounter.WithLabelValues(reason).Inc()
}
