package publisher

import "github.com/prometheus/client_golang/prometheus"

var (
	publishedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth_service",
		Subsystem: "publisher",
		Name:      "events_published_total",
		Help:      "Number of user events delivered to the broker.",
	}, []string{"key", "event"})

	publishErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth_service",
		Subsystem: "publisher",
		Name:      "publish_errors_total",
		Help:      "Number of failed event publications by routing key.",
	}, []string{"key"})
)

func init() {
	prometheus.MustRegister(publishedCounter, publishErrorCounter)
}

func recordPublished(key, event string) {
	publishedCounter.WithLabelValues(key, event).Inc()
}

func recordPublishError(key string) {
	publishErrorCounter.WithLabelValues(key).Inc()
}
