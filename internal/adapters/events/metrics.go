package events

import "github.com/prometheus/client_golang/prometheus"

var (
	published = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carbon_tracker",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Number of domain events handed to the broker, labeled by event type.",
	}, []string{"event_type"})

	publishFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carbon_tracker",
		Subsystem: "events",
		Name:      "publish_failed_total",
		Help:      "Number of domain events the broker rejected, labeled by event type.",
	}, []string{"event_type"})
)

func init() {
	prometheus.MustRegister(published, publishFailed)
}
