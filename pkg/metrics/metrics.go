package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "relay"

// Metrics holds the gateway's Prometheus instruments.
type Metrics struct {
	// HTTPRequests counts finished requests, labelled by HTTP status code.
	HTTPRequests *prometheus.CounterVec
	// PublishDuration observes the wall time of one-shot broker publishes,
	// connect and disconnect included.
	PublishDuration prometheus.Histogram
	// PublishFailures counts publish attempts that did not reach the broker.
	PublishFailures prometheus.Counter
}

// New registers the gateway metrics with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests handled, labelled by HTTP status code.",
		}, []string{"status"}),
		PublishDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mqtt_publish_duration_seconds",
			Help:      "Duration of one-shot MQTT publish calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_publish_failures_total",
			Help:      "MQTT publishes that failed before completion.",
		}),
	}
}
