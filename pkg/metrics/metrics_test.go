package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-mqtt-relay/pkg/metrics"
)

func TestMetrics(t *testing.T) {
	t.Run("Instruments register under the relay namespace", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)

		m.HTTPRequests.WithLabelValues("200").Inc()
		m.PublishDuration.Observe(0.05)
		m.PublishFailures.Inc()

		families, err := reg.Gather()
		require.NoError(t, err)

		names := make([]string, 0, len(families))
		for _, family := range families {
			names = append(names, family.GetName())
		}
		assert.Contains(t, names, "relay_http_requests_total")
		assert.Contains(t, names, "relay_mqtt_publish_duration_seconds")
		assert.Contains(t, names, "relay_mqtt_publish_failures_total")
	})

	t.Run("Counters track by status label", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())

		m.HTTPRequests.WithLabelValues("200").Inc()
		m.HTTPRequests.WithLabelValues("200").Inc()
		m.HTTPRequests.WithLabelValues("500").Inc()

		assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("200")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("500")))
		assert.Equal(t, float64(0), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("404")))
	})

	t.Run("Separate registries do not collide", func(t *testing.T) {
		first := metrics.New(prometheus.NewRegistry())
		second := metrics.New(prometheus.NewRegistry())

		first.PublishFailures.Inc()

		assert.Equal(t, float64(1), testutil.ToFloat64(first.PublishFailures))
		assert.Equal(t, float64(0), testutil.ToFloat64(second.PublishFailures))
	})
}
