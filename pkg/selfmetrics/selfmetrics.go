// Package selfmetrics implements the exporter's own observability:
// its HTTP handler latencies, its per-subsystem Elasticsearch request
// latencies, and the cluster-health one-hot gauge.
package selfmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var clusterHealthColors = [3]string{"red", "yellow", "green"}

// SelfMetrics holds every metric the exporter records about its own
// operation, separate from anything it learns by polling Elasticsearch.
type SelfMetrics struct {
	httpRequestDuration      *prometheus.HistogramVec
	subsystemRequestDuration *prometheus.HistogramVec
	clusterHealthStatus      *prometheus.GaugeVec
}

// New registers the self-metric families into reg under namespace.
func New(reg prometheus.Registerer, namespace string) (*SelfMetrics, error) {
	sm := &SelfMetrics{
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of the exporter's own HTTP handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
		subsystemRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "subsystem_request_duration_seconds",
			Help:      "Latency of Elasticsearch requests per subsystem.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"subsystem", "cluster"}),
		clusterHealthStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cluster_health_status",
			Help:      "One-hot cluster health color (1 for the current color, 0 otherwise).",
		}, []string{"cluster", "color"}),
	}

	for _, c := range []prometheus.Collector{sm.httpRequestDuration, sm.subsystemRequestDuration, sm.clusterHealthStatus} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return sm, nil
}

// ObserveHTTPRequest records one exporter-surface request's latency.
func (sm *SelfMetrics) ObserveHTTPRequest(handler string, elapsed time.Duration) {
	sm.httpRequestDuration.WithLabelValues(handler).Observe(elapsed.Seconds())
}

// ObserveSubsystemRequest records one Elasticsearch request's latency.
func (sm *SelfMetrics) ObserveSubsystemRequest(subsystem, cluster string, elapsed time.Duration) {
	sm.subsystemRequestDuration.WithLabelValues(subsystem, cluster).Observe(elapsed.Seconds())
}

// SetClusterHealth sets the one-hot gauge: 1 for color, 0 for the other
// two members of {red, yellow, green}.
func (sm *SelfMetrics) SetClusterHealth(cluster, color string) {
	for _, c := range clusterHealthColors {
		value := 0.0
		if c == color {
			value = 1.0
		}
		sm.clusterHealthStatus.WithLabelValues(cluster, c).Set(value)
	}
}
