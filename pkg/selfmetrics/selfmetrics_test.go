package selfmetrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSetClusterHealthIsOneHot(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	sm, err := New(reg, "elasticsearch")
	require.NoError(t, err)

	sm.SetClusterHealth("c1", "green")

	expected := `
# HELP elasticsearch_cluster_health_status One-hot cluster health color (1 for the current color, 0 otherwise).
# TYPE elasticsearch_cluster_health_status gauge
elasticsearch_cluster_health_status{cluster="c1",color="green"} 1
elasticsearch_cluster_health_status{cluster="c1",color="red"} 0
elasticsearch_cluster_health_status{cluster="c1",color="yellow"} 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "elasticsearch_cluster_health_status"))
}

func TestObserveHTTPRequestRecordsLatency(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	sm, err := New(reg, "elasticsearch")
	require.NoError(t, err)

	sm.ObserveHTTPRequest("metrics", 12*time.Millisecond)
	require.Equal(t, 1, testutil.CollectAndCount(reg, "elasticsearch_http_request_duration_seconds"))
}

func TestObserveSubsystemRequestRecordsLatency(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	sm, err := New(reg, "elasticsearch")
	require.NoError(t, err)

	sm.ObserveSubsystemRequest("cat_indices", "c1", 25*time.Millisecond)
	require.Equal(t, 1, testutil.CollectAndCount(reg, "elasticsearch_subsystem_request_duration_seconds"))
}
