package collect

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinted/elasticsearch_exporter/pkg/metric"
)

func newTestRegistry(skipZero bool) (*Registry, *prometheus.Registry) {
	reg := prometheus.NewPedanticRegistry()
	r := NewRegistry(reg, "elasticsearch", "cluster_health", prometheus.Labels{"cluster": "test"}, skipZero)
	return r, reg
}

func TestInsertGaugeCreatesAndUpdates(t *testing.T) {
	r, reg := newTestRegistry(false)
	now := time.Unix(1000, 0)

	require.NoError(t, r.InsertGauge("number_of_nodes", 3, Labels{}, "", true, now))
	count := testutil.CollectAndCount(reg, "elasticsearch_cluster_health_number_of_nodes")
	assert.Equal(t, 1, count)

	require.NoError(t, r.InsertGauge("number_of_nodes", 5, Labels{}, "", true, now))
	assert.Equal(t, 0, r.Lifetime().Len(), "a label-less series gets no lifetime entry")
}

func TestInsertGaugeSkipZeroWithheldUntilNonZero(t *testing.T) {
	r, reg := newTestRegistry(true)
	now := time.Unix(1000, 0)

	require.NoError(t, r.InsertGauge("docs_count", 0, Labels{"index": "a"}, "", true, now))
	assert.Equal(t, 0, testutil.CollectAndCount(reg, "elasticsearch_cluster_health_docs_count"))

	require.NoError(t, r.InsertGauge("docs_count", 7, Labels{"index": "a"}, "", true, now))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "elasticsearch_cluster_health_docs_count"))

	// Once created, a zero update must still apply.
	require.NoError(t, r.InsertGauge("docs_count", 0, Labels{"index": "a"}, "", true, now))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "elasticsearch_cluster_health_docs_count"))
}

func TestInsertGaugeLabelArityMismatchErrors(t *testing.T) {
	r, _ := newTestRegistry(false)
	now := time.Unix(1000, 0)

	require.NoError(t, r.InsertGauge("count", 3, Labels{"index": "a"}, "", true, now))
	err := r.InsertGauge("count", 4, Labels{"index": "a", "shard": "0"}, "", true, now)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "label arity mismatch"))
}

func TestInsertHistogramObservesSeconds(t *testing.T) {
	r, reg := newTestRegistry(false)
	now := time.Unix(1000, 0)

	require.NoError(t, r.InsertHistogram("refresh_total_time_in_seconds", 1.5, Labels{"index": "a"}, "", true, now))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "elasticsearch_cluster_health_refresh_total_time_in_seconds"))
}

func TestCollectSplitsLabelsFromMetricsAndInserts(t *testing.T) {
	r, reg := newTestRegistry(false)
	policy := NewPolicy(nil, nil, nil)
	now := time.Unix(1000, 0)

	batch := metric.Batch{
		{Key: "status", Type: metric.TypeLabel, Str: "green"},
		{Key: "number_of_nodes", Type: metric.TypeGauge, Int: 3},
	}

	errs := r.Collect(policy, Labels{"source": "prod"}, batch, now)
	assert.Empty(t, errs)
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "elasticsearch_cluster_health_number_of_nodes"))
	assert.Equal(t, 1, r.Lifetime().Len())
}

func TestCollectIncludePolicyDemotesMetricToLabel(t *testing.T) {
	r, reg := newTestRegistry(false)
	policy := NewPolicy([]string{"shards"}, nil, nil)
	now := time.Unix(1000, 0)

	batch := metric.Batch{
		{Key: "docs_count", Type: metric.TypeGauge, Int: 12},
		{Key: "number_of_shards", Type: metric.TypeGauge, Int: 5},
	}

	errs := r.Collect(policy, Labels{}, batch, now)
	assert.Empty(t, errs)
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "elasticsearch_cluster_health_docs_count"))
	assert.Equal(t, 0, testutil.CollectAndCount(reg, "elasticsearch_cluster_health_number_of_shards"))
}

func TestCollectLabelNamesUseFullWalkedKey(t *testing.T) {
	r, reg := newTestRegistry(false)
	policy := NewPolicy(nil, nil, nil)
	now := time.Unix(1000, 0)

	// An injected bare `name` and a nested natural `*_device_name` must stay
	// distinct label columns on the same family.
	batch := metric.Batch{
		{Key: "name", Type: metric.TypeLabel, Str: "es-data-1"},
		{Key: "fs_io_stats_devices_device_name", Type: metric.TypeLabel, Str: "sda4"},
		{Key: "fs_io_stats_devices_operations", Type: metric.TypeGauge, Int: 42},
	}

	errs := r.Collect(policy, Labels{}, batch, now)
	assert.Empty(t, errs)

	expected := strings.NewReader(`
# HELP elasticsearch_cluster_health_fs_io_stats_devices_operations fs_io_stats_devices_operations
# TYPE elasticsearch_cluster_health_fs_io_stats_devices_operations gauge
elasticsearch_cluster_health_fs_io_stats_devices_operations{cluster="test",fs_io_stats_devices_device_name="sda4",name="es-data-1"} 42
`)
	require.NoError(t, testutil.CollectAndCompare(reg, expected, "elasticsearch_cluster_health_fs_io_stats_devices_operations"))
}

func TestCollectSkipMetricsDropsSample(t *testing.T) {
	r, reg := newTestRegistry(false)
	policy := NewPolicy(nil, nil, []string{"count"})
	now := time.Unix(1000, 0)

	batch := metric.Batch{
		{Key: "docs_count", Type: metric.TypeGauge, Int: 12},
	}

	errs := r.Collect(policy, Labels{}, batch, now)
	assert.Empty(t, errs)
	assert.Equal(t, 0, testutil.CollectAndCount(reg, "elasticsearch_cluster_health_docs_count"))
	assert.Equal(t, 0, r.Lifetime().Len())
}

func TestCollectTimeSampleBecomesHistogramInSeconds(t *testing.T) {
	r, reg := newTestRegistry(false)
	policy := NewPolicy(nil, nil, nil)
	now := time.Unix(1000, 0)

	batch := metric.Batch{
		{Key: "refresh_total_time_in_seconds", Type: metric.TypeTime, Int: 2500},
	}

	errs := r.Collect(policy, Labels{}, batch, now)
	assert.Empty(t, errs)
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "elasticsearch_cluster_health_refresh_total_time_in_seconds"))
}
