package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawConfigResolveAppliesMappingOverrides(t *testing.T) {
	raw := rawConfig{
		ElasticsearchURL:            "http://localhost:9200",
		ElasticsearchGlobalTimeout:  10 * time.Second,
		CertificateValidation:       "full",
		PollDefaultInterval:         30 * time.Second,
		PollIntervals:               "cat_indices=5s",
		SubsystemTimeouts:           "nodes_stats=2s",
		MetricsEnabled:              "cat_plugins=false",
		IncludeLabels:               "cat_indices=index",
		MetricsLifetimeDefaultInterval: time.Minute,
		MetricsNamespace:            "elasticsearch",
	}

	cfg, err := raw.resolve()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.PollIntervalFor("cat_indices"))
	assert.Equal(t, 30*time.Second, cfg.PollIntervalFor("cat_shards"))
	assert.Equal(t, 2*time.Second, cfg.TimeoutFor("nodes_stats"))
	assert.Equal(t, 10*time.Second, cfg.TimeoutFor("cat_indices"))
	assert.False(t, cfg.IsMetricEnabled("cat_plugins"))
	assert.True(t, cfg.IsMetricEnabled("cat_indices"))
	assert.Equal(t, []string{"index"}, cfg.IncludeLabels["cat_indices"])
}

func TestRawConfigResolvePropagatesParseError(t *testing.T) {
	raw := rawConfig{SubsystemTimeouts: "cat_indices=not-a-duration"}
	_, err := raw.resolve()
	assert.Error(t, err)
}

func TestEnableMetadataRefreshFollowsNodesFamilySubsystems(t *testing.T) {
	cfg := &Config{}
	assert.True(t, cfg.EnableMetadataRefresh(), "nodes-family subsystems default to enabled")

	cfg.MetricsEnabled = BoolMap{"nodes_os": false, "nodes_stats": false, "nodes_usage": false, "nodes_info": false}
	assert.False(t, cfg.EnableMetadataRefresh())
}

func TestSubsystemOptionsForLayersDefaultsThenOverrides(t *testing.T) {
	cfg := &Config{
		PollDefaultInterval:            20 * time.Second,
		ElasticsearchGlobalTimeout:     5 * time.Second,
		MetricsLifetimeDefaultInterval: time.Minute,
		PollIntervals:                  DurationMap{"cat_indices": 7 * time.Second},
	}

	opts := cfg.SubsystemOptionsFor("cat_indices")
	assert.Equal(t, 7*time.Second, opts.PollInterval)
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, 4*time.Minute, opts.Lifetime, "cat_indices is a slow-churn subsystem: longer default TTL")

	other := cfg.SubsystemOptionsFor("cat_shards")
	assert.Equal(t, 20*time.Second, other.PollInterval)
	assert.Equal(t, time.Minute, other.Lifetime, "cat_shards keeps the plain default TTL")
}

func TestLifetimeForGivesSlowChurnSubsystemsALongerDefault(t *testing.T) {
	cfg := &Config{MetricsLifetimeDefaultInterval: 30 * time.Second}

	assert.Equal(t, 2*time.Minute, cfg.LifetimeFor("cat_indices"))
	assert.Equal(t, 2*time.Minute, cfg.LifetimeFor("cat_nodes"))
	assert.Equal(t, 2*time.Minute, cfg.LifetimeFor("cat_recovery"))
	assert.Equal(t, 30*time.Second, cfg.LifetimeFor("cat_shards"))

	cfg.MetricsLifetimeInterval = DurationMap{"cat_indices": 10 * time.Second}
	assert.Equal(t, 10*time.Second, cfg.LifetimeFor("cat_indices"), "explicit override still wins")
}
