// Package exporter wires every other package into the running process:
// it builds the Elasticsearch client, resolves the cluster name,
// bootstraps node metadata, constructs one collect.Registry and
// poller.Poller per enabled subsystem, and exposes the registry and an
// options page for the HTTP surface (package server).
package exporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vinted/elasticsearch_exporter/pkg/collect"
	"github.com/vinted/elasticsearch_exporter/pkg/config"
	"github.com/vinted/elasticsearch_exporter/pkg/esclient"
	"github.com/vinted/elasticsearch_exporter/pkg/meta"
	"github.com/vinted/elasticsearch_exporter/pkg/metadata"
	"github.com/vinted/elasticsearch_exporter/pkg/poller"
	"github.com/vinted/elasticsearch_exporter/pkg/selfmetrics"
)

// Exporter holds everything the running process needs: the shared
// registry, the self-metrics, one poller per enabled subsystem, and the
// metadata refresher, if any subsystem needs it. Every field is set once
// at startup and never reassigned afterward; the state that changes at
// run time lives inside those objects (the node map behind its own lock,
// each poller's own registry and trackers, the refresher's counter).
type Exporter struct {
	Config  *config.Config
	Cluster string

	registry    *prometheus.Registry
	selfMetrics *selfmetrics.SelfMetrics
	nodes       *metadata.Nodes
	refresher   *metadata.Refresher
	pollers     []*poller.Poller
	logger      *zap.SugaredLogger
}

// New performs the full startup sequence: build the client, ping the
// cluster, fetch its name, bootstrap node metadata (if needed), and
// construct a poller for every enabled subsystem. Any failure here is
// fatal to the process.
func New(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*Exporter, error) {
	client, err := esclient.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("exporter: building elasticsearch client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("exporter: pinging elasticsearch: %w", err)
	}

	cluster, err := client.ClusterName(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporter: fetching cluster name: %w", err)
	}

	reg := prometheus.NewPedanticRegistry()
	sm, err := selfmetrics.New(reg, cfg.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("exporter: registering self metrics: %w", err)
	}

	nodes := metadata.NewNodes()

	var refresher *metadata.Refresher
	if cfg.EnableMetadataRefresh() {
		refresher = metadata.NewRefresher(client, nodes, cfg.MetadataRefreshInterval, logger.Named("metadata"))
		if err := refresher.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("exporter: initial metadata refresh: %w", err)
		}
	}

	constLabels := prometheus.Labels{"cluster": cluster}

	var pollers []*poller.Poller
	for _, route := range poller.Routes {
		if !cfg.IsMetricEnabled(route.Subsystem) {
			continue
		}

		registry := collect.NewRegistry(reg, cfg.MetricsNamespace, route.Subsystem, constLabels, cfg.SkipZeroMetrics)
		policy := collect.NewPolicy(
			cfg.IncludeLabels[route.Subsystem],
			cfg.SkipLabels[route.Subsystem],
			cfg.SkipMetrics[route.Subsystem],
		)

		opts := cfg.SubsystemOptionsFor(route.Subsystem)

		var indexTracker *metadata.Index
		if route.Subsystem == "cat_indices" {
			indexTracker = metadata.NewIndex()
		}

		pollers = append(pollers, &poller.Poller{
			Route:       route,
			Client:      client,
			Registry:    registry,
			Policy:      policy,
			Nodes:       nodes,
			Index:       indexTracker,
			SelfMetrics: sm,
			Cluster:     cluster,
			Interval:    opts.PollInterval,
			Timeout:     opts.Timeout,
			TTL:         opts.Lifetime,
			PathParams:  cfg.SubsystemPathParameters[route.Subsystem],
			QueryFields: cfg.SubsystemQueryFields[route.Subsystem],
			FilterPath:  cfg.SubsystemQueryFilterPath[route.Subsystem],
			Logger:      logger.Named(route.Subsystem),
		})
	}

	return &Exporter{
		Config:      cfg,
		Cluster:     cluster,
		registry:    reg,
		selfMetrics: sm,
		nodes:       nodes,
		refresher:   refresher,
		pollers:     pollers,
		logger:      logger.Named("exporter"),
	}, nil
}

// Subsystems reports the enabled subsystem names, for the `/` options page.
func (e *Exporter) Subsystems() []string {
	names := make([]string, 0, len(e.pollers))
	for _, p := range e.pollers {
		names = append(names, p.Route.Subsystem)
	}
	return names
}

// Registry returns the process-wide Prometheus registry every poller and
// the self-metrics are registered into, for the `/metrics` handler.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// ObserveHTTPRequest records the latency of one exporter-surface HTTP
// request in the http_request_duration_seconds{handler} histogram.
func (e *Exporter) ObserveHTTPRequest(handler string, elapsed time.Duration) {
	e.selfMetrics.ObserveHTTPRequest(handler, elapsed)
}

// OptionsPage renders the effective configuration for the `/` handler:
// a human-readable summary, not the Prometheus text format.
func (e *Exporter) OptionsPage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "elasticsearch_exporter %s\n\n", meta.Version)
	fmt.Fprintf(&b, "cluster:            %s\n", e.Cluster)
	fmt.Fprintf(&b, "elasticsearch_url:  %s\n", e.Config.ElasticsearchURL)
	fmt.Fprintf(&b, "metrics_namespace:  %s\n", e.Config.MetricsNamespace)
	fmt.Fprintf(&b, "skip_zero_metrics:  %t\n", e.Config.SkipZeroMetrics)
	fmt.Fprintf(&b, "known node count:   %d\n", e.NodeMetadataCount())
	if e.refresher != nil {
		fmt.Fprintf(&b, "metadata refresh:   enabled (%d refreshes so far)\n", e.refresher.RefreshCount())
	} else {
		fmt.Fprintf(&b, "metadata refresh:   disabled\n")
	}
	fmt.Fprintf(&b, "\nenabled subsystems (%d):\n", len(e.pollers))
	for _, name := range e.Subsystems() {
		fmt.Fprintf(&b, "  - %s  (poll=%s timeout=%s ttl=%s)\n",
			name, e.Config.PollIntervalFor(name), e.Config.TimeoutFor(name), e.Config.LifetimeFor(name))
	}
	return b.String()
}

// Tasks returns every long-running task this exporter owns, each bound to
// ctx: one per enabled subsystem poller plus the metadata refresher's
// steady-state loop, if enabled. Callers cancel ctx to stop all of them
// together; each task returning nil on a clean ctx cancellation is what
// lets an oklog/run group treat the whole set uniformly.
func (e *Exporter) Tasks(ctx context.Context) []func() error {
	var tasks []func() error
	for _, p := range e.pollers {
		p := p
		tasks = append(tasks, func() error {
			p.Run(ctx)
			return nil
		})
	}
	if e.refresher != nil {
		tasks = append(tasks, func() error {
			return e.refresher.Run(ctx)
		})
	}
	return tasks
}

// NodeMetadataCount reports how many nodes the metadata map currently
// knows about; used by the `/` options page.
func (e *Exporter) NodeMetadataCount() int {
	return e.nodes.Len()
}
