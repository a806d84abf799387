package poller

import (
	"context"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vinted/elasticsearch_exporter/pkg/collect"
	"github.com/vinted/elasticsearch_exporter/pkg/esclient"
	"github.com/vinted/elasticsearch_exporter/pkg/metadata"
	"github.com/vinted/elasticsearch_exporter/pkg/metric"
	"github.com/vinted/elasticsearch_exporter/pkg/selfmetrics"
	"github.com/vinted/elasticsearch_exporter/pkg/shape"
)

// Poller runs one subsystem's tick -> fetch -> translate -> collect ->
// evict loop. Its Registry and Lifetime are owned exclusively by this
// goroutine; nothing else touches them.
type Poller struct {
	Route       Route
	Client      *esclient.Client
	Registry    *collect.Registry
	Policy      collect.Policy
	Nodes       *metadata.Nodes
	Index       *metadata.Index
	SelfMetrics *selfmetrics.SelfMetrics
	Cluster     string
	Interval    time.Duration
	Timeout     time.Duration
	TTL         time.Duration
	PathParams  []string
	QueryFields []string
	FilterPath  []string
	Logger      *zap.SugaredLogger
}

// Run blocks until ctx is canceled: a startup jitter, then one tick per
// Interval, serialized (a slow fetch never causes overlapping fetches for
// the same subsystem).
func (p *Poller) Run(ctx context.Context) {
	jitter := time.Duration(150+rand.Intn(800-150)) * time.Millisecond
	select {
	case <-ctx.Done():
		return
	case <-time.After(jitter):
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	start := time.Now()
	body, err := p.Client.Get(reqCtx, p.Route.PathTemplate+p.pathSuffix(), p.query())
	elapsed := time.Since(start)
	if p.SelfMetrics != nil {
		p.SelfMetrics.ObserveSubsystemRequest(p.Route.Subsystem, p.Cluster, elapsed)
	}
	if err != nil {
		if p.Logger != nil {
			p.Logger.Errorw("fetch failed, skipping tick", "err", err)
		}
		return
	}

	value, err := metric.DecodeJSON(body)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Errorw("decoding response failed, skipping tick", "err", err)
		}
		return
	}

	now := time.Now()
	onError := func(e error) {
		if p.Logger != nil {
			p.Logger.Errorw("classification error", "err", e)
		}
	}

	extra := collect.Labels{}
	var batches []metric.Batch

	switch p.Route.Kind {
	case KindClusterHealth:
		result := shape.ClusterHealth(value)
		if p.SelfMetrics != nil && result.Status != "" {
			p.SelfMetrics.SetClusterHealth(p.Cluster, result.Status)
		}
		batches = metric.Walk("", result.Rest, onError)
	case KindNodesFamily:
		shaped := shape.Nodes(value, p.Nodes)
		batches = metric.Walk("", shaped, onError)
	case KindCat:
		shaped := shape.Cat(p.Route.Subsystem, value)
		if p.Index != nil {
			p.observeIndexNames(shaped)
		}
		batches = metric.Walk("", shaped, onError)
	case KindIndicesStats:
		shaped := shape.IndicesStats(value)
		batches = metric.Walk("", shaped, onError)
	default:
		batches = metric.Walk("", value, onError)
	}

	for _, batch := range batches {
		if errs := p.Registry.Collect(p.Policy, extra, batch, now); len(errs) > 0 && p.Logger != nil {
			for _, e := range errs {
				p.Logger.Errorw("collect error", "err", e)
			}
		}
	}

	for _, rec := range p.Registry.Lifetime().Evict(now, p.TTL) {
		p.Registry.RemoveLabelValues(rec.MetricKey, rec.LabelValues)
	}
}

// observeIndexNames feeds cat_indices's row set through p.Index and logs
// which index names appeared or disappeared since the last tick, at debug
// level; it gates no metric and never errors.
func (p *Poller) observeIndexNames(shaped interface{}) {
	rows, ok := shaped.([]interface{})
	if !ok {
		return
	}
	names := make([]string, 0, len(rows))
	for _, rowValue := range rows {
		row, ok := rowValue.(map[string]interface{})
		if !ok {
			continue
		}
		if name, ok := row["index"].(string); ok {
			names = append(names, name)
		}
	}

	appeared, disappeared := p.Index.Observe(names)
	if p.Logger == nil {
		return
	}
	if len(appeared) > 0 {
		p.Logger.Debugw("indices appeared", "names", appeared)
	}
	if len(disappeared) > 0 {
		p.Logger.Debugw("indices disappeared", "names", disappeared)
	}
}

func (p *Poller) pathSuffix() string {
	if len(p.PathParams) == 0 {
		return ""
	}
	return "/" + strings.Join(p.PathParams, ",")
}

func (p *Poller) query() url.Values {
	q := url.Values{}
	if len(p.QueryFields) > 0 {
		q.Set("fields", strings.Join(p.QueryFields, ","))
	}
	if len(p.FilterPath) > 0 {
		q.Set("filter_path", strings.Join(p.FilterPath, ","))
	}
	return q
}
