package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/vinted/elasticsearch_exporter/pkg/esclient"
)

type nodesOSResponse struct {
	Nodes map[string]struct {
		Name    string `json:"name"`
		IP      string `json:"ip"`
		Version string `json:"version"`
	} `json:"nodes"`
}

// Refresher owns one Nodes map and refreshes it from /_nodes/os. The
// first Refresh runs blocking at startup; the exporter refuses to start
// if it fails.
type Refresher struct {
	client   *esclient.Client
	nodes    *Nodes
	logger   *zap.SugaredLogger
	interval time.Duration

	// refreshCount is read from the `/` options page and tests without
	// taking any lock.
	refreshCount *atomic.Uint32
}

// NewRefresher builds a Refresher backed by client, writing into nodes.
func NewRefresher(client *esclient.Client, nodes *Nodes, interval time.Duration, logger *zap.SugaredLogger) *Refresher {
	return &Refresher{client: client, nodes: nodes, interval: interval, logger: logger, refreshCount: atomic.NewUint32(0)}
}

// RefreshCount reports how many times Refresh has completed successfully.
func (r *Refresher) RefreshCount() uint32 {
	return r.refreshCount.Load()
}

// Refresh performs one fetch-and-swap cycle against /_nodes/os.
func (r *Refresher) Refresh(ctx context.Context) error {
	body, err := r.client.Get(ctx, "/_nodes/os", nil)
	if err != nil {
		return fmt.Errorf("metadata: fetching /_nodes/os: %w", err)
	}

	var parsed nodesOSResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("metadata: decoding /_nodes/os: %w", err)
	}

	data := make(map[string]NodeData, len(parsed.Nodes))
	for id, n := range parsed.Nodes {
		data[id] = NodeData{Name: n.Name, IP: n.IP, Version: n.Version}
	}
	r.nodes.Replace(data)
	r.refreshCount.Inc()
	return nil
}

// Run blocks, refreshing on Refresher's interval until ctx is canceled.
// The caller is responsible for the mandatory first Refresh at startup;
// Run only drives the steady-state ticker.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				if r.logger != nil {
					r.logger.Errorw("metadata refresh failed, keeping previous map", "err", err)
				}
				continue
			}
			if r.logger != nil {
				r.logger.Debugw("metadata refreshed", "nodes", r.nodes.Len())
			}
		}
	}
}
