// Package metadata maintains the node-ID -> {name, ip, version} map the
// nodes-family response shapers need to turn opaque Elasticsearch node IDs
// into readable labels.
package metadata

import "sync"

// NodeData is what the exporter knows about one cluster node.
type NodeData struct {
	Name    string
	IP      string
	Version string
}

// Nodes is the node metadata map: many concurrent readers (the response
// shapers, one per enabled nodes-family subsystem), rare writers (the
// refresher, on its own interval). Writes replace the whole map atomically
// so a reader never observes a partially-updated one.
type Nodes struct {
	mu   sync.RWMutex
	data map[string]NodeData
}

// NewNodes returns an empty map; Lookup on it always misses until the
// first Replace.
func NewNodes() *Nodes {
	return &Nodes{data: make(map[string]NodeData)}
}

// Lookup returns the node data for id, if known.
func (n *Nodes) Lookup(id string) (NodeData, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	d, ok := n.data[id]
	return d, ok
}

// Replace swaps in a freshly-fetched map wholesale.
func (n *Nodes) Replace(data map[string]NodeData) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.data = data
}

// Len reports how many nodes are currently known; used by tests and the
// `/` options page.
func (n *Nodes) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.data)
}
