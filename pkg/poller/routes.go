// Package poller runs one goroutine per enabled subsystem: jittered
// start, tick, fetch, shape+walk, collect, evict.
package poller

// Route describes how to reach one subsystem's Elasticsearch endpoint.
// PathTemplate is the fixed endpoint path; configured path parameters are
// appended to it as one extra `/p1,p2` segment (see Poller.pathSuffix).
// Kind selects which response shaper applies.
type Route struct {
	Subsystem    string
	PathTemplate string
	Kind         Kind
}

// Kind selects a subsystem's response shaper.
type Kind int

const (
	// KindCat is a flat JSON array (the /_cat/* family).
	KindCat Kind = iota
	// KindNodesFamily is `{ nodes: { <id>: <data> } }` (/_nodes/*).
	KindNodesFamily
	// KindClusterHealth is the single-object /_cluster/health response.
	KindClusterHealth
	// KindIndicesStats is the /_stats response.
	KindIndicesStats
	// KindPlain is any other single-object response walked as-is.
	KindPlain
)

// Routes is the full subsystem table: every supported /_cat/* endpoint,
// /_cluster/health, /_nodes/{os,stats,usage,info}, and /_stats.
var Routes = []Route{
	{Subsystem: "cat_allocation", PathTemplate: "/_cat/allocation", Kind: KindCat},
	{Subsystem: "cat_shards", PathTemplate: "/_cat/shards", Kind: KindCat},
	{Subsystem: "cat_indices", PathTemplate: "/_cat/indices", Kind: KindCat},
	{Subsystem: "cat_segments", PathTemplate: "/_cat/segments", Kind: KindCat},
	{Subsystem: "cat_nodes", PathTemplate: "/_cat/nodes", Kind: KindCat},
	{Subsystem: "cat_recovery", PathTemplate: "/_cat/recovery", Kind: KindCat},
	{Subsystem: "cat_health", PathTemplate: "/_cat/health", Kind: KindCat},
	{Subsystem: "cat_pending_tasks", PathTemplate: "/_cat/pending_tasks", Kind: KindCat},
	{Subsystem: "cat_aliases", PathTemplate: "/_cat/aliases", Kind: KindCat},
	{Subsystem: "cat_thread_pool", PathTemplate: "/_cat/thread_pool", Kind: KindCat},
	{Subsystem: "cat_plugins", PathTemplate: "/_cat/plugins", Kind: KindCat},
	{Subsystem: "cat_fielddata", PathTemplate: "/_cat/fielddata", Kind: KindCat},
	{Subsystem: "cat_nodeattrs", PathTemplate: "/_cat/nodeattrs", Kind: KindCat},
	{Subsystem: "cat_repositories", PathTemplate: "/_cat/repositories", Kind: KindCat},
	{Subsystem: "cat_templates", PathTemplate: "/_cat/templates", Kind: KindCat},
	{Subsystem: "cat_transforms", PathTemplate: "/_cat/transforms", Kind: KindCat},

	{Subsystem: "cluster_health", PathTemplate: "/_cluster/health", Kind: KindClusterHealth},

	{Subsystem: "nodes_os", PathTemplate: "/_nodes/os", Kind: KindNodesFamily},
	{Subsystem: "nodes_stats", PathTemplate: "/_nodes/stats", Kind: KindNodesFamily},
	{Subsystem: "nodes_usage", PathTemplate: "/_nodes/usage", Kind: KindNodesFamily},
	{Subsystem: "nodes_info", PathTemplate: "/_nodes/info", Kind: KindNodesFamily},

	{Subsystem: "indices_stats", PathTemplate: "/_stats", Kind: KindIndicesStats},
}

// ByName looks up a route by subsystem name.
func ByName(name string) (Route, bool) {
	for _, r := range Routes {
		if r.Subsystem == name {
			return r, true
		}
	}
	return Route{}, false
}
