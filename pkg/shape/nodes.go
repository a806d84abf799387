// Package shape holds the per-subsystem response shapers: the
// transformers that run between HTTP decoding and the JSON walker
// (package metric), making Elasticsearch's irregular response shapes
// uniform enough for the walker to stay general.
package shape

import "github.com/vinted/elasticsearch_exporter/pkg/metadata"

// noiseKeys are high-churn or high-cardinality fields the nodes-family
// shaper strips at every level before walking, so they never become
// metrics or labels.
var noiseKeys = map[string]struct{}{
	"timestamp":          {},
	"attributes":         {},
	"cgroup":             {},
	"adaptive_selection": {},
	"pipelines":          {},
	"classes":            {},
	"script":             {},
}

// Nodes shapes a `/_nodes/*` response of the form `{ nodes: { <id>: <data> } }`
// into a flat sequence of per-node values, the same flattening IndicesStats
// applies to `indices: {<name>: <data>}`: the opaque node id keys the map
// only to look up the node's metadata, then disappears. Each node's data is
// enriched with `name`/`cluster_version` at every nested level and stripped
// of noiseKeys; nodes absent from the metadata map are dropped outright,
// since their metrics would lack a name label. Keeping the
// id as a map key into the walker (rather than flattening it away here)
// would bake it into every produced metric name instead of the `name`
// label, one metric family per node instead of one family distinguished by
// label.
func Nodes(value interface{}, nodes *metadata.Nodes) interface{} {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return value
	}
	nodesField, ok := obj["nodes"].(map[string]interface{})
	if !ok {
		return value
	}

	out := make([]interface{}, 0, len(nodesField))
	for id, data := range nodesField {
		nd, known := nodes.Lookup(id)
		if !known {
			continue
		}
		out = append(out, injectNodeLabels(data, nd))
	}
	return out
}

func injectNodeLabels(v interface{}, nd metadata.NodeData) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val)+2)
		for k, vv := range val {
			if _, drop := noiseKeys[k]; drop {
				continue
			}
			out[k] = injectNodeLabels(vv, nd)
		}
		out["name"] = nd.Name
		out["cluster_version"] = nd.Version
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, vv := range val {
			out[i] = injectNodeLabels(vv, nd)
		}
		return out
	default:
		return v
	}
}
