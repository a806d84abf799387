package shape

// ClusterHealthResult is the cluster-health shaper's output: the color and
// cluster name pulled out for the one-hot self-metric (package
// selfmetrics), plus the rest of the response for normal walking (its
// `number_of_nodes` and similar fields are still ordinary gauges).
type ClusterHealthResult struct {
	Status      string
	ClusterName string
	Rest        interface{}
}

// ClusterHealth extracts `status` and `cluster_name` from a
// `/_cluster/health` response and removes them from the object before
// handing the remainder to the walker: `status` would otherwise classify
// as a Label (noise next to the dedicated one-hot gauge) and
// `cluster_name` duplicates the `cluster` const label already attached to
// every series.
func ClusterHealth(value interface{}) ClusterHealthResult {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return ClusterHealthResult{Rest: value}
	}

	status, _ := obj["status"].(string)
	clusterName, _ := obj["cluster_name"].(string)

	rest := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		if k == "status" || k == "cluster_name" {
			continue
		}
		rest[k] = v
	}

	return ClusterHealthResult{Status: status, ClusterName: clusterName, Rest: rest}
}
