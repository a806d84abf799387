package shape

// IndicesStats shapes a `/_stats` response (`{_all, _shards, indices: {
// <name>: <data> }}`) into a flat sequence of values: `_all` and `_shards`
// pass through as-is, and every per-index value gets an `index=<name>`
// label injected at every nested level, the same recursive-inject shape
// Nodes uses.
func IndicesStats(value interface{}) interface{} {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return value
	}

	var out []interface{}
	if all, ok := obj["_all"]; ok {
		out = append(out, all)
	}
	if shards, ok := obj["_shards"]; ok {
		out = append(out, shards)
	}
	if indices, ok := obj["indices"].(map[string]interface{}); ok {
		for name, data := range indices {
			out = append(out, injectIndexLabel(data, name))
		}
	}
	return out
}

func injectIndexLabel(v interface{}, name string) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val)+1)
		for k, vv := range val {
			out[k] = injectIndexLabel(vv, name)
		}
		out["index"] = name
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, vv := range val {
			out[i] = injectIndexLabel(vv, name)
		}
		return out
	default:
		return v
	}
}
