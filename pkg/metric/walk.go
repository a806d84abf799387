package metric

import (
	"bytes"
	"encoding/json"
	"sort"
)

// skipPrefixAppend holds the keys the walker treats as artificially
// injected labels (see the response shapers in package shape): instead of
// being appended to the current prefix, they replace it outright, so the
// resulting Prometheus label is `name`/`cluster_version`/`index`, never
// `<subsystem>_name`. The set covers every key a shaper injects plus the
// host/ip identity fields Elasticsearch itself nests.
var skipPrefixAppend = set("name", "ip", "host", "cluster_version", "index")

// ErrorLogger receives a non-fatal classification error for one leaf. The
// walker keeps going regardless; a bad leaf never aborts a batch.
type ErrorLogger func(err error)

// Walk recursively descends a decoded JSON value and returns the batches of
// samples it produces, in traversal order. A scalar produces one batch with
// one sample; an object produces one batch holding its own scalar leaves,
// while each nested object produces a batch of its own (emitted before its
// parent's); an array recurses over each element with the unchanged prefix,
// accumulating into its enclosing object's batch (a top-level array's
// scalar elements form one batch). Empty batches are never emitted.
func Walk(prefix string, value interface{}, onError ErrorLogger) []Batch {
	var out []Batch
	if batch := walkValue(prefix, value, &out, onError); len(batch) > 0 {
		out = append(out, batch)
	}
	return out
}

// DecodeJSON decodes raw JSON with json.Number precision, so integer vs.
// float classification matches the source document exactly. The poller
// (package poller) decodes a subsystem response this way, shapes it with
// package shape, then hands the same tree to Walk, so numeric fidelity
// survives the shaping step too.
func DecodeJSON(raw []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// WalkJSON is a convenience wrapper that decodes raw JSON with
// json.Number precision and walks the result.
func WalkJSON(prefix string, raw []byte, onError ErrorLogger) ([]Batch, error) {
	v, err := DecodeJSON(raw)
	if err != nil {
		return nil, err
	}
	return Walk(prefix, v, onError), nil
}

func walkValue(prefix string, value interface{}, out *[]Batch, onError ErrorLogger) Batch {
	switch v := value.(type) {
	case map[string]interface{}:
		return walkObject(prefix, v, out, onError)
	case []interface{}:
		return walkArray(prefix, v, out, onError)
	default:
		suffix, name := suffixAndNormalize(prefix)
		sample, err := Classify(suffix, value)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return nil
		}
		if sample.Type == TypeNull {
			return nil
		}
		sample.Key = name
		return Batch{sample}
	}
}

func walkObject(prefix string, obj map[string]interface{}, out *[]Batch, onError ErrorLogger) Batch {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var batch Batch
	for _, k := range keys {
		childPrefix := k
		if prefix != "" {
			if _, skip := skipPrefixAppend[k]; !skip {
				childPrefix = prefix + "_" + k
			}
		}
		batch = append(batch, walkValue(childPrefix, obj[k], out, onError)...)
	}
	if len(batch) > 0 {
		*out = append(*out, batch)
	}
	return nil
}

func walkArray(prefix string, arr []interface{}, out *[]Batch, onError ErrorLogger) Batch {
	var batch Batch
	for _, v := range arr {
		batch = append(batch, walkValue(prefix, v, out, onError)...)
	}
	return batch
}
