package metric

import "strings"

// compoundSuffixes are two-segment classifier keys: their final segment
// alone would misclassify (disk.total is a size, get.total a counter).
var compoundSuffixes = []string{"disk_total"}

// suffixAndNormalize replaces '.' and '-' with '_' first (so the whole
// key is underscore-delimited), pulls the last underscore-delimited
// segment out as the classifier suffix (or the compoundSuffixes entry the
// key ends in), then normalizes the full key into Prometheus-safe form.
//
// The order matters: the suffix used to pick a Type is extracted from the
// *pre-normalization* key (after only the '.'/'-' replacement), not the
// final name.
func suffixAndNormalize(rawKey string) (suffix string, normalized string) {
	key := strings.NewReplacer(".", "_", "-", "_").Replace(rawKey)

	idx := strings.LastIndexByte(key, '_')
	if idx == -1 {
		suffix = key
	} else {
		suffix = key[idx+1:]
	}
	for _, c := range compoundSuffixes {
		if strings.HasSuffix(key, c) {
			suffix = c
		}
	}

	normalized = normalize(key)
	return suffix, normalized
}

// normalize applies the final name normalization pass:
// collapse `_kilobytes`→`_bytes`, `_millis`→`_seconds`, replace remaining
// space/`:`/`/`/`\` with `_`, translate `[`/`]` to `:`, lowercase.
//
// A fully normalized name without brackets is a fixed point of normalize.
func normalize(key string) string {
	key = strings.ReplaceAll(key, "_kilobytes", "_bytes")
	key = strings.ReplaceAll(key, "_millis", "_seconds")
	key = strings.NewReplacer(
		" ", "_",
		":", "_",
		"/", "_",
		`\`, "_",
		"[", ":",
		"]", ":",
	).Replace(key)
	return strings.ToLower(key)
}
