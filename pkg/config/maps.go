package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// parsePairs splits the `key=v1,v2&key2=v3` mapping syntax every
// multi-value flag uses into ordered (key, rawValue) pairs. An empty
// string parses to no pairs, matching an unset option.
func parsePairs(s string) ([][2]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var pairs [][2]string
	for _, part := range strings.Split(s, "&") {
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("config: malformed mapping entry %q, want key=value", part)
		}
		pairs = append(pairs, [2]string{k, v})
	}
	return pairs, nil
}

// StringListMap is a subsystem -> list-of-strings mapping, parsed from
// `subsystem=a,b&other=c`. It backs include_labels, skip_labels,
// skip_metrics, subsystem_path_parameters, subsystem_query_fields, and
// subsystem_query_filter_path.
type StringListMap map[string][]string

func parseStringListMap(s string) (StringListMap, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return nil, err
	}
	out := make(StringListMap, len(pairs))
	for _, p := range pairs {
		k, raw := p[0], p[1]
		if raw == "" {
			out[k] = nil
			continue
		}
		out[k] = strings.Split(raw, ",")
	}
	return out, nil
}

func (m StringListMap) String() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(m[k], ","))
	}
	return strings.Join(parts, "&")
}

// DurationMap is a subsystem -> duration mapping, parsed from
// `subsystem=15s&other=3m`. It backs subsystem_timeouts, poll_intervals,
// and metrics_lifetime_interval.
type DurationMap map[string]time.Duration

func parseDurationMap(s string) (DurationMap, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return nil, err
	}
	out := make(DurationMap, len(pairs))
	for _, p := range pairs {
		d, err := time.ParseDuration(p[1])
		if err != nil {
			return nil, fmt.Errorf("config: parsing duration for %q: %w", p[0], err)
		}
		out[p[0]] = d
	}
	return out, nil
}

// BoolMap is a subsystem -> bool mapping, parsed from `subsystem=true&other=false`.
// It backs metrics_enabled.
type BoolMap map[string]bool

func parseBoolMap(s string) (BoolMap, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return nil, err
	}
	out := make(BoolMap, len(pairs))
	for _, p := range pairs {
		b, err := strconv.ParseBool(p[1])
		if err != nil {
			return nil, fmt.Errorf("config: parsing bool for %q: %w", p[0], err)
		}
		out[p[0]] = b
	}
	return out, nil
}
