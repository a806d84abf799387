package metric

import (
	"encoding/json"
	"strconv"
	"strings"
)

// bytesSuffixes classify to TypeBytes: parse as integer, falling back to a
// human-readable byte-size string ("12kb", "3.5gb"). disk_total is a
// compound entry: /_cat/allocation reports disk.total alongside disk.used
// and disk.avail, but its final segment alone would dispatch to the
// integer-gauge arm.
var bytesSuffixes = set("indices", "avail", "used", "memory", "store", "bytes", "disk_total")

// droppedSuffixes are deliberately noisy or constant and classify to
// TypeNull.
var droppedSuffixes = set("installed", "jdk", "pid", "date", "epoch", "timestamp", "uptime")

// timeSuffixes classify to TypeTime, parsed as integer milliseconds.
var timeSuffixes = set("time", "millis", "alive")

// stringSwitchSuffixes classify boolean-like strings ("true"/"false") to
// TypeSwitch.
var stringSwitchSuffixes = set("tripped", "enabled", "out", "value", "committed", "searchable", "compound", "throttled")

// intGaugeSuffixes classify to TypeGauge via integer parse.
var intGaugeSuffixes = set(
	"overhead", "processors", "primaries", "min", "max", "successful", "nodes",
	"fetch", "order", "largest", "rejected", "completed", "queue", "active",
	"core", "tasks", "relo", "unassign", "init", "files", "ops", "recovered",
	"generation", "contexts", "listeners", "pri", "rep", "docs", "count",
	"compilations", "deleted", "shards", "checkpoint", "cpu", "triggered",
	"evictions", "failed", "total", "current", "operations",
)

// floatGaugeSuffixes classify to TypeGaugeF; a trailing '%' is stripped
// before parsing.
var floatGaugeSuffixes = set("avg", "1m", "5m", "15m", "number", "percent")

// labelSuffixes classify to TypeLabel.
var labelSuffixes = set(
	"types", "usage", "mount", "group", "rank", "path", "roles", "context",
	"cluster", "repository", "snapshot", "stage", "uuid", "component", "master",
	"role", "alias", "filter", "search", "flavor", "string", "address",
	"health", "build", "node", "state", "patterns", "of", "segment", "host",
	"ip", "prirep", "id", "status", "at", "for", "details", "reason", "port",
	"attr", "field", "shard", "index", "name", "type", "version", "description",
)

func set(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

// Classify turns the final dotted/underscore segment of a leaf's key plus
// its decoded JSON value into a typed sample. The returned Sample's Key is
// always suffix; callers (Walk) are responsible for substituting the
// fully-qualified, normalized name.
func Classify(suffix string, value interface{}) (Sample, error) {
	if b, ok := value.(bool); ok {
		return Sample{Key: suffix, Type: TypeSwitch, Int: boolToInt(b)}, nil
	}
	if value == nil {
		return Sample{Key: suffix, Type: TypeNull}, nil
	}

	if _, ok := bytesSuffixes[suffix]; ok {
		n, err := parseInt(value)
		if err == nil {
			return Sample{Key: suffix, Type: TypeBytes, Int: n}, nil
		}
		if s, ok := value.(string); ok {
			if b, berr := parseByteSize(s); berr == nil {
				return Sample{Key: suffix, Type: TypeBytes, Int: b}, nil
			}
		}
		return Sample{}, newError(ErrParseInt, suffix, value)
	}

	if suffix == "kilobytes" {
		n, err := parseInt(value)
		if err == nil {
			return Sample{Key: suffix, Type: TypeBytes, Int: n * 1024}, nil
		}
		if s, ok := value.(string); ok {
			if b, berr := parseByteSize(s); berr == nil {
				return Sample{Key: suffix, Type: TypeBytes, Int: b * 1024}, nil
			}
		}
		return Sample{}, newError(ErrParseInt, suffix, value)
	}

	if _, ok := droppedSuffixes[suffix]; ok {
		return Sample{Key: suffix, Type: TypeNull}, nil
	}

	if _, ok := timeSuffixes[suffix]; ok {
		n, _ := parseInt(value)
		return Sample{Key: suffix, Type: TypeTime, Int: n}, nil
	}

	if isJSONNumber(value) {
		if isIntegral(value) {
			n, err := parseInt(value)
			if err != nil {
				return Sample{}, newError(ErrParseInt, suffix, value)
			}
			return Sample{Key: suffix, Type: TypeGauge, Int: n}, nil
		}
		f, err := parseFloat(value)
		if err != nil {
			return Sample{}, newError(ErrParseFloat, suffix, value)
		}
		return Sample{Key: suffix, Type: TypeGaugeF, Float: f}, nil
	}

	// Second suffix table: string-shaped leaves the classifier hasn't
	// matched yet.
	if _, ok := stringSwitchSuffixes[suffix]; ok {
		return Sample{Key: suffix, Type: TypeSwitch, Int: boolToInt(truthyString(value))}, nil
	}

	if suffix == "data" {
		if n, err := parseInt(value); err == nil {
			return Sample{Key: suffix, Type: TypeGauge, Int: n}, nil
		}
		s, ok := value.(string)
		if !ok {
			return Sample{}, newError(ErrUnknown, suffix, value)
		}
		return Sample{Key: suffix, Type: TypeLabel, Str: s}, nil
	}

	// size values are byte counts (store.size, cache_size); thread-pool
	// sizes lose the distinction, which beats exporting every store size
	// as a unitless gauge.
	if suffix == "size" {
		if n, err := parseInt(value); err == nil {
			return Sample{Key: suffix, Type: TypeBytes, Int: n}, nil
		}
		if s, ok := value.(string); ok {
			if b, err := parseByteSize(s); err == nil {
				return Sample{Key: suffix, Type: TypeBytes, Int: b}, nil
			}
		}
		return Sample{}, newError(ErrParseInt, suffix, value)
	}

	if _, ok := intGaugeSuffixes[suffix]; ok {
		n, err := parseInt(value)
		if err != nil {
			return Sample{}, newError(ErrParseInt, suffix, value)
		}
		return Sample{Key: suffix, Type: TypeGauge, Int: n}, nil
	}

	if _, ok := floatGaugeSuffixes[suffix]; ok {
		f, err := parseFloat(value)
		if err != nil {
			return Sample{}, newError(ErrParseFloat, suffix, value)
		}
		return Sample{Key: suffix, Type: TypeGaugeF, Float: f}, nil
	}

	if _, ok := labelSuffixes[suffix]; ok {
		s, ok := value.(string)
		if !ok {
			return Sample{}, newError(ErrUnknown, suffix, value)
		}
		return Sample{Key: suffix, Type: TypeLabel, Str: s}, nil
	}

	// Fallthrough: anything left over is treated as a label, matching the
	// original's catch-all arm.
	s, ok := value.(string)
	if !ok {
		return Sample{}, newError(ErrUnknown, suffix, value)
	}
	return Sample{Key: suffix, Type: TypeLabel, Str: s}, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func truthyString(value interface{}) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	return strings.EqualFold(s, "true")
}

func isJSONNumber(value interface{}) bool {
	_, ok := value.(json.Number)
	return ok
}

func isIntegral(value interface{}) bool {
	n, ok := value.(json.Number)
	if !ok {
		return false
	}
	s := n.String()
	return !strings.ContainsAny(s, ".eE")
}

func parseInt(value interface{}) (int64, error) {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, newError(ErrUnknown, "", value)
	}
}

func parseFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
	default:
		return 0, newError(ErrUnknown, "", value)
	}
}
