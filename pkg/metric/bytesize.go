package metric

import (
	"fmt"
	"strconv"
	"strings"
)

// byteUnits is the unit table for Elasticsearch's human-readable size
// strings ("12kb", "443.2gb"). Longest suffixes are matched first so "kb"
// doesn't get eaten by the "b" entry.
var byteUnits = []struct {
	suffix string
	factor float64
}{
	{"pb", 1 << 50},
	{"tb", 1 << 40},
	{"gb", 1 << 30},
	{"mb", 1 << 20},
	{"kb", 1 << 10},
	{"b", 1},
}

// parseByteSize converts a human-readable Elasticsearch size string (e.g.
// "475894423552", "12kb", "443.2gb") into a byte count. A bare-digit string
// is accepted as already being bytes.
//
// NOTE: converting through float64 for fractional units (e.g. "443.2gb")
// can lose precision at the extreme end of int64's range.
func parseByteSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(strings.ToLower(s))
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n, nil
	}
	for _, u := range byteUnits {
		if strings.HasSuffix(trimmed, u.suffix) {
			numPart := strings.TrimSpace(strings.TrimSuffix(trimmed, u.suffix))
			if numPart == "" {
				continue
			}
			f, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				continue
			}
			return int64(f * u.factor), nil
		}
	}
	return 0, fmt.Errorf("metric: %q is not a recognizable byte size", s)
}
