package collect

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Record is one entry of the Lifetime tracker: the metric key and label
// values of one tracked series (its heartbeat is kept alongside, in entry).
type Record struct {
	MetricKey   string
	LabelValues []string
}

type entry struct {
	record        Record
	lastHeartbeat time.Time
}

// hashLabel hashes the metric key followed by each label value's bytes
// with a fast non-cryptographic hash, so the tracker's map keys never
// duplicate the string tuples themselves.
func hashLabel(metricKey string, labelValues []string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(metricKey)
	for _, v := range labelValues {
		_, _ = d.WriteString(v)
	}
	return d.Sum64()
}

// Lifetime tracks the last heartbeat of every (metric, label values) tuple
// a subsystem poller has set, so Evict can tell the poller which
// Prometheus series to remove once Elasticsearch stops reporting them. It
// is owned by exactly one subsystem poller; it is never shared across
// subsystems.
type Lifetime struct {
	mu      sync.Mutex
	entries map[uint64]entry
}

// NewLifetime returns an empty tracker.
func NewLifetime() *Lifetime {
	return &Lifetime{entries: make(map[uint64]entry)}
}

// Reset inserts or refreshes the heartbeat for (metricKey, labelValues).
func (l *Lifetime) Reset(metricKey string, labelValues []string, now time.Time) {
	h := hashLabel(metricKey, labelValues)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[h] = entry{
		record:        Record{MetricKey: metricKey, LabelValues: labelValues},
		lastHeartbeat: now,
	}
}

// Evict atomically removes every entry whose last heartbeat is older than
// now-ttl and returns the removed records, so the caller can remove the
// corresponding series from the Registry.
func (l *Lifetime) Evict(now time.Time, ttl time.Duration) []Record {
	cutoff := now.Add(-ttl)

	l.mu.Lock()
	defer l.mu.Unlock()

	var removed []Record
	for h, e := range l.entries {
		if e.lastHeartbeat.Before(cutoff) {
			removed = append(removed, e.record)
			delete(l.entries, h)
		}
	}
	return removed
}

// Len reports the number of tracked series; used by tests and diagnostics.
func (l *Lifetime) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
