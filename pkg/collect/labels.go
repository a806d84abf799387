// Package collect turns classified metric.Sample batches into Prometheus
// series: lazily creating gauge/histogram families per (subsystem, metric
// name), applying label include/skip/skip-metric policy, and evicting
// series Elasticsearch has stopped reporting.
package collect

import "sort"

// Labels is a label-name -> value mapping with a stable, lexicographically
// sorted key order, so a Prometheus metric family always sees the same
// label-column order for a given (subsystem, metric) pair.
type Labels map[string]string

// Keys returns the label names in sorted order.
func (l Labels) Keys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the label values in the same sorted-key order as Keys.
func (l Labels) Values() []string {
	keys := l.Keys()
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = l[k]
	}
	return values
}

// Policy is the label-handling configuration for one subsystem, applied by
// Registry.Collect before any insert: a leaf whose key ends in one of
// Include's entries is demoted to a label instead of a metric; a label leaf
// whose key ends in one of Skip's entries, or a metric leaf whose key ends
// in one of SkipMetrics's entries, is dropped entirely.
type Policy struct {
	Include     map[string]struct{}
	Skip        map[string]struct{}
	SkipMetrics map[string]struct{}
}

// NewPolicy builds a Policy from the plain string lists the options model
// (package config) carries.
func NewPolicy(include, skip, skipMetrics []string) Policy {
	return Policy{
		Include:     toSet(include),
		Skip:        toSet(skip),
		SkipMetrics: toSet(skipMetrics),
	}
}

func toSet(vals []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}
