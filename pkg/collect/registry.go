package collect

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// family is the runtime record behind one (subsystem, metric_name) pair:
// at most one exists per name, and its declared label keys are fixed by
// whichever Labels map first caused it to be created.
type family struct {
	declaredLabelKeys []string
	gaugeVec          *prometheus.GaugeVec
	histogramVec      *prometheus.HistogramVec
}

// Registry lazily creates Prometheus gauge/histogram families for one
// subsystem, applies label policy, and deduplicates label sets. It is
// owned by exactly one subsystem poller (package poller) and is never
// shared across goroutines.
type Registry struct {
	subsystem   string
	namespace   string
	constLabels prometheus.Labels
	skipZero    bool
	reg         *prometheus.Registry
	lifetime    *Lifetime

	families map[string]*family
}

// NewRegistry builds a Registry for one subsystem. reg is the process-wide
// Prometheus registry every family gets registered into; constLabels
// canonically carries `cluster`.
func NewRegistry(reg *prometheus.Registry, namespace, subsystem string, constLabels prometheus.Labels, skipZero bool) *Registry {
	return &Registry{
		subsystem:   subsystem,
		namespace:   namespace,
		constLabels: constLabels,
		skipZero:    skipZero,
		reg:         reg,
		lifetime:    NewLifetime(),
		families:    make(map[string]*family),
	}
}

// Lifetime returns the tracker backing this registry's evictions.
func (r *Registry) Lifetime() *Lifetime { return r.lifetime }

func isZeroFloat(f float64) bool {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return true
	}
	bits := math.Float64bits(f)
	exp := (bits >> 52) & 0x7ff
	return exp == 0 // subnormal
}

// InsertGauge sets an integer-valued gauge series, lazily creating the
// family on first use. If skippable and zero-skipping is enabled, a zero
// value on a not-yet-created family creates nothing; once created, zero
// values update it like any other.
func (r *Registry) InsertGauge(key string, value int64, labels Labels, postfix string, skippable bool, now time.Time) error {
	return r.insertFloat(key, float64(value), labels, postfix, skippable && value == 0, now)
}

// InsertFGauge is InsertGauge's float64 counterpart.
func (r *Registry) InsertFGauge(key string, value float64, labels Labels, postfix string, skippable bool, now time.Time) error {
	return r.insertFloat(key, value, labels, postfix, skippable && isZeroFloat(value), now)
}

func (r *Registry) insertFloat(key string, value float64, labels Labels, postfix string, skipCreate bool, now time.Time) error {
	f, ok := r.families[key]
	if !ok {
		if skipCreate && r.skipZero {
			return nil
		}
		metricName := key + postfix
		keys := labels.Keys()
		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   r.namespace,
			Subsystem:   r.subsystem,
			Name:        metricName,
			Help:        key,
			ConstLabels: r.constLabels,
		}, keys)
		if err := r.reg.Register(vec); err != nil {
			return fmt.Errorf("collect: registering gauge %s: %w", metricName, err)
		}
		f = &family{declaredLabelKeys: keys, gaugeVec: vec}
		r.families[key] = f
	}

	values, err := r.valuesFor(f.declaredLabelKeys, labels)
	if err != nil {
		return fmt.Errorf("collect: gauge %s: %w", key, err)
	}
	f.gaugeVec.WithLabelValues(values...).Set(value)

	if len(labels) > 0 {
		r.lifetime.Reset(key, values, now)
	}
	return nil
}

// defaultHistogramBuckets follows Prometheus's own default bucket ladder;
// Elasticsearch request/operation latencies fit comfortably within it.
var defaultHistogramBuckets = prometheus.DefBuckets

// InsertHistogram observes a duration-in-seconds value, lazily creating the
// histogram family on first use.
func (r *Registry) InsertHistogram(key string, seconds float64, labels Labels, postfix string, skippable bool, now time.Time) error {
	skipCreate := skippable && isZeroFloat(seconds)

	f, ok := r.families[key]
	if !ok {
		if skipCreate && r.skipZero {
			return nil
		}
		metricName := key + postfix
		keys := labels.Keys()
		vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   r.namespace,
			Subsystem:   r.subsystem,
			Name:        metricName,
			Help:        key,
			ConstLabels: r.constLabels,
			Buckets:     defaultHistogramBuckets,
		}, keys)
		if err := r.reg.Register(vec); err != nil {
			return fmt.Errorf("collect: registering histogram %s: %w", metricName, err)
		}
		f = &family{declaredLabelKeys: keys, histogramVec: vec}
		r.families[key] = f
	}

	values, err := r.valuesFor(f.declaredLabelKeys, labels)
	if err != nil {
		return fmt.Errorf("collect: histogram %s: %w", key, err)
	}
	f.histogramVec.WithLabelValues(values...).Observe(seconds)

	if len(labels) > 0 {
		r.lifetime.Reset(key, values, now)
	}
	return nil
}

// valuesFor returns labels' values in declaredKeys order, erroring if
// labels doesn't supply exactly the keys the family was created with.
func (r *Registry) valuesFor(declaredKeys []string, labels Labels) ([]string, error) {
	values := make([]string, len(declaredKeys))
	for i, k := range declaredKeys {
		v, ok := labels[k]
		if !ok {
			return nil, fmt.Errorf("label arity mismatch: missing %q (declared keys %v)", k, declaredKeys)
		}
		values[i] = v
	}
	if len(labels) != len(declaredKeys) {
		return nil, fmt.Errorf("label arity mismatch: got %v, want keys %v", labels.Keys(), declaredKeys)
	}
	return values, nil
}

// RemoveLabelValues deletes one series of metricKey, identified by its
// label values in the family's declared-key order. The poller calls it for
// every record Lifetime.Evict returns.
func (r *Registry) RemoveLabelValues(metricKey string, labelValues []string) {
	f, ok := r.families[metricKey]
	if !ok {
		return
	}
	if f.gaugeVec != nil {
		f.gaugeVec.DeleteLabelValues(labelValues...)
	}
	if f.histogramVec != nil {
		f.histogramVec.DeleteLabelValues(labelValues...)
	}
}

// bytesPostfix computes the `_bytes` postfix rule: append it unless the
// name already ends in "bytes" (the /_cat/recovery response already has a
// field literally named "bytes").
func bytesPostfix(key string) string {
	if strings.HasSuffix(key, "bytes") {
		return ""
	}
	return "_bytes"
}

// secondsPostfix computes the `_seconds` postfix rule for a key that has
// already had `_millis` rewritten to `_seconds` by package metric's name
// normalization: append `_seconds` unless it's already there.
func secondsPostfix(key string) string {
	if strings.HasSuffix(key, "_seconds") {
		return ""
	}
	return "_seconds"
}
