package collect

import (
	"strconv"
	"strings"
	"time"

	"github.com/vinted/elasticsearch_exporter/pkg/metric"
)

// lastSegment returns the part of a normalized metric key after its final
// underscore, the same granularity Policy's include/skip/skip-metric sets
// are expressed in.
func lastSegment(key string) string {
	if i := strings.LastIndexByte(key, '_'); i >= 0 {
		return key[i+1:]
	}
	return key
}

// labelValue renders a metric-typed sample as a label string, for the case
// where Policy.Include demotes it from metric to label.
func labelValue(s metric.Sample) string {
	switch s.Type {
	case metric.TypeGaugeF:
		return strconv.FormatFloat(s.Float, 'g', -1, 64)
	default:
		if s.Type == metric.TypeLabel {
			return s.Str
		}
		return strconv.FormatInt(s.Int, 10)
	}
}

// Collect applies policy to one batch, then inserts every surviving metric
// sample, decorated by the labels collected from the batch's own TypeLabel
// samples plus extra (caller-supplied labels such as a shaper's injected
// `name`). Policy sets match a sample's final key segment; the label name
// itself is the full walked key, so a nested `device_name` leaf and an
// injected bare `name` stay distinct label columns. It never aborts
// partway: an insert failure (e.g. a label-arity mismatch against an
// already-created family) is collected and returned alongside the rest.
func (r *Registry) Collect(policy Policy, extra Labels, batch metric.Batch, now time.Time) []error {
	labels := make(Labels, len(extra)+len(batch))
	for k, v := range extra {
		labels[k] = v
	}

	var metrics []metric.Sample
	for _, s := range batch {
		suffix := lastSegment(s.Key)

		if s.Type == metric.TypeLabel {
			if _, skip := policy.Skip[suffix]; skip {
				continue
			}
			labels[s.Key] = s.Str
			continue
		}
		if s.Type == metric.TypeNull {
			continue
		}
		if _, include := policy.Include[suffix]; include {
			labels[s.Key] = labelValue(s)
			continue
		}
		if _, skip := policy.SkipMetrics[suffix]; skip {
			continue
		}
		metrics = append(metrics, s)
	}

	var errs []error
	for _, s := range metrics {
		var err error
		switch s.Type {
		case metric.TypeGauge:
			err = r.InsertGauge(s.Key, s.Int, labels, "", true, now)
		case metric.TypeGaugeF:
			err = r.InsertFGauge(s.Key, s.Float, labels, "", true, now)
		case metric.TypeBytes:
			err = r.InsertGauge(s.Key, s.Int, labels, bytesPostfix(s.Key), true, now)
		case metric.TypeTime:
			seconds := float64(s.Int) / 1000.0
			err = r.InsertHistogram(s.Key, seconds, labels, secondsPostfix(s.Key), true, now)
		case metric.TypeSwitch:
			// Switches are never skippable: a false value is as
			// meaningful as a true one.
			err = r.InsertGauge(s.Key, s.Int, labels, "", false, now)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
