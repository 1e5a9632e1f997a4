package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// EntityLatency summarises upstream latency for one entity.
type EntityLatency struct {
	Entity     string  `json:"entity"`
	Requests   uint64  `json:"requests"`
	MeanMs     float64 `json:"meanMs"`
	SlowestLeS float64 `json:"slowestBucketSeconds"`
}

// UpstreamSnapshot aggregates the upstream latency histogram per entity,
// summing across methods. Entities are sorted by name.
func UpstreamSnapshot(gatherer prometheus.Gatherer) []EntityLatency {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return nil
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == upstreamLatencyName {
			family = mf
			break
		}
	}
	if family == nil {
		return nil
	}

	type agg struct {
		count   uint64
		sum     float64
		slowest float64
	}
	byEntity := map[string]*agg{}
	for _, metric := range family.Metric {
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		entity := labelValue(metric, "entity")
		a := byEntity[entity]
		if a == nil {
			a = &agg{}
			byEntity[entity] = a
		}
		a.count += h.GetSampleCount()
		a.sum += h.GetSampleSum()
		// smallest bound that already holds every sample
		for _, b := range h.Bucket {
			if b.GetCumulativeCount() == h.GetSampleCount() && h.GetSampleCount() > 0 {
				if b.GetUpperBound() > a.slowest {
					a.slowest = b.GetUpperBound()
				}
				break
			}
		}
	}

	out := make([]EntityLatency, 0, len(byEntity))
	for entity, a := range byEntity {
		row := EntityLatency{Entity: entity, Requests: a.count, SlowestLeS: a.slowest}
		if a.count > 0 {
			row.MeanMs = a.sum / float64(a.count) * 1000
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity < out[j].Entity })
	return out
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.Label {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
