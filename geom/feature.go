package geom

import (
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
)

// Metric names one of the aggregated values carried by every region
type Metric string

const (
	MetricTransactions Metric = "transactions"
	MetricRevenue      Metric = "revenue"
	MetricStores       Metric = "stores"
	MetricGrowth       Metric = "growth"
)

// Metrics lists every recognised metric in display order
var Metrics = []Metric{MetricTransactions, MetricRevenue, MetricStores, MetricGrowth}

// ParseMetric resolves a metric name, ignoring case and surrounding space
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Metrics {
		if m == known {
			return m, nil
		}
	}
	return "", eris.Errorf("geom: unknown metric %q", s)
}

// Feature is one administrative region of a snapshot
type Feature struct {
	ID         string
	RegionName string
	Geometry   orb.MultiPolygon // lon/lat
	Metrics    map[Metric]float64
	Centroid   *orb.Point // optional label anchor (lon, lat)
}

// Value returns the metric value and whether it counts as data.
// Absent, zero and non-finite values all report ok=false.
func (f Feature) Value(m Metric) (float64, bool) {
	v, ok := f.Metrics[m]
	if !ok || v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FeatureCollection is an ordered snapshot of features
type FeatureCollection []Feature

// Validate checks the constraints that span features: IDs must be non-empty and unique
func (fc FeatureCollection) Validate() error {
	seen := make(map[string]struct{}, len(fc))
	for i, f := range fc {
		if f.ID == "" {
			return eris.Errorf("geom: feature %d has no id", i)
		}
		if _, dup := seen[f.ID]; dup {
			return eris.Errorf("geom: duplicate feature id %q", f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	return nil
}

// Values extracts the metric from every feature in collection order.
// Features without data contribute 0.
func (fc FeatureCollection) Values(m Metric) []float64 {
	out := make([]float64, len(fc))
	for i, f := range fc {
		if v, ok := f.Value(m); ok {
			out[i] = v
		}
	}
	return out
}
