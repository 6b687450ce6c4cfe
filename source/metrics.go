package source

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"kuanb/scout-choropleth/geom"
)

// MetricsTable holds per-region metric values keyed by lower-cased region
// name or ID, as read from a YAML sidecar:
//
//	National Capital Region:
//	  transactions: 15234
//	  revenue: 4512000
//	  stores: 58
//	  growth: 12.5
type MetricsTable map[string]map[geom.Metric]float64

// LoadMetrics reads a metrics sidecar file
func LoadMetrics(path string) (MetricsTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read metrics %s", path)
	}
	return ParseMetrics(data)
}

// ParseMetrics decodes a metrics sidecar. Unknown metric names are rejected.
func ParseMetrics(data []byte) (MetricsTable, error) {
	var raw map[string]map[string]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "source: parse metrics")
	}
	t := make(MetricsTable, len(raw))
	for region, values := range raw {
		row := make(map[geom.Metric]float64, len(values))
		for name, v := range values {
			m, err := geom.ParseMetric(name)
			if err != nil {
				return nil, eris.Wrapf(err, "source: metrics for %q", region)
			}
			row[m] = v
		}
		t[strings.ToLower(strings.TrimSpace(region))] = row
	}
	return t, nil
}

// Join overrides feature metrics with the sidecar values matched by ID first,
// then by region name. Features without a row keep what they had.
func (t MetricsTable) Join(fc geom.FeatureCollection) geom.FeatureCollection {
	if len(t) == 0 {
		return fc
	}
	out := make(geom.FeatureCollection, len(fc))
	for i, f := range fc {
		row, ok := t[strings.ToLower(f.ID)]
		if !ok {
			row, ok = t[strings.ToLower(f.RegionName)]
		}
		if ok {
			merged := make(map[geom.Metric]float64, len(f.Metrics)+len(row))
			for m, v := range f.Metrics {
				merged[m] = v
			}
			for m, v := range row {
				merged[m] = v
			}
			f.Metrics = merged
		}
		out[i] = f
	}
	return out
}
