package scene

import (
	"github.com/rotisserie/eris"

	"kuanb/scout-choropleth/classify"
	"kuanb/scout-choropleth/geom"
)

// MetricStyle is the per-metric part of the style record
type MetricStyle struct {
	Label   string   `json:"label"`
	Palette []string `json:"palette"`
}

// Style collects every presentation setting the classifier and renderer need
type Style struct {
	Metrics     map[geom.Metric]MetricStyle
	Bins        int
	NoDataColor string
	StrokeColor string
	StrokeWidth float64
	Currency    string
	Padding     float64
	HitRadius   float64 // nearest-centroid fallback distance for hit tests
}

// DefaultStyle returns the dashboard's stock palettes
func DefaultStyle() Style {
	return Style{
		Metrics: map[geom.Metric]MetricStyle{
			geom.MetricTransactions: {Label: "Transactions", Palette: []string{"#dbeafe", "#93c5fd", "#3b82f6", "#1d4ed8", "#1e3a8a"}},
			geom.MetricRevenue:      {Label: "Revenue", Palette: []string{"#dcfce7", "#86efac", "#22c55e", "#15803d", "#14532d"}},
			geom.MetricStores:       {Label: "Stores", Palette: []string{"#f3e8ff", "#d8b4fe", "#a855f7", "#7e22ce", "#581c87"}},
			geom.MetricGrowth:       {Label: "Growth", Palette: []string{"#ffedd5", "#fdba74", "#f97316", "#c2410c", "#7c2d12"}},
		},
		Bins:        classify.DefaultBins,
		NoDataColor: "#e5e7eb",
		StrokeColor: "#ffffff",
		StrokeWidth: 1,
		Padding:     10,
		HitRadius:   12,
	}
}

// Classifier builds the classifier for metric m
func (s Style) Classifier(m geom.Metric) (*classify.Classifier, error) {
	ms, ok := s.Metrics[m]
	if !ok {
		return nil, eris.Errorf("scene: no style for metric %q", m)
	}
	c, err := classify.NewClassifier(classify.Config{
		Bins:        s.Bins,
		Palette:     ms.Palette,
		NoDataColor: s.NoDataColor,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "scene: metric %q", m)
	}
	return c, nil
}

// Validate checks that every recognised metric has a usable palette
func (s Style) Validate() error {
	for _, m := range geom.Metrics {
		if _, err := s.Classifier(m); err != nil {
			return err
		}
	}
	if s.StrokeWidth < 0 {
		return eris.Errorf("scene: negative stroke width %g", s.StrokeWidth)
	}
	return nil
}

// Label returns the display label of m, falling back to its name
func (s Style) Label(m geom.Metric) string {
	if ms, ok := s.Metrics[m]; ok && ms.Label != "" {
		return ms.Label
	}
	return string(m)
}
