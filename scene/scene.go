// Package scene turns a feature snapshot into an immutable list of drawable shapes.
//
// A Scene is built once per (snapshot, metric, viewport) and never patched; a
// change of any input means building a new one. Rendering backends such as
// WriteSVG only read it.
package scene

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"kuanb/scout-choropleth/classify"
	"kuanb/scout-choropleth/format"
	"kuanb/scout-choropleth/geom"
	"kuanb/scout-choropleth/projection"
)

// Shape is one region ready to draw
type Shape struct {
	Index      int              `json:"index"`
	ID         string           `json:"id"`
	RegionName string           `json:"region_name"`
	Path       orb.MultiPolygon `json:"path"`
	D          string           `json:"d"`
	Centroid   orb.Point        `json:"centroid"`
	Label      string           `json:"label"`
	Value      float64          `json:"value"`
	HasData    bool             `json:"has_data"`
	Bin        int              `json:"bin"`
	Fill       string           `json:"fill"`
}

// Legend describes the colour key of a scene
type Legend struct {
	Metric      geom.Metric            `json:"metric"`
	Label       string                 `json:"label"`
	Breakpoints []float64              `json:"breakpoints"`
	Colors      []string               `json:"legend_colors"`
	NoDataColor string                 `json:"no_data_color"`
	Entries     []classify.LegendEntry `json:"entries"`
	LowLabel    string                 `json:"low_label"`
	HighLabel   string                 `json:"high_label"`
}

// Scene is the retained description of one rendered frame
type Scene struct {
	Metric      geom.Metric          `json:"metric"`
	Width       float64              `json:"width"`
	Height      float64              `json:"height"`
	StrokeColor string               `json:"stroke_color"`
	StrokeWidth float64              `json:"stroke_width"`
	Shapes      []Shape              `json:"shapes"`
	Legend      Legend               `json:"legend"`
	Skipped     []projection.Skipped `json:"skipped,omitempty"`

	index     *geom.RTree
	formatter format.Formatter
	hitRadius float64
}

// Build classifies fc on metric, projects it into a width×height viewport and
// assembles the shapes. projection.ErrNoRenderableGeometry is returned (wrapped)
// when nothing can be drawn; callers should show an empty state.
func Build(fc geom.FeatureCollection, metric geom.Metric, width, height float64, style Style) (*Scene, error) {
	if err := fc.Validate(); err != nil {
		return nil, eris.Wrap(err, "scene: invalid snapshot")
	}
	classifier, err := style.Classifier(metric)
	if err != nil {
		return nil, err
	}
	cl := classifier.Classify(fc.Values(metric))

	res, err := projection.Fit(fc, projection.Viewport{Width: width, Height: height, Padding: style.Padding})
	if err != nil {
		return nil, eris.Wrap(err, "scene: project features")
	}

	s := &Scene{
		Metric:      metric,
		Width:       width,
		Height:      height,
		StrokeColor: style.StrokeColor,
		StrokeWidth: style.StrokeWidth,
		Shapes:      make([]Shape, 0, len(res.Features)),
		Skipped:     res.Skipped,
		index:       geom.NewRTree(),
		formatter:   format.New(style.Currency),
		hitRadius:   style.HitRadius,
	}

	for _, pf := range res.Features {
		f := fc[pf.Index]
		v, ok := f.Value(metric)
		shape := Shape{
			Index:      pf.Index,
			ID:         f.ID,
			RegionName: f.RegionName,
			Path:       pf.Path,
			D:          PathData(pf.Path),
			Centroid:   pf.Centroid,
			Label:      format.Abbreviate(f.RegionName),
			Value:      v,
			HasData:    ok,
			Bin:        cl.BinOf(v),
			Fill:       cl.ColorOf(v),
		}
		s.index.Insert(len(s.Shapes), pf.Path.Bound(), pf.Centroid)
		s.Shapes = append(s.Shapes, shape)
	}

	s.Legend = Legend{
		Metric:      metric,
		Label:       style.Label(metric),
		Breakpoints: cl.Breakpoints,
		Colors:      cl.Colors,
		NoDataColor: cl.NoDataColor,
		Entries:     cl.Legend(),
	}
	if cl.Count > 0 {
		s.Legend.LowLabel = s.formatter.Value(metric, cl.Min, true)
		s.Legend.HighLabel = s.formatter.Value(metric, cl.Max, true)
	}
	return s, nil
}

// PathData encodes a projected multipolygon as an SVG path "d" attribute.
// The closing vertex of each ring is replaced by Z.
func PathData(mp orb.MultiPolygon) string {
	var b strings.Builder
	buf := make([]byte, 0, 16)
	for _, poly := range mp {
		for _, ring := range poly {
			n := len(ring)
			if n > 1 && ring[0] == ring[n-1] {
				n--
			}
			for i := 0; i < n; i++ {
				if i == 0 {
					b.WriteByte('M')
				} else {
					b.WriteByte('L')
				}
				buf = strconv.AppendFloat(buf[:0], ring[i][0], 'f', 2, 64)
				b.Write(buf)
				b.WriteByte(',')
				buf = strconv.AppendFloat(buf[:0], ring[i][1], 'f', 2, 64)
				b.Write(buf)
			}
			if n > 0 {
				b.WriteByte('Z')
			}
		}
	}
	return b.String()
}

// Shape returns the shape with the given feature ID
func (s *Scene) Shape(id string) (Shape, bool) {
	for _, sh := range s.Shapes {
		if sh.ID == id {
			return sh, true
		}
	}
	return Shape{}, false
}
