// Package projection fits lon/lat region outlines into a drawing surface using
// Web Mercator and one uniform scale for the whole collection.
package projection

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"kuanb/scout-choropleth/geom"
)

// MaxLatitude is the latitude limit of the square Web Mercator world
const MaxLatitude = 85.05112878

var (
	// ErrNoRenderableGeometry is returned when nothing in the collection can be drawn
	ErrNoRenderableGeometry = eris.New("projection: no renderable geometry")
	// ErrInvalidViewport is returned for non-positive or non-finite viewport sizes
	ErrInvalidViewport = eris.New("projection: invalid viewport")
)

// Viewport is the target drawing surface
type Viewport struct {
	Width   float64
	Height  float64
	Padding float64 // margin kept free on every side
}

// Transform maps Mercator coordinates onto the drawing surface.
// One transform is shared by every feature of a collection.
type Transform struct {
	Scale   float64 // drawing units per Mercator meter
	OffsetX float64
	OffsetY float64
	MinX    float64 // Mercator x of the fitted box's west edge
	MaxY    float64 // Mercator y of the fitted box's north edge
	Width   float64
	Height  float64
}

// Feature is the projected form of one input feature
type Feature struct {
	Index    int    // position in the input collection
	ID       string
	Path     orb.MultiPolygon // drawing-surface coordinates
	Centroid orb.Point
}

// Skipped records a feature left out of the projection
type Skipped struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Result is the output of Fit
type Result struct {
	Transform Transform
	Features  []Feature
	Skipped   []Skipped
}

// toMercator projects a lon/lat point, clamping latitude to the Mercator limit
func toMercator(p orb.Point) orb.Point {
	lat := math.Max(-MaxLatitude, math.Min(MaxLatitude, p[1]))
	return project.WGS84.ToMercator(orb.Point{p[0], lat})
}

// Project maps a lon/lat point onto the drawing surface
func (t Transform) Project(p orb.Point) orb.Point {
	return t.fromMercator(toMercator(p))
}

// Invert maps a drawing-surface point back to lon/lat
func (t Transform) Invert(p orb.Point) orb.Point {
	m := orb.Point{
		t.MinX + (p[0]-t.OffsetX)/t.Scale,
		t.MaxY - (p[1]-t.OffsetY)/t.Scale,
	}
	return project.Mercator.ToWGS84(m)
}

func (t Transform) fromMercator(m orb.Point) orb.Point {
	x := t.OffsetX + (m[0]-t.MinX)*t.Scale
	y := t.OffsetY + (t.MaxY-m[1])*t.Scale
	// absorb floating point rounding at the edges
	return orb.Point{
		math.Max(0, math.Min(t.Width, x)),
		math.Max(0, math.Min(t.Height, y)),
	}
}

func validViewport(vp Viewport) bool {
	for _, v := range []float64{vp.Width, vp.Height, vp.Padding} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return vp.Width > 0 && vp.Height > 0 && vp.Padding >= 0
}

// Fit builds one transform that places every drawable feature of fc inside the viewport
// with a uniform scale, then projects each feature's rings and label anchor.
// Malformed features are skipped and reported; they never abort the rest.
func Fit(fc geom.FeatureCollection, vp Viewport) (*Result, error) {
	if !validViewport(vp) {
		return nil, eris.Wrapf(ErrInvalidViewport, "%gx%g padding %g", vp.Width, vp.Height, vp.Padding)
	}
	pad := vp.Padding
	if 2*pad >= vp.Width || 2*pad >= vp.Height {
		pad = 0
	}

	type merc struct {
		index    int
		id       string
		path     orb.MultiPolygon
		centroid orb.Point
	}

	res := &Result{}
	projected := make([]merc, 0, len(fc))
	var bound orb.Bound
	for i, f := range fc {
		if err := geom.ValidateGeometry(f.Geometry); err != nil {
			zap.L().Warn("projection: skipping malformed feature",
				zap.Int("index", i),
				zap.String("id", f.ID),
				zap.Error(err),
			)
			res.Skipped = append(res.Skipped, Skipped{Index: i, ID: f.ID, Reason: err.Error()})
			continue
		}

		mp := geom.Normalize(f.Geometry)
		for _, poly := range mp {
			for _, ring := range poly {
				for k, p := range ring {
					ring[k] = toMercator(p)
				}
			}
		}
		if len(projected) == 0 {
			bound = mp.Bound()
		} else {
			bound = bound.Union(mp.Bound())
		}
		projected = append(projected, merc{
			index:    i,
			id:       f.ID,
			path:     mp,
			centroid: toMercator(geom.Centroid(f)),
		})
	}

	if len(projected) == 0 {
		return nil, eris.Wrap(ErrNoRenderableGeometry, "no valid features")
	}
	bw := bound.Max[0] - bound.Min[0]
	bh := bound.Max[1] - bound.Min[1]
	if bw <= 0 || bh <= 0 {
		return nil, eris.Wrapf(ErrNoRenderableGeometry, "bounding box is %gx%g", bw, bh)
	}

	innerW := vp.Width - 2*pad
	innerH := vp.Height - 2*pad
	scale := math.Min(innerW/bw, innerH/bh)
	t := Transform{
		Scale:   scale,
		OffsetX: pad + (innerW-bw*scale)/2,
		OffsetY: pad + (innerH-bh*scale)/2,
		MinX:    bound.Min[0],
		MaxY:    bound.Max[1],
		Width:   vp.Width,
		Height:  vp.Height,
	}
	res.Transform = t

	res.Features = make([]Feature, 0, len(projected))
	for _, m := range projected {
		for _, poly := range m.path {
			for _, ring := range poly {
				for k, p := range ring {
					ring[k] = t.fromMercator(p)
				}
			}
		}
		res.Features = append(res.Features, Feature{
			Index:    m.index,
			ID:       m.id,
			Path:     m.path,
			Centroid: t.fromMercator(m.centroid),
		})
	}
	return res, nil
}
