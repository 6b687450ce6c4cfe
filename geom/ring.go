package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"
)

// ValidateRing reports why a ring cannot be drawn, or nil if it can
func ValidateRing(r orb.Ring) error {
	// a closed triangle needs four points
	if len(r) < 4 {
		return eris.Errorf("geom: ring has %d points", len(r))
	}
	for _, p := range r {
		if !finite(p) {
			return eris.New("geom: ring has a non-finite coordinate")
		}
	}
	if !r.Closed() {
		return eris.New("geom: ring is not closed")
	}

	distinct := make(map[orb.Point]struct{}, len(r))
	for _, p := range r[:len(r)-1] {
		distinct[p] = struct{}{}
	}
	if len(distinct) < 3 {
		return eris.Errorf("geom: ring has %d distinct vertices", len(distinct))
	}
	return nil
}

// ValidateGeometry checks every ring of every polygon
func ValidateGeometry(mp orb.MultiPolygon) error {
	if len(mp) == 0 {
		return eris.New("geom: empty geometry")
	}
	for i, poly := range mp {
		if len(poly) == 0 {
			return eris.Errorf("geom: polygon %d has no rings", i)
		}
		for j, ring := range poly {
			if err := ValidateRing(ring); err != nil {
				return eris.Wrapf(err, "polygon %d ring %d", i, j)
			}
		}
	}
	return nil
}

// Normalize returns a copy with counter-clockwise exteriors and clockwise holes
func Normalize(mp orb.MultiPolygon) orb.MultiPolygon {
	out := mp.Clone()
	for _, poly := range out {
		for j, ring := range poly {
			want := orb.CW
			if j == 0 {
				want = orb.CCW
			}
			if o := ring.Orientation(); o != 0 && o != want {
				ring.Reverse()
			}
		}
	}
	return out
}

// Centroid returns the label anchor of a feature: the supplied centroid if any,
// otherwise the area-weighted centroid of its geometry
func Centroid(f Feature) orb.Point {
	if f.Centroid != nil && finite(*f.Centroid) {
		return *f.Centroid
	}
	c, area := planar.CentroidArea(f.Geometry)
	if area == 0 || !finite(c) {
		// collinear rings have no area; fall back to the bbox center
		return f.Geometry.Bound().Center()
	}
	return c
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsInf(p[0], 0) && !math.IsNaN(p[1]) && !math.IsInf(p[1], 0)
}
