package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// PointToSegmentDistance returns the shortest planar distance from point p to the line segment ab.
// Inputs are drawing-surface coordinates, so the result is in drawing units.
func PointToSegmentDistance(p, a, b orb.Point) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	if dx == 0 && dy == 0 {
		// a and b are the same point
		return math.Hypot(p[0]-a[0], p[1]-a[1])
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / (dx*dx + dy*dy)
	if t < 0 {
		return math.Hypot(p[0]-a[0], p[1]-a[1])
	} else if t > 1 {
		return math.Hypot(p[0]-b[0], p[1]-b[1])
	}
	projx := a[0] + t*dx
	projy := a[1] + t*dy
	return math.Hypot(p[0]-projx, p[1]-projy)
}

// BorderDistance returns the distance from p to the nearest ring edge of mp
func BorderDistance(p orb.Point, mp orb.MultiPolygon) float64 {
	best := math.Inf(1)
	for _, poly := range mp {
		for _, ring := range poly {
			for i := 0; i < len(ring)-1; i++ {
				if d := PointToSegmentDistance(p, ring[i], ring[i+1]); d < best {
					best = d
				}
			}
		}
	}
	return best
}
