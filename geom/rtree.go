package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/tidwall/geoindex"
	"github.com/tidwall/geoindex/algo"
	"github.com/tidwall/rtree"
)

// RTreeItem represents an item stored in the RTree
type RTreeItem struct {
	ID int
}

// RTree wraps tidwall/rtree for spatial indexing of projected shapes.
// Bounding boxes go into a generic tree for hit tests; centroids go into a
// geoindex-wrapped tree for nearest-neighbour queries.
type RTree struct {
	tree      *rtree.RTreeG[RTreeItem]
	centroids *geoindex.Index
}

// NewRTree creates a new RTree
func NewRTree() *RTree {
	return &RTree{
		tree:      &rtree.RTreeG[RTreeItem]{},
		centroids: geoindex.Wrap(&rtree.RTree{}),
	}
}

// Insert adds an item with its bounding box and label anchor
func (r *RTree) Insert(id int, b orb.Bound, centroid orb.Point) {
	r.tree.Insert(
		[2]float64{b.Min[0], b.Min[1]},
		[2]float64{b.Max[0], b.Max[1]},
		RTreeItem{ID: id},
	)
	pt := [2]float64{centroid[0], centroid[1]}
	r.centroids.Insert(pt, pt, id)
}

// Search returns all item IDs whose bounding boxes intersect with the query bbox
func (r *RTree) Search(b orb.Bound) []int {
	result := make([]int, 0)
	r.tree.Search(
		[2]float64{b.Min[0], b.Min[1]},
		[2]float64{b.Max[0], b.Max[1]},
		func(min, max [2]float64, item RTreeItem) bool {
			result = append(result, item.ID)
			return true // continue searching
		},
	)
	return result
}

// SearchNearPoint returns all item IDs whose bounding boxes lie within tolerance of a point
func (r *RTree) SearchNearPoint(p orb.Point, tolerance float64) []int {
	return r.Search(orb.Bound{
		Min: orb.Point{p[0] - tolerance, p[1] - tolerance},
		Max: orb.Point{p[0] + tolerance, p[1] + tolerance},
	})
}

// Nearest returns the item whose centroid is closest to p, if within maxDist
func (r *RTree) Nearest(p orb.Point, maxDist float64) (int, bool) {
	target := [2]float64{p[0], p[1]}
	id, found := -1, false
	r.centroids.Nearby(
		algo.Box(target, target, false, nil),
		func(min, max [2]float64, data interface{}, _ float64) bool {
			if math.Hypot(min[0]-p[0], min[1]-p[1]) <= maxDist {
				id, found = data.(int), true
			}
			return false // first hit is the nearest
		},
	)
	return id, found
}

// Size returns the number of items in the RTree
func (r *RTree) Size() int {
	return r.tree.Len()
}
