package scene

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"kuanb/scout-choropleth/geom"
)

// minBorderTolerance keeps hairline borders hoverable
const minBorderTolerance = 0.5

// Tooltip is what the pointer shows over a region
type Tooltip struct {
	ID         string `json:"id"`
	RegionName string `json:"region_name"`
	Value      string `json:"value"`
	HasData    bool   `json:"has_data"`
	Fill       string `json:"fill"`
}

// HitTest returns the index into Shapes of the region under p.
// A point inside a polygon wins (top-most shape first), then a point on a border
// within half the stroke width, then the nearest centroid within the hit radius.
func (s *Scene) HitTest(p orb.Point) (int, bool) {
	if s.index == nil || len(s.Shapes) == 0 {
		return -1, false
	}
	tol := s.StrokeWidth / 2
	if tol < minBorderTolerance {
		tol = minBorderTolerance
	}

	candidates := s.index.SearchNearPoint(p, tol)
	// later shapes are drawn on top
	sort.Sort(sort.Reverse(sort.IntSlice(candidates)))

	for _, i := range candidates {
		if planar.MultiPolygonContains(s.Shapes[i].Path, p) {
			return i, true
		}
	}

	best, bestDist := -1, tol
	for _, i := range candidates {
		if d := geom.BorderDistance(p, s.Shapes[i].Path); d <= bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		return best, true
	}

	if s.hitRadius > 0 {
		return s.index.Nearest(p, s.hitRadius)
	}
	return -1, false
}

// Tooltip describes the shape at index i
func (s *Scene) Tooltip(i int) Tooltip {
	sh := s.Shapes[i]
	return Tooltip{
		ID:         sh.ID,
		RegionName: sh.RegionName,
		Value:      s.formatter.Value(s.Metric, sh.Value, sh.HasData),
		HasData:    sh.HasData,
		Fill:       sh.Fill,
	}
}

// TooltipAt combines HitTest and Tooltip
func (s *Scene) TooltipAt(p orb.Point) (Tooltip, bool) {
	i, ok := s.HitTest(p)
	if !ok {
		return Tooltip{}, false
	}
	return s.Tooltip(i), true
}

// Interaction tracks pointer state over a scene. Hover and the active
// (clicked) selection are independent, and neither affects classification.
type Interaction struct {
	scene  *Scene
	hover  string
	active string
}

// NewInteraction starts with nothing hovered or selected
func NewInteraction(s *Scene) *Interaction {
	return &Interaction{scene: s}
}

// Hover updates the hovered region from a pointer position
func (in *Interaction) Hover(p orb.Point) (Tooltip, bool) {
	i, ok := in.scene.HitTest(p)
	if !ok {
		in.hover = ""
		return Tooltip{}, false
	}
	in.hover = in.scene.Shapes[i].ID
	return in.scene.Tooltip(i), true
}

// Leave clears the hover state when the pointer exits the map
func (in *Interaction) Leave() {
	in.hover = ""
}

// Click makes the region under p active. Clicking empty space clears the selection.
func (in *Interaction) Click(p orb.Point) (Shape, bool) {
	i, ok := in.scene.HitTest(p)
	if !ok {
		in.active = ""
		return Shape{}, false
	}
	in.active = in.scene.Shapes[i].ID
	return in.scene.Shapes[i], true
}

// Clear drops the active selection
func (in *Interaction) Clear() {
	in.active = ""
}

// Hovered returns the hovered shape, if any
func (in *Interaction) Hovered() (Shape, bool) {
	return in.lookup(in.hover)
}

// Active returns the selected shape, if any
func (in *Interaction) Active() (Shape, bool) {
	return in.lookup(in.active)
}

// Rebind moves the interaction onto a rebuilt scene, keeping selections whose
// regions are still drawn.
func (in *Interaction) Rebind(s *Scene) {
	in.scene = s
	if _, ok := s.Shape(in.hover); !ok {
		in.hover = ""
	}
	if _, ok := s.Shape(in.active); !ok {
		in.active = ""
	}
}

func (in *Interaction) lookup(id string) (Shape, bool) {
	if id == "" {
		return Shape{}, false
	}
	return in.scene.Shape(id)
}
