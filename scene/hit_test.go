package scene

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kuanb/scout-choropleth/geom"
)

func buildStrip(t *testing.T) *Scene {
	t.Helper()
	s, err := Build(strip(10, 20, 0, 40, 50), geom.MetricRevenue, 500, 100, testStyle())
	require.NoError(t, err)
	return s
}

// two one-degree squares with a two-degree gap between them
func buildIslands(t *testing.T, hitRadius float64) *Scene {
	t.Helper()
	fc := geom.FeatureCollection{
		{ID: "west", RegionName: "West Island", Geometry: box(0, -0.5, 1, 0.5),
			Metrics: map[geom.Metric]float64{geom.MetricGrowth: 4.25}},
		{ID: "east", RegionName: "East Island", Geometry: box(3, -0.5, 4, 0.5),
			Metrics: map[geom.Metric]float64{geom.MetricGrowth: -1.5}},
	}
	st := testStyle()
	st.HitRadius = hitRadius
	s, err := Build(fc, geom.MetricGrowth, 400, 100, st)
	require.NoError(t, err)
	return s
}

func TestHitTest_Inside(t *testing.T) {
	s := buildStrip(t)
	i, ok := s.HitTest(orb.Point{150, 50})
	require.True(t, ok)
	assert.Equal(t, "Cagayan Valley", s.Shapes[i].ID)

	i, ok = s.HitTest(orb.Point{480, 10})
	require.True(t, ok)
	assert.Equal(t, "Western Visayas", s.Shapes[i].ID)
}

func TestHitTest_BorderTolerance(t *testing.T) {
	s := buildStrip(t)
	i, ok := s.HitTest(orb.Point{50, 100.3})
	require.True(t, ok)
	assert.Equal(t, "Ilocos Region", s.Shapes[i].ID)
}

func TestHitTest_Miss(t *testing.T) {
	s := buildStrip(t)
	_, ok := s.HitTest(orb.Point{250, 300})
	assert.False(t, ok)

	var empty Scene
	_, ok = empty.HitTest(orb.Point{0, 0})
	assert.False(t, ok)
}

func TestHitTest_NearestCentroid(t *testing.T) {
	s := buildIslands(t, 200)
	i, ok := s.HitTest(orb.Point{180, 50})
	require.True(t, ok)
	assert.Equal(t, "west", s.Shapes[i].ID)

	i, ok = s.HitTest(orb.Point{230, 50})
	require.True(t, ok)
	assert.Equal(t, "east", s.Shapes[i].ID)

	s = buildIslands(t, 100)
	_, ok = s.HitTest(orb.Point{180, 50})
	assert.False(t, ok)
}

func TestTooltip(t *testing.T) {
	s := buildStrip(t)

	tip, ok := s.TooltipAt(orb.Point{150, 50})
	require.True(t, ok)
	assert.Equal(t, "Cagayan Valley", tip.RegionName)
	assert.Equal(t, "₱20", tip.Value)
	assert.True(t, tip.HasData)

	tip, ok = s.TooltipAt(orb.Point{250, 50})
	require.True(t, ok)
	assert.Equal(t, "Central Luzon", tip.RegionName)
	assert.Equal(t, "No data", tip.Value)
	assert.Equal(t, "#e5e7eb", tip.Fill)

	islands := buildIslands(t, 0)
	tip, ok = islands.TooltipAt(orb.Point{350, 50})
	require.True(t, ok)
	assert.Equal(t, "-1.5%", tip.Value)
	tip, _ = islands.TooltipAt(orb.Point{50, 50})
	assert.Equal(t, "+4.3%", tip.Value)
}

func TestInteraction(t *testing.T) {
	s := buildStrip(t)
	in := NewInteraction(s)

	_, ok := in.Active()
	assert.False(t, ok)

	tip, ok := in.Hover(orb.Point{150, 50})
	require.True(t, ok)
	assert.Equal(t, "Cagayan Valley", tip.RegionName)
	h, ok := in.Hovered()
	require.True(t, ok)
	assert.Equal(t, "Cagayan Valley", h.ID)

	sel, ok := in.Click(orb.Point{350, 50})
	require.True(t, ok)
	assert.Equal(t, "Bicol", sel.ID)

	// hover moves independently of the selection
	in.Hover(orb.Point{50, 50})
	a, _ := in.Active()
	assert.Equal(t, "Bicol", a.ID)
	h, _ = in.Hovered()
	assert.Equal(t, "Ilocos Region", h.ID)

	in.Leave()
	_, ok = in.Hovered()
	assert.False(t, ok)
	a, _ = in.Active()
	assert.Equal(t, "Bicol", a.ID)

	// another region replaces the selection
	sel, _ = in.Click(orb.Point{450, 50})
	assert.Equal(t, "Western Visayas", sel.ID)

	// empty space clears it
	_, ok = in.Click(orb.Point{250, 300})
	assert.False(t, ok)
	_, ok = in.Active()
	assert.False(t, ok)

	in.Click(orb.Point{50, 50})
	in.Clear()
	_, ok = in.Active()
	assert.False(t, ok)
}

func TestInteraction_SelectionDoesNotAffectClassification(t *testing.T) {
	s := buildStrip(t)
	before := append([]string(nil), s.Legend.Colors...)
	fills := make([]string, len(s.Shapes))
	for i, sh := range s.Shapes {
		fills[i] = sh.Fill
	}

	in := NewInteraction(s)
	in.Click(orb.Point{150, 50})
	in.Hover(orb.Point{350, 50})

	assert.Equal(t, before, s.Legend.Colors)
	for i, sh := range s.Shapes {
		assert.Equal(t, fills[i], sh.Fill)
	}
}

func TestInteraction_Rebind(t *testing.T) {
	s := buildStrip(t)
	in := NewInteraction(s)
	in.Click(orb.Point{150, 50})
	in.Hover(orb.Point{450, 50})

	stores, err := Build(strip(10, 20, 0, 40, 50), geom.MetricStores, 500, 100, testStyle())
	require.NoError(t, err)
	in.Rebind(stores)
	a, ok := in.Active()
	require.True(t, ok)
	assert.Equal(t, "Cagayan Valley", a.ID)
	assert.Equal(t, stores.Shapes[1].Fill, a.Fill)

	fewer, err := Build(strip(10, 20), geom.MetricStores, 500, 100, testStyle())
	require.NoError(t, err)
	in.Rebind(fewer)
	_, ok = in.Hovered()
	assert.False(t, ok)
	_, ok = in.Active()
	assert.True(t, ok)
}
