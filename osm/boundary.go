package osm

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Boundary is an administrative area assembled from the extract
type Boundary struct {
	ID         string
	Name       string
	AdminLevel string
	Geometry   orb.MultiPolygon
}

// Assemble builds boundaries from closed administrative ways and from
// multipolygon relations. Areas without a name, outside levels, or whose
// rings cannot be closed are dropped. Output is sorted by name then ID.
func Assemble(g *OsmGraph, levels []string) []Boundary {
	allowed := make(map[string]struct{}, len(levels))
	for _, l := range levels {
		allowed[l] = struct{}{}
	}
	keep := func(tags map[string]string) bool {
		if tags["boundary"] != "administrative" || tags["name"] == "" {
			return false
		}
		if len(allowed) == 0 {
			return true
		}
		_, ok := allowed[tags["admin_level"]]
		return ok
	}

	var out []Boundary
	for _, w := range g.Ways {
		if !keep(w.Tags) || !w.Closed() {
			continue
		}
		r, ok := g.ring(w.Nodes)
		if !ok {
			zap.L().Warn("osm: way references missing nodes", zap.Int64("way", int64(w.ID)))
			continue
		}
		out = append(out, Boundary{
			ID:         fmt.Sprintf("way/%d", w.ID),
			Name:       w.Tags["name"],
			AdminLevel: w.Tags["admin_level"],
			Geometry:   orb.MultiPolygon{{r}},
		})
	}

	for _, rel := range g.Relations {
		if !keep(rel.Tags) {
			continue
		}
		mp, err := g.relationGeometry(rel)
		if err != nil {
			zap.L().Warn("osm: skipping relation",
				zap.Int64("relation", int64(rel.ID)),
				zap.String("name", rel.Tags["name"]),
				zap.Error(err),
			)
			continue
		}
		out = append(out, Boundary{
			ID:         fmt.Sprintf("relation/%d", rel.ID),
			Name:       rel.Tags["name"],
			AdminLevel: rel.Tags["admin_level"],
			Geometry:   mp,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (g *OsmGraph) relationGeometry(rel *OsmRelation) (orb.MultiPolygon, error) {
	var outerWays, innerWays [][]OsmNodeId
	for _, m := range rel.Members {
		w, ok := g.Ways[m.Way]
		if !ok {
			return nil, eris.Errorf("member way %d not in extract", m.Way)
		}
		switch m.Role {
		case "inner":
			innerWays = append(innerWays, w.Nodes)
		case "outer", "":
			outerWays = append(outerWays, w.Nodes)
		}
	}
	if len(outerWays) == 0 {
		return nil, eris.New("no outer members")
	}

	outers, err := g.stitch(outerWays)
	if err != nil {
		return nil, eris.Wrap(err, "outer")
	}
	inners, err := g.stitch(innerWays)
	if err != nil {
		return nil, eris.Wrap(err, "inner")
	}

	mp := make(orb.MultiPolygon, len(outers))
	for i, r := range outers {
		mp[i] = orb.Polygon{r}
	}
	for _, hole := range inners {
		for i := range mp {
			if planar.RingContains(mp[i][0], hole[0]) {
				mp[i] = append(mp[i], hole)
				break
			}
		}
	}
	return mp, nil
}

// stitch joins member ways end to end into closed rings
func (g *OsmGraph) stitch(ways [][]OsmNodeId) ([]orb.Ring, error) {
	pending := make([][]OsmNodeId, 0, len(ways))
	for _, w := range ways {
		pending = append(pending, append([]OsmNodeId(nil), w...))
	}

	var rings []orb.Ring
	for len(pending) > 0 {
		cur := pending[0]
		pending = pending[1:]

		for cur[0] != cur[len(cur)-1] {
			end := cur[len(cur)-1]
			next := -1
			for i, w := range pending {
				if w[0] == end {
					next = i
					break
				}
				if w[len(w)-1] == end {
					reverse(w)
					next = i
					break
				}
			}
			if next < 0 {
				return nil, eris.Errorf("ring starting at node %d does not close", cur[0])
			}
			cur = append(cur, pending[next][1:]...)
			pending = append(pending[:next], pending[next+1:]...)
		}

		if len(cur) < 4 {
			return nil, eris.Errorf("ring starting at node %d has %d nodes", cur[0], len(cur))
		}
		r, ok := g.ring(cur)
		if !ok {
			return nil, eris.Errorf("ring starting at node %d references missing nodes", cur[0])
		}
		rings = append(rings, r)
	}
	return rings, nil
}

func reverse(ids []OsmNodeId) {
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
}
