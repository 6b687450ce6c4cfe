package osm

import (
	"io"
	"os"
	"runtime"

	"github.com/paulmach/orb"
	"github.com/qedus/osmpbf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// LoadBoundaries reads an .osm.pbf extract and assembles the administrative
// boundaries whose admin_level is in levels.
func LoadBoundaries(filePath string, levels []string) ([]Boundary, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, eris.Wrapf(err, "osm: open %s", filePath)
	}
	defer f.Close()

	g, err := Decode(f)
	if err != nil {
		return nil, err
	}
	return Assemble(g, levels), nil
}

// Decode reads every node, every way and the administrative relations of a PBF stream
func Decode(r io.Reader) (*OsmGraph, error) {
	d := osmpbf.NewDecoder(r)

	// use more memory from the start, it is faster
	d.SetBufferSize(osmpbf.MaxBlobSize)

	// start decoding with several goroutines, it is faster
	if err := d.Start(runtime.GOMAXPROCS(-1)); err != nil {
		return nil, eris.Wrap(err, "osm: start decoder")
	}

	g := NewOsmGraph()
	var nc, wc, rc uint64
	for {
		v, err := d.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "osm: decode")
		}
		switch v := v.(type) {
		case *osmpbf.Node:
			g.Nodes[OsmNodeId(v.ID)] = orb.Point{v.Lon, v.Lat}
			nc++
		case *osmpbf.Way:
			if len(v.NodeIDs) < 2 {
				continue
			}
			nodeIDs := make([]OsmNodeId, len(v.NodeIDs))
			for i, id := range v.NodeIDs {
				nodeIDs[i] = OsmNodeId(id)
			}
			g.Ways[OsmWayId(v.ID)] = &OsmWay{
				ID:    OsmWayId(v.ID),
				Nodes: nodeIDs,
				Tags:  v.Tags,
			}
			wc++
		case *osmpbf.Relation:
			if !isAdminArea(v.Tags) {
				continue
			}
			rel := &OsmRelation{ID: OsmRelationId(v.ID), Tags: v.Tags}
			for _, m := range v.Members {
				if m.Type != osmpbf.WayType {
					continue
				}
				rel.Members = append(rel.Members, OsmMember{Way: OsmWayId(m.ID), Role: m.Role})
			}
			g.Relations[rel.ID] = rel
			rc++
		default:
			return nil, eris.Errorf("osm: unknown type %T", v)
		}
	}

	zap.L().Debug("osm: decoded extract",
		zap.Uint64("nodes", nc),
		zap.Uint64("ways", wc),
		zap.Uint64("relations", rc),
	)
	return g, nil
}

func isAdminArea(tags map[string]string) bool {
	if tags["boundary"] != "administrative" {
		return false
	}
	t := tags["type"]
	return t == "multipolygon" || t == "boundary"
}
