package osm

import (
	"github.com/paulmach/orb"
)

type OsmNodeId int64

type OsmWayId int64

type OsmRelationId int64

// OsmWay keeps the node references of a way together with its tags
type OsmWay struct {
	ID    OsmWayId
	Nodes []OsmNodeId
	Tags  map[string]string
}

// Closed reports whether the way starts and ends on the same node
func (w *OsmWay) Closed() bool {
	return len(w.Nodes) >= 4 && w.Nodes[0] == w.Nodes[len(w.Nodes)-1]
}

// OsmMember is a way taking part in a relation
type OsmMember struct {
	Way  OsmWayId
	Role string
}

// OsmRelation is a multipolygon or boundary relation
type OsmRelation struct {
	ID      OsmRelationId
	Tags    map[string]string
	Members []OsmMember
}

// OsmGraph is the subset of an extract needed to assemble boundaries
type OsmGraph struct {
	Nodes     map[OsmNodeId]orb.Point
	Ways      map[OsmWayId]*OsmWay
	Relations map[OsmRelationId]*OsmRelation
}

// NewOsmGraph returns an empty graph
func NewOsmGraph() *OsmGraph {
	return &OsmGraph{
		Nodes:     make(map[OsmNodeId]orb.Point),
		Ways:      make(map[OsmWayId]*OsmWay),
		Relations: make(map[OsmRelationId]*OsmRelation),
	}
}

// ring resolves node references into a closed ring of lon/lat points
func (g *OsmGraph) ring(nodes []OsmNodeId) (orb.Ring, bool) {
	r := make(orb.Ring, 0, len(nodes))
	for _, nid := range nodes {
		pt, ok := g.Nodes[nid]
		if !ok {
			return nil, false
		}
		r = append(r, pt)
	}
	return r, true
}
