// Package compressor implements the Graph Compressor (C3): it
// collapses every maximal chain of degree-2 internal nodes in a
// node-based graph into a single edge, recording the collapsed-away
// nodes' poly-line into a geometry.Container.
package compressor

import (
	"osmch/pkg/format"
	"osmch/pkg/geo"
	"osmch/pkg/geometry"
	"osmch/pkg/nodegraph"
	"osmch/pkg/restriction"
)

// DefaultSignalPenaltyDeciseconds is the weight, in deciseconds, added
// to the downstream half of a chain at a traffic-signal node before
// that node is collapsed away.
const DefaultSignalPenaltyDeciseconds int32 = 20

// Result bundles the compressor's two outputs: the graph with chains
// collapsed, and the poly-line container recording what was collapsed.
type Result struct {
	Graph    *nodegraph.Graph
	Geometry *geometry.Container
	// EdgeGeometryID maps a surviving edge's arena index to the
	// geometry id holding its interior poly-line. Edges with no
	// collapsed interior (Geometry == false) have no entry.
	EdgeGeometryID map[int32]uint32
}

// candidate is what tryCollapse found: the chain's two far endpoints,
// the two edge arena indices being replaced, the merged edge itself,
// and the interior poly-line points between them.
type candidate struct {
	a, b   uint32
	eA, eB int32
	merged format.NodeBasedEdge
	pts    []format.GeometryPoint
}

// Compress runs the collapse to a fixed point: collapsing a chain can
// turn a neighboring node into a new degree-2 candidate, so the pass
// repeats until no node changes.
func Compress(g *nodegraph.Graph, restr *restriction.Map, signalPenalty int32) Result {
	geoContainer := geometry.NewContainer()
	edgeGeoID := make(map[int32]uint32)

	queue := make([]uint32, len(g.Nodes))
	queued := make([]bool, len(g.Nodes))
	for v := range g.Nodes {
		queue[v] = uint32(v)
		queued[v] = true
	}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		queued[v] = false

		c, ok := tryCollapse(g, restr, signalPenalty, v, edgeGeoID, geoContainer)
		if !ok {
			continue
		}

		g.RemoveEdge(c.eA)
		g.RemoveEdge(c.eB)
		idx := g.AddEdge(c.merged)
		if len(c.pts) > 0 {
			edgeGeoID[idx] = geoContainer.Add(c.pts)
		}
		delete(edgeGeoID, c.eA)
		delete(edgeGeoID, c.eB)

		for _, n := range []uint32{c.a, c.b} {
			if !queued[n] {
				queue = append(queue, n)
				queued[n] = true
			}
		}
	}

	return Result{Graph: g, Geometry: geoContainer, EdgeGeometryID: edgeGeoID}
}

// tryCollapse inspects node v and, if it is collapsible, returns the
// merged edge replacing its two incident edges.
func tryCollapse(
	g *nodegraph.Graph,
	restr *restriction.Map,
	signalPenalty int32,
	v uint32,
	edgeGeoID map[int32]uint32,
	geoContainer *geometry.Container,
) (candidate, bool) {
	if g.Nodes[v].Barrier || restr.InvolvesNode(v) {
		return candidate{}, false
	}
	if g.Degree(v) != 2 {
		return candidate{}, false
	}

	idxA, idxB := incidentEdgeIndices(g, v)
	if idxA < 0 || idxB < 0 {
		return candidate{}, false
	}
	edgeA, edgeB := g.Edges[idxA], g.Edges[idxB]

	// Only the natural "a -> v -> b" chain (one edge ends at v, the
	// other starts at v) is collapsed; a node whose two incident
	// edges both point into it, or both out of it, is left alone.
	var into, out format.NodeBasedEdge
	var intoIdx, outIdx int32
	switch {
	case edgeA.Target == v && edgeB.Source == v:
		into, out, intoIdx, outIdx = edgeA, edgeB, idxA, idxB
	case edgeB.Target == v && edgeA.Source == v:
		into, out, intoIdx, outIdx = edgeB, edgeA, idxB, idxA
	default:
		return candidate{}, false
	}

	if !attributesMatch(into, out) {
		return candidate{}, false
	}

	signalBonus := int32(0)
	if g.Nodes[v].TrafficSignal {
		signalBonus = signalPenalty
	}

	prevLen := float64(0)
	interior := make([]format.GeometryPoint, 0, 1)
	if id, hasInto := edgeGeoID[intoIdx]; hasInto {
		interior = append(interior, geoContainer.Get(id)...)
		if n := len(interior); n > 0 {
			prevLen = interior[n-1].CumulativeLength
		}
	}
	prevNodeLat, prevNodeLon := g.Nodes[into.Source].Lat, g.Nodes[into.Source].Lon
	if n := len(interior); n > 0 {
		prevNodeLat, prevNodeLon = g.Nodes[interior[n-1].NodeID].Lat, g.Nodes[interior[n-1].NodeID].Lon
	}
	vLen := prevLen + geo.HaversineDistanceMeters(prevNodeLat, prevNodeLon, g.Nodes[v].Lat, g.Nodes[v].Lon)
	// into.Weight already covers the whole "into" edge, source to v,
	// regardless of how many nodes were previously collapsed into it.
	vWeight := into.Weight
	interior = append(interior, format.GeometryPoint{
		NodeID:           v,
		CumulativeLength: vLen,
		CumulativeWeight: vWeight,
	})

	outWeight := vWeight + signalBonus
	prevLat, prevLon := g.Nodes[v].Lat, g.Nodes[v].Lon
	if id, hasOut := edgeGeoID[outIdx]; hasOut {
		for _, p := range geoContainer.Get(id) {
			segLen := geo.HaversineDistanceMeters(prevLat, prevLon, g.Nodes[p.NodeID].Lat, g.Nodes[p.NodeID].Lon)
			vLen += segLen
			interior = append(interior, format.GeometryPoint{
				NodeID:           p.NodeID,
				CumulativeLength: vLen,
				CumulativeWeight: outWeight + p.CumulativeWeight,
			})
			prevLat, prevLon = g.Nodes[p.NodeID].Lat, g.Nodes[p.NodeID].Lon
		}
	}

	merged := format.NodeBasedEdge{
		Source:                into.Source,
		Target:                out.Target,
		NameID:                into.NameID,
		Weight:                into.Weight + signalBonus + out.Weight,
		Geometry:              true,
		Roundabout:            into.Roundabout,
		IgnoreInGrid:          into.IgnoreInGrid || out.IgnoreInGrid,
		AccessRestricted:      into.AccessRestricted,
		Forward:               into.Forward,
		Backward:              into.Backward,
		TravelMode:            into.TravelMode,
		HighwayClassification: into.HighwayClassification,
	}

	return candidate{a: into.Source, b: out.Target, eA: intoIdx, eB: outIdx, merged: merged, pts: interior}, true
}

func incidentEdgeIndices(g *nodegraph.Graph, v uint32) (int32, int32) {
	var idxs []int32
	for _, idx := range g.AdjOut[v] {
		if !g.Tombstoned[idx] {
			idxs = append(idxs, idx)
		}
	}
	for _, idx := range g.AdjIn[v] {
		if !g.Tombstoned[idx] {
			idxs = append(idxs, idx)
		}
	}
	if len(idxs) != 2 {
		return -1, -1
	}
	return idxs[0], idxs[1]
}

// attributesMatch implements the degree-2 collapsibility attribute
// test: both incident edges must agree on every attribute that would
// otherwise be lost by merging them into one record.
func attributesMatch(x, y format.NodeBasedEdge) bool {
	return x.NameID == y.NameID &&
		x.TravelMode == y.TravelMode &&
		x.AccessRestricted == y.AccessRestricted &&
		x.Forward == y.Forward &&
		x.Backward == y.Backward &&
		x.Roundabout == y.Roundabout &&
		x.HighwayClassification == y.HighwayClassification
}
