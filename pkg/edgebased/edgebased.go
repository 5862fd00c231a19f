// Package edgebased implements the Edge-Based Graph Factory (C4): it
// turns the compressed node-based graph into its edge-based form,
// applying turn restrictions, turn penalties and per-segment speed
// overrides (C7's reweighting lives alongside it, in reweight.go).
package edgebased

import (
	"osmch/pkg/format"
	"osmch/pkg/geo"
	"osmch/pkg/geometry"
	"osmch/pkg/nodegraph"
	"osmch/pkg/profile"
	"osmch/pkg/restriction"
)

// Node is an alias for the on-disk edge-based-node record; C5/C6 fill
// in ComponentID/Tiny after this package produces the rest.
type Node = format.EdgeBasedNode

// Segment is one original node-based edge traversed by an edge-based
// edge, as recorded in the edge-segment-lookup side-car (C4's speed
// override input for C7).
type Segment struct {
	FromNode, ToNode uint32
	LengthMeters     float64
	Weight           int32
}

// Factory builds the edge-based graph from a compressed node-based
// graph plus its restriction map and a turn-costing profile.
type Factory struct {
	Graph    *nodegraph.Graph
	Geometry *geometry.Container
	// EdgeGeometryID maps a node-based edge's arena index to its
	// geometry.Container id, mirroring compressor.Result.
	EdgeGeometryID map[int32]uint32
	Restrictions   *restriction.Map
	Profile        profile.Profile
}

// Build runs node and edge generation, returning the edge-based
// nodes, edges, and the per-edge segment/penalty side-car records
// (indexed in the same order as the returned edges).
func (f *Factory) Build() (nodes []Node, edges []format.EdgeBasedEdge, segments [][]Segment, penalties []int32) {
	g := f.Graph

	// halfEdgeNode[arenaIdx][0/1] is the edge-based node id for the
	// forward/backward traversal of node-based edge arenaIdx, or
	// format.NoEdge if that direction doesn't exist.
	type halfIDs struct{ fwd, bwd uint32 }
	halfEdgeNode := make(map[int32]halfIDs, len(g.Edges))

	// outgoing[v] / incoming[v] list edge-based node ids that start
	// or end at internal node v, for C4's edge-generation step.
	outgoing := make(map[uint32][]uint32)
	incoming := make(map[uint32][]uint32)

	for idx := range g.Edges {
		idx32 := int32(idx)
		if g.Tombstoned[idx32] {
			continue
		}
		e := g.Edges[idx32]
		h := halfIDs{fwd: format.NoEdge, bwd: format.NoEdge}

		length, _ := chainLength(g, f.Geometry, f.EdgeGeometryID, idx32, e)
		nameID, travelMode := e.NameID, e.TravelMode

		if e.Forward {
			id := uint32(len(nodes))
			h.fwd = id
			geomOff, hasGeo := f.EdgeGeometryID[idx32]
			nodes = append(nodes, Node{
				ForwardID: id, ReverseID: format.NoEdge,
				FromInternal: e.Source, ToInternal: e.Target,
				GeometryOffset: geomOff, HasGeometry: hasGeo,
				SegmentLength: length, NameID: nameID, TravelMode: travelMode,
			})
			outgoing[e.Source] = append(outgoing[e.Source], id)
			incoming[e.Target] = append(incoming[e.Target], id)
		}
		if e.Backward {
			id := uint32(len(nodes))
			h.bwd = id
			geomOff, hasGeo := f.EdgeGeometryID[idx32]
			nodes = append(nodes, Node{
				ForwardID: id, ReverseID: format.NoEdge,
				FromInternal: e.Target, ToInternal: e.Source,
				GeometryOffset: geomOff, HasGeometry: hasGeo,
				SegmentLength: length, NameID: nameID, TravelMode: travelMode,
			})
			outgoing[e.Target] = append(outgoing[e.Target], id)
			incoming[e.Source] = append(incoming[e.Source], id)
		}
		if h.fwd != format.NoEdge && h.bwd != format.NoEdge {
			nodes[h.fwd].ReverseID = h.bwd
			nodes[h.bwd].ReverseID = h.fwd
		}
		halfEdgeNode[idx32] = h
	}

	// node-based-edge backing info per edge-based node id, for turn
	// generation and for the segment/penalty side-cars.
	backing := make([]int32, len(nodes))
	for idx, h := range halfEdgeNode {
		if h.fwd != format.NoEdge {
			backing[h.fwd] = idx
		}
		if h.bwd != format.NoEdge {
			backing[h.bwd] = idx
		}
	}

	for v := range g.Nodes {
		internalV := uint32(v)
		signalBonus := int32(0)
		if g.Nodes[v].TrafficSignal {
			signalBonus = 20
		}
		for _, inID := range incoming[internalV] {
			for _, outID := range outgoing[internalV] {
				nIn, nOut := nodes[inID], nodes[outID]

				if nIn.ReverseID == outID {
					// u-turn: forbidden unless the node is a dead end.
					if g.Degree(internalV) > 1 {
						continue
					}
				}

				if !f.Restrictions.Allowed(nIn.FromInternal, internalV, nOut.ToInternal) {
					continue
				}

				angle := geo.TurnAngleDegrees(
					g.Nodes[nIn.FromInternal].Lat, g.Nodes[nIn.FromInternal].Lon,
					g.Nodes[internalV].Lat, g.Nodes[internalV].Lon,
					g.Nodes[nOut.ToInternal].Lat, g.Nodes[nOut.ToInternal].Lon,
				)
				penalty := f.Profile.TurnFunction(angle)
				if penalty == profile.VetoPenalty {
					continue
				}

				// Forward and backward traversal share the node-based
				// edge's single weight field (a symmetric-segment
				// simplification, see DESIGN.md).
				inEdge := g.Edges[backing[inID]]
				edgeWeight := inEdge.Weight + int32(penalty) + signalBonus
				edges = append(edges, format.EdgeBasedEdge{
					Source:         inID,
					Target:         outID,
					OriginalEdgeID: uint32(backing[inID]),
					Weight:         edgeWeight,
					Forward:        true,
					Backward:       false,
				})
				segs := edgeSegments(g, f.Geometry, f.EdgeGeometryID, backing[inID], inEdge)
				if nIn.FromInternal != inEdge.Source {
					// backward half: list the segments starting at FromInternal.
					rev := make([]Segment, len(segs))
					for k, s := range segs {
						s.FromNode, s.ToNode = s.ToNode, s.FromNode
						rev[len(segs)-1-k] = s
					}
					segs = rev
				}
				segments = append(segments, segs)
				penalties = append(penalties, int32(penalty)+signalBonus)
			}
		}
	}

	return nodes, edges, segments, penalties
}

// chainLength returns the total physical length, in meters, of
// node-based edge idx (the sum of haversine distances between
// consecutive collapsed points), and the count of original segments
// it represents (1 if it was never collapsed).
func chainLength(
	g *nodegraph.Graph,
	geoContainer *geometry.Container,
	edgeGeoID map[int32]uint32,
	idx int32,
	e format.NodeBasedEdge,
) (float64, int) {
	id, ok := edgeGeoID[idx]
	if !ok {
		return geo.HaversineDistanceMeters(g.Nodes[e.Source].Lat, g.Nodes[e.Source].Lon, g.Nodes[e.Target].Lat, g.Nodes[e.Target].Lon), 1
	}
	pts := geoContainer.Get(id)
	if len(pts) == 0 {
		return geo.HaversineDistanceMeters(g.Nodes[e.Source].Lat, g.Nodes[e.Source].Lon, g.Nodes[e.Target].Lat, g.Nodes[e.Target].Lon), 1
	}
	return chainLengthTotal(pts, g, e), len(pts) + 1
}

// edgeSegments reconstructs the original-segment list an edge-based
// edge traverses, for the edge-segment-lookup side-car.
func edgeSegments(
	g *nodegraph.Graph,
	geoContainer *geometry.Container,
	edgeGeoID map[int32]uint32,
	idx int32,
	e format.NodeBasedEdge,
) []Segment {
	id, ok := edgeGeoID[idx]
	if !ok {
		return []Segment{{
			FromNode: e.Source, ToNode: e.Target,
			LengthMeters: geo.HaversineDistanceMeters(g.Nodes[e.Source].Lat, g.Nodes[e.Source].Lon, g.Nodes[e.Target].Lat, g.Nodes[e.Target].Lon),
			Weight:       e.Weight,
		}}
	}
	pts := geoContainer.Get(id)
	segs := make([]Segment, 0, len(pts)+1)
	prevNode := e.Source
	prevLen, prevWeight := float64(0), int32(0)
	for _, p := range pts {
		segs = append(segs, Segment{
			FromNode: prevNode, ToNode: p.NodeID,
			LengthMeters: p.CumulativeLength - prevLen,
			Weight:       p.CumulativeWeight - prevWeight,
		})
		prevNode, prevLen, prevWeight = p.NodeID, p.CumulativeLength, p.CumulativeWeight
	}
	segs = append(segs, Segment{
		FromNode: prevNode, ToNode: e.Target,
		LengthMeters: chainLengthTotal(pts, g, e) - prevLen,
		Weight:       e.Weight - prevWeight,
	})
	return segs
}

func chainLengthTotal(pts []format.GeometryPoint, g *nodegraph.Graph, e format.NodeBasedEdge) float64 {
	if len(pts) == 0 {
		return geo.HaversineDistanceMeters(g.Nodes[e.Source].Lat, g.Nodes[e.Source].Lon, g.Nodes[e.Target].Lat, g.Nodes[e.Target].Lon)
	}
	last := pts[len(pts)-1]
	return last.CumulativeLength + geo.HaversineDistanceMeters(g.Nodes[last.NodeID].Lat, g.Nodes[last.NodeID].Lon, g.Nodes[e.Target].Lat, g.Nodes[e.Target].Lon)
}
