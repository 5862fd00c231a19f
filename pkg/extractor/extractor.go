// Package extractor is the ambient front-end that sits before C1–C4:
// it turns a rawmap.Map plus a profile.Profile into the initial
// node-based graph, the flat restriction record list, and the
// interned name table the rest of the pipeline consumes.
package extractor

import (
	"strconv"
	"strings"

	"osmch/pkg/format"
	"osmch/pkg/geo"
	"osmch/pkg/nodegraph"
	"osmch/pkg/profile"
	"osmch/pkg/rawmap"
	"osmch/pkg/util"
)

// highwayClassOrder ranks highway tag values into the single byte the
// on-disk NodeBasedEdge carries; unranked values fall through to the
// lowest class.
var highwayClassOrder = map[string]uint8{
	"motorway": 10, "motorway_link": 9,
	"trunk": 8, "trunk_link": 7,
	"primary": 6, "primary_link": 5,
	"secondary": 4, "secondary_link": 4,
	"tertiary": 3, "tertiary_link": 3,
	"unclassified": 2, "residential": 2,
	"living_street": 1, "service": 1, "road": 1, "track": 1,
}

// Result is the extractor front-end's output: a fresh node-based
// graph, the flat restriction list, and the interned name table.
type Result struct {
	Graph        *nodegraph.Graph
	Restrictions []format.RestrictionRecord
	Names        util.IDMap
}

// Extract builds Result from m using p to classify ways and nodes.
// One Profile handle is used per call, matching the "profile state is
// per worker thread" rule for the single-threaded extraction pass.
func Extract(m *rawmap.Map, p profile.Profile) (Result, error) {
	if err := p.SourceFunction(); err != nil {
		return Result{}, err
	}

	names := util.NewIdMap()
	internalID := make(map[int64]uint32, len(m.Nodes))
	g := nodegraph.NewGraph(0)

	wayResults := make([]profile.WayResult, len(m.Ways))
	accepted := make([]bool, len(m.Ways))
	for i, w := range m.Ways {
		res := p.WayFunction(wayTagsOf(w))
		wayResults[i] = res
		accepted[i] = res.Accept
	}

	ensureNode := func(id int64) uint32 {
		if idx, ok := internalID[id]; ok {
			return idx
		}
		raw := m.Nodes[id]
		nodeRes := p.NodeFunction(profile.NodeTags{
			Barrier:       raw.Tags["barrier"] != "" || raw.Tags["ford"] != "",
			TrafficSignal: raw.Tags["highway"] == "traffic_signals",
		})
		idx := uint32(len(g.Nodes))
		g.Nodes = append(g.Nodes, nodegraph.Node{
			ExternalID:    uint64(id),
			Lat:           raw.Lat,
			Lon:           raw.Lon,
			Barrier:       nodeRes.Barrier,
			TrafficSignal: nodeRes.TrafficSignal,
		})
		g.AdjOut = append(g.AdjOut, nil)
		g.AdjIn = append(g.AdjIn, nil)
		internalID[id] = idx
		return idx
	}

	for i, w := range m.Ways {
		if !accepted[i] {
			continue
		}
		res := wayResults[i]
		nameID := uint32(names.GetID(w.Tags["name"]))
		class := highwayClassOrder[w.Tags["highway"]]
		roundabout := w.Tags["junction"] == "roundabout" || w.Tags["junction"] == "circular"

		for j := 0; j+1 < len(w.NodeIDs); j++ {
			a, b := w.NodeIDs[j], w.NodeIDs[j+1]
			na, nb := ensureNode(a), ensureNode(b)
			length := geo.HaversineDistanceMeters(g.Nodes[na].Lat, g.Nodes[na].Lon, g.Nodes[nb].Lat, g.Nodes[nb].Lon)
			weight := profile.SpeedToWeight(length, res.SpeedKMH)

			g.AddEdge(format.NodeBasedEdge{
				Source:                na,
				Target:                nb,
				NameID:                nameID,
				Weight:                weight,
				Roundabout:            roundabout,
				AccessRestricted:      !res.Access,
				Forward:               true,
				Backward:              true,
				TravelMode:            res.TravelMode,
				HighwayClassification: class,
			})
		}
	}

	restrictions := buildRestrictions(m, internalID)

	return Result{Graph: g, Restrictions: restrictions, Names: names}, nil
}

func wayTagsOf(w rawmap.Way) profile.WayTags {
	t := profile.WayTags{
		Highway:    w.Tags["highway"],
		OneWay:     w.Tags["oneway"] != "",
		Roundabout: w.Tags["junction"] == "roundabout",
		Name:       w.Tags["name"],
	}
	if s := w.Tags["maxspeed"]; s != "" {
		t.MaxSpeedKMH = parseMaxSpeedKMH(s)
	}
	return t
}

// buildRestrictions resolves each rawmap.Restriction's from-way/to-way
// pair into the node-based from/to ids adjacent to the via node, the
// representation format.RestrictionRecord needs.
func buildRestrictions(m *rawmap.Map, internalID map[int64]uint32) []format.RestrictionRecord {
	byID := make(map[int64]rawmap.Way, len(m.Ways))
	for _, w := range m.Ways {
		byID[w.ID] = w
	}

	var out []format.RestrictionRecord
	for _, r := range m.Restrictions {
		fromWay, ok1 := byID[r.FromWayID]
		toWay, ok2 := byID[r.ToWayID]
		if !ok1 || !ok2 {
			continue
		}
		fromNode, ok3 := adjacentTo(fromWay, r.ViaNodeID)
		toNode, ok4 := adjacentTo(toWay, r.ViaNodeID)
		via, ok5 := internalID[r.ViaNodeID]
		if !ok3 || !ok4 || !ok5 {
			continue
		}
		fromIdx, ok6 := internalID[fromNode]
		toIdx, ok7 := internalID[toNode]
		if !ok6 || !ok7 {
			continue
		}
		kind := format.RestrictionNo
		if len(r.Kind) >= 4 && r.Kind[:4] == "only" {
			kind = format.RestrictionOnly
		}
		out = append(out, format.RestrictionRecord{FromNode: fromIdx, ViaNode: via, ToNode: toIdx, Kind: kind})
	}
	return out
}

// adjacentTo returns the node id next to via within w's node list,
// preferring the occurrence closest to either end of the way (the via
// node is almost always an endpoint of the from/to ways in a turn
// restriction).
func adjacentTo(w rawmap.Way, via int64) (int64, bool) {
	for i, id := range w.NodeIDs {
		if id != via {
			continue
		}
		switch {
		case i > 0:
			return w.NodeIDs[i-1], true
		case i+1 < len(w.NodeIDs):
			return w.NodeIDs[i+1], true
		}
	}
	return 0, false
}

// parseMaxSpeedKMH handles the maxspeed unit suffixes OSM tags use
// (mph/knots/km-h-implicit).
func parseMaxSpeedKMH(s string) float64 {
	switch {
	case strings.HasSuffix(s, " mph"):
		return parseFloatPrefix(strings.TrimSuffix(s, " mph")) * 1.60934
	case strings.HasSuffix(s, " knots"):
		return parseFloatPrefix(strings.TrimSuffix(s, " knots")) * 1.852
	case strings.HasSuffix(s, " km/h"):
		return parseFloatPrefix(strings.TrimSuffix(s, " km/h"))
	default:
		return parseFloatPrefix(s)
	}
}

func parseFloatPrefix(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
