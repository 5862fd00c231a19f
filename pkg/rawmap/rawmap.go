// Package rawmap is the thin raw-map parser boundary: it reads an OSM
// PBF extract into plain Go structs and does no routing-domain
// reasoning at all — classification, speed, and access decisions are
// the profile's job (pkg/profile), consumed by the extractor front-end.
package rawmap

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"osmch/pkg/xerrors"
)

// Node is a raw OSM node: identity, position, and tags.
type Node struct {
	ID      int64
	Lat, Lon float64
	Tags    map[string]string
}

// Way is a raw OSM way: identity, its ordered node references, and tags.
type Way struct {
	ID      int64
	NodeIDs []int64
	Tags    map[string]string
}

// Restriction is a node-via turn restriction relation; Kind mirrors the
// OSM relation's "restriction" tag value, left as the raw string for the
// extractor to classify.
type Restriction struct {
	FromWayID int64
	ViaNodeID int64
	ToWayID   int64
	Kind      string // e.g. "no_left_turn", "only_straight_on"
}

// Map is everything the extractor front-end needs from one PBF file:
// every node referenced by a kept way, every way, and every node-via
// turn restriction relation. Ways and nodes that no way references are
// dropped via accepted-node filtering.
type Map struct {
	Nodes        map[int64]Node
	Ways         []Way
	Restrictions []Restriction
	// Timestamp is the PBF header's replication timestamp, if present.
	Timestamp    int64
	HasTimestamp bool
}

// Load reads path (an .osm.pbf file) into a Map. It scans the file
// twice: once to learn which node ids are referenced by a way (so the
// second pass can discard nodes no way touches), once to materialize
// nodes, ways, and restriction relations.
func Load(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.WrapErrorf(err, xerrors.KindIO, "open %s", path)
	}
	defer f.Close()

	referenced := make(map[int64]struct{})
	scanner := osmpbf.New(context.Background(), f, 0)
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		for _, n := range way.Nodes {
			referenced[int64(n.ID)] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, xerrors.WrapErrorf(err, xerrors.KindFormat, "scan ways in %s", path)
	}
	scanner.Close()

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, xerrors.WrapErrorf(err, xerrors.KindIO, "rewind %s", path)
	}

	m := &Map{Nodes: make(map[int64]Node, len(referenced))}
	scanner = osmpbf.New(context.Background(), f, 0)
	defer scanner.Close()
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			if _, ok := referenced[int64(o.ID)]; !ok {
				continue
			}
			m.Nodes[int64(o.ID)] = Node{
				ID:   int64(o.ID),
				Lat:  o.Lat,
				Lon:  o.Lon,
				Tags: tagMap(o.Tags),
			}
		case *osm.Way:
			if len(o.Nodes) < 2 {
				continue
			}
			ids := make([]int64, len(o.Nodes))
			for i, n := range o.Nodes {
				ids[i] = int64(n.ID)
			}
			m.Ways = append(m.Ways, Way{
				ID:      int64(o.ID),
				NodeIDs: ids,
				Tags:    tagMap(o.Tags),
			})
		case *osm.Relation:
			if o.Tags.Find("type") != "restriction" {
				continue
			}
			m.Restrictions = append(m.Restrictions, restrictionFromRelation(o)...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.WrapErrorf(err, xerrors.KindFormat, "scan nodes/ways in %s", path)
	}
	return m, nil
}

func tagMap(tags osm.Tags) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		if strings.Contains(t.Key, "created_by") || strings.Contains(t.Key, "source") ||
			strings.Contains(t.Key, "note") || strings.Contains(t.Key, "fixme") {
			continue
		}
		m[t.Key] = t.Value
	}
	return m
}

// restrictionFromRelation extracts a node-via turn restriction from an
// OSM restriction relation. Way-via restrictions (via a short way
// rather than a single node) are not supported.
func restrictionFromRelation(rel *osm.Relation) []Restriction {
	kind := rel.Tags.Find("restriction")
	if kind == "" {
		return nil
	}
	var fromWay, toWay int64
	var viaNode int64
	haveFrom, haveTo, haveVia := false, false, false
	for _, mem := range rel.Members {
		switch mem.Role {
		case "from":
			if mem.Type == osm.TypeWay {
				fromWay, haveFrom = mem.Ref, true
			}
		case "to":
			if mem.Type == osm.TypeWay {
				toWay, haveTo = mem.Ref, true
			}
		case "via":
			if mem.Type == osm.TypeNode {
				viaNode, haveVia = mem.Ref, true
			}
		}
	}
	if !haveFrom || !haveTo || !haveVia {
		return nil
	}
	return []Restriction{{FromWayID: fromWay, ViaNodeID: viaNode, ToWayID: toWay, Kind: kind}}
}
