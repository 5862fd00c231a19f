// Package spatialindex implements the Spatial Index Builder (C6): a
// bulk-loaded static R-tree keyed on the bounding box of each
// edge-based node's two endpoints.
package spatialindex

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"osmch/pkg/format"
	"osmch/pkg/nodegraph"
)

// dims is the dimensionality of every bounding box: latitude, longitude.
const dims = 2

// boxEpsilon pads degenerate (point-like) bounding boxes so rtreego's
// Rect constructor, which rejects zero-length sides, never fails on a
// perfectly horizontal or vertical edge-based node.
const boxEpsilon = 1e-9

// Entry is one edge-based node's indexed bounding box.
type Entry struct {
	NodeID         uint32
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

func (e Entry) rect() *rtreego.Rect {
	minLat, maxLat := e.MinLat, e.MaxLat
	minLon, maxLon := e.MinLon, e.MaxLon
	if maxLat-minLat < boxEpsilon {
		maxLat = minLat + boxEpsilon
	}
	if maxLon-minLon < boxEpsilon {
		maxLon = minLon + boxEpsilon
	}
	r, _ := rtreego.NewRect(rtreego.Point{minLat, minLon}, []float64{maxLat - minLat, maxLon - minLon})
	return r
}

// spatial adapts Entry to rtreego.Spatial for in-memory bulk loading.
type spatial struct {
	Entry
}

func (s spatial) Bounds() *rtreego.Rect { return s.rect() }

// BuildEntries computes one Entry per edge-based node from the
// node-based graph's coordinates, using the bounding box of the
// node's two endpoints (FromInternal, ToInternal).
func BuildEntries(g *nodegraph.Graph, nodes []format.EdgeBasedNode) []Entry {
	entries := make([]Entry, len(nodes))
	for i, n := range nodes {
		from, to := g.Nodes[n.FromInternal], g.Nodes[n.ToInternal]
		entries[i] = Entry{
			NodeID: uint32(i),
			MinLat: min(from.Lat, to.Lat), MaxLat: max(from.Lat, to.Lat),
			MinLon: min(from.Lon, to.Lon), MaxLon: max(from.Lon, to.Lon),
		}
	}
	return entries
}

// BuildTree bulk-loads an in-memory rtreego.Rtree over entries, used
// for immediate nearest-edge / bbox queries during preparation (e.g.
// debug tooling) without touching the on-disk format.
func BuildTree(entries []Entry, minChildren, maxChildren int) *rtreego.Rtree {
	objs := make([]rtreego.Spatial, len(entries))
	for i, e := range entries {
		objs[i] = spatial{e}
	}
	return rtreego.NewTree(dims, minChildren, maxChildren, objs...)
}

// sortSTR packs entries via sort-tile-recursive ordering: a stable,
// cheap bulk-load order for the on-disk leaf layer that keeps
// spatially close entries adjacent without building a full in-memory
// tree just to get a good packing.
func sortSTR(entries []Entry, leafSize int) []Entry {
	out := append([]Entry(nil), entries...)
	if len(out) == 0 {
		return out
	}
	slabCount := int(float64(len(out))/float64(leafSize) + 0.5)
	if slabCount < 1 {
		slabCount = 1
	}
	sort.Slice(out, func(i, j int) bool { return centerLon(out[i]) < centerLon(out[j]) })

	perSlab := (len(out) + slabCount - 1) / slabCount
	for s := 0; s < len(out); s += perSlab {
		end := s + perSlab
		if end > len(out) {
			end = len(out)
		}
		slab := out[s:end]
		sort.Slice(slab, func(i, j int) bool { return centerLat(slab[i]) < centerLat(slab[j]) })
	}
	return out
}

func centerLon(e Entry) float64 { return (e.MinLon + e.MaxLon) / 2 }
func centerLat(e Entry) float64 { return (e.MinLat + e.MaxLat) / 2 }

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
