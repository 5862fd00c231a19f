package geometry

import (
	"github.com/twpayne/go-polyline"

	"osmch/pkg/format"
	"osmch/pkg/nodegraph"
)

// EncodePolyline renders one compressed edge's poly-line (endpoints
// plus every collapsed-away node) as a Google-encoded polyline string,
// for the opt-in debug geometry dump: visually sanity-checking C1/C4
// output without a query engine.
func EncodePolyline(g *nodegraph.Graph, fromID, toID uint32, pts []format.GeometryPoint) string {
	coords := make([][]float64, 0, len(pts)+2)
	coords = append(coords, []float64{g.Nodes[fromID].Lat, g.Nodes[fromID].Lon})
	for _, p := range pts {
		coords = append(coords, []float64{g.Nodes[p.NodeID].Lat, g.Nodes[p.NodeID].Lon})
	}
	coords = append(coords, []float64{g.Nodes[toID].Lat, g.Nodes[toID].Lon})
	return string(polyline.EncodeCoords(coords))
}
