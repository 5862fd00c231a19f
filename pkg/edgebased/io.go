package edgebased

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"osmch/pkg/format"
	"osmch/pkg/xerrors"
)

// WriteGraph writes the edge-based graph artifact: fingerprint, node
// array, edge array.
func WriteGraph(path string, nodes []Node, edges []format.EdgeBasedEdge) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "create %s", path)
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<16)

	if err := format.CurrentFingerprint.WriteTo(w); err != nil {
		return err
	}
	if err := format.WriteEdgeBasedNodes(w, nodes); err != nil {
		return err
	}
	if err := format.WriteEdgeBasedEdges(w, edges); err != nil {
		return err
	}
	return w.Flush()
}

// ReadGraph reads the edge-based graph artifact back.
func ReadGraph(path string) ([]Node, []format.EdgeBasedEdge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, xerrors.WrapErrorf(err, xerrors.KindIO, "open %s", path)
	}
	defer f.Close()
	r := bufio.NewReaderSize(f, 1<<16)

	fp, err := format.ReadFingerprint(r)
	if err != nil {
		return nil, nil, err
	}
	if err := format.CheckGraph(fp); err != nil {
		return nil, nil, err
	}
	nodes, err := format.ReadEdgeBasedNodes(r)
	if err != nil {
		return nil, nil, err
	}
	edges, err := format.ReadEdgeBasedEdges(r)
	if err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}

// WriteSegmentLookup writes the edge-segment-lookup side-car per spec
// §4.2: for each edge-based edge, its segment count N, then N internal
// node ids (the segment's end node; its start is the previous one, or
// the edge-based node's FromInternal for the first), then N
// (length, weight) pairs.
func WriteSegmentLookup(path string, segments [][]Segment) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "create %s", path)
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<16)

	if err := format.WriteUint32(w, uint32(len(segments))); err != nil {
		return err
	}
	for _, segs := range segments {
		if err := format.WriteUint32(w, uint32(len(segs))); err != nil {
			return err
		}
		for _, s := range segs {
			if err := format.WriteUint32(w, s.ToNode); err != nil {
				return err
			}
		}
		var buf [12]byte
		for _, s := range segs {
			binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(s.LengthMeters))
			binary.LittleEndian.PutUint32(buf[8:12], uint32(s.Weight))
			if _, err := w.Write(buf[:]); err != nil {
				return xerrors.WrapErrorf(err, xerrors.KindIO, "write segment weight")
			}
		}
	}
	return w.Flush()
}

// ReadSegmentLookup reads back the edge-segment-lookup side-car
// WriteSegmentLookup produces. The returned segments only carry
// ToNode/LengthMeters/Weight per record; FromNode is left zero since
// the on-disk layout (per spec §4.2) doesn't repeat it — callers that
// need it can chain ToNode across consecutive records.
func ReadSegmentLookup(path string) ([][]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.WrapErrorf(err, xerrors.KindIO, "open %s", path)
	}
	defer f.Close()
	r := bufio.NewReaderSize(f, 1<<16)

	edgeCount, err := format.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	out := make([][]Segment, edgeCount)
	for i := range out {
		n, err := format.ReadUint32(r)
		if err != nil {
			return nil, err
		}
		segs := make([]Segment, n)
		for j := uint32(0); j < n; j++ {
			toNode, err := format.ReadUint32(r)
			if err != nil {
				return nil, err
			}
			segs[j].ToNode = toNode
		}
		var buf [12]byte
		for j := uint32(0); j < n; j++ {
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return nil, xerrors.WrapErrorf(err, xerrors.KindIO, "read segment weight")
			}
			segs[j].LengthMeters = math.Float64frombits(binary.LittleEndian.Uint64(buf[0:8]))
			segs[j].Weight = int32(binary.LittleEndian.Uint32(buf[8:12]))
		}
		out[i] = segs
	}
	return out, nil
}

// ReadSegmentLookupChained reads back the edge-segment-lookup side-car
// and fills in each segment's FromNode by chaining ToNode across
// consecutive records, seeding the first segment of edge i from the
// edge-based node it starts at (nodes[edges[i].Source].FromInternal).
// segments and edges are both indexed by edge-based-edge id, so edges
// must be the same slice the lookup was written from.
func ReadSegmentLookupChained(path string, nodes []Node, edges []format.EdgeBasedEdge) ([][]Segment, error) {
	segments, err := ReadSegmentLookup(path)
	if err != nil {
		return nil, err
	}
	for i, segs := range segments {
		prev := nodes[edges[i].Source].FromInternal
		for j := range segs {
			segs[j].FromNode = prev
			prev = segs[j].ToNode
		}
	}
	return segments, nil
}

// WritePenalties writes the edge-penalties side-car: the non-segment
// component of each edge-based edge's weight, in edge-based-edge id
// order.
func WritePenalties(path string, penalties []int32) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "create %s", path)
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<16)

	if err := format.WriteUint32(w, uint32(len(penalties))); err != nil {
		return err
	}
	for _, p := range penalties {
		if err := format.WriteUint32(w, uint32(p)); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ReadPenalties reads back the edge-penalties side-car.
func ReadPenalties(path string) ([]int32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.WrapErrorf(err, xerrors.KindIO, "open %s", path)
	}
	defer f.Close()
	r := bufio.NewReaderSize(f, 1<<16)

	n, err := format.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	penalties := make([]int32, n)
	for i := range penalties {
		v, err := format.ReadUint32(r)
		if err != nil {
			return nil, err
		}
		penalties[i] = int32(v)
	}
	return penalties, nil
}
