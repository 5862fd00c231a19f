package nodegraph

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"time"

	"osmch/pkg/format"
	"osmch/pkg/xerrors"
)

const nodeRecordSize = 8 + 8 + 8 + 1 // external id, lat, lon, flags

func encodeNode(n Node, buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], n.ExternalID)
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(n.Lat))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(n.Lon))
	var flags byte
	if n.Barrier {
		flags |= 1 << 0
	}
	if n.TrafficSignal {
		flags |= 1 << 1
	}
	buf[24] = flags
}

func decodeNode(buf []byte) Node {
	return Node{
		ExternalID:    binary.LittleEndian.Uint64(buf[0:8]),
		Lat:           math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
		Lon:           math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
		Barrier:       buf[24]&(1<<0) != 0,
		TrafficSignal: buf[24]&(1<<1) != 0,
	}
}

// WriteOSRM writes the node-based graph artifact: fingerprint, node
// count, nodes, edge count, edges.
func WriteOSRM(path string, g *Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "create %s", path)
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 1<<16)
	if err := format.CurrentFingerprint.WriteTo(w); err != nil {
		return err
	}
	if err := format.WriteUint32(w, uint32(len(g.Nodes))); err != nil {
		return err
	}
	buf := make([]byte, nodeRecordSize)
	for _, n := range g.Nodes {
		encodeNode(n, buf)
		if _, err := w.Write(buf); err != nil {
			return xerrors.WrapErrorf(err, xerrors.KindIO, "write node")
		}
	}
	edges := g.LiveEdges()
	if err := format.WriteNodeBasedEdges(w, edges); err != nil {
		return err
	}
	return w.Flush()
}

// ReadOSRM reads the node-based graph artifact back into a fresh Graph.
func ReadOSRM(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.WrapErrorf(err, xerrors.KindIO, "open %s", path)
	}
	defer f.Close()
	r := bufio.NewReaderSize(f, 1<<16)

	fp, err := format.ReadFingerprint(r)
	if err != nil {
		return nil, err
	}
	if err := format.CheckGraph(fp); err != nil {
		return nil, err
	}
	nodeCount, err := format.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	g := NewGraph(int(nodeCount))
	buf := make([]byte, nodeRecordSize)
	for i := range g.Nodes {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, xerrors.WrapErrorf(err, xerrors.KindFormat, "read node %d", i)
		}
		g.Nodes[i] = decodeNode(buf)
	}
	edges, err := format.ReadNodeBasedEdges(r)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		g.AddEdge(e)
	}
	return g, nil
}

// WriteRestrictions writes the <base>.restrictions artifact.
func WriteRestrictions(path string, recs []format.RestrictionRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "create %s", path)
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<16)
	if err := format.CurrentFingerprint.WriteTo(w); err != nil {
		return err
	}
	if err := format.WriteRestrictions(w, recs); err != nil {
		return err
	}
	return w.Flush()
}

// ReadRestrictions reads the <base>.restrictions artifact.
func ReadRestrictions(path string) ([]format.RestrictionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.WrapErrorf(err, xerrors.KindIO, "open %s", path)
	}
	defer f.Close()
	r := bufio.NewReaderSize(f, 1<<16)
	fp, err := format.ReadFingerprint(r)
	if err != nil {
		return nil, err
	}
	if err := format.CheckGraph(fp); err != nil {
		return nil, err
	}
	return format.ReadRestrictions(r)
}

// WriteNames writes the <base>.names artifact: a prefix-sum offset
// table followed by the concatenated UTF-8 bytes.
func WriteNames(path string, names []string) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "create %s", path)
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<16)

	offsets := make([]uint32, len(names)+1)
	var total uint32
	for i, n := range names {
		offsets[i] = total
		total += uint32(len(n))
	}
	offsets[len(names)] = total

	if err := format.WriteUint32(w, uint32(len(names))); err != nil {
		return err
	}
	for _, off := range offsets {
		if err := format.WriteUint32(w, off); err != nil {
			return err
		}
	}
	for _, n := range names {
		if _, err := w.Write([]byte(n)); err != nil {
			return xerrors.WrapErrorf(err, xerrors.KindIO, "write name bytes")
		}
	}
	return w.Flush()
}

// ReadNames reads the <base>.names artifact back into a string slice.
func ReadNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.WrapErrorf(err, xerrors.KindIO, "open %s", path)
	}
	defer f.Close()
	r := bufio.NewReaderSize(f, 1<<16)

	count, err := format.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	offsets := make([]uint32, count+1)
	for i := range offsets {
		off, err := format.ReadUint32(r)
		if err != nil {
			return nil, err
		}
		offsets[i] = off
	}
	blob, err := io.ReadAll(r)
	if err != nil {
		return nil, xerrors.WrapErrorf(err, xerrors.KindIO, "read name bytes")
	}
	names := make([]string, count)
	for i := range names {
		names[i] = string(blob[offsets[i]:offsets[i+1]])
	}
	return names, nil
}

// WriteTimestamp writes <base>.timestamp: an ASCII timestamp, or "n/a"
// when the raw map did not carry one.
func WriteTimestamp(path string, ts time.Time, known bool) error {
	text := "n/a"
	if known {
		text = ts.UTC().Format(time.RFC3339)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "write %s", path)
	}
	return nil
}

// WriteNodesMap writes <base>.nodes: the internal id (array index) to
// external id map.
func WriteNodesMap(path string, g *Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "create %s", path)
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<16)
	if err := format.WriteUint32(w, uint32(len(g.Nodes))); err != nil {
		return err
	}
	for _, n := range g.Nodes {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], n.ExternalID)
		if _, err := w.Write(buf[:]); err != nil {
			return xerrors.WrapErrorf(err, xerrors.KindIO, "write external id")
		}
	}
	return w.Flush()
}
