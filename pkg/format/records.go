package format

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"osmch/pkg/xerrors"
)

// NoNode is the sentinel internal node id: "no such node".
const NoNode uint32 = 0xFFFFFFFF

// NoExternalNode is the sentinel external node id.
const NoExternalNode uint64 = 0xFFFFFFFFFFFFFFFF

// NoEdge is the sentinel edge-based-node / original-edge id.
const NoEdge uint32 = 0xFFFFFFFF

// NodeBasedEdgeSize is the fixed, tightly-packed byte size of a
// NodeBasedEdge record.
const NodeBasedEdgeSize = 20

// NodeBasedEdge is the 20-byte fixed layout record from spec §3: one
// directed road segment between two internal node ids as the extractor
// front-end and C3 (graph compressor) see it.
type NodeBasedEdge struct {
	Source             uint32
	Target             uint32
	NameID             uint32
	Weight             int32 // seconds * 10
	Geometry           bool
	Roundabout         bool
	IgnoreInGrid       bool
	AccessRestricted   bool
	Forward            bool
	Backward           bool
	TravelMode         uint8
	HighwayClassification uint8
}

func (e NodeBasedEdge) flags() uint8 {
	var f uint8
	if e.Geometry {
		f |= 1 << 0
	}
	if e.Roundabout {
		f |= 1 << 1
	}
	if e.IgnoreInGrid {
		f |= 1 << 2
	}
	if e.AccessRestricted {
		f |= 1 << 3
	}
	if e.Forward {
		f |= 1 << 4
	}
	if e.Backward {
		f |= 1 << 5
	}
	return f
}

func decodeFlags(f uint8) (geometry, roundabout, ignoreInGrid, accessRestricted, forward, backward bool) {
	geometry = f&(1<<0) != 0
	roundabout = f&(1<<1) != 0
	ignoreInGrid = f&(1<<2) != 0
	accessRestricted = f&(1<<3) != 0
	forward = f&(1<<4) != 0
	backward = f&(1<<5) != 0
	return
}

// Encode writes the record's 20-byte little-endian representation into
// buf, which must be at least NodeBasedEdgeSize bytes.
func (e NodeBasedEdge) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], e.Source)
	binary.LittleEndian.PutUint32(buf[4:8], e.Target)
	binary.LittleEndian.PutUint32(buf[8:12], e.NameID)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(e.Weight))
	buf[16] = e.flags()
	buf[17] = e.TravelMode
	buf[18] = e.HighwayClassification
	buf[19] = 0
}

// DecodeNodeBasedEdge reads a NodeBasedEdge out of a 20-byte buffer.
func DecodeNodeBasedEdge(buf []byte) NodeBasedEdge {
	geometry, roundabout, ignoreInGrid, accessRestricted, forward, backward := decodeFlags(buf[16])
	return NodeBasedEdge{
		Source:                binary.LittleEndian.Uint32(buf[0:4]),
		Target:                binary.LittleEndian.Uint32(buf[4:8]),
		NameID:                binary.LittleEndian.Uint32(buf[8:12]),
		Weight:                int32(binary.LittleEndian.Uint32(buf[12:16])),
		Geometry:              geometry,
		Roundabout:            roundabout,
		IgnoreInGrid:          ignoreInGrid,
		AccessRestricted:      accessRestricted,
		Forward:               forward,
		Backward:              backward,
		TravelMode:            buf[17],
		HighwayClassification: buf[18],
	}
}

// EdgeBasedEdgeSize is the fixed, tightly-packed byte size of an
// EdgeBasedEdge record.
const EdgeBasedEdgeSize = 16

// EdgeBasedEdge is the 16-byte fixed layout record from spec §3: a
// legal turn between two edge-based nodes. Forward/backward are packed
// into the top two bits of OriginalEdgeID since real graphs never need
// the full 32 bits for an edge id.
type EdgeBasedEdge struct {
	Source         uint32
	Target         uint32
	OriginalEdgeID uint32
	Weight         int32
	Forward        bool
	Backward       bool
}

const (
	edgeBasedForwardBit  = uint32(1) << 31
	edgeBasedBackwardBit = uint32(1) << 30
	edgeBasedIDMask      = ^(edgeBasedForwardBit | edgeBasedBackwardBit)
)

func (e EdgeBasedEdge) Encode(buf []byte) {
	packed := e.OriginalEdgeID & edgeBasedIDMask
	if e.Forward {
		packed |= edgeBasedForwardBit
	}
	if e.Backward {
		packed |= edgeBasedBackwardBit
	}
	binary.LittleEndian.PutUint32(buf[0:4], e.Source)
	binary.LittleEndian.PutUint32(buf[4:8], e.Target)
	binary.LittleEndian.PutUint32(buf[8:12], packed)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(e.Weight))
}

func DecodeEdgeBasedEdge(buf []byte) EdgeBasedEdge {
	packed := binary.LittleEndian.Uint32(buf[8:12])
	return EdgeBasedEdge{
		Source:         binary.LittleEndian.Uint32(buf[0:4]),
		Target:         binary.LittleEndian.Uint32(buf[4:8]),
		OriginalEdgeID: packed & edgeBasedIDMask,
		Weight:         int32(binary.LittleEndian.Uint32(buf[12:16])),
		Forward:        packed&edgeBasedForwardBit != 0,
		Backward:       packed&edgeBasedBackwardBit != 0,
	}
}

// QueryEdgeSize is the fixed byte size of a contracted-graph edge
// record (C9's edge array entry).
const QueryEdgeSize = 16

// QueryEdge is the contraction output record from spec §3. Forward,
// Backward and Shortcut are packed into the top 3 bits of
// OriginalEdgeID, same rationale as EdgeBasedEdge.
type QueryEdge struct {
	Target         uint32
	Weight         int32
	OriginalEdgeID uint32
	Forward        bool
	Backward       bool
	Shortcut       bool
	Middle         uint32 // valid iff Shortcut
}

const (
	queryEdgeForwardBit  = uint32(1) << 31
	queryEdgeBackwardBit = uint32(1) << 30
	queryEdgeShortcutBit = uint32(1) << 29
	queryEdgeIDMask      = ^(queryEdgeForwardBit | queryEdgeBackwardBit | queryEdgeShortcutBit)
)

func (e QueryEdge) Encode(buf []byte) {
	packed := e.OriginalEdgeID & queryEdgeIDMask
	if e.Forward {
		packed |= queryEdgeForwardBit
	}
	if e.Backward {
		packed |= queryEdgeBackwardBit
	}
	if e.Shortcut {
		packed |= queryEdgeShortcutBit
	}
	binary.LittleEndian.PutUint32(buf[0:4], e.Target)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(e.Weight))
	binary.LittleEndian.PutUint32(buf[8:12], packed)
	binary.LittleEndian.PutUint32(buf[12:16], e.Middle)
}

func DecodeQueryEdge(buf []byte) QueryEdge {
	packed := binary.LittleEndian.Uint32(buf[8:12])
	return QueryEdge{
		Target:         binary.LittleEndian.Uint32(buf[0:4]),
		Weight:         int32(binary.LittleEndian.Uint32(buf[4:8])),
		OriginalEdgeID: packed & queryEdgeIDMask,
		Forward:        packed&queryEdgeForwardBit != 0,
		Backward:       packed&queryEdgeBackwardBit != 0,
		Shortcut:       packed&queryEdgeShortcutBit != 0,
		Middle:         binary.LittleEndian.Uint32(buf[12:16]),
	}
}

// RestrictionKind distinguishes "only this turn is legal" restrictions
// from "this specific turn is forbidden" restrictions.
type RestrictionKind uint8

const (
	RestrictionNo RestrictionKind = iota
	RestrictionOnly
)

// RestrictionRecordSize is the fixed byte size of a Restriction record.
const RestrictionRecordSize = 13

// RestrictionRecord is the on-disk layout of a turn restriction: the
// node-based from/via/to triple plus its kind.
type RestrictionRecord struct {
	FromNode uint32
	ViaNode  uint32
	ToNode   uint32
	Kind     RestrictionKind
}

func (r RestrictionRecord) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], r.FromNode)
	binary.LittleEndian.PutUint32(buf[4:8], r.ViaNode)
	binary.LittleEndian.PutUint32(buf[8:12], r.ToNode)
	buf[12] = byte(r.Kind)
}

func DecodeRestrictionRecord(buf []byte) RestrictionRecord {
	return RestrictionRecord{
		FromNode: binary.LittleEndian.Uint32(buf[0:4]),
		ViaNode:  binary.LittleEndian.Uint32(buf[4:8]),
		ToNode:   binary.LittleEndian.Uint32(buf[8:12]),
		Kind:     RestrictionKind(buf[12]),
	}
}

// WriteUint32 writes a single little-endian uint32, used for the
// repeated count/offset fields scattered through the file formats.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "write uint32")
	}
	return nil
}

// ReadUint32 reads a single little-endian uint32.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, xerrors.WrapErrorf(err, xerrors.KindIO, "read uint32")
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// recordCodec is satisfied by every fixed-layout record type above.
type recordCodec interface {
	Encode(buf []byte)
}

// writeRecords writes count little-endian records of size recSize via
// encode(i, buf), buffering through a bufio.Writer the way the bulk
// CSR/geometry arrays are written throughout the pipeline.
func writeRecords(w io.Writer, count, recSize int, encode func(i int, buf []byte)) error {
	bw := bufio.NewWriterSize(w, 1<<16)
	buf := make([]byte, recSize)
	for i := 0; i < count; i++ {
		encode(i, buf)
		if _, err := bw.Write(buf); err != nil {
			return xerrors.WrapErrorf(err, xerrors.KindIO, "write record %d", i)
		}
	}
	return bw.Flush()
}

// readRecords reads count records of size recSize, calling decode(i,
// buf) for each.
func readRecords(r io.Reader, count, recSize int, decode func(i int, buf []byte)) error {
	br := bufio.NewReaderSize(r, 1<<16)
	buf := make([]byte, recSize)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return xerrors.WrapErrorf(err, xerrors.KindFormat, "read record %d", i)
		}
		decode(i, buf)
	}
	return nil
}

// WriteNodeBasedEdges writes len and records (no fingerprint).
func WriteNodeBasedEdges(w io.Writer, edges []NodeBasedEdge) error {
	if err := WriteUint32(w, uint32(len(edges))); err != nil {
		return err
	}
	return writeRecords(w, len(edges), NodeBasedEdgeSize, func(i int, buf []byte) {
		edges[i].Encode(buf)
	})
}

// ReadNodeBasedEdges reads a length-prefixed NodeBasedEdge array.
func ReadNodeBasedEdges(r io.Reader) ([]NodeBasedEdge, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	edges := make([]NodeBasedEdge, n)
	err = readRecords(r, int(n), NodeBasedEdgeSize, func(i int, buf []byte) {
		edges[i] = DecodeNodeBasedEdge(buf)
	})
	return edges, err
}

// WriteEdgeBasedEdges writes a length-prefixed EdgeBasedEdge array.
func WriteEdgeBasedEdges(w io.Writer, edges []EdgeBasedEdge) error {
	if err := WriteUint32(w, uint32(len(edges))); err != nil {
		return err
	}
	return writeRecords(w, len(edges), EdgeBasedEdgeSize, func(i int, buf []byte) {
		edges[i].Encode(buf)
	})
}

// ReadEdgeBasedEdges reads a length-prefixed EdgeBasedEdge array.
func ReadEdgeBasedEdges(r io.Reader) ([]EdgeBasedEdge, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	edges := make([]EdgeBasedEdge, n)
	err = readRecords(r, int(n), EdgeBasedEdgeSize, func(i int, buf []byte) {
		edges[i] = DecodeEdgeBasedEdge(buf)
	})
	return edges, err
}

// WriteRestrictions writes a length-prefixed RestrictionRecord array.
func WriteRestrictions(w io.Writer, recs []RestrictionRecord) error {
	if err := WriteUint32(w, uint32(len(recs))); err != nil {
		return err
	}
	return writeRecords(w, len(recs), RestrictionRecordSize, func(i int, buf []byte) {
		recs[i].Encode(buf)
	})
}

// ReadRestrictions reads a length-prefixed RestrictionRecord array.
func ReadRestrictions(r io.Reader) ([]RestrictionRecord, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	recs := make([]RestrictionRecord, n)
	err = readRecords(r, int(n), RestrictionRecordSize, func(i int, buf []byte) {
		recs[i] = DecodeRestrictionRecord(buf)
	})
	return recs, err
}

// EdgeBasedNodeSize is the fixed, tightly-packed byte size of an
// EdgeBasedNode record.
const EdgeBasedNodeSize = 38

// EdgeBasedNode is the on-disk layout of spec §3's edge-based node:
// one directed, traversable half of a node-based edge, its paired
// reverse direction (if any), its endpoints, its geometry-container
// offset, and its SCC labeling (filled in after C5 runs).
type EdgeBasedNode struct {
	ForwardID      uint32
	ReverseID      uint32 // NoEdge if the reverse direction doesn't exist
	FromInternal   uint32
	ToInternal     uint32
	GeometryOffset uint32
	ComponentID    uint32
	NameID         uint32
	SegmentLength  float64
	HasGeometry    bool
	Tiny           bool
	TravelMode     uint8
}

func (n EdgeBasedNode) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], n.ForwardID)
	binary.LittleEndian.PutUint32(buf[4:8], n.ReverseID)
	binary.LittleEndian.PutUint32(buf[8:12], n.FromInternal)
	binary.LittleEndian.PutUint32(buf[12:16], n.ToInternal)
	binary.LittleEndian.PutUint32(buf[16:20], n.GeometryOffset)
	binary.LittleEndian.PutUint32(buf[20:24], n.ComponentID)
	binary.LittleEndian.PutUint32(buf[24:28], n.NameID)
	binary.LittleEndian.PutUint64(buf[28:36], math.Float64bits(n.SegmentLength))
	var flags uint8
	if n.HasGeometry {
		flags |= 1 << 0
	}
	if n.Tiny {
		flags |= 1 << 1
	}
	buf[36] = flags
	buf[37] = n.TravelMode
}

func DecodeEdgeBasedNode(buf []byte) EdgeBasedNode {
	flags := buf[36]
	return EdgeBasedNode{
		ForwardID:      binary.LittleEndian.Uint32(buf[0:4]),
		ReverseID:      binary.LittleEndian.Uint32(buf[4:8]),
		FromInternal:   binary.LittleEndian.Uint32(buf[8:12]),
		ToInternal:     binary.LittleEndian.Uint32(buf[12:16]),
		GeometryOffset: binary.LittleEndian.Uint32(buf[16:20]),
		ComponentID:    binary.LittleEndian.Uint32(buf[20:24]),
		NameID:         binary.LittleEndian.Uint32(buf[24:28]),
		SegmentLength:  math.Float64frombits(binary.LittleEndian.Uint64(buf[28:36])),
		HasGeometry:    flags&(1<<0) != 0,
		Tiny:           flags&(1<<1) != 0,
		TravelMode:     buf[37],
	}
}

// WriteEdgeBasedNodes writes a length-prefixed EdgeBasedNode array.
func WriteEdgeBasedNodes(w io.Writer, nodes []EdgeBasedNode) error {
	if err := WriteUint32(w, uint32(len(nodes))); err != nil {
		return err
	}
	return writeRecords(w, len(nodes), EdgeBasedNodeSize, func(i int, buf []byte) {
		nodes[i].Encode(buf)
	})
}

// ReadEdgeBasedNodes reads a length-prefixed EdgeBasedNode array.
func ReadEdgeBasedNodes(r io.Reader) ([]EdgeBasedNode, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	nodes := make([]EdgeBasedNode, n)
	err = readRecords(r, int(n), EdgeBasedNodeSize, func(i int, buf []byte) {
		nodes[i] = DecodeEdgeBasedNode(buf)
	})
	return nodes, err
}

// GeometryPointSize is the fixed byte size of one compressed-edge
// geometry point.
const GeometryPointSize = 16

// GeometryPoint is one point of a compressed edge's concatenated
// poly-line: the collapsed-away internal node id plus the cumulative
// length and weight from the edge's start up to and including this
// point.
type GeometryPoint struct {
	NodeID           uint32
	CumulativeLength float64
	CumulativeWeight int32
}

func (p GeometryPoint) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.NodeID)
	binary.LittleEndian.PutUint64(buf[4:12], math.Float64bits(p.CumulativeLength))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(p.CumulativeWeight))
}

func DecodeGeometryPoint(buf []byte) GeometryPoint {
	return GeometryPoint{
		NodeID:           binary.LittleEndian.Uint32(buf[0:4]),
		CumulativeLength: math.Float64frombits(binary.LittleEndian.Uint64(buf[4:12])),
		CumulativeWeight: int32(binary.LittleEndian.Uint32(buf[12:16])),
	}
}

// WriteGeometryPoints writes a length-prefixed GeometryPoint array.
func WriteGeometryPoints(w io.Writer, pts []GeometryPoint) error {
	if err := WriteUint32(w, uint32(len(pts))); err != nil {
		return err
	}
	return writeRecords(w, len(pts), GeometryPointSize, func(i int, buf []byte) {
		pts[i].Encode(buf)
	})
}

// ReadGeometryPoints reads a length-prefixed GeometryPoint array.
func ReadGeometryPoints(r io.Reader) ([]GeometryPoint, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	pts := make([]GeometryPoint, n)
	err = readRecords(r, int(n), GeometryPointSize, func(i int, buf []byte) {
		pts[i] = DecodeGeometryPoint(buf)
	})
	return pts, err
}

// WriteQueryEdges writes a raw (unprefixed) QueryEdge array; C9 writes
// its own count separately as part of the .hsgr header.
func WriteQueryEdges(w io.Writer, edges []QueryEdge) error {
	return writeRecords(w, len(edges), QueryEdgeSize, func(i int, buf []byte) {
		edges[i].Encode(buf)
	})
}

// ReadQueryEdges reads n raw QueryEdge records.
func ReadQueryEdges(r io.Reader, n int) ([]QueryEdge, error) {
	edges := make([]QueryEdge, n)
	err := readRecords(r, n, QueryEdgeSize, func(i int, buf []byte) {
		edges[i] = DecodeQueryEdge(buf)
	})
	return edges, err
}
