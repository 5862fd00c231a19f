// Package serializer is the Static-Graph Serializer (C9): it takes
// the contractor's output edge set and writes the CSR-packed `.hsgr`
// contracted-graph artifact, plus the `.core` bitmap and `.level`
// file that accompany it.
package serializer

import (
	"bufio"
	"encoding/binary"
	"hash/crc32"
	"io"
	"math"
	"os"
	"sort"

	"osmch/pkg/contractor"
	"osmch/pkg/format"
	"osmch/pkg/xerrors"
)

// Build sorts edges stably by source and packs them into a CSR node
// array of length nodeCount+1: entry i is the index of the first edge
// whose source is i; a node with no outgoing edge gets the index of the
// next edge, so entries past the highest source actually used, and the
// final sentinel entry, hold the total edge count.
func Build(edges []contractor.ContractedEdge, nodeCount int) ([]uint32, []format.QueryEdge) {
	sorted := make([]contractor.ContractedEdge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Source < sorted[j].Source })

	nodeArray := make([]uint32, nodeCount+1)
	edgeArray := make([]format.QueryEdge, len(sorted))
	idx := 0
	for v := 0; v < nodeCount; v++ {
		nodeArray[v] = uint32(idx)
		for idx < len(sorted) && int(sorted[idx].Source) == v {
			edgeArray[idx] = sorted[idx].QueryEdge
			idx++
		}
	}
	nodeArray[nodeCount] = uint32(len(sorted))
	return nodeArray, edgeArray
}

// Write writes the `.hsgr` artifact: fingerprint, CRC32 (over the
// edge array's encoded bytes), node-array length, edge count, node
// array, edge array.
func Write(path string, nodeArray []uint32, edgeArray []format.QueryEdge) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "create %s", path)
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<16)

	if err := format.CurrentFingerprint.WriteTo(w); err != nil {
		return err
	}

	crc := crc32.NewIEEE()
	buf := make([]byte, format.QueryEdgeSize)
	for _, e := range edgeArray {
		e.Encode(buf)
		if _, err := crc.Write(buf); err != nil {
			return xerrors.WrapErrorf(err, xerrors.KindIO, "hash edge record")
		}
	}
	if err := format.WriteUint32(w, crc.Sum32()); err != nil {
		return err
	}
	if err := format.WriteUint32(w, uint32(len(nodeArray))); err != nil {
		return err
	}
	if err := format.WriteUint32(w, uint32(len(edgeArray))); err != nil {
		return err
	}
	for _, n := range nodeArray {
		if err := format.WriteUint32(w, n); err != nil {
			return err
		}
	}
	for _, e := range edgeArray {
		e.Encode(buf)
		if _, err := w.Write(buf); err != nil {
			return xerrors.WrapErrorf(err, xerrors.KindIO, "write edge record")
		}
	}
	return w.Flush()
}

// Read reads the `.hsgr` artifact back, verifying the fingerprint and
// recomputing the CRC32 over the edge array to detect corruption.
func Read(path string) (nodeArray []uint32, edgeArray []format.QueryEdge, err error) {
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
	if err := format.CheckCore(fp); err != nil {
		return nil, nil, err
	}
	wantCRC, err := format.ReadUint32(r)
	if err != nil {
		return nil, nil, err
	}
	nodeArrayLen, err := format.ReadUint32(r)
	if err != nil {
		return nil, nil, err
	}
	edgeCount, err := format.ReadUint32(r)
	if err != nil {
		return nil, nil, err
	}

	nodeArray = make([]uint32, nodeArrayLen)
	for i := range nodeArray {
		v, err := format.ReadUint32(r)
		if err != nil {
			return nil, nil, err
		}
		nodeArray[i] = v
	}

	edgeArray, err = format.ReadQueryEdges(r, int(edgeCount))
	if err != nil {
		return nil, nil, err
	}

	crc := crc32.NewIEEE()
	buf := make([]byte, format.QueryEdgeSize)
	for _, e := range edgeArray {
		e.Encode(buf)
		if _, err := crc.Write(buf); err != nil {
			return nil, nil, xerrors.WrapErrorf(err, xerrors.KindIO, "hash edge record")
		}
	}
	if crc.Sum32() != wantCRC {
		return nil, nil, xerrors.WrapErrorf(nil, xerrors.KindFormat,
			"hsgr CRC32 mismatch: have %d, want %d", crc.Sum32(), wantCRC)
	}
	return nodeArray, edgeArray, nil
}

// WriteCore writes the `.core` artifact: a bitmap of uncontracted
// nodes, one bit per node, padded to whole bytes.
func WriteCore(path string, core []bool) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "create %s", path)
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<16)
	if err := format.WriteUint32(w, uint32(len(core))); err != nil {
		return err
	}
	bitmap := make([]byte, (len(core)+7)/8)
	for i, isCore := range core {
		if isCore {
			bitmap[i/8] |= 1 << (uint(i) % 8)
		}
	}
	if _, err := w.Write(bitmap); err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "write core bitmap")
	}
	return w.Flush()
}

// ReadCore reads the `.core` artifact back into a per-node bool slice.
func ReadCore(path string) ([]bool, error) {
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
	bitmap := make([]byte, (int(n)+7)/8)
	if _, err := io.ReadFull(r, bitmap); err != nil {
		return nil, xerrors.WrapErrorf(err, xerrors.KindFormat, "read core bitmap")
	}
	core := make([]bool, n)
	for i := range core {
		core[i] = bitmap[i/8]&(1<<(uint(i)%8)) != 0
	}
	return core, nil
}

// WriteLevel writes the `.level` artifact: one little-endian float32
// per node, either the contraction level or the cached priority the
// next run should seed from.
func WriteLevel(path string, levels []int32) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "create %s", path)
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<16)
	if err := format.WriteUint32(w, uint32(len(levels))); err != nil {
		return err
	}
	var buf [4]byte
	for _, lvl := range levels {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(lvl)))
		if _, err := w.Write(buf[:]); err != nil {
			return xerrors.WrapErrorf(err, xerrors.KindIO, "write level")
		}
	}
	return w.Flush()
}

// ReadLevel reads the `.level` artifact back, truncating each value
// to an int32 contraction level (used by --use-cached-priority).
func ReadLevel(path string) ([]int32, error) {
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
	levels := make([]int32, n)
	var buf [4]byte
	for i := range levels {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, xerrors.WrapErrorf(err, xerrors.KindFormat, "read level %d", i)
		}
		levels[i] = int32(math.Float32frombits(binary.LittleEndian.Uint32(buf[:])))
	}
	return levels, nil
}
