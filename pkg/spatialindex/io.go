package spatialindex

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"osmch/pkg/format"
	"osmch/pkg/xerrors"
)

// DefaultLeafSize and DefaultBranchFactor favor wide, shallow trees
// over deeply nested packed structures.
const (
	DefaultLeafSize     = 64
	DefaultBranchFactor = 64
)

type branchEntry struct {
	box      Entry
	leafFrom uint32
	leafTo   uint32
}

// Write builds the STR-packed leaf layer from entries and writes it
// to basePath+".fileIndex" (the leaf records, one per entry, grouped
// by leaf) and the single branch level covering those leaves to
// basePath+".ramIndex" (small enough to stay resident while the leaf
// file is queried on demand).
func Write(basePath string, entries []Entry, leafSize int) error {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}
	packed := sortSTR(entries, leafSize)

	leafPath := basePath + ".fileIndex"
	ramPath := basePath + ".ramIndex"

	lf, err := os.Create(leafPath)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "create %s", leafPath)
	}
	defer lf.Close()
	lw := bufio.NewWriterSize(lf, 1<<16)
	if err := format.CurrentFingerprint.WriteTo(lw); err != nil {
		return err
	}

	var branches []branchEntry
	for start := 0; start < len(packed); start += leafSize {
		end := start + leafSize
		if end > len(packed) {
			end = len(packed)
		}
		leaf := packed[start:end]
		box := unionBox(leaf)
		for _, e := range leaf {
			if err := writeEntry(lw, e); err != nil {
				return err
			}
		}
		branches = append(branches, branchEntry{box: box, leafFrom: uint32(start), leafTo: uint32(end)})
	}
	if err := lw.Flush(); err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "flush %s", leafPath)
	}

	rf, err := os.Create(ramPath)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "create %s", ramPath)
	}
	defer rf.Close()
	rw := bufio.NewWriterSize(rf, 1<<16)
	if err := format.CurrentFingerprint.WriteTo(rw); err != nil {
		return err
	}
	if err := format.WriteUint32(rw, uint32(len(branches))); err != nil {
		return err
	}
	for _, b := range branches {
		if err := writeEntry(rw, b.box); err != nil {
			return err
		}
		if err := format.WriteUint32(rw, b.leafFrom); err != nil {
			return err
		}
		if err := format.WriteUint32(rw, b.leafTo); err != nil {
			return err
		}
	}
	return rw.Flush()
}

// Index is a read-back static index: the branch level and every leaf
// entry, all held in memory.
type Index struct {
	branches []branchEntry
	leaves   []Entry
}

// Read loads both files produced by Write. The leaf file is read in
// full here rather than memory-mapped (no mmap dependency is wired),
// matching the on-disk layout described for future mmap use.
func Read(basePath string) (*Index, error) {
	ramPath := basePath + ".ramIndex"
	leafPath := basePath + ".fileIndex"

	rf, err := os.Open(ramPath)
	if err != nil {
		return nil, xerrors.WrapErrorf(err, xerrors.KindIO, "open %s", ramPath)
	}
	defer rf.Close()
	rr := bufio.NewReaderSize(rf, 1<<16)
	if _, err := format.ReadFingerprint(rr); err != nil {
		return nil, err
	}
	n, err := format.ReadUint32(rr)
	if err != nil {
		return nil, err
	}
	branches := make([]branchEntry, n)
	for i := range branches {
		e, err := readEntry(rr)
		if err != nil {
			return nil, err
		}
		from, err := format.ReadUint32(rr)
		if err != nil {
			return nil, err
		}
		to, err := format.ReadUint32(rr)
		if err != nil {
			return nil, err
		}
		branches[i] = branchEntry{box: e, leafFrom: from, leafTo: to}
	}

	lf, err := os.Open(leafPath)
	if err != nil {
		return nil, xerrors.WrapErrorf(err, xerrors.KindIO, "open %s", leafPath)
	}
	defer lf.Close()
	lr := bufio.NewReaderSize(lf, 1<<16)
	if _, err := format.ReadFingerprint(lr); err != nil {
		return nil, err
	}
	var leaves []Entry
	for {
		e, err := readEntry(lr)
		if err != nil {
			break
		}
		leaves = append(leaves, e)
	}

	return &Index{branches: branches, leaves: leaves}, nil
}

// Query returns every indexed entry whose bounding box intersects
// [minLat,maxLat] x [minLon,maxLon], first filtering branches then
// scanning only the leaves they cover.
func (idx *Index) Query(minLat, minLon, maxLat, maxLon float64) []Entry {
	var out []Entry
	for _, b := range idx.branches {
		if !boxesIntersect(b.box, minLat, minLon, maxLat, maxLon) {
			continue
		}
		for _, e := range idx.leaves[b.leafFrom:b.leafTo] {
			if boxesIntersect(e, minLat, minLon, maxLat, maxLon) {
				out = append(out, e)
			}
		}
	}
	return out
}

func boxesIntersect(e Entry, minLat, minLon, maxLat, maxLon float64) bool {
	return e.MinLat <= maxLat && e.MaxLat >= minLat && e.MinLon <= maxLon && e.MaxLon >= minLon
}

func unionBox(entries []Entry) Entry {
	box := Entry{MinLat: math.Inf(1), MinLon: math.Inf(1), MaxLat: math.Inf(-1), MaxLon: math.Inf(-1)}
	for _, e := range entries {
		box.MinLat = min(box.MinLat, e.MinLat)
		box.MinLon = min(box.MinLon, e.MinLon)
		box.MaxLat = max(box.MaxLat, e.MaxLat)
		box.MaxLon = max(box.MaxLon, e.MaxLon)
	}
	return box
}

const entryRecordSize = 4 + 8*4 // node id + 4 float64 bounds

func writeEntry(w *bufio.Writer, e Entry) error {
	var buf [entryRecordSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], e.NodeID)
	binary.LittleEndian.PutUint64(buf[4:12], math.Float64bits(e.MinLat))
	binary.LittleEndian.PutUint64(buf[12:20], math.Float64bits(e.MinLon))
	binary.LittleEndian.PutUint64(buf[20:28], math.Float64bits(e.MaxLat))
	binary.LittleEndian.PutUint64(buf[28:36], math.Float64bits(e.MaxLon))
	if _, err := w.Write(buf[:]); err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "write spatial entry")
	}
	return nil
}

func readEntry(r *bufio.Reader) (Entry, error) {
	var buf [entryRecordSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Entry{}, err
	}
	return Entry{
		NodeID: binary.LittleEndian.Uint32(buf[0:4]),
		MinLat: math.Float64frombits(binary.LittleEndian.Uint64(buf[4:12])),
		MinLon: math.Float64frombits(binary.LittleEndian.Uint64(buf[12:20])),
		MaxLat: math.Float64frombits(binary.LittleEndian.Uint64(buf[20:28])),
		MaxLon: math.Float64frombits(binary.LittleEndian.Uint64(buf[28:36])),
	}, nil
}
