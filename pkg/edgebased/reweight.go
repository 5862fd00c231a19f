package edgebased

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"

	"osmch/pkg/format"
	"osmch/pkg/nodegraph"
	"osmch/pkg/profile"
	"osmch/pkg/xerrors"
)

// SpeedTable is the unordered-external-id-pair -> speed-km/h lookup
// the per-segment speed override (C7) is keyed on.
type SpeedTable map[[2]uint64]float64

// LoadSpeedTable reads a three-column CSV (from, to, speed-kmh) keyed
// by external node ids, the format spec §4.3 names.
func LoadSpeedTable(path string) (SpeedTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.WrapErrorf(err, xerrors.KindIO, "open %s", path)
	}
	defer f.Close()

	table := make(SpeedTable)
	reader := csv.NewReader(bufio.NewReader(f))
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, xerrors.WrapErrorf(err, xerrors.KindFormat, "parse %s", path)
		}
		if len(rec) != 3 {
			return nil, xerrors.WrapErrorf(nil, xerrors.KindFormat, "%s: want 3 columns, got %d", path, len(rec))
		}
		from, err := strconv.ParseUint(rec[0], 10, 64)
		if err != nil {
			return nil, xerrors.WrapErrorf(err, xerrors.KindFormat, "%s: bad from-id %q", path, rec[0])
		}
		to, err := strconv.ParseUint(rec[1], 10, 64)
		if err != nil {
			return nil, xerrors.WrapErrorf(err, xerrors.KindFormat, "%s: bad to-id %q", path, rec[1])
		}
		speed, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, xerrors.WrapErrorf(err, xerrors.KindFormat, "%s: bad speed %q", path, rec[2])
		}
		if speed <= 0 {
			return nil, xerrors.WrapErrorf(nil, xerrors.KindConfiguration, "%s: %d,%d: speed %v km/h must be > 0", path, from, to, speed)
		}
		table[key(from, to)] = speed
	}
	return table, nil
}

func key(a, b uint64) [2]uint64 {
	if a < b {
		return [2]uint64{a, b}
	}
	return [2]uint64{b, a}
}

// Reweight recomputes every edge-based edge's weight per spec §4.3:
// edge_penalty(e) plus, for each original segment, either the
// speed-table-derived weight or the edge's original segment weight.
func Reweight(
	g *nodegraph.Graph,
	edges []format.EdgeBasedEdge,
	segments [][]Segment,
	penalties []int32,
	table SpeedTable,
) {
	for i := range edges {
		newWeight := penalties[i]
		for _, seg := range segments[i] {
			fromExt := g.Nodes[seg.FromNode].ExternalID
			toExt := g.Nodes[seg.ToNode].ExternalID
			if speed, ok := table[key(fromExt, toExt)]; ok {
				newWeight += profile.SpeedToWeight(seg.LengthMeters, speed)
			} else {
				newWeight += seg.Weight
			}
		}
		edges[i].Weight = newWeight
	}
}
