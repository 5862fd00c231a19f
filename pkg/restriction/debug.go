package restriction

import (
	"os"

	"github.com/kelindar/binary"

	"osmch/pkg/format"
	"osmch/pkg/xerrors"
)

// DumpDebug writes recs through kelindar/binary's reflection-driven
// codec rather than the bit-exact fixed layout: a throwaway artifact
// for --dump-debug inspection, never read back by any pipeline stage,
// so it doesn't need a fingerprint or a hand-rolled encoding.
func DumpDebug(path string, recs []format.RestrictionRecord) error {
	data, err := binary.Marshal(recs)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindFormat, "marshal restriction debug dump")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "write %s", path)
	}
	return nil
}
