// Package format defines the on-disk record layouts and the
// fingerprint shared between every artifact the pipeline writes.
// Nothing in this package is specific to one file kind: readers on the
// query-engine side are expected to bring their own copy of the same
// struct layouts and compare fingerprints bytewise.
package format

import (
	"encoding/binary"
	"io"

	"osmch/pkg/xerrors"
)

// FingerprintSize is the fixed, tightly-packed size of a Fingerprint
// record: three uint32 version numbers plus 4 reserved bytes.
const FingerprintSize = 16

// Fingerprint is a compatibility stamp embedded near the front of every
// artifact. Only the field meaningful to the file being read/written is
// populated; readers (CheckGraph, CheckRTree, CheckCore) compare only
// that one field against the value they were built to accept.
type Fingerprint struct {
	GraphVersion uint32
	RTreeVersion uint32
	CoreVersion  uint32
	Reserved     uint32
}

// CurrentFingerprint is the stamp this build of the pipeline writes.
// Bump the relevant field whenever a record layout changes in a way
// that is not backwards compatible.
var CurrentFingerprint = Fingerprint{
	GraphVersion: 1,
	RTreeVersion: 1,
	CoreVersion:  1,
	Reserved:     0,
}

// WriteTo writes the fingerprint as 16 little-endian bytes.
func (f Fingerprint) WriteTo(w io.Writer) error {
	var buf [FingerprintSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], f.GraphVersion)
	binary.LittleEndian.PutUint32(buf[4:8], f.RTreeVersion)
	binary.LittleEndian.PutUint32(buf[8:12], f.CoreVersion)
	binary.LittleEndian.PutUint32(buf[12:16], f.Reserved)
	_, err := w.Write(buf[:])
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "write fingerprint")
	}
	return nil
}

// ReadFingerprint reads 16 little-endian bytes into a Fingerprint.
func ReadFingerprint(r io.Reader) (Fingerprint, error) {
	var buf [FingerprintSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Fingerprint{}, xerrors.WrapErrorf(err, xerrors.KindIO, "read fingerprint")
	}
	return Fingerprint{
		GraphVersion: binary.LittleEndian.Uint32(buf[0:4]),
		RTreeVersion: binary.LittleEndian.Uint32(buf[4:8]),
		CoreVersion:  binary.LittleEndian.Uint32(buf[8:12]),
		Reserved:     binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

// CheckGraph fails with a format error unless f's graph version matches
// the version this build writes.
func CheckGraph(f Fingerprint) error {
	if f.GraphVersion != CurrentFingerprint.GraphVersion {
		return xerrors.WrapErrorf(nil, xerrors.KindFormat,
			"graph fingerprint mismatch: have %d, want %d", f.GraphVersion, CurrentFingerprint.GraphVersion)
	}
	return nil
}

// CheckRTree fails with a format error unless f's r-tree version
// matches the version this build writes.
func CheckRTree(f Fingerprint) error {
	if f.RTreeVersion != CurrentFingerprint.RTreeVersion {
		return xerrors.WrapErrorf(nil, xerrors.KindFormat,
			"rtree fingerprint mismatch: have %d, want %d", f.RTreeVersion, CurrentFingerprint.RTreeVersion)
	}
	return nil
}

// CheckCore fails with a format error unless f's core version matches
// the version this build writes.
func CheckCore(f Fingerprint) error {
	if f.CoreVersion != CurrentFingerprint.CoreVersion {
		return xerrors.WrapErrorf(nil, xerrors.KindFormat,
			"core fingerprint mismatch: have %d, want %d", f.CoreVersion, CurrentFingerprint.CoreVersion)
	}
	return nil
}
