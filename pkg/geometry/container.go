// Package geometry implements the Compressed-Edge Container (C1): the
// concatenated poly-line of every compressed edge's collapsed-away
// internal nodes, stored contiguously with an offset table so the
// query engine (out of scope here) can render a shortest path's
// original shape without re-walking the node-based graph.
package geometry

import (
	"bufio"
	"os"

	"osmch/pkg/format"
	"osmch/pkg/xerrors"
)

// Container holds every compressed edge's poly-line contiguously.
// Offsets[i]..Offsets[i+1] is the point range for compressed-edge id
// i, mirroring the CSR-style offset tables used throughout the
// on-disk formats.
type Container struct {
	Offsets []uint32
	Points  []format.GeometryPoint
}

// NewContainer returns an empty container with a zero-length first
// offset, ready for Add.
func NewContainer() *Container {
	return &Container{Offsets: []uint32{0}}
}

// Add appends one compressed edge's poly-line and returns its id
// (the value later stored as an edge-based node's geometry offset).
func (c *Container) Add(points []format.GeometryPoint) uint32 {
	id := uint32(len(c.Offsets) - 1)
	c.Points = append(c.Points, points...)
	c.Offsets = append(c.Offsets, uint32(len(c.Points)))
	return id
}

// Get returns the poly-line stored under id.
func (c *Container) Get(id uint32) []format.GeometryPoint {
	return c.Points[c.Offsets[id]:c.Offsets[id+1]]
}

// Len reports how many compressed edges are stored.
func (c *Container) Len() int {
	return len(c.Offsets) - 1
}

// Write serializes the container to the <base>.geometry artifact:
// fingerprint, offset table, point array.
func Write(path string, c *Container) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindIO, "create %s", path)
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<16)

	if err := format.CurrentFingerprint.WriteTo(w); err != nil {
		return err
	}
	if err := format.WriteUint32(w, uint32(len(c.Offsets))); err != nil {
		return err
	}
	for _, off := range c.Offsets {
		if err := format.WriteUint32(w, off); err != nil {
			return err
		}
	}
	if err := format.WriteGeometryPoints(w, c.Points); err != nil {
		return err
	}
	return w.Flush()
}

// Read deserializes the <base>.geometry artifact.
func Read(path string) (*Container, error) {
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
	offCount, err := format.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	offsets := make([]uint32, offCount)
	for i := range offsets {
		off, err := format.ReadUint32(r)
		if err != nil {
			return nil, err
		}
		offsets[i] = off
	}
	points, err := format.ReadGeometryPoints(r)
	if err != nil {
		return nil, err
	}
	return &Container{Offsets: offsets, Points: points}, nil
}
