package message

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// Serialize writes a version 2 dataspace.
func (m *Dataspace) Serialize(w *binpkg.Writer) error {
	e := &encoder{w: w}
	var flags uint8
	if len(m.MaxDims) > 0 {
		flags = 1
	}
	e.u8(2)
	e.u8(uint8(m.Rank))
	e.u8(flags)
	e.u8(uint8(m.SpaceType))
	for _, d := range m.Dimensions {
		e.length(d)
	}
	if flags != 0 {
		for _, d := range m.MaxDims {
			e.length(d)
		}
	}
	return e.err
}

func (m *Dataspace) SerializedSize(w *binpkg.Writer) int { return measure(m, w) }

// NewDataspace returns a simple dataspace. maxDims may be nil.
func NewDataspace(dims []uint64, maxDims []uint64) *Dataspace {
	return &Dataspace{
		Version:    2,
		Rank:       len(dims),
		SpaceType:  DataspaceSimple,
		Dimensions: dims,
		MaxDims:    maxDims,
	}
}

func NewScalarDataspace() *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceScalar}
}
