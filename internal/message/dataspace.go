package message

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = 0
	DataspaceSimple DataspaceType = 1
	DataspaceNull   DataspaceType = 2
)

// Dataspace is a dataspace message (type 0x0001). MaxDims is nil when the
// message carries no maximum dimensions.
type Dataspace struct {
	Version    uint8
	Rank       int
	SpaceType  DataspaceType
	Dimensions []uint64
	MaxDims    []uint64
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NumElements is 1 for a scalar, 0 for a null space and the product of
// the dimensions otherwise.
func (m *Dataspace) NumElements() uint64 {
	switch m.SpaceType {
	case DataspaceScalar:
		return 1
	case DataspaceSimple:
		if len(m.Dimensions) == 0 {
			return 0
		}
		n := uint64(1)
		for _, d := range m.Dimensions {
			n *= d
		}
		return n
	}
	return 0
}

func (m *Dataspace) IsScalar() bool { return m.SpaceType == DataspaceScalar }
func (m *Dataspace) IsNull() bool   { return m.SpaceType == DataspaceNull }

// parseDataspace reads versions 1 and 2. Version 1 has no type byte: a
// rank of zero means scalar.
func parseDataspace(data []byte, r *binpkg.Reader) (*Dataspace, error) {
	d := newDecoder("dataspace", data, r)
	ds := &Dataspace{Version: d.u8(), Rank: int(d.u8())}
	flags := d.u8()
	switch ds.Version {
	case 1:
		d.skip(5)
		ds.SpaceType = DataspaceSimple
		if ds.Rank == 0 {
			ds.SpaceType = DataspaceScalar
		}
	case 2:
		ds.SpaceType = DataspaceType(d.u8())
	default:
		if d.err == nil {
			d.failf("unsupported version %d", ds.Version)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	if ds.SpaceType != DataspaceSimple {
		return ds, nil
	}

	ds.Dimensions = make([]uint64, ds.Rank)
	for i := range ds.Dimensions {
		ds.Dimensions[i] = d.length()
	}
	if flags&1 != 0 {
		ds.MaxDims = make([]uint64, ds.Rank)
		for i := range ds.MaxDims {
			ds.MaxDims[i] = d.length()
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return ds, nil
}
