package message

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// FillValue is a fill value message (type 0x0005). Value is nil when no
// fill value is stored and zero bytes apply.
type FillValue struct {
	Version        uint8
	SpaceAllocTime uint8
	FillWriteTime  uint8
	IsDefined      bool
	Size           uint32
	Value          []byte
}

func (m *FillValue) Type() Type { return TypeFillValue }

func parseFillValue(data []byte, r *binpkg.Reader) (*FillValue, error) {
	d := newDecoder("fill value", data, r)
	fv := &FillValue{Version: d.u8()}
	switch fv.Version {
	case 1, 2:
		fv.SpaceAllocTime = d.u8()
		fv.FillWriteTime = d.u8()
		fv.IsDefined = d.u8() != 0
		if fv.IsDefined {
			fv.Size = d.u32()
			fv.Value = d.copyOf(int(fv.Size))
		}
	case 3:
		flags := d.u8()
		fv.SpaceAllocTime = flags & 0x03
		fv.FillWriteTime = flags >> 2 & 0x03
		fv.IsDefined = flags&fillFlagUndefined == 0
		if flags&fillFlagDefined != 0 {
			fv.Size = d.u32()
			fv.Value = d.copyOf(int(fv.Size))
		}
	default:
		if d.err == nil {
			d.failf("unsupported version %d", fv.Version)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	if fv.Size == 0 {
		fv.Value = nil
	}
	return fv, nil
}
