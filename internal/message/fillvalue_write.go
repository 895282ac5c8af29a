package message

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// Space allocation times.
const (
	AllocEarly       uint8 = 1
	AllocLate        uint8 = 2
	AllocIncremental uint8 = 3
)

// Fill write times.
const (
	FillWriteOnAlloc uint8 = 0
	FillWriteNever   uint8 = 1
	FillWriteIfSet   uint8 = 2
)

const (
	fillFlagUndefined = 0x10
	fillFlagDefined   = 0x20
)

// NewFillValue returns a version 3 fill value. A nil value keeps the
// default of zero bytes.
func NewFillValue(value []byte, allocTime uint8) *FillValue {
	return &FillValue{
		Version:        3,
		SpaceAllocTime: allocTime,
		FillWriteTime:  FillWriteIfSet,
		IsDefined:      value != nil,
		Size:           uint32(len(value)),
		Value:          value,
	}
}

// Serialize writes a version 3 message.
func (m *FillValue) Serialize(w *binpkg.Writer) error {
	e := &encoder{w: w}
	flags := m.SpaceAllocTime&0x03 | (m.FillWriteTime&0x03)<<2
	if m.IsDefined && m.Value != nil {
		flags |= fillFlagDefined
	}
	e.u8(3)
	e.u8(flags)
	if flags&fillFlagDefined != 0 {
		e.u32(uint32(len(m.Value)))
		e.bytes(m.Value)
	}
	return e.err
}

func (m *FillValue) SerializedSize(w *binpkg.Writer) int { return measure(m, w) }
