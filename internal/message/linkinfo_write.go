package message

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// UndefinedAddress is the all-ones "no address" value for 8 byte offsets.
const UndefinedAddress = ^uint64(0)

// LinkInfo is a link info message (type 0x0002). Groups that keep their
// links in the object header leave both dense storage addresses
// undefined.
type LinkInfo struct {
	Version                uint8
	Flags                  uint8
	MaxCreationIndex       uint64
	FractalHeapAddr        uint64
	NameIndexBTreeAddr     uint64
	CreationOrderBTreeAddr uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

func (m *LinkInfo) Serialize(w *binpkg.Writer) error {
	e := &encoder{w: w}
	e.u8(m.Version)
	e.u8(m.Flags)
	if m.Flags&0x01 != 0 {
		e.uint(m.MaxCreationIndex, 8)
	}
	e.offset(m.FractalHeapAddr)
	e.offset(m.NameIndexBTreeAddr)
	if m.Flags&0x02 != 0 {
		e.offset(m.CreationOrderBTreeAddr)
	}
	return e.err
}

func (m *LinkInfo) SerializedSize(w *binpkg.Writer) int { return measure(m, w) }

func NewLinkInfo() *LinkInfo {
	return &LinkInfo{FractalHeapAddr: UndefinedAddress, NameIndexBTreeAddr: UndefinedAddress}
}
