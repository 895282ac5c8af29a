package message

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// GroupInfo is a group info message (type 0x000A). Bit 0 of Flags stores
// the compact/dense thresholds, bit 1 the size estimates.
type GroupInfo struct {
	Version         uint8
	Flags           uint8
	MaxCompactLinks uint16
	MinDenseLinks   uint16
	EstNumEntries   uint16
	EstLinkNameLen  uint16
}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

func (m *GroupInfo) Serialize(w *binpkg.Writer) error {
	e := &encoder{w: w}
	e.u8(m.Version)
	e.u8(m.Flags)
	if m.Flags&0x01 != 0 {
		e.u16(m.MaxCompactLinks)
		e.u16(m.MinDenseLinks)
	}
	if m.Flags&0x02 != 0 {
		e.u16(m.EstNumEntries)
		e.u16(m.EstLinkNameLen)
	}
	return e.err
}

func (m *GroupInfo) SerializedSize(w *binpkg.Writer) int { return measure(m, w) }

// NewGroupInfo returns a group info with library defaults.
func NewGroupInfo() *GroupInfo { return &GroupInfo{} }
