package message

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// NewAttribute returns a version 3 attribute.
func NewAttribute(name string, datatype *Datatype, dataspace *Dataspace, data []byte) *Attribute {
	return &Attribute{Version: 3, Name: name, Datatype: datatype, Dataspace: dataspace, Data: data}
}

// Serialize writes a version 3 attribute with an ASCII name.
func (m *Attribute) Serialize(w *binpkg.Writer) error {
	e := &encoder{w: w}
	e.u8(3)
	e.u8(0)
	e.u16(uint16(len(m.Name) + 1))
	e.u16(uint16(m.Datatype.SerializedSize(w)))
	e.u16(uint16(m.Dataspace.SerializedSize(w)))
	e.u8(0)
	e.cstring(m.Name)
	e.msg(m.Datatype)
	e.msg(m.Dataspace)
	e.bytes(m.Data)
	return e.err
}

func (m *Attribute) SerializedSize(w *binpkg.Writer) int { return measure(m, w) }
