package message

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// Attribute is an attribute message (type 0x000C). Data holds the raw
// value bytes in the layout Datatype describes.
type Attribute struct {
	Version       uint8
	Name          string
	DatatypeSize  uint16
	DataspaceSize uint16
	Datatype      *Datatype
	Dataspace     *Dataspace
	Data          []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

// parseAttribute reads versions 1 to 3. Version 1 pads the name, datatype
// and dataspace to eight bytes each; version 3 adds a name charset byte.
func parseAttribute(data []byte, r *binpkg.Reader) (*Attribute, error) {
	d := newDecoder("attribute", data, r)
	a := &Attribute{Version: d.u8()}
	if d.err == nil && (a.Version < 1 || a.Version > 3) {
		d.failf("unsupported version %d", a.Version)
	}
	d.skip(1) // flags
	nameLen := int(d.u16())
	a.DatatypeSize = d.u16()
	a.DataspaceSize = d.u16()
	if a.Version == 3 {
		d.skip(1)
	}

	field := func(n int) []byte {
		b := d.take(n)
		if a.Version == 1 {
			d.align(8)
		}
		return b
	}
	a.Name = string(trimNul(field(nameLen)))
	dtBytes := field(int(a.DatatypeSize))
	dsBytes := field(int(a.DataspaceSize))
	if d.err != nil {
		return nil, d.err
	}

	var err error
	if a.Datatype, err = parseDatatype(dtBytes, r); err != nil {
		return nil, err
	}
	if a.Dataspace, err = parseDataspace(dsBytes, r); err != nil {
		return nil, err
	}
	if d.remaining() > 0 {
		a.Data = d.copyOf(d.remaining())
	}
	return a, nil
}

func trimNul(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
