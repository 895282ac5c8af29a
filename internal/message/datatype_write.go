package message

import (
	"errors"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// Serialize writes the datatype. Compound and array types are always
// written as version 3; other classes keep the version they were read
// with.
func (m *Datatype) Serialize(w *binpkg.Writer) error {
	e := &encoder{w: w}
	m.encode(e)
	return e.err
}

func (m *Datatype) SerializedSize(w *binpkg.Writer) int { return measure(m, w) }

func (m *Datatype) encode(e *encoder) {
	if m == nil {
		e.do(func() error { return errors.New("datatype: missing nested type") })
		return
	}
	version := max(m.version, 1)
	if m.Class == ClassCompound || m.Class == ClassArray {
		version = 3
	}
	e.u8(uint8(m.Class) | version<<4)
	e.uint(uint64(m.ClassBits), 3)
	e.u32(m.Size)

	switch m.Class {
	case ClassFixedPoint, ClassBitfield:
		e.u16(m.BitOffset)
		e.u16(m.BitPrecision)
	case ClassFloatPoint:
		props := m.Properties
		if len(props) < 12 {
			props = ieeeProperties(m.Size)
		}
		e.bytes(props[:12])
	case ClassString, ClassReference:
	case ClassCompound:
		width := encSize(uint64(m.Size))
		for _, mem := range m.Members {
			e.cstring(mem.Name)
			e.uint(uint64(mem.ByteOffset), width)
			mem.Type.encode(e)
		}
	case ClassArray:
		e.u8(uint8(len(m.ArrayDims)))
		for _, d := range m.ArrayDims {
			e.u32(d)
		}
		m.BaseType.encode(e)
	case ClassVarLen:
		m.VarLenType.encode(e)
	default:
		e.bytes(m.Properties)
	}
}

// ieeeProperties are the bit offset, precision, exponent and mantissa
// fields of IEEE 754 binary32 and binary64.
func ieeeProperties(size uint32) []byte {
	switch size {
	case 4:
		return []byte{0, 0, 32, 0, 23, 8, 0, 23, 127, 0, 0, 0}
	case 8:
		return []byte{0, 0, 64, 0, 52, 11, 0, 52, 0xff, 0x03, 0, 0}
	}
	return make([]byte, 12)
}

// NewFixedPointDatatype returns an integer type using all size*8 bits.
func NewFixedPointDatatype(size uint32, signed bool, byteOrder ByteOrder) *Datatype {
	bits := uint32(byteOrder)
	if signed {
		bits |= 0x08
	}
	return &Datatype{
		Class:        ClassFixedPoint,
		ClassBits:    bits,
		Size:         size,
		ByteOrder:    byteOrder,
		BitPrecision: uint16(size * 8),
		Signed:       signed,
	}
}

// NewFloatDatatype returns an IEEE float of 4 or 8 bytes. The class bits
// carry the byte order, the implied mantissa bit and the sign position.
func NewFloatDatatype(size uint32, byteOrder ByteOrder) *Datatype {
	sign := size*8 - 1
	return &Datatype{
		Class:      ClassFloatPoint,
		ClassBits:  uint32(byteOrder) | 1<<5 | sign<<8,
		Size:       size,
		ByteOrder:  byteOrder,
		Properties: ieeeProperties(size),
	}
}

func NewStringDatatype(size uint32, padding StringPadding, charset CharacterSet) *Datatype {
	return &Datatype{
		Class:         ClassString,
		ClassBits:     uint32(padding) | uint32(charset)<<4,
		Size:          size,
		StringPadding: padding,
		CharSet:       charset,
	}
}

// NewVarLenStringDatatype returns a variable-length string. Elements are
// 16 byte slots: a length and a global heap ID.
func NewVarLenStringDatatype(charset CharacterSet) *Datatype {
	return &Datatype{
		Class:          ClassVarLen,
		ClassBits:      1 | uint32(PadNullTerm)<<4 | uint32(charset)<<8,
		Size:           16,
		VarLenType:     NewFixedPointDatatype(1, false, OrderLE),
		IsVarLenString: true,
		StringPadding:  PadNullTerm,
		CharSet:        charset,
	}
}

func NewCompoundDatatype(size uint32, members []CompoundMember) *Datatype {
	return &Datatype{
		Class:     ClassCompound,
		ClassBits: uint32(len(members)),
		Size:      size,
		Members:   members,
	}
}
