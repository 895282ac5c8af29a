package message

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// DatatypeClass is the low nibble of a datatype message's first byte.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0
	ClassFloatPoint DatatypeClass = 1
	ClassTime       DatatypeClass = 2
	ClassString     DatatypeClass = 3
	ClassBitfield   DatatypeClass = 4
	ClassOpaque     DatatypeClass = 5
	ClassCompound   DatatypeClass = 6
	ClassReference  DatatypeClass = 7
	ClassEnum       DatatypeClass = 8
	ClassVarLen     DatatypeClass = 9
	ClassArray      DatatypeClass = 10
)

// ByteOrder of numeric classes.
type ByteOrder uint8

const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
)

// StringPadding says how a fixed-length string fills its element.
type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

type CharacterSet uint8

const (
	CharsetASCII CharacterSet = 0
	CharsetUTF8  CharacterSet = 1
)

// Datatype is a datatype message (type 0x0003). Only the fields of its
// class are set.
type Datatype struct {
	Class     DatatypeClass
	ClassBits uint32
	Size      uint32
	version   uint8

	// Fixed-point, floating-point, bitfield and enum.
	ByteOrder    ByteOrder
	BitOffset    uint16
	BitPrecision uint16
	Signed       bool

	// Fixed-length and variable-length strings.
	StringPadding StringPadding
	CharSet       CharacterSet

	Members []CompoundMember

	// ArrayDims and BaseType describe arrays. BaseType is also the
	// integer type underlying an enum.
	ArrayDims []uint32
	BaseType  *Datatype

	// VarLenType is the element type of a variable-length sequence; for
	// strings it is a single byte.
	VarLenType     *Datatype
	IsVarLenString bool

	// Properties holds the class properties as stored, so floating-point
	// and enum types survive a rewrite unchanged.
	Properties []byte
}

// CompoundMember is one field of a compound datatype.
type CompoundMember struct {
	Name       string
	ByteOffset uint32
	Type       *Datatype
}

func (m *Datatype) Type() Type { return TypeDatatype }

func (m *Datatype) IsInteger() bool  { return m.Class == ClassFixedPoint }
func (m *Datatype) IsFloat() bool    { return m.Class == ClassFloatPoint }
func (m *Datatype) IsCompound() bool { return m.Class == ClassCompound }
func (m *Datatype) IsVarLen() bool   { return m.Class == ClassVarLen }

// IsString reports fixed-length and variable-length strings alike.
func (m *Datatype) IsString() bool {
	return m.Class == ClassString || (m.Class == ClassVarLen && m.IsVarLenString)
}

func parseDatatype(data []byte, r *binpkg.Reader) (*Datatype, error) {
	d := newDecoder("datatype", data, r)
	dt := decodeDatatype(d)
	return dt, d.err
}

// decodeDatatype reads one datatype, nested member and base types
// included, and leaves d after its last property byte.
func decodeDatatype(d *decoder) *Datatype {
	head := d.take(8)
	if head == nil {
		return nil
	}
	version := head[0] >> 4
	dt := &Datatype{
		Class:     DatatypeClass(head[0] & 0x0f),
		ClassBits: uint32(head[1]) | uint32(head[2])<<8 | uint32(head[3])<<16,
		Size:      le.Uint32(head[4:]),
		version:   version,
	}
	start := d.pos
	bits := dt.ClassBits

	switch dt.Class {
	case ClassFixedPoint, ClassBitfield:
		dt.ByteOrder = ByteOrder(bits & 1)
		dt.Signed = bits&0x08 != 0
		dt.BitOffset = d.u16()
		dt.BitPrecision = d.u16()

	case ClassFloatPoint:
		dt.ByteOrder = ByteOrder(bits & 1)
		d.skip(12)

	case ClassTime:
		dt.ByteOrder = ByteOrder(bits & 1)
		dt.BitPrecision = d.u16()

	case ClassString:
		dt.StringPadding = StringPadding(bits & 0x0f)
		dt.CharSet = CharacterSet(bits >> 4 & 0x0f)

	case ClassOpaque:
		// The tag is padded to a multiple of eight bytes.
		d.skip(int(bits & 0xff))

	case ClassCompound:
		n := int(bits & 0xffff)
		dt.Members = make([]CompoundMember, 0, n)
		for i := 0; i < n && d.err == nil; i++ {
			dt.Members = append(dt.Members, decodeMember(d, version, dt.Size))
		}

	case ClassEnum:
		base := decodeDatatype(d)
		if base == nil {
			return nil
		}
		dt.BaseType = base
		dt.ByteOrder, dt.Signed = base.ByteOrder, base.Signed
		n := int(bits & 0xffff)
		for i := 0; i < n; i++ {
			d.cstring()
			if version < 3 {
				d.align8(start)
			}
		}
		d.skip(n * int(base.Size))

	case ClassVarLen:
		dt.IsVarLenString = bits&0x0f == 1
		if dt.IsVarLenString {
			dt.StringPadding = StringPadding(bits >> 4 & 0x0f)
			dt.CharSet = CharacterSet(bits >> 8 & 0x0f)
		}
		dt.VarLenType = decodeDatatype(d)

	case ClassArray:
		rank := int(d.u8())
		if version < 3 {
			d.skip(3)
		}
		dt.ArrayDims = make([]uint32, rank)
		for i := range dt.ArrayDims {
			dt.ArrayDims[i] = d.u32()
		}
		if version < 3 {
			d.skip(4 * rank) // permutation indices
		}
		dt.BaseType = decodeDatatype(d)

	case ClassReference:
	default:
		d.failf("unknown class %d", dt.Class)
	}

	if d.err != nil {
		return nil
	}
	dt.Properties = d.buf[start:d.pos]
	return dt
}

// align8 pads to a multiple of eight bytes counted from start.
func (d *decoder) align8(start int) {
	if r := (d.pos - start) % 8; r != 0 {
		d.skip(8 - r)
	}
}

// decodeMember reads one compound member. Versions 1 and 2 pad names to
// eight bytes and use 4-byte offsets; version 1 also carries an unused
// array description. Version 3 sizes the offset to the compound size.
func decodeMember(d *decoder, version uint8, size uint32) CompoundMember {
	start := d.pos
	m := CompoundMember{Name: d.cstring()}
	if version < 3 {
		d.align8(start)
		m.ByteOffset = d.u32()
	} else {
		m.ByteOffset = uint32(d.uint(encSize(uint64(size))))
	}
	if version == 1 {
		d.skip(28)
	}
	m.Type = decodeDatatype(d)
	if m.Type == nil && d.err == nil {
		d.failf("member %q has no type", m.Name)
	}
	return m
}

// encSize is the fewest bytes that can hold v, at least one.
func encSize(v uint64) int {
	n := 1
	for v >>= 8; v > 0; v >>= 8 {
		n++
	}
	return n
}
