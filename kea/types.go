package kea

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-kea/hdf5"
)

// DataType is a KEA pixel type. The numeric values are the codes stored in
// each band's DATATYPE dataset.
type DataType uint16

// KEA storage types.
const (
	None    DataType = 0
	Int8    DataType = 1
	Int16   DataType = 2
	Int32   DataType = 3
	Int64   DataType = 4
	Uint8   DataType = 5
	Uint16  DataType = 6
	Uint32  DataType = 7
	Uint64  DataType = 8
	Float32 DataType = 9
	Float64 DataType = 10

	// Bool is the element type of in-memory mask arrays. It is never
	// stored as a band type.
	Bool DataType = 0x100
)

type kind uint8

const (
	kindNone kind = iota
	kindSigned
	kindUnsigned
	kindFloat
	kindBool
)

type typeInfo struct {
	name string
	kind kind
	bits int
}

var typeTable = map[DataType]typeInfo{
	None:    {"none", kindNone, 0},
	Int8:    {"int8", kindSigned, 8},
	Int16:   {"int16", kindSigned, 16},
	Int32:   {"int32", kindSigned, 32},
	Int64:   {"int64", kindSigned, 64},
	Uint8:   {"uint8", kindUnsigned, 8},
	Uint16:  {"uint16", kindUnsigned, 16},
	Uint32:  {"uint32", kindUnsigned, 32},
	Uint64:  {"uint64", kindUnsigned, 64},
	Float32: {"float32", kindFloat, 32},
	Float64: {"float64", kindFloat, 64},
	Bool:    {"bool", kindBool, 8},
}

func (t DataType) info() typeInfo {
	if ti, ok := typeTable[t]; ok {
		return ti
	}
	return typeInfo{name: fmt.Sprintf("DataType(%d)", uint16(t))}
}

func (t DataType) String() string {
	return t.info().name
}

// Size returns the element size in bytes.
func (t DataType) Size() int {
	return t.info().bits / 8
}

// IsFloat reports whether t is a floating point type.
func (t DataType) IsFloat() bool {
	return t.info().kind == kindFloat
}

// IsSigned reports whether t is a signed integer type.
func (t DataType) IsSigned() bool {
	return t.info().kind == kindSigned
}

// Storable reports whether t can be the type of a band.
func (t DataType) Storable() bool {
	k := t.info().kind
	return k == kindSigned || k == kindUnsigned || k == kindFloat
}

// DataTypeFromCode maps a DATATYPE code to its type.
func DataTypeFromCode(code uint64) (DataType, error) {
	t := DataType(code)
	if code > uint64(Float64) || !t.Storable() {
		return None, fmt.Errorf("datatype code %d: %w", code, ErrType)
	}
	return t, nil
}

// ParseDataType maps a type name such as "uint8" or "float32" to its type.
func ParseDataType(name string) (DataType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, ti := range typeTable {
		if ti.name == name && t.Storable() {
			return t, nil
		}
	}
	return None, fmt.Errorf("datatype %q: %w", name, ErrType)
}

// hdf5Type returns the little-endian container type for t.
func (t DataType) hdf5Type() *hdf5.Datatype {
	switch t {
	case Int8:
		return hdf5.Int8()
	case Int16:
		return hdf5.Int16()
	case Int32:
		return hdf5.Int32()
	case Int64:
		return hdf5.Int64()
	case Uint8, Bool:
		return hdf5.Uint8()
	case Uint16:
		return hdf5.Uint16()
	case Uint32:
		return hdf5.Uint32()
	case Uint64:
		return hdf5.Uint64()
	case Float32:
		return hdf5.Float32()
	case Float64:
		return hdf5.Float64()
	}
	return nil
}

// dataTypeOf maps a numeric container type to its KEA type.
func dataTypeOf(dt *hdf5.Datatype) (DataType, error) {
	var k kind
	switch dt.Class() {
	case hdf5.ClassInteger:
		k = kindUnsigned
		if dt.Signed() {
			k = kindSigned
		}
	case hdf5.ClassFloat:
		k = kindFloat
	default:
		return None, fmt.Errorf("container type %s: %w", dt, ErrType)
	}
	for t, ti := range typeTable {
		if ti.kind == k && ti.bits == dt.Size()*8 {
			return t, nil
		}
	}
	return None, fmt.Errorf("container type %s: %w", dt, ErrType)
}

// Promote returns the smallest type both a and b convert to without loss,
// following the numpy promotion table. None is the identity.
func Promote(a, b DataType) DataType {
	return PromoteAll(a, b)
}

// PromoteAll returns the promoted type of every type in types, or None
// for an empty list.
//
// The result depends only on the widest signed, unsigned and float member,
// so it is the same for any ordering. Folding Promote pairwise is not: a
// uint16 and int8 pair promotes to int32, which with float32 gives float64,
// whereas each of them alone fits in float32.
func PromoteAll(types ...DataType) DataType {
	var sBits, uBits, fBits int
	for _, t := range types {
		ti := t.info()
		switch ti.kind {
		case kindSigned:
			sBits = max(sBits, ti.bits)
		case kindUnsigned:
			uBits = max(uBits, ti.bits)
		case kindFloat:
			fBits = max(fBits, ti.bits)
		}
	}

	if fBits > 0 {
		// Integers up to 16 bits fit in float32, wider ones need float64.
		if max(sBits, uBits) > 16 {
			fBits = 64
		}
		return floatOf(fBits)
	}
	switch {
	case sBits == 0 && uBits == 0:
		return None
	case sBits == 0:
		return intOf(kindUnsigned, uBits)
	case uBits == 0 || sBits > uBits:
		return intOf(kindSigned, sBits)
	case uBits == 64:
		return Float64
	default:
		return intOf(kindSigned, uBits*2)
	}
}

func intOf(k kind, bits int) DataType {
	for t, ti := range typeTable {
		if ti.kind == k && ti.bits == bits {
			return t
		}
	}
	return None
}

func floatOf(bits int) DataType {
	if bits <= 32 {
		return Float32
	}
	return Float64
}
