package hdf5

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-kea/internal/dtype"
	"github.com/robert-malhotra/go-kea/internal/message"
)

// Class is the broad category of a Datatype.
type Class int

const (
	ClassOther Class = iota
	ClassInteger
	ClassFloat
	ClassString
	ClassCompound
)

func (c Class) String() string {
	switch c {
	case ClassInteger:
		return "integer"
	case ClassFloat:
		return "float"
	case ClassString:
		return "string"
	case ClassCompound:
		return "compound"
	default:
		return "other"
	}
}

// Datatype describes the element type of a dataset or attribute.
type Datatype struct {
	m *message.Datatype
}

func newFixed(size uint32, signed bool) *Datatype {
	return &Datatype{m: message.NewFixedPointDatatype(size, signed, message.OrderLE)}
}

// Little-endian numeric types.
func Int8() *Datatype    { return newFixed(1, true) }
func Int16() *Datatype   { return newFixed(2, true) }
func Int32() *Datatype   { return newFixed(4, true) }
func Int64() *Datatype   { return newFixed(8, true) }
func Uint8() *Datatype   { return newFixed(1, false) }
func Uint16() *Datatype  { return newFixed(2, false) }
func Uint32() *Datatype  { return newFixed(4, false) }
func Uint64() *Datatype  { return newFixed(8, false) }
func Float32() *Datatype { return &Datatype{m: message.NewFloatDatatype(4, message.OrderLE)} }
func Float64() *Datatype { return &Datatype{m: message.NewFloatDatatype(8, message.OrderLE)} }

// VarString returns a variable-length UTF-8 string type.
func VarString() *Datatype {
	return &Datatype{m: message.NewVarLenStringDatatype(message.CharsetUTF8)}
}

// FixedString returns a null-terminated string type of n bytes.
func FixedString(n int) *Datatype {
	return &Datatype{m: message.NewStringDatatype(uint32(n), message.PadNullTerm, message.CharsetASCII)}
}

// Field is one named member of a compound type.
type Field struct {
	Name string
	Type *Datatype
}

// Compound returns a packed compound type with the given members in order.
func Compound(fields ...Field) *Datatype {
	members := make([]message.CompoundMember, len(fields))
	var offset uint32
	for i, f := range fields {
		members[i] = message.CompoundMember{Name: f.Name, ByteOffset: offset, Type: f.Type.m}
		offset += f.Type.m.Size
	}
	return &Datatype{m: message.NewCompoundDatatype(offset, members)}
}

// Size returns the element size in bytes.
func (d *Datatype) Size() int {
	return int(d.m.Size)
}

// Class returns the broad category of the type.
func (d *Datatype) Class() Class {
	switch d.m.Class {
	case message.ClassFixedPoint, message.ClassEnum:
		return ClassInteger
	case message.ClassFloatPoint:
		return ClassFloat
	case message.ClassString:
		return ClassString
	case message.ClassVarLen:
		if d.m.IsVarLenString {
			return ClassString
		}
	case message.ClassCompound:
		return ClassCompound
	}
	return ClassOther
}

// Signed reports whether an integer type is signed.
func (d *Datatype) Signed() bool {
	return d.m.Signed
}

// IsVarString reports whether the type is a variable-length string.
func (d *Datatype) IsVarString() bool {
	return d.m.Class == message.ClassVarLen && d.m.IsVarLenString
}

// Fields returns the members of a compound type.
func (d *Datatype) Fields() []Field {
	fields := make([]Field, len(d.m.Members))
	for i, m := range d.m.Members {
		fields[i] = Field{Name: m.Name, Type: &Datatype{m: m.Type}}
	}
	return fields
}

// Equal reports whether both types describe the same element layout.
func (d *Datatype) Equal(o *Datatype) bool {
	if d == nil || o == nil {
		return d == o
	}
	return equalMessage(d.m, o.m)
}

func equalMessage(a, b *message.Datatype) bool {
	if a.Class != b.Class || a.Size != b.Size || a.Signed != b.Signed || a.IsVarLenString != b.IsVarLenString {
		return false
	}
	if len(a.Members) != len(b.Members) {
		return false
	}
	for i := range a.Members {
		ma, mb := a.Members[i], b.Members[i]
		if ma.Name != mb.Name || ma.ByteOffset != mb.ByteOffset || !equalMessage(ma.Type, mb.Type) {
			return false
		}
	}
	return true
}

func (d *Datatype) String() string {
	switch d.Class() {
	case ClassInteger:
		if d.m.Signed {
			return fmt.Sprintf("int%d", d.m.Size*8)
		}
		return fmt.Sprintf("uint%d", d.m.Size*8)
	case ClassFloat:
		return fmt.Sprintf("float%d", d.m.Size*8)
	case ClassString:
		if d.IsVarString() {
			return "vlen string"
		}
		return fmt.Sprintf("string[%d]", d.m.Size)
	case ClassCompound:
		parts := make([]string, len(d.m.Members))
		for i, f := range d.Fields() {
			parts[i] = f.Name + " " + f.Type.String()
		}
		return "compound{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("class %d", d.m.Class)
}

func (d *Datatype) hasVarLen() bool {
	return dtype.HasVarLen(d.m)
}
