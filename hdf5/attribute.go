package hdf5

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-kea/internal/dtype"
	"github.com/robert-malhotra/go-kea/internal/message"
)

// Attribute is a small named value attached to a group or dataset.
type Attribute struct {
	msg   *message.Attribute
	value interface{}
	err   error
}

func newAttribute(msg *message.Attribute, strs dtype.Strings) *Attribute {
	a := &Attribute{msg: msg}
	a.value, a.err = decodeAttribute(msg, strs)
	return a
}

// Name returns the attribute name.
func (a *Attribute) Name() string {
	return a.msg.Name
}

// Shape returns the dimensions of the attribute value, nil for a scalar.
func (a *Attribute) Shape() []uint64 {
	if a.IsScalar() {
		return nil
	}
	return append([]uint64(nil), a.msg.Dataspace.Dimensions...)
}

// IsScalar returns true if the attribute is a scalar value.
func (a *Attribute) IsScalar() bool {
	return a.msg.Dataspace == nil || a.msg.Dataspace.IsScalar()
}

// Datatype returns the stored element type.
func (a *Attribute) Datatype() *Datatype {
	return &Datatype{m: a.msg.Datatype}
}

// Value returns the attribute value using natural Go types: int8..uint64,
// float32/float64 and string for scalars, the matching slice otherwise.
func (a *Attribute) Value() (interface{}, error) {
	return a.value, a.err
}

// Read converts the attribute value into dest, a pointer to a slice or
// scalar of a compatible type.
func (a *Attribute) Read(dest interface{}) error {
	if a.msg.Datatype == nil {
		return fmt.Errorf("attribute has no datatype")
	}
	return dtype.Convert(a.msg.Datatype, a.msg.Data, a.numElements(), dest)
}

func (a *Attribute) numElements() uint64 {
	if a.msg.Dataspace == nil {
		return 1
	}
	return a.msg.Dataspace.NumElements()
}

func decodeAttribute(msg *message.Attribute, strs dtype.Strings) (interface{}, error) {
	if msg.Datatype == nil {
		return nil, fmt.Errorf("attribute %q has no datatype", msg.Name)
	}
	n := uint64(1)
	scalar := true
	if msg.Dataspace != nil {
		n = msg.Dataspace.NumElements()
		scalar = msg.Dataspace.IsScalar()
	}
	v, err := dtype.Decode(msg.Datatype, msg.Data, n, strs)
	if err != nil {
		return nil, fmt.Errorf("decoding attribute %q: %w", msg.Name, err)
	}
	if scalar {
		rv := reflect.ValueOf(v)
		if rv.Len() == 1 {
			return rv.Index(0).Interface(), nil
		}
	}
	return v, nil
}

// attrSet is the ordered attribute list shared by groups and datasets.
type attrSet struct {
	file  *File
	attrs []*Attribute
}

// Attrs returns the attribute names in order.
func (s *attrSet) Attrs() []string {
	names := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		names[i] = a.Name()
	}
	return names
}

// Attr returns the named attribute, or nil if absent.
func (s *attrSet) Attr(name string) *Attribute {
	for _, a := range s.attrs {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// HasAttr reports whether the named attribute exists.
func (s *attrSet) HasAttr(name string) bool {
	return s.Attr(name) != nil
}

// AttrValue returns the value of the named attribute.
func (s *attrSet) AttrValue(name string) (interface{}, error) {
	a := s.Attr(name)
	if a == nil {
		return nil, fmt.Errorf("attribute %q: %w", name, ErrNotFound)
	}
	return a.Value()
}

// SetAttr creates or replaces an attribute. The value can be a scalar or
// slice of int, int8-64, uint, uint8-64, float32, float64 or string.
func (s *attrSet) SetAttr(name string, value interface{}) error {
	if err := s.file.checkWritable(); err != nil {
		return err
	}
	msg, err := createAttributeMessage(name, value)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}
	s.putAttr(newAttribute(msg, nil))
	return nil
}

// DeleteAttr removes the named attribute. Deleting a missing attribute is
// not an error.
func (s *attrSet) DeleteAttr(name string) error {
	if err := s.file.checkWritable(); err != nil {
		return err
	}
	for i, a := range s.attrs {
		if a.Name() == name {
			s.attrs = append(s.attrs[:i], s.attrs[i+1:]...)
			break
		}
	}
	return nil
}

func (s *attrSet) putAttr(a *Attribute) {
	for i, old := range s.attrs {
		if old.Name() == a.Name() {
			s.attrs[i] = a
			return
		}
	}
	s.attrs = append(s.attrs, a)
}

func (s *attrSet) messages() []message.Message {
	msgs := make([]message.Message, len(s.attrs))
	for i, a := range s.attrs {
		msgs[i] = a.msg
	}
	return msgs
}

// loadAttr adopts an attribute read from a file. Attributes referencing the
// global heap are re-encoded from their decoded value, so the new file does
// not point into the old one; those that cannot be re-encoded are dropped.
func (s *attrSet) loadAttr(msg *message.Attribute, strs dtype.Strings) {
	a := newAttribute(msg, strs)
	if msg.Datatype != nil && dtype.HasVarLen(msg.Datatype) {
		if a.err != nil {
			return
		}
		m, err := createAttributeMessage(msg.Name, a.value)
		if err != nil {
			return
		}
		a = newAttribute(m, nil)
	}
	s.attrs = append(s.attrs, a)
}

// createAttributeMessage creates an attribute message from a name and value.
func createAttributeMessage(name string, value interface{}) (*message.Attribute, error) {
	val := reflect.ValueOf(value)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if !val.IsValid() {
		return nil, fmt.Errorf("nil attribute value")
	}

	if val.Kind() == reflect.String {
		return createStringAttribute(name, val.String()), nil
	}
	if val.Kind() == reflect.Slice && val.Type().Elem().Kind() == reflect.String {
		return createStringArrayAttribute(name, val)
	}

	var dataspace *message.Dataspace
	var elemType reflect.Type
	switch val.Kind() {
	case reflect.Slice, reflect.Array:
		dataspace = message.NewDataspace([]uint64{uint64(val.Len())}, nil)
		elemType = val.Type().Elem()
	default:
		dataspace = message.NewScalarDataspace()
		elemType = val.Type()
	}

	datatype, err := dtype.GoTypeToDatatype(elemType)
	if err != nil {
		return nil, fmt.Errorf("unsupported attribute type %v: %w", elemType, err)
	}
	data, err := dtype.Encode(datatype, val.Interface())
	if err != nil {
		return nil, fmt.Errorf("encoding attribute value: %w", err)
	}
	return message.NewAttribute(name, datatype, dataspace, data), nil
}

// createStringAttribute creates a scalar fixed-length string attribute.
func createStringAttribute(name string, s string) *message.Attribute {
	strLen := len(s) + 1
	datatype := message.NewStringDatatype(uint32(strLen), message.PadNullTerm, message.CharsetASCII)
	data := make([]byte, strLen)
	copy(data, s)
	return message.NewAttribute(name, datatype, message.NewScalarDataspace(), data)
}

// createStringArrayAttribute creates a 1-D fixed-length string attribute
// sized to the longest element.
func createStringArrayAttribute(name string, val reflect.Value) (*message.Attribute, error) {
	n := val.Len()
	if n == 0 {
		return nil, fmt.Errorf("empty string array not supported")
	}

	maxLen := 0
	for i := 0; i < n; i++ {
		if l := len(val.Index(i).String()); l > maxLen {
			maxLen = l
		}
	}
	strLen := maxLen + 1

	datatype := message.NewStringDatatype(uint32(strLen), message.PadNullTerm, message.CharsetASCII)
	dataspace := message.NewDataspace([]uint64{uint64(n)}, nil)
	data := make([]byte, n*strLen)
	for i := 0; i < n; i++ {
		copy(data[i*strLen:], val.Index(i).String())
	}
	return message.NewAttribute(name, datatype, dataspace, data), nil
}
