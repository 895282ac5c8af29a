package dtype

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"unsafe"

	"github.com/robert-malhotra/go-kea/internal/message"
)

// Convert decodes numElements elements of dt from data into dest, which
// must point to a slice or to a single value. Numbers are converted to
// the destination's element type.
func Convert(dt *message.Datatype, data []byte, numElements uint64, dest interface{}) error {
	return ConvertWith(dt, data, numElements, dest, nil)
}

// ConvertWith is Convert with strs resolving variable-length strings.
// strs may be nil when dt holds none.
func ConvertWith(dt *message.Datatype, data []byte, numElements uint64, dest interface{}, strs Strings) error {
	if dt == nil {
		return errors.New("nil datatype")
	}
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("destination must be a non-nil pointer, got %T", dest)
	}
	dv = dv.Elem()
	n := int(numElements)
	size := int(dt.Size)

	if dv.Kind() == reflect.Slice {
		if canCopy(dt, dv.Type().Elem()) {
			return copyElements(data, n, size, dv)
		}
		if dv.Len() < n {
			dv.Set(reflect.MakeSlice(dv.Type(), n, n))
		}
	} else if n > 1 {
		n = 1
	}

	for i := 0; i < n && (i+1)*size <= len(data); i++ {
		v, err := element(dt, data[i*size:(i+1)*size], strs)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		target := dv
		if dv.Kind() == reflect.Slice {
			target = dv.Index(i)
		}
		if err := assign(target, v); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// Decode returns the elements as a slice of their natural Go type:
// []int8 to []float64 for numbers, []string for strings and
// []map[string]interface{} for compound records.
func Decode(dt *message.Datatype, data []byte, numElements uint64, strs Strings) (interface{}, error) {
	t, err := naturalType(dt)
	if err != nil {
		return nil, err
	}
	out := reflect.New(reflect.SliceOf(t))
	if err := ConvertWith(dt, data, numElements, out.Interface(), strs); err != nil {
		return nil, err
	}
	return out.Elem().Interface(), nil
}

func isNumber(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

func assign(dst reflect.Value, v interface{}) error {
	rv := reflect.ValueOf(v)
	switch {
	case dst.Kind() == reflect.Interface, rv.Type().AssignableTo(dst.Type()):
		dst.Set(rv)
	case isNumber(rv.Kind()) && isNumber(dst.Kind()):
		dst.Set(rv.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot store %s in %s", rv.Type(), dst.Type())
	}
	return nil
}

// element decodes one element of dt.
func element(dt *message.Datatype, b []byte, strs Strings) (interface{}, error) {
	switch dt.Class {
	case message.ClassFixedPoint, message.ClassFloatPoint, message.ClassEnum, message.ClassBitfield:
		return number(dt, b)
	case message.ClassString:
		return fixedString(dt, b), nil
	case message.ClassVarLen:
		if !dt.IsVarLenString {
			return nil, errors.New("variable-length sequences are not supported")
		}
		return resolveSlot(b, strs)
	case message.ClassCompound:
		rec := make(map[string]interface{}, len(dt.Members))
		for _, m := range dt.Members {
			if m.Type == nil {
				continue
			}
			end := int(m.ByteOffset) + int(m.Type.Size)
			if end > len(b) {
				return nil, fmt.Errorf("member %q overruns element", m.Name)
			}
			v, err := element(m.Type, b[m.ByteOffset:end], strs)
			if err != nil {
				return nil, fmt.Errorf("member %q: %w", m.Name, err)
			}
			rec[m.Name] = v
		}
		return rec, nil
	case message.ClassOpaque:
		return append([]byte(nil), b...), nil
	}
	return nil, fmt.Errorf("unsupported datatype class %d", dt.Class)
}

// number decodes a numeric element into the Go type of matching width and
// signedness. Bitfields are always unsigned.
func number(dt *message.Datatype, b []byte) (interface{}, error) {
	order := ByteOrder(dt)
	if len(b) < int(dt.Size) {
		return nil, fmt.Errorf("need %d bytes, have %d", dt.Size, len(b))
	}
	if dt.Class == message.ClassFloatPoint {
		switch dt.Size {
		case 4:
			return math.Float32frombits(order.Uint32(b)), nil
		case 8:
			return math.Float64frombits(order.Uint64(b)), nil
		}
		return nil, fmt.Errorf("unsupported float size %d", dt.Size)
	}

	signed := dt.Signed && dt.Class != message.ClassBitfield
	switch dt.Size {
	case 1:
		if signed {
			return int8(b[0]), nil
		}
		return b[0], nil
	case 2:
		v := order.Uint16(b)
		if signed {
			return int16(v), nil
		}
		return v, nil
	case 4:
		v := order.Uint32(b)
		if signed {
			return int32(v), nil
		}
		return v, nil
	case 8:
		v := order.Uint64(b)
		if signed {
			return int64(v), nil
		}
		return v, nil
	}
	return nil, fmt.Errorf("unsupported integer size %d", dt.Size)
}

// fixedString cuts at the first NUL and drops space padding.
func fixedString(dt *message.Datatype, b []byte) string {
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	if dt.StringPadding == message.PadSpacePad {
		for len(b) > 0 && b[len(b)-1] == ' ' {
			b = b[:len(b)-1]
		}
	}
	return string(b)
}

// resolveSlot resolves one variable-length slot. A zero-length slot is the
// empty string and needs no resolver.
func resolveSlot(slot []byte, strs Strings) (string, error) {
	if len(slot) >= 4 && slot[0]|slot[1]|slot[2]|slot[3] == 0 {
		return "", nil
	}
	if strs == nil {
		return "", errors.New("variable-length string without a resolver")
	}
	return strs.String(slot)
}

// canCopy reports whether stored elements already have the memory layout
// of elem.
func canCopy(dt *message.Datatype, elem reflect.Type) bool {
	if dt.ByteOrder != message.OrderLE || uintptr(dt.Size) != elem.Size() {
		return false
	}
	switch elem.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return dt.Class == message.ClassFixedPoint && dt.Signed
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return dt.Class == message.ClassFixedPoint && !dt.Signed
	case reflect.Float32, reflect.Float64:
		return dt.Class == message.ClassFloatPoint
	}
	return false
}

func copyElements(data []byte, n, size int, dest reflect.Value) error {
	need := n * size
	if need > len(data) {
		return fmt.Errorf("need %d bytes, have %d", need, len(data))
	}
	if dest.Len() < n {
		dest.Set(reflect.MakeSlice(dest.Type(), n, n))
	}
	if n == 0 {
		return nil
	}
	p := unsafe.Pointer(dest.Index(0).UnsafeAddr())
	copy(unsafe.Slice((*byte)(p), need), data)
	return nil
}
