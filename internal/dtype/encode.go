package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/robert-malhotra/go-kea/internal/message"
)

// StringSink stores variable-length strings while encoding and fills the
// slot that references each one.
type StringSink interface {
	PutString(s string, slot []byte) error
}

// Encode converts Go values to raw HDF5 bytes.
// The src parameter should be a slice or array of the appropriate type;
// a scalar encodes as one element.
func Encode(dt *message.Datatype, src interface{}) ([]byte, error) {
	return EncodeWith(dt, src, nil)
}

// EncodeWith is Encode with a sink for variable-length strings.
func EncodeWith(dt *message.Datatype, src interface{}, sink StringSink) ([]byte, error) {
	if dt == nil {
		return nil, fmt.Errorf("nil datatype")
	}

	srcVal := reflect.ValueOf(src)
	if srcVal.Kind() == reflect.Ptr {
		srcVal = srcVal.Elem()
	}
	if k := srcVal.Kind(); k != reflect.Slice && k != reflect.Array {
		sliceVal := reflect.MakeSlice(reflect.SliceOf(srcVal.Type()), 1, 1)
		sliceVal.Index(0).Set(srcVal)
		srcVal = sliceVal
	}

	size := int(dt.Size)
	n := srcVal.Len()
	data := make([]byte, n*size)
	for i := 0; i < n; i++ {
		if err := EncodeValue(dt, srcVal.Index(i).Interface(), data[i*size:(i+1)*size], sink); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return data, nil
}

// EncodeScalar encodes a single scalar value.
func EncodeScalar(dt *message.Datatype, src interface{}) ([]byte, error) {
	buf := make([]byte, dt.Size)
	if err := EncodeValue(dt, src, buf, nil); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeValue encodes one value of dt into buf, which must hold dt.Size
// bytes. Numbers are converted to the stored width and signedness.
// Compound values are map[string]interface{} keyed by member name; absent
// members stay zero.
func EncodeValue(dt *message.Datatype, v interface{}, buf []byte, sink StringSink) error {
	if len(buf) < int(dt.Size) {
		return fmt.Errorf("buffer holds %d bytes, need %d", len(buf), dt.Size)
	}

	switch dt.Class {
	case message.ClassFixedPoint, message.ClassEnum:
		return encodeFixedPoint(dt, reflect.ValueOf(v), buf)
	case message.ClassFloatPoint:
		return encodeFloatPoint(dt, reflect.ValueOf(v), buf)
	case message.ClassString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot encode %T as string", v)
		}
		encodeString(dt, s, buf)
		return nil
	case message.ClassVarLen:
		s, ok := v.(string)
		if !ok || !dt.IsVarLenString {
			return fmt.Errorf("cannot encode %T as variable-length string", v)
		}
		if sink == nil {
			return fmt.Errorf("variable-length string requires a string sink")
		}
		return sink.PutString(s, buf[:dt.Size])
	case message.ClassCompound:
		rec, ok := v.(map[string]interface{})
		if !ok {
			return fmt.Errorf("cannot encode %T as compound", v)
		}
		for _, m := range dt.Members {
			mv, ok := rec[m.Name]
			if !ok {
				continue
			}
			start := int(m.ByteOffset)
			if err := EncodeValue(m.Type, mv, buf[start:start+int(m.Type.Size)], sink); err != nil {
				return fmt.Errorf("member %q: %w", m.Name, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported datatype class for encoding: %d", dt.Class)
	}
}

func encodeFixedPoint(dt *message.Datatype, v reflect.Value, buf []byte) error {
	var bits uint64
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits = uint64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		bits = v.Uint()
	case reflect.Float32, reflect.Float64:
		if dt.Signed {
			bits = uint64(int64(v.Float()))
		} else {
			bits = uint64(v.Float())
		}
	case reflect.Bool:
		if v.Bool() {
			bits = 1
		}
	default:
		return fmt.Errorf("cannot encode %v as fixed-point", v.Kind())
	}

	order := ByteOrder(dt)
	switch dt.Size {
	case 1:
		buf[0] = byte(bits)
	case 2:
		order.PutUint16(buf, uint16(bits))
	case 4:
		order.PutUint32(buf, uint32(bits))
	case 8:
		order.PutUint64(buf, bits)
	default:
		return fmt.Errorf("unsupported integer size: %d", dt.Size)
	}
	return nil
}

func encodeFloatPoint(dt *message.Datatype, v reflect.Value, buf []byte) error {
	var f float64
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		f = v.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f = float64(v.Uint())
	default:
		return fmt.Errorf("cannot encode %v as float", v.Kind())
	}

	order := ByteOrder(dt)
	switch dt.Size {
	case 4:
		order.PutUint32(buf, math.Float32bits(float32(f)))
	case 8:
		order.PutUint64(buf, math.Float64bits(f))
	default:
		return fmt.Errorf("unsupported float size: %d", dt.Size)
	}
	return nil
}

func encodeString(dt *message.Datatype, s string, buf []byte) {
	size := int(dt.Size)
	n := copy(buf[:size], s)
	for j := n; j < size; j++ {
		if dt.StringPadding == message.PadSpacePad {
			buf[j] = ' '
		} else {
			buf[j] = 0
		}
	}
}

// GoTypeToDatatype creates an HDF5 datatype from a Go type.
func GoTypeToDatatype(t reflect.Type) (*message.Datatype, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Int8:
		return message.NewFixedPointDatatype(1, true, message.OrderLE), nil
	case reflect.Int16:
		return message.NewFixedPointDatatype(2, true, message.OrderLE), nil
	case reflect.Int32:
		return message.NewFixedPointDatatype(4, true, message.OrderLE), nil
	case reflect.Int64, reflect.Int:
		return message.NewFixedPointDatatype(8, true, message.OrderLE), nil
	case reflect.Uint8, reflect.Bool:
		return message.NewFixedPointDatatype(1, false, message.OrderLE), nil
	case reflect.Uint16:
		return message.NewFixedPointDatatype(2, false, message.OrderLE), nil
	case reflect.Uint32:
		return message.NewFixedPointDatatype(4, false, message.OrderLE), nil
	case reflect.Uint64, reflect.Uint:
		return message.NewFixedPointDatatype(8, false, message.OrderLE), nil
	case reflect.Float32:
		return message.NewFloatDatatype(4, message.OrderLE), nil
	case reflect.Float64:
		return message.NewFloatDatatype(8, message.OrderLE), nil
	case reflect.String:
		return message.NewVarLenStringDatatype(message.CharsetUTF8), nil
	default:
		return nil, fmt.Errorf("unsupported Go type: %v", t)
	}
}

// DataSize returns the total size in bytes needed to store n elements of the given datatype.
func DataSize(dt *message.Datatype, n uint64) uint64 {
	return uint64(dt.Size) * n
}

// PutSlot writes a variable-length slot: sequence length then a global
// heap reference of collection address and object index.
func PutSlot(slot []byte, length uint32, addr uint64, index uint32) {
	binary.LittleEndian.PutUint32(slot[0:4], length)
	binary.LittleEndian.PutUint64(slot[4:12], addr)
	binary.LittleEndian.PutUint32(slot[12:16], index)
}

// SlotRef reads the fields written by PutSlot.
func SlotRef(slot []byte) (length uint32, addr uint64, index uint32) {
	return binary.LittleEndian.Uint32(slot[0:4]),
		binary.LittleEndian.Uint64(slot[4:12]),
		binary.LittleEndian.Uint32(slot[12:16])
}
