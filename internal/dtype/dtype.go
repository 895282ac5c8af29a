package dtype

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-kea/internal/message"
)

var (
	stringType = reflect.TypeOf("")
	recordType = reflect.TypeOf(map[string]interface{}{})
	bytesType  = reflect.TypeOf([]byte(nil))
)

// naturalType is the Go type one element of dt decodes to when the
// caller does not choose one.
func naturalType(dt *message.Datatype) (reflect.Type, error) {
	switch dt.Class {
	case message.ClassFixedPoint, message.ClassFloatPoint, message.ClassEnum, message.ClassBitfield:
		v, err := number(dt, make([]byte, dt.Size))
		if err != nil {
			return nil, err
		}
		return reflect.TypeOf(v), nil
	case message.ClassString:
		return stringType, nil
	case message.ClassVarLen:
		if dt.IsVarLenString {
			return stringType, nil
		}
	case message.ClassCompound:
		return recordType, nil
	case message.ClassOpaque:
		return bytesType, nil
	}
	return nil, fmt.Errorf("no Go type for datatype class %d", dt.Class)
}

// ByteOrder returns the byte order elements of dt are stored in.
func ByteOrder(dt *message.Datatype) binary.ByteOrder {
	if dt.ByteOrder == message.OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}
