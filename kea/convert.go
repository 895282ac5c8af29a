package kea

import (
	"encoding/binary"
	"fmt"
)

type number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Element is any Go type an Array can hold.
type Element interface {
	number | bool
}

// makeSlice returns a zeroed slice of n elements of type t.
func makeSlice(t DataType, n int) any {
	switch t {
	case Int8:
		return make([]int8, n)
	case Int16:
		return make([]int16, n)
	case Int32:
		return make([]int32, n)
	case Int64:
		return make([]int64, n)
	case Uint8:
		return make([]uint8, n)
	case Uint16:
		return make([]uint16, n)
	case Uint32:
		return make([]uint32, n)
	case Uint64:
		return make([]uint64, n)
	case Float32:
		return make([]float32, n)
	case Float64:
		return make([]float64, n)
	case Bool:
		return make([]bool, n)
	}
	return nil
}

// typeOfSlice returns the element type and length of a supported slice.
func typeOfSlice(data any) (DataType, int, bool) {
	switch s := data.(type) {
	case []int8:
		return Int8, len(s), true
	case []int16:
		return Int16, len(s), true
	case []int32:
		return Int32, len(s), true
	case []int64:
		return Int64, len(s), true
	case []uint8:
		return Uint8, len(s), true
	case []uint16:
		return Uint16, len(s), true
	case []uint32:
		return Uint32, len(s), true
	case []uint64:
		return Uint64, len(s), true
	case []float32:
		return Float32, len(s), true
	case []float64:
		return Float64, len(s), true
	case []bool:
		return Bool, len(s), true
	}
	return None, 0, false
}

// decodeLE decodes little-endian elements of type t.
func decodeLE(t DataType, b []byte) (any, error) {
	size := t.Size()
	if size == 0 || len(b)%size != 0 {
		return nil, fmt.Errorf("decoding %d bytes as %s: %w", len(b), t, ErrType)
	}
	out := makeSlice(t, len(b)/size)
	if _, err := binary.Decode(b, binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", t, err)
	}
	return out, nil
}

// encodeLE encodes a supported slice as little-endian bytes.
func encodeLE(data any) ([]byte, error) {
	t, n, ok := typeOfSlice(data)
	if !ok {
		return nil, fmt.Errorf("encoding %T: %w", data, ErrType)
	}
	return binary.Append(make([]byte, 0, n*t.Size()), binary.LittleEndian, data)
}

// castTo converts every element of a supported slice to type t, as a Go
// conversion would. Bool converts to and from 0 and 1.
func castTo(src any, t DataType) any {
	switch t {
	case Int8:
		return castSlice[int8](src)
	case Int16:
		return castSlice[int16](src)
	case Int32:
		return castSlice[int32](src)
	case Int64:
		return castSlice[int64](src)
	case Uint8:
		return castSlice[uint8](src)
	case Uint16:
		return castSlice[uint16](src)
	case Uint32:
		return castSlice[uint32](src)
	case Uint64:
		return castSlice[uint64](src)
	case Float32:
		return castSlice[float32](src)
	case Float64:
		return castSlice[float64](src)
	case Bool:
		return castBool(src)
	}
	return nil
}

func castSlice[D number](src any) []D {
	switch s := src.(type) {
	case []int8:
		return convertSlice[int8, D](s)
	case []int16:
		return convertSlice[int16, D](s)
	case []int32:
		return convertSlice[int32, D](s)
	case []int64:
		return convertSlice[int64, D](s)
	case []uint8:
		return convertSlice[uint8, D](s)
	case []uint16:
		return convertSlice[uint16, D](s)
	case []uint32:
		return convertSlice[uint32, D](s)
	case []uint64:
		return convertSlice[uint64, D](s)
	case []float32:
		return convertSlice[float32, D](s)
	case []float64:
		return convertSlice[float64, D](s)
	case []bool:
		out := make([]D, len(s))
		for i, v := range s {
			if v {
				out[i] = 1
			}
		}
		return out
	}
	return nil
}

func convertSlice[S, D number](s []S) []D {
	out := make([]D, len(s))
	for i, v := range s {
		out[i] = D(v)
	}
	return out
}

func castBool(src any) []bool {
	switch s := src.(type) {
	case []bool:
		return append([]bool(nil), s...)
	case []int8:
		return nonZero(s)
	case []int16:
		return nonZero(s)
	case []int32:
		return nonZero(s)
	case []int64:
		return nonZero(s)
	case []uint8:
		return nonZero(s)
	case []uint16:
		return nonZero(s)
	case []uint32:
		return nonZero(s)
	case []uint64:
		return nonZero(s)
	case []float32:
		return nonZero(s)
	case []float64:
		return nonZero(s)
	}
	return nil
}

func nonZero[S number](s []S) []bool {
	out := make([]bool, len(s))
	for i, v := range s {
		out[i] = v != 0
	}
	return out
}

// validMask returns 255 where a pixel differs from the no-data value and 0
// where it matches. A nil nodata marks every pixel valid.
func validMask(pixels any, nodata *float64) []uint8 {
	_, n, _ := typeOfSlice(pixels)
	mask := make([]uint8, n)
	if nodata == nil {
		for i := range mask {
			mask[i] = 255
		}
		return mask
	}
	switch px := pixels.(type) {
	case []int8:
		paintValid(mask, px, *nodata)
	case []int16:
		paintValid(mask, px, *nodata)
	case []int32:
		paintValid(mask, px, *nodata)
	case []int64:
		paintValid(mask, px, *nodata)
	case []uint8:
		paintValid(mask, px, *nodata)
	case []uint16:
		paintValid(mask, px, *nodata)
	case []uint32:
		paintValid(mask, px, *nodata)
	case []uint64:
		paintValid(mask, px, *nodata)
	case []float32:
		paintValid(mask, px, *nodata)
	case []float64:
		paintValid(mask, px, *nodata)
	}
	return mask
}

// paintValid compares in the pixel type. A no-data value the type cannot
// hold, NaN included, matches nothing.
func paintValid[T number](mask []uint8, px []T, nodata float64) {
	s := T(nodata)
	exact := float64(s) == nodata
	for i, v := range px {
		if !exact || v != s {
			mask[i] = 255
		}
	}
}
