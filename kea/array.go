package kea

import (
	"fmt"
	"reflect"
)

// Array is a row-major n-dimensional array whose element type is known at
// run time. Band reads return 2D (rows, cols) or 3D (bands, rows, cols)
// arrays.
type Array struct {
	dtype DataType
	shape []int
	data  any
}

// NewArray returns a zeroed array of the given type and shape.
func NewArray(dt DataType, shape ...int) *Array {
	return &Array{dtype: dt, shape: append([]int(nil), shape...), data: makeSlice(dt, product(shape))}
}

// NewBoolArray returns an all-false array, the input type of WriteMask.
func NewBoolArray(shape ...int) *Array {
	return NewArray(Bool, shape...)
}

// FromSlice wraps data, a slice of a supported element type, without
// copying it. The slice length must equal the product of shape.
func FromSlice(data any, shape ...int) (*Array, error) {
	dt, n, ok := typeOfSlice(data)
	if !ok {
		return nil, fmt.Errorf("array of %T: %w", data, ErrType)
	}
	if n != product(shape) {
		return nil, fmt.Errorf("%d elements do not fill shape %v: %w", n, shape, ErrShape)
	}
	return &Array{dtype: dt, shape: append([]int(nil), shape...), data: data}, nil
}

// MustFromSlice is FromSlice that panics on error, for literals in tests
// and examples.
func MustFromSlice(data any, shape ...int) *Array {
	a, err := FromSlice(data, shape...)
	if err != nil {
		panic(err)
	}
	return a
}

// DataType returns the element type.
func (a *Array) DataType() DataType { return a.dtype }

// Shape returns a copy of the dimensions.
func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }

// NDim returns the number of dimensions.
func (a *Array) NDim() int { return len(a.shape) }

// Len returns the number of elements.
func (a *Array) Len() int { return product(a.shape) }

// Data returns the backing slice, for example []float32.
func (a *Array) Data() any { return a.data }

// AsType returns a copy converted elementwise to dt.
func (a *Array) AsType(dt DataType) *Array {
	return &Array{dtype: dt, shape: a.Shape(), data: castTo(a.data, dt)}
}

// Float64s returns the elements converted to float64.
func (a *Array) Float64s() []float64 {
	return castSlice[float64](a.data)
}

// Plane returns a copy of the i-th 2D plane of a 3D array.
func (a *Array) Plane(i int) (*Array, error) {
	if a.NDim() != 3 {
		return nil, fmt.Errorf("plane of a %d-dimensional array: %w", a.NDim(), ErrShape)
	}
	if i < 0 || i >= a.shape[0] {
		return nil, fmt.Errorf("plane %d of %d: %w", i, a.shape[0], ErrRange)
	}
	n := a.shape[1] * a.shape[2]
	out := NewArray(a.dtype, a.shape[1], a.shape[2])
	reflect.Copy(reflect.ValueOf(out.data), reflect.ValueOf(a.data).Slice(i*n, (i+1)*n))
	return out, nil
}

// setPlane copies src, already of a's type, into the i-th plane.
func (a *Array) setPlane(i int, src any) {
	n := a.shape[1] * a.shape[2]
	reflect.Copy(reflect.ValueOf(a.data).Slice(i*n, (i+1)*n), reflect.ValueOf(src))
}

// Values returns the backing slice of a when its element type is T.
func Values[T Element](a *Array) ([]T, error) {
	v, ok := a.data.([]T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("array of %s read as %T: %w", a.dtype, zero, ErrType)
	}
	return v, nil
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Window selects the half-open rows [Y0, Y1) and columns [X0, X1) of a
// band. A nil *Window selects the whole band.
type Window struct {
	Y0, Y1 int
	X0, X1 int
}

func (w *Window) String() string {
	if w == nil {
		return "full"
	}
	return fmt.Sprintf("((%d,%d),(%d,%d))", w.Y0, w.Y1, w.X0, w.X1)
}
