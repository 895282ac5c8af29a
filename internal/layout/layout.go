package layout

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/message"
)

// ErrOutOfBounds is returned for selections outside the dataset extent.
var ErrOutOfBounds = errors.New("selection out of bounds")

// Layout reads the stored elements of one dataset in row-major order.
type Layout interface {
	Read() ([]byte, error)
	// ReadSlice reads the count-shaped block starting at start.
	ReadSlice(start, count []uint64) ([]byte, error)
	Class() message.LayoutClass
}

// New opens the storage described by lay. fv may be nil; storage that
// was never written reads as its value.
func New(lay *message.DataLayout, space *message.Dataspace, dt *message.Datatype, fp *message.FilterPipeline, fv *message.FillValue, r *binary.Reader) (Layout, error) {
	if lay == nil {
		return nil, errors.New("dataset has no layout message")
	}
	shape := newShape(space, dt)
	shape.fill = fillBytes(fv, dt)
	switch lay.Class {
	case message.LayoutCompact:
		return &Compact{shape: shape, data: lay.CompactData}, nil
	case message.LayoutContiguous:
		return newContiguous(lay, shape, r), nil
	case message.LayoutChunked:
		return newChunked(lay, shape, fp, r)
	}
	return nil, fmt.Errorf("unsupported layout class %d", lay.Class)
}

// shape is what every layout needs to know about its elements.
type shape struct {
	dims []uint64
	elem uint64
	fill []byte
}

func newShape(space *message.Dataspace, dt *message.Datatype) shape {
	var s shape
	if space != nil {
		s.dims = space.Dimensions
	}
	if dt != nil {
		s.elem = uint64(dt.Size)
	}
	return s
}

func (s shape) size() uint64 { return product(s.dims) * s.elem }

// fillBytes is one element of fill, or nil for zero fill.
func fillBytes(fv *message.FillValue, dt *message.Datatype) []byte {
	if fv == nil || dt == nil || !fv.IsDefined || len(fv.Value) != int(dt.Size) {
		return nil
	}
	return fv.Value
}

func product(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

// FillBuffer returns n elements set to fill. A nil or all-zero fill
// leaves the buffer zeroed.
func FillBuffer(n, elementSize uint64, fill []byte) []byte {
	buf := make([]byte, n*elementSize)
	zero := true
	for _, b := range fill {
		zero = zero && b == 0
	}
	if zero || elementSize == 0 {
		return buf
	}
	for off := uint64(0); off < uint64(len(buf)); off += elementSize {
		copy(buf[off:], fill)
	}
	return buf
}

// ValidateSlice checks start and count against dims.
func ValidateSlice(dims, start, count []uint64) error {
	if len(start) != len(dims) || len(count) != len(dims) {
		return fmt.Errorf("%w: rank %d selection with %d start and %d count values",
			ErrOutOfBounds, len(dims), len(start), len(count))
	}
	for d := range dims {
		if start[d] > dims[d] || count[d] > dims[d]-start[d] {
			return fmt.Errorf("%w: dimension %d selects [%d,%d) of %d",
				ErrOutOfBounds, d, start[d], start[d]+count[d], dims[d])
		}
	}
	return nil
}

// CopyBlock copies a count-shaped block of elements from src, starting at
// srcStart, into dst at dstStart. Both arrays are row-major.
func CopyBlock(dst []byte, dstDims, dstStart []uint64, src []byte, srcDims, srcStart []uint64, count []uint64, elementSize uint64) {
	rank := len(count)
	if rank == 0 {
		copy(dst, src[:min(uint64(len(src)), elementSize)])
		return
	}
	if product(count) == 0 {
		return
	}
	dstStrides := strides(dstDims, elementSize)
	srcStrides := strides(srcDims, elementSize)
	row := count[rank-1] * elementSize

	eachRow(count, func(pos []uint64) {
		var so, do uint64
		for d := range rank {
			so += (srcStart[d] + pos[d]) * srcStrides[d]
			do += (dstStart[d] + pos[d]) * dstStrides[d]
		}
		copy(dst[do:do+row], src[so:so+row])
	})
}

// eachRow calls fn with the coordinates of the first element of every
// innermost row of a count-shaped block. The last coordinate is always 0.
func eachRow(count []uint64, fn func(pos []uint64)) {
	pos := make([]uint64, len(count))
	for {
		fn(pos)
		d := len(count) - 2
		for ; d >= 0; d-- {
			if pos[d]++; pos[d] < count[d] {
				break
			}
			pos[d] = 0
		}
		if d < 0 {
			return
		}
	}
}

func strides(dims []uint64, elementSize uint64) []uint64 {
	out := make([]uint64, len(dims))
	s := elementSize
	for d := len(dims) - 1; d >= 0; d-- {
		out[d] = s
		s *= dims[d]
	}
	return out
}
