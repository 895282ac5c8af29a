package layout

import (
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/message"
)

// Contiguous data is one block at a fixed address. An undefined address
// means the block was never allocated.
type Contiguous struct {
	shape
	addr   uint64
	nbytes uint64
	r      *binary.Reader
}

func newContiguous(lay *message.DataLayout, s shape, r *binary.Reader) *Contiguous {
	c := &Contiguous{shape: s, addr: lay.Address, nbytes: lay.Size, r: r}
	if c.nbytes == 0 {
		c.nbytes = s.size()
	}
	return c
}

func (c *Contiguous) Class() message.LayoutClass { return message.LayoutContiguous }

func (c *Contiguous) allocated() bool { return !c.r.IsUndefinedOffset(c.addr) }

func (c *Contiguous) Read() ([]byte, error) {
	switch {
	case c.nbytes == 0:
		return []byte{}, nil
	case !c.allocated():
		return FillBuffer(c.nbytes/max(c.elem, 1), c.elem, c.fill), nil
	}
	data, err := c.r.At(int64(c.addr)).ReadBytes(int(c.nbytes))
	if err != nil {
		return nil, fmt.Errorf("contiguous data at %#x: %w", c.addr, err)
	}
	return data, nil
}

// ReadSlice reads only the rows the selection touches.
func (c *Contiguous) ReadSlice(start, count []uint64) ([]byte, error) {
	if len(c.dims) == 0 {
		return c.Read()
	}
	if err := ValidateSlice(c.dims, start, count); err != nil {
		return nil, err
	}
	n := product(count)
	if n == 0 || !c.allocated() {
		return FillBuffer(n, c.elem, c.fill), nil
	}

	st := strides(c.dims, c.elem)
	row := count[len(count)-1] * c.elem
	out := make([]byte, 0, n*c.elem)
	var err error
	eachRow(count, func(pos []uint64) {
		if err != nil {
			return
		}
		at := c.addr
		for d := range pos {
			at += (start[d] + pos[d]) * st[d]
		}
		var b []byte
		if b, err = c.r.At(int64(at)).ReadBytes(int(row)); err == nil {
			out = append(out, b...)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("contiguous row: %w", err)
	}
	return out, nil
}
