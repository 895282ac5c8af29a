package layout

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/message"
)

// Compact data lives inside the object header.
type Compact struct {
	shape
	data []byte
}

func (c *Compact) Class() message.LayoutClass { return message.LayoutCompact }

func (c *Compact) Read() ([]byte, error) { return bytes.Clone(c.data), nil }

func (c *Compact) ReadSlice(start, count []uint64) ([]byte, error) {
	if len(c.dims) == 0 {
		return c.Read()
	}
	if err := ValidateSlice(c.dims, start, count); err != nil {
		return nil, err
	}
	if uint64(len(c.data)) < c.size() {
		return nil, fmt.Errorf("compact data holds %d bytes, want %d", len(c.data), c.size())
	}
	out := make([]byte, product(count)*c.elem)
	CopyBlock(out, count, make([]uint64, len(count)), c.data, c.dims, start, count, c.elem)
	return out, nil
}
