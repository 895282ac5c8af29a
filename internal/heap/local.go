package heap

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/binary"
)

// LocalHeap holds the names of a v1 group's members.
type LocalHeap struct {
	data []byte
}

// prefix checks the signature and version that open every heap block and
// returns a reader positioned after the three reserved bytes.
func prefix(r *binary.Reader, address uint64, sig string, version uint8) (*binary.Reader, error) {
	hr := r.At(int64(address))
	got, err := hr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("%s at %#x: %w", sig, address, err)
	}
	if string(got) != sig {
		return nil, fmt.Errorf("heap at %#x: signature %q, want %q", address, got, sig)
	}
	v, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if v != version {
		return nil, fmt.Errorf("%s at %#x: unsupported version %d", sig, address, v)
	}
	hr.Skip(3)
	return hr, nil
}

// ReadLocalHeap reads the local heap at address and its data segment.
func ReadLocalHeap(r *binary.Reader, address uint64) (*LocalHeap, error) {
	hr, err := prefix(r, address, "HEAP", 0)
	if err != nil {
		return nil, err
	}
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}
	if _, err := hr.ReadLength(); err != nil { // free list head
		return nil, err
	}
	segment, err := hr.ReadOffset()
	if err != nil {
		return nil, err
	}
	data, err := r.At(int64(segment)).ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("local heap data at %#x: %w", segment, err)
	}
	return &LocalHeap{data: data}, nil
}

// GetString returns the NUL-terminated string at offset, or "" when
// offset is outside the data segment.
func (h *LocalHeap) GetString(offset uint64) string {
	if offset >= uint64(len(h.data)) {
		return ""
	}
	s := h.data[offset:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}
