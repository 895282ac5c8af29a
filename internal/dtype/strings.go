package dtype

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/heap"
	"github.com/robert-malhotra/go-kea/internal/message"
)

// Strings resolves variable-length string slots to their values.
//
// A slot is the in-element reference HDF5 stores for a variable-length
// value: a 4-byte sequence length followed by a global heap ID.
type Strings interface {
	String(slot []byte) (string, error)
}

// SlotSize returns the size of a variable-length slot for the given file
// offset size.
func SlotSize(offsetSize int) int {
	return 4 + heap.GlobalHeapIDSize(offsetSize)
}

// HeapStrings resolves slots against the global heap collections of a file.
// Collections are cached after their first use.
type HeapStrings struct {
	r     *binpkg.Reader
	cache map[uint64]*heap.GlobalHeap
}

// NewHeapStrings creates a resolver reading collections through r.
func NewHeapStrings(r *binpkg.Reader) *HeapStrings {
	return &HeapStrings{r: r, cache: make(map[uint64]*heap.GlobalHeap)}
}

// String implements Strings.
func (h *HeapStrings) String(slot []byte) (string, error) {
	offsetSize := h.r.OffsetSize()
	if len(slot) < SlotSize(offsetSize) {
		return "", fmt.Errorf("variable-length slot too short: %d bytes", len(slot))
	}
	length := binary.LittleEndian.Uint32(slot[:4])
	id, err := heap.ParseGlobalHeapID(slot[4:], offsetSize)
	if err != nil {
		return "", err
	}
	if length == 0 || id.CollectionAddress == 0 {
		return "", nil
	}

	gh, ok := h.cache[id.CollectionAddress]
	if !ok {
		gh, err = heap.ReadGlobalHeap(h.r, id.CollectionAddress)
		if err != nil {
			return "", fmt.Errorf("reading global heap at 0x%x: %w", id.CollectionAddress, err)
		}
		h.cache[id.CollectionAddress] = gh
	}

	obj, err := gh.GetObject(uint16(id.ObjectIndex))
	if err != nil {
		return "", err
	}
	if int(length) < len(obj) {
		obj = obj[:length]
	}
	return string(obj), nil
}

// VarLenOffsets returns the byte offsets of every variable-length string
// slot within one element of dt. Nested compounds are flattened.
func VarLenOffsets(dt *message.Datatype) []int {
	var offsets []int
	collectVarLen(dt, 0, &offsets)
	return offsets
}

func collectVarLen(dt *message.Datatype, base int, offsets *[]int) {
	if dt == nil {
		return
	}
	switch dt.Class {
	case message.ClassVarLen:
		if dt.IsVarLenString {
			*offsets = append(*offsets, base)
		}
	case message.ClassCompound:
		for _, m := range dt.Members {
			collectVarLen(m.Type, base+int(m.ByteOffset), offsets)
		}
	}
}

// HasVarLen reports whether dt contains variable-length strings.
func HasVarLen(dt *message.Datatype) bool {
	return len(VarLenOffsets(dt)) > 0
}
