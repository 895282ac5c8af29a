package message

import (
	"cmp"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// DefaultPageBits is the library's fixed array page size exponent.
const DefaultPageBits = 10

// Serialize writes chunked layouts as version 4 and the others as
// version 3.
func (m *DataLayout) Serialize(w *binpkg.Writer) error {
	e := &encoder{w: w}
	version := uint8(3)
	if m.Class == LayoutChunked {
		version = 4
	}
	e.u8(version)
	e.u8(uint8(m.Class))

	switch m.Class {
	case LayoutCompact:
		e.u16(uint16(len(m.CompactData)))
		e.bytes(m.CompactData)
	case LayoutContiguous:
		e.offset(m.Address)
		e.length(m.Size)
	case LayoutChunked:
		width := m.DimensionSizeBytes
		if width == 0 {
			width = 4
		}
		e.u8(m.ChunkFlags)
		e.u8(uint8(len(m.ChunkDims)))
		e.u8(width)
		for _, d := range m.ChunkDims {
			e.uint(uint64(d), int(width))
		}
		e.u8(uint8(m.ChunkIndexType))
		switch m.ChunkIndexType {
		case ChunkIndexSingleChunk:
			if m.SingleChunkFiltered() {
				e.length(m.FilteredChunkSize)
				e.u32(m.FilterMask)
			}
		case ChunkIndexFixedArray:
			e.u8(cmp.Or(m.PageBits, DefaultPageBits))
		}
		e.offset(m.ChunkIndexAddr)
	}
	return e.err
}

func (m *DataLayout) SerializedSize(w *binpkg.Writer) int { return measure(m, w) }

func NewContiguousLayout(address, size uint64) *DataLayout {
	return &DataLayout{Version: 3, Class: LayoutContiguous, Address: address, Size: size}
}

// NewChunkedLayout returns a version 4 chunked layout. elementSize is
// appended to chunkDims as the trailing dimension and the dimension width
// is the narrowest that holds every entry.
func NewChunkedLayout(chunkDims []uint32, elementSize uint32, indexType ChunkIndexType) *DataLayout {
	dims := append(append([]uint32(nil), chunkDims...), elementSize)
	var widest uint32
	for _, d := range dims {
		widest = max(widest, d)
	}
	return &DataLayout{
		Version:            4,
		Class:              LayoutChunked,
		ChunkDims:          dims,
		ChunkIndexType:     indexType,
		DimensionSizeBytes: uint8(sizeBytes(uint64(widest))),
	}
}

// SetSingleChunkFilter records the stored size and filter mask of the
// only chunk of a filtered single chunk dataset.
func (m *DataLayout) SetSingleChunkFilter(size uint64, mask uint32) {
	m.ChunkFlags |= chunkFlagSingleWithFilter
	m.FilteredChunkSize = size
	m.FilterMask = mask
}
