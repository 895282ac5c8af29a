package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// LayoutClass says where a dataset's raw data lives: in the object
// header, in one block or in indexed chunks.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

// ChunkIndexType is the chunk indexing method of a chunked layout.
// Layout messages before version 4 always use a version 1 B-tree.
type ChunkIndexType uint8

const (
	ChunkIndexBTreeV1         ChunkIndexType = 0
	ChunkIndexSingleChunk     ChunkIndexType = 1
	ChunkIndexImplicit        ChunkIndexType = 2
	ChunkIndexFixedArray      ChunkIndexType = 3
	ChunkIndexExtensibleArray ChunkIndexType = 4
	ChunkIndexBTreeV2         ChunkIndexType = 5
)

func (t ChunkIndexType) String() string {
	switch t {
	case ChunkIndexBTreeV1:
		return "btree-v1"
	case ChunkIndexSingleChunk:
		return "single"
	case ChunkIndexImplicit:
		return "implicit"
	case ChunkIndexFixedArray:
		return "fixed-array"
	case ChunkIndexExtensibleArray:
		return "extensible-array"
	case ChunkIndexBTreeV2:
		return "btree-v2"
	default:
		return fmt.Sprintf("index-%d", uint8(t))
	}
}

// Chunked layout flags (version 4).
const (
	chunkFlagDontFilterPartial = 0x01
	chunkFlagSingleWithFilter  = 0x02
)

// DataLayout is a data layout message (type 0x0008).
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	CompactData []byte

	// Contiguous storage. Size is zero for versions 1 and 2, which leave
	// it to be computed from the dataspace and datatype.
	Address uint64
	Size    uint64

	// Chunked layout. ChunkDims carries one extra trailing entry holding
	// the element size in bytes.
	ChunkDims      []uint32
	ChunkIndexAddr uint64
	ChunkIndexType ChunkIndexType

	ChunkFlags         uint8
	DimensionSizeBytes uint8
	PageBits           uint8 // log2 of the fixed array page size

	// Stored size and mask of a filtered single chunk.
	FilteredChunkSize uint64
	FilterMask        uint32
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

func (m *DataLayout) IsCompact() bool    { return m.Class == LayoutCompact }
func (m *DataLayout) IsContiguous() bool { return m.Class == LayoutContiguous }
func (m *DataLayout) IsChunked() bool    { return m.Class == LayoutChunked }

// SingleChunkFiltered reports whether a single chunk index records the
// filtered size and mask of its chunk.
func (m *DataLayout) SingleChunkFiltered() bool {
	return m.ChunkFlags&chunkFlagSingleWithFilter != 0
}

// parseDataLayout reads versions 1 to 4. Chunked layouts before version 4
// always index their chunks with a version 1 B-tree.
func parseDataLayout(data []byte, r *binpkg.Reader) (*DataLayout, error) {
	d := newDecoder("data layout", data, r)
	l := &DataLayout{Version: d.u8()}
	switch l.Version {
	case 1, 2:
		parseLayoutV1(d, l)
	case 3, 4:
		parseLayoutV3(d, l)
	default:
		if d.err == nil {
			d.failf("unsupported version %d", l.Version)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return l, nil
}

// parseLayoutV1 reads the shared layout of versions 1 and 2: rank, class,
// five reserved bytes, an address for non-compact classes, then 4-byte
// dimensions.
func parseLayoutV1(d *decoder, l *DataLayout) {
	rank := int(d.u8())
	l.Class = LayoutClass(d.u8())
	d.skip(5)
	var addr uint64
	if l.Class != LayoutCompact {
		addr = d.offset()
	}
	dims := make([]uint32, rank)
	for i := range dims {
		dims[i] = d.u32()
	}
	switch l.Class {
	case LayoutContiguous:
		l.Address = addr
	case LayoutChunked:
		l.ChunkIndexAddr = addr
		l.ChunkIndexType = ChunkIndexBTreeV1
		l.ChunkDims = dims
	case LayoutCompact:
		l.CompactData = d.copyOf(int(d.u32()))
	}
}

func parseLayoutV3(d *decoder, l *DataLayout) {
	l.Class = LayoutClass(d.u8())
	switch l.Class {
	case LayoutCompact:
		l.CompactData = d.copyOf(int(d.u16()))
	case LayoutContiguous:
		l.Address = d.offset()
		l.Size = d.length()
	case LayoutChunked:
		if l.Version == 3 {
			l.ChunkIndexType = ChunkIndexBTreeV1
			rank := int(d.u8())
			l.ChunkIndexAddr = d.offset()
			l.ChunkDims = make([]uint32, rank)
			for i := range l.ChunkDims {
				l.ChunkDims[i] = d.u32()
			}
			return
		}
		parseChunkedV4(d, l)
	case LayoutVirtual:
		d.failf("virtual datasets are not supported")
	default:
		d.failf("unknown layout class %d", l.Class)
	}
}

// parseChunkedV4 reads flags, rank, the dimension width, the dimensions,
// the index type with its parameters and the index address.
func parseChunkedV4(d *decoder, l *DataLayout) {
	l.ChunkFlags = d.u8()
	rank := int(d.u8())
	l.DimensionSizeBytes = d.u8()
	l.ChunkDims = make([]uint32, rank)
	for i := range l.ChunkDims {
		l.ChunkDims[i] = uint32(d.uint(int(l.DimensionSizeBytes)))
	}
	l.ChunkIndexType = ChunkIndexType(d.u8())
	switch l.ChunkIndexType {
	case ChunkIndexSingleChunk:
		if l.SingleChunkFiltered() {
			l.FilteredChunkSize = d.length()
			l.FilterMask = d.u32()
		}
	case ChunkIndexImplicit:
	case ChunkIndexFixedArray:
		l.PageBits = d.u8()
	case ChunkIndexExtensibleArray:
		d.skip(5)
	case ChunkIndexBTreeV2:
		d.skip(6)
	default:
		d.failf("unknown chunk index type %d", l.ChunkIndexType)
	}
	l.ChunkIndexAddr = d.offset()
}
