package layout

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/btree"
	"github.com/robert-malhotra/go-kea/internal/filter"
	"github.com/robert-malhotra/go-kea/internal/message"
)

// Chunked data is split into equal chunks found through an index. Chunks
// the index does not list read as the fill value.
type Chunked struct {
	shape
	lay   *message.DataLayout
	chunk []uint64
	pipe  *filter.Pipeline
	r     *binary.Reader

	entries []btree.ChunkEntry
	indexed bool
}

func newChunked(lay *message.DataLayout, s shape, fp *message.FilterPipeline, r *binary.Reader) (*Chunked, error) {
	pipe, err := filter.NewPipeline(fp)
	if err != nil {
		return nil, err
	}
	if len(s.dims) == 0 {
		s.dims = []uint64{1}
	}
	// The stored chunk shape carries the element size as a last dimension.
	if len(lay.ChunkDims) < len(s.dims) {
		return nil, fmt.Errorf("chunk rank %d for a rank %d dataset", len(lay.ChunkDims), len(s.dims))
	}
	chunk := make([]uint64, len(s.dims))
	for d := range chunk {
		if chunk[d] = uint64(lay.ChunkDims[d]); chunk[d] == 0 {
			return nil, fmt.Errorf("chunk dimension %d is zero", d)
		}
	}
	return &Chunked{shape: s, lay: lay, chunk: chunk, pipe: pipe, r: r}, nil
}

func (c *Chunked) Class() message.LayoutClass { return message.LayoutChunked }

func (c *Chunked) Read() ([]byte, error) {
	return c.ReadSlice(make([]uint64, len(c.dims)), c.dims)
}

func (c *Chunked) chunkBytes() uint64 { return product(c.chunk) * c.elem }

// grid is the number of chunks along each dimension.
func (c *Chunked) grid() []uint64 {
	g := make([]uint64, len(c.dims))
	for d := range g {
		g[d] = (c.dims[d] + c.chunk[d] - 1) / c.chunk[d]
	}
	return g
}

// origin is the first element of chunk i in row-major chunk order.
func (c *Chunked) origin(i uint64, grid []uint64) []uint64 {
	o := make([]uint64, len(grid))
	for d := len(grid) - 1; d >= 0; d-- {
		o[d] = i % grid[d] * c.chunk[d]
		i /= grid[d]
	}
	return o
}

func (c *Chunked) missing(addr uint64) bool {
	return addr == 0 || c.r.IsUndefinedOffset(addr)
}

// index lists the stored chunks, reading the index on first use.
func (c *Chunked) index() ([]btree.ChunkEntry, error) {
	if c.indexed {
		return c.entries, nil
	}
	var err error
	if addr := c.lay.ChunkIndexAddr; !c.missing(addr) {
		switch c.lay.ChunkIndexType {
		case message.ChunkIndexBTreeV1:
			var idx *btree.ChunkIndex
			if idx, err = btree.ReadChunkIndex(c.r, addr, len(c.dims)); err == nil {
				c.entries = idx.Entries
			}
		case message.ChunkIndexSingleChunk:
			e := btree.ChunkEntry{Offset: make([]uint64, len(c.dims)), Size: uint32(c.chunkBytes()), Address: addr}
			if c.lay.SingleChunkFiltered() {
				e.Size, e.FilterMask = uint32(c.lay.FilteredChunkSize), c.lay.FilterMask
			}
			c.entries = []btree.ChunkEntry{e}
		case message.ChunkIndexImplicit:
			c.entries = c.implicit(addr)
		case message.ChunkIndexFixedArray:
			c.entries, err = c.readFixedArray(addr)
		default:
			err = errors.New("unsupported index")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s chunk index: %w", c.lay.ChunkIndexType, err)
	}
	c.indexed = true
	return c.entries, nil
}

// implicit lists chunks stored back to back from addr.
func (c *Chunked) implicit(addr uint64) []btree.ChunkEntry {
	grid := c.grid()
	size := c.chunkBytes()
	out := make([]btree.ChunkEntry, product(grid))
	for i := range out {
		out[i] = btree.ChunkEntry{Offset: c.origin(uint64(i), grid), Size: uint32(size), Address: addr + uint64(i)*size}
	}
	return out
}

// load reads one chunk and undoes its filters.
func (c *Chunked) load(e btree.ChunkEntry) ([]byte, error) {
	size := uint64(e.Size)
	if size == 0 {
		size = c.chunkBytes()
	}
	data, err := c.r.At(int64(e.Address)).ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("chunk %v: %w", e.Offset, err)
	}
	if !c.pipe.Empty() {
		if data, err = c.pipe.Decode(data, e.FilterMask); err != nil {
			return nil, fmt.Errorf("chunk %v: %w", e.Offset, err)
		}
	}
	if uint64(len(data)) < c.chunkBytes() {
		return nil, fmt.Errorf("chunk %v holds %d bytes, want %d", e.Offset, len(data), c.chunkBytes())
	}
	return data, nil
}

// ReadSlice reads only the chunks that intersect the selection.
func (c *Chunked) ReadSlice(start, count []uint64) ([]byte, error) {
	if err := ValidateSlice(c.dims, start, count); err != nil {
		return nil, err
	}
	out := FillBuffer(product(count), c.elem, c.fill)
	if len(out) == 0 {
		return out, nil
	}
	entries, err := c.index()
	if err != nil {
		return nil, err
	}

	rank := len(c.dims)
	lo, hi := make([]uint64, rank), make([]uint64, rank)
	dstAt, srcAt, n := make([]uint64, rank), make([]uint64, rank), make([]uint64, rank)
	for _, e := range entries {
		if c.missing(e.Address) || len(e.Offset) < rank || !c.overlap(e.Offset, start, count, lo, hi) {
			continue
		}
		data, err := c.load(e)
		if err != nil {
			return nil, err
		}
		for d := range rank {
			dstAt[d], srcAt[d], n[d] = lo[d]-start[d], lo[d]-e.Offset[d], hi[d]-lo[d]
		}
		CopyBlock(out, count, dstAt, data, c.chunk, srcAt, n, c.elem)
	}
	return out, nil
}

// overlap stores the intersection of the chunk at origin with the
// selection and the dataset extent in lo and hi, and reports whether it is
// non-empty.
func (c *Chunked) overlap(origin, start, count, lo, hi []uint64) bool {
	for d := range lo {
		lo[d] = max(origin[d], start[d])
		hi[d] = min(origin[d]+c.chunk[d], start[d]+count[d], c.dims[d])
		if lo[d] >= hi[d] {
			return false
		}
	}
	return true
}
