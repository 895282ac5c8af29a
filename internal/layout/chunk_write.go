package layout

import (
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/btree"
	"github.com/robert-malhotra/go-kea/internal/filter"
	"github.com/robert-malhotra/go-kea/internal/message"
)

// ChunkWriter splits a row-major dataset buffer into chunks, runs each
// chunk through the filter pipeline and writes the chunks with their index.
type ChunkWriter struct {
	w           *binary.Writer
	dims        []uint64
	chunkDims   []uint32
	elementSize uint32
	pipeline    *filter.Pipeline
	fill        []byte
	allocator   func(size int64) uint64
}

// NewChunkWriter creates a new chunk writer. pipeline may be nil and fill
// may be nil for zero padding of edge chunks.
func NewChunkWriter(
	w *binary.Writer,
	dims []uint64,
	chunkDims []uint32,
	elementSize uint32,
	pipeline *filter.Pipeline,
	fill []byte,
	allocator func(size int64) uint64,
) (*ChunkWriter, error) {
	if len(chunkDims) != len(dims) {
		return nil, fmt.Errorf("chunk rank %d does not match dataset rank %d", len(chunkDims), len(dims))
	}
	for d, cd := range chunkDims {
		if cd == 0 {
			return nil, fmt.Errorf("chunk dimension %d is zero", d)
		}
	}
	return &ChunkWriter{
		w:           w,
		dims:        dims,
		chunkDims:   chunkDims,
		elementSize: elementSize,
		pipeline:    pipeline,
		fill:        fill,
		allocator:   allocator,
	}, nil
}

// ChunkSize returns the size in bytes of one chunk.
func (cw *ChunkWriter) ChunkSize() uint64 {
	size := uint64(cw.elementSize)
	for _, dim := range cw.chunkDims {
		size *= uint64(dim)
	}
	return size
}

// singleChunk reports whether one chunk covers the dataset exactly.
func (cw *ChunkWriter) singleChunk() bool {
	for d := range cw.dims {
		if uint64(cw.chunkDims[d]) != cw.dims[d] {
			return false
		}
	}
	return true
}

// Write stores data and returns the layout message describing it.
func (cw *ChunkWriter) Write(data []byte) (*message.DataLayout, error) {
	chunks := SplitIntoChunks(data, cw.dims, cw.chunkDims, cw.elementSize, cw.fill)
	filtered := !cw.pipeline.Empty()

	entries := make([]btree.ChunkEntry, len(chunks))
	for i, chunk := range chunks {
		stored := chunk
		if filtered {
			var err error
			stored, err = cw.pipeline.Encode(chunk)
			if err != nil {
				return nil, fmt.Errorf("encoding chunk %d: %w", i, err)
			}
		}
		addr := cw.allocator(int64(len(stored)))
		if err := cw.w.At(int64(addr)).WriteBytes(stored); err != nil {
			return nil, fmt.Errorf("writing chunk %d: %w", i, err)
		}
		entries[i] = btree.ChunkEntry{Size: uint32(len(stored)), Address: addr}
	}

	if cw.singleChunk() && len(entries) == 1 {
		l := message.NewChunkedLayout(cw.chunkDims, cw.elementSize, message.ChunkIndexSingleChunk)
		l.ChunkIndexAddr = entries[0].Address
		if filtered {
			l.SetSingleChunkFilter(uint64(entries[0].Size), entries[0].FilterMask)
		}
		return l, nil
	}

	indexAddr, pageBits, err := WriteFixedArray(cw.w, cw.allocator, entries, filtered, cw.ChunkSize())
	if err != nil {
		return nil, err
	}
	l := message.NewChunkedLayout(cw.chunkDims, cw.elementSize, message.ChunkIndexFixedArray)
	l.ChunkIndexAddr = indexAddr
	l.PageBits = pageBits
	return l, nil
}

// Unallocated returns a layout for a dataset whose chunks were never
// written. Readers return the fill value for every element.
func (cw *ChunkWriter) Unallocated() *message.DataLayout {
	indexType := message.ChunkIndexFixedArray
	if cw.singleChunk() {
		indexType = message.ChunkIndexSingleChunk
	}
	l := message.NewChunkedLayout(cw.chunkDims, cw.elementSize, indexType)
	l.ChunkIndexAddr = cw.w.UndefinedOffset()
	if indexType == message.ChunkIndexFixedArray {
		l.PageBits = FixedArrayPageBits(cw.numChunks())
	} else if !cw.pipeline.Empty() {
		l.SetSingleChunkFilter(0, 0)
	}
	return l
}

func (cw *ChunkWriter) numChunks() int {
	n := 1
	for d := range cw.dims {
		cd := uint64(cw.chunkDims[d])
		n *= int((cw.dims[d] + cd - 1) / cd)
	}
	return n
}

// SplitIntoChunks cuts row-major data into whole chunks in row-major chunk
// order. Parts of edge chunks past the dataset extent are set to fill.
func SplitIntoChunks(data []byte, dataDims []uint64, chunkDims []uint32, elementSize uint32, fill []byte) [][]byte {
	rank := len(dataDims)
	elem := uint64(elementSize)
	shape := make([]uint64, rank)
	grid := make([]uint64, rank)
	for d := range shape {
		shape[d] = uint64(chunkDims[d])
		grid[d] = (dataDims[d] + shape[d] - 1) / shape[d]
	}

	chunks := make([][]byte, product(grid))
	at, n := make([]uint64, rank), make([]uint64, rank)
	for i := range chunks {
		rem := uint64(i)
		for d := rank - 1; d >= 0; d-- {
			at[d] = rem % grid[d] * shape[d]
			rem /= grid[d]
			n[d] = min(shape[d], dataDims[d]-at[d])
		}
		chunks[i] = FillBuffer(product(shape), elem, fill)
		CopyBlock(chunks[i], shape, make([]uint64, rank), data, dataDims, at, n, elem)
	}
	return chunks
}
