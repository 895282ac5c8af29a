package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/binary"
)

// ChunkEntry locates one stored chunk.
type ChunkEntry struct {
	// Offset is the element coordinate of the chunk's first element.
	Offset []uint64
	// FilterMask has bit i set when filter i was skipped for this chunk.
	FilterMask uint32
	// Size is the stored size in bytes, after filtering.
	Size    uint32
	Address uint64
}

// ChunkIndex lists the chunks of a dataset with ndims dimensions.
type ChunkIndex struct {
	NDims   int
	Entries []ChunkEntry
}

// ReadChunkIndex collects every allocated chunk below the B-tree root at
// btreeAddr. ndims excludes the extra element-size dimension of the keys.
func ReadChunkIndex(r *binary.Reader, btreeAddr uint64, ndims int) (*ChunkIndex, error) {
	idx := &ChunkIndex{NDims: ndims}
	if err := idx.walk(r, btreeAddr); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *ChunkIndex) walk(r *binary.Reader, address uint64) error {
	n, err := readNode(r, address, chunkNode)
	if err != nil {
		return err
	}
	// Keys bracket children, so there is one more key than child pointers.
	for i := 0; i < int(n.entries); i++ {
		key, err := readChunkKey(n.r, idx.NDims)
		if err != nil {
			return fmt.Errorf("chunk key %d at %#x: %w", i, address, err)
		}
		child, err := n.r.ReadOffset()
		if err != nil {
			return err
		}
		if n.level > 0 {
			if err := idx.walk(r, child); err != nil {
				return err
			}
			continue
		}
		if n.r.IsUndefinedOffset(child) || key.Size == 0 {
			continue
		}
		key.Address = child
		idx.Entries = append(idx.Entries, key)
	}
	return nil
}

func readChunkKey(r *binary.Reader, ndims int) (ChunkEntry, error) {
	var e ChunkEntry
	var err error
	if e.Size, err = r.ReadUint32(); err != nil {
		return e, err
	}
	if e.FilterMask, err = r.ReadUint32(); err != nil {
		return e, err
	}
	e.Offset = make([]uint64, ndims)
	for j := range e.Offset {
		if e.Offset[j], err = r.ReadUint64(); err != nil {
			return e, err
		}
	}
	_, err = r.ReadUint64()
	return e, err
}
