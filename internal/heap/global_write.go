package heap

import (
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/binary"
)

// Collection limits used by GlobalHeapWriter.
const (
	// MinCollectionSize is the smallest collection the HDF5 library allocates.
	MinCollectionSize = 4096
	// MaxCollectionObjects bounds the objects per collection; indices are 16-bit.
	MaxCollectionObjects = 0xFFFF
)

// GlobalHeapWriter accumulates objects for one global heap collection.
type GlobalHeapWriter struct {
	w         *binary.Writer
	allocator func(size int64) uint64
	objects   [][]byte
}

// NewGlobalHeapWriter creates a new global heap writer.
func NewGlobalHeapWriter(w *binary.Writer, allocator func(size int64) uint64) *GlobalHeapWriter {
	return &GlobalHeapWriter{
		w:         w,
		allocator: allocator,
	}
}

// AddObject adds an object to the heap and returns its index.
// Objects are 1-indexed (0 is reserved for free space).
func (ghw *GlobalHeapWriter) AddObject(data []byte) uint16 {
	ghw.objects = append(ghw.objects, data)
	return uint16(len(ghw.objects))
}

// AddString adds the bytes of s as one object. Variable-length strings
// carry their length in the referencing slot, so no terminator is stored.
func (ghw *GlobalHeapWriter) AddString(s string) uint16 {
	return ghw.AddObject([]byte(s))
}

// Len returns the number of objects added so far.
func (ghw *GlobalHeapWriter) Len() int {
	return len(ghw.objects)
}

// Full reports whether the collection cannot take another object.
func (ghw *GlobalHeapWriter) Full() bool {
	return len(ghw.objects) >= MaxCollectionObjects
}

func (ghw *GlobalHeapWriter) objectHeaderSize() int {
	// index(2) + refcount(2) + reserved(4) + size(lengthSize)
	return 2 + 2 + 4 + ghw.w.LengthSize()
}

// Write writes all objects to a new global heap collection.
// Returns the address of the heap and a map of object index to GlobalHeapID.
func (ghw *GlobalHeapWriter) Write() (uint64, map[uint16]GlobalHeapID, error) {
	if len(ghw.objects) == 0 {
		return 0, nil, nil
	}
	if len(ghw.objects) > MaxCollectionObjects {
		return 0, nil, fmt.Errorf("global heap collection holds at most %d objects, have %d", MaxCollectionObjects, len(ghw.objects))
	}

	// signature(4) + version(1) + reserved(3) + collectionSize(lengthSize)
	headerSize := 4 + 1 + 3 + ghw.w.LengthSize()
	objHeaderSize := ghw.objectHeaderSize()

	used := headerSize
	for _, obj := range ghw.objects {
		used += objHeaderSize + align8(len(obj))
	}

	// The trailing free-space object needs a full header; anything smaller
	// is treated as free space by readers without one.
	collectionSize := used + objHeaderSize
	if collectionSize < MinCollectionSize {
		collectionSize = MinCollectionSize
	}
	collectionSize = align8(collectionSize)
	freeSize := collectionSize - used

	heapAddr := ghw.allocator(int64(collectionSize))
	buf := binary.NewBuffer(collectionSize)
	w := binary.NewWriter(buf, binary.Config{
		ByteOrder:  ghw.w.ByteOrder(),
		OffsetSize: ghw.w.OffsetSize(),
		LengthSize: ghw.w.LengthSize(),
	})

	if err := w.WriteBytes([]byte("GCOL")); err != nil {
		return 0, nil, err
	}
	if err := w.WriteUint8(1); err != nil {
		return 0, nil, err
	}
	if err := w.WriteZeros(3); err != nil {
		return 0, nil, err
	}
	if err := w.WriteLength(uint64(collectionSize)); err != nil {
		return 0, nil, err
	}

	heapIDs := make(map[uint16]GlobalHeapID, len(ghw.objects))
	for i, obj := range ghw.objects {
		index := uint16(i + 1)
		if err := writeObjectHeader(w, index, 1, uint64(len(obj))); err != nil {
			return 0, nil, err
		}
		if err := w.WriteBytes(obj); err != nil {
			return 0, nil, err
		}
		if pad := align8(len(obj)) - len(obj); pad > 0 {
			if err := w.WriteZeros(pad); err != nil {
				return 0, nil, err
			}
		}
		heapIDs[index] = GlobalHeapID{
			CollectionAddress: heapAddr,
			ObjectIndex:       uint32(index),
		}
	}

	// Free space object: index 0, size covers its own header.
	if err := writeObjectHeader(w, 0, 0, uint64(freeSize)); err != nil {
		return 0, nil, err
	}
	if err := w.WriteZeros(collectionSize - int(w.Pos())); err != nil {
		return 0, nil, err
	}

	if err := ghw.w.At(int64(heapAddr)).WriteBytes(buf.Bytes()); err != nil {
		return 0, nil, err
	}
	return heapAddr, heapIDs, nil
}

func writeObjectHeader(w *binary.Writer, index, refCount uint16, size uint64) error {
	if err := w.WriteUint16(index); err != nil {
		return err
	}
	if err := w.WriteUint16(refCount); err != nil {
		return err
	}
	if err := w.WriteZeros(4); err != nil {
		return err
	}
	return w.WriteLength(size)
}

func align8(n int) int {
	return (n + 7) &^ 7
}

// GlobalHeapIDSize returns the size of a global heap ID.
func GlobalHeapIDSize(offsetSize int) int {
	return offsetSize + 4
}
