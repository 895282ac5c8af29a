package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// Signature opens every superblock.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// searchOffsets are the places a superblock may start, after a user block.
var searchOffsets = []int64{0, 512, 1024, 2048}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock structure")
)

// Superblock holds the decoded fields of any superblock version.
type Superblock struct {
	Version              uint8
	OffsetSize           uint8
	LengthSize           uint8
	FileConsistencyFlags uint8

	BaseAddress                uint64
	SuperblockExtensionAddress uint64
	EOFAddress                 uint64
	RootGroupAddress           uint64

	// Version 0 and 1 only.
	GroupLeafNodeK              uint16
	GroupInternalNodeK          uint16
	IndexedStorageK             uint16
	FreeSpaceManagerVersion     uint8
	RootGroupSymbolTableAddress uint64
	// Set when the root symbol table entry caches its B-tree and heap.
	RootGroupBTreeAddress     uint64
	RootGroupLocalHeapAddress uint64

	ByteOrder binary.ByteOrder
	// FileOffset is where the signature was found.
	FileOffset int64
}

// Read finds the signature at one of the standard offsets and decodes the
// superblock that follows it.
func Read(r io.ReaderAt) (*Superblock, error) {
	head := make([]byte, 9)
	for _, offset := range searchOffsets {
		if _, err := r.ReadAt(head, offset); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if !bytes.Equal(head[:8], Signature) {
			continue
		}

		var sb *Superblock
		var err error
		switch v := head[8]; v {
		case 0, 1:
			sb, err = readV0(r, offset, v)
		case 2, 3:
			sb, err = readV2(r, offset, v)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
		}
		if err != nil {
			return nil, err
		}
		sb.FileOffset = offset
		sb.ByteOrder = binary.LittleEndian
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// ReaderConfig is the field layout for reading the rest of the file.
func (sb *Superblock) ReaderConfig() binpkg.Config {
	return binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

// sized returns a reader at offset using the superblock's field widths.
func sized(r io.ReaderAt, offset int64, offsetSize, lengthSize uint8) *binpkg.Reader {
	cfg := binpkg.Config{ByteOrder: binary.LittleEndian, OffsetSize: int(offsetSize), LengthSize: int(lengthSize)}
	return binpkg.NewReader(r, cfg).At(offset)
}

// offsets reads consecutive addresses into dst.
func offsets(r *binpkg.Reader, dst ...*uint64) error {
	for _, d := range dst {
		v, err := r.ReadOffset()
		if err != nil {
			return err
		}
		if d != nil {
			*d = v
		}
	}
	return nil
}
