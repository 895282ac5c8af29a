package superblock

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// NewSuperblock returns a version 3 superblock with 8 byte fields.
func NewSuperblock() *Superblock {
	return &Superblock{Version: 3, OffsetSize: 8, LengthSize: 8}
}

// Write encodes sb as a version 2 or 3 superblock at the writer's
// position and returns the bytes written. Versions below 2 are written
// as 2, and a zero extension address as undefined.
func (sb *Superblock) Write(w *binpkg.Writer) (int64, error) {
	buf := binpkg.NewBuffer(sb.Size())
	bw := binpkg.NewWriter(buf, binpkg.Config{
		ByteOrder:  w.ByteOrder(),
		OffsetSize: w.OffsetSize(),
		LengthSize: w.LengthSize(),
	})

	version := max(sb.Version, 2)
	ext := sb.SuperblockExtensionAddress
	if ext == 0 {
		ext = bw.UndefinedOffset()
	}
	for _, err := range []error{
		bw.WriteBytes(Signature),
		bw.WriteUint8(version),
		bw.WriteUint8(sb.OffsetSize),
		bw.WriteUint8(sb.LengthSize),
		bw.WriteUint8(sb.FileConsistencyFlags),
		bw.WriteOffset(sb.BaseAddress),
		bw.WriteOffset(ext),
		bw.WriteOffset(sb.EOFAddress),
		bw.WriteOffset(sb.RootGroupAddress),
	} {
		if err != nil {
			return 0, err
		}
	}
	if err := bw.WriteUint32(binpkg.Lookup3Checksum(buf.Bytes())); err != nil {
		return 0, err
	}
	if err := w.WriteBytes(buf.Bytes()); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}

// Size is the encoded size of a version 2 or 3 superblock.
func (sb *Superblock) Size() int {
	o := int(sb.OffsetSize)
	if o == 0 {
		o = 8
	}
	return 12 + 4*o + 4
}
