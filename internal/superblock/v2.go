package superblock

import (
	"io"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// readV2 decodes version 2 and 3 superblocks: offset size, length size,
// consistency flags, then base, extension, EOF and root header addresses
// and a lookup3 checksum of everything before it.
func readV2(r io.ReaderAt, offset int64, version uint8) (*Superblock, error) {
	fixed := make([]byte, 3)
	if _, err := r.ReadAt(fixed, offset+9); err != nil {
		return nil, err
	}
	sb := &Superblock{
		Version:              version,
		OffsetSize:           fixed[0],
		LengthSize:           fixed[1],
		FileConsistencyFlags: fixed[2],
	}
	if sb.OffsetSize == 0 || sb.LengthSize == 0 {
		return nil, ErrInvalidSuperblock
	}

	br := sized(r, offset+12, sb.OffsetSize, sb.LengthSize)
	if err := offsets(br, &sb.BaseAddress, &sb.SuperblockExtensionAddress, &sb.EOFAddress, &sb.RootGroupAddress); err != nil {
		return nil, err
	}
	end := br.Pos()
	stored, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	body, err := br.At(offset).ReadBytes(int(end - offset))
	if err != nil {
		return nil, err
	}
	if binpkg.Lookup3Checksum(body) != stored {
		return nil, ErrInvalidSuperblock
	}
	return sb, nil
}
