package superblock

import (
	"encoding/binary"
	"io"
)

// readV0 decodes version 0 and 1 superblocks. After the signature:
//
//	version, free-space version, root entry version, reserved,
//	shared header version, offset size, length size, reserved,
//	group leaf K (2), group internal K (2), consistency flags (4),
//	[v1: indexed storage K (2), reserved (2)],
//	base, free-space info, EOF and driver info addresses,
//	root group symbol table entry.
func readV0(r io.ReaderAt, offset int64, version uint8) (*Superblock, error) {
	fixed := make([]byte, 16)
	if _, err := r.ReadAt(fixed, offset+8); err != nil {
		return nil, err
	}
	le := binary.LittleEndian
	sb := &Superblock{
		Version:                 version,
		FreeSpaceManagerVersion: fixed[1],
		OffsetSize:              fixed[5],
		LengthSize:              fixed[6],
		GroupLeafNodeK:          le.Uint16(fixed[8:]),
		GroupInternalNodeK:      le.Uint16(fixed[10:]),
	}
	if sb.OffsetSize == 0 || sb.LengthSize == 0 {
		return nil, ErrInvalidSuperblock
	}

	br := sized(r, offset+24, sb.OffsetSize, sb.LengthSize)
	if version == 1 {
		k, err := br.ReadUint16()
		if err != nil {
			return nil, err
		}
		sb.IndexedStorageK = k
		br.Skip(2)
	}
	if err := offsets(br, &sb.BaseAddress, nil, &sb.EOFAddress, nil); err != nil {
		return nil, err
	}

	// Root symbol table entry: name offset, header address, cache type,
	// reserved, then a 16 byte scratch pad.
	if err := offsets(br, nil, &sb.RootGroupAddress); err != nil {
		return nil, err
	}
	sb.RootGroupSymbolTableAddress = sb.RootGroupAddress
	cache, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	br.Skip(4)
	if cache == 1 {
		if err := offsets(br, &sb.RootGroupBTreeAddress, &sb.RootGroupLocalHeapAddress); err != nil {
			return nil, err
		}
	}
	return sb, nil
}
