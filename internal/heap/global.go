package heap

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// GlobalHeap is one global heap collection, the store of vlen data.
type GlobalHeap struct {
	CollectionSize uint64
	objects        map[uint16][]byte
}

// GlobalHeapID addresses one object of a collection.
type GlobalHeapID struct {
	CollectionAddress uint64
	ObjectIndex       uint32
}

// ReadGlobalHeap reads every object of the collection at address.
func ReadGlobalHeap(r *binpkg.Reader, address uint64) (*GlobalHeap, error) {
	if address == 0 || r.IsUndefinedOffset(address) {
		return nil, fmt.Errorf("invalid global heap address %#x", address)
	}
	hr, err := prefix(r, address, "GCOL", 1)
	if err != nil {
		return nil, err
	}
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}
	h := &GlobalHeap{CollectionSize: size, objects: make(map[uint16][]byte)}

	// Objects follow until index 0, the free space object, or the end of
	// the collection. A short read ends the scan with what was found.
	end := int64(address + size)
	objHeader := int64(8 + r.LengthSize())
	for hr.Pos()+objHeader <= end {
		index, err := hr.ReadUint16()
		if err != nil || index == 0 {
			break
		}
		hr.Skip(6) // reference count, reserved
		n, err := hr.ReadLength()
		if err != nil || hr.Pos()+int64(n) > end {
			break
		}
		data, err := hr.ReadBytes(int(n))
		if err != nil {
			break
		}
		if data == nil {
			data = []byte{}
		}
		h.objects[index] = data
		hr.Skip(int64(align8(int(n)) - int(n)))
	}
	return h, nil
}

// GetObject returns a copy of the object with the given index.
func (h *GlobalHeap) GetObject(index uint16) ([]byte, error) {
	if h == nil {
		return nil, fmt.Errorf("nil global heap")
	}
	data, ok := h.objects[index]
	if !ok {
		return nil, fmt.Errorf("global heap object %d not found", index)
	}
	return append([]byte{}, data...), nil
}

// ParseGlobalHeapID decodes a collection address of offsetSize bytes
// followed by a 4 byte object index.
func ParseGlobalHeapID(data []byte, offsetSize int) (GlobalHeapID, error) {
	if len(data) < offsetSize+4 {
		return GlobalHeapID{}, fmt.Errorf("global heap ID needs %d bytes, have %d", offsetSize+4, len(data))
	}
	le := binary.LittleEndian
	var id GlobalHeapID
	switch offsetSize {
	case 2:
		id.CollectionAddress = uint64(le.Uint16(data))
	case 4:
		id.CollectionAddress = uint64(le.Uint32(data))
	case 8:
		id.CollectionAddress = le.Uint64(data)
	default:
		return GlobalHeapID{}, fmt.Errorf("unsupported offset size %d", offsetSize)
	}
	id.ObjectIndex = le.Uint32(data[offsetSize:])
	return id, nil
}
