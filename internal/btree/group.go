package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/heap"
)

// GroupEntry is one member of a v1 group. SoftLink holds the target path
// of a soft link and is empty for hard links.
type GroupEntry struct {
	Name          string
	ObjectAddress uint64
	SoftLink      string
}

const cacheSoftLink = 2

// ReadGroupEntries lists the members of the group indexed by the B-tree
// at btreeAddr, resolving names through the group's local heap.
func ReadGroupEntries(r *binary.Reader, btreeAddr uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	var out []GroupEntry
	err := walkGroup(r, btreeAddr, func(snod uint64) error {
		entries, err := readSymbolNode(r, snod, names)
		out = append(out, entries...)
		return err
	})
	return out, err
}

func walkGroup(r *binary.Reader, address uint64, leaf func(uint64) error) error {
	n, err := readNode(r, address, groupNode)
	if err != nil {
		return err
	}
	for i := 0; i < int(n.entries); i++ {
		// Group keys are heap offsets of the largest name in the child.
		if _, err := n.r.ReadLength(); err != nil {
			return err
		}
		child, err := n.r.ReadOffset()
		if err != nil {
			return err
		}
		if n.level > 0 {
			err = walkGroup(r, child, leaf)
		} else {
			err = leaf(child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func readSymbolNode(r *binary.Reader, address uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	sr := r.At(int64(address))
	hdr, err := sr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("symbol table node at %#x: %w", address, err)
	}
	if string(hdr[:4]) != "SNOD" {
		return nil, fmt.Errorf("symbol table node at %#x: signature %q, want \"SNOD\"", address, hdr[:4])
	}
	if hdr[4] != 1 {
		return nil, fmt.Errorf("symbol table node at %#x: unsupported version %d", address, hdr[4])
	}
	count := int(hdr[6]) | int(hdr[7])<<8

	var out []GroupEntry
	for i := 0; i < count; i++ {
		e, err := readSymbol(sr, names)
		if err != nil {
			return nil, fmt.Errorf("symbol %d at %#x: %w", i, address, err)
		}
		if e.Name != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// readSymbol reads one symbol table entry: name offset, header address,
// cache type, four reserved bytes and a 16 byte scratch pad.
func readSymbol(r *binary.Reader, names *heap.LocalHeap) (GroupEntry, error) {
	var e GroupEntry
	nameOff, err := r.ReadOffset()
	if err != nil {
		return e, err
	}
	if e.ObjectAddress, err = r.ReadOffset(); err != nil {
		return e, err
	}
	cache, err := r.ReadUint32()
	if err != nil {
		return e, err
	}
	r.Skip(4)
	pad, err := r.ReadBytes(16)
	if err != nil {
		return e, err
	}
	e.Name = names.GetString(nameOff)
	if cache == cacheSoftLink {
		off := uint64(pad[0]) | uint64(pad[1])<<8 | uint64(pad[2])<<16 | uint64(pad[3])<<24
		e.SoftLink = names.GetString(off)
		e.ObjectAddress = 0
	}
	return e, nil
}
