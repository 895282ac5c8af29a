package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/binary"
)

const (
	groupNode = 0
	chunkNode = 1
)

// node is the fixed part of a "TREE" node. The reader it carries is
// positioned at the first key.
type node struct {
	r       *binary.Reader
	level   uint8
	entries uint16
}

func readNode(r *binary.Reader, address uint64, kind uint8) (*node, error) {
	nr := r.At(int64(address))
	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("B-tree node at %#x: %w", address, err)
	}
	if string(sig) != "TREE" {
		return nil, fmt.Errorf("B-tree node at %#x: signature %q, want \"TREE\"", address, sig)
	}
	hdr, err := nr.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if hdr[0] != kind {
		return nil, fmt.Errorf("B-tree node at %#x: node type %d, want %d", address, hdr[0], kind)
	}
	// Sibling addresses are not needed for a full walk.
	nr.Skip(int64(2 * nr.OffsetSize()))
	return &node{
		r:       nr,
		level:   hdr[1],
		entries: uint16(hdr[2]) | uint16(hdr[3])<<8,
	}, nil
}
