package message

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// SymbolTable is a symbol table message (type 0x0011): the B-tree and
// local heap of a v1 group.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(data []byte, r *binpkg.Reader) (*SymbolTable, error) {
	d := newDecoder("symbol table", data, r)
	st := &SymbolTable{BTreeAddress: d.offset(), LocalHeapAddress: d.offset()}
	if d.err != nil {
		return nil, d.err
	}
	return st, nil
}
