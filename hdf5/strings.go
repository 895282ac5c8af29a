package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/dtype"
)

// stringTable holds the variable-length strings of a loaded dataset. Slots
// in the dataset buffer carry a 1-based table index in place of a heap
// address until the dataset is written to a file.
type stringTable struct {
	values []string
}

func (t *stringTable) PutString(s string, slot []byte) error {
	if s == "" {
		dtype.PutSlot(slot, 0, 0, 0)
		return nil
	}
	t.values = append(t.values, s)
	dtype.PutSlot(slot, uint32(len(s)), uint64(len(t.values)), 0)
	return nil
}

func (t *stringTable) String(slot []byte) (string, error) {
	length, id, _ := dtype.SlotRef(slot)
	if length == 0 || id == 0 {
		return "", nil
	}
	if id > uint64(len(t.values)) {
		return "", fmt.Errorf("string table index %d out of range", id)
	}
	return t.values[id-1], nil
}

// rebindStrings resolves every variable-length slot in raw through src and stores
// the strings in a fresh table, rewriting the slots to point into it.
func rebindStrings(raw []byte, dt *Datatype, src dtype.Strings) (*stringTable, error) {
	t := &stringTable{}
	offsets := dtype.VarLenOffsets(dt.m)
	size := dt.Size()
	slotSize := dtype.SlotSize(8)
	for base := 0; base+size <= len(raw); base += size {
		for _, off := range offsets {
			slot := raw[base+off : base+off+slotSize]
			length, _, _ := dtype.SlotRef(slot)
			s := ""
			if length != 0 {
				var err error
				if s, err = src.String(slot); err != nil {
					return nil, err
				}
			}
			if err := t.PutString(s, slot); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}
