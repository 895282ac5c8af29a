package message

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

func NewFilterPipeline(filters ...FilterInfo) *FilterPipeline {
	return &FilterPipeline{Version: 2, Filters: filters}
}

// Serialize writes a version 2 pipeline.
func (m *FilterPipeline) Serialize(w *binpkg.Writer) error {
	e := &encoder{w: w}
	e.u8(2)
	e.u8(uint8(len(m.Filters)))
	for _, f := range m.Filters {
		named := f.ID >= 256 && f.Name != ""
		e.u16(f.ID)
		if f.ID >= 256 {
			n := 0
			if named {
				n = len(f.Name) + 1
			}
			e.u16(uint16(n))
		}
		e.u16(f.Flags)
		e.u16(uint16(len(f.ClientData)))
		if named {
			e.cstring(f.Name)
		}
		for _, v := range f.ClientData {
			e.u32(v)
		}
	}
	return e.err
}

func (m *FilterPipeline) SerializedSize(w *binpkg.Writer) int { return measure(m, w) }
