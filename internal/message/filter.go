package message

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// Filter identifiers registered with the HDF Group.
const (
	FilterDeflate     uint16 = 1
	FilterShuffle     uint16 = 2
	FilterFletcher32  uint16 = 3
	FilterSZIP        uint16 = 4
	FilterNBit        uint16 = 5
	FilterScaleOffset uint16 = 6
)

// FilterInfo is one stage of a filter pipeline.
type FilterInfo struct {
	ID         uint16
	Flags      uint16
	Name       string
	ClientData []uint32
}

// IsOptional reports whether the filter may be skipped for a chunk it
// fails on.
func (f *FilterInfo) IsOptional() bool { return f.Flags&0x01 != 0 }

// FilterPipeline is a filter pipeline message (type 0x000B). Filters are
// listed in the order they apply on write.
type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

func (m *FilterPipeline) HasFilter(id uint16) bool {
	for _, f := range m.Filters {
		if f.ID == id {
			return true
		}
	}
	return false
}

// HasCompression reports a deflate or szip stage.
func (m *FilterPipeline) HasCompression() bool {
	return m.HasFilter(FilterDeflate) || m.HasFilter(FilterSZIP)
}

// parseFilterPipeline reads versions 1 and 2. Version 1 pads names and
// client data to eight bytes; version 2 stores names only for filter IDs
// of 256 and above.
func parseFilterPipeline(data []byte, r *binpkg.Reader) (*FilterPipeline, error) {
	d := newDecoder("filter pipeline", data, r)
	fp := &FilterPipeline{Version: d.u8()}
	n := int(d.u8())
	if fp.Version == 1 {
		d.skip(6)
	}
	for i := 0; i < n && d.err == nil; i++ {
		f := FilterInfo{ID: d.u16()}
		var nameLen int
		if fp.Version == 1 || f.ID >= 256 {
			nameLen = int(d.u16())
		}
		f.Flags = d.u16()
		cd := int(d.u16())
		if nameLen > 0 {
			if fp.Version == 1 {
				nameLen = (nameLen + 7) &^ 7
			}
			f.Name = d.name(nameLen)
		}
		f.ClientData = make([]uint32, cd)
		for j := range f.ClientData {
			f.ClientData[j] = d.u32()
		}
		if fp.Version == 1 && cd%2 != 0 {
			d.skip(4)
		}
		fp.Filters = append(fp.Filters, f)
	}
	if d.err != nil {
		return nil, d.err
	}
	return fp, nil
}
