package filter

import (
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/message"
)

// Filter transforms one chunk between its raw and stored forms.
type Filter interface {
	ID() uint16
	Encode(raw []byte) ([]byte, error)
	Decode(stored []byte) ([]byte, error)
}

var builtin = map[uint16]func(clientData []uint32) Filter{
	message.FilterDeflate:    func(cd []uint32) Filter { return NewDeflate(cd) },
	message.FilterShuffle:    func(cd []uint32) Filter { return NewShuffle(cd) },
	message.FilterFletcher32: func([]uint32) Filter { return Fletcher32{} },
}

var names = map[uint16]string{
	message.FilterDeflate:     "deflate",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "fletcher32",
	message.FilterSZIP:        "szip",
	message.FilterNBit:        "nbit",
	message.FilterScaleOffset: "scaleoffset",
}

// Name is the short name of a filter ID.
func Name(id uint16) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("filter-%d", id)
}

// New builds the filter described by info. Optional filters this package
// does not implement yield a nil Filter and no error.
func New(info message.FilterInfo) (Filter, error) {
	if build, ok := builtin[info.ID]; ok {
		return build(info.ClientData), nil
	}
	if info.IsOptional() {
		return nil, nil
	}
	return nil, fmt.Errorf("%s (id %d) is not supported", Name(info.ID), info.ID)
}

// Pipeline is the filter chain of one dataset.
type Pipeline struct {
	filters []Filter
}

// NewPipeline builds the chain for fp, which may be nil.
func NewPipeline(fp *message.FilterPipeline) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	for _, info := range fp.Filters {
		f, err := New(info)
		if err != nil {
			return nil, err
		}
		if f != nil {
			p.filters = append(p.filters, f)
		}
	}
	return p, nil
}

// Empty reports whether chunks pass through unchanged.
func (p *Pipeline) Empty() bool { return p == nil || len(p.filters) == 0 }

// Encode runs every filter in order.
func (p *Pipeline) Encode(raw []byte) ([]byte, error) {
	data := raw
	for _, f := range p.filters {
		var err error
		if data, err = f.Encode(data); err != nil {
			return nil, fmt.Errorf("%s: %w", Name(f.ID()), err)
		}
	}
	return data, nil
}

// Decode undoes the filters in reverse. Bit i of mask marks filter i as
// skipped for this chunk.
func (p *Pipeline) Decode(stored []byte, mask uint32) ([]byte, error) {
	data := stored
	for i := len(p.filters) - 1; i >= 0; i-- {
		if mask&(1<<i) != 0 {
			continue
		}
		var err error
		if data, err = p.filters[i].Decode(data); err != nil {
			return nil, fmt.Errorf("%s: %w", Name(p.filters[i].ID()), err)
		}
	}
	return data, nil
}
