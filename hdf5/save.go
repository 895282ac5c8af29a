package hdf5

import (
	"encoding/binary"
	"fmt"
	"os"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/dtype"
	"github.com/robert-malhotra/go-kea/internal/filter"
	"github.com/robert-malhotra/go-kea/internal/heap"
	"github.com/robert-malhotra/go-kea/internal/layout"
	"github.com/robert-malhotra/go-kea/internal/message"
	"github.com/robert-malhotra/go-kea/internal/object"
	"github.com/robert-malhotra/go-kea/internal/superblock"
)

// saver writes a whole tree into an empty file. Each object header is
// allocated before its children are written, so links that form cycles
// still resolve to a fixed address.
type saver struct {
	w     *binpkg.Writer
	eof   uint64
	opts  *fileConfig
	addrs map[interface{}]uint64
	saved map[*Dataset]*storedDataset
}

// storedDataset records the messages a dataset was written with, used to
// point it at the new file once the rename is done.
type storedDataset struct {
	space   *message.Dataspace
	layout  *message.DataLayout
	filters *message.FilterPipeline
	fill    *message.FillValue
}

func newSaver(out *os.File, opts *fileConfig) *saver {
	return &saver{
		w: binpkg.NewWriter(out, binpkg.Config{
			ByteOrder:  binary.LittleEndian,
			OffsetSize: 8,
			LengthSize: 8,
		}),
		opts:  opts,
		addrs: make(map[interface{}]uint64),
		saved: make(map[*Dataset]*storedDataset),
	}
}

func (s *saver) save(root *Group) error {
	sb := superblock.NewSuperblock()
	sb.Version = s.opts.superblockVersion
	s.eof = uint64(sb.Size())

	rootAddr, err := s.object(root)
	if err != nil {
		return err
	}
	sb.RootGroupAddress = rootAddr
	sb.EOFAddress = s.eof
	if _, err := sb.Write(s.w.At(0)); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	return nil
}

// alloc reserves size bytes at the end of the file. A fresh file has no
// free space to reuse.
func (s *saver) alloc(size uint64) uint64 {
	addr := s.eof
	s.eof += size
	return addr
}

func (s *saver) allocate(size int64) uint64 { return s.alloc(uint64(size)) }

func (s *saver) object(obj interface{}) (uint64, error) {
	if addr, ok := s.addrs[obj]; ok {
		return addr, nil
	}
	switch o := obj.(type) {
	case *Group:
		return s.group(o)
	case *Dataset:
		return s.dataset(o)
	default:
		return 0, fmt.Errorf("unexpected object %T", obj)
	}
}

func (s *saver) group(g *Group) (uint64, error) {
	links := make([]*message.Link, len(g.links))
	for i, l := range g.links {
		switch {
		case l.obj != nil:
			links[i] = message.NewHardLink(l.name, 0)
		case l.soft != "":
			links[i] = message.NewSoftLink(l.name, l.soft)
		default:
			links[i] = message.NewExternalLink(l.name, l.extFile, l.extPath)
		}
	}
	msgs := append(object.GroupMessages(links), g.messages()...)

	// Link messages have a fixed size, so the header can be placed before
	// the child addresses are known.
	size := object.Size(s.w, msgs, object.MinGroupChunk)
	addr := s.alloc(uint64(size))
	s.addrs[g] = addr

	for i, l := range g.links {
		if l.obj == nil {
			continue
		}
		childAddr, err := s.object(l.obj)
		if err != nil {
			return 0, err
		}
		links[i].ObjectAddress = childAddr
	}
	if err := object.Write(s.w.At(int64(addr)), msgs, object.MinGroupChunk); err != nil {
		return 0, fmt.Errorf("%s: writing group header: %w", g.path, err)
	}
	return addr, nil
}

func (s *saver) dataset(d *Dataset) (uint64, error) {
	raw, strs, err := d.payload()
	if err != nil {
		return 0, err
	}
	if d.NumElements() == 0 {
		raw = nil
	}
	dt := d.dt.m
	if raw != nil && dtype.HasVarLen(dt) {
		if raw, err = s.strings(raw, dt, strs); err != nil {
			return 0, fmt.Errorf("%s: %w", d.path, err)
		}
	}

	var space *message.Dataspace
	if d.dims == nil {
		space = message.NewScalarDataspace()
	} else {
		space = message.NewDataspace(d.dims, nil)
	}
	var fp *message.FilterPipeline
	if len(d.filters) > 0 {
		fp = message.NewFilterPipeline(d.filters...)
	}

	var lay *message.DataLayout
	var fv *message.FillValue
	if d.chunks != nil {
		lay, err = s.chunked(d, raw, fp)
		if err != nil {
			return 0, err
		}
		fv = message.NewFillValue(d.fill, message.AllocIncremental)
	} else {
		size := d.NumElements() * d.elemSize()
		if raw == nil {
			lay = message.NewContiguousLayout(s.w.UndefinedOffset(), size)
		} else {
			addr := s.alloc(size)
			if err := s.w.At(int64(addr)).WriteBytes(raw); err != nil {
				return 0, fmt.Errorf("%s: writing data: %w", d.path, err)
			}
			lay = message.NewContiguousLayout(addr, size)
		}
		fv = message.NewFillValue(d.fill, message.AllocLate)
	}

	extra := []message.Message{fv}
	if fp != nil {
		extra = append(extra, fp)
	}
	extra = append(extra, d.messages()...)
	msgs := object.DatasetMessages(space, dt, lay, extra...)

	size := object.Size(s.w, msgs, 0)
	addr := s.alloc(uint64(size))
	if err := object.Write(s.w.At(int64(addr)), msgs, 0); err != nil {
		return 0, fmt.Errorf("%s: writing dataset header: %w", d.path, err)
	}
	s.addrs[d] = addr
	s.saved[d] = &storedDataset{space: space, layout: lay, filters: fp, fill: fv}
	return addr, nil
}

func (s *saver) chunked(d *Dataset, raw []byte, fp *message.FilterPipeline) (*message.DataLayout, error) {
	pipeline, err := filter.NewPipeline(fp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}
	chunkDims := make([]uint32, len(d.chunks))
	for i, c := range d.chunks {
		chunkDims[i] = uint32(c)
	}
	cw, err := layout.NewChunkWriter(s.w, d.dims, chunkDims, uint32(d.elemSize()), pipeline, d.fill, s.allocate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}
	if raw == nil {
		return cw.Unallocated(), nil
	}
	lay, err := cw.Write(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: writing chunks: %w", d.path, err)
	}
	return lay, nil
}

// strings stores every variable-length string of raw in global heap
// collections and returns a copy of raw whose slots reference them.
func (s *saver) strings(raw []byte, dt *message.Datatype, strs dtype.Strings) ([]byte, error) {
	out := append([]byte(nil), raw...)
	offsets := dtype.VarLenOffsets(dt)
	size := int(dt.Size)
	slotSize := dtype.SlotSize(s.w.OffsetSize())

	type pending struct {
		pos    int
		length uint32
	}
	var (
		ghw  *heap.GlobalHeapWriter
		refs []pending
	)
	flush := func() error {
		if ghw == nil || ghw.Len() == 0 {
			return nil
		}
		_, ids, err := ghw.Write()
		if err != nil {
			return err
		}
		for k, ref := range refs {
			id := ids[uint16(k+1)]
			dtype.PutSlot(out[ref.pos:], ref.length, id.CollectionAddress, id.ObjectIndex)
		}
		ghw, refs = nil, nil
		return nil
	}

	for base := 0; base+size <= len(raw); base += size {
		for _, off := range offsets {
			pos := base + off
			slot := raw[pos : pos+slotSize]
			length, _, _ := dtype.SlotRef(slot)
			if length == 0 {
				dtype.PutSlot(out[pos:], 0, 0, 0)
				continue
			}
			str, err := strs.String(slot)
			if err != nil {
				return nil, err
			}
			if ghw != nil && ghw.Full() {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			if ghw == nil {
				ghw = heap.NewGlobalHeapWriter(s.w, s.allocate)
			}
			ghw.AddString(str)
			refs = append(refs, pending{pos: pos, length: uint32(len(str))})
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

// rebind points every saved dataset at its storage in the new file and
// drops the in-memory copies.
func (s *saver) rebind(r *binpkg.Reader) error {
	strs := dtype.NewHeapStrings(r)
	for d, st := range s.saved {
		src, err := layout.New(st.layout, st.space, d.dt.m, st.filters, st.fill, r)
		if err != nil {
			return fmt.Errorf("%s: %w", d.path, err)
		}
		d.src, d.srcStrs = src, strs
		d.raw, d.strs = nil, nil
	}
	return nil
}
