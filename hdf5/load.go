package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/btree"
	"github.com/robert-malhotra/go-kea/internal/dtype"
	"github.com/robert-malhotra/go-kea/internal/heap"
	"github.com/robert-malhotra/go-kea/internal/layout"
	"github.com/robert-malhotra/go-kea/internal/message"
	"github.com/robert-malhotra/go-kea/internal/object"
)

// loader builds the in-memory tree from object headers. Objects are keyed
// by header address so that hard links share one value.
type loader struct {
	f       *File
	r       *binary.Reader
	strs    *dtype.HeapStrings
	objects map[uint64]interface{}
}

func load(f *File) (*Group, error) {
	l := &loader{
		f:       f,
		r:       f.reader,
		strs:    dtype.NewHeapStrings(f.reader),
		objects: make(map[uint64]interface{}),
	}
	obj, err := l.object(f.superblock.RootGroupAddress, "/")
	if err != nil {
		return nil, err
	}
	root, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("root object: %w", ErrNotGroup)
	}
	return root, nil
}

func (l *loader) object(addr uint64, p string) (interface{}, error) {
	if obj, ok := l.objects[addr]; ok {
		return obj, nil
	}
	hdr, err := object.Read(l.r, addr)
	if err != nil {
		return nil, fmt.Errorf("%s: reading object header at 0x%x: %w", p, addr, err)
	}
	if hdr.Dataspace() != nil && hdr.DataLayout() != nil {
		ds, err := l.dataset(hdr, p)
		if err != nil {
			return nil, err
		}
		l.objects[addr] = ds
		return ds, nil
	}
	return l.group(hdr, addr, p)
}

func (l *loader) group(hdr *object.Header, addr uint64, p string) (*Group, error) {
	g := newGroup(l.f, p)
	l.objects[addr] = g
	l.attrs(&g.attrSet, hdr)

	for _, msg := range hdr.All(message.TypeLink) {
		lm := msg.(*message.Link)
		switch {
		case lm.IsHard():
			child, err := l.object(lm.ObjectAddress, g.childPath(lm.Name))
			if err != nil {
				return nil, err
			}
			g.links = append(g.links, &link{name: lm.Name, obj: child})
		case lm.IsSoft():
			g.links = append(g.links, &link{name: lm.Name, soft: lm.SoftLinkValue})
		case lm.IsExternal():
			g.links = append(g.links, &link{name: lm.Name, extFile: lm.ExternalFile, extPath: lm.ExternalPath})
		}
	}
	if len(g.links) > 0 {
		return g, nil
	}

	var symTable *message.SymbolTable
	if msg := hdr.First(message.TypeSymbolTable); msg != nil {
		symTable = msg.(*message.SymbolTable)
	} else if p == "/" && l.f.superblock.RootGroupBTreeAddress != 0 {
		// Root of an old file: cached addresses from the superblock scratch pad
		symTable = &message.SymbolTable{
			BTreeAddress:     l.f.superblock.RootGroupBTreeAddress,
			LocalHeapAddress: l.f.superblock.RootGroupLocalHeapAddress,
		}
	}
	if symTable == nil {
		return g, nil
	}

	localHeap, err := heap.ReadLocalHeap(l.r, symTable.LocalHeapAddress)
	if err != nil {
		return nil, fmt.Errorf("%s: reading local heap: %w", p, err)
	}
	entries, err := btree.ReadGroupEntries(l.r, symTable.BTreeAddress, localHeap)
	if err != nil {
		return nil, fmt.Errorf("%s: reading B-tree: %w", p, err)
	}
	for _, e := range entries {
		if e.SoftLink != "" {
			g.links = append(g.links, &link{name: e.Name, soft: e.SoftLink})
			continue
		}
		child, err := l.object(e.ObjectAddress, g.childPath(e.Name))
		if err != nil {
			return nil, err
		}
		g.links = append(g.links, &link{name: e.Name, obj: child})
	}
	return g, nil
}

func (l *loader) dataset(hdr *object.Header, p string) (*Dataset, error) {
	space := hdr.Dataspace()
	dt := hdr.Datatype()
	if dt == nil {
		return nil, fmt.Errorf("%s: dataset has no datatype", p)
	}
	if dtype.HasVarLen(dt) && l.r.OffsetSize() != 8 {
		return nil, fmt.Errorf("%s: variable-length data with %d-byte offsets: %w", p, l.r.OffsetSize(), ErrUnsupported)
	}
	lay := hdr.DataLayout()
	fp := hdr.FilterPipeline()

	var fv *message.FillValue
	if msg := hdr.First(message.TypeFillValue); msg != nil {
		fv = msg.(*message.FillValue)
	}

	ds := &Dataset{
		attrSet: attrSet{file: l.f},
		path:    p,
		dt:      &Datatype{m: dt},
		srcStrs: l.strs,
	}
	if !space.IsScalar() {
		ds.dims = append([]uint64(nil), space.Dimensions...)
	}
	if lay.Class == message.LayoutChunked && len(lay.ChunkDims) > len(ds.dims) {
		ds.chunks = make([]uint64, len(ds.dims))
		for i := range ds.dims {
			ds.chunks[i] = uint64(lay.ChunkDims[i])
		}
	}
	if fp != nil {
		ds.filters = append([]message.FilterInfo(nil), fp.Filters...)
	}
	if fv != nil && fv.IsDefined && len(fv.Value) == int(dt.Size) {
		ds.fill = append([]byte(nil), fv.Value...)
	}

	src, err := layout.New(lay, space, dt, fp, fv, l.r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	ds.src = src
	l.attrs(&ds.attrSet, hdr)
	return ds, nil
}

func (l *loader) attrs(s *attrSet, hdr *object.Header) {
	for _, msg := range hdr.All(message.TypeAttribute) {
		s.loadAttr(msg.(*message.Attribute), l.strs)
	}
}
