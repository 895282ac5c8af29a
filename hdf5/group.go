package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/go-kea/internal/dtype"
)

// link is one named entry of a group. Hard links carry the target object;
// soft and external links only their target path.
type link struct {
	name    string
	obj     interface{} // *Group or *Dataset
	soft    string
	extFile string
	extPath string
}

// Group represents an HDF5 group.
type Group struct {
	attrSet
	path  string
	links []*link
}

func newGroup(f *File, p string) *Group {
	return &Group{attrSet: attrSet{file: f}, path: p}
}

// Name returns the group name (last path component).
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return path.Base(g.path)
}

// Path returns the full path of the group.
func (g *Group) Path() string {
	return g.path
}

// File returns the file the group belongs to.
func (g *Group) File() *File {
	return g.file
}

// Members returns the names of all links in this group, in order.
func (g *Group) Members() []string {
	names := make([]string, len(g.links))
	for i, l := range g.links {
		names[i] = l.name
	}
	return names
}

// NumObjects returns the number of links in this group.
func (g *Group) NumObjects() int {
	return len(g.links)
}

func (g *Group) lookup(name string) (int, *link) {
	for i, l := range g.links {
		if l.name == name {
			return i, l
		}
	}
	return -1, nil
}

func (g *Group) put(l *link) {
	if i, _ := g.lookup(l.name); i >= 0 {
		g.links[i] = l
		return
	}
	g.links = append(g.links, l)
}

func (g *Group) childPath(name string) string {
	return path.Join(g.path, name)
}

// resolve walks a path relative to g, or absolute from the root, following
// soft links.
func (g *Group) resolve(p string, depth int) (interface{}, error) {
	if err := g.file.checkOpen(); err != nil {
		return nil, err
	}
	if p == "" {
		return nil, ErrInvalidPath
	}
	cur := g
	if p[0] == '/' {
		cur = g.file.root
	}
	parts := elements(p)
	if len(parts) == 0 {
		return cur, nil
	}
	for i, part := range parts {
		_, l := cur.lookup(part)
		if l == nil {
			return nil, fmt.Errorf("%s: %w", cur.childPath(part), ErrNotFound)
		}
		obj := l.obj
		switch {
		case l.soft != "":
			if depth >= MaxLinkDepth {
				return nil, ErrLinkDepth
			}
			var err error
			if obj, err = cur.resolve(l.soft, depth+1); err != nil {
				return nil, err
			}
		case l.extFile != "":
			return nil, fmt.Errorf("external link %s -> %s:%s: %w", cur.childPath(part), l.extFile, l.extPath, ErrUnsupported)
		}
		if i == len(parts)-1 {
			return obj, nil
		}
		next, ok := obj.(*Group)
		if !ok {
			return nil, fmt.Errorf("%s: %w", cur.childPath(part), ErrNotGroup)
		}
		cur = next
	}
	return cur, nil
}

// OpenGroup opens a group by path.
func (g *Group) OpenGroup(p string) (*Group, error) {
	obj, err := g.resolve(p, 0)
	if err != nil {
		return nil, err
	}
	grp, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrNotGroup)
	}
	return grp, nil
}

// OpenDataset opens a dataset by path.
func (g *Group) OpenDataset(p string) (*Dataset, error) {
	obj, err := g.resolve(p, 0)
	if err != nil {
		return nil, err
	}
	ds, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrNotDataset)
	}
	return ds, nil
}

// Has reports whether a path resolves to an object.
func (g *Group) Has(p string) bool {
	_, err := g.resolve(p, 0)
	return err == nil
}

// CreateGroup returns the group at p, creating it and any missing
// intermediate groups.
func (g *Group) CreateGroup(p string) (*Group, error) {
	if err := g.file.checkWritable(); err != nil {
		return nil, err
	}
	cur := g
	if len(p) > 0 && p[0] == '/' {
		cur = g.file.root
	}
	parts := elements(p)
	if len(parts) == 0 {
		return nil, ErrInvalidPath
	}
	for _, part := range parts {
		_, l := cur.lookup(part)
		if l == nil {
			child := newGroup(g.file, cur.childPath(part))
			cur.links = append(cur.links, &link{name: part, obj: child})
			cur = child
			continue
		}
		next, ok := l.obj.(*Group)
		if !ok {
			return nil, fmt.Errorf("%s: %w", cur.childPath(part), ErrNotGroup)
		}
		cur = next
	}
	return cur, nil
}

// parentOf returns the group that holds the last component of p, creating
// intermediate groups, and that component.
func (g *Group) parentOf(p string) (*Group, string, error) {
	dir, name := path.Split(p)
	if name == "" {
		return nil, "", fmt.Errorf("%q: %w", p, ErrInvalidPath)
	}
	if dir == "" {
		return g, name, nil
	}
	if dir == "/" {
		return g.file.root, name, nil
	}
	parent, err := g.CreateGroup(dir)
	if err != nil {
		return nil, "", err
	}
	return parent, name, nil
}

// CreateDataset creates a dataset of the given type and dimensions,
// replacing any existing object of the same name. Its elements read as the
// fill value until written.
func (g *Group) CreateDataset(p string, dt *Datatype, dims []uint64, opts ...DatasetOption) (*Dataset, error) {
	if err := g.file.checkWritable(); err != nil {
		return nil, err
	}
	if dt == nil {
		return nil, fmt.Errorf("dataset %s: nil datatype", p)
	}
	options := &datasetConfig{}
	for _, opt := range opts {
		opt(options)
	}

	parent, name, err := g.parentOf(p)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{
		attrSet: attrSet{file: g.file},
		path:    parent.childPath(name),
		dims:    append([]uint64(nil), dims...),
		dt:      dt,
	}

	chunks := options.chunks
	if chunks == nil && len(options.filters(0)) > 0 && len(dims) > 0 {
		chunks = dims
	}
	if chunks != nil {
		if len(chunks) != len(dims) {
			return nil, fmt.Errorf("dataset %s: chunk rank %d does not match rank %d", p, len(chunks), len(dims))
		}
		ds.chunks = make([]uint64, len(dims))
		for i := range dims {
			ds.chunks[i] = min(chunks[i], dims[i])
			if ds.chunks[i] == 0 {
				ds.chunks[i] = 1
			}
		}
	}
	ds.filters = options.filters(dt.Size())

	if options.fill != nil {
		if dt.hasVarLen() {
			return nil, fmt.Errorf("dataset %s: fill value for variable-length type: %w", p, ErrUnsupported)
		}
		if ds.fill, err = dtype.EncodeScalar(dt.m, options.fill); err != nil {
			return nil, fmt.Errorf("dataset %s: fill value: %w", p, err)
		}
	}
	for _, a := range options.attrs {
		if err := ds.SetAttr(a.name, a.value); err != nil {
			return nil, fmt.Errorf("dataset %s: %w", p, err)
		}
	}

	parent.put(&link{name: name, obj: ds})
	return ds, nil
}

// Link adds a hard link named p to ds, replacing any existing object of
// that name. Both names then refer to the same dataset.
func (g *Group) Link(p string, ds *Dataset) error {
	if err := g.file.checkWritable(); err != nil {
		return err
	}
	if ds == nil || ds.file != g.file {
		return fmt.Errorf("link %s: dataset belongs to another file: %w", p, ErrUnsupported)
	}
	parent, name, err := g.parentOf(p)
	if err != nil {
		return err
	}
	parent.put(&link{name: name, obj: ds})
	return nil
}

// SoftLink adds a link named p that resolves to target by path.
func (g *Group) SoftLink(p, target string) error {
	if err := g.file.checkWritable(); err != nil {
		return err
	}
	parent, name, err := g.parentOf(p)
	if err != nil {
		return err
	}
	parent.put(&link{name: name, soft: target})
	return nil
}

// Delete removes the link at p. The object survives while other links
// refer to it.
func (g *Group) Delete(p string) error {
	if err := g.file.checkWritable(); err != nil {
		return err
	}
	dir, name := path.Split(p)
	parent := g
	if dir != "" {
		var err error
		if parent, err = g.OpenGroup(dir); err != nil {
			return err
		}
	}
	i, _ := parent.lookup(name)
	if i < 0 {
		return fmt.Errorf("%s: %w", parent.childPath(name), ErrNotFound)
	}
	parent.links = append(parent.links[:i], parent.links[i+1:]...)
	return nil
}
