package hdf5

import (
	"errors"
	"path"
)

// ErrStopWalk ends a walk early without an error.
var ErrStopWalk = errors.New("walk stopped")

// WalkFunc is called once per object reached. obj is a *Group or a
// *Dataset; it is nil when the link at p could not be followed, and err
// then says why. A non-nil return ends the walk.
type WalkFunc func(p string, obj interface{}, err error) error

// Walk visits g and everything below it in link order. An object reached
// through several hard links is reported under each name, but a group is
// descended into only once.
func Walk(g *Group, fn WalkFunc) error {
	if err := g.file.checkOpen(); err != nil {
		return err
	}
	w := walker{fn: fn, seen: map[*Group]bool{}}
	if err := w.group(g, g.path); !errors.Is(err, ErrStopWalk) {
		return err
	}
	return nil
}

type walker struct {
	fn   WalkFunc
	seen map[*Group]bool
}

func (w walker) group(g *Group, p string) error {
	w.seen[g] = true
	if err := w.fn(p, g, nil); err != nil {
		return err
	}
	for _, l := range g.links {
		child := path.Join(p, l.name)
		obj, err := l.obj, error(nil)
		if obj == nil {
			obj, err = g.resolve(l.name, 0)
		}
		switch o := obj.(type) {
		case *Group:
			if !w.seen[o] {
				err = w.group(o, child)
			}
		case *Dataset:
			err = w.fn(child, o, nil)
		default:
			err = w.fn(child, nil, err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// AttrInfo describes one attribute met by WalkAttrs.
type AttrInfo struct {
	// Path is the attribute path, "/object@name".
	Path   string
	Object string
	// Kind is "group" or "dataset".
	Kind string
	Attr *Attribute
}

// WalkAttrs calls fn for every attribute of every reachable object.
// Links that cannot be followed are skipped.
func (f *File) WalkAttrs(fn func(AttrInfo) error) error {
	return Walk(f.root, func(p string, obj interface{}, err error) error {
		var set *attrSet
		kind := "group"
		switch o := obj.(type) {
		case *Group:
			set = &o.attrSet
		case *Dataset:
			set, kind = &o.attrSet, "dataset"
		default:
			return nil
		}
		for _, a := range set.attrs {
			if err := fn(AttrInfo{Path: AttrPath(p, a.Name()), Object: p, Kind: kind, Attr: a}); err != nil {
				return err
			}
		}
		return nil
	})
}
