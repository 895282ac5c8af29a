package hdf5

import (
	"errors"
	"fmt"
	"os"

	"github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/superblock"
)

// File is an open HDF5 file. Its object tree lives in memory; Flush
// rewrites the file from the tree and swaps it into place.
type File struct {
	path       string
	file       *os.File
	reader     *binary.Reader
	superblock *superblock.Superblock
	root       *Group
	closed     bool
	writable   bool
	opts       *fileConfig
}

// Open opens an HDF5 file read-only.
func Open(path string) (*File, error) { return open(path, false) }

// OpenReadWrite opens an existing file for update. Changes reach the disk
// on Flush or Close.
func OpenReadWrite(path string) (*File, error) { return open(path, true) }

func open(path string, writable bool) (*File, error) {
	f := &File{path: path, writable: writable, opts: newFileConfig()}
	if err := f.attach(); err != nil {
		return nil, err
	}
	root, err := load(f)
	if err != nil {
		f.file.Close()
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	f.root = root
	if writable && f.superblock.Version >= 2 {
		f.opts.superblockVersion = f.superblock.Version
	}
	return f, nil
}

// attach opens the OS file and parses its superblock.
func (f *File) attach() error {
	osFile, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	sb, err := superblock.Read(osFile)
	if err != nil {
		osFile.Close()
		if errors.Is(err, superblock.ErrNotHDF5) {
			return fmt.Errorf("%s: %w", f.path, ErrNotHDF5)
		}
		return fmt.Errorf("reading superblock: %w", err)
	}
	f.file = osFile
	f.superblock = sb
	f.reader = binary.NewReader(osFile, sb.ReaderConfig())
	return nil
}

// Create creates a new HDF5 file at path, truncating any existing file.
// The empty file is written immediately.
func Create(path string, opts ...FileOption) (*File, error) {
	options := newFileConfig()
	for _, opt := range opts {
		opt(options)
	}
	f := &File{path: path, writable: true, opts: options}
	f.root = newGroup(f, "/")
	if err := f.Flush(); err != nil {
		return nil, err
	}
	return f, nil
}

// Root returns the root group.
func (f *File) Root() *Group { return f.root }

// Path returns the path the file was opened or created with.
func (f *File) Path() string { return f.path }

// Writable reports whether the file accepts changes.
func (f *File) Writable() bool { return f.writable }

// Version returns the superblock version of the file on disk.
func (f *File) Version() int {
	if f.superblock == nil {
		return 0
	}
	return int(f.superblock.Version)
}

// OpenGroup opens a group by absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	return f.root.OpenGroup(absPath(path))
}

// OpenDataset opens a dataset by absolute path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	return f.root.OpenDataset(absPath(path))
}

// GetAttr returns an attribute by path, in the form "/object@name".
func (f *File) GetAttr(path string) (*Attribute, error) {
	objPath, name, err := SplitAttrPath(path)
	if err != nil {
		return nil, err
	}
	obj, err := f.root.resolve(objPath, 0)
	if err != nil {
		return nil, err
	}
	var attr *Attribute
	switch o := obj.(type) {
	case *Group:
		attr = o.Attr(name)
	case *Dataset:
		attr = o.Attr(name)
	}
	if attr == nil {
		return nil, fmt.Errorf("attribute %s: %w", path, ErrNotFound)
	}
	return attr, nil
}

// ReadAttr returns the value of an attribute by path.
func (f *File) ReadAttr(path string) (interface{}, error) {
	attr, err := f.GetAttr(path)
	if err != nil {
		return nil, err
	}
	return attr.Value()
}

// Flush writes the tree to disk. It is a no-op for read-only files.
func (f *File) Flush() error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if !f.writable {
		return nil
	}
	tmp := f.path + ".tmp"
	s, err := f.saveTo(tmp)
	if err == nil {
		if f.file != nil {
			_ = f.file.Close()
			f.file = nil
		}
		err = os.Rename(tmp, f.path)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("flush %s: %w", f.path, err)
	}
	if err := f.attach(); err != nil {
		return fmt.Errorf("flush %s: %w", f.path, err)
	}
	return s.rebind(f.reader)
}

// saveTo writes the whole tree to a new file at name.
func (f *File) saveTo(name string) (*saver, error) {
	out, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	s := newSaver(out, f.opts)
	err = s.save(f.root)
	if err == nil {
		err = out.Sync()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return s, err
}

// Close flushes a writable file and releases it. Closing twice is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	var err error
	if f.writable {
		err = f.Flush()
	}
	if f.file != nil {
		if cerr := f.file.Close(); err == nil {
			err = cerr
		}
		f.file = nil
	}
	f.closed = true
	return err
}

func (f *File) checkOpen() error {
	if f.closed {
		return ErrClosed
	}
	return nil
}

func (f *File) checkWritable() error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	return nil
}
