// Package hdf5 provides a pure Go HDF5 container: files are loaded into an
// in-memory tree of groups and datasets and written back whole on Flush.
package hdf5

import (
	"errors"

	"github.com/robert-malhotra/go-kea/internal/layout"
)

// Common errors
var (
	ErrNotHDF5     = errors.New("not an HDF5 file")
	ErrNotFound    = errors.New("object not found")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrNotGroup    = errors.New("object is not a group")
	ErrUnsupported = errors.New("unsupported feature")
	ErrInvalidPath = errors.New("invalid path")
	ErrClosed      = errors.New("file is closed")
	ErrReadOnly    = errors.New("file is read-only")
	ErrLinkDepth   = errors.New("maximum link depth exceeded")
	ErrType        = errors.New("datatype mismatch")
	ErrSize        = errors.New("buffer size mismatch")

	// ErrOutOfBounds is returned when a slice selection exceeds the
	// dataset dimensions.
	ErrOutOfBounds = layout.ErrOutOfBounds
)

// MaxLinkDepth is the maximum number of soft links that can be followed
// in a single path resolution.
const MaxLinkDepth = 100
