// Package kea reads and writes KEA raster images: HDF5 files holding one or
// more 2D bands, each with an optional validity mask, per-band metadata and
// an optional raster attribute table (RAT).
//
// An Image keeps a registry of its bands that is built when the file is
// opened and rebuilt after every structural change (new band, new mask, new
// RAT, metadata setters). Pixel and table I/O go straight to the container.
package kea

import "errors"

// Errors returned by the package. Each is wrapped with operation context
// and can be tested with errors.Is.
var (
	// ErrRange is returned for a band index outside 1..Count.
	ErrRange = errors.New("band index out of range")
	// ErrLookup is returned for a RAT column name not in the table.
	ErrLookup = errors.New("column not found")
	// ErrShape is returned when an array has the wrong dimensions.
	ErrShape = errors.New("shape mismatch")
	// ErrType is returned for an unsupported or unexpected element type.
	ErrType = errors.New("unsupported type")
	// ErrPrecondition is returned when a structural operation refers to
	// something that does not exist, such as a link to a missing band.
	ErrPrecondition = errors.New("precondition failed")
	// ErrInput is returned for malformed arguments.
	ErrInput = errors.New("invalid input")
	// ErrClosed is returned by every operation on a closed image.
	ErrClosed = errors.New("image is closed")
)
