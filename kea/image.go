package kea

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-kea/hdf5"
	"github.com/robert-malhotra/go-kea/internal/logger"
)

// Image is an open KEA file. It is not safe for concurrent use.
type Image struct {
	path   string
	file   *hdf5.File
	mode   Mode
	log    logger.Logger
	closed bool
	reg    *registry
}

func newImage(path string, f *hdf5.File, mode Mode, opts []Option) *Image {
	img := &Image{path: path, file: f, mode: mode, log: logger.Discard(), reg: &registry{}}
	for _, opt := range opts {
		opt(img)
	}
	img.log = img.log.With("file", path)
	return img
}

// Create writes a new KEA file at path, replacing any existing file, and
// returns it open for writing.
func Create(path string, co CreateOptions, opts ...Option) (*Image, error) {
	if co.Width <= 0 || co.Height <= 0 {
		return nil, fmt.Errorf("create %s: size %dx%d: %w", path, co.Width, co.Height, ErrInput)
	}
	if co.Bands < 0 {
		return nil, fmt.Errorf("create %s: %d bands: %w", path, co.Bands, ErrInput)
	}
	if co.DataType == None {
		co.DataType = Uint8
	}
	if !co.DataType.Storable() {
		return nil, fmt.Errorf("create %s: band type %s: %w", path, co.DataType, ErrType)
	}
	if co.BlockSize <= 0 {
		co.BlockSize = 256
	}
	if co.Chunks == ([2]int{}) {
		co.Chunks = [2]int{256, 256}
	}

	f, err := hdf5.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	img := newImage(path, f, ReadWrite, opts)
	if err := img.initialise(co); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	img.log.Debug("image created", "width", co.Width, "height", co.Height, "bands", co.Bands)
	return img, nil
}

func (img *Image) initialise(co CreateOptions) error {
	root := img.file.Root()
	hdr, err := root.CreateGroup("HEADER")
	if err != nil {
		return err
	}
	if err := writeHeader(hdr, co); err != nil {
		return err
	}
	if _, err := root.CreateGroup("METADATA"); err != nil {
		return err
	}
	if err := img.resync(); err != nil {
		return err
	}

	opts := []BandOption{
		WithDataType(co.DataType),
		WithChunks(co.Chunks[0], co.Chunks[1]),
		WithBlockSize(co.BlockSize),
	}
	if co.Compression != nil {
		opts = append(opts, WithCompression(*co.Compression))
	}
	if co.NoData != nil {
		opts = append(opts, WithNoData(*co.NoData))
	}
	if co.Shuffle {
		opts = append(opts, WithShuffle())
	}
	for i := 0; i < co.Bands; i++ {
		if _, err := img.AppendBand(opts...); err != nil {
			return err
		}
	}
	return nil
}

// Open opens an existing KEA file.
func Open(path string, mode Mode, opts ...Option) (*Image, error) {
	var f *hdf5.File
	var err error
	switch mode {
	case ReadOnly:
		f, err = hdf5.Open(path)
	case ReadWrite:
		f, err = hdf5.OpenReadWrite(path)
	default:
		return nil, fmt.Errorf("open %s: mode %d: %w", path, mode, ErrInput)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	img := newImage(path, f, mode, opts)
	if err := img.load(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	img.log.Debug("image opened", "mode", mode.String(), "bands", img.Count())
	return img, nil
}

// Close flushes pending writes and releases the file. Closing twice is a
// no-op.
func (img *Image) Close() error {
	if img.closed {
		return nil
	}
	img.closed = true
	if err := img.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", img.path, err)
	}
	return nil
}

// Flush writes pending changes to disk.
func (img *Image) Flush() error {
	if err := img.checkOpen(); err != nil {
		return err
	}
	return img.file.Flush()
}

// Closed reports whether Close has been called.
func (img *Image) Closed() bool { return img.closed }

// Path returns the file path.
func (img *Image) Path() string { return img.path }

// Mode returns the mode the image was opened with.
func (img *Image) Mode() Mode { return img.mode }

// File returns the underlying container.
func (img *Image) File() *hdf5.File { return img.file }

// Width returns the number of columns.
func (img *Image) Width() int { return img.reg.width }

// Height returns the number of rows.
func (img *Image) Height() int { return img.reg.height }

// WKT returns the spatial reference, carried opaquely.
func (img *Image) WKT() string { return img.reg.wkt }

// Transform returns the GDAL geotransform: origin x, pixel width, row
// rotation, origin y, column rotation, pixel height.
func (img *Image) Transform() [6]float64 { return img.reg.transform }

// FileType returns HEADER/FILETYPE, "KEA" for files this package writes.
func (img *Image) FileType() string { return img.reg.fileType }

// Generator returns the name of the library that created the file.
func (img *Image) Generator() string { return img.reg.generator }

// Version returns the KEA format version.
func (img *Image) Version() string { return img.reg.version }

// SetTransform replaces the geotransform.
func (img *Image) SetTransform(gt [6]float64) error {
	hdr, err := img.header()
	if err != nil {
		return err
	}
	if err := putTransform(hdr, gt); err != nil {
		return fmt.Errorf("set transform: %w", err)
	}
	return img.resync()
}

// SetWKT replaces the spatial reference.
func (img *Image) SetWKT(wkt string) error {
	hdr, err := img.header()
	if err != nil {
		return err
	}
	if err := putStrings(hdr, hdrWKT, wkt); err != nil {
		return fmt.Errorf("set wkt: %w", err)
	}
	return img.resync()
}

func (img *Image) header() (*hdf5.Group, error) {
	if err := img.checkWritable(); err != nil {
		return nil, err
	}
	return img.file.OpenGroup("/HEADER")
}

func (img *Image) checkOpen() error {
	if img.closed {
		return fmt.Errorf("%s: %w", img.path, ErrClosed)
	}
	return nil
}

// checkWritable fails early on read-only images so that no partial change
// is attempted.
func (img *Image) checkWritable() error {
	if err := img.checkOpen(); err != nil {
		return err
	}
	if img.mode != ReadWrite {
		return fmt.Errorf("%s: %w", img.path, hdf5.ErrReadOnly)
	}
	return nil
}

// resync makes pending writes durable and rebuilds the registry from the
// file. Every structural change ends here.
func (img *Image) resync() error {
	if err := img.file.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := img.load(); err != nil {
		return err
	}
	img.log.Debug("registry rebuilt", "bands", img.Count())
	return nil
}

// isNotFound reports whether err is a missing object in the container.
func isNotFound(err error) bool {
	return errors.Is(err, hdf5.ErrNotFound)
}
