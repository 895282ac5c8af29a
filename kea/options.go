package kea

import "github.com/robert-malhotra/go-kea/internal/logger"

// Mode selects how Open attaches to a file.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

func (m Mode) String() string {
	if m == ReadWrite {
		return "r+"
	}
	return "r"
}

// Option configures an Image.
type Option func(*Image)

// WithLogger sets the logger for structural changes and warnings. The
// default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(img *Image) {
		if l != nil {
			img.log = l
		}
	}
}

// CreateOptions describes a new image. Zero fields take the defaults noted.
type CreateOptions struct {
	Width  int
	Height int
	// Bands is the number of bands created up front, all of DataType.
	Bands int
	// DataType defaults to Uint8.
	DataType DataType
	// Transform is the GDAL geotransform; zero means (0, 1, 0, 0, 0, -1).
	Transform [6]float64
	WKT       string
	// NoData is stored for every initial band when set.
	NoData *float64
	// Chunks defaults to 256x256, clipped to the image.
	Chunks [2]int
	// BlockSize defaults to 256.
	BlockSize int
	// Compression is the deflate level for band data, 1 when nil. A level
	// of 0 stores it raw.
	Compression *int
	Shuffle     bool
}

// BandOption configures AppendBand and CreateMask.
type BandOption func(*bandOptions)

type bandOptions struct {
	dataType    DataType
	chunks      [2]int
	noData      *float64
	compression int
	shuffle     bool
	blockSize   int
	description string
	name        string
	link        int
}

func defaultBandOptions() *bandOptions {
	return &bandOptions{
		chunks:      [2]int{256, 256},
		compression: 1,
		blockSize:   256,
	}
}

// WithDataType sets the new band's type. The default is the promoted type
// of the existing bands.
func WithDataType(dt DataType) BandOption {
	return func(o *bandOptions) { o.dataType = dt }
}

// WithChunks sets the chunk shape in rows and columns.
func WithChunks(rows, cols int) BandOption {
	return func(o *bandOptions) { o.chunks = [2]int{rows, cols} }
}

// WithNoData sets the no-data value, which is also the fill value of the
// band data.
func WithNoData(v float64) BandOption {
	return func(o *bandOptions) { o.noData = &v }
}

// WithCompression sets the deflate level, 0 for none. The default is 1.
func WithCompression(level int) BandOption {
	return func(o *bandOptions) { o.compression = level }
}

// WithShuffle enables the shuffle filter.
func WithShuffle() BandOption {
	return func(o *bandOptions) { o.shuffle = true }
}

// WithBlockSize sets the BLOCK_SIZE attribute of the band data.
func WithBlockSize(n int) BandOption {
	return func(o *bandOptions) { o.blockSize = n }
}

// WithDescription sets the band description.
func WithDescription(s string) BandOption {
	return func(o *bandOptions) { o.description = s }
}

// WithBandName sets the METADATA band name. The default is "Band n".
func WithBandName(s string) BandOption {
	return func(o *bandOptions) { o.name = s }
}

// LinkTo makes the new band share the data of an existing band.
func LinkTo(band int) BandOption {
	return func(o *bandOptions) { o.link = band }
}

// ReadOption configures Read and ReadBands.
type ReadOption func(*readOptions)

type readOptions struct {
	dataType DataType
}

// AsType sets the element type of the returned array. The default is the
// promoted type of all bands.
func AsType(dt DataType) ReadOption {
	return func(o *readOptions) { o.dataType = dt }
}

// RATReadOption configures ReadRAT.
type RATReadOption func(*ratReadOptions)

type ratReadOptions struct {
	columns []string
	start   int
	end     int
	ranged  bool
}

// Columns restricts ReadRAT to the named columns, returned in that order.
func Columns(names ...string) RATReadOption {
	return func(o *ratReadOptions) { o.columns = names }
}

// Rows restricts ReadRAT to the half-open row range [start, end).
func Rows(start, end int) RATReadOption {
	return func(o *ratReadOptions) {
		o.start, o.end, o.ranged = start, end, true
	}
}

// RATWriteOption configures WriteRAT.
type RATWriteOption func(*ratWriteOptions)

type ratWriteOptions struct {
	usage       map[string]string
	chunkSize   int
	compression int
	shuffle     bool
}

// DefaultRATChunkSize is the row chunk hint used by WriteRAT.
const DefaultRATChunkSize = 1000

// Usage sets per-column usage tags. Columns not named are "Generic".
func Usage(usage map[string]string) RATWriteOption {
	return func(o *ratWriteOptions) { o.usage = usage }
}

// ChunkSize sets the row chunk hint; tables with fewer rows use their row
// count.
func ChunkSize(n int) RATWriteOption {
	return func(o *ratWriteOptions) { o.chunkSize = n }
}

// RATCompression sets the deflate level of the column datasets, 0 for
// none. The default is 1.
func RATCompression(level int) RATWriteOption {
	return func(o *ratWriteOptions) { o.compression = level }
}

// RATShuffle enables the shuffle filter on the column datasets.
func RATShuffle() RATWriteOption {
	return func(o *ratWriteOptions) { o.shuffle = true }
}
