package hdf5

import "github.com/robert-malhotra/go-kea/internal/message"

// FileOption configures Create.
type FileOption func(*fileConfig)

type fileConfig struct {
	superblockVersion uint8
}

func newFileConfig() *fileConfig { return &fileConfig{superblockVersion: 3} }

// WithSuperblockVersion picks the superblock version Flush writes. Only 2
// and 3 are accepted; other values are ignored.
func WithSuperblockVersion(v int) FileOption {
	return func(c *fileConfig) {
		if v == 2 || v == 3 {
			c.superblockVersion = uint8(v)
		}
	}
}

// DatasetOption configures CreateDataset.
type DatasetOption func(*datasetConfig)

type namedValue struct {
	name  string
	value interface{}
}

type datasetConfig struct {
	chunks     []uint64
	deflate    int
	shuffle    bool
	fletcher32 bool
	fill       interface{}
	attrs      []namedValue
}

// WithChunks stores the dataset in chunks of the given shape, clipped to
// the dataset extent.
func WithChunks(dims ...uint64) DatasetOption {
	return func(c *datasetConfig) { c.chunks = dims }
}

// WithCompression sets the deflate level, 1 to 9; 0 turns compression off.
// Without WithChunks the whole dataset becomes one chunk.
func WithCompression(level int) DatasetOption {
	return func(c *datasetConfig) {
		if level >= 0 && level <= 9 {
			c.deflate = level
		}
	}
}

// WithShuffle byte-shuffles chunks before compression.
func WithShuffle() DatasetOption {
	return func(c *datasetConfig) { c.shuffle = true }
}

// WithFletcher32 adds a checksum to every chunk.
func WithFletcher32() DatasetOption {
	return func(c *datasetConfig) { c.fletcher32 = true }
}

// WithFillValue sets what unwritten elements read as, converted to the
// dataset type.
func WithFillValue(v interface{}) DatasetOption {
	return func(c *datasetConfig) { c.fill = v }
}

// WithAttribute attaches an attribute. It may be given more than once.
func WithAttribute(name string, value interface{}) DatasetOption {
	return func(c *datasetConfig) { c.attrs = append(c.attrs, namedValue{name, value}) }
}

// filters is the pipeline in write order: shuffle, deflate, fletcher32.
// Shuffle and deflate are optional so other readers may skip them.
func (c *datasetConfig) filters(elemSize int) []message.FilterInfo {
	var out []message.FilterInfo
	if c.shuffle {
		out = append(out, message.FilterInfo{ID: message.FilterShuffle, Flags: 1, ClientData: []uint32{uint32(elemSize)}})
	}
	if c.deflate > 0 {
		out = append(out, message.FilterInfo{ID: message.FilterDeflate, Flags: 1, ClientData: []uint32{uint32(c.deflate)}})
	}
	if c.fletcher32 {
		out = append(out, message.FilterInfo{ID: message.FilterFletcher32})
	}
	return out
}
