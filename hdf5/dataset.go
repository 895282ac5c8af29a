package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/go-kea/internal/dtype"
	"github.com/robert-malhotra/go-kea/internal/layout"
	"github.com/robert-malhotra/go-kea/internal/message"
)

// Record is one element of a compound dataset, keyed by member name.
type Record map[string]interface{}

// Dataset represents an HDF5 dataset.
//
// The payload lives in one of three states: on disk behind src, in memory
// in raw, or nowhere, in which case every element reads as the fill value.
type Dataset struct {
	attrSet
	path    string
	dims    []uint64
	dt      *Datatype
	chunks  []uint64
	filters []message.FilterInfo
	fill    []byte

	src     layout.Layout
	srcStrs dtype.Strings
	raw     []byte
	strs    *stringTable
}

// Name returns the dataset name (last path component).
func (d *Dataset) Name() string {
	return path.Base(d.path)
}

// Path returns the path the dataset was first reached by.
func (d *Dataset) Path() string {
	return d.path
}

// Dims returns the dataset dimensions.
func (d *Dataset) Dims() []uint64 {
	return append([]uint64(nil), d.dims...)
}

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int {
	return len(d.dims)
}

// NumElements returns the total number of elements.
func (d *Dataset) NumElements() uint64 {
	n := uint64(1)
	for _, dim := range d.dims {
		n *= dim
	}
	return n
}

// Datatype returns the element type.
func (d *Dataset) Datatype() *Datatype {
	return d.dt
}

// Chunks returns the chunk dimensions, nil for contiguous storage.
func (d *Dataset) Chunks() []uint64 {
	if d.chunks == nil {
		return nil
	}
	return append([]uint64(nil), d.chunks...)
}

// Filters returns the filter pipeline applied to each chunk.
func (d *Dataset) Filters() []message.FilterInfo {
	return append([]message.FilterInfo(nil), d.filters...)
}

// Compression returns the deflate level, 0 when uncompressed.
func (d *Dataset) Compression() int {
	for _, f := range d.filters {
		if f.ID == message.FilterDeflate {
			if len(f.ClientData) > 0 {
				return int(f.ClientData[0])
			}
			return 6
		}
	}
	return 0
}

// Shuffle reports whether the shuffle filter is applied.
func (d *Dataset) Shuffle() bool {
	return d.hasFilter(message.FilterShuffle)
}

func (d *Dataset) hasFilter(id uint16) bool {
	for _, f := range d.filters {
		if f.ID == id {
			return true
		}
	}
	return false
}

// FillValue returns the encoded fill value, nil when none was set.
func (d *Dataset) FillValue() []byte {
	if d.fill == nil {
		return nil
	}
	return append([]byte(nil), d.fill...)
}

func (d *Dataset) elemSize() uint64 {
	return uint64(d.dt.Size())
}

// ReadRaw returns the whole dataset as little-endian element bytes in
// row-major order.
func (d *Dataset) ReadRaw() ([]byte, error) {
	if err := d.file.checkOpen(); err != nil {
		return nil, err
	}
	if d.dt.hasVarLen() {
		return nil, fmt.Errorf("%s: raw access to variable-length data: %w", d.path, ErrType)
	}
	switch {
	case d.raw != nil:
		return append([]byte(nil), d.raw...), nil
	case d.src != nil:
		return d.src.Read()
	default:
		return layout.FillBuffer(d.NumElements(), d.elemSize(), d.fill), nil
	}
}

// ReadSliceRaw reads the hyperslab of count elements per dimension
// starting at start.
func (d *Dataset) ReadSliceRaw(start, count []uint64) ([]byte, error) {
	if err := d.file.checkOpen(); err != nil {
		return nil, err
	}
	if d.dt.hasVarLen() {
		return nil, fmt.Errorf("%s: raw access to variable-length data: %w", d.path, ErrType)
	}
	if err := layout.ValidateSlice(d.dims, start, count); err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}
	n := uint64(1)
	for _, c := range count {
		n *= c
	}
	switch {
	case d.raw != nil:
		out := make([]byte, n*d.elemSize())
		layout.CopyBlock(out, count, make([]uint64, len(count)), d.raw, d.dims, start, count, d.elemSize())
		return out, nil
	case d.src != nil:
		return d.src.ReadSlice(start, count)
	default:
		return layout.FillBuffer(n, d.elemSize(), d.fill), nil
	}
}

// WriteRaw replaces the whole dataset.
func (d *Dataset) WriteRaw(b []byte) error {
	if err := d.file.checkWritable(); err != nil {
		return err
	}
	if d.dt.hasVarLen() {
		return fmt.Errorf("%s: raw access to variable-length data: %w", d.path, ErrType)
	}
	if want := d.NumElements() * d.elemSize(); uint64(len(b)) != want {
		return fmt.Errorf("%s: got %d bytes, want %d: %w", d.path, len(b), want, ErrSize)
	}
	d.raw = append([]byte(nil), b...)
	d.src, d.srcStrs = nil, nil
	return nil
}

// WriteSliceRaw overwrites the hyperslab of count elements per dimension
// starting at start; b holds the slice in row-major order.
func (d *Dataset) WriteSliceRaw(start, count []uint64, b []byte) error {
	if err := d.file.checkWritable(); err != nil {
		return err
	}
	if d.dt.hasVarLen() {
		return fmt.Errorf("%s: raw access to variable-length data: %w", d.path, ErrType)
	}
	if err := layout.ValidateSlice(d.dims, start, count); err != nil {
		return fmt.Errorf("%s: %w", d.path, err)
	}
	n := uint64(1)
	for _, c := range count {
		n *= c
	}
	if want := n * d.elemSize(); uint64(len(b)) != want {
		return fmt.Errorf("%s: got %d bytes, want %d: %w", d.path, len(b), want, ErrSize)
	}
	if err := d.load(); err != nil {
		return err
	}
	layout.CopyBlock(d.raw, d.dims, start, b, count, make([]uint64, len(count)), count, d.elemSize())
	return nil
}

// Read converts the whole dataset into dest, a pointer to a slice of a
// compatible Go type.
func (d *Dataset) Read(dest interface{}) error {
	if err := d.file.checkOpen(); err != nil {
		return err
	}
	if err := d.load(); err != nil {
		return err
	}
	return dtype.ConvertWith(d.dt.m, d.raw, d.NumElements(), dest, d.strs)
}

// Write encodes a slice of Go values as the whole dataset, converting
// numbers to the stored type.
func (d *Dataset) Write(data interface{}) error {
	if err := d.file.checkWritable(); err != nil {
		return err
	}
	strs := &stringTable{}
	raw, err := dtype.EncodeWith(d.dt.m, data, strs)
	if err != nil {
		return fmt.Errorf("%s: %w", d.path, err)
	}
	if want := d.NumElements() * d.elemSize(); uint64(len(raw)) != want {
		return fmt.Errorf("%s: got %d elements, want %d: %w", d.path, uint64(len(raw))/d.elemSize(), d.NumElements(), ErrSize)
	}
	d.raw, d.strs = raw, strs
	d.src, d.srcStrs = nil, nil
	return nil
}

// ReadStrings returns the elements of a string dataset.
func (d *Dataset) ReadStrings() ([]string, error) {
	if d.dt.Class() != ClassString {
		return nil, fmt.Errorf("%s: %s is not a string type: %w", d.path, d.dt, ErrType)
	}
	var out []string
	if err := d.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteStrings replaces the elements of a string dataset.
func (d *Dataset) WriteStrings(s []string) error {
	if d.dt.Class() != ClassString {
		return fmt.Errorf("%s: %s is not a string type: %w", d.path, d.dt, ErrType)
	}
	return d.Write(s)
}

// ReadRecords returns the elements of a compound dataset.
func (d *Dataset) ReadRecords() ([]Record, error) {
	if d.dt.Class() != ClassCompound {
		return nil, fmt.Errorf("%s: %s is not a compound type: %w", d.path, d.dt, ErrType)
	}
	var maps []map[string]interface{}
	if err := d.Read(&maps); err != nil {
		return nil, err
	}
	recs := make([]Record, len(maps))
	for i, m := range maps {
		recs[i] = m
	}
	return recs, nil
}

// WriteRecords replaces the elements of a compound dataset. Members absent
// from a record are stored as zero.
func (d *Dataset) WriteRecords(recs []Record) error {
	if d.dt.Class() != ClassCompound {
		return fmt.Errorf("%s: %s is not a compound type: %w", d.path, d.dt, ErrType)
	}
	maps := make([]map[string]interface{}, len(recs))
	for i, r := range recs {
		maps[i] = r
	}
	return d.Write(maps)
}

// load brings the payload into memory.
func (d *Dataset) load() error {
	if d.raw != nil {
		return nil
	}
	if d.src == nil {
		d.raw = layout.FillBuffer(d.NumElements(), d.elemSize(), d.fill)
		d.strs = &stringTable{}
		return nil
	}
	raw, err := d.src.Read()
	if err != nil {
		return fmt.Errorf("reading %s: %w", d.path, err)
	}
	strs := &stringTable{}
	if d.dt.hasVarLen() {
		if strs, err = rebindStrings(raw, d.dt, d.srcStrs); err != nil {
			return fmt.Errorf("reading %s: %w", d.path, err)
		}
	}
	d.raw, d.strs = raw, strs
	d.src, d.srcStrs = nil, nil
	return nil
}

// payload returns the bytes to store and the resolver for their string
// slots. A nil payload means the dataset was never written.
func (d *Dataset) payload() ([]byte, dtype.Strings, error) {
	if d.raw != nil {
		return d.raw, d.strs, nil
	}
	if d.src == nil {
		return nil, nil, nil
	}
	raw, err := d.src.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", d.path, err)
	}
	return raw, d.srcStrs, nil
}

// ReadFloat64 reads the dataset as float64 values.
func (d *Dataset) ReadFloat64() ([]float64, error) {
	var out []float64
	err := d.Read(&out)
	return out, err
}

// ReadUint64 reads the dataset as uint64 values.
func (d *Dataset) ReadUint64() ([]uint64, error) {
	var out []uint64
	err := d.Read(&out)
	return out, err
}

// ReadInt64 reads the dataset as int64 values.
func (d *Dataset) ReadInt64() ([]int64, error) {
	var out []int64
	err := d.Read(&out)
	return out, err
}
