package kea

import (
	"fmt"
	"math"
	"slices"

	"github.com/robert-malhotra/go-kea/hdf5"
)

// Column is one named column of an attribute table. Values is a slice of
// bool, string, or any integer or float type.
type Column struct {
	Name   string
	Values any
}

// Table is a raster attribute table: named, typed columns of equal length
// in display order.
type Table struct {
	Columns []Column
}

// NewTable returns a table of the given columns.
func NewTable(cols ...Column) *Table {
	return &Table{Columns: cols}
}

// NumRows returns the length of the columns, 0 for an empty table.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	_, n, _ := ratTypeOf(t.Columns[0].Values)
	return n
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// validate checks column types, lengths and names, returning the row
// count.
func (t *Table) validate() (int, error) {
	rows := -1
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seen[c.Name] {
			return 0, fmt.Errorf("duplicate column %q: %w", c.Name, ErrInput)
		}
		seen[c.Name] = true
		_, n, err := ratTypeOf(c.Values)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", c.Name, err)
		}
		if rows >= 0 && n != rows {
			return 0, fmt.Errorf("column %q has %d rows, want %d: %w", c.Name, n, rows, ErrShape)
		}
		rows = n
	}
	return max(rows, 0), nil
}

// ratTypeOf returns the storage category and length of a column.
func ratTypeOf(values any) (RatType, int, error) {
	switch v := values.(type) {
	case []bool:
		return RatBool, len(v), nil
	case []string:
		return RatString, len(v), nil
	}
	dt, n, ok := typeOfSlice(values)
	if !ok {
		return 0, 0, fmt.Errorf("column values of %T: %w", values, ErrType)
	}
	if dt.IsFloat() {
		return RatFloat, n, nil
	}
	if u, ok := values.([]uint64); ok {
		for i, x := range u {
			if x > math.MaxInt64 {
				return 0, 0, fmt.Errorf("row %d value %d overflows int64: %w", i, x, ErrType)
			}
		}
	}
	return RatInt, n, nil
}

// ratStorage returns the container type of a category's data dataset.
func ratStorage(t RatType) *hdf5.Datatype {
	switch t {
	case RatBool:
		return hdf5.Uint8()
	case RatInt:
		return hdf5.Int64()
	case RatFloat:
		return hdf5.Float64()
	}
	return hdf5.VarString()
}

// ratFieldType is the record type of the <CAT>_FIELDS datasets.
func ratFieldType() *hdf5.Datatype {
	return hdf5.Compound(
		hdf5.Field{Name: "NAME", Type: hdf5.VarString()},
		hdf5.Field{Name: "INDEX", Type: hdf5.Uint32()},
		hdf5.Field{Name: "USAGE", Type: hdf5.VarString()},
		hdf5.Field{Name: "COLNUM", Type: hdf5.Uint32()},
	)
}

// DefaultUsage is the usage tag of columns WriteRAT is given none for.
const DefaultUsage = "Generic"

// RATField describes one stored column.
type RATField struct {
	Name  string
	Usage string
	Type  RatType
	// Local is the column's position in its category dataset.
	Local int
	// Global is the column's position in the table.
	Global int
}

// RATInfo summarises a band's attribute table.
type RATInfo struct {
	Rows      int
	ChunkSize int
	// Counts holds the number of columns per category, indexed by RatType.
	Counts [4]int
	// Fields lists the columns in table order.
	Fields []RATField
}

// ratLookup maps column names to their storage, built by loadRAT.
type ratLookup struct {
	RATInfo
	columns map[string]*ratColumn
}

type ratColumn struct {
	RATField
	data *hdf5.Dataset
}

// loadRAT reads the ATT/HEADER records of a band group. A band without
// them has an empty table.
func loadRAT(g *hdf5.Group) (*ratLookup, error) {
	lk := &ratLookup{columns: make(map[string]*ratColumn)}
	if !g.Has("ATT/HEADER/SIZE") {
		return lk, nil
	}
	size, err := getUint64s(g, "ATT/HEADER/SIZE")
	if err != nil {
		return nil, err
	}
	if len(size) < 5 {
		return nil, fmt.Errorf("ATT/HEADER/SIZE has %d values, want 5: %w", len(size), ErrShape)
	}
	lk.Rows = int(size[0])
	if g.Has("ATT/HEADER/CHUNKSIZE") {
		chunk, err := getFirst(g, "ATT/HEADER/CHUNKSIZE")
		if err != nil {
			return nil, err
		}
		lk.ChunkSize = int(chunk)
	}

	total := 0
	for _, t := range ratTypes {
		lk.Counts[t] = int(size[t+1])
		total += lk.Counts[t]
	}
	lk.Fields = make([]RATField, total)
	placed := make([]bool, total)
	for _, t := range ratTypes {
		if lk.Counts[t] == 0 {
			continue
		}
		data, err := openDataset(g, "ATT/DATA/"+t.dataset())
		if err != nil {
			return nil, err
		}
		fields, err := openDataset(g, "ATT/HEADER/"+t.fields())
		if err != nil {
			return nil, err
		}
		recs, err := fields.ReadRecords()
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			col, err := parseField(rec, t)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fields.Path(), err)
			}
			if col.Global >= total || placed[col.Global] || col.Local >= lk.Counts[t] {
				return nil, fmt.Errorf("%s: column %q at %d/%d does not fit %d columns: %w",
					fields.Path(), col.Name, col.Local, col.Global, total, ErrShape)
			}
			placed[col.Global] = true
			lk.Fields[col.Global] = col
			lk.columns[col.Name] = &ratColumn{RATField: col, data: data}
		}
	}
	if i := slices.Index(placed, false); i >= 0 {
		return nil, fmt.Errorf("no column at table position %d: %w", i, ErrShape)
	}
	return lk, nil
}

func parseField(rec hdf5.Record, t RatType) (RATField, error) {
	f := RATField{Type: t}
	var ok bool
	if f.Name, ok = rec["NAME"].(string); !ok {
		return f, fmt.Errorf("field record without NAME: %w", ErrType)
	}
	f.Usage, _ = rec["USAGE"].(string)
	local, err := toInt(rec["INDEX"])
	if err != nil {
		return f, fmt.Errorf("field %q INDEX: %w", f.Name, err)
	}
	global, err := toInt(rec["COLNUM"])
	if err != nil {
		return f, fmt.Errorf("field %q COLNUM: %w", f.Name, err)
	}
	f.Local, f.Global = local, global
	return f, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	}
	return 0, fmt.Errorf("value %v of %T: %w", v, v, ErrType)
}

// RATInfo returns the attribute table summary of a band without reading
// any column data.
func (img *Image) RATInfo(band int) (RATInfo, error) {
	b, err := img.band(band)
	if err != nil {
		return RATInfo{}, err
	}
	info := b.rat.RATInfo
	info.Fields = append([]RATField(nil), info.Fields...)
	return info, nil
}

// ReadRAT returns a band's attribute table. Columns come in table order,
// or in the order given by Columns. Bool columns decode as []bool, integer
// columns as []int64, float columns as []float64 and text as []string.
func (img *Image) ReadRAT(band int, opts ...RATReadOption) (*Table, error) {
	b, err := img.band(band)
	if err != nil {
		return nil, err
	}
	o := ratReadOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	lk := b.rat

	names := o.columns
	if names == nil {
		names = make([]string, len(lk.Fields))
		for i, f := range lk.Fields {
			names[i] = f.Name
		}
	}
	for _, name := range names {
		if _, ok := lk.columns[name]; !ok {
			valid := make([]string, len(lk.Fields))
			for i, f := range lk.Fields {
				valid[i] = f.Name
			}
			return nil, fmt.Errorf("band %d: column %q; valid columns are %q: %w", band, name, valid, ErrLookup)
		}
	}

	start, end := 0, lk.Rows
	if o.ranged {
		start, end = o.start, o.end
	}
	if start < 0 || end < start || end > lk.Rows {
		return nil, fmt.Errorf("band %d: rows [%d, %d) of %d: %w", band, start, end, lk.Rows, hdf5.ErrOutOfBounds)
	}

	strs := make(map[*hdf5.Dataset][]string)
	t := &Table{Columns: make([]Column, 0, len(names))}
	for _, name := range names {
		col := lk.columns[name]
		values, err := readColumn(col, start, end, strs)
		if err != nil {
			return nil, fmt.Errorf("band %d: column %q: %w", band, name, err)
		}
		t.Columns = append(t.Columns, Column{Name: name, Values: values})
	}
	return t, nil
}

// readColumn slices rows [start, end) of one column. String datasets are
// read whole once per call and cached in strs.
func readColumn(col *ratColumn, start, end int, strs map[*hdf5.Dataset][]string) (any, error) {
	n := end - start
	if col.Type == RatString {
		all, ok := strs[col.data]
		if !ok {
			var err error
			if all, err = col.data.ReadStrings(); err != nil {
				return nil, err
			}
			strs[col.data] = all
		}
		dims := col.data.Dims()
		if len(dims) != 2 || uint64(len(all)) != dims[0]*dims[1] {
			return nil, fmt.Errorf("string data of shape %v: %w", dims, ErrShape)
		}
		ncols := int(dims[1])
		out := make([]string, n)
		for i := range out {
			out[i] = all[(start+i)*ncols+col.Local]
		}
		return out, nil
	}

	dt, err := dataTypeOf(col.data.Datatype())
	if err != nil {
		return nil, err
	}
	px := makeSlice(dt, 0)
	if n > 0 {
		raw, err := col.data.ReadSliceRaw([]uint64{uint64(start), uint64(col.Local)}, []uint64{uint64(n), 1})
		if err != nil {
			return nil, err
		}
		if px, err = decodeLE(dt, raw); err != nil {
			return nil, err
		}
	}
	switch col.Type {
	case RatBool:
		return castBool(px), nil
	case RatInt:
		return castSlice[int64](px), nil
	default:
		return castSlice[float64](px), nil
	}
}

// WriteRAT replaces a band's attribute table. Columns are grouped by
// category into ATT/DATA/{BOOL,INT,FLOAT,STRING}, each with a record
// dataset under ATT/HEADER holding the name, position in the category,
// usage and position in the table. Categories without columns are not
// stored.
func (img *Image) WriteRAT(band int, t *Table, opts ...RATWriteOption) error {
	if err := img.checkWritable(); err != nil {
		return err
	}
	b, err := img.band(band)
	if err != nil {
		return err
	}
	o := ratWriteOptions{chunkSize: DefaultRATChunkSize, compression: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.chunkSize <= 0 {
		return fmt.Errorf("band %d: chunk size %d: %w", band, o.chunkSize, ErrInput)
	}
	if o.compression < 0 || o.compression > 9 {
		return fmt.Errorf("band %d: deflate level %d: %w", band, o.compression, ErrInput)
	}
	rows, err := t.validate()
	if err != nil {
		return fmt.Errorf("band %d: %w", band, err)
	}
	for name := range o.usage {
		if _, ok := t.Column(name); !ok {
			return fmt.Errorf("band %d: usage names column %q not in table %q: %w", band, name, t.Names(), ErrInput)
		}
	}

	var groups [4][]int
	for i, c := range t.Columns {
		cat, _, _ := ratTypeOf(c.Values)
		groups[cat] = append(groups[cat], i)
	}
	chunk := max(min(o.chunkSize, rows), 1)

	data, err := b.group.CreateGroup("ATT/DATA")
	if err != nil {
		return err
	}
	hdr, err := b.group.CreateGroup("ATT/HEADER")
	if err != nil {
		return err
	}
	for _, cat := range ratTypes {
		if err := deleteIfExists(data, cat.dataset()); err != nil {
			return err
		}
		if err := deleteIfExists(hdr, cat.fields()); err != nil {
			return err
		}
	}
	if err := putValues(hdr, "CHUNKSIZE", hdf5.Uint64(), []uint64{uint64(chunk)}); err != nil {
		return err
	}
	size := []uint64{uint64(rows), 0, 0, 0, 0}
	for _, cat := range ratTypes {
		size[cat+1] = uint64(len(groups[cat]))
	}
	if err := putValues(hdr, "SIZE", hdf5.Uint64(), size); err != nil {
		return err
	}

	for _, cat := range ratTypes {
		if len(groups[cat]) == 0 {
			continue
		}
		if err := writeCategory(data, hdr, t, cat, groups[cat], rows, chunk, &o); err != nil {
			return fmt.Errorf("band %d: %s columns: %w", band, cat, err)
		}
	}
	if err := img.resync(); err != nil {
		return err
	}
	img.log.Debug("attribute table written", "band", band, "rows", rows, "columns", len(t.Columns))
	return nil
}

// writeCategory stores the columns idx of t as one (rows, len(idx))
// dataset in row-major order, plus its field records.
func writeCategory(data, hdr *hdf5.Group, t *Table, cat RatType, idx []int, rows, chunk int, o *ratWriteOptions) error {
	ncols := len(idx)
	dsOpts := []hdf5.DatasetOption{hdf5.WithChunks(uint64(chunk), 1), hdf5.WithCompression(o.compression)}
	if o.shuffle {
		dsOpts = append(dsOpts, hdf5.WithShuffle())
	}
	ds, err := data.CreateDataset(cat.dataset(), ratStorage(cat), []uint64{uint64(rows), uint64(ncols)}, dsOpts...)
	if err != nil {
		return err
	}

	recs := make([]hdf5.Record, ncols)
	for local, global := range idx {
		c := t.Columns[global]
		tag := o.usage[c.Name]
		if tag == "" {
			tag = DefaultUsage
		}
		recs[local] = hdf5.Record{
			"NAME":   c.Name,
			"INDEX":  uint32(local),
			"USAGE":  tag,
			"COLNUM": uint32(global),
		}
	}

	switch cat {
	case RatString:
		buf := make([]string, rows*ncols)
		for local, global := range idx {
			interleave(buf, t.Columns[global].Values.([]string), local, ncols)
		}
		err = ds.WriteStrings(buf)
	case RatBool:
		buf := make([]uint8, rows*ncols)
		for local, global := range idx {
			interleave(buf, castSlice[uint8](t.Columns[global].Values), local, ncols)
		}
		err = writeRaw(ds, buf)
	case RatInt:
		buf := make([]int64, rows*ncols)
		for local, global := range idx {
			interleave(buf, castSlice[int64](t.Columns[global].Values), local, ncols)
		}
		err = writeRaw(ds, buf)
	case RatFloat:
		buf := make([]float64, rows*ncols)
		for local, global := range idx {
			interleave(buf, castSlice[float64](t.Columns[global].Values), local, ncols)
		}
		err = writeRaw(ds, buf)
	}
	if err != nil {
		return err
	}

	fields, err := hdr.CreateDataset(cat.fields(), ratFieldType(), []uint64{uint64(ncols)})
	if err != nil {
		return err
	}
	return fields.WriteRecords(recs)
}

// interleave places column values at position col of each row of buf.
func interleave[T any](buf, values []T, col, ncols int) {
	for r, v := range values {
		buf[r*ncols+col] = v
	}
}

func writeRaw(ds *hdf5.Dataset, values any) error {
	raw, err := encodeLE(values)
	if err != nil {
		return err
	}
	return ds.WriteRaw(raw)
}

func deleteIfExists(g *hdf5.Group, name string) error {
	if err := g.Delete(name); err != nil && !isNotFound(err) {
		return err
	}
	return nil
}
