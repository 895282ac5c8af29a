package kea

import (
	"math"
	"testing"

	"github.com/robert-malhotra/go-kea/hdf5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classTable() *Table {
	return NewTable(
		Column{Name: "class", Values: []int32{1, 2, 3}},
		Column{Name: "area", Values: []float64{10.5, 20, 0.25}},
		Column{Name: "name", Values: []string{"water", "", "forest"}},
	)
}

func usageOf(info RATInfo, name string) string {
	for _, f := range info.Fields {
		if f.Name == name {
			return f.Usage
		}
	}
	return ""
}

func TestRATColumnSubsetAndUsage(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 1})
	require.NoError(t, img.WriteRAT(1, classTable(), Usage(map[string]string{"area": "PixelCount"})))

	r := reopen(t, img, ReadOnly)
	got, err := r.ReadRAT(1, Columns("name", "class"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "class"}, got.Names())
	assert.Equal(t, []string{"water", "", "forest"}, got.Columns[0].Values)
	assert.Equal(t, []int64{1, 2, 3}, got.Columns[1].Values)

	info, err := r.RATInfo(1)
	require.NoError(t, err)
	assert.Equal(t, "PixelCount", usageOf(info, "area"))
	assert.Equal(t, "Generic", usageOf(info, "class"))
	assert.Equal(t, "Generic", usageOf(info, "name"))
}

func TestRATAllCategories(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 1})
	table := NewTable(
		Column{Name: "f1", Values: []float32{0.5, 1.5}},
		Column{Name: "flag", Values: []bool{true, false}},
		Column{Name: "label", Values: []string{"a", "b"}},
		Column{Name: "count", Values: []uint16{7, 9}},
		Column{Name: "f2", Values: []float64{-1, 2}},
		Column{Name: "id", Values: []int64{-5, 5}},
	)
	require.NoError(t, img.WriteRAT(1, table))

	r := reopen(t, img, ReadOnly)
	info, err := r.RATInfo(1)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, [4]int{1, 2, 2, 1}, info.Counts)
	require.Len(t, info.Fields, 6)
	assert.Equal(t, RATField{Name: "count", Usage: "Generic", Type: RatInt, Local: 0, Global: 3}, info.Fields[3])
	assert.Equal(t, RATField{Name: "id", Usage: "Generic", Type: RatInt, Local: 1, Global: 5}, info.Fields[5])

	got, err := r.ReadRAT(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "flag", "label", "count", "f2", "id"}, got.Names())
	want := []any{
		[]float64{0.5, 1.5},
		[]bool{true, false},
		[]string{"a", "b"},
		[]int64{7, 9},
		[]float64{-1, 2},
		[]int64{-5, 5},
	}
	for i, c := range got.Columns {
		assert.Equal(t, want[i], c.Values, "column %s", c.Name)
	}
	assert.Equal(t, 2, r.Bands()[0].RATRows)
}

func TestRATRows(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 1})
	require.NoError(t, img.WriteRAT(1, classTable()))

	got, err := img.ReadRAT(1, Rows(1, 3), Columns("area", "name"))
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 0.25}, got.Columns[0].Values)
	assert.Equal(t, []string{"", "forest"}, got.Columns[1].Values)

	empty, err := img.ReadRAT(1, Rows(2, 2))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumRows())
	assert.Equal(t, 3, empty.NumColumns())

	for _, rows := range [][2]int{{0, 4}, {-1, 2}, {2, 1}} {
		_, err := img.ReadRAT(1, Rows(rows[0], rows[1]))
		assert.ErrorIs(t, err, hdf5.ErrOutOfBounds, "rows %v", rows)
	}
}

func TestRATUnknownColumn(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 1})
	require.NoError(t, img.WriteRAT(1, classTable()))

	_, err := img.ReadRAT(1, Columns("class", "colour"))
	assert.ErrorIs(t, err, ErrLookup)
	assert.Contains(t, err.Error(), `"colour"`)
	assert.Contains(t, err.Error(), `"area"`)
}

func TestRATWriteErrors(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 1})

	err := img.WriteRAT(2, classTable())
	assert.ErrorIs(t, err, ErrRange)
	err = img.WriteRAT(1, classTable(), ChunkSize(0))
	assert.ErrorIs(t, err, ErrInput)
	err = img.WriteRAT(1, classTable(), Usage(map[string]string{"height": "Max"}))
	assert.ErrorIs(t, err, ErrInput)

	ragged := NewTable(
		Column{Name: "a", Values: []int8{1, 2}},
		Column{Name: "b", Values: []int8{1}},
	)
	assert.ErrorIs(t, img.WriteRAT(1, ragged), ErrShape)

	dup := NewTable(
		Column{Name: "a", Values: []int8{1}},
		Column{Name: "a", Values: []int8{2}},
	)
	assert.ErrorIs(t, img.WriteRAT(1, dup), ErrInput)

	bad := NewTable(Column{Name: "a", Values: []complex128{1}})
	assert.ErrorIs(t, img.WriteRAT(1, bad), ErrType)

	huge := NewTable(Column{Name: "id", Values: []uint64{math.MaxUint64, 5}})
	assert.ErrorIs(t, img.WriteRAT(1, huge), ErrType)
	err = img.WriteRAT(1, classTable(), RATCompression(10))
	assert.ErrorIs(t, err, ErrInput)

	info, err := img.RATInfo(1)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Rows)
}

func TestRATChunkSize(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 2})
	require.NoError(t, img.WriteRAT(1, classTable(), ChunkSize(100)))
	require.NoError(t, img.WriteRAT(2, classTable(), ChunkSize(2)))

	r := reopen(t, img, ReadOnly)
	info, err := r.RATInfo(1)
	require.NoError(t, err)
	assert.Equal(t, 3, info.ChunkSize)
	ds, err := r.File().OpenDataset("/BAND1/ATT/DATA/FLOAT")
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 1}, ds.Chunks())

	info, err = r.RATInfo(2)
	require.NoError(t, err)
	assert.Equal(t, 2, info.ChunkSize)
	ds, err = r.File().OpenDataset("/BAND2/ATT/DATA/INT")
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 1}, ds.Chunks())
	assert.Equal(t, 1, ds.Compression())
}

func TestRATUint64Range(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 1})
	tbl := NewTable(Column{Name: "id", Values: []uint64{math.MaxInt64, 5}})
	require.NoError(t, img.WriteRAT(1, tbl))

	got, err := img.ReadRAT(1)
	require.NoError(t, err)
	assert.Equal(t, []int64{math.MaxInt64, 5}, got.Columns[0].Values)
}

func TestRATStorageFilters(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 2})
	require.NoError(t, img.WriteRAT(1, classTable()))
	require.NoError(t, img.WriteRAT(2, classTable(), RATCompression(0), RATShuffle()))

	r := reopen(t, img, ReadOnly)
	ds, err := r.File().OpenDataset("/BAND1/ATT/DATA/INT")
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Compression())
	assert.False(t, ds.Shuffle())

	ds, err = r.File().OpenDataset("/BAND2/ATT/DATA/FLOAT")
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Compression())
	assert.True(t, ds.Shuffle())
	got, err := r.ReadRAT(2)
	require.NoError(t, err)
	assert.Equal(t, classTable().Names(), got.Names())
}

func TestRATReplace(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 1})
	require.NoError(t, img.WriteRAT(1, classTable()))
	require.NoError(t, img.WriteRAT(1, NewTable(Column{Name: "hist", Values: []uint32{4, 5, 6, 7}})))

	r := reopen(t, img, ReadOnly)
	assert.False(t, r.File().Root().Has("BAND1/ATT/DATA/STRING"))
	assert.False(t, r.File().Root().Has("BAND1/ATT/HEADER/FLOAT_FIELDS"))

	got, err := r.ReadRAT(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"hist"}, got.Names())
	assert.Equal(t, []int64{4, 5, 6, 7}, got.Columns[0].Values)
}

func TestRATEmptyBand(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 1})
	got, err := img.ReadRAT(1)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumColumns())

	info, err := img.RATInfo(1)
	require.NoError(t, err)
	assert.Equal(t, 0, info.ChunkSize)
	assert.Empty(t, info.Fields)
}
