package kea

import (
	"testing"

	"github.com/robert-malhotra/go-kea/hdf5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq[T number](n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(i)
	}
	return out
}

func TestWriteReadRoundTrip(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 4, Height: 3, Bands: 1, DataType: Float32})
	require.NoError(t, img.Write(1, MustFromSlice(seq[float32](12), 3, 4), nil))

	r := reopen(t, img, ReadOnly)
	got, err := r.Read(1, nil)
	require.NoError(t, err)
	assert.Equal(t, Float32, got.DataType())
	assert.Equal(t, []int{3, 4}, got.Shape())
	assert.Equal(t, seq[float32](12), got.Data())
}

func TestWriteConvertsToBandType(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 1, DataType: Int16})
	require.NoError(t, img.Write(1, MustFromSlice([]float64{1.7, -2, 3, 40000}, 2, 2), nil))

	got, err := img.Read(1, nil)
	require.NoError(t, err)
	v, err := Values[int16](got)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, -2, 3}, v[:3])
}

func TestReadWindow(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 5, Height: 4, Bands: 1, DataType: Uint16, Chunks: [2]int{2, 2}})
	require.NoError(t, img.Write(1, MustFromSlice(seq[uint16](20), 4, 5), nil))

	got, err := img.Read(1, &Window{Y0: 1, Y1: 3, X0: 2, X1: 5})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, got.Shape())
	assert.Equal(t, []uint16{7, 8, 9, 12, 13, 14}, got.Data())

	empty, err := img.Read(1, &Window{Y0: 2, Y1: 2, X0: 0, X1: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestWriteWindow(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 4, Height: 4, Bands: 1})
	win := &Window{Y0: 1, Y1: 3, X0: 1, X1: 3}
	require.NoError(t, img.Write(1, MustFromSlice([]uint8{1, 2, 3, 4}, 2, 2), win))

	r := reopen(t, img, ReadOnly)
	got, err := r.Read(1, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint8{
		0, 0, 0, 0,
		0, 1, 2, 0,
		0, 3, 4, 0,
		0, 0, 0, 0,
	}, got.Data())
}

func TestWindowBounds(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 4, Height: 4, Bands: 1})
	for _, win := range []*Window{
		{Y0: 0, Y1: 5, X0: 0, X1: 4},
		{Y0: 3, Y1: 1, X0: 0, X1: 4},
		{Y0: -1, Y1: 2, X0: 0, X1: 4},
		{Y0: 0, Y1: 2, X0: 2, X1: 6},
	} {
		_, err := img.Read(1, win)
		assert.ErrorIs(t, err, hdf5.ErrOutOfBounds, "window %s", win)
	}
}

func TestWriteShapeMismatch(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 4, Height: 4, Bands: 2})
	err := img.Write(1, NewArray(Uint8, 3, 3), nil)
	assert.ErrorIs(t, err, ErrShape)
	err = img.Write(1, NewArray(Uint8, 2, 2, 2), nil)
	assert.ErrorIs(t, err, ErrShape)

	err = img.WriteBands([]int{1, 2}, NewArray(Uint8, 3, 4, 4), nil)
	assert.ErrorIs(t, err, ErrShape)
	assert.Contains(t, err.Error(), "number of bands, 2, doesn't match data shape, 3")

	err = img.WriteBands([]int{1, 2}, NewArray(Uint8, 4, 4), nil)
	assert.ErrorIs(t, err, ErrShape)
	err = img.WriteBands([]int{1, 3}, NewArray(Uint8, 2, 4, 4), nil)
	assert.ErrorIs(t, err, ErrRange)
}

func TestReadBandsOrderAndType(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 1})
	_, err := img.AppendBand(WithDataType(Uint8))
	require.NoError(t, err)
	_, err = img.AppendBand(WithDataType(Float32))
	require.NoError(t, err)
	require.NoError(t, img.Write(1, MustFromSlice([]uint8{1, 2}, 1, 2), nil))
	require.NoError(t, img.Write(2, MustFromSlice([]float32{0.5, 1.5}, 1, 2), nil))

	got, err := img.ReadBands([]int{2, 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, Float32, got.DataType())
	assert.Equal(t, []int{2, 1, 2}, got.Shape())
	assert.Equal(t, []float32{0.5, 1.5, 1, 2}, got.Data())

	all, err := img.ReadBands(nil, nil, AsType(Float64))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 0.5, 1.5}, all.Data())

	one, err := img.Read(1, nil)
	require.NoError(t, err)
	assert.Equal(t, Float32, one.DataType())

	_, err = img.ReadBands([]int{1, 4}, nil)
	assert.ErrorIs(t, err, ErrRange)
}

func TestWriteBands(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 3, DataType: Int32})
	stack := MustFromSlice(seq[int32](8), 2, 2, 2)
	require.NoError(t, img.WriteBands([]int{3, 1}, stack, nil))

	r := reopen(t, img, ReadOnly)
	b3, err := r.Read(3, nil)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1, 2, 3}, b3.Data())
	b1, err := r.Read(1, nil)
	require.NoError(t, err)
	assert.Equal(t, []int32{4, 5, 6, 7}, b1.Data())
	b2, err := r.Read(2, nil)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 0, 0, 0}, b2.Data())
}

func TestNoDataFill(t *testing.T) {
	nd := -9999.0
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 1, DataType: Float32, NoData: &nd})
	got, err := img.Read(1, nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{-9999, -9999, -9999, -9999}, got.Data())

	r := reopen(t, img, ReadOnly)
	info, err := r.Band(1)
	require.NoError(t, err)
	require.NotNil(t, info.NoData)
	assert.Equal(t, -9999.0, *info.NoData)
}

func TestReadMaskFromNoData(t *testing.T) {
	nd := 0.0
	img := createImage(t, CreateOptions{Width: 3, Height: 1, Bands: 1, NoData: &nd})
	require.NoError(t, img.Write(1, MustFromSlice([]uint8{0, 7, 0}, 1, 3), nil))

	m, err := img.ReadMask(1, nil)
	require.NoError(t, err)
	assert.Equal(t, Uint8, m.DataType())
	assert.Equal(t, []uint8{0, 255, 0}, m.Data())
}

func TestReadMaskWithoutNoData(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 2})
	m, err := img.ReadMasks(nil, &Window{Y0: 0, Y1: 1, X0: 0, X1: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 2}, m.Shape())
	assert.Equal(t, []uint8{255, 255, 255, 255}, m.Data())
}

func TestWriteMaskPaintsTrueOnly(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 3, Height: 2, Bands: 1})
	require.NoError(t, img.CreateMask(1))

	ds, err := img.File().OpenDataset("/BAND1/MASK")
	require.NoError(t, err)
	require.NoError(t, ds.WriteRaw(make([]byte, 6)))

	valid := MustFromSlice([]bool{true, false, true, false, false, true}, 2, 3)
	require.NoError(t, img.WriteMask(1, valid, nil))

	r := reopen(t, img, ReadOnly)
	m, err := r.ReadMask(1, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 0, 255, 0, 0, 255}, m.Data())
}

func TestWriteMaskWindow(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 3, Height: 3, Bands: 2})
	require.NoError(t, img.CreateMask(1))
	require.NoError(t, img.CreateMask(2))
	for _, p := range []string{"/BAND1/MASK", "/BAND2/MASK"} {
		ds, err := img.File().OpenDataset(p)
		require.NoError(t, err)
		require.NoError(t, ds.WriteRaw(make([]byte, 9)))
	}

	valid := MustFromSlice([]bool{true, true, false, true}, 2, 1, 2)
	require.NoError(t, img.WriteMasks([]int{2, 1}, valid, &Window{Y0: 1, Y1: 2, X0: 1, X1: 3}))

	m, err := img.ReadMasks([]int{1, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint8{
		0, 0, 0, 0, 0, 255, 0, 0, 0,
		0, 0, 0, 0, 255, 255, 0, 0, 0,
	}, m.Data())
}

func TestWriteMaskErrors(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 1})

	err := img.WriteMask(9, NewArray(Uint8, 2, 2), nil)
	assert.ErrorIs(t, err, ErrType)
	err = img.WriteMasks([]int{9}, NewArray(Float32, 1, 2, 2), nil)
	assert.ErrorIs(t, err, ErrType)

	err = img.WriteMask(1, NewBoolArray(2, 2), nil)
	assert.ErrorIs(t, err, ErrPrecondition)

	require.NoError(t, img.CreateMask(1))
	err = img.WriteMask(1, NewBoolArray(1, 2), nil)
	assert.ErrorIs(t, err, ErrShape)
	err = img.WriteMask(1, NewBoolArray(2, 2, 1), nil)
	assert.ErrorIs(t, err, ErrShape)
}

func TestWriteNilArray(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 1})
	require.NoError(t, img.CreateMask(1))

	assert.ErrorIs(t, img.Write(1, nil, nil), ErrInput)
	assert.ErrorIs(t, img.WriteBands([]int{1}, nil, nil), ErrInput)
	assert.ErrorIs(t, img.WriteMask(1, nil, nil), ErrInput)
	assert.ErrorIs(t, img.WriteMasks([]int{1}, nil, nil), ErrInput)
}

func TestLinkedBandsShareData(t *testing.T) {
	img := createImage(t, CreateOptions{Width: 2, Height: 2, Bands: 1, DataType: Int8})
	n, err := img.AppendBand(LinkTo(1))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, img.Write(2, MustFromSlice([]int8{1, 2, 3, 4}, 2, 2), nil))
	b1, err := img.Read(1, nil)
	require.NoError(t, err)
	assert.Equal(t, []int8{1, 2, 3, 4}, b1.Data())

	r := reopen(t, img, ReadWrite)
	assert.Equal(t, Int8, r.DataTypes()[2])
	require.NoError(t, r.Write(1, MustFromSlice([]int8{-1, -2, -3, -4}, 2, 2), nil))
	b2, err := r.Read(2, nil)
	require.NoError(t, err)
	assert.Equal(t, []int8{-1, -2, -3, -4}, b2.Data())
}
