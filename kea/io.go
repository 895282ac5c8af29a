package kea

import (
	"fmt"

	"github.com/robert-malhotra/go-kea/hdf5"
)

// selection converts a window into a hyperslab. The container checks the
// bounds; inverted or negative ranges are rejected here because they have
// no unsigned form.
func (img *Image) selection(win *Window) (start, count []uint64, rows, cols int, err error) {
	if win == nil {
		h, w := img.Height(), img.Width()
		return []uint64{0, 0}, []uint64{uint64(h), uint64(w)}, h, w, nil
	}
	if win.Y0 < 0 || win.X0 < 0 || win.Y1 < win.Y0 || win.X1 < win.X0 {
		return nil, nil, 0, 0, fmt.Errorf("window %s: %w", win, hdf5.ErrOutOfBounds)
	}
	rows, cols = win.Y1-win.Y0, win.X1-win.X0
	start = []uint64{uint64(win.Y0), uint64(win.X0)}
	count = []uint64{uint64(rows), uint64(cols)}
	return start, count, rows, cols, nil
}

// readPixels returns a window of band b in its declared type.
func (img *Image) readPixels(b *band, win *Window) (any, int, int, error) {
	start, count, rows, cols, err := img.selection(win)
	if err != nil {
		return nil, 0, 0, err
	}
	raw, err := b.data.ReadSliceRaw(start, count)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("band %d: %w", b.info.Index, err)
	}
	px, err := decodeLE(b.info.DataType, raw)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("band %d: %w", b.info.Index, err)
	}
	return px, rows, cols, nil
}

func (img *Image) readType(opts []ReadOption) DataType {
	o := readOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dataType == None {
		return img.PromotedType()
	}
	return o.dataType
}

// Read returns a window of one band as a (rows, cols) array. The element
// type is the promoted type of all bands unless AsType is given.
func (img *Image) Read(band int, win *Window, opts ...ReadOption) (*Array, error) {
	b, err := img.band(band)
	if err != nil {
		return nil, err
	}
	px, rows, cols, err := img.readPixels(b, win)
	if err != nil {
		return nil, err
	}
	dt := img.readType(opts)
	return &Array{dtype: dt, shape: []int{rows, cols}, data: castTo(px, dt)}, nil
}

// ReadBands returns a window of several bands as a (bands, rows, cols)
// array stacked in the order given. No bands means all of them.
func (img *Image) ReadBands(bands []int, win *Window, opts ...ReadOption) (*Array, error) {
	if err := img.checkOpen(); err != nil {
		return nil, err
	}
	bands = img.allIfEmpty(bands)
	selected, err := img.lookupAll(bands)
	if err != nil {
		return nil, err
	}
	_, _, rows, cols, err := img.selection(win)
	if err != nil {
		return nil, err
	}
	dt := img.readType(opts)
	out := NewArray(dt, len(bands), rows, cols)
	for i, b := range selected {
		px, _, _, err := img.readPixels(b, win)
		if err != nil {
			return nil, err
		}
		out.setPlane(i, castTo(px, dt))
	}
	return out, nil
}

// Write stores a (rows, cols) array into a window of one band, converting
// it to the band's declared type.
func (img *Image) Write(band int, arr *Array, win *Window) error {
	if arr == nil {
		return fmt.Errorf("band %d: nil array: %w", band, ErrInput)
	}
	b, err := img.band(band)
	if err != nil {
		return err
	}
	if arr.NDim() != 2 {
		return fmt.Errorf("band %d: data has %d dimensions and should be 2: %w", band, arr.NDim(), ErrShape)
	}
	return img.writePlane(b, arr.data, arr.shape[0], arr.shape[1], win)
}

// WriteBands stores a (bands, rows, cols) array, plane i going to
// bands[i]. Bands are written in order and a failure leaves the earlier
// ones written.
func (img *Image) WriteBands(bands []int, arr *Array, win *Window) error {
	selected, err := img.lookupAll(bands)
	if err != nil {
		return err
	}
	if err := checkStack(bands, arr); err != nil {
		return err
	}
	for i, b := range selected {
		plane, _ := arr.Plane(i)
		if err := img.writePlane(b, plane.data, arr.shape[1], arr.shape[2], win); err != nil {
			return err
		}
	}
	return nil
}

func (img *Image) writePlane(b *band, data any, rows, cols int, win *Window) error {
	if err := img.checkWritable(); err != nil {
		return err
	}
	start, count, wantRows, wantCols, err := img.selection(win)
	if err != nil {
		return err
	}
	if rows != wantRows || cols != wantCols {
		return fmt.Errorf("band %d: data is %dx%d, window %s is %dx%d: %w",
			b.info.Index, rows, cols, win, wantRows, wantCols, ErrShape)
	}
	raw, err := encodeLE(castTo(data, b.info.DataType))
	if err != nil {
		return err
	}
	if err := b.data.WriteSliceRaw(start, count, raw); err != nil {
		return fmt.Errorf("band %d: %w", b.info.Index, err)
	}
	return nil
}

// ReadMask returns a window of one band's mask as uint8 0/255 values.
// Without a MASK dataset the mask is derived from the no-data value: 255
// where the pixel differs from it, 0 where it matches, and 255 everywhere
// when the band has none.
func (img *Image) ReadMask(band int, win *Window) (*Array, error) {
	b, err := img.band(band)
	if err != nil {
		return nil, err
	}
	mask, rows, cols, err := img.readMask(b, win)
	if err != nil {
		return nil, err
	}
	return &Array{dtype: Uint8, shape: []int{rows, cols}, data: mask}, nil
}

// ReadMasks returns the masks of several bands as a (bands, rows, cols)
// uint8 array. No bands means all of them.
func (img *Image) ReadMasks(bands []int, win *Window) (*Array, error) {
	if err := img.checkOpen(); err != nil {
		return nil, err
	}
	bands = img.allIfEmpty(bands)
	selected, err := img.lookupAll(bands)
	if err != nil {
		return nil, err
	}
	_, _, rows, cols, err := img.selection(win)
	if err != nil {
		return nil, err
	}
	out := NewArray(Uint8, len(bands), rows, cols)
	for i, b := range selected {
		mask, _, _, err := img.readMask(b, win)
		if err != nil {
			return nil, err
		}
		out.setPlane(i, mask)
	}
	return out, nil
}

func (img *Image) readMask(b *band, win *Window) ([]uint8, int, int, error) {
	if b.mask == nil {
		px, rows, cols, err := img.readPixels(b, win)
		if err != nil {
			return nil, 0, 0, err
		}
		return validMask(px, b.info.NoData), rows, cols, nil
	}
	start, count, rows, cols, err := img.selection(win)
	if err != nil {
		return nil, 0, 0, err
	}
	raw, err := b.mask.ReadSliceRaw(start, count)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("band %d mask: %w", b.info.Index, err)
	}
	return raw, rows, cols, nil
}

// WriteMask marks pixels valid: every true element of a bool (rows, cols)
// array sets the mask to 255. False elements leave the mask unchanged, so
// clearing a mask needs an explicit write of the band's MASK dataset. The
// band must have a mask; see CreateMask.
func (img *Image) WriteMask(band int, arr *Array, win *Window) error {
	if arr == nil {
		return fmt.Errorf("band %d: nil mask array: %w", band, ErrInput)
	}
	if arr.DataType() != Bool {
		return fmt.Errorf("mask data is %s, want bool: %w", arr.DataType(), ErrType)
	}
	b, err := img.band(band)
	if err != nil {
		return err
	}
	if arr.NDim() != 2 {
		return fmt.Errorf("band %d: mask data has %d dimensions and should be 2: %w", band, arr.NDim(), ErrShape)
	}
	return img.paintMask(b, arr.data.([]bool), arr.shape[0], arr.shape[1], win)
}

// WriteMasks applies WriteMask for each plane of a bool (bands, rows,
// cols) array.
func (img *Image) WriteMasks(bands []int, arr *Array, win *Window) error {
	if arr == nil {
		return fmt.Errorf("nil mask array: %w", ErrInput)
	}
	if arr.DataType() != Bool {
		return fmt.Errorf("mask data is %s, want bool: %w", arr.DataType(), ErrType)
	}
	selected, err := img.lookupAll(bands)
	if err != nil {
		return err
	}
	if err := checkStack(bands, arr); err != nil {
		return err
	}
	for i, b := range selected {
		plane, _ := arr.Plane(i)
		if err := img.paintMask(b, plane.data.([]bool), arr.shape[1], arr.shape[2], win); err != nil {
			return err
		}
	}
	return nil
}

func (img *Image) paintMask(b *band, valid []bool, rows, cols int, win *Window) error {
	if err := img.checkWritable(); err != nil {
		return err
	}
	if b.mask == nil {
		return fmt.Errorf("band %d has no mask: %w", b.info.Index, ErrPrecondition)
	}
	start, count, wantRows, wantCols, err := img.selection(win)
	if err != nil {
		return err
	}
	if rows != wantRows || cols != wantCols {
		return fmt.Errorf("band %d: mask data is %dx%d, window %s is %dx%d: %w",
			b.info.Index, rows, cols, win, wantRows, wantCols, ErrShape)
	}
	mask, err := b.mask.ReadSliceRaw(start, count)
	if err != nil {
		return fmt.Errorf("band %d mask: %w", b.info.Index, err)
	}
	for i, v := range valid {
		if v {
			mask[i] = 255
		}
	}
	if err := b.mask.WriteSliceRaw(start, count, mask); err != nil {
		return fmt.Errorf("band %d mask: %w", b.info.Index, err)
	}
	return nil
}

func (img *Image) allIfEmpty(bands []int) []int {
	if len(bands) > 0 {
		return bands
	}
	all := make([]int, img.Count())
	for i := range all {
		all[i] = i + 1
	}
	return all
}

// lookupAll resolves every band before any I/O so that a bad index fails
// the whole call.
func (img *Image) lookupAll(bands []int) ([]*band, error) {
	out := make([]*band, len(bands))
	for i, n := range bands {
		b, err := img.band(n)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func checkStack(bands []int, arr *Array) error {
	if arr == nil {
		return fmt.Errorf("nil array: %w", ErrInput)
	}
	if arr.NDim() != 3 {
		return fmt.Errorf("data has %d dimensions and should be 3: %w", arr.NDim(), ErrShape)
	}
	if arr.shape[0] != len(bands) {
		return fmt.Errorf("number of bands, %d, doesn't match data shape, %d: %w", len(bands), arr.shape[0], ErrShape)
	}
	return nil
}
