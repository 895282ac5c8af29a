package hdf5

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func tempFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.h5")
}

func mustCreate(t *testing.T, path string) *File {
	t.Helper()
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return f
}

func mustOpen(t *testing.T, path string) *File {
	t.Helper()
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestCreateEmpty(t *testing.T) {
	path := tempFile(t)
	f := mustCreate(t, path)
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r := mustOpen(t, path)
	if n := r.Root().NumObjects(); n != 0 {
		t.Errorf("root has %d objects, want 0", n)
	}
	if r.Version() != 3 {
		t.Errorf("superblock version = %d, want 3", r.Version())
	}
	if r.Writable() {
		t.Error("Open returned a writable file")
	}
}

func TestOpenNotHDF5(t *testing.T) {
	path := tempFile(t)
	if err := os.WriteFile(path, []byte("definitely not hdf5"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrNotHDF5) {
		t.Fatalf("Open error = %v, want ErrNotHDF5", err)
	}
}

func TestGroupsAndAttributes(t *testing.T) {
	path := tempFile(t)
	f := mustCreate(t, path)

	g, err := f.Root().CreateGroup("HEADER/INFO")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	again, err := f.Root().CreateGroup("/HEADER/INFO")
	if err != nil || again != g {
		t.Fatalf("CreateGroup is not create-or-get: %v", err)
	}
	attrs := map[string]interface{}{
		"CLASS":   "IMAGE",
		"count":   int64(3),
		"code":    uint16(9),
		"scale":   0.5,
		"corners": []float64{1, 2, 3},
		"names":   []string{"red", "green"},
	}
	for name, v := range attrs {
		if err := g.SetAttr(name, v); err != nil {
			t.Fatalf("SetAttr(%s): %v", name, err)
		}
	}
	if err := f.Root().SetAttr("root", int32(-4)); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r := mustOpen(t, path)
	g, err = r.OpenGroup("/HEADER/INFO")
	if err != nil {
		t.Fatalf("OpenGroup: %v", err)
	}
	for name, want := range attrs {
		got, err := g.AttrValue(name)
		if err != nil {
			t.Fatalf("AttrValue(%s): %v", name, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s = %#v, want %#v", name, got, want)
		}
	}
	if v, err := r.ReadAttr("/@root"); err != nil || v != int32(-4) {
		t.Errorf("root attribute = %v, %v", v, err)
	}
	if _, err := g.AttrValue("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing attribute error = %v", err)
	}
	if members := r.Root().Members(); !reflect.DeepEqual(members, []string{"HEADER"}) {
		t.Errorf("root members = %v", members)
	}
}

func TestContiguousDataset(t *testing.T) {
	path := tempFile(t)
	f := mustCreate(t, path)

	ds, err := f.Root().CreateDataset("grid", Float32(), []uint64{3, 4})
	if err != nil {
		t.Fatalf("CreateDataset: %v", err)
	}
	data := make([]float32, 12)
	for i := range data {
		data[i] = float32(i) * 1.5
	}
	if err := ds.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ds.Chunks() != nil {
		t.Errorf("contiguous dataset reports chunks %v", ds.Chunks())
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r := mustOpen(t, path)
	ds, err = r.OpenDataset("/grid")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ds.Dims(), []uint64{3, 4}) {
		t.Errorf("Dims = %v", ds.Dims())
	}
	if ds.Datatype().String() != "float32" {
		t.Errorf("Datatype = %s", ds.Datatype())
	}
	got, err := ds.ReadFloat64()
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != float64(data[i]) {
			t.Fatalf("element %d = %v, want %v", i, v, data[i])
		}
	}
}

func TestChunkedFilteredDataset(t *testing.T) {
	path := tempFile(t)
	f := mustCreate(t, path)

	dims := []uint64{10, 7}
	ds, err := f.Root().CreateDataset("BAND1/DATA", Int16(), dims,
		WithChunks(4, 3), WithCompression(1), WithShuffle(), WithFletcher32())
	if err != nil {
		t.Fatalf("CreateDataset: %v", err)
	}
	data := make([]int16, 70)
	for i := range data {
		data[i] = int16(i*37 - 1000)
	}
	if err := ds.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r := mustOpen(t, path)
	ds, err = r.OpenDataset("BAND1/DATA")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ds.Chunks(), []uint64{4, 3}) {
		t.Errorf("Chunks = %v", ds.Chunks())
	}
	if ds.Compression() != 1 || !ds.Shuffle() {
		t.Errorf("filters = %+v", ds.Filters())
	}

	var got []int16
	if err := ds.Read(&got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, data) {
		t.Fatal("chunked data mismatch")
	}

	raw, err := ds.ReadSliceRaw([]uint64{2, 1}, []uint64{3, 4})
	if err != nil {
		t.Fatal(err)
	}
	want := rawInt16Slice(data, 7, 2, 1, 3, 4)
	if !bytes.Equal(raw, want) {
		t.Errorf("slice = %v, want %v", raw, want)
	}
}

func rawInt16Slice(data []int16, width, y0, x0, h, w int) []byte {
	var out []byte
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			v := uint16(data[y*width+x])
			out = append(out, byte(v), byte(v>>8))
		}
	}
	return out
}

func TestWriteSlice(t *testing.T) {
	path := tempFile(t)
	f := mustCreate(t, path)

	ds, err := f.Root().CreateDataset("MASK", Uint8(), []uint64{4, 4}, WithChunks(2, 2), WithFillValue(255))
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.WriteSliceRaw([]uint64{1, 1}, []uint64{2, 2}, []byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		255, 255, 255, 255,
		255, 1, 2, 255,
		255, 3, 4, 255,
		255, 255, 255, 255,
	}
	got, err := ds.ReadRaw()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("before flush = %v", got)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r := mustOpen(t, path)
	ds, err = r.OpenDataset("MASK")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ = ds.ReadRaw(); !bytes.Equal(got, want) {
		t.Errorf("after reopen = %v", got)
	}
	if !bytes.Equal(ds.FillValue(), []byte{255}) {
		t.Errorf("FillValue = %v", ds.FillValue())
	}
}

func TestUnwrittenDatasetReadsFill(t *testing.T) {
	path := tempFile(t)
	f := mustCreate(t, path)

	if _, err := f.Root().CreateDataset("chunked", Uint8(), []uint64{5, 6}, WithChunks(2, 4), WithCompression(1), WithFillValue(7)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Root().CreateDataset("single", Uint8(), []uint64{5, 6}, WithChunks(8, 8), WithFillValue(9)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Root().CreateDataset("contiguous", Float64(), []uint64{3}, WithFillValue(-1.0)); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r := mustOpen(t, path)
	for name, fill := range map[string]byte{"chunked": 7, "single": 9} {
		ds, err := r.OpenDataset(name)
		if err != nil {
			t.Fatal(err)
		}
		raw, err := ds.ReadSliceRaw([]uint64{1, 2}, []uint64{3, 4})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !bytes.Equal(raw, bytes.Repeat([]byte{fill}, 12)) {
			t.Errorf("%s: slice = %v", name, raw)
		}
	}
	ds, err := r.OpenDataset("contiguous")
	if err != nil {
		t.Fatal(err)
	}
	got, err := ds.ReadFloat64()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []float64{-1, -1, -1}) {
		t.Errorf("contiguous = %v", got)
	}
}

func TestVarStrings(t *testing.T) {
	path := tempFile(t)
	f := mustCreate(t, path)

	ds, err := f.Root().CreateDataset("names", VarString(), []uint64{3})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"water", "", "urban fabric"}
	if err := ds.WriteStrings(want); err != nil {
		t.Fatal(err)
	}
	if _, err := ds.ReadRaw(); !errors.Is(err, ErrType) {
		t.Errorf("ReadRaw on strings: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	rw, err := OpenReadWrite(path)
	if err != nil {
		t.Fatal(err)
	}
	ds, err = rw.OpenDataset("names")
	if err != nil {
		t.Fatal(err)
	}
	got, err := ds.ReadStrings()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadStrings = %q", got)
	}

	// The strings move to a new heap collection on every flush.
	if _, err := rw.Root().CreateGroup("extra"); err != nil {
		t.Fatal(err)
	}
	if err := rw.Flush(); err != nil {
		t.Fatal(err)
	}
	if got, err = ds.ReadStrings(); err != nil || !reflect.DeepEqual(got, want) {
		t.Fatalf("after second flush = %q, %v", got, err)
	}
	if err := rw.Close(); err != nil {
		t.Fatal(err)
	}
}

func ratHeaderType() *Datatype {
	return Compound(
		Field{Name: "NAME", Type: VarString()},
		Field{Name: "INDEX", Type: Uint32()},
		Field{Name: "USAGE", Type: VarString()},
		Field{Name: "COLNUM", Type: Uint32()},
	)
}

func TestCompoundRecords(t *testing.T) {
	path := tempFile(t)
	f := mustCreate(t, path)

	ds, err := f.Root().CreateDataset("FIELDS", ratHeaderType(), []uint64{2})
	if err != nil {
		t.Fatal(err)
	}
	recs := []Record{
		{"NAME": "Histogram", "INDEX": 0, "USAGE": "PixelCount", "COLNUM": 3},
		{"NAME": "Class", "INDEX": 1, "USAGE": "Generic", "COLNUM": 4},
	}
	if err := ds.WriteRecords(recs); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r := mustOpen(t, path)
	ds, err = r.OpenDataset("FIELDS")
	if err != nil {
		t.Fatal(err)
	}
	if ds.Datatype().Size() != 40 {
		t.Errorf("record size = %d, want 40", ds.Datatype().Size())
	}
	got, err := ds.ReadRecords()
	if err != nil {
		t.Fatal(err)
	}
	want := []Record{
		{"NAME": "Histogram", "INDEX": uint32(0), "USAGE": "PixelCount", "COLNUM": uint32(3)},
		{"NAME": "Class", "INDEX": uint32(1), "USAGE": "Generic", "COLNUM": uint32(4)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadRecords = %v", got)
	}
}

func TestHardLinkIdentity(t *testing.T) {
	path := tempFile(t)
	f := mustCreate(t, path)

	ds, err := f.Root().CreateDataset("BAND1/DATA", Uint16(), []uint64{2, 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.Write([]uint16{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := f.Root().Link("BAND2/DATA", ds); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	rw, err := OpenReadWrite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer rw.Close()
	a, err := rw.OpenDataset("BAND1/DATA")
	if err != nil {
		t.Fatal(err)
	}
	b, err := rw.OpenDataset("BAND2/DATA")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("hard link resolved to a distinct dataset")
	}
	if err := a.WriteSliceRaw([]uint64{0, 0}, []uint64{1, 1}, []byte{9, 0}); err != nil {
		t.Fatal(err)
	}
	got, err := b.ReadUint64()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []uint64{9, 2, 3, 4}) {
		t.Errorf("through alias = %v", got)
	}
}

func TestReplaceAndDelete(t *testing.T) {
	f := mustCreate(t, tempFile(t))
	defer f.Close()
	root := f.Root()

	if _, err := root.CreateDataset("x", Uint8(), []uint64{2}); err != nil {
		t.Fatal(err)
	}
	ds, err := root.CreateDataset("x", Float64(), []uint64{5})
	if err != nil {
		t.Fatal(err)
	}
	if root.NumObjects() != 1 {
		t.Fatalf("replace left %d objects", root.NumObjects())
	}
	got, _ := root.OpenDataset("x")
	if got != ds || got.Datatype().String() != "float64" {
		t.Fatal("CreateDataset did not replace the old dataset")
	}
	if err := root.Delete("x"); err != nil {
		t.Fatal(err)
	}
	if root.Has("x") {
		t.Error("deleted dataset still present")
	}
	if err := root.Delete("x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v", err)
	}
	if _, err := root.OpenGroup("x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenGroup error = %v", err)
	}
	if _, err := root.CreateDataset("g/d", Uint8(), []uint64{1}); err != nil {
		t.Fatal(err)
	}
	if _, err := root.OpenDataset("g"); !errors.Is(err, ErrNotDataset) {
		t.Errorf("OpenDataset on group error = %v", err)
	}
	if _, err := root.CreateGroup("g/d/e"); !errors.Is(err, ErrNotGroup) {
		t.Errorf("CreateGroup through dataset error = %v", err)
	}
}

func TestSizeAndBounds(t *testing.T) {
	f := mustCreate(t, tempFile(t))
	defer f.Close()

	ds, err := f.Root().CreateDataset("d", Int32(), []uint64{3, 3})
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.WriteRaw(make([]byte, 8)); !errors.Is(err, ErrSize) {
		t.Errorf("short WriteRaw error = %v", err)
	}
	if _, err := ds.ReadSliceRaw([]uint64{2, 2}, []uint64{2, 1}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("out of range ReadSliceRaw error = %v", err)
	}
	if err := ds.WriteSliceRaw([]uint64{0, 0}, []uint64{1, 4}, make([]byte, 16)); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("out of range WriteSliceRaw error = %v", err)
	}
	if _, err := ds.ReadStrings(); !errors.Is(err, ErrType) {
		t.Errorf("ReadStrings on int32 error = %v", err)
	}
}

func TestReadOnlyAndClosed(t *testing.T) {
	path := tempFile(t)
	f := mustCreate(t, path)
	if _, err := f.Root().CreateDataset("d", Uint8(), []uint64{1}); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := f.Root().OpenDataset("d"); !errors.Is(err, ErrClosed) {
		t.Errorf("closed OpenDataset error = %v", err)
	}

	r := mustOpen(t, path)
	if _, err := r.Root().CreateGroup("x"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("read-only CreateGroup error = %v", err)
	}
	ds, err := r.OpenDataset("d")
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.SetAttr("a", 1); !errors.Is(err, ErrReadOnly) {
		t.Errorf("read-only SetAttr error = %v", err)
	}
	if err := r.Flush(); err != nil {
		t.Errorf("read-only Flush: %v", err)
	}
}

func TestFlushKeepsUnloadedData(t *testing.T) {
	path := tempFile(t)
	f := mustCreate(t, path)
	ds, err := f.Root().CreateDataset("d", Uint32(), []uint64{4}, WithChunks(2), WithCompression(4))
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.Write([]uint32{10, 20, 30, 40}); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	rw, err := OpenReadWrite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := rw.Root().SetAttr("touched", "yes"); err != nil {
		t.Fatal(err)
	}
	if err := rw.Close(); err != nil {
		t.Fatal(err)
	}

	r := mustOpen(t, path)
	ds, err = r.OpenDataset("d")
	if err != nil {
		t.Fatal(err)
	}
	got, err := ds.ReadUint64()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []uint64{10, 20, 30, 40}) {
		t.Errorf("data = %v", got)
	}
	if ds.Compression() != 4 {
		t.Errorf("Compression = %d", ds.Compression())
	}
}

func TestWalk(t *testing.T) {
	f := mustCreate(t, tempFile(t))
	defer f.Close()
	root := f.Root()
	ds, err := root.CreateDataset("A/B/c", Uint8(), []uint64{1})
	if err != nil {
		t.Fatal(err)
	}
	if err := root.Link("A/alias", ds); err != nil {
		t.Fatal(err)
	}
	if err := root.SoftLink("soft", "/A/B"); err != nil {
		t.Fatal(err)
	}

	var paths []string
	err = Walk(root, func(p string, obj interface{}, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(paths)
	want := []string{"/", "/A", "/A/B", "/A/B/c", "/A/alias"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}

	n := 0
	err = Walk(root, func(string, interface{}, error) error {
		n++
		return ErrStopWalk
	})
	if err != nil || n != 1 {
		t.Errorf("stop walk: n=%d err=%v", n, err)
	}

	if _, err := root.OpenDataset("soft/c"); err != nil {
		t.Errorf("soft link resolution: %v", err)
	}
}

func TestWalkAttrs(t *testing.T) {
	f := mustCreate(t, tempFile(t))
	defer f.Close()
	ds, err := f.Root().CreateDataset("d", Uint8(), []uint64{1}, WithAttribute("units", "m"))
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.SetAttr("scale", 2.5); err != nil {
		t.Fatal(err)
	}
	var got []string
	err = f.WalkAttrs(func(info AttrInfo) error {
		got = append(got, info.Path+"="+info.Kind)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/d@units=dataset", "/d@scale=dataset"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WalkAttrs = %v", got)
	}
}
