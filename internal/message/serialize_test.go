package message

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// roundTrip serializes msg, checks SerializedSize against what was written
// and parses the bytes back.
func roundTrip(t *testing.T, msg Serializable) Message {
	t.Helper()
	buf := binpkg.NewBuffer(64)
	w := binpkg.NewWriter(buf, binpkg.DefaultConfig())
	if err := msg.Serialize(w); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if got, want := int(w.Pos()), msg.SerializedSize(w); got != want {
		t.Errorf("SerializedSize = %d, wrote %d", want, got)
	}
	parsed, err := Parse(msg.Type(), buf.Bytes(), 0, binpkg.NewReader(buf, binpkg.DefaultConfig()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return parsed
}

// zeros is a reader for messages that never dereference addresses.
func zeros() *binpkg.Reader {
	return binpkg.NewReader(bytes.NewReader(make([]byte, 64)), binpkg.DefaultConfig())
}

func TestDataspaceRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		space *Dataspace
		elems uint64
	}{
		{"scalar", NewScalarDataspace(), 1},
		{"raster", NewDataspace([]uint64{300, 600}, nil), 180000},
		{"extendable", NewDataspace([]uint64{4}, []uint64{^uint64(0)}), 4},
		{"empty", NewDataspace([]uint64{0, 5}, nil), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, tt.space).(*Dataspace)
			if got.SpaceType != tt.space.SpaceType || got.Rank != tt.space.Rank {
				t.Fatalf("got type %d rank %d", got.SpaceType, got.Rank)
			}
			if got.NumElements() != tt.elems {
				t.Errorf("NumElements = %d, want %d", got.NumElements(), tt.elems)
			}
			if len(tt.space.Dimensions) > 0 && !reflect.DeepEqual(got.Dimensions, tt.space.Dimensions) {
				t.Errorf("dims %v, want %v", got.Dimensions, tt.space.Dimensions)
			}
			if tt.space.MaxDims != nil && !reflect.DeepEqual(got.MaxDims, tt.space.MaxDims) {
				t.Errorf("max dims %v, want %v", got.MaxDims, tt.space.MaxDims)
			}
		})
	}
}

func TestDatatypeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		dt    *Datatype
		check func(*Datatype) bool
	}{
		{"int16", NewFixedPointDatatype(2, true, OrderLE), func(d *Datatype) bool {
			return d.IsInteger() && d.Signed && d.Size == 2 && d.ByteOrder == OrderLE
		}},
		{"uint64", NewFixedPointDatatype(8, false, OrderLE), func(d *Datatype) bool {
			return d.IsInteger() && !d.Signed && d.Size == 8
		}},
		{"float32", NewFloatDatatype(4, OrderLE), func(d *Datatype) bool {
			return d.IsFloat() && d.Size == 4
		}},
		{"big endian float64", NewFloatDatatype(8, OrderBE), func(d *Datatype) bool {
			return d.IsFloat() && d.Size == 8 && d.ByteOrder == OrderBE
		}},
		{"fixed string", NewStringDatatype(3, PadNullTerm, CharsetASCII), func(d *Datatype) bool {
			return d.IsString() && d.Size == 3 && d.StringPadding == PadNullTerm
		}},
		{"vlen string", NewVarLenStringDatatype(CharsetUTF8), func(d *Datatype) bool {
			return d.IsString() && d.IsVarLen() && d.CharSet == CharsetUTF8
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roundTrip(t, tt.dt).(*Datatype); !tt.check(got) {
				t.Errorf("unexpected datatype %+v", got)
			}
		})
	}
}

// The attribute table header record: two vlen strings and two uint32.
func TestCompoundRecordRoundTrip(t *testing.T) {
	members := []CompoundMember{
		{Name: "NAME", ByteOffset: 0, Type: NewVarLenStringDatatype(CharsetUTF8)},
		{Name: "INDEX", ByteOffset: 16, Type: NewFixedPointDatatype(4, false, OrderLE)},
		{Name: "USAGE", ByteOffset: 20, Type: NewVarLenStringDatatype(CharsetUTF8)},
		{Name: "COLNUM", ByteOffset: 36, Type: NewFixedPointDatatype(4, false, OrderLE)},
	}
	got := roundTrip(t, NewCompoundDatatype(40, members)).(*Datatype)
	if !got.IsCompound() || got.Size != 40 || len(got.Members) != len(members) {
		t.Fatalf("compound %+v", got)
	}
	for i, m := range got.Members {
		if m.Name != members[i].Name || m.ByteOffset != members[i].ByteOffset || m.Type.Size != members[i].Type.Size {
			t.Errorf("member %d = %s@%d size %d", i, m.Name, m.ByteOffset, m.Type.Size)
		}
	}
	if !got.Members[2].Type.IsVarLen() {
		t.Error("USAGE lost its variable length class")
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	contiguous := roundTrip(t, NewContiguousLayout(0x400, 96)).(*DataLayout)
	if !contiguous.IsContiguous() || contiguous.Address != 0x400 || contiguous.Size != 96 {
		t.Errorf("contiguous %+v", contiguous)
	}

	fixed := NewChunkedLayout([]uint32{256, 256}, 2, ChunkIndexFixedArray)
	fixed.ChunkIndexAddr = 0x2000
	fixed.PageBits = 10
	got := roundTrip(t, fixed).(*DataLayout)
	if !got.IsChunked() || got.ChunkIndexType != ChunkIndexFixedArray || got.ChunkIndexAddr != 0x2000 {
		t.Errorf("chunked %+v", got)
	}
	if !reflect.DeepEqual(got.ChunkDims, []uint32{256, 256, 2}) || got.PageBits != 10 {
		t.Errorf("chunk dims %v page bits %d", got.ChunkDims, got.PageBits)
	}

	single := NewChunkedLayout([]uint32{64}, 8, ChunkIndexSingleChunk)
	single.ChunkIndexAddr = 0x800
	single.SetSingleChunkFilter(123, 0)
	got = roundTrip(t, single).(*DataLayout)
	if !got.SingleChunkFiltered() || got.FilteredChunkSize != 123 {
		t.Errorf("single chunk %+v", got)
	}
}

func TestFilterAndFillRoundTrip(t *testing.T) {
	fp := roundTrip(t, NewFilterPipeline(
		FilterInfo{ID: FilterShuffle, ClientData: []uint32{4}},
		FilterInfo{ID: FilterDeflate, Flags: 1, ClientData: []uint32{1}},
	)).(*FilterPipeline)
	if len(fp.Filters) != 2 || fp.Filters[0].ID != FilterShuffle || fp.Filters[1].ClientData[0] != 1 {
		t.Fatalf("filters %+v", fp.Filters)
	}
	if !fp.HasCompression() || !fp.HasFilter(FilterShuffle) || fp.HasFilter(FilterFletcher32) {
		t.Error("filter predicates disagree with the pipeline")
	}
	if !fp.Filters[1].IsOptional() {
		t.Error("deflate should be optional")
	}

	fv := roundTrip(t, NewFillValue([]byte{0xff}, AllocIncremental)).(*FillValue)
	if !fv.IsDefined || !bytes.Equal(fv.Value, []byte{0xff}) || fv.SpaceAllocTime != AllocIncremental {
		t.Errorf("fill %+v", fv)
	}
	if none := roundTrip(t, NewFillValue(nil, AllocLate)).(*FillValue); none.Value != nil {
		t.Errorf("undefined fill parsed as %v", none.Value)
	}
}

func TestLinkRoundTrip(t *testing.T) {
	hard := roundTrip(t, NewHardLink("DATA", 0x1234)).(*Link)
	if !hard.IsHard() || hard.Name != "DATA" || hard.ObjectAddress != 0x1234 {
		t.Errorf("hard link %+v", hard)
	}
	soft := roundTrip(t, NewSoftLink("latest", "/BAND1/DATA")).(*Link)
	if !soft.IsSoft() || soft.SoftLinkValue != "/BAND1/DATA" {
		t.Errorf("soft link %+v", soft)
	}
	long := string(bytes.Repeat([]byte("n"), 300))
	if got := roundTrip(t, NewHardLink(long, 8)).(*Link); got.Name != long {
		t.Errorf("name of %d bytes came back with %d", len(long), len(got.Name))
	}
}

func TestAttributeRoundTrip(t *testing.T) {
	attr := NewAttribute("CLASS", NewStringDatatype(6, PadNullTerm, CharsetASCII), NewScalarDataspace(), []byte("IMAGE\x00"))
	got := roundTrip(t, attr).(*Attribute)
	if got.Name != "CLASS" || !bytes.Equal(got.Data, attr.Data) {
		t.Errorf("attribute %q = %q", got.Name, got.Data)
	}
	if !got.Dataspace.IsScalar() || !got.Datatype.IsString() {
		t.Errorf("attribute space %+v type %+v", got.Dataspace, got.Datatype)
	}
}

// Encodings written by the HDF5 library that the writer never produces.
func TestParseLibraryEncodings(t *testing.T) {
	le := binary.LittleEndian

	space := make([]byte, 16)
	space[0], space[1] = 1, 1
	le.PutUint64(space[8:], 5)
	ds, err := parseDataspace(space, zeros())
	if err != nil || ds.Version != 1 || ds.NumElements() != 5 {
		t.Errorf("v1 dataspace = %+v, %v", ds, err)
	}

	chunked := make([]byte, 24)
	chunked[0], chunked[1], chunked[2] = 3, byte(LayoutChunked), 3
	le.PutUint64(chunked[3:], 0x3000)
	le.PutUint32(chunked[11:], 10)
	le.PutUint32(chunked[15:], 20)
	le.PutUint32(chunked[19:], 4)
	lay, err := parseDataLayout(chunked, zeros())
	if err != nil || lay.ChunkIndexType != ChunkIndexBTreeV1 || !reflect.DeepEqual(lay.ChunkDims, []uint32{10, 20, 4}) {
		t.Errorf("v3 chunked layout = %+v, %v", lay, err)
	}

	deflate := []byte{2, 1, 1, 0, 0, 0, 1, 0, 6, 0, 0, 0}
	fp, err := parseFilterPipeline(deflate, zeros())
	if err != nil || len(fp.Filters) != 1 || fp.Filters[0].ClientData[0] != 6 {
		t.Errorf("v2 pipeline = %+v, %v", fp, err)
	}

	sym := make([]byte, 16)
	le.PutUint64(sym, 0x1000)
	le.PutUint64(sym[8:], 0x2000)
	st, err := parseSymbolTable(sym, zeros())
	if err != nil || st.BTreeAddress != 0x1000 || st.LocalHeapAddress != 0x2000 {
		t.Errorf("symbol table = %+v, %v", st, err)
	}

	// Version 1 compound member "a" of type uint32.
	compound := []byte{
		0x16, 1, 0, 0, 4, 0, 0, 0,
		'a', 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0,
	}
	compound = append(compound, make([]byte, 28)...)
	compound = append(compound, 0x10, 0, 0, 0, 4, 0, 0, 0, 0, 0, 32, 0)
	dt, err := parseDatatype(compound, zeros())
	if err != nil || len(dt.Members) != 1 || dt.Members[0].Name != "a" || dt.Members[0].Type.Size != 4 {
		t.Errorf("v1 compound = %+v, %v", dt, err)
	}
}

func TestParseRejectsTruncated(t *testing.T) {
	for _, tc := range []struct {
		typ  Type
		data []byte
	}{
		{TypeDataspace, []byte{2, 0}},
		{TypeDataLayout, []byte{3}},
		{TypeDataLayout, []byte{99, 0}},
		{TypeDatatype, []byte{0x10}},
	} {
		if _, err := Parse(tc.typ, tc.data, 0, zeros()); err == nil {
			t.Errorf("type %#x accepted %v", tc.typ, tc.data)
		}
	}

	msg, err := Parse(Type(0x99), []byte{1, 2}, 0, zeros())
	if err != nil {
		t.Fatal(err)
	}
	if u, ok := msg.(*Unknown); !ok || u.Type() != 0x99 || len(u.Data()) != 2 {
		t.Errorf("unknown message %#v", msg)
	}
}

func TestNestedTypes(t *testing.T) {
	arr := &Datatype{Class: ClassArray, Size: 6, ArrayDims: []uint32{3}, BaseType: NewFixedPointDatatype(2, false, OrderLE)}
	got := roundTrip(t, arr).(*Datatype)
	if !reflect.DeepEqual(got.ArrayDims, []uint32{3}) || got.BaseType == nil || got.BaseType.Size != 2 {
		t.Errorf("array %+v", got)
	}

	// Version 3 enum over int8 with members "no"=0 and "yes"=1.
	enum := []byte{0x38, 2, 0, 0, 1, 0, 0, 0}
	enum = append(enum, 0x10, 0x08, 0, 0, 1, 0, 0, 0, 0, 0, 8, 0)
	enum = append(enum, "no\x00yes\x00"...)
	enum = append(enum, 0, 1)
	dt, err := parseDatatype(append(enum, 0xee), zeros())
	if err != nil {
		t.Fatal(err)
	}
	if dt.Class != ClassEnum || !dt.Signed || dt.BaseType.Size != 1 || len(dt.Properties) != len(enum)-8 {
		t.Errorf("enum %+v", dt)
	}
	buf := binpkg.NewBuffer(32)
	if err := dt.Serialize(binpkg.NewWriter(buf, binpkg.DefaultConfig())); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), enum) {
		t.Errorf("enum rewritten as %x, want %x", buf.Bytes(), enum)
	}

	if err := (&Datatype{Class: ClassVarLen, Size: 16}).Serialize(binpkg.NewWriter(binpkg.NewBuffer(0), binpkg.DefaultConfig())); err == nil {
		t.Error("sequence without element type serialized")
	}
}
