package layout

import (
	"bytes"
	"errors"
	"testing"

	"github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/message"
)

var u16 = message.NewFixedPointDatatype(2, false, message.OrderLE)

func file(at int, data []byte) *binary.Reader {
	buf := binary.NewBuffer(at + len(data))
	_, _ = buf.WriteAt(data, int64(at))
	return binary.NewReader(buf, binary.DefaultConfig())
}

func open(t *testing.T, lay *message.DataLayout, dims []uint64, fv *message.FillValue, r *binary.Reader) Layout {
	t.Helper()
	l, err := New(lay, message.NewDataspace(dims, nil), u16, nil, fv, r)
	if err != nil {
		t.Fatal(err)
	}
	if l.Class() != lay.Class {
		t.Errorf("Class = %d, want %d", l.Class(), lay.Class)
	}
	return l
}

func TestCompact(t *testing.T) {
	data := sequence(6)
	l := open(t, &message.DataLayout{Class: message.LayoutCompact, CompactData: data}, []uint64{2, 3}, nil, nil)
	got, _ := l.Read()
	if !bytes.Equal(got, data) {
		t.Errorf("Read = %v", got)
	}
	got[0] = 99
	if again, _ := l.Read(); again[0] != 0 {
		t.Error("Read returned the header bytes themselves")
	}

	got, err := l.ReadSlice([]uint64{0, 1}, []uint64{2, 2})
	if want := []byte{1, 0, 2, 0, 4, 0, 5, 0}; err != nil || !bytes.Equal(got, want) {
		t.Errorf("ReadSlice = %v, %v", got, err)
	}
}

func TestContiguous(t *testing.T) {
	data := sequence(12)
	l := open(t, message.NewContiguousLayout(100, uint64(len(data))), []uint64{3, 4}, nil, file(100, data))
	got, err := l.Read()
	if err != nil || !bytes.Equal(got, data) {
		t.Errorf("Read = %v, %v", got, err)
	}
	got, err = l.ReadSlice([]uint64{1, 1}, []uint64{2, 2})
	if want := []byte{5, 0, 6, 0, 9, 0, 10, 0}; err != nil || !bytes.Equal(got, want) {
		t.Errorf("ReadSlice = %v, %v", got, err)
	}
	if got, _ := l.ReadSlice([]uint64{1, 1}, []uint64{0, 2}); len(got) != 0 {
		t.Errorf("empty selection = %v", got)
	}

	// A zero size in the message is taken from the dataspace.
	l = open(t, message.NewContiguousLayout(100, 0), []uint64{3, 4}, nil, file(100, data))
	if got, _ := l.Read(); len(got) != 24 {
		t.Errorf("Read %d bytes, want 24", len(got))
	}
}

func TestContiguousUnallocated(t *testing.T) {
	r := file(0, nil)
	fv := message.NewFillValue([]byte{7, 0}, message.AllocLate)
	l := open(t, message.NewContiguousLayout(^uint64(0), 8), []uint64{4}, fv, r)
	got, err := l.Read()
	if want := []byte{7, 0, 7, 0, 7, 0, 7, 0}; err != nil || !bytes.Equal(got, want) {
		t.Errorf("Read = %v, %v", got, err)
	}
	got, _ = l.ReadSlice([]uint64{3}, []uint64{1})
	if !bytes.Equal(got, []byte{7, 0}) {
		t.Errorf("ReadSlice = %v", got)
	}
}

func TestValidateSlice(t *testing.T) {
	dims := []uint64{10, 7}
	tests := []struct {
		start, count []uint64
		ok           bool
	}{
		{[]uint64{0, 0}, []uint64{10, 7}, true},
		{[]uint64{10, 7}, []uint64{0, 0}, true},
		{[]uint64{9, 0}, []uint64{2, 1}, false},
		{[]uint64{11, 0}, []uint64{0, 1}, false},
		{[]uint64{1, 0}, []uint64{^uint64(0), 1}, false},
		{[]uint64{0}, []uint64{1}, false},
	}
	for _, tt := range tests {
		err := ValidateSlice(dims, tt.start, tt.count)
		if tt.ok != (err == nil) {
			t.Errorf("ValidateSlice(%v, %v) = %v", tt.start, tt.count, err)
		}
		if err != nil && !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("error %v is not ErrOutOfBounds", err)
		}
	}
}

func TestFillBuffer(t *testing.T) {
	if got := FillBuffer(3, 2, []byte{1, 2}); !bytes.Equal(got, []byte{1, 2, 1, 2, 1, 2}) {
		t.Errorf("FillBuffer = %v", got)
	}
	if got := FillBuffer(2, 2, nil); !bytes.Equal(got, make([]byte, 4)) {
		t.Errorf("nil fill = %v", got)
	}
}

func TestNewRejects(t *testing.T) {
	if _, err := New(nil, nil, u16, nil, nil, nil); err == nil {
		t.Error("nil layout accepted")
	}
	bad := message.NewChunkedLayout([]uint32{0, 4}, 2, message.ChunkIndexFixedArray)
	if _, err := New(bad, message.NewDataspace([]uint64{4, 4}, nil), u16, nil, nil, file(0, nil)); err == nil {
		t.Error("zero chunk dimension accepted")
	}
}
