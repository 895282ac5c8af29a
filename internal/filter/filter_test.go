package filter

import (
	"bytes"
	"compress/zlib"
	"errors"
	"testing"

	"github.com/robert-malhotra/go-kea/internal/message"
)

func TestDeflateReadsZlib(t *testing.T) {
	want := bytes.Repeat([]byte("band data "), 20)
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write(want)
	_ = zw.Close()

	got, err := NewDeflate(nil).Decode(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Decode = %q", got)
	}
	if _, err := NewDeflate(nil).Decode([]byte("not zlib")); err == nil {
		t.Error("Decode accepted garbage")
	}
}

func TestDeflateLevels(t *testing.T) {
	tests := []struct {
		cd   []uint32
		want int
	}{
		{nil, zlib.DefaultCompression},
		{[]uint32{0}, 0},
		{[]uint32{9}, 9},
		{[]uint32{12}, zlib.DefaultCompression},
	}
	for _, tt := range tests {
		if got := NewDeflate(tt.cd).Level; got != tt.want {
			t.Errorf("NewDeflate(%v).Level = %d, want %d", tt.cd, got, tt.want)
		}
	}
}

func TestShuffle(t *testing.T) {
	raw := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x11, 0x12, 0x13, 0x14,
		0x21, 0x22, 0x23, 0x24,
		0xee, 0xff,
	}
	planes := []byte{
		0x01, 0x11, 0x21,
		0x02, 0x12, 0x22,
		0x03, 0x13, 0x23,
		0x04, 0x14, 0x24,
		0xee, 0xff,
	}
	f := NewShuffle([]uint32{4})
	got, _ := f.Encode(raw)
	if !bytes.Equal(got, planes) {
		t.Errorf("Encode = % x", got)
	}
	back, _ := f.Decode(planes)
	if !bytes.Equal(back, raw) {
		t.Errorf("Decode = % x", back)
	}

	one := []byte{1, 2, 3}
	if got, _ := NewShuffle([]uint32{1}).Encode(one); !bytes.Equal(got, one) {
		t.Errorf("single byte elements changed: % x", got)
	}
	if got, _ := NewShuffle([]uint32{8}).Encode(one); !bytes.Equal(got, one) {
		t.Errorf("short chunk changed: % x", got)
	}
}

func TestFletcher32(t *testing.T) {
	raw := []byte("abcde")
	stored, _ := Fletcher32{}.Encode(raw)
	if len(stored) != len(raw)+4 || !bytes.Equal(stored[:5], raw) {
		t.Fatalf("Encode = % x", stored)
	}
	// Fletcher-32 of "abcde" with an odd trailing byte.
	if want := []byte{0x29, 0xc7, 0x4f, 0xf0}; !bytes.Equal(stored[5:], want) {
		t.Errorf("checksum = % x, want % x", stored[5:], want)
	}
	got, err := Fletcher32{}.Decode(stored)
	if err != nil || !bytes.Equal(got, raw) {
		t.Errorf("Decode = %q, %v", got, err)
	}

	stored[0] ^= 1
	if _, err := (Fletcher32{}).Decode(stored); !errors.Is(err, ErrChecksum) {
		t.Errorf("corrupt chunk: err = %v", err)
	}
	if _, err := (Fletcher32{}).Decode([]byte{1}); !errors.Is(err, ErrChecksum) {
		t.Errorf("short chunk: err = %v", err)
	}
}

func pipeline(t *testing.T, infos ...message.FilterInfo) *Pipeline {
	t.Helper()
	p, err := NewPipeline(message.NewFilterPipeline(infos...))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPipelineRoundTrip(t *testing.T) {
	p := pipeline(t,
		message.FilterInfo{ID: message.FilterShuffle, ClientData: []uint32{2}},
		message.FilterInfo{ID: message.FilterDeflate, ClientData: []uint32{6}},
		message.FilterInfo{ID: message.FilterFletcher32},
	)
	raw := bytes.Repeat([]byte{0x10, 0x00, 0x11, 0x00}, 64)
	stored, err := p.Encode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) >= len(raw) {
		t.Errorf("stored %d bytes for %d raw", len(stored), len(raw))
	}
	got, err := p.Decode(stored, 0)
	if err != nil || !bytes.Equal(got, raw) {
		t.Errorf("Decode: %v", err)
	}
}

func TestPipelineMask(t *testing.T) {
	p := pipeline(t,
		message.FilterInfo{ID: message.FilterShuffle, ClientData: []uint32{2}},
		message.FilterInfo{ID: message.FilterDeflate},
	)
	raw := []byte{1, 2, 3, 4}
	shuffled, _ := NewShuffle([]uint32{2}).Encode(raw)

	// Deflate was skipped for this chunk.
	got, err := p.Decode(shuffled, 1<<1)
	if err != nil || !bytes.Equal(got, raw) {
		t.Errorf("Decode = % x, %v", got, err)
	}
	if got, _ := p.Decode(raw, 0b11); !bytes.Equal(got, raw) {
		t.Errorf("all skipped = % x", got)
	}
}

func TestPipelineFilters(t *testing.T) {
	var nilPipe *Pipeline
	if !nilPipe.Empty() || !pipeline(t).Empty() {
		t.Error("nil and empty pipelines should be empty")
	}
	if p, err := NewPipeline(nil); err != nil || !p.Empty() {
		t.Errorf("NewPipeline(nil) = %v, %v", p, err)
	}

	optional := message.FilterInfo{ID: message.FilterSZIP, Flags: 1}
	if p := pipeline(t, optional); !p.Empty() {
		t.Error("optional szip should be dropped")
	}
	if _, err := NewPipeline(message.NewFilterPipeline(message.FilterInfo{ID: message.FilterSZIP})); err == nil {
		t.Error("required szip should fail")
	}
	if got := Name(400); got != "filter-400" {
		t.Errorf("Name(400) = %q", got)
	}
}
