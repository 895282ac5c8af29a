package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

func writeV2(t *testing.T, sb *Superblock, at int64) *binpkg.Buffer {
	t.Helper()
	buf := binpkg.NewBuffer(0)
	n, err := sb.Write(binpkg.NewWriter(buf, binpkg.DefaultConfig()).At(at))
	if err != nil {
		t.Fatal(err)
	}
	if int(n) != sb.Size() {
		t.Errorf("wrote %d bytes, Size says %d", n, sb.Size())
	}
	return buf
}

func TestV2RoundTrip(t *testing.T) {
	for _, at := range []int64{0, 512} {
		sb := NewSuperblock()
		sb.EOFAddress = 4096
		sb.RootGroupAddress = 48
		got, err := Read(writeV2(t, sb, at))
		if err != nil {
			t.Fatalf("at %d: %v", at, err)
		}
		if got.Version != 3 || got.OffsetSize != 8 || got.LengthSize != 8 {
			t.Errorf("at %d: version %d sizes %d/%d", at, got.Version, got.OffsetSize, got.LengthSize)
		}
		if got.EOFAddress != 4096 || got.RootGroupAddress != 48 || got.FileOffset != at {
			t.Errorf("at %d: %+v", at, got)
		}
		if got.SuperblockExtensionAddress != ^uint64(0) {
			t.Errorf("extension address %#x, want undefined", got.SuperblockExtensionAddress)
		}
		if cfg := got.ReaderConfig(); cfg.OffsetSize != 8 || cfg.ByteOrder != binary.LittleEndian {
			t.Errorf("reader config %+v", cfg)
		}
	}
}

func TestWriteRaisesOldVersions(t *testing.T) {
	sb := NewSuperblock()
	sb.Version = 0
	got, err := Read(writeV2(t, sb, 0))
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 2 {
		t.Errorf("version %d, want 2", got.Version)
	}
}

func TestChecksumMismatch(t *testing.T) {
	buf := writeV2(t, NewSuperblock(), 0)
	buf.Bytes()[20] ^= 0xff
	if _, err := Read(buf); !errors.Is(err, ErrInvalidSuperblock) {
		t.Errorf("Read = %v, want ErrInvalidSuperblock", err)
	}
}

// v0 builds a version 0 superblock whose root entry caches its symbol table.
func v0() *bytes.Reader {
	data := make([]byte, 256)
	le := binary.LittleEndian
	copy(data, Signature)
	data[13], data[14] = 8, 8 // offset and length sizes
	le.PutUint16(data[16:], 4)
	le.PutUint16(data[18:], 16)
	le.PutUint64(data[40:], 1024) // EOF
	le.PutUint64(data[64:], 128)  // root object header
	le.PutUint32(data[72:], 1)    // cache type: symbol table
	le.PutUint64(data[80:], 0x200)
	le.PutUint64(data[88:], 0x300)
	return bytes.NewReader(data)
}

func TestReadV0(t *testing.T) {
	sb, err := Read(v0())
	if err != nil {
		t.Fatal(err)
	}
	if sb.Version != 0 || sb.GroupLeafNodeK != 4 || sb.GroupInternalNodeK != 16 {
		t.Errorf("fixed fields %+v", sb)
	}
	if sb.EOFAddress != 1024 || sb.RootGroupAddress != 128 {
		t.Errorf("EOF %d root %d", sb.EOFAddress, sb.RootGroupAddress)
	}
	if sb.RootGroupBTreeAddress != 0x200 || sb.RootGroupLocalHeapAddress != 0x300 {
		t.Errorf("scratch pad B-tree %#x heap %#x", sb.RootGroupBTreeAddress, sb.RootGroupLocalHeapAddress)
	}
}

func TestReadRejects(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("not an hdf5 file at all"))); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("plain text: %v", err)
	}
	if _, err := Read(bytes.NewReader(nil)); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("empty: %v", err)
	}
	data := append(append([]byte{}, Signature...), 9)
	data = append(data, make([]byte, 64)...)
	if _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("version 9: %v", err)
	}
}
