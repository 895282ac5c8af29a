package filter

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/message"
)

// ErrChecksum is returned when a fletcher32 chunk fails verification.
var ErrChecksum = errors.New("chunk checksum mismatch")

// Deflate is zlib compression. Client data holds the level.
type Deflate struct{ Level int }

func NewDeflate(clientData []uint32) Deflate {
	level := zlib.DefaultCompression
	if len(clientData) > 0 && clientData[0] <= zlib.BestCompression {
		level = int(clientData[0])
	}
	return Deflate{Level: level}
}

func (Deflate) ID() uint16 { return message.FilterDeflate }

func (f Deflate) Encode(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, f.Level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Deflate) Decode(stored []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(stored))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// Shuffle stores byte k of every element together, lowest byte first.
// Client data holds the element size.
type Shuffle struct{ Size int }

func NewShuffle(clientData []uint32) Shuffle {
	if len(clientData) > 0 && clientData[0] > 1 {
		return Shuffle{Size: int(clientData[0])}
	}
	return Shuffle{Size: 1}
}

func (Shuffle) ID() uint16 { return message.FilterShuffle }

func (f Shuffle) Encode(raw []byte) ([]byte, error) { return f.permute(raw, true), nil }

func (f Shuffle) Decode(stored []byte) ([]byte, error) { return f.permute(stored, false), nil }

// permute moves between element order and byte-plane order. Bytes past the
// last whole element stay where they are.
func (f Shuffle) permute(in []byte, toPlanes bool) []byte {
	n := len(in) / max(f.Size, 1)
	if f.Size <= 1 || n <= 1 {
		return in
	}
	out := make([]byte, len(in))
	for e := range n {
		for k := range f.Size {
			plane, elem := k*n+e, e*f.Size+k
			if toPlanes {
				out[plane] = in[elem]
			} else {
				out[elem] = in[plane]
			}
		}
	}
	copy(out[n*f.Size:], in[n*f.Size:])
	return out
}

// Fletcher32 appends a little-endian fletcher32 checksum to each chunk.
type Fletcher32 struct{}

func (Fletcher32) ID() uint16 { return message.FilterFletcher32 }

func (Fletcher32) Encode(raw []byte) ([]byte, error) {
	return binary.LittleEndian.AppendUint32(append([]byte(nil), raw...), binpkg.Fletcher32(raw)), nil
}

func (Fletcher32) Decode(stored []byte) ([]byte, error) {
	if len(stored) < 4 {
		return nil, fmt.Errorf("%w: %d byte chunk", ErrChecksum, len(stored))
	}
	data, tail := stored[:len(stored)-4], stored[len(stored)-4:]
	if got, want := binpkg.Fletcher32(data), binary.LittleEndian.Uint32(tail); got != want {
		return nil, fmt.Errorf("%w: stored %#08x, computed %#08x", ErrChecksum, want, got)
	}
	return data, nil
}
