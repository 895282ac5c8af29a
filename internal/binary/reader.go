// Package binary reads and writes the fields HDF5 metadata is built from:
// fixed width integers plus offsets and lengths whose width is set by the
// superblock.
package binary

import (
	"encoding/binary"
	"io"
)

// Config fixes the byte order and the widths of offset and length fields.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int
	LengthSize int
}

// DefaultConfig is little-endian with 8 byte offsets and lengths, which is
// what every superblock is read with before its own sizes are known.
func DefaultConfig() Config {
	return Config{ByteOrder: binary.LittleEndian, OffsetSize: 8, LengthSize: 8}
}

// undefined is the all-ones address of the given width.
func undefined(size int) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return 1<<(8*size) - 1
}

// Reader is a cursor over an io.ReaderAt.
type Reader struct {
	src io.ReaderAt
	cfg Config
	pos int64
}

// NewReader returns a Reader at offset 0.
func NewReader(src io.ReaderAt, cfg Config) *Reader {
	return &Reader{src: src, cfg: cfg}
}

// At returns a Reader over the same source positioned at offset.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{src: r.src, cfg: r.cfg, pos: offset}
}

func (r *Reader) Pos() int64                  { return r.pos }
func (r *Reader) OffsetSize() int             { return r.cfg.OffsetSize }
func (r *Reader) LengthSize() int             { return r.cfg.LengthSize }
func (r *Reader) ByteOrder() binary.ByteOrder { return r.cfg.ByteOrder }

// Skip moves the cursor n bytes forward.
func (r *Reader) Skip(n int64) { r.pos += n }

// Align moves the cursor to the next multiple of n.
func (r *Reader) Align(n int64) {
	if n > 1 && r.pos%n != 0 {
		r.pos += n - r.pos%n
	}
}

// Peek reads n bytes without moving the cursor.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := r.src.ReadAt(buf, r.pos); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf, err := r.Peek(n)
	if err == nil {
		r.pos += int64(len(buf))
	}
	return buf, err
}

// ReadUintN reads an n byte unsigned integer.
func (r *Reader) ReadUintN(n int) (uint64, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	switch n {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(r.cfg.ByteOrder.Uint16(buf)), nil
	case 4:
		return uint64(r.cfg.ByteOrder.Uint32(buf)), nil
	case 8:
		return r.cfg.ByteOrder.Uint64(buf), nil
	}
	// Odd widths only occur in little-endian structures.
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.ReadUintN(1)
	return uint8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadUintN(2)
	return uint16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadUintN(4)
	return uint32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) { return r.ReadUintN(8) }

// ReadOffset reads a file address.
func (r *Reader) ReadOffset() (uint64, error) { return r.ReadUintN(r.cfg.OffsetSize) }

// ReadLength reads a size field.
func (r *Reader) ReadLength() (uint64, error) { return r.ReadUintN(r.cfg.LengthSize) }

// IsUndefinedOffset reports whether addr is the all-ones "no address" value.
func (r *Reader) IsUndefinedOffset(addr uint64) bool {
	return addr == undefined(r.cfg.OffsetSize)
}
