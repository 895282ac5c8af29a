package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// decoder reads the little-endian fields of one message body. The first
// short read sticks: later reads return zero values and err reports where
// the body ran out.
type decoder struct {
	what    string
	buf     []byte
	pos     int
	offSize int
	lenSize int
	err     error
}

func newDecoder(what string, data []byte, r *binpkg.Reader) *decoder {
	d := &decoder{what: what, buf: data, offSize: 8, lenSize: 8}
	if r != nil {
		d.offSize, d.lenSize = r.OffsetSize(), r.LengthSize()
	}
	return d
}

func (d *decoder) failf(format string, args ...interface{}) {
	if d.err == nil {
		d.err = fmt.Errorf("%s: %s", d.what, fmt.Sprintf(format, args...))
	}
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.pos+n > len(d.buf) {
		d.failf("need %d bytes at offset %d, have %d", n, d.pos, len(d.buf)-d.pos)
		return nil
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b
}

func (d *decoder) skip(n int) { d.take(n) }

// align skips to the next multiple of n from the start of the body.
func (d *decoder) align(n int) {
	if r := d.pos % n; r != 0 {
		d.skip(n - r)
	}
}

func (d *decoder) remaining() int { return len(d.buf) - d.pos }

func (d *decoder) uint(n int) uint64 {
	b := d.take(n)
	if b == nil {
		return 0
	}
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func (d *decoder) u8() uint8   { return uint8(d.uint(1)) }
func (d *decoder) u16() uint16 { return uint16(d.uint(2)) }
func (d *decoder) u32() uint32 { return uint32(d.uint(4)) }
func (d *decoder) u64() uint64 { return d.uint(8) }

func (d *decoder) offset() uint64 { return d.uint(d.offSize) }
func (d *decoder) length() uint64 { return d.uint(d.lenSize) }

// name reads an n byte field holding a string padded with NULs.
func (d *decoder) name(n int) string {
	b := d.take(n)
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// cstring reads a NUL-terminated string and its terminator.
func (d *decoder) cstring() string {
	if d.err != nil {
		return ""
	}
	for i := d.pos; i < len(d.buf); i++ {
		if d.buf[i] == 0 {
			s := string(d.buf[d.pos:i])
			d.pos = i + 1
			return s
		}
	}
	d.failf("unterminated string at offset %d", d.pos)
	return ""
}

// copyOf returns a copy of the next n bytes.
func (d *decoder) copyOf(n int) []byte {
	b := d.take(n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// encoder writes message fields and keeps the first write error.
type encoder struct {
	w   *binpkg.Writer
	err error
}

func (e *encoder) do(f func() error) {
	if e.err == nil {
		e.err = f()
	}
}

func (e *encoder) uint(v uint64, n int) { e.do(func() error { return e.w.WriteUintN(v, n) }) }
func (e *encoder) u8(v uint8)           { e.uint(uint64(v), 1) }
func (e *encoder) u16(v uint16)         { e.uint(uint64(v), 2) }
func (e *encoder) u32(v uint32)         { e.uint(uint64(v), 4) }
func (e *encoder) offset(v uint64)      { e.do(func() error { return e.w.WriteOffset(v) }) }
func (e *encoder) length(v uint64)      { e.do(func() error { return e.w.WriteLength(v) }) }
func (e *encoder) bytes(b []byte)       { e.do(func() error { return e.w.WriteBytes(b) }) }
func (e *encoder) cstring(s string)     { e.bytes(append([]byte(s), 0)) }
func (e *encoder) msg(m Serializable)   { e.do(func() error { return m.Serialize(e.w) }) }

// sizeBytes is the smallest of 1, 2, 4 or 8 bytes that holds v.
func sizeBytes(v uint64) int {
	switch {
	case v <= 0xff:
		return 1
	case v <= 0xffff:
		return 2
	case v <= 0xffffffff:
		return 4
	}
	return 8
}

var le = binary.LittleEndian
