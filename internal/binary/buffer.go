package binary

import (
	"io"
)

// Buffer is an in-memory io.WriterAt and io.ReaderAt that grows on demand.
// It lets a structure be built and checksummed before it is placed in a file.
type Buffer struct {
	buf []byte
}

// NewBuffer creates a Buffer with the given initial capacity.
func NewBuffer(size int) *Buffer {
	return &Buffer{buf: make([]byte, 0, size)}
}

// WriteAt writes p at offset off, extending the buffer with zeros if needed.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, io.ErrShortWrite
	}
	end := int(off) + len(p)
	if end > len(b.buf) {
		if end <= cap(b.buf) {
			b.buf = b.buf[:end]
		} else {
			grown := make([]byte, end, 2*end)
			copy(grown, b.buf)
			b.buf = grown
		}
	}
	copy(b.buf[off:], p)
	return len(p), nil
}

// ReadAt reads len(p) bytes from offset off.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Bytes returns the buffer contents. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return len(b.buf)
}
