package message

import (
	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// Serializable is a message the writer can emit.
type Serializable interface {
	Message
	Serialize(w *binpkg.Writer) error
	// SerializedSize is the number of bytes Serialize writes with w's
	// offset and length widths.
	SerializedSize(w *binpkg.Writer) int
}

// measure encodes m into a scratch buffer with w's field widths and
// returns the byte count. w may be nil for the default widths.
func measure(m Serializable, w *binpkg.Writer) int {
	cfg := binpkg.DefaultConfig()
	if w != nil {
		cfg = binpkg.Config{ByteOrder: w.ByteOrder(), OffsetSize: w.OffsetSize(), LengthSize: w.LengthSize()}
	}
	sw := binpkg.NewWriter(binpkg.NewBuffer(64), cfg)
	if err := m.Serialize(sw); err != nil {
		return 0
	}
	return int(sw.Pos())
}
