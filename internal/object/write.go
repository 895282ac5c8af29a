package object

import (
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/message"
)

// MinGroupChunk is the smallest first chunk given to group headers, so
// links can be added in place by other HDF5 writers.
const MinGroupChunk = 120

// Encode lays out a version 2 header holding msgs. The first chunk is
// padded with a NIL message up to minChunk bytes. Field widths follow w.
// Messages the writer cannot serialize are left out.
func Encode(w *binary.Writer, msgs []message.Message, minChunk int) ([]byte, error) {
	parts := serializable(msgs)
	size := bodySize(w, parts)
	chunk := max(size, minChunk)
	width := widthFor(chunk)

	buf := binary.NewBuffer(6 + width + chunk + 4)
	bw := binary.NewWriter(buf, binary.Config{
		ByteOrder:  w.ByteOrder(),
		OffsetSize: w.OffsetSize(),
		LengthSize: w.LengthSize(),
	})
	if err := bw.WriteBytes(signature); err != nil {
		return nil, err
	}
	if err := bw.WriteBytes([]byte{2, uint8(bits.TrailingZeros(uint(width)))}); err != nil {
		return nil, err
	}
	if err := bw.WriteUintN(uint64(chunk), width); err != nil {
		return nil, err
	}
	for _, s := range parts {
		if err := writeMessage(bw, s); err != nil {
			return nil, err
		}
	}
	if err := pad(bw, chunk-size); err != nil {
		return nil, err
	}
	if err := bw.WriteUint32(binary.Lookup3Checksum(buf.Bytes()[:bw.Pos()])); err != nil {
		return nil, err
	}
	return buf.Bytes()[:bw.Pos()], nil
}

// Size is the length of the header Encode would produce.
func Size(w *binary.Writer, msgs []message.Message, minChunk int) int {
	chunk := max(bodySize(w, serializable(msgs)), minChunk)
	return 6 + widthFor(chunk) + chunk + 4
}

// Write encodes the header and writes it at w's position.
func Write(w *binary.Writer, msgs []message.Message, minChunk int) error {
	b, err := Encode(w, msgs, minChunk)
	if err != nil {
		return err
	}
	return w.WriteBytes(b)
}

func serializable(msgs []message.Message) []message.Serializable {
	out := make([]message.Serializable, 0, len(msgs))
	for _, m := range msgs {
		if s, ok := m.(message.Serializable); ok {
			out = append(out, s)
		}
	}
	return out
}

func bodySize(w *binary.Writer, parts []message.Serializable) int {
	n := 0
	for _, s := range parts {
		n += 4 + s.SerializedSize(w)
	}
	return n
}

// pad fills gap bytes with a NIL message, or with zeros when the gap is
// smaller than a message header.
func pad(w *binary.Writer, gap int) error {
	if gap < 4 {
		return w.WriteZeros(gap)
	}
	if err := w.WriteUint8(uint8(message.TypeNIL)); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(gap - 4)); err != nil {
		return err
	}
	return w.WriteZeros(gap - 3)
}

func writeMessage(w *binary.Writer, s message.Serializable) error {
	size := s.SerializedSize(w)
	if size > 0xffff {
		return fmt.Errorf("message type %#04x is %d bytes, too large for an object header", s.Type(), size)
	}
	if err := w.WriteUint8(uint8(s.Type())); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(size)); err != nil {
		return err
	}
	if err := w.WriteUint8(0); err != nil {
		return err
	}
	return s.Serialize(w)
}

// widthFor is the byte width of the chunk size field.
func widthFor(n int) int {
	switch {
	case n <= 0xff:
		return 1
	case n <= 0xffff:
		return 2
	case n <= 0xffffffff:
		return 4
	}
	return 8
}

// GroupMessages is the message list of a new style group: link info,
// group info and one link message per child.
func GroupMessages(links []*message.Link) []message.Message {
	msgs := []message.Message{message.NewLinkInfo(), message.NewGroupInfo()}
	for _, l := range links {
		msgs = append(msgs, l)
	}
	return msgs
}

// DatasetMessages is the message list of a dataset header. Extra messages
// follow the layout.
func DatasetMessages(space *message.Dataspace, dt *message.Datatype, layout *message.DataLayout, extra ...message.Message) []message.Message {
	return append([]message.Message{space, dt, layout}, extra...)
}
