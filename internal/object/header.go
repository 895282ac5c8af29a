package object

import (
	"errors"

	"github.com/robert-malhotra/go-kea/internal/message"
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

var signature = []byte("OHDR")

// Header is a decoded object header. Messages from continuation blocks are
// merged in file order; NIL and continuation messages are dropped.
type Header struct {
	Version  uint8
	Address  uint64
	RefCount uint32
	// ModTime is the modification time in seconds, zero when not stored.
	ModTime  uint32
	Messages []message.Message
}

// First returns the first message of type t, or nil.
func (h *Header) First(t message.Type) message.Message {
	for _, m := range h.Messages {
		if m.Type() == t {
			return m
		}
	}
	return nil
}

// All returns every message of type t in order.
func (h *Header) All(t message.Type) []message.Message {
	var out []message.Message
	for _, m := range h.Messages {
		if m.Type() == t {
			out = append(out, m)
		}
	}
	return out
}

func first[T message.Message](h *Header, t message.Type) T {
	m, _ := h.First(t).(T)
	return m
}

func (h *Header) Dataspace() *message.Dataspace {
	return first[*message.Dataspace](h, message.TypeDataspace)
}

func (h *Header) Datatype() *message.Datatype {
	return first[*message.Datatype](h, message.TypeDatatype)
}

func (h *Header) DataLayout() *message.DataLayout {
	return first[*message.DataLayout](h, message.TypeDataLayout)
}

func (h *Header) FilterPipeline() *message.FilterPipeline {
	return first[*message.FilterPipeline](h, message.TypeFilterPipeline)
}
