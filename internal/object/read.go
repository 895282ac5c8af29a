package object

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/message"
)

// v2 header flags.
const (
	flagChunkSizeBits = 0x03
	flagTrackOrder    = 0x04
	flagPhaseChange   = 0x10
	flagTimes         = 0x20
)

// maxBlocks bounds the continuation chain so a cyclic file cannot loop.
const maxBlocks = 1024

// span is a run of packed messages.
type span struct{ start, end int64 }

// parser collects messages from the first block of a header and every
// continuation block it reaches.
type parser struct {
	r       *binary.Reader
	hdr     *Header
	v2      bool
	order   bool
	pending []span
	seen    map[int64]bool
}

// Read decodes the object header at address, version 1 or 2.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	cr := r.At(int64(address))
	lead, err := cr.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("%w at %#x: %v", ErrInvalidHeader, address, err)
	}
	p := &parser{r: r, hdr: &Header{Address: address}, seen: map[int64]bool{}}
	var first span
	switch {
	case bytes.Equal(lead, signature):
		first, err = p.prefixV2(cr)
	case lead[0] == 1:
		first, err = p.prefixV1(cr)
	default:
		return nil, fmt.Errorf("%w at %#x: lead byte %d", ErrUnsupportedVersion, address, lead[0])
	}
	if err != nil {
		return nil, fmt.Errorf("object header at %#x: %w", address, err)
	}

	p.pending = append(p.pending, first)
	for len(p.pending) > 0 {
		if len(p.seen) > maxBlocks {
			return nil, fmt.Errorf("%w at %#x: too many continuation blocks", ErrInvalidHeader, address)
		}
		next := p.pending[0]
		p.pending = p.pending[1:]
		p.messages(next)
	}
	return p.hdr, nil
}

// prefixV1 reads version, message count, reference count and the size of
// the first block. Messages start at the next 8 byte boundary.
func (p *parser) prefixV1(r *binary.Reader) (span, error) {
	r.Skip(2)
	if _, err := r.ReadUint16(); err != nil {
		return span{}, err
	}
	refs, err := r.ReadUint32()
	if err != nil {
		return span{}, err
	}
	size, err := r.ReadUint32()
	if err != nil {
		return span{}, err
	}
	r.Align(8)
	p.hdr.Version = 1
	p.hdr.RefCount = refs
	return span{r.Pos(), r.Pos() + int64(size)}, nil
}

// prefixV2 reads the OHDR prefix and checks the block checksum, which
// covers everything from the signature to the end of the first chunk.
func (p *parser) prefixV2(r *binary.Reader) (span, error) {
	start := r.Pos()
	r.Skip(4)
	version, err := r.ReadUint8()
	if err != nil {
		return span{}, err
	}
	if version != 2 {
		return span{}, fmt.Errorf("%w: OHDR version %d", ErrUnsupportedVersion, version)
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return span{}, err
	}
	if flags&flagTimes != 0 {
		r.Skip(4)
		if p.hdr.ModTime, err = r.ReadUint32(); err != nil {
			return span{}, err
		}
		r.Skip(8)
	}
	if flags&flagPhaseChange != 0 {
		r.Skip(4)
	}
	size, err := r.ReadUintN(1 << (flags & flagChunkSizeBits))
	if err != nil {
		return span{}, err
	}
	body := span{r.Pos(), r.Pos() + int64(size)}
	if err := verify(r.At(start), body.end); err != nil {
		return span{}, err
	}
	p.hdr.Version = 2
	p.hdr.RefCount = 1
	p.v2 = true
	p.order = flags&flagTrackOrder != 0
	return body, nil
}

// verify checks the lookup3 checksum stored at end against the bytes from
// r's position up to end.
func verify(r *binary.Reader, end int64) error {
	data, err := r.ReadBytes(int(end - r.Pos()))
	if err != nil {
		return err
	}
	want, err := r.ReadUint32()
	if err != nil {
		return err
	}
	if binary.Lookup3Checksum(data) != want {
		return ErrChecksumMismatch
	}
	return nil
}

// continuation queues the block c points at. Version 2 blocks are framed
// by an OCHK signature and a trailing checksum.
func (p *parser) continuation(c *message.Continuation) {
	start := int64(c.Offset)
	if p.seen[start] {
		return
	}
	p.seen[start] = true
	end := start + int64(c.Length)
	if !p.v2 {
		p.pending = append(p.pending, span{start, end})
		return
	}
	cr := p.r.At(start)
	if sig, err := cr.ReadBytes(4); err != nil || string(sig) != "OCHK" {
		return
	}
	if verify(p.r.At(start), end-4) != nil {
		return
	}
	p.pending = append(p.pending, span{start + 4, end - 4})
}

// messages decodes every message in s. A truncated message ends the block
// and a message that fails to parse is skipped.
func (p *parser) messages(s span) {
	r := p.r.At(s.start)
	prefix := int64(8)
	if p.v2 {
		prefix = 4
		if p.order {
			prefix = 6
		}
	}
	for s.end-r.Pos() >= prefix {
		typ, size, flags, err := p.messageHeader(r)
		if err != nil {
			return
		}
		data, err := r.ReadBytes(int(size))
		if err != nil {
			return
		}
		if !p.v2 {
			r.Align(8)
		}
		if typ == message.TypeNIL {
			continue
		}
		msg, err := message.Parse(typ, data, flags, r)
		if err != nil {
			continue
		}
		switch m := msg.(type) {
		case *message.Continuation:
			p.continuation(m)
		case *message.Unknown:
			if m.Type() == message.TypeObjectModTime && len(m.Data()) >= 8 {
				p.hdr.ModTime = uint32(m.Data()[4]) | uint32(m.Data()[5])<<8 |
					uint32(m.Data()[6])<<16 | uint32(m.Data()[7])<<24
			}
			p.hdr.Messages = append(p.hdr.Messages, m)
		default:
			p.hdr.Messages = append(p.hdr.Messages, m)
		}
	}
}

func (p *parser) messageHeader(r *binary.Reader) (message.Type, uint16, uint8, error) {
	var typ uint16
	if p.v2 {
		t, err := r.ReadUint8()
		if err != nil {
			return 0, 0, 0, err
		}
		typ = uint16(t)
	} else {
		t, err := r.ReadUint16()
		if err != nil {
			return 0, 0, 0, err
		}
		typ = t
	}
	size, err := r.ReadUint16()
	if err != nil {
		return 0, 0, 0, err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return 0, 0, 0, err
	}
	switch {
	case !p.v2:
		r.Skip(3)
	case p.order:
		r.Skip(2)
	}
	return message.Type(typ), size, flags, nil
}
