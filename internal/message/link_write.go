package message

import (
	"math/bits"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

// Serialize writes a version 1 link. The type byte is omitted for hard
// links and the name length field is as narrow as the name allows.
func (m *Link) Serialize(w *binpkg.Writer) error {
	e := &encoder{w: w}
	width := sizeBytes(uint64(len(m.Name)))
	flags := uint8(bits.TrailingZeros(uint(width)))
	if m.LinkType != LinkTypeHard {
		flags |= linkHasType
	}
	e.u8(1)
	e.u8(flags)
	if m.LinkType != LinkTypeHard {
		e.u8(uint8(m.LinkType))
	}
	e.uint(uint64(len(m.Name)), width)
	e.bytes([]byte(m.Name))

	switch m.LinkType {
	case LinkTypeHard:
		e.offset(m.ObjectAddress)
	case LinkTypeSoft:
		e.u16(uint16(len(m.SoftLinkValue)))
		e.bytes([]byte(m.SoftLinkValue))
	case LinkTypeExternal:
		e.u16(uint16(len(m.ExternalFile) + len(m.ExternalPath) + 3))
		e.u8(0)
		e.cstring(m.ExternalFile)
		e.cstring(m.ExternalPath)
	}
	return e.err
}

func (m *Link) SerializedSize(w *binpkg.Writer) int { return measure(m, w) }

func NewHardLink(name string, objectAddress uint64) *Link {
	return &Link{Version: 1, LinkType: LinkTypeHard, Name: name, ObjectAddress: objectAddress}
}

func NewSoftLink(name string, targetPath string) *Link {
	return &Link{Version: 1, LinkType: LinkTypeSoft, Name: name, SoftLinkValue: targetPath}
}

func NewExternalLink(name string, externalFile, externalPath string) *Link {
	return &Link{Version: 1, LinkType: LinkTypeExternal, Name: name, ExternalFile: externalFile, ExternalPath: externalPath}
}
