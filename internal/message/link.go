package message

import (
	"bytes"

	binpkg "github.com/robert-malhotra/go-kea/internal/binary"
)

type LinkType uint8

const (
	LinkTypeHard     LinkType = 0
	LinkTypeSoft     LinkType = 1
	LinkTypeExternal LinkType = 64
)

// Link is a link message (type 0x0006): one named member of a group
// that stores its links in the object header.
type Link struct {
	Version       uint8
	LinkType      LinkType
	CreationOrder uint64
	Name          string
	Charset       uint8

	ObjectAddress uint64
	SoftLinkValue string
	ExternalFile  string
	ExternalPath  string
}

func (m *Link) Type() Type { return TypeLink }

func (m *Link) IsHard() bool     { return m.LinkType == LinkTypeHard }
func (m *Link) IsSoft() bool     { return m.LinkType == LinkTypeSoft }
func (m *Link) IsExternal() bool { return m.LinkType == LinkTypeExternal }

// Link message flags.
const (
	linkNameWidth  = 0x03 // log2 of the name length field width
	linkHasOrder   = 0x04
	linkHasType    = 0x08
	linkHasCharset = 0x10
)

func parseLink(data []byte, r *binpkg.Reader) (*Link, error) {
	d := newDecoder("link", data, r)
	l := &Link{Version: d.u8()}
	flags := d.u8()
	if flags&linkHasType != 0 {
		l.LinkType = LinkType(d.u8())
	}
	if flags&linkHasOrder != 0 {
		l.CreationOrder = d.u64()
	}
	if flags&linkHasCharset != 0 {
		l.Charset = d.u8()
	}
	l.Name = string(d.take(int(d.uint(1 << (flags & linkNameWidth)))))

	switch l.LinkType {
	case LinkTypeHard:
		l.ObjectAddress = d.offset()
	case LinkTypeSoft:
		l.SoftLinkValue = string(d.take(int(d.u16())))
	case LinkTypeExternal:
		// One byte of external link flags, then file and object path,
		// each NUL-terminated.
		val := d.take(int(d.u16()))
		if d.err == nil && len(val) < 2 {
			d.failf("external link value of %d bytes", len(val))
		}
		if d.err == nil {
			parts := bytes.SplitN(val[1:], []byte{0}, 3)
			l.ExternalFile = string(parts[0])
			if len(parts) > 1 {
				l.ExternalPath = string(parts[1])
			}
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return l, nil
}
