package layout

import (
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/go-kea/internal/binary"
	"github.com/robert-malhotra/go-kea/internal/btree"
)

// Fixed array client IDs.
const (
	fixedArrayChunks         uint8 = 0
	fixedArrayFilteredChunks uint8 = 1
)

// FixedArrayHeader is the "FAHD" structure of a fixed array chunk index.
type FixedArrayHeader struct {
	ClientID      uint8
	EntrySize     uint8
	PageBits      uint8
	NumEntries    uint64
	DataBlockAddr uint64
}

// paged reports whether the data block is split into pages.
func (h *FixedArrayHeader) paged() bool {
	return h.NumEntries > uint64(1)<<h.PageBits
}

// FilteredSizeBytes returns the width of the chunk size field in a filtered
// fixed array entry for chunks of chunkBytes uncompressed bytes.
func FilteredSizeBytes(chunkBytes uint64) int {
	n := 1 + (bits.Len64(chunkBytes)-1+8)/8
	if n > 8 {
		n = 8
	}
	return n
}

// FixedArrayPageBits returns the smallest page size exponent, not below the
// library default, that keeps n entries in a single page.
func FixedArrayPageBits(n int) uint8 {
	pb := bits.Len64(uint64(max(n, 1) - 1))
	return uint8(max(pb, 10))
}

// ReadFixedArrayHeader reads a fixed array header at addr.
func ReadFixedArrayHeader(r *binary.Reader, addr uint64) (*FixedArrayHeader, error) {
	nr := r.At(int64(addr))

	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading fixed array signature: %w", err)
	}
	if string(sig) != "FAHD" {
		return nil, fmt.Errorf("invalid fixed array signature: got %q, expected \"FAHD\"", string(sig))
	}

	version, err := nr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("unsupported fixed array version: %d", version)
	}

	hdr := &FixedArrayHeader{}
	if hdr.ClientID, err = nr.ReadUint8(); err != nil {
		return nil, err
	}
	if hdr.EntrySize, err = nr.ReadUint8(); err != nil {
		return nil, err
	}
	if hdr.PageBits, err = nr.ReadUint8(); err != nil {
		return nil, err
	}
	if hdr.NumEntries, err = nr.ReadLength(); err != nil {
		return nil, err
	}
	if hdr.DataBlockAddr, err = nr.ReadOffset(); err != nil {
		return nil, err
	}

	return hdr, nil
}

// readFixedArray reads all chunk entries of a fixed array index.
func (c *Chunked) readFixedArray(addr uint64) ([]btree.ChunkEntry, error) {
	hdr, err := ReadFixedArrayHeader(c.r, addr)
	if err != nil {
		return nil, err
	}
	if c.r.IsUndefinedOffset(hdr.DataBlockAddr) {
		return nil, nil
	}

	nr := c.r.At(int64(hdr.DataBlockAddr))
	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading fixed array data block signature: %w", err)
	}
	if string(sig) != "FADB" {
		return nil, fmt.Errorf("invalid fixed array data block signature: got %q, expected \"FADB\"", string(sig))
	}
	nr.Skip(2) // version, client ID
	if _, err := nr.ReadOffset(); err != nil {
		return nil, err
	}

	grid := c.grid()
	entries := make([]btree.ChunkEntry, 0, hdr.NumEntries)
	readRun := func(r *binary.Reader, first, n uint64) error {
		for i := first; i < first+n; i++ {
			entry, err := c.readFixedArrayEntry(r, hdr)
			if err != nil {
				return fmt.Errorf("reading fixed array entry %d: %w", i, err)
			}
			if c.missing(entry.Address) {
				continue
			}
			entry.Offset = c.origin(i, grid)
			entries = append(entries, entry)
		}
		return nil
	}

	if !hdr.paged() {
		if err := readRun(nr, 0, hdr.NumEntries); err != nil {
			return nil, err
		}
		return entries, nil
	}

	// Paged data block: page init bitmap and checksum, then each page
	// followed by its own checksum.
	pageSize := uint64(1) << hdr.PageBits
	numPages := (hdr.NumEntries + pageSize - 1) / pageSize
	bitmap, err := nr.ReadBytes(int((numPages + 7) / 8))
	if err != nil {
		return nil, fmt.Errorf("reading fixed array page bitmap: %w", err)
	}
	nr.Skip(4)

	pageStart := nr.Pos()
	fullPageBytes := int64(pageSize)*int64(hdr.EntrySize) + 4
	for p := uint64(0); p < numPages; p++ {
		n := min(pageSize, hdr.NumEntries-p*pageSize)
		if bitmap[p/8]&(0x80>>(p%8)) == 0 {
			continue
		}
		pr := c.r.At(pageStart + int64(p)*fullPageBytes)
		if err := readRun(pr, p*pageSize, n); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

func (c *Chunked) readFixedArrayEntry(r *binary.Reader, hdr *FixedArrayHeader) (btree.ChunkEntry, error) {
	var entry btree.ChunkEntry
	addr, err := r.ReadOffset()
	if err != nil {
		return entry, err
	}
	entry.Address = addr

	if hdr.ClientID != fixedArrayFilteredChunks {
		entry.Size = uint32(c.chunkBytes())
		return entry, nil
	}

	sizeBytes := int(hdr.EntrySize) - c.r.OffsetSize() - 4
	size, err := r.ReadUintN(sizeBytes)
	if err != nil {
		return entry, err
	}
	entry.Size = uint32(size)
	if entry.FilterMask, err = r.ReadUint32(); err != nil {
		return entry, err
	}
	return entry, nil
}

// WriteFixedArray writes a fixed array index for chunks given in row-major
// chunk order and returns the header address and page bits. Filtered
// indexes record each chunk's stored size and filter mask.
func WriteFixedArray(w *binary.Writer, allocate func(size int64) uint64, chunks []btree.ChunkEntry, filtered bool, chunkBytes uint64) (uint64, uint8, error) {
	offsetSize := w.OffsetSize()
	lengthSize := w.LengthSize()

	clientID := fixedArrayChunks
	entrySize := offsetSize
	sizeBytes := 0
	if filtered {
		clientID = fixedArrayFilteredChunks
		sizeBytes = FilteredSizeBytes(chunkBytes)
		entrySize = offsetSize + sizeBytes + 4
	}
	pageBits := FixedArrayPageBits(len(chunks))

	headerSize := 4 + 1 + 1 + 1 + 1 + lengthSize + offsetSize + 4
	headerAddr := allocate(int64(headerSize))
	blockSize := 4 + 1 + 1 + offsetSize + len(chunks)*entrySize + 4
	blockAddr := allocate(int64(blockSize))

	block := binary.NewBuffer(blockSize)
	bw := binary.NewWriter(block, binary.Config{ByteOrder: w.ByteOrder(), OffsetSize: offsetSize, LengthSize: lengthSize})
	_ = bw.WriteBytes([]byte("FADB"))
	_ = bw.WriteUint8(0)
	_ = bw.WriteUint8(clientID)
	_ = bw.WriteOffset(headerAddr)
	for _, chunk := range chunks {
		_ = bw.WriteOffset(chunk.Address)
		if filtered {
			_ = bw.WriteUintN(uint64(chunk.Size), sizeBytes)
			_ = bw.WriteUint32(chunk.FilterMask)
		}
	}
	_ = bw.WriteUint32(binary.Lookup3Checksum(block.Bytes()[:bw.Pos()]))

	header := binary.NewBuffer(headerSize)
	hw := binary.NewWriter(header, binary.Config{ByteOrder: w.ByteOrder(), OffsetSize: offsetSize, LengthSize: lengthSize})
	_ = hw.WriteBytes([]byte("FAHD"))
	_ = hw.WriteUint8(0)
	_ = hw.WriteUint8(clientID)
	_ = hw.WriteUint8(uint8(entrySize))
	_ = hw.WriteUint8(pageBits)
	_ = hw.WriteLength(uint64(len(chunks)))
	_ = hw.WriteOffset(blockAddr)
	_ = hw.WriteUint32(binary.Lookup3Checksum(header.Bytes()[:hw.Pos()]))

	if err := w.At(int64(blockAddr)).WriteBytes(block.Bytes()); err != nil {
		return 0, 0, fmt.Errorf("writing fixed array data block: %w", err)
	}
	if err := w.At(int64(headerAddr)).WriteBytes(header.Bytes()); err != nil {
		return 0, 0, fmt.Errorf("writing fixed array header: %w", err)
	}

	return headerAddr, pageBits, nil
}
