package kea

import (
	"fmt"

	"github.com/robert-malhotra/go-kea/hdf5"
)

// registry is the in-memory view of the file built by load. It is never
// patched in place: every change to the file is followed by a new load.
type registry struct {
	width     int
	height    int
	wkt       string
	transform [6]float64
	fileType  string
	generator string
	version   string
	bands     []*band
}

type band struct {
	group *hdf5.Group
	data  *hdf5.Dataset
	mask  *hdf5.Dataset
	info  BandInfo
	rat   *ratLookup
}

// BandInfo is a snapshot of one band's registry entry.
type BandInfo struct {
	Index       int
	Name        string
	DataType    DataType
	NoData      *float64
	Chunks      []int
	Description string
	Usage       ColourInterp
	LayerType   LayerType
	HasMask     bool
	// RATRows is the number of attribute table rows, 0 without a table.
	RATRows int
}

func (b BandInfo) clone() BandInfo {
	if b.NoData != nil {
		v := *b.NoData
		b.NoData = &v
	}
	b.Chunks = append([]int(nil), b.Chunks...)
	return b
}

// load reads the header and every band group into a fresh registry.
func (img *Image) load() error {
	root := img.file.Root()
	hdr, err := root.OpenGroup("HEADER")
	if err != nil {
		return fmt.Errorf("not a KEA file: %w", err)
	}
	reg := &registry{}

	size, err := getUint64s(hdr, hdrSize)
	if err != nil {
		return err
	}
	if len(size) < 2 {
		return fmt.Errorf("HEADER/SIZE has %d values, want 2: %w", len(size), ErrShape)
	}
	reg.width, reg.height = int(size[0]), int(size[1])

	count, err := getFirst(hdr, hdrNumBands)
	if err != nil {
		return err
	}
	if reg.transform, err = readTransform(hdr); err != nil {
		return err
	}
	for _, s := range []struct {
		name string
		dst  *string
	}{
		{hdrWKT, &reg.wkt},
		{hdrFileType, &reg.fileType},
		{hdrGenerator, &reg.generator},
		{hdrVersion, &reg.version},
	} {
		if *s.dst, err = getString(hdr, s.name); err != nil {
			return err
		}
	}

	var meta *hdf5.Group
	if root.Has("METADATA") {
		if meta, err = root.OpenGroup("METADATA"); err != nil {
			return err
		}
	}
	for i := 1; i <= int(count); i++ {
		b, err := loadBand(root, meta, i)
		if err != nil {
			return fmt.Errorf("band %d: %w", i, err)
		}
		reg.bands = append(reg.bands, b)
	}
	img.reg = reg
	return nil
}

func loadBand(root, meta *hdf5.Group, i int) (*band, error) {
	g, err := root.OpenGroup(fmt.Sprintf("BAND%d", i))
	if err != nil {
		return nil, err
	}
	b := &band{group: g, info: BandInfo{Index: i}}
	if b.data, err = openDataset(g, "DATA"); err != nil {
		return nil, err
	}
	if g.Has("MASK") {
		if b.mask, err = openDataset(g, "MASK"); err != nil {
			return nil, err
		}
		b.info.HasMask = true
	}

	code, err := getFirst(g, "DATATYPE")
	if err != nil {
		return nil, err
	}
	if b.info.DataType, err = DataTypeFromCode(code); err != nil {
		return nil, err
	}
	if g.Has("NO_DATA_VAL") {
		v, err := getFloat64s(g, "NO_DATA_VAL")
		if err != nil {
			return nil, err
		}
		if len(v) > 0 {
			b.info.NoData = &v[0]
		}
	}
	for _, c := range b.data.Chunks() {
		b.info.Chunks = append(b.info.Chunks, int(c))
	}
	if b.info.Description, err = getString(g, "DESCRIPTION"); err != nil {
		return nil, err
	}
	if g.Has("LAYER_USAGE") {
		code, err := getFirst(g, "LAYER_USAGE")
		if err != nil {
			return nil, err
		}
		if b.info.Usage, err = ColourInterpFromCode(code); err != nil {
			return nil, err
		}
	}
	if g.Has("LAYER_TYPE") {
		code, err := getFirst(g, "LAYER_TYPE")
		if err != nil {
			return nil, err
		}
		if b.info.LayerType, err = LayerTypeFromCode(code); err != nil {
			return nil, err
		}
	}
	if meta != nil {
		if b.info.Name, err = getString(meta, fmt.Sprintf("Band_%d", i)); err != nil {
			return nil, err
		}
	}
	if b.rat, err = loadRAT(g); err != nil {
		return nil, fmt.Errorf("attribute table: %w", err)
	}
	b.info.RATRows = b.rat.Rows
	return b, nil
}

// band returns the registry entry for a 1-based index.
func (img *Image) band(i int) (*band, error) {
	if err := img.checkOpen(); err != nil {
		return nil, err
	}
	if i < 1 || i > len(img.reg.bands) {
		return nil, fmt.Errorf("band %d not in 1..%d: %w", i, len(img.reg.bands), ErrRange)
	}
	return img.reg.bands[i-1], nil
}

// Count returns the number of bands.
func (img *Image) Count() int {
	return len(img.reg.bands)
}

// Band returns the registry entry of band i.
func (img *Image) Band(i int) (BandInfo, error) {
	b, err := img.band(i)
	if err != nil {
		return BandInfo{}, err
	}
	return b.info.clone(), nil
}

// Bands returns every registry entry in band order.
func (img *Image) Bands() []BandInfo {
	out := make([]BandInfo, len(img.reg.bands))
	for i, b := range img.reg.bands {
		out[i] = b.info.clone()
	}
	return out
}

// PromotedType returns the type every band converts to without loss. It is
// the default type of reads and of appended bands.
func (img *Image) PromotedType() DataType {
	types := make([]DataType, len(img.reg.bands))
	for i, b := range img.reg.bands {
		types[i] = b.info.DataType
	}
	return PromoteAll(types...)
}

// project builds a band-keyed map of one field.
func project[T any](img *Image, field func(BandInfo) T) map[int]T {
	out := make(map[int]T, len(img.reg.bands))
	for _, b := range img.reg.bands {
		out[b.info.Index] = field(b.info.clone())
	}
	return out
}

// DataTypes returns the declared type of each band.
func (img *Image) DataTypes() map[int]DataType {
	return project(img, func(b BandInfo) DataType { return b.DataType })
}

// NoData returns each band's no-data value, nil where none is set.
func (img *Image) NoData() map[int]*float64 {
	return project(img, func(b BandInfo) *float64 { return b.NoData })
}

// Chunks returns each band's chunk shape.
func (img *Image) Chunks() map[int][]int {
	return project(img, func(b BandInfo) []int { return b.Chunks })
}

// Descriptions returns each band's description.
func (img *Image) Descriptions() map[int]string {
	return project(img, func(b BandInfo) string { return b.Description })
}

// Usages returns each band's colour interpretation.
func (img *Image) Usages() map[int]ColourInterp {
	return project(img, func(b BandInfo) ColourInterp { return b.Usage })
}

// LayerTypes returns each band's layer type.
func (img *Image) LayerTypes() map[int]LayerType {
	return project(img, func(b BandInfo) LayerType { return b.LayerType })
}

// Masks reports for each band whether it has a MASK dataset.
func (img *Image) Masks() map[int]bool {
	return project(img, func(b BandInfo) bool { return b.HasMask })
}

// BandNames returns each band's METADATA name.
func (img *Image) BandNames() map[int]string {
	return project(img, func(b BandInfo) string { return b.Name })
}
