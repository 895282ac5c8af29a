package kea

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-kea/hdf5"
)

// AppendBand adds band Count()+1 and returns its index. With LinkTo the
// new band's DATA is a hard link to an existing band's data, so writes
// through either band are visible in both; the linked band keeps the
// target's type.
func (img *Image) AppendBand(opts ...BandOption) (int, error) {
	if err := img.checkWritable(); err != nil {
		return 0, err
	}
	o := defaultBandOptions()
	for _, opt := range opts {
		opt(o)
	}
	n := img.Count() + 1
	if o.name == "" {
		o.name = fmt.Sprintf("Band %d", n)
	}

	var target *band
	if o.link != 0 {
		if o.link < 1 || o.link > img.Count() {
			return 0, fmt.Errorf("append band: link to band %d of %d: %w", o.link, img.Count(), ErrPrecondition)
		}
		target = img.reg.bands[o.link-1]
		o.dataType = target.info.DataType
	}
	if o.dataType == None {
		o.dataType = img.PromotedType()
		if o.dataType == None {
			o.dataType = Uint8
		}
	}
	if !o.dataType.Storable() {
		return 0, fmt.Errorf("append band: type %s: %w", o.dataType, ErrType)
	}

	if err := img.createBand(n, o, target); err != nil {
		return 0, fmt.Errorf("append band %d: %w", n, err)
	}
	if err := img.resync(); err != nil {
		return 0, err
	}
	img.log.Debug("band appended", "band", n, "type", o.dataType.String(), "link", o.link)
	return n, nil
}

func (img *Image) createBand(n int, o *bandOptions, target *band) error {
	root := img.file.Root()
	g, err := root.CreateGroup(fmt.Sprintf("BAND%d", n))
	if err != nil {
		return err
	}
	for _, sub := range []string{"METADATA", "OVERVIEWS", "ATT/DATA", "ATT/NEIGHBOURS", "ATT/HEADER"} {
		if _, err := g.CreateGroup(sub); err != nil {
			return err
		}
	}

	if target != nil {
		if err := g.Link("DATA", target.data); err != nil {
			return err
		}
	} else {
		dsOpts := []hdf5.DatasetOption{
			hdf5.WithChunks(img.chunksFor(o.chunks)...),
			hdf5.WithCompression(o.compression),
			hdf5.WithAttribute("CLASS", "IMAGE"),
			hdf5.WithAttribute("IMAGE_VERSION", imageVersion),
			hdf5.WithAttribute("BLOCK_SIZE", int64(o.blockSize)),
		}
		if o.shuffle {
			dsOpts = append(dsOpts, hdf5.WithShuffle())
		}
		if o.noData != nil {
			dsOpts = append(dsOpts, hdf5.WithFillValue(*o.noData))
		}
		dims := []uint64{uint64(img.Height()), uint64(img.Width())}
		if _, err := g.CreateDataset("DATA", o.dataType.hdf5Type(), dims, dsOpts...); err != nil {
			return err
		}
	}

	steps := []error{
		putValues(g, "DATATYPE", hdf5.Uint16(), []uint64{uint64(o.dataType)}),
		putStrings(g, "DESCRIPTION", o.description),
		putValues(g, "LAYER_TYPE", hdf5.Uint16(), []uint64{uint64(Continuous)}),
		putValues(g, "LAYER_USAGE", hdf5.Uint16(), []uint64{uint64(Generic)}),
		putValues(g, "ATT/HEADER/CHUNKSIZE", hdf5.Uint64(), []uint64{0}),
		putValues(g, "ATT/HEADER/SIZE", hdf5.Uint64(), []uint64{0, 0, 0, 0, 0}),
	}
	if o.noData != nil {
		steps = append(steps, putValues(g, "NO_DATA_VAL", o.dataType.hdf5Type(), []float64{*o.noData}))
	}
	meta, err := root.CreateGroup("METADATA")
	if err != nil {
		return err
	}
	steps = append(steps, putStrings(meta, fmt.Sprintf("Band_%d", n), o.name))

	hdr, err := root.OpenGroup("HEADER")
	if err != nil {
		return err
	}
	steps = append(steps, putValues(hdr, hdrNumBands, hdf5.Uint16(), []uint64{uint64(n)}))
	return errors.Join(steps...)
}

// chunksFor clips a chunk shape to the image and floors it at one.
func (img *Image) chunksFor(c [2]int) []uint64 {
	rows := min(max(c[0], 1), max(img.Height(), 1))
	cols := min(max(c[1], 1), max(img.Width(), 1))
	return []uint64{uint64(rows), uint64(cols)}
}

// CreateMask adds a uint8 MASK dataset to a band, shaped and chunked like
// its data and initially all valid (255). WithCompression and WithShuffle
// apply; other options are ignored. If the band already has a mask,
// CreateMask logs a warning and leaves it unchanged.
func (img *Image) CreateMask(band int, opts ...BandOption) error {
	if err := img.checkWritable(); err != nil {
		return err
	}
	b, err := img.band(band)
	if err != nil {
		return err
	}
	if b.mask != nil {
		img.log.Warn("mask already exists", "band", band, "path", b.mask.Path())
		return nil
	}
	o := defaultBandOptions()
	for _, opt := range opts {
		opt(o)
	}

	chunks := b.data.Chunks()
	if chunks == nil {
		chunks = b.data.Dims()
	}
	dsOpts := []hdf5.DatasetOption{
		hdf5.WithChunks(chunks...),
		hdf5.WithCompression(o.compression),
		hdf5.WithFillValue(uint8(255)),
	}
	if o.shuffle {
		dsOpts = append(dsOpts, hdf5.WithShuffle())
	}
	if _, err := b.group.CreateDataset("MASK", hdf5.Uint8(), b.data.Dims(), dsOpts...); err != nil {
		return fmt.Errorf("band %d mask: %w", band, err)
	}
	if err := img.resync(); err != nil {
		return err
	}
	img.log.Debug("mask created", "band", band)
	return nil
}

// SetDescription replaces a band's description.
func (img *Image) SetDescription(band int, s string) error {
	return img.setBandField(band, "DESCRIPTION", func(g *hdf5.Group) error {
		return putStrings(g, "DESCRIPTION", s)
	})
}

// SetLayerType replaces a band's layer type.
func (img *Image) SetLayerType(band int, t LayerType) error {
	return img.setBandField(band, "LAYER_TYPE", func(g *hdf5.Group) error {
		return putValues(g, "LAYER_TYPE", hdf5.Uint16(), []uint64{uint64(t)})
	})
}

// SetUsage replaces a band's colour interpretation.
func (img *Image) SetUsage(band int, c ColourInterp) error {
	return img.setBandField(band, "LAYER_USAGE", func(g *hdf5.Group) error {
		return putValues(g, "LAYER_USAGE", hdf5.Uint16(), []uint64{uint64(c)})
	})
}

// SetNoData sets a band's no-data value. The fill value of existing data is
// not changed.
func (img *Image) SetNoData(band int, v float64) error {
	b, err := img.band(band)
	if err != nil {
		return err
	}
	dt := b.info.DataType.hdf5Type()
	return img.setBandField(band, "NO_DATA_VAL", func(g *hdf5.Group) error {
		return putValues(g, "NO_DATA_VAL", dt, []float64{v})
	})
}

// setBandField rewrites one dataset of a band group and resyncs.
func (img *Image) setBandField(band int, name string, write func(*hdf5.Group) error) error {
	if err := img.checkWritable(); err != nil {
		return err
	}
	b, err := img.band(band)
	if err != nil {
		return err
	}
	if err := write(b.group); err != nil {
		return fmt.Errorf("band %d %s: %w", band, name, err)
	}
	if err := img.resync(); err != nil {
		return err
	}
	img.log.Debug("band updated", "band", band, "field", name)
	return nil
}
