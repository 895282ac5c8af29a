package kea

import (
	"fmt"

	"github.com/robert-malhotra/go-kea/hdf5"
)

// Names inside the HEADER group.
const (
	hdrSize      = "SIZE"
	hdrNumBands  = "NUMBANDS"
	hdrWKT       = "WKT"
	hdrTL        = "TL"
	hdrRes       = "RES"
	hdrRot       = "ROT"
	hdrFileType  = "FILETYPE"
	hdrGenerator = "GENERATOR"
	hdrVersion   = "VERSION"
	hdrBlockSize = "BLOCKSIZE"
)

const (
	fileType     = "KEA"
	generator    = "go-kea"
	formatVer    = "1.1"
	imageVersion = "1.2"
)

var defaultTransform = [6]float64{0, 1, 0, 0, 0, -1}

// writeHeader fills a new HEADER group.
func writeHeader(hdr *hdf5.Group, co CreateOptions) error {
	gt := co.Transform
	if gt == ([6]float64{}) {
		gt = defaultTransform
	}
	steps := []error{
		putValues(hdr, hdrSize, hdf5.Uint64(), []uint64{uint64(co.Width), uint64(co.Height)}),
		putValues(hdr, hdrNumBands, hdf5.Uint16(), []uint64{0}),
		putStrings(hdr, hdrWKT, co.WKT),
		putTransform(hdr, gt),
		putStrings(hdr, hdrFileType, fileType),
		putStrings(hdr, hdrGenerator, generator),
		putStrings(hdr, hdrVersion, formatVer),
		putValues(hdr, hdrBlockSize, hdf5.Uint16(), []uint64{uint64(co.BlockSize)}),
	}
	for _, err := range steps {
		if err != nil {
			return fmt.Errorf("writing HEADER: %w", err)
		}
	}
	return nil
}

// putTransform stores a GDAL geotransform as the TL, RES and ROT pairs.
func putTransform(hdr *hdf5.Group, gt [6]float64) error {
	if err := putValues(hdr, hdrTL, hdf5.Float64(), []float64{gt[0], gt[3]}); err != nil {
		return err
	}
	if err := putValues(hdr, hdrRes, hdf5.Float64(), []float64{gt[1], gt[5]}); err != nil {
		return err
	}
	return putValues(hdr, hdrRot, hdf5.Float64(), []float64{gt[2], gt[4]})
}

// readTransform rebuilds the GDAL geotransform from TL, RES and ROT,
// taking defaults for whichever is missing.
func readTransform(hdr *hdf5.Group) ([6]float64, error) {
	gt := defaultTransform
	pairs := []struct {
		name string
		a, b int
	}{{hdrTL, 0, 3}, {hdrRes, 1, 5}, {hdrRot, 2, 4}}
	for _, p := range pairs {
		if !hdr.Has(p.name) {
			continue
		}
		v, err := getFloat64s(hdr, p.name)
		if err != nil {
			return gt, err
		}
		if len(v) < 2 {
			return gt, fmt.Errorf("HEADER/%s has %d values, want 2: %w", p.name, len(v), ErrShape)
		}
		gt[p.a], gt[p.b] = v[0], v[1]
	}
	return gt, nil
}

// putValues creates or replaces the 1-D dataset name holding values.
func putValues(g *hdf5.Group, name string, dt *hdf5.Datatype, values any) error {
	_, n, ok := typeOfSlice(values)
	if !ok {
		return fmt.Errorf("%s: values of %T: %w", name, values, ErrType)
	}
	ds, err := g.CreateDataset(name, dt, []uint64{uint64(n)})
	if err != nil {
		return err
	}
	return ds.Write(values)
}

// putStrings creates or replaces the variable-length string dataset name.
func putStrings(g *hdf5.Group, name string, s ...string) error {
	ds, err := g.CreateDataset(name, hdf5.VarString(), []uint64{uint64(len(s))})
	if err != nil {
		return err
	}
	return ds.WriteStrings(s)
}

func openDataset(g *hdf5.Group, name string) (*hdf5.Dataset, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", g.Path(), name, err)
	}
	return ds, nil
}

func getUint64s(g *hdf5.Group, name string) ([]uint64, error) {
	ds, err := openDataset(g, name)
	if err != nil {
		return nil, err
	}
	return ds.ReadUint64()
}

func getFloat64s(g *hdf5.Group, name string) ([]float64, error) {
	ds, err := openDataset(g, name)
	if err != nil {
		return nil, err
	}
	return ds.ReadFloat64()
}

// getFirst returns the first element of an unsigned integer dataset.
func getFirst(g *hdf5.Group, name string) (uint64, error) {
	v, err := getUint64s(g, name)
	if err != nil {
		return 0, err
	}
	if len(v) == 0 {
		return 0, fmt.Errorf("%s/%s is empty: %w", g.Path(), name, ErrShape)
	}
	return v[0], nil
}

// getString returns the first element of a string dataset, or "" when
// the dataset does not exist.
func getString(g *hdf5.Group, name string) (string, error) {
	if !g.Has(name) {
		return "", nil
	}
	ds, err := openDataset(g, name)
	if err != nil {
		return "", err
	}
	s, err := ds.ReadStrings()
	if err != nil {
		return "", err
	}
	if len(s) == 0 {
		return "", nil
	}
	return s[0], nil
}
