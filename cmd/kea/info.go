package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-kea/hdf5"
	"github.com/robert-malhotra/go-kea/kea"
)

type imageView struct {
	Path      string     `json:"path" yaml:"path"`
	Width     int        `json:"width" yaml:"width"`
	Height    int        `json:"height" yaml:"height"`
	DataType  string     `json:"datatype" yaml:"datatype"`
	Transform [6]float64 `json:"transform" yaml:"transform,flow"`
	WKT       string     `json:"wkt,omitempty" yaml:"wkt,omitempty"`
	FileType  string     `json:"filetype" yaml:"filetype"`
	Generator string     `json:"generator" yaml:"generator"`
	Version   string     `json:"version" yaml:"version"`
	Bands     []bandView `json:"bands" yaml:"bands"`
}

type bandView struct {
	Index       int      `json:"index" yaml:"index"`
	Name        string   `json:"name" yaml:"name"`
	DataType    string   `json:"datatype" yaml:"datatype"`
	NoData      *float64 `json:"nodata,omitempty" yaml:"nodata,omitempty"`
	Chunks      []int    `json:"chunks" yaml:"chunks,flow"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Usage       string   `json:"usage" yaml:"usage"`
	LayerType   string   `json:"layer_type" yaml:"layer_type"`
	Mask        bool     `json:"mask" yaml:"mask"`
	RATRows     int      `json:"rat_rows" yaml:"rat_rows"`
}

func viewOf(img *kea.Image) imageView {
	v := imageView{
		Path:      img.Path(),
		Width:     img.Width(),
		Height:    img.Height(),
		DataType:  img.PromotedType().String(),
		Transform: img.Transform(),
		WKT:       img.WKT(),
		FileType:  img.FileType(),
		Generator: img.Generator(),
		Version:   img.Version(),
		Bands:     []bandView{},
	}
	for _, b := range img.Bands() {
		v.Bands = append(v.Bands, bandView{
			Index:       b.Index,
			Name:        b.Name,
			DataType:    b.DataType.String(),
			NoData:      b.NoData,
			Chunks:      b.Chunks,
			Description: b.Description,
			Usage:       b.Usage.String(),
			LayerType:   b.LayerType.String(),
			Mask:        b.HasMask,
			RATRows:     b.RATRows,
		})
	}
	return v
}

func (v imageView) table(t table.Writer) {
	t.SetTitle(fmt.Sprintf("%s  %dx%d  %s", v.Path, v.Width, v.Height, v.DataType))
	t.AppendHeader(table.Row{"Band", "Name", "Type", "No data", "Chunks", "Usage", "Layer", "Mask", "RAT rows"})
	for _, b := range v.Bands {
		nodata := ""
		if b.NoData != nil {
			nodata = fmt.Sprint(*b.NoData)
		}
		t.AppendRow(table.Row{
			b.Index, b.Name, b.DataType, nodata, fmt.Sprint(b.Chunks),
			b.Usage, b.LayerType, b.Mask, b.RATRows,
		})
	}
}

func infoCmd(st *state) *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show the header and bands of a KEA file",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			img, err := st.open(cmd, kea.ReadOnly)
			if err != nil {
				return err
			}
			defer func() { _ = img.Close() }()
			v := viewOf(img)
			return render(st.out, st.output, v, v.table)
		},
	}
}

type nodeView struct {
	Path     string   `json:"path" yaml:"path"`
	Kind     string   `json:"kind" yaml:"kind"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"`
	Dims     []uint64 `json:"dims,omitempty" yaml:"dims,omitempty,flow"`
	Chunks   []uint64 `json:"chunks,omitempty" yaml:"chunks,omitempty,flow"`
	Filters  []string `json:"filters,omitempty" yaml:"filters,omitempty,flow"`
	Attrs    []string `json:"attrs,omitempty" yaml:"attrs,omitempty,flow"`
	LinkFail string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func walkTree(f *hdf5.File) ([]nodeView, error) {
	var nodes []nodeView
	err := hdf5.Walk(f.Root(), func(p string, obj interface{}, err error) error {
		n := nodeView{Path: p}
		switch o := obj.(type) {
		case *hdf5.Group:
			n.Kind = "group"
			n.Attrs = o.Attrs()
		case *hdf5.Dataset:
			n.Kind = "dataset"
			n.Type = o.Datatype().String()
			n.Dims = o.Dims()
			n.Chunks = o.Chunks()
			n.Attrs = o.Attrs()
			if o.Shuffle() {
				n.Filters = append(n.Filters, "shuffle")
			}
			if level := o.Compression(); level > 0 {
				n.Filters = append(n.Filters, fmt.Sprintf("deflate(%d)", level))
			}
		default:
			n.Kind = "link"
			if err != nil {
				n.LinkFail = err.Error()
			}
		}
		nodes = append(nodes, n)
		return nil
	})
	return nodes, err
}

func treeCmd(st *state) *cli.Command {
	return &cli.Command{
		Name:      "tree",
		Usage:     "List every group and dataset of an HDF5 file",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("tree: expected one file argument, got %d", cmd.Args().Len())
			}
			f, err := hdf5.Open(cmd.Args().First())
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			nodes, err := walkTree(f)
			if err != nil {
				return err
			}
			return render(st.out, st.output, nodes, func(t table.Writer) {
				t.AppendHeader(table.Row{"Path", "Kind", "Type", "Dims", "Chunks", "Filters"})
				for _, n := range nodes {
					dims, chunks := "", ""
					if n.Dims != nil {
						dims = fmt.Sprint(n.Dims)
					}
					if n.Chunks != nil {
						chunks = fmt.Sprint(n.Chunks)
					}
					t.AppendRow(table.Row{n.Path, n.Kind, n.Type, dims, chunks, strings.Join(n.Filters, ",")})
				}
			})
		},
	}
}
