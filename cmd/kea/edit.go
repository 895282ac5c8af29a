package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-kea/kea"
)

func createCmd(st *state) *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{Name: "width", Usage: "columns", Required: true},
		&cli.IntFlag{Name: "height", Usage: "rows", Required: true},
		&cli.IntFlag{Name: "bands", Usage: "initial band count", Value: 1},
		&cli.StringFlag{Name: "type", Usage: "band data type", Value: "uint8"},
		&cli.FloatFlag{Name: "nodata", Usage: "no-data value of the initial bands"},
		&cli.StringFlag{Name: "wkt", Usage: "spatial reference as WKT"},
	}
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a KEA file",
		ArgsUsage: "<file>",
		Flags:     append(flags, storageFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("create: expected one file argument, got %d", cmd.Args().Len())
			}
			dt, err := kea.ParseDataType(cmd.String("type"))
			if err != nil {
				return err
			}
			img, err := kea.Create(cmd.Args().First(), kea.CreateOptions{
				Width:  cmd.Int("width"),
				Height: cmd.Int("height"),
				WKT:    cmd.String("wkt"),
			}, kea.WithLogger(st.log))
			if err != nil {
				return err
			}
			defer func() { _ = img.Close() }()

			opts := append(st.storageOptions(cmd), kea.WithDataType(dt))
			if cmd.IsSet("nodata") {
				opts = append(opts, kea.WithNoData(cmd.Float("nodata")))
			}
			for range cmd.Int("bands") {
				if _, err := img.AppendBand(opts...); err != nil {
					return err
				}
			}
			st.log.Info("created", "path", img.Path(), "bands", img.Count())
			return img.Close()
		},
	}
}

func addBandCmd(st *state) *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{Name: "link", Usage: "share the data of this band"},
		&cli.StringFlag{Name: "type", Usage: "band data type, default the promoted type"},
		&cli.StringFlag{Name: "name", Usage: "band name"},
		&cli.StringFlag{Name: "description", Usage: "band description"},
		&cli.FloatFlag{Name: "nodata", Usage: "no-data value"},
	}
	return &cli.Command{
		Name:      "add-band",
		Usage:     "Append a band",
		ArgsUsage: "<file>",
		Flags:     append(flags, storageFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			img, err := st.open(cmd, kea.ReadWrite)
			if err != nil {
				return err
			}
			defer func() { _ = img.Close() }()

			opts := st.storageOptions(cmd)
			if cmd.IsSet("type") {
				dt, err := kea.ParseDataType(cmd.String("type"))
				if err != nil {
					return err
				}
				opts = append(opts, kea.WithDataType(dt))
			}
			if cmd.IsSet("link") {
				opts = append(opts, kea.LinkTo(cmd.Int("link")))
			}
			if cmd.IsSet("nodata") {
				opts = append(opts, kea.WithNoData(cmd.Float("nodata")))
			}
			opts = append(opts, kea.WithBandName(cmd.String("name")), kea.WithDescription(cmd.String("description")))

			n, err := img.AppendBand(opts...)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(st.out, n)
			return img.Close()
		},
	}
}

func maskCmd(st *state) *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{Name: "band", Usage: "band to add a mask to", Required: true},
	}
	return &cli.Command{
		Name:      "mask",
		Usage:     "Add an all-valid mask to a band",
		ArgsUsage: "<file>",
		Flags:     append(flags, storageFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			img, err := st.open(cmd, kea.ReadWrite)
			if err != nil {
				return err
			}
			defer func() { _ = img.Close() }()

			if err := img.CreateMask(cmd.Int("band"), st.storageOptions(cmd)...); err != nil {
				return err
			}
			return img.Close()
		},
	}
}

func setCmd(st *state) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Change band metadata",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "band", Usage: "band to change", Required: true},
			&cli.StringFlag{Name: "description", Usage: "band description"},
			&cli.StringFlag{Name: "usage", Usage: "colour interpretation, e.g. redband"},
			&cli.StringFlag{Name: "layer-type", Usage: "continuous or thematic"},
			&cli.FloatFlag{Name: "nodata", Usage: "no-data value"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			img, err := st.open(cmd, kea.ReadWrite)
			if err != nil {
				return err
			}
			defer func() { _ = img.Close() }()

			band := cmd.Int("band")
			if cmd.IsSet("description") {
				if err := img.SetDescription(band, cmd.String("description")); err != nil {
					return err
				}
			}
			if cmd.IsSet("usage") {
				c, err := kea.ParseColourInterp(cmd.String("usage"))
				if err != nil {
					return err
				}
				if err := img.SetUsage(band, c); err != nil {
					return err
				}
			}
			if cmd.IsSet("layer-type") {
				lt, err := kea.ParseLayerType(cmd.String("layer-type"))
				if err != nil {
					return err
				}
				if err := img.SetLayerType(band, lt); err != nil {
					return err
				}
			}
			if cmd.IsSet("nodata") {
				if err := img.SetNoData(band, cmd.Float("nodata")); err != nil {
					return err
				}
			}
			return img.Close()
		},
	}
}
