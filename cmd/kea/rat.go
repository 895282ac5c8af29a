package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-kea/kea"
)

// ratView is the exported form of an attribute table. import-rat reads
// the same document back.
type ratView struct {
	Band    int          `json:"band" yaml:"band"`
	Rows    int          `json:"rows" yaml:"rows"`
	Columns []columnView `json:"columns" yaml:"columns"`
}

type columnView struct {
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Usage  string `json:"usage,omitempty" yaml:"usage,omitempty"`
	Values any    `json:"values" yaml:"values,flow"`
}

// parseRows parses a "start:end" row range. Either side may be empty,
// meaning the first row or the row count.
func parseRows(s string, rows int) (int, int, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("rows %q: want start:end", s)
	}
	start, end := 0, rows
	var err error
	if lo != "" {
		if start, err = strconv.Atoi(lo); err != nil {
			return 0, 0, fmt.Errorf("rows %q: %w", s, err)
		}
	}
	if hi != "" {
		if end, err = strconv.Atoi(hi); err != nil {
			return 0, 0, fmt.Errorf("rows %q: %w", s, err)
		}
	}
	return start, end, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func ratCmd(st *state) *cli.Command {
	return &cli.Command{
		Name:      "rat",
		Usage:     "Export a band's attribute table",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "band", Usage: "band to read", Required: true},
			&cli.StringFlag{Name: "columns", Usage: "comma separated column names, in output order"},
			&cli.StringFlag{Name: "rows", Usage: "row range start:end"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			img, err := st.open(cmd, kea.ReadOnly)
			if err != nil {
				return err
			}
			defer func() { _ = img.Close() }()

			band := cmd.Int("band")
			info, err := img.RATInfo(band)
			if err != nil {
				return err
			}
			var opts []kea.RATReadOption
			if cols := splitList(cmd.String("columns")); len(cols) > 0 {
				opts = append(opts, kea.Columns(cols...))
			}
			if cmd.IsSet("rows") {
				start, end, err := parseRows(cmd.String("rows"), info.Rows)
				if err != nil {
					return err
				}
				opts = append(opts, kea.Rows(start, end))
			}
			t, err := img.ReadRAT(band, opts...)
			if err != nil {
				return err
			}

			v := viewOfTable(band, t, info)
			return render(st.out, st.output, v, func(w table.Writer) {
				header := table.Row{}
				for _, c := range v.Columns {
					header = append(header, c.Name)
				}
				w.AppendHeader(header)
				for r := 0; r < v.Rows; r++ {
					row := table.Row{}
					for _, c := range t.Columns {
						row = append(row, cell(c.Values, r))
					}
					w.AppendRow(row)
				}
			})
		},
	}
}

func viewOfTable(band int, t *kea.Table, info kea.RATInfo) ratView {
	fields := make(map[string]kea.RATField, len(info.Fields))
	for _, f := range info.Fields {
		fields[f.Name] = f
	}
	v := ratView{Band: band, Rows: t.NumRows(), Columns: []columnView{}}
	for _, c := range t.Columns {
		f := fields[c.Name]
		v.Columns = append(v.Columns, columnView{Name: c.Name, Type: f.Type.String(), Usage: f.Usage, Values: c.Values})
	}
	return v
}

func cell(values any, r int) any {
	switch v := values.(type) {
	case []bool:
		return v[r]
	case []int64:
		return v[r]
	case []float64:
		return v[r]
	case []string:
		return v[r]
	}
	return nil
}

// document is the JSON form read by import-rat. Values stay raw until the
// column type is known.
type document struct {
	Columns []struct {
		Name   string          `json:"name"`
		Type   string          `json:"type"`
		Usage  string          `json:"usage"`
		Values json.RawMessage `json:"values"`
	} `json:"columns"`
}

// decodeTable builds a table from an exported RAT document.
func decodeTable(data []byte) (*kea.Table, map[string]string, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("attribute table document: %w", err)
	}
	t := kea.NewTable()
	usage := make(map[string]string)
	for _, c := range doc.Columns {
		var values any
		var err error
		switch strings.ToUpper(c.Type) {
		case "BOOL":
			values, err = decodeValues[bool](c.Values)
		case "INT":
			values, err = decodeValues[int64](c.Values)
		case "FLOAT":
			values, err = decodeValues[float64](c.Values)
		case "STRING":
			values, err = decodeValues[string](c.Values)
		default:
			err = fmt.Errorf("unknown type %q", c.Type)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		t.Columns = append(t.Columns, kea.Column{Name: c.Name, Values: values})
		if c.Usage != "" {
			usage[c.Name] = c.Usage
		}
	}
	return t, usage, nil
}

func decodeValues[T any](raw json.RawMessage) ([]T, error) {
	out := []T{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func importRATCmd(st *state) *cli.Command {
	return &cli.Command{
		Name:      "import-rat",
		Usage:     "Replace a band's attribute table with an exported JSON document",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "band", Usage: "band to write", Required: true},
			&cli.StringFlag{Name: "from", Usage: "JSON document as written by kea rat -o json", Required: true},
			&cli.IntFlag{Name: "chunk-size", Usage: "row chunk size of the stored table"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			data, err := os.ReadFile(cmd.String("from"))
			if err != nil {
				return err
			}
			t, usage, err := decodeTable(data)
			if err != nil {
				return err
			}
			img, err := st.open(cmd, kea.ReadWrite)
			if err != nil {
				return err
			}
			defer func() { _ = img.Close() }()

			chunk := st.ratChunkSize()
			if cmd.IsSet("chunk-size") {
				chunk = cmd.Int("chunk-size")
			}
			if err := img.WriteRAT(cmd.Int("band"), t, kea.Usage(usage), kea.ChunkSize(chunk)); err != nil {
				return err
			}
			return img.Close()
		},
	}
}
