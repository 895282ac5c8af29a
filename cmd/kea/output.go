package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// render writes v in the chosen output format. Table output is produced by
// fill; a nil fill means the value has no table form.
func render(w io.Writer, output string, v any, fill func(table.Writer)) error {
	var data []byte
	var err error
	switch output {
	case "json":
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(v)
	case "table":
		if fill == nil {
			return fmt.Errorf("table output is not available here, use json or yaml")
		}
		data = renderTable(fill)
	default:
		err = fmt.Errorf("unknown output format: %q", output)
	}
	if err != nil {
		return fmt.Errorf("encoding as %q failed: %w", output, err)
	}
	_, err = w.Write(data)
	return err
}

func renderTable(fill func(table.Writer)) []byte {
	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	fill(t)
	style := table.StyleLight
	style.Options.DrawBorder = false
	// Headers are column names, which are case-sensitive.
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)
	t.Render()
	return buf.Bytes()
}
