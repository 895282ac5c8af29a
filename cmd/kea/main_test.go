package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-kea/kea"
)

// run executes the CLI with an isolated config directory and returns its
// stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var out, errOut bytes.Buffer
	err := newApp(&out, &errOut).Run(context.Background(), append([]string{"kea"}, args...))
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := run(t, args...)
	require.NoError(t, err, "stderr: %s", errOut)
	return out
}

func newFile(t *testing.T, args ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.kea")
	mustRun(t, append([]string{"create", "--width", "6", "--height", "4"}, append(args, path)...)...)
	return path
}

func TestCreateAndInfo(t *testing.T) {
	path := newFile(t, "--bands", "2", "--type", "int16", "--nodata=-1")

	out := mustRun(t, "--output", "json", "info", path)
	var v imageView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, 6, v.Width)
	assert.Equal(t, 4, v.Height)
	assert.Equal(t, "int16", v.DataType)
	assert.Equal(t, "KEA", v.FileType)
	require.Len(t, v.Bands, 2)
	assert.Equal(t, "Band 2", v.Bands[1].Name)
	require.NotNil(t, v.Bands[0].NoData)
	assert.Equal(t, -1.0, *v.Bands[0].NoData)
	assert.Equal(t, []int{4, 6}, v.Bands[0].Chunks)

	table := mustRun(t, "info", path)
	assert.Contains(t, table, "Band 1")
	assert.Contains(t, table, "int16")
}

func TestCreateRejectsBadType(t *testing.T) {
	_, _, err := run(t, "create", "--width", "2", "--height", "2", "--type", "complex", filepath.Join(t.TempDir(), "x.kea"))
	assert.ErrorIs(t, err, kea.ErrType)
}

func TestFlagsWinOverConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("chunk_size: 2\ncompression: 3\nshuffle: true\n"), 0o644))

	path := filepath.Join(t.TempDir(), "img.kea")
	mustRun(t, "--config", cfg, "create", "--width", "6", "--height", "4", "--compression", "5", path)

	img, err := kea.Open(path, kea.ReadOnly)
	require.NoError(t, err)
	defer img.Close()
	ds, err := img.File().OpenDataset("/BAND1/DATA")
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Compression())
	assert.True(t, ds.Shuffle())
	assert.Equal(t, []uint64{2, 2}, ds.Chunks())
}

func TestMissingExplicitConfig(t *testing.T) {
	_, _, err := run(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "info", "x.kea")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAddBandLink(t *testing.T) {
	path := newFile(t, "--type", "float32")
	out := mustRun(t, "add-band", "--link", "1", "--name", "copy", path)
	assert.Equal(t, "2\n", out)

	_, _, err := run(t, "add-band", "--link", "7", path)
	assert.ErrorIs(t, err, kea.ErrPrecondition)

	img, err := kea.Open(path, kea.ReadOnly)
	require.NoError(t, err)
	defer img.Close()
	assert.Equal(t, map[int]string{1: "Band 1", 2: "copy"}, img.BandNames())
	assert.Equal(t, kea.Float32, img.DataTypes()[2])
}

func TestMaskTwice(t *testing.T) {
	path := newFile(t)
	mustRun(t, "mask", "--band", "1", path)

	_, errOut, err := run(t, "--log-format", "json", "mask", "--band", "1", path)
	require.NoError(t, err)
	assert.Contains(t, errOut, `"msg":"mask already exists"`)

	_, _, err = run(t, "mask", "--band", "2", path)
	assert.ErrorIs(t, err, kea.ErrRange)
}

func TestSetAndYAMLInfo(t *testing.T) {
	path := newFile(t)
	mustRun(t, "set", "--band", "1", "--description", "land cover", "--usage", "redband", "--layer-type", "thematic", "--nodata", "0", path)

	out := mustRun(t, "-o", "yaml", "info", path)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	bands := doc["bands"].([]any)
	b := bands[0].(map[string]any)
	assert.Equal(t, "land cover", b["description"])
	assert.Equal(t, "redband", b["usage"])
	assert.Equal(t, "thematic", b["layer_type"])
	assert.Equal(t, 0, b["nodata"])
}

func TestRATExportImport(t *testing.T) {
	path := newFile(t, "--bands", "2")
	img, err := kea.Open(path, kea.ReadWrite)
	require.NoError(t, err)
	require.NoError(t, img.WriteRAT(1, kea.NewTable(
		kea.Column{Name: "class", Values: []int32{1, 2, 3}},
		kea.Column{Name: "area", Values: []float64{1.5, 2.5, 3.5}},
		kea.Column{Name: "name", Values: []string{"a", "b", "c"}},
		kea.Column{Name: "keep", Values: []bool{true, false, true}},
	), kea.Usage(map[string]string{"area": "PixelCount"})))
	require.NoError(t, img.Close())

	out := mustRun(t, "-o", "json", "rat", "--band", "1", "--columns", "name,class", "--rows", "1:", path)
	var part ratView
	require.NoError(t, json.Unmarshal([]byte(out), &part))
	assert.Equal(t, 2, part.Rows)
	require.Len(t, part.Columns, 2)
	assert.Equal(t, "name", part.Columns[0].Name)
	assert.Equal(t, []any{"b", "c"}, part.Columns[0].Values)

	full := mustRun(t, "-o", "json", "rat", "--band", "1", path)
	doc := filepath.Join(t.TempDir(), "rat.json")
	require.NoError(t, os.WriteFile(doc, []byte(full), 0o644))
	mustRun(t, "import-rat", "--band", "2", "--from", doc, "--chunk-size", "2", path)

	img, err = kea.Open(path, kea.ReadOnly)
	require.NoError(t, err)
	defer img.Close()
	got, err := img.ReadRAT(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"class", "area", "name", "keep"}, got.Names())
	assert.Equal(t, []int64{1, 2, 3}, got.Columns[0].Values)
	assert.Equal(t, []bool{true, false, true}, got.Columns[3].Values)
	info, err := img.RATInfo(2)
	require.NoError(t, err)
	assert.Equal(t, 2, info.ChunkSize)
	assert.Equal(t, "PixelCount", info.Fields[1].Usage)

	table := mustRun(t, "rat", "--band", "1", path)
	assert.Contains(t, table, "area")
	assert.NotContains(t, table, "AREA")
	assert.Contains(t, table, "2.5")
}

func TestTree(t *testing.T) {
	path := newFile(t)
	out := mustRun(t, "tree", path)
	assert.Contains(t, out, "/BAND1/DATA")
	assert.Contains(t, out, "deflate(1)")

	var nodes []nodeView
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "-o", "json", "tree", path)), &nodes))
	kinds := map[string]string{}
	for _, n := range nodes {
		kinds[n.Path] = n.Kind
	}
	assert.Equal(t, "group", kinds["/HEADER"])
	assert.Equal(t, "dataset", kinds["/HEADER/SIZE"])
}

func TestParseRows(t *testing.T) {
	tests := []struct {
		in         string
		start, end int
		wantErr    bool
	}{
		{"1:3", 1, 3, false},
		{":2", 0, 2, false},
		{"4:", 4, 10, false},
		{":", 0, 10, false},
		{"3", 0, 0, true},
		{"a:b", 0, 0, true},
	}
	for _, tt := range tests {
		start, end, err := parseRows(tt.in, 10)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, [2]int{tt.start, tt.end}, [2]int{start, end}, tt.in)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, render(&buf, "xml", struct{}{}, nil))
	assert.Error(t, render(&buf, "table", struct{}{}, nil))
	assert.NoError(t, render(&buf, "yaml", map[string]int{"a": 1}, nil))
	assert.Equal(t, "a: 1\n", buf.String())
}
