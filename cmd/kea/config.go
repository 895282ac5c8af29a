package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-kea/kea"
)

// Config is the optional config file ($XDG_CONFIG_HOME/go-kea/config.yaml).
// Pointer fields tell "not set" from zero.
type Config struct {
	// Band storage defaults
	ChunkSize   *int  `yaml:"chunk_size"`
	Compression *int  `yaml:"compression"`
	Shuffle     *bool `yaml:"shuffle"`

	// Attribute tables
	RATChunkSize *int `yaml:"rat_chunk_size"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Output    string `yaml:"output"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "go-kea", "config.yaml")
}

// loadConfig reads the config file at path. A missing default file gives
// a zero Config; a missing explicit one is an error.
func loadConfig(path string, explicit bool) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// storageFlags are the band storage flags shared by create, add-band and
// mask.
func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "chunk", Usage: "square chunk edge in pixels", Value: 256},
		&cli.IntFlag{Name: "compression", Usage: "deflate level, 0 disables", Value: 1},
		&cli.BoolFlag{Name: "shuffle", Usage: "apply the shuffle filter"},
	}
}

// storageOptions resolves the storage flags against the config, flags
// first.
func (st *state) storageOptions(cmd *cli.Command) []kea.BandOption {
	chunk := cmd.Int("chunk")
	if st.cfg.ChunkSize != nil && !cmd.IsSet("chunk") {
		chunk = *st.cfg.ChunkSize
	}
	level := cmd.Int("compression")
	if st.cfg.Compression != nil && !cmd.IsSet("compression") {
		level = *st.cfg.Compression
	}
	shuffle := cmd.Bool("shuffle")
	if st.cfg.Shuffle != nil && !cmd.IsSet("shuffle") {
		shuffle = *st.cfg.Shuffle
	}

	opts := []kea.BandOption{kea.WithChunks(chunk, chunk), kea.WithCompression(level)}
	if shuffle {
		opts = append(opts, kea.WithShuffle())
	}
	return opts
}

func (st *state) ratChunkSize() int {
	if st.cfg.RATChunkSize != nil {
		return *st.cfg.RATChunkSize
	}
	return kea.DefaultRATChunkSize
}
