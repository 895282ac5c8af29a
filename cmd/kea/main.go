// Command kea inspects and edits KEA raster files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-kea/internal/logger"
	"github.com/robert-malhotra/go-kea/kea"
)

// state is shared by every command of one run. Before fills it from the
// config file and the global flags.
type state struct {
	out    io.Writer
	errOut io.Writer
	cfg    Config
	log    logger.Logger
	output string
}

func newApp(out, errOut io.Writer) *cli.Command {
	st := &state{out: out, errOut: errOut, log: logger.Discard()}
	return &cli.Command{
		Name:      "kea",
		Usage:     "Inspect and edit KEA raster files",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to the YAML config file"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", Value: "warn"},
			&cli.StringFlag{Name: "log-format", Usage: "pretty, text or json", Value: "pretty"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "table, json or yaml", Value: "table"},
		},
		Before: st.before,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			infoCmd(st),
			treeCmd(st),
			createCmd(st),
			addBandCmd(st),
			maskCmd(st),
			setCmd(st),
			ratCmd(st),
			importRATCmd(st),
		},
	}
}

func (st *state) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	explicit := cmd.IsSet("config")
	if !explicit {
		path = configPath()
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return ctx, err
	}
	st.cfg = cfg

	levelName := cmd.String("log-level")
	if cfg.LogLevel != "" && !cmd.IsSet("log-level") {
		levelName = cfg.LogLevel
	}
	format := cmd.String("log-format")
	if cfg.LogFormat != "" && !cmd.IsSet("log-format") {
		format = cfg.LogFormat
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return ctx, err
	}
	if st.log, err = logger.ForFormat(format, st.errOut, level); err != nil {
		return ctx, err
	}

	st.output = cmd.String("output")
	if cfg.Output != "" && !cmd.IsSet("output") {
		st.output = cfg.Output
	}
	return logger.WithContext(ctx, st.log), nil
}

// open opens the file named by the first argument.
func (st *state) open(cmd *cli.Command, mode kea.Mode) (*kea.Image, error) {
	if cmd.Args().Len() != 1 {
		return nil, fmt.Errorf("%s: expected one file argument, got %d", cmd.Name, cmd.Args().Len())
	}
	return kea.Open(cmd.Args().First(), mode, kea.WithLogger(st.log))
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
