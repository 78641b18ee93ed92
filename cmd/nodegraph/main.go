package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-nodegraph/config"
)

type CLI struct {
	Config   string `short:"c" help:"Configuration file, YAML or TOML." type:"path"`
	LogLevel string `name:"log-level" help:"Override the configured log level."`
	Catalog  string `help:"Override the node catalog path." type:"path"`

	Schema SchemaCmd `cmd:"" help:"List the node types the engine exposes."`
	Export ExportCmd `cmd:"" help:"Build a scene file into a graph and submit it to the engine."`
	Watch  WatchCmd  `cmd:"" help:"Keep the node registry in sync with the engine catalog."`
	Launch LaunchCmd `cmd:"" help:"Start the engine process."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "nodegraph: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("nodegraph"),
		kong.Description("Sync engine node schemas and export node graphs."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cli, stdout, stderr)
	if err != nil {
		return err
	}
	return kctx.Run(a)
}

func loadConfig(cli CLI) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if cli.Config != "" {
		cfg, err = config.Load(cli.Config)
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = config.Default()
		if err := cfg.Expand(); err != nil {
			return cfg, err
		}
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.Catalog != "" {
		cfg.Catalog.Path = cli.Catalog
	}
	return cfg, cfg.Validate()
}
