package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goliatone/go-nodegraph"
	"github.com/goliatone/go-nodegraph/config"
	"github.com/goliatone/go-nodegraph/engine"
	"github.com/goliatone/go-nodegraph/runner"
)

// app carries what every command needs once flags and config are resolved.
type app struct {
	ctx    context.Context
	cfg    config.Config
	logger nodegraph.Logger
	stdout io.Writer
}

func newApp(ctx context.Context, cli CLI, stdout, stderr io.Writer) (*app, error) {
	cfg, err := loadConfig(cli)
	if err != nil {
		return nil, err
	}
	return &app{
		ctx:    ctx,
		cfg:    cfg,
		logger: newLogger(cfg.Log, stderr),
		stdout: stdout,
	}, nil
}

func (a *app) source() (*engine.FileSource, error) {
	return engine.NewFileSource(a.cfg.Catalog.Path,
		engine.WithVersionConstraint(a.cfg.Catalog.VersionConstraint),
	)
}

func (a *app) runner() *runner.Handler {
	return runner.NewHandler(
		runner.WithMaxRetries(a.cfg.Export.Retries),
		runner.WithTimeout(a.cfg.ExportTimeout()),
		runner.WithRetryStrategy(runner.ExponentialBackoffStrategy{
			Base:   a.cfg.ExportBackoff(),
			Factor: 2,
		}),
		runner.WithLogger(a.logger),
		runner.WithErrorHandler(func(err error) {
			a.logger.Warn("retrying: %v", err)
		}),
	)
}

// submitter writes exports to disk and, when configured, asks a running
// engine to load them. The returned close func releases the connection.
func (a *app) submitter() (nodegraph.Submitter, func() error) {
	files := engine.NewFileSubmitter(a.cfg.Export.Dir)
	if !a.cfg.Export.Connect {
		return files, func() error { return nil }
	}
	c := engine.NewConnector(files,
		engine.WithAddress(a.cfg.Engine.Address),
		engine.WithRunner(a.runner()),
		engine.WithConnectorLogger(a.logger),
	)
	return c, c.Close
}

// launchEngine starts the engine found in dir, fixing file modes first
// when configured.
func (a *app) launchEngine(dir string) (*engine.Launcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("engine directory is not configured")
	}
	if a.cfg.Engine.FixPermissions {
		changed, err := engine.FixPermissions(dir)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("fixed permissions on %d file(s)", changed)
	}
	l, err := engine.NewLauncher(dir,
		engine.WithExecutable(a.cfg.Engine.Executable),
		engine.WithArgs(a.cfg.Engine.Args),
		engine.WithLauncherLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	if err := l.Start(a.ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// session starts a session fed by the catalog file.
func (a *app) session(opts ...nodegraph.SessionOption) (*nodegraph.Session, error) {
	src, err := a.source()
	if err != nil {
		return nil, err
	}
	opts = append([]nodegraph.SessionOption{
		nodegraph.WithLogger(a.logger),
		nodegraph.WithSchemaSource(src),
	}, opts...)
	s := nodegraph.NewSession(opts...)
	if err := s.Start(a.ctx); err != nil {
		return nil, err
	}
	return s, nil
}
