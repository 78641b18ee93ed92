package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-nodegraph"
	"github.com/goliatone/go-nodegraph/cron"
	"github.com/goliatone/go-nodegraph/engine"
	"github.com/goliatone/go-nodegraph/schema"
)

type SchemaCmd struct {
	JSON bool `help:"Print the palette as JSON."`
}

func (c *SchemaCmd) Run(a *app) error {
	s, err := a.session()
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.Refresh(a.ctx); err != nil {
		return err
	}
	return s.Do(a.ctx, func(ws *nodegraph.Workspace) error {
		palette := ws.Registry.Palette()
		if c.JSON {
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(palette)
		}
		for _, cat := range palette {
			fmt.Fprintf(a.stdout, "%s\n", cat.Name)
			for _, item := range cat.Items {
				sc, _ := ws.Registry.Lookup(item.TypeName)
				fmt.Fprintf(a.stdout, "  %s\n", item.TypeName)
				if item.Description != "" {
					fmt.Fprintf(a.stdout, "    %s\n", item.Description)
				}
				printSockets(a, "in ", sc, schema.Input)
				printSockets(a, "out", sc, schema.Output)
			}
		}
		return nil
	})
}

func printSockets(a *app, label string, sc *schema.NodeSchema, dir schema.Direction) {
	specs, _ := sc.Sockets(dir)
	if len(specs) == 0 {
		return
	}
	parts := make([]string, 0, len(specs))
	for _, spec := range specs {
		parts = append(parts, fmt.Sprintf("%s:%s", spec.Name, spec.Kind))
	}
	fmt.Fprintf(a.stdout, "    %s %s\n", label, strings.Join(parts, " "))
}

type ExportCmd struct {
	Scene  string `arg:"" help:"Scene file describing nodes, values and links." type:"existingfile"`
	Stdout bool   `help:"Print the engine document instead of submitting it."`
}

func (c *ExportCmd) Run(a *app) error {
	data, err := os.ReadFile(c.Scene)
	if err != nil {
		return err
	}
	scene, err := nodegraph.LoadScene(data)
	if err != nil {
		return err
	}

	if a.cfg.Engine.Launch && !c.Stdout {
		if _, err := a.launchEngine(a.cfg.Engine.Dir); err != nil {
			return err
		}
	}

	var (
		mu        sync.Mutex
		submitErr error
	)
	sub, closeSub := a.submitter()
	defer closeSub()
	s, err := a.session(
		nodegraph.WithSubmitter(sub),
		nodegraph.WithSubmitErrorHandler(func(_ string, err error) {
			mu.Lock()
			submitErr = errors.Join(submitErr, err)
			mu.Unlock()
		}),
	)
	if err != nil {
		return err
	}

	if _, err := s.Refresh(a.ctx); err != nil {
		s.Close()
		return err
	}
	err = s.Do(a.ctx, func(ws *nodegraph.Workspace) error {
		_, report := ws.Build(scene)
		for _, skipped := range report.Skipped {
			a.logger.Warn("scene %s: %v", scene.Graph, skipped)
		}
		a.logger.Info("scene %s built values=%d links=%d", scene.Graph, report.Values, report.Links)
		return nil
	})
	if err != nil {
		s.Close()
		return err
	}

	if c.Stdout {
		_, payload, err := s.Serialize(a.ctx, scene.Graph)
		s.Close()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.stdout, string(payload))
		return err
	}

	if _, err := s.Export(a.ctx, scene.Graph); err != nil {
		s.Close()
		return err
	}
	// Close waits for the submission to finish.
	s.Close()
	mu.Lock()
	defer mu.Unlock()
	return submitErr
}

type WatchCmd struct {
	Schedule string `help:"Cron expression for periodic refresh; overrides the config."`
	Files    bool   `help:"Also refresh when the catalog file changes."`
	Scene    string `help:"Scene to rebuild and re-export after every refresh." type:"existingfile"`
}

func (c *WatchCmd) Run(a *app) error {
	expr := a.cfg.Refresh.Schedule
	if c.Schedule != "" {
		expr = c.Schedule
	}
	watchFiles := a.cfg.Refresh.Watch || c.Files
	if expr == "" && !watchFiles {
		return fmt.Errorf("nothing to watch: set a refresh schedule or enable file watching")
	}

	var scene *nodegraph.Scene
	if c.Scene != "" {
		data, err := os.ReadFile(c.Scene)
		if err != nil {
			return err
		}
		if scene, err = nodegraph.LoadScene(data); err != nil {
			return err
		}
	}

	if a.cfg.Engine.Launch {
		l, err := a.launchEngine(a.cfg.Engine.Dir)
		if err != nil {
			return err
		}
		defer l.Stop()
	}

	sub, closeSub := a.submitter()
	defer closeSub()
	s, err := a.session(nodegraph.WithSubmitter(sub))
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		mu    sync.Mutex
		built bool
	)
	// cron and the file watcher may fire together.
	refresh := func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		report, err := s.Refresh(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("catalog refreshed registered=%d replaced=%d changed=%t",
			len(report.Registered), len(report.Replaced), report.Changed())
		if scene == nil {
			return nil
		}
		if !built || report.Changed() {
			err = s.Do(ctx, func(ws *nodegraph.Workspace) error {
				_, applied := ws.Build(scene)
				for _, skipped := range applied.Skipped {
					a.logger.Warn("scene %s: %v", scene.Graph, skipped)
				}
				return nil
			})
			if err != nil {
				return err
			}
			built = true
		}
		_, err = s.Export(ctx, scene.Graph)
		return err
	}
	if err := refresh(a.ctx); err != nil {
		a.logger.Error("initial refresh: %v", err)
	}

	if expr != "" {
		scheduler := cron.NewScheduler(
			cron.WithLogger(a.logger),
			cron.WithErrorHandler(func(err error) { a.logger.Error("scheduled refresh: %v", err) }),
		)
		if _, err := scheduler.Schedule(expr, refresh); err != nil {
			return err
		}
		if err := scheduler.Start(a.ctx); err != nil {
			return err
		}
		defer scheduler.Stop(context.Background())
		a.logger.Info("refreshing on schedule %q", expr)
	}

	if watchFiles {
		w := engine.NewWatcher(a.cfg.Catalog.Path, engine.WithWatcherLogger(a.logger))
		return w.Run(a.ctx, func() {
			if err := refresh(a.ctx); err != nil {
				a.logger.Error("refresh after change: %v", err)
			}
		})
	}

	<-a.ctx.Done()
	return nil
}

type LaunchCmd struct {
	Dir string `help:"Engine directory; overrides the config." type:"path"`
}

func (c *LaunchCmd) Run(a *app) error {
	dir := a.cfg.Engine.Dir
	if c.Dir != "" {
		dir = c.Dir
	}
	_, err := a.launchEngine(dir)
	return err
}
