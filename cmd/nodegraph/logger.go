package main

import (
	"context"
	"io"

	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-nodegraph"
	"github.com/goliatone/go-nodegraph/config"
)

// glogLogger adapts a go-logger logger to nodegraph.Logger.
type glogLogger struct {
	logger glog.Logger
}

func (l glogLogger) Trace(msg string, args ...any) { l.logger.Trace(msg, args...) }
func (l glogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l glogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l glogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l glogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l glogLogger) Fatal(msg string, args ...any) { l.logger.Fatal(msg, args...) }

// WithContext also carries the fields attached with
// nodegraph.ContextWithLogFields.
func (l glogLogger) WithContext(ctx context.Context) nodegraph.Logger {
	next := glogLogger{logger: l.logger.WithContext(ctx)}
	if fields := nodegraph.LogFields(ctx); len(fields) > 0 {
		return next.WithFields(fields)
	}
	return next
}

func (l glogLogger) WithFields(fields map[string]any) nodegraph.Logger {
	if fl, ok := l.logger.(glog.FieldsLogger); ok {
		return glogLogger{logger: fl.WithFields(fields)}
	}
	return l
}

func newLogger(cfg config.LogConfig, out io.Writer) nodegraph.Logger {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	var base glog.Logger
	if cfg.Format == "json" {
		base = glog.NewLogger(glog.WithWriter(out), glog.WithLoggerTypeJSON(), glog.WithLevel(level))
	} else {
		base = glog.NewLogger(glog.WithWriter(out), glog.WithLevel(level))
	}
	return glogLogger{logger: base}
}
