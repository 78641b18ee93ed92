package cron

import (
	"fmt"
	"time"

	"github.com/goliatone/go-nodegraph/runner"
)

// LogLevel controls what the underlying cron engine reports.
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelInfo
)

// Parser selects the accepted expression format.
type Parser int

const (
	// StandardParser accepts five fields plus descriptors like @every 30s.
	StandardParser Parser = iota
	// SecondsParser adds a leading seconds field.
	SecondsParser
)

type Option func(*Scheduler)

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.location = loc
	}
}

func WithLogger(logger Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithLogLevel(level LogLevel) Option {
	return func(s *Scheduler) {
		s.logLevel = level
	}
}

// WithErrorHandler receives job failures and recovered panics.
func WithErrorHandler(handler func(error)) Option {
	return func(s *Scheduler) {
		s.errorHandler = handler
	}
}

func WithParser(p Parser) Option {
	return func(s *Scheduler) {
		s.parser = p
	}
}

// WithRunner sets the retry policy applied to every job run.
func WithRunner(h *runner.Handler) Option {
	return func(s *Scheduler) {
		s.runner = h
	}
}

// loggerAdapter adapts Logger to the cron engine logger.
type loggerAdapter struct {
	logger Logger
	level  LogLevel
}

func (l *loggerAdapter) Info(msg string, keysAndValues ...any) {
	if l.level >= LogLevelInfo {
		l.logger.Info("%s %v", msg, keysAndValues)
	}
}

func (l *loggerAdapter) Error(err error, msg string, keysAndValues ...any) {
	if l.level >= LogLevelError {
		l.logger.Error("%s: %v %v", msg, err, keysAndValues)
	}
}

// errorHandlerAdapter routes recovered job panics to the error handler.
type errorHandlerAdapter struct {
	handler func(error)
}

func (e *errorHandlerAdapter) Info(string, ...any) {}

func (e *errorHandlerAdapter) Error(err error, msg string, _ ...any) {
	if e.handler == nil {
		return
	}
	if err == nil {
		err = fmt.Errorf("%s", msg)
	}
	e.handler(err)
}
