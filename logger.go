package nodegraph

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Logger is what the registry, sessions and panic recovery log through.
// Printf-style messages; glog loggers satisfy it through a thin adapter.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// FieldsLogger is implemented by loggers that carry structured fields.
type FieldsLogger interface {
	WithFields(map[string]any) Logger
}

type logFieldsKey struct{}

// ContextWithLogFields attaches fields to ctx. Loggers derived with
// WithContext(ctx) add them to every line.
func ContextWithLogFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, logFieldsKey{}, mergeFields(LogFields(ctx), fields))
}

// LogFields returns the fields attached with ContextWithLogFields.
func LogFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(logFieldsKey{}).(map[string]any)
	return fields
}

// Level orders log severities.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// FmtLogger is the fallback used when no logger is configured. It writes
// logfmt lines and defaults to stderr, keeping stdout free for documents.
type FmtLogger struct {
	mu     *sync.Mutex
	out    io.Writer
	min    Level
	fields map[string]any
}

// NewFmtLogger logs info and above to out, or to stderr when out is nil.
func NewFmtLogger(out io.Writer) *FmtLogger {
	if out == nil {
		out = os.Stderr
	}
	return &FmtLogger{mu: &sync.Mutex{}, out: out, min: LevelInfo}
}

// WithLevel returns a copy that drops lines below min.
func (l *FmtLogger) WithLevel(min Level) *FmtLogger {
	cp := *l
	cp.min = min
	return &cp
}

func (l *FmtLogger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args) }
func (l *FmtLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }
func (l *FmtLogger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args) }
func (l *FmtLogger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args) }
func (l *FmtLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }
func (l *FmtLogger) Fatal(msg string, args ...any) { l.log(LevelFatal, msg, args) }

// WithContext picks up the fields attached with ContextWithLogFields.
func (l *FmtLogger) WithContext(ctx context.Context) Logger {
	return l.WithFields(LogFields(ctx))
}

func (l *FmtLogger) WithFields(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	cp := *l
	cp.fields = mergeFields(l.fields, fields)
	return &cp
}

func (l *FmtLogger) log(level Level, msg string, args []any) {
	if level < l.min {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var b strings.Builder
	b.WriteString("time=")
	b.WriteString(time.Now().UTC().Format(time.RFC3339Nano))
	b.WriteString(" level=")
	b.WriteString(level.String())
	b.WriteString(" msg=")
	b.WriteString(logfmtValue(strings.TrimSpace(msg)))
	for _, k := range sortedKeys(l.fields) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(logfmtValue(fmt.Sprint(l.fields[k])))
	}
	b.WriteByte('\n')

	if l.mu != nil {
		l.mu.Lock()
		defer l.mu.Unlock()
	}
	io.WriteString(l.out, b.String())
}

// logfmtValue quotes s when it would break a key=value line.
func logfmtValue(s string) string {
	if s == "" || strings.ContainsAny(s, " =\"\n\t") {
		return strconv.Quote(s)
	}
	return s
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Trace(string, ...any)                 {}
func (NopLogger) Debug(string, ...any)                 {}
func (NopLogger) Info(string, ...any)                  {}
func (NopLogger) Warn(string, ...any)                  {}
func (NopLogger) Error(string, ...any)                 {}
func (NopLogger) Fatal(string, ...any)                 {}
func (n NopLogger) WithContext(context.Context) Logger { return n }

func normalizeLogger(logger Logger) Logger {
	if logger == nil {
		return NewFmtLogger(nil)
	}
	return logger
}

func withLoggerFields(logger Logger, fields map[string]any) Logger {
	logger = normalizeLogger(logger)
	if fl, ok := logger.(FieldsLogger); ok {
		return fl.WithFields(fields)
	}
	return logger
}

func mergeFields(a, b map[string]any) map[string]any {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
