package engine

import (
	stderrors "errors"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	ErrCodeCatalogUnavailable = "ENGINE_CATALOG_UNAVAILABLE"
	ErrCodeVersionMismatch    = "ENGINE_VERSION_MISMATCH"
	ErrCodeSubmitFailed       = "ENGINE_SUBMIT_FAILED"
	ErrCodeLaunchFailed       = "ENGINE_LAUNCH_FAILED"
	ErrCodeWatchFailed        = "ENGINE_WATCH_FAILED"
)

var (
	ErrCatalogUnavailable = errors.New("node catalog unavailable", errors.CategoryExternal).
				WithTextCode(ErrCodeCatalogUnavailable)
	ErrVersionMismatch = errors.New("engine version does not satisfy constraint", errors.CategoryValidation).
				WithTextCode(ErrCodeVersionMismatch)
	ErrSubmitFailed = errors.New("graph submission failed", errors.CategoryExternal).
			WithTextCode(ErrCodeSubmitFailed)
	ErrLaunchFailed = errors.New("engine launch failed", errors.CategoryExternal).
			WithTextCode(ErrCodeLaunchFailed)
	ErrWatchFailed = errors.New("catalog watch failed", errors.CategoryExternal).
			WithTextCode(ErrCodeWatchFailed)
)

// Logger is the subset of the node graph logger the engine side needs.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

func newError(base *errors.Error, message string, source error, metadata map[string]any) *errors.Error {
	err := base.Clone()
	if text := strings.TrimSpace(message); text != "" {
		err.Message = text
	}
	if source != nil {
		err.Source = source
	}
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

// ErrorCode returns the text code carried by err, or "".
func ErrorCode(err error) string {
	var ge *errors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}
