package nodegraph

import (
	stderrors "errors"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	ErrCodeDuplicateRegistration = "REGISTRY_DUPLICATE_REGISTRATION"
	ErrCodeUnknownType           = "REGISTRY_UNKNOWN_TYPE"
	ErrCodeInvalidSchema         = "REGISTRY_INVALID_SCHEMA"
	ErrCodeSessionClosed         = "SESSION_CLOSED"
	ErrCodeNoSchemaSource        = "SESSION_NO_SCHEMA_SOURCE"
	ErrCodeNoSubmitter           = "SESSION_NO_SUBMITTER"
	ErrCodeGraphNotFound         = "SESSION_GRAPH_NOT_FOUND"
	ErrCodeOwnerPanic            = "SESSION_PANIC"
	ErrCodeSourceFailed          = "SESSION_SOURCE_FAILED"
	ErrCodeInvalidScene          = "SCENE_INVALID"
)

var (
	// ErrDuplicateRegistration is informational: the newer schema replaces
	// the registered one.
	ErrDuplicateRegistration = errors.New("node type already registered", errors.CategoryConflict).
					WithTextCode(ErrCodeDuplicateRegistration)
	ErrUnknownType = errors.New("node type is not registered", errors.CategoryBadInput).
			WithTextCode(ErrCodeUnknownType)
	ErrInvalidSchema = errors.New("node schema cannot be registered", errors.CategoryBadInput).
				WithTextCode(ErrCodeInvalidSchema)
	ErrSessionClosed = errors.New("session is closed", errors.CategoryConflict).
				WithTextCode(ErrCodeSessionClosed)
	ErrNoSchemaSource = errors.New("session has no schema source", errors.CategoryBadInput).
				WithTextCode(ErrCodeNoSchemaSource)
	ErrNoSubmitter = errors.New("session has no submitter", errors.CategoryBadInput).
			WithTextCode(ErrCodeNoSubmitter)
	ErrGraphNotFound = errors.New("graph not found", errors.CategoryBadInput).
				WithTextCode(ErrCodeGraphNotFound)
	ErrOwnerPanic = errors.New("session request panicked", errors.CategoryHandler).
			WithTextCode(ErrCodeOwnerPanic)
	ErrSourceFailed = errors.New("fetching node schemas failed", errors.CategoryExternal).
			WithTextCode(ErrCodeSourceFailed)
	ErrInvalidScene = errors.New("scene document is invalid", errors.CategoryValidation).
			WithTextCode(ErrCodeInvalidScene)
)

func cloneError(base *errors.Error, message string, source error, metadata map[string]any) *errors.Error {
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
