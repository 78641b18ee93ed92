package graph

import (
	stderrors "errors"

	"github.com/goliatone/go-errors"
)

const (
	ErrCodeDanglingReference  = "GRAPH_DANGLING_REFERENCE"
	ErrCodeIncompatiblePins   = "GRAPH_INCOMPATIBLE_PINS"
	ErrCodeNodeExists         = "GRAPH_NODE_EXISTS"
	ErrCodeNodeNotFound       = "GRAPH_NODE_NOT_FOUND"
	ErrCodeInvalidTransition  = "NODE_INVALID_TRANSITION"
	ErrCodeInvalidDocument    = "GRAPH_INVALID_DOCUMENT"
	ErrCodeValueNotAssignable = "GRAPH_VALUE_NOT_ASSIGNABLE"
)

var (
	ErrDanglingReference = errors.New("reference to a missing node or socket", errors.CategoryBadInput).
				WithTextCode(ErrCodeDanglingReference)
	ErrIncompatiblePins = errors.New("socket kinds cannot be linked", errors.CategoryBadInput).
				WithTextCode(ErrCodeIncompatiblePins)
	ErrNodeExists = errors.New("node name already used in graph", errors.CategoryConflict).
			WithTextCode(ErrCodeNodeExists)
	ErrNodeNotFound = errors.New("node not found", errors.CategoryBadInput).
			WithTextCode(ErrCodeNodeNotFound)
	ErrInvalidTransition = errors.New("invalid node lifecycle transition", errors.CategoryConflict).
				WithTextCode(ErrCodeInvalidTransition)
	ErrInvalidDocument = errors.New("invalid graph document", errors.CategoryBadInput).
				WithTextCode(ErrCodeInvalidDocument)
	ErrValueNotAssignable = errors.New("value cannot be stored in socket", errors.CategoryBadInput).
				WithTextCode(ErrCodeValueNotAssignable)
)

func newError(base *errors.Error, message string, metadata map[string]any) *errors.Error {
	err := base.Clone()
	if message != "" {
		err.Message = message
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
