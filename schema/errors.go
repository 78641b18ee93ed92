package schema

import (
	stderrors "errors"

	"github.com/goliatone/go-errors"
)

const (
	ErrCodeParseWarning    = "SCHEMA_PARSE_WARNING"
	ErrCodeUnsupportedType = "SCHEMA_UNSUPPORTED_TYPE"
	ErrCodeDuplicateField  = "SCHEMA_DUPLICATE_FIELD"
	ErrCodeInvalidDocument = "SCHEMA_INVALID_DOCUMENT"
	ErrCodeInvalidCatalog  = "SCHEMA_INVALID_CATALOG"
)

var (
	ErrParseWarning = errors.New("ambiguous field prefix", errors.CategoryValidation).
			WithTextCode(ErrCodeParseWarning)
	ErrUnsupportedType = errors.New("unsupported field type", errors.CategoryValidation).
				WithTextCode(ErrCodeUnsupportedType)
	ErrDuplicateField = errors.New("duplicate field name", errors.CategoryConflict).
				WithTextCode(ErrCodeDuplicateField)
	ErrInvalidDocument = errors.New("schema document must be a JSON object", errors.CategoryBadInput).
				WithTextCode(ErrCodeInvalidDocument)
	ErrInvalidCatalog = errors.New("invalid schema catalog", errors.CategoryBadInput).
				WithTextCode(ErrCodeInvalidCatalog)
)

func diagnostic(base *errors.Error, message string, metadata map[string]any) *errors.Error {
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
