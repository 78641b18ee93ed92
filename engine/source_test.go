package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `{
	"version": "0.4.2",
	"nodes": [
		{"name": "MoveTo", "category": "Movement", "fields": {"in_exec": {"type_name": "ScriptExecution"}, "in_speed": 1.0}},
		{"name": "Print", "fields": {"in_text": ""}}
	]
}`

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nodes.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFileSourceReadsCatalog(t *testing.T) {
	src, err := NewFileSource(writeCatalog(t, catalogJSON))
	require.NoError(t, err)

	catalog, err := src.FetchNodeSchemas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.4.2", catalog.Version)
	require.Len(t, catalog.Schemas, 2)
	assert.Equal(t, "MoveTo", catalog.Schemas[0].TypeName())
	assert.Equal(t, "Movement", catalog.Schemas[0].Category())
}

func TestFileSourceChecksVersion(t *testing.T) {
	path := writeCatalog(t, catalogJSON)

	ok, err := NewFileSource(path, WithVersionConstraint(">= 0.4, < 0.5"))
	require.NoError(t, err)
	_, err = ok.FetchNodeSchemas(context.Background())
	require.NoError(t, err)

	tooNew, err := NewFileSource(path, WithVersionConstraint("^1.0"))
	require.NoError(t, err)
	_, err = tooNew.FetchNodeSchemas(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrCodeVersionMismatch, ErrorCode(err))

	_, err = NewFileSource(path, WithVersionConstraint("not a constraint !!"))
	require.Error(t, err)
}

func TestFileSourceMissingFile(t *testing.T) {
	src, err := NewFileSource(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	_, err = src.FetchNodeSchemas(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrCodeCatalogUnavailable, ErrorCode(err))
}

func TestCheckVersion(t *testing.T) {
	c, err := semver.NewConstraint("~0.4")
	require.NoError(t, err)
	assert.NoError(t, CheckVersion("0.4.9", c))
	assert.NoError(t, CheckVersion("", nil))
	assert.Equal(t, ErrCodeVersionMismatch, ErrorCode(CheckVersion("", c)))
	assert.Equal(t, ErrCodeVersionMismatch, ErrorCode(CheckVersion("banana", c)))
	assert.Equal(t, ErrCodeVersionMismatch, ErrorCode(CheckVersion("0.5.0", c)))
}
