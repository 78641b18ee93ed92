package engine

import (
	"context"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/goliatone/go-nodegraph/schema"
)

// FileSource reads the node catalog the engine writes to disk.
type FileSource struct {
	path       string
	constraint *semver.Constraints
	expr       string
}

type SourceOption func(*FileSource)

// WithVersionConstraint requires the catalog version to satisfy expr, for
// example ">= 0.3, < 0.5". An empty expr accepts any catalog.
func WithVersionConstraint(expr string) SourceOption {
	return func(s *FileSource) {
		s.expr = expr
	}
}

func NewFileSource(path string, opts ...SourceOption) (*FileSource, error) {
	s := &FileSource{path: path}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.expr != "" {
		c, err := semver.NewConstraint(s.expr)
		if err != nil {
			return nil, newError(ErrVersionMismatch, "invalid version constraint", err, map[string]any{
				"constraint": s.expr,
			})
		}
		s.constraint = c
	}
	return s, nil
}

func (s *FileSource) Path() string { return s.path }

// FetchNodeSchemas reads and decodes the catalog file.
func (s *FileSource) FetchNodeSchemas(ctx context.Context) (*schema.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, newError(ErrCatalogUnavailable, "", err, map[string]any{"path": s.path})
	}
	catalog, err := schema.DecodeCatalog(data)
	if err != nil {
		return nil, err
	}
	if err := CheckVersion(catalog.Version, s.constraint); err != nil {
		return nil, err
	}
	return catalog, nil
}

// CheckVersion validates version against c. A nil constraint accepts
// anything.
func CheckVersion(version string, c *semver.Constraints) error {
	if c == nil {
		return nil
	}
	meta := map[string]any{"version": version, "constraint": c.String()}
	if version == "" {
		return newError(ErrVersionMismatch, "catalog does not declare a version", nil, meta)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return newError(ErrVersionMismatch, "catalog version is not semver", err, meta)
	}
	if !c.Check(v) {
		return newError(ErrVersionMismatch, "", nil, meta)
	}
	return nil
}
