package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// DocumentSuffix is appended to graph names to form export file names.
const DocumentSuffix = ".nodegraph.json"

// FileSubmitter writes graph documents into a directory the engine reads.
type FileSubmitter struct {
	dir string
}

func NewFileSubmitter(dir string) *FileSubmitter {
	return &FileSubmitter{dir: dir}
}

func (f *FileSubmitter) Dir() string { return f.dir }

// Write stores payload for graphName and returns the absolute file path.
// The file is replaced atomically so the engine never reads a partial
// document.
func (f *FileSubmitter) Write(graphName string, payload []byte) (string, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", newError(ErrSubmitFailed, "cannot create export directory", err, map[string]any{"dir": f.dir})
	}
	target := filepath.Join(f.dir, FileName(graphName))
	if abs, err := filepath.Abs(target); err == nil {
		target = abs
	}

	tmp, err := os.CreateTemp(f.dir, ".export-*")
	if err != nil {
		return "", newError(ErrSubmitFailed, "cannot create export file", err, map[string]any{"dir": f.dir})
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", newError(ErrSubmitFailed, "cannot write export file", err, map[string]any{"path": target})
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", newError(ErrSubmitFailed, "cannot write export file", err, map[string]any{"path": target})
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", newError(ErrSubmitFailed, "cannot move export file into place", err, map[string]any{"path": target})
	}
	return target, nil
}

// Submit writes the document and returns once it is on disk.
func (f *FileSubmitter) Submit(ctx context.Context, graphName string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := f.Write(graphName, payload)
	return err
}

// FileName maps a graph name to a file name safe on every platform.
func FileName(graphName string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, strings.TrimSpace(graphName))
	if name == "" || name == "." || name == ".." {
		name = "graph"
	}
	return name + DocumentSuffix
}
