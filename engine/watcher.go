package engine

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes of a single file. Editors and the engine often
// replace a file with several events; they are debounced into one call.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   Logger
}

type WatcherOption func(*Watcher)

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func WithWatcherLogger(l Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

func NewWatcher(path string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	w.logger = normalizeLogger(w.logger)
	return w
}

// Run blocks until ctx is done, calling onChange after the file is written,
// created or renamed into place. The parent directory is watched so the
// file may not exist yet.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return newError(ErrWatchFailed, "", err, nil)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return newError(ErrWatchFailed, "cannot watch directory", err, map[string]any{"dir": dir})
	}
	w.logger.Info("watching %s", w.path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			timer = nil
			onChange()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch %s: %v", w.path, err)
		}
	}
}
