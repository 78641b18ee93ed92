package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodes.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	w := NewWatcher(path, WithDebounce(20*time.Millisecond))
	go func() {
		done <- w.Run(ctx, func() { calls.Add(1) })
	}()

	// the watch is registered asynchronously; keep writing until seen
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`{"nodes": []}`), 0o644)
		return calls.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	before := calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, calls.Load(), "other files are ignored")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "nope", "nodes.json"))
	err := w.Run(context.Background(), func() {})
	require.Error(t, err)
	assert.Equal(t, ErrCodeWatchFailed, ErrorCode(err))
}
