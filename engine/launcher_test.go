package engine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkingDirStripsBuildDirs(t *testing.T) {
	root := filepath.Join("home", "dev", "engine")
	assert.Equal(t, root, WorkingDir(filepath.Join(root, "target", "x86_64", "debug")))
	assert.Equal(t, root, WorkingDir(filepath.Join(root, "target", "x86_64", "release")))
	assert.Equal(t, filepath.Join(root, "bin"), WorkingDir(filepath.Join(root, "bin")))
}

func TestNewLauncherParsesArgs(t *testing.T) {
	l, err := NewLauncher("/opt/engine")
	require.NoError(t, err)
	assert.Equal(t, []string{"-plugin nrg_connector", "-plugin nrg_viewer"}, l.Args())

	l, err = NewLauncher("/opt/engine", WithArgs(`-plugin viewer --scene 'a b.json'`))
	require.NoError(t, err)
	assert.Equal(t, []string{"-plugin", "viewer", "--scene", "a b.json"}, l.Args())

	_, err = NewLauncher("/opt/engine", WithArgs(`"unterminated`))
	require.Error(t, err)
	assert.Equal(t, ErrCodeLaunchFailed, ErrorCode(err))
}

func TestLauncherCommand(t *testing.T) {
	dir := filepath.Join("proj", "target", "arch", "debug")
	l, err := NewLauncher(dir, WithExecutable("engine_bin"))
	require.NoError(t, err)

	cmd := l.Command()
	assert.Equal(t, "proj", cmd.Dir)
	want := filepath.Join(dir, "engine_bin")
	if runtime.GOOS == "windows" {
		want += ".exe"
	}
	assert.Equal(t, want, l.ExecutablePath())
}

func TestFixPermissionsAndStart(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script launcher")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, DefaultExecutable)
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	changed, err := FixPermissions(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	info, err := os.Stat(script)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	changed, err = FixPermissions(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	l, err := NewLauncher(dir)
	require.NoError(t, err)
	require.NoError(t, l.Start(context.Background()))
	assert.Eventually(t, func() bool { return !l.Running() }, 2*time.Second, 10*time.Millisecond)
}

func TestLauncherStartMissingBinary(t *testing.T) {
	l, err := NewLauncher(t.TempDir())
	require.NoError(t, err)
	err = l.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrCodeLaunchFailed, ErrorCode(err))
	assert.False(t, l.Running())
}
