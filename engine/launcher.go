package engine

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/mattn/go-shellwords"
)

const (
	DefaultExecutable = "nrg_launcher"
	// DefaultArgs loads the connector and viewer plugins. Each quoted
	// group is passed as a single argument.
	DefaultArgs = `"-plugin nrg_connector" "-plugin nrg_viewer"`
)

// Launcher starts the engine process without waiting for it.
type Launcher struct {
	dir        string
	executable string
	rawArgs    string
	args       []string
	logger     Logger

	mu      sync.Mutex
	running bool
	process *os.Process
}

type LauncherOption func(*Launcher)

func WithExecutable(name string) LauncherOption {
	return func(l *Launcher) {
		l.executable = name
	}
}

// WithArgs sets the launch arguments as a shell style string.
func WithArgs(args string) LauncherOption {
	return func(l *Launcher) {
		l.rawArgs = args
	}
}

func WithLauncherLogger(logger Logger) LauncherOption {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// NewLauncher prepares a launcher for the engine binaries found in dir.
func NewLauncher(dir string, opts ...LauncherOption) (*Launcher, error) {
	l := &Launcher{
		dir:        dir,
		executable: DefaultExecutable,
		rawArgs:    DefaultArgs,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	args, err := shellwords.Parse(l.rawArgs)
	if err != nil {
		return nil, newError(ErrLaunchFailed, "cannot parse launch arguments", err, map[string]any{"args": l.rawArgs})
	}
	l.args = args
	l.logger = normalizeLogger(l.logger)
	return l, nil
}

func (l *Launcher) Args() []string {
	return append([]string(nil), l.args...)
}

// ExecutablePath is the launcher binary inside the engine directory.
func (l *Launcher) ExecutablePath() string {
	name := l.executable
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		name += ".exe"
	}
	return filepath.Join(l.dir, name)
}

// WorkingDir is the directory the engine runs in. Binaries built into a
// debug or release directory run from the project root three levels up.
func WorkingDir(dir string) string {
	clean := filepath.Clean(dir)
	switch filepath.Base(clean) {
	case "debug", "release":
		for i := 0; i < 3; i++ {
			clean = filepath.Dir(clean)
		}
	}
	return clean
}

// Command builds the engine command.
func (l *Launcher) Command() *exec.Cmd {
	cmd := exec.Command(l.ExecutablePath(), l.args...)
	cmd.Dir = WorkingDir(l.dir)
	return cmd
}

// Start launches the engine and returns once the process is running. The
// process is reaped in the background; ctx only bounds the launch itself.
func (l *Launcher) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return nil
	}

	cmd := l.Command()
	if err := cmd.Start(); err != nil {
		return newError(ErrLaunchFailed, "", err, map[string]any{
			"executable": cmd.Path,
			"dir":        cmd.Dir,
		})
	}
	l.running = true
	l.process = cmd.Process
	l.logger.Info("engine started pid=%d dir=%s", cmd.Process.Pid, cmd.Dir)

	go func() {
		err := cmd.Wait()
		l.mu.Lock()
		l.running = false
		l.process = nil
		l.mu.Unlock()
		if err != nil {
			l.logger.Error("engine exited: %v", err)
			return
		}
		l.logger.Info("engine exited")
	}()
	return nil
}

// Running reports whether a launched process is still alive.
func (l *Launcher) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Stop kills the launched process if it is still running.
func (l *Launcher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.process == nil {
		return nil
	}
	return l.process.Kill()
}

// FixPermissions marks every regular file in dir executable and returns
// how many files changed. Engine archives unpacked on some systems lose
// the execute bit.
func FixPermissions(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, newError(ErrLaunchFailed, "cannot read engine directory", err, map[string]any{"dir": dir})
	}
	changed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return changed, err
		}
		if info.Mode().Perm() == 0o755 {
			continue
		}
		if err := os.Chmod(filepath.Join(dir, entry.Name()), 0o755); err != nil {
			return changed, newError(ErrLaunchFailed, "cannot change file mode", err, map[string]any{
				"file": entry.Name(),
			})
		}
		changed++
	}
	return changed, nil
}
