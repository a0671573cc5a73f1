package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the directories relative paths are resolved against
type Paths struct {
	WorkingDir    string
	ExecutableDir string
}

// GetPaths returns the working and executable directories
func GetPaths() (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return &Paths{
		WorkingDir:    wd,
		ExecutableDir: filepath.Dir(exe),
	}, nil
}

// Resolve makes p absolute. A relative path is taken from the working
// directory unless it only exists next to the executable.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	fromWD := filepath.Join(p.WorkingDir, path)
	if FileExists(fromWD) {
		return fromWD
	}

	fromExe := filepath.Join(p.ExecutableDir, path)
	if FileExists(fromExe) {
		slog.Default().Debug("resolved path next to executable",
			slog.String("path", path),
			slog.String("resolved", fromExe))
		return fromExe
	}

	return fromWD
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// EnsureDir creates dir if it does not exist
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
