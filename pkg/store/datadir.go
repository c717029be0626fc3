package store

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "subtasks"

// DefaultDataDir returns the per-user data directory lists and tasks are
// kept in when no data directory is configured.
//
//   - macOS:   ~/Library/Application Support/subtasks
//   - Linux:   $XDG_DATA_HOME/subtasks (fallback ~/.local/share/subtasks)
//   - Windows: %LOCALAPPDATA%\subtasks (fallback %APPDATA%\subtasks)
func DefaultDataDir() string {
	return dataDirFor(runtime.GOOS, os.Getenv)
}

func dataDirFor(goos string, getenv func(string) string) string {
	home, _ := os.UserHomeDir()

	var base string
	switch goos {
	case "darwin":
		base = filepath.Join(home, "Library", "Application Support")
	case "windows":
		base = firstSet(getenv("LOCALAPPDATA"), getenv("APPDATA"), home)
	default:
		base = firstSet(getenv("XDG_DATA_HOME"), filepath.Join(home, ".local", "share"))
	}
	return filepath.Join(base, appName)
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
