package commands

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/stefanpenner/subtasks/pkg/config"
	"github.com/stefanpenner/subtasks/pkg/store"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	return config.DefaultConfigPath()
}

// DefaultDataDir returns the OS-appropriate data directory.
func DefaultDataDir() string {
	return store.DefaultDataDir()
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/subtasks/subtasks.log
// On Linux: $XDG_STATE_HOME/subtasks/subtasks.log (defaults to ~/.local/state/subtasks/subtasks.log)
func DefaultLogFile() string {
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, "subtasks", "subtasks.log")
	}

	home, _ := os.UserHomeDir()
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "subtasks", "subtasks.log")
	}
	return filepath.Join(home, ".local", "state", "subtasks", "subtasks.log")
}
