// Package config handles configuration loading and validation for subtasks.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in the config file.
const (
	BackendFiles  = "files"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	// Backend selects where tasks are persisted: "files" or "sqlite".
	Backend string `yaml:"backend"`
	// DataDir is set from the command line, not the file.
	DataDir string `yaml:"-"`
	// DefaultList is the list opened by the TUI and used by `add` when
	// no --list flag is given.
	DefaultList string `yaml:"default_list"`
	// Editor overrides $EDITOR for editing notes.
	Editor string `yaml:"editor"`
	// IgnoreParent keeps parent pointers out of indent operations.
	IgnoreParent bool `yaml:"ignore_parent"`
	TUI          TUI  `yaml:"tui"`
	Sync         Sync `yaml:"sync"`
}

// TUI holds interface options.
type TUI struct {
	HideDone  bool `yaml:"hide_done"`
	NotesPane bool `yaml:"notes_pane"`
}

// Sync holds git sync options.
type Sync struct {
	GitPath string `yaml:"git_path"`
	Remote  string `yaml:"remote"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Backend:     BackendFiles,
		DefaultList: "inbox",
		TUI: TUI{
			NotesPane: true,
		},
		Sync: Sync{
			GitPath: "git",
			Remote:  "origin",
		},
	}
}

// Load reads configuration from configPath, falling back to defaults when
// the file does not exist.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Backend == "" {
		c.Backend = defaults.Backend
	}
	if c.DefaultList == "" {
		c.DefaultList = defaults.DefaultList
	}
	if c.Sync.GitPath == "" {
		c.Sync.GitPath = defaults.Sync.GitPath
	}
	if c.Sync.Remote == "" {
		c.Sync.Remote = defaults.Sync.Remote
	}
}

// Validate performs structural checks that need no I/O.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	switch c.Backend {
	case BackendFiles, BackendSQLite:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendFiles, BackendSQLite, c.Backend)
	}

	return nil
}

// EditorCommand returns the editor to launch for notes.
func (c *Config) EditorCommand() string {
	if c.Editor != "" {
		return c.Editor
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return "vi"
}

// DefaultConfigPath returns the config file location, honoring
// $XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "subtasks", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "subtasks", "config.yaml")
	}
	return filepath.Join(home, ".config", "subtasks", "config.yaml")
}
