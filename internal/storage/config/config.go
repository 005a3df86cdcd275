package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kpm/internal/domain"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// DefaultHookTimeout bounds a single hook script run
const DefaultHookTimeout = 60 * time.Second

// Config holds global application settings
type Config struct {
	CachePath     string       `yaml:"cache_path,omitempty"`
	BackupPath    string       `yaml:"backup_path,omitempty"`
	DataFolder    string       `yaml:"data_folder"`
	StockFolders  []string     `yaml:"stock_folders"`
	UpdateSkip    []string     `yaml:"update_skip"`
	BackupExclude []string     `yaml:"backup_exclude,omitempty"`
	HookTimeout   int          `yaml:"hook_timeout"` // seconds
	Hooks         domain.Hooks `yaml:"hooks,omitempty"`
	Keybindings   string       `yaml:"keybindings"`
}

// Default returns the settings used when no config file exists
func Default() *Config {
	return &Config{
		DataFolder:   domain.DefaultDataFolder,
		StockFolders: []string{"Squad", "SquadExpansion"},
		UpdateSkip:   []string{"Squad"},
		HookTimeout:  int(DefaultHookTimeout / time.Second),
		Keybindings:  "vim",
	}
}

// Load reads configuration from the given directory
func Load(configDir string) (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // Return defaults
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	cfg.CachePath = ExpandPath(cfg.CachePath)
	cfg.BackupPath = ExpandPath(cfg.BackupPath)
	cfg.Hooks.Apply.Before = ExpandPath(cfg.Hooks.Apply.Before)
	cfg.Hooks.Apply.After = ExpandPath(cfg.Hooks.Apply.After)
	cfg.Hooks.Update.Before = ExpandPath(cfg.Hooks.Update.Before)
	cfg.Hooks.Update.After = ExpandPath(cfg.Hooks.Update.After)

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DataFolder == "" {
		c.DataFolder = domain.DefaultDataFolder
	}
	if err := domain.ValidateName(c.DataFolder); err != nil {
		return fmt.Errorf("data_folder: %w", err)
	}
	for _, group := range [][]string{c.StockFolders, c.UpdateSkip, c.BackupExclude} {
		for _, pattern := range group {
			if !doublestar.ValidatePattern(pattern) {
				return fmt.Errorf("invalid pattern %q", pattern)
			}
		}
	}
	if c.HookTimeout < 0 {
		return fmt.Errorf("hook_timeout must not be negative")
	}
	return nil
}

// HookTimeoutDuration returns the configured hook timeout, falling back to
// DefaultHookTimeout when unset
func (c *Config) HookTimeoutDuration() time.Duration {
	if c.HookTimeout <= 0 {
		return DefaultHookTimeout
	}
	return time.Duration(c.HookTimeout) * time.Second
}

// IsStock reports whether a data directory entry is part of the base game and
// must survive an apply
func (c *Config) IsStock(name string) bool {
	return matchAny(c.StockFolders, name)
}

// SkipOnUpdate reports whether a data directory entry is left out when a
// profile is rebuilt from the live directory
func (c *Config) SkipOnUpdate(name string) bool {
	return matchAny(c.UpdateSkip, name)
}

// ExcludeFromBackup reports whether a slash-separated path relative to the
// data directory is left out of backups
func (c *Config) ExcludeFromBackup(relPath string) bool {
	return matchAny(c.BackupExclude, relPath)
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Save writes configuration to the given directory
func (c *Config) Save(configDir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(configDir, "config.yaml"), data); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
