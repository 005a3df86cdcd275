// Package config provides parsing and persistence of kpm's YAML files: the
// application settings, the instance state store and per-instance profiles.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const appDirName = "kpm"

// Environment overrides for the default directories
const (
	EnvConfigDir = "KPM_CONFIG_DIR"
	EnvDataDir   = "KPM_DATA_DIR"
)

// DefaultConfigDir returns $KPM_CONFIG_DIR or $XDG_CONFIG_HOME/kpm
func DefaultConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return ExpandPath(dir)
	}
	return filepath.Join(xdg.ConfigHome, appDirName)
}

// DefaultDataDir returns $KPM_DATA_DIR or $XDG_DATA_HOME/kpm
func DefaultDataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return ExpandPath(dir)
	}
	return filepath.Join(xdg.DataHome, appDirName)
}

// ExpandPath replaces a leading ~ with the user's home directory
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// writeFileAtomic writes data next to path and renames it into place, so a
// crash leaves either the old or the new content
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
