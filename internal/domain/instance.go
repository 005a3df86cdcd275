package domain

import "path/filepath"

// DefaultDataFolder is the game's data directory inside an installation
const DefaultDataFolder = "GameData"

// Instance is a registered game installation
type Instance struct {
	Name          string // Unique key
	Path          string // Absolute installation directory
	ActiveProfile string // Empty when no profile is in effect
}

// DataDir returns the instance's data directory for the given folder name.
// An empty folder falls back to DefaultDataFolder.
func (i *Instance) DataDir(folder string) string {
	if folder == "" {
		folder = DefaultDataFolder
	}
	return filepath.Join(i.Path, folder)
}

// HasActiveProfile reports whether a profile is recorded as in effect
func (i *Instance) HasActiveProfile() bool {
	return i.ActiveProfile != ""
}
