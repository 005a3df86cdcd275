package steam

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kpm/internal/domain"
)

// KnownExecutables are the KSP launcher names across platforms, lower-cased
var KnownExecutables = []string{
	"ksp.exe",
	"ksp_x64.exe",
	"kerbal space program.exe",
	"ksp.x86_64",
	"ksp.app",
}

// Validation is the outcome of checking a candidate KSP executable
type Validation struct {
	InstallDir string
	Warnings   []string // Non-fatal findings the user should confirm
}

// ValidateExecutable checks that exePath is a KSP launcher whose directory
// holds the data folder, and returns the installation directory. Unusual
// executable names and a data folder without Squad produce warnings.
func ValidateExecutable(exePath, dataFolder string) (*Validation, error) {
	if dataFolder == "" {
		dataFolder = domain.DefaultDataFolder
	}

	abs, err := filepath.Abs(exePath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", exePath, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("executable not found: %s", abs)
		}
		return nil, fmt.Errorf("checking executable: %w", err)
	}

	name := strings.ToLower(filepath.Base(abs))
	// macOS launchers are .app bundle directories
	if info.IsDir() && !strings.HasSuffix(name, ".app") {
		return nil, fmt.Errorf("not an executable file: %s", abs)
	}

	v := &Validation{InstallDir: filepath.Dir(abs)}

	known := false
	for _, candidate := range KnownExecutables {
		if name == candidate {
			known = true
			break
		}
	}
	if !known {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%q does not match a known KSP executable name", filepath.Base(abs)))
	}

	dataDir := filepath.Join(v.InstallDir, dataFolder)
	if info, err := os.Stat(dataDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s not found in %s", domain.ErrDataDirMissing, dataFolder, v.InstallDir)
	}

	if info, err := os.Stat(filepath.Join(dataDir, "Squad")); err != nil || !info.IsDir() {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%s has no Squad folder; this may not be a KSP installation", dataFolder))
	}

	return v, nil
}
