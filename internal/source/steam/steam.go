// Package steam locates Kerbal Space Program installations: it validates a
// user-selected executable and scans Steam libraries for the game.
package steam

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kpm/internal/domain"
	"kpm/internal/logging"
)

// KSPAppID is Kerbal Space Program's Steam application ID
const KSPAppID = "220200"

// Install is a game installation found in a Steam library
type Install struct {
	AppID   string
	Name    string // Display name from the app manifest
	Path    string // Installation directory
	DataDir string // Path + data folder
	Library string // Steam library holding the install
}

// FindSteamRoots returns existing Steam installation roots in search order:
// $STEAM_ROOT, ~/.steam/steam, ~/.local/share/Steam
func FindSteamRoots() []string {
	home, _ := os.UserHomeDir()
	candidates := []string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
	}
	if p := os.Getenv("STEAM_ROOT"); p != "" {
		candidates = append([]string{p}, candidates...)
	}

	var out []string
	seen := make(map[string]bool)
	for _, p := range candidates {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			continue
		}
		// ~/.steam/steam is usually a symlink to ~/.local/share/Steam
		key := p
		if resolved, err := filepath.EvalSymlinks(p); err == nil {
			key = resolved
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// GetLibraryPaths returns all Steam library paths of a Steam root from its
// libraryfolders.vdf. Without that file the root is the only library.
func GetLibraryPaths(steamRoot string) ([]string, error) {
	vdfPath := filepath.Join(steamRoot, "steamapps", "libraryfolders.vdf")
	data, err := os.ReadFile(vdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{steamRoot}, nil
		}
		return nil, fmt.Errorf("reading libraryfolders: %w", err)
	}

	root, err := ParseVDF(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing libraryfolders: %w", err)
	}
	paths := libraryPaths(root)
	if len(paths) == 0 {
		return []string{steamRoot}, nil
	}
	return paths, nil
}

// DetectInstalls scans every Steam library for KSP installations that have a
// data folder. A library is reported once even when reachable from several roots.
func DetectInstalls(dataFolder string) ([]Install, error) {
	return DetectInstallsIn(FindSteamRoots(), dataFolder)
}

// DetectInstallsIn is DetectInstalls over the given Steam roots
func DetectInstallsIn(steamRoots []string, dataFolder string) ([]Install, error) {
	if dataFolder == "" {
		dataFolder = domain.DefaultDataFolder
	}
	log := logging.Get("steam")

	var found []Install
	seen := make(map[string]bool)

	for _, steamRoot := range steamRoots {
		libraries, err := GetLibraryPaths(steamRoot)
		if err != nil {
			log.Debug().Err(err).Str("root", steamRoot).Msg("skipping steam root")
			continue
		}
		for _, library := range libraries {
			install, ok := findInLibrary(library, dataFolder)
			if !ok {
				continue
			}
			key := install.Path
			if resolved, err := filepath.EvalSymlinks(install.Path); err == nil {
				key = resolved
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			found = append(found, install)
		}
	}

	return found, nil
}

func findInLibrary(library, dataFolder string) (Install, bool) {
	manifestPath := filepath.Join(library, "steamapps", "appmanifest_"+KSPAppID+".acf")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return Install{}, false
	}

	manifest, err := ParseAppManifest(string(data))
	if err != nil || manifest.InstallDir == "" {
		log := logging.Get("steam")
		log.Debug().Err(err).Str("manifest", manifestPath).Msg("unusable app manifest")
		return Install{}, false
	}
	if manifest.AppID != "" && manifest.AppID != KSPAppID {
		return Install{}, false
	}

	installPath := filepath.Join(library, "steamapps", "common", manifest.InstallDir)
	dataDir := filepath.Join(installPath, dataFolder)
	if info, err := os.Stat(dataDir); err != nil || !info.IsDir() {
		return Install{}, false
	}

	name := manifest.Name
	if name == "" {
		name = strings.TrimSpace(manifest.InstallDir)
	}
	return Install{
		AppID:   KSPAppID,
		Name:    name,
		Path:    installPath,
		DataDir: dataDir,
		Library: library,
	}, true
}
