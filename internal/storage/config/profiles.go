package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"kpm/internal/domain"

	"gopkg.in/yaml.v3"
)

// profileSchemaVersion is the current profile file layout version
const profileSchemaVersion = 1

// ProfileConfig is the YAML representation of a profile
type ProfileConfig struct {
	Version  int      `yaml:"version"`
	Name     string   `yaml:"name"`
	Instance string   `yaml:"instance"`
	Mods     []string `yaml:"mods"`
}

// ProfilesDir returns the directory holding an instance's profiles
func ProfilesDir(configDir, instance string) string {
	return filepath.Join(configDir, "profiles", instance)
}

func profilePath(configDir, instance, name string) string {
	return filepath.Join(ProfilesDir(configDir, instance), name+".yaml")
}

// legacyProfilePath is where earlier releases kept a profile as a JSON list
func legacyProfilePath(configDir, instance, name string) string {
	return filepath.Join(ProfilesDir(configDir, instance), name+".json")
}

// readProfileFile returns the profile contents, preferring the YAML file over
// a legacy JSON one
func readProfileFile(configDir, instance, name string) ([]byte, error) {
	data, err := os.ReadFile(profilePath(configDir, instance, name))
	if errors.Is(err, os.ErrNotExist) {
		data, err = os.ReadFile(legacyProfilePath(configDir, instance, name))
	}
	return data, err
}

// LoadProfile reads a profile from disk
func LoadProfile(configDir, instance, name string) (*domain.Profile, error) {
	data, err := readProfileFile(configDir, instance, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	mods, err := decodeProfileMods(data)
	if err != nil {
		return nil, fmt.Errorf("%w: profile %s/%s: %v", domain.ErrStoreCorrupt, instance, name, err)
	}

	return &domain.Profile{
		Name:     name,
		Instance: instance,
		Mods:     mods,
	}, nil
}

// decodeProfileMods accepts the versioned mapping and the legacy bare list.
// Every mod must name a single path element.
func decodeProfileMods(data []byte) ([]string, error) {
	mods, err := decodeModList(data)
	if err != nil {
		return nil, err
	}
	for _, mod := range mods {
		if err := domain.ValidateName(mod); err != nil {
			return nil, fmt.Errorf("mod %w", err)
		}
	}
	return mods, nil
}

func decodeModList(data []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return []string{}, nil
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var mods []string
		if err := root.Decode(&mods); err != nil {
			return nil, err
		}
		return nonNil(mods), nil
	case yaml.MappingNode:
		var cfg ProfileConfig
		if err := root.Decode(&cfg); err != nil {
			return nil, err
		}
		if cfg.Version > profileSchemaVersion {
			return nil, fmt.Errorf("unsupported version %d (max %d)", cfg.Version, profileSchemaVersion)
		}
		return nonNil(cfg.Mods), nil
	default:
		return nil, fmt.Errorf("expected a mapping or a list, got %s", kindName(root.Kind))
	}
}

func nonNil(mods []string) []string {
	if mods == nil {
		return []string{}
	}
	return mods
}

// SaveProfile writes a profile to disk with its mods in natural order
func SaveProfile(configDir string, profile *domain.Profile) error {
	cfg := ProfileConfig{
		Version:  profileSchemaVersion,
		Name:     profile.Name,
		Instance: profile.Instance,
		Mods:     domain.SortedNatural(profile.Mods),
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}

	dir := ProfilesDir(configDir, profile.Instance)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating profiles dir: %w", err)
	}

	if err := writeFileAtomic(profilePath(configDir, profile.Instance, profile.Name), data); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}

	legacy := legacyProfilePath(configDir, profile.Instance, profile.Name)
	if err := os.Remove(legacy); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing legacy profile: %w", err)
	}

	return nil
}

// ListProfiles returns the profile names of an instance in alphabetical order
func ListProfiles(configDir, instance string) ([]string, error) {
	entries, err := os.ReadDir(ProfilesDir(configDir, instance))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading profiles dir: %w", err)
	}

	var profiles []string
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".json" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if !seen[name] {
			seen[name] = true
			profiles = append(profiles, name)
		}
	}
	sort.Strings(profiles)

	return profiles, nil
}

// ProfileExists reports whether a profile file exists
func ProfileExists(configDir, instance, name string) bool {
	for _, path := range []string{profilePath(configDir, instance, name), legacyProfilePath(configDir, instance, name)} {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return true
		}
	}
	return false
}

// DeleteProfile removes a profile file, and any legacy copy, from disk
func DeleteProfile(configDir, instance, name string) error {
	removed := false
	for _, path := range []string{profilePath(configDir, instance, name), legacyProfilePath(configDir, instance, name)} {
		if err := os.Remove(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("deleting profile: %w", err)
		}
		removed = true
	}
	if !removed {
		return domain.ErrProfileNotFound
	}
	return nil
}

// DeleteProfiles removes every profile of an instance
func DeleteProfiles(configDir, instance string) error {
	if err := os.RemoveAll(ProfilesDir(configDir, instance)); err != nil {
		return fmt.Errorf("deleting profiles of %s: %w", instance, err)
	}
	return nil
}
