package core

import (
	"fmt"

	"kpm/internal/domain"
	"kpm/internal/storage/cache"
	"kpm/internal/storage/config"
)

// ProfileManager handles profile CRUD operations for registered instances
type ProfileManager struct {
	configDir string
	cache     *cache.Cache
}

// NewProfileManager creates a new profile manager
func NewProfileManager(configDir string, cache *cache.Cache) *ProfileManager {
	return &ProfileManager{
		configDir: configDir,
		cache:     cache,
	}
}

// List returns an instance's profile names alphabetically, with the active
// profile first when its file exists
func (pm *ProfileManager) List(inst *domain.Instance) ([]string, error) {
	names, err := config.ListProfiles(pm.configDir, inst.Name)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}

	if !inst.HasActiveProfile() {
		return names, nil
	}

	ordered := make([]string, 0, len(names))
	for _, name := range names {
		if name == inst.ActiveProfile {
			ordered = append([]string{name}, ordered...)
			continue
		}
		ordered = append(ordered, name)
	}
	return ordered, nil
}

// Get retrieves a specific profile
func (pm *ProfileManager) Get(instance, name string) (*domain.Profile, error) {
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	return config.LoadProfile(pm.configDir, instance, name)
}

// Exists reports whether a profile has a backing file
func (pm *ProfileManager) Exists(instance, name string) bool {
	if domain.ValidateName(name) != nil {
		return false
	}
	return config.ProfileExists(pm.configDir, instance, name)
}

// Save writes a profile, overwriting any existing one. Mods are stored in
// natural order.
func (pm *ProfileManager) Save(instance, name string, mods []string) (*domain.Profile, error) {
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	if err := validateModNames(mods); err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		Name:     name,
		Instance: instance,
		Mods:     domain.SortedNatural(mods),
	}
	if err := config.SaveProfile(pm.configDir, profile); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return profile, nil
}

// Delete removes a profile file. An active pointer to it is cleared on the
// next start.
func (pm *ProfileManager) Delete(instance, name string) error {
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	return config.DeleteProfile(pm.configDir, instance, name)
}

// DeleteAll removes every profile of an instance
func (pm *ProfileManager) DeleteAll(instance string) error {
	return config.DeleteProfiles(pm.configDir, instance)
}

// CreateBlank creates an empty profile. Unless overwrite is set an existing
// profile fails with ErrProfileExists.
func (pm *ProfileManager) CreateBlank(instance, name string, overwrite bool) (*domain.Profile, error) {
	return pm.CreateFromCache(instance, name, nil, overwrite)
}

// CreateFromCache creates a profile from a curated subset of the cache.
// Every name must be present in the cache.
func (pm *ProfileManager) CreateFromCache(instance, name string, mods []string, overwrite bool) (*domain.Profile, error) {
	if !overwrite && pm.Exists(instance, name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProfileExists, name)
	}
	if err := validateModNames(mods); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(mods))
	unique := make([]string, 0, len(mods))
	var missing []string
	for _, mod := range mods {
		if seen[mod] {
			continue
		}
		seen[mod] = true
		if !pm.cache.Exists(mod) {
			missing = append(missing, mod)
			continue
		}
		unique = append(unique, mod)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrModNotFound, missing)
	}

	return pm.Save(instance, name, unique)
}

// validateModNames rejects mod names that would resolve outside the cache or
// the data directory
func validateModNames(mods []string) error {
	for _, mod := range mods {
		if err := domain.ValidateName(mod); err != nil {
			return fmt.Errorf("mod %w", err)
		}
	}
	return nil
}

// AvailableMods returns the cache contents in natural order
func (pm *ProfileManager) AvailableMods() ([]string, error) {
	return pm.cache.List()
}

// ProfileDiff compares a profile against the entries present in a data directory
type ProfileDiff struct {
	Profile       []string // Mods declared by the profile
	Live          []string // Non-stock entries present in the data directory
	OnlyInProfile []string // Declared but not present
	OnlyInLive    []string // Present but not declared
}

// InSync reports whether the data directory matches the profile by name
func (d *ProfileDiff) InSync() bool {
	return len(d.OnlyInProfile) == 0 && len(d.OnlyInLive) == 0
}

// Diff compares a profile with the given live entry names
func (pm *ProfileManager) Diff(profile *domain.Profile, live []string) *ProfileDiff {
	diff := &ProfileDiff{
		Profile: domain.SortedNatural(profile.Mods),
		Live:    domain.SortedNatural(live),
	}

	liveSet := make(map[string]bool, len(live))
	for _, name := range live {
		liveSet[name] = true
	}
	for _, mod := range diff.Profile {
		if !liveSet[mod] {
			diff.OnlyInProfile = append(diff.OnlyInProfile, mod)
		}
	}
	for _, name := range diff.Live {
		if !profile.HasMod(name) {
			diff.OnlyInLive = append(diff.OnlyInLive, name)
		}
	}

	return diff
}
