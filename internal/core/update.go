package core

import (
	"context"
	"path/filepath"

	"kpm/internal/domain"
	"kpm/internal/logging"
	"kpm/internal/storage/db"
)

// ConfirmFunc is asked before an existing profile is overwritten
type ConfirmFunc func(profile string) bool

// Update rebuilds a profile from an instance's live data directory. Entries
// not yet cached are copied into the cache first; a failed copy is recorded
// but the entry is still listed. Overwriting an existing profile requires
// confirm to return true, otherwise ErrUpdateCancelled is returned together
// with the partial result.
func (s *Service) Update(ctx context.Context, instanceName, profileName string, confirm ConfirmFunc, progress domain.ProgressFunc) (*domain.UpdateResult, error) {
	if err := domain.ValidateName(profileName); err != nil {
		return nil, err
	}
	inst, err := s.GetInstance(instanceName)
	if err != nil {
		return nil, err
	}
	dataDir := s.InstanceDataDir(inst)
	if err := requireDir(dataDir); err != nil {
		return nil, err
	}

	log := s.log.With().Str("instance", inst.Name).Str("profile", profileName).Logger()
	defer logging.Timed(log, "update")()

	op := db.NewOperation(db.KindUpdate, inst.Name, profileName)
	defer s.record(op)

	if err := s.runHook(ctx, s.hookContext(inst, profileName, HookUpdateBefore)); err != nil {
		op.Error = err.Error()
		return nil, err
	}

	names, err := listDir(dataDir)
	if err != nil {
		op.Error = err.Error()
		return nil, err
	}
	if err := s.cache.EnsureDir(); err != nil {
		op.Error = err.Error()
		return nil, err
	}

	result := &domain.UpdateResult{
		Instance: inst.Name,
		Profile:  profileName,
		Mods:     make([]string, 0, len(names)),
	}

	for _, name := range names {
		if s.config.SkipOnUpdate(name) {
			continue
		}
		result.Mods = append(result.Mods, name)
		if s.cache.Exists(name) {
			continue
		}

		progress.Report("Caching %s", name)
		if err := s.fs.Copy(filepath.Join(dataDir, name), s.cache.Path(name)); err != nil {
			log.Warn().Err(err).Str("mod", name).Msg("caching failed")
			result.Failed = append(result.Failed, domain.ItemError{Name: name, Err: err})
			continue
		}
		result.Added = append(result.Added, name)
	}
	domain.SortNatural(result.Mods)

	op.Applied = len(result.Mods)
	op.Total = len(result.Mods)
	op.Failed = domain.ItemNames(result.Failed)

	if s.profiles.Exists(inst.Name, profileName) {
		if confirm == nil || !confirm(profileName) {
			op.Error = domain.ErrUpdateCancelled.Error()
			return result, domain.ErrUpdateCancelled
		}
	}

	if _, err := s.profiles.Save(inst.Name, profileName, result.Mods); err != nil {
		op.Error = err.Error()
		return result, err
	}

	inst.ActiveProfile = profileName
	if err := s.saveInstances(); err != nil {
		op.Error = err.Error()
		return result, err
	}

	if err := s.runHook(ctx, s.hookContext(inst, profileName, HookUpdateAfter)); err != nil {
		log.Warn().Err(err).Msg("after hook failed")
		result.Warnings = append(result.Warnings, err.Error())
	}

	log.Info().Int("mods", len(result.Mods)).Int("cached", len(result.Added)).Msg("profile updated")
	return result, nil
}
