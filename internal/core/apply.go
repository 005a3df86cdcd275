package core

import (
	"context"
	"fmt"
	"path/filepath"

	"kpm/internal/domain"
	"kpm/internal/logging"
	"kpm/internal/storage/db"
)

// Apply makes an instance's data directory match a profile: every non-stock
// entry is removed, then each declared mod is copied in from the cache.
//
// A removal failure aborts the run and leaves the active profile unchanged.
// Copy failures and mods absent from the cache are collected in the result;
// the profile still becomes active.
func (s *Service) Apply(ctx context.Context, instanceName, profileName string, progress domain.ProgressFunc) (*domain.ApplyResult, error) {
	inst, err := s.GetInstance(instanceName)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.Get(inst.Name, profileName)
	if err != nil {
		return nil, err
	}
	dataDir := s.InstanceDataDir(inst)
	if err := requireDir(dataDir); err != nil {
		return nil, err
	}

	log := s.log.With().Str("instance", inst.Name).Str("profile", profileName).Logger()
	defer logging.Timed(log, "apply")()

	op := db.NewOperation(db.KindApply, inst.Name, profileName)
	defer s.record(op)

	if err := s.runHook(ctx, s.hookContext(inst, profileName, HookApplyBefore)); err != nil {
		op.Error = err.Error()
		return nil, err
	}

	result := &domain.ApplyResult{
		Instance: inst.Name,
		Profile:  profileName,
		Total:    len(profile.Mods),
	}
	op.Total = result.Total

	removed, err := s.clearDataDir(dataDir, progress)
	result.Removed = removed
	if err != nil {
		op.Error = err.Error()
		log.Error().Err(err).Int("removed", len(removed)).Msg("clearing data directory failed")
		return nil, fmt.Errorf("clearing %s: %w", dataDir, err)
	}

	for _, mod := range profile.Mods {
		if !s.cache.Exists(mod) {
			progress.Report("%s is not in the cache, skipping", mod)
			log.Warn().Str("mod", mod).Msg("mod missing from cache")
			result.Missing = append(result.Missing, mod)
			continue
		}

		progress.Report("Copying %s", mod)
		if err := s.fs.Copy(s.cache.Path(mod), filepath.Join(dataDir, mod)); err != nil {
			log.Warn().Err(err).Str("mod", mod).Msg("copy failed")
			result.Failed = append(result.Failed, domain.ItemError{Name: mod, Err: err})
			continue
		}
		result.Applied++
	}

	op.Applied = result.Applied
	op.Missing = result.Missing
	op.Failed = domain.ItemNames(result.Failed)

	inst.ActiveProfile = profileName
	if err := s.saveInstances(); err != nil {
		op.Error = err.Error()
		return result, err
	}

	if err := s.runHook(ctx, s.hookContext(inst, profileName, HookApplyAfter)); err != nil {
		log.Warn().Err(err).Msg("after hook failed")
		result.Warnings = append(result.Warnings, err.Error())
	}

	log.Info().Int("applied", result.Applied).Int("total", result.Total).Msg("profile applied")
	return result, nil
}

// clearDataDir removes every non-stock child of dataDir in natural order,
// stopping at the first failure. It returns the names removed so far.
func (s *Service) clearDataDir(dataDir string, progress domain.ProgressFunc) ([]string, error) {
	names, err := listDir(dataDir)
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0, len(names))
	for _, name := range names {
		if s.config.IsStock(name) {
			continue
		}
		progress.Report("Removing %s", name)
		if err := s.fs.Remove(filepath.Join(dataDir, name)); err != nil {
			return removed, err
		}
		removed = append(removed, name)
	}
	return removed, nil
}
