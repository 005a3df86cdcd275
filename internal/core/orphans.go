package core

import (
	"context"
	"fmt"

	"kpm/internal/domain"
	"kpm/internal/storage/config"
	"kpm/internal/storage/db"
)

// FindOrphans returns cache entries referenced by no profile of any
// registered instance, in natural order. Unreadable profiles are skipped and
// listed in the scan.
func (s *Service) FindOrphans(progress domain.ProgressFunc) (*domain.OrphanScan, error) {
	referenced := make(map[string]bool)
	scan := &domain.OrphanScan{Orphans: []string{}}

	for _, inst := range s.ListInstances() {
		names, err := config.ListProfiles(s.configDir, inst.Name)
		if err != nil {
			return nil, fmt.Errorf("listing profiles of %s: %w", inst.Name, err)
		}
		for _, name := range names {
			profile, err := s.profiles.Get(inst.Name, name)
			if err != nil {
				progress.Report("Skipping unreadable profile %s/%s: %v", inst.Name, name, err)
				s.log.Warn().Err(err).Str("instance", inst.Name).Str("profile", name).Msg("unreadable profile")
				scan.Skipped = append(scan.Skipped, inst.Name+"/"+name)
				continue
			}
			for _, mod := range profile.Mods {
				referenced[mod] = true
			}
		}
	}

	cached, err := s.cache.List()
	if err != nil {
		return nil, err
	}

	for _, name := range cached {
		if !referenced[name] {
			scan.Orphans = append(scan.Orphans, name)
		}
	}
	return scan, nil
}

// Cleanup removes the given entries from the cache. A failure is recorded and
// the remaining entries are still processed.
func (s *Service) Cleanup(ctx context.Context, orphans []string, progress domain.ProgressFunc) *domain.CleanupResult {
	op := db.NewOperation(db.KindCleanup, "", "")
	defer s.record(op)

	result := &domain.CleanupResult{}
	for _, name := range orphans {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, domain.ItemError{Name: name, Err: err})
			continue
		}
		if domain.ValidateName(name) != nil || !s.cache.Exists(name) {
			result.Failed = append(result.Failed, domain.ItemError{Name: name, Err: domain.ErrModNotFound})
			continue
		}

		progress.Report("Removing %s", name)
		if err := s.fs.Remove(s.cache.Path(name)); err != nil {
			s.log.Warn().Err(err).Str("mod", name).Msg("cache removal failed")
			result.Failed = append(result.Failed, domain.ItemError{Name: name, Err: err})
			continue
		}
		result.Removed = append(result.Removed, name)
	}

	op.Applied = len(result.Removed)
	op.Total = len(orphans)
	op.Failed = domain.ItemNames(result.Failed)
	s.log.Info().Int("removed", len(result.Removed)).Int("failed", len(result.Failed)).Msg("cache cleanup finished")
	return result
}
