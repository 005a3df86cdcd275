package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kpm/internal/domain"
	"kpm/internal/logging"
	"kpm/internal/storage/db"
)

// ImportArchive unpacks a downloaded mod archive and adds its mods to the
// cache. When the archive contains a data folder (GameData) its children are
// the mods; otherwise every top-level entry is. Existing cache entries are
// kept unless overwrite is set.
func (s *Service) ImportArchive(ctx context.Context, archivePath string, overwrite bool, progress domain.ProgressFunc) (*domain.ImportResult, error) {
	extractor := NewExtractor()
	if !extractor.CanExtract(archivePath) {
		return nil, fmt.Errorf("unsupported archive format: %s", filepath.Base(archivePath))
	}
	if _, err := os.Stat(archivePath); err != nil {
		return nil, fmt.Errorf("archive not found: %w", err)
	}

	log := s.log.With().Str("archive", archivePath).Logger()
	defer logging.Timed(log, "import")()

	release := ParseArchiveName(archivePath)
	op := db.NewOperation(db.KindImport, "", release.String())
	defer s.record(op)

	tempDir, err := os.MkdirTemp("", "kpm-import-*")
	if err != nil {
		op.Error = err.Error()
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	defer func() {
		if err := s.fs.Remove(tempDir); err != nil {
			log.Warn().Err(err).Msg("removing temp directory")
		}
	}()

	progress.Report("Extracting %s", release)
	if err := extractor.Extract(ctx, archivePath, tempDir); err != nil {
		op.Error = err.Error()
		return nil, fmt.Errorf("extracting archive: %w", err)
	}

	root, err := findModRoot(tempDir, s.config.DataFolder)
	if err != nil {
		op.Error = err.Error()
		return nil, err
	}
	names, err := listDir(root)
	if err != nil {
		op.Error = err.Error()
		return nil, err
	}
	if err := s.cache.EnsureDir(); err != nil {
		op.Error = err.Error()
		return nil, err
	}

	result := &domain.ImportResult{Archive: archivePath, Release: release.Name, Version: release.Version}
	for _, name := range names {
		exists := s.cache.Exists(name)
		if exists && !overwrite {
			progress.Report("%s is already cached, keeping it", name)
			result.Skipped = append(result.Skipped, name)
			continue
		}

		progress.Report("Caching %s", name)
		if err := s.fs.Copy(filepath.Join(root, name), s.cache.Path(name)); err != nil {
			log.Warn().Err(err).Str("mod", name).Msg("caching failed")
			result.Failed = append(result.Failed, domain.ItemError{Name: name, Err: err})
			continue
		}
		if exists {
			result.Replaced = append(result.Replaced, name)
		} else {
			result.Added = append(result.Added, name)
		}
	}

	op.Applied = len(result.Added) + len(result.Replaced)
	op.Total = len(names)
	op.Failed = domain.ItemNames(result.Failed)
	log.Info().Int("added", len(result.Added)).Int("replaced", len(result.Replaced)).Msg("archive imported")
	return result, nil
}

// findModRoot locates the directory whose children are mods: a data folder at
// the top level or one level down, else the extraction directory itself
func findModRoot(dir, dataFolder string) (string, error) {
	if dataFolder == "" {
		dataFolder = domain.DefaultDataFolder
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading extracted archive: %w", err)
	}
	if len(entries) == 0 {
		return "", errors.New("archive is empty")
	}

	for _, entry := range entries {
		if entry.IsDir() && strings.EqualFold(entry.Name(), dataFolder) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		nested, err := os.ReadDir(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		for _, child := range nested {
			if child.IsDir() && strings.EqualFold(child.Name(), dataFolder) {
				return filepath.Join(dir, entry.Name(), child.Name()), nil
			}
		}
	}

	return dir, nil
}
