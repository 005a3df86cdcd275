package core

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"kpm/internal/domain"
	"kpm/internal/logging"
	"kpm/internal/storage/db"

	"github.com/dustin/go-humanize"
)

// backupTimeFormat is the timestamp suffix of archive names
const backupTimeFormat = "20060102-150405"

// BackupName returns the archive file name for an instance, optional profile
// and time
func BackupName(instance, profile string, at time.Time) string {
	name := instance
	if profile != "" {
		name += "-" + profile
	}
	return name + "-" + at.Format(backupTimeFormat) + ".zip"
}

// Backup writes a zip snapshot of an instance's data directory into the
// backup directory. profileName only labels the archive and may be empty.
func (s *Service) Backup(ctx context.Context, instanceName, profileName string, progress domain.ProgressFunc) (*domain.BackupResult, error) {
	if profileName != "" {
		if err := domain.ValidateName(profileName); err != nil {
			return nil, fmt.Errorf("backup label: %w", err)
		}
	}
	inst, err := s.GetInstance(instanceName)
	if err != nil {
		return nil, err
	}
	dataDir := s.InstanceDataDir(inst)
	if err := requireDir(dataDir); err != nil {
		return nil, err
	}

	log := s.log.With().Str("instance", inst.Name).Logger()
	defer logging.Timed(log, "backup")()

	op := db.NewOperation(db.KindBackup, inst.Name, profileName)
	defer s.record(op)

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		op.Error = err.Error()
		return nil, fmt.Errorf("creating backup dir: %w", err)
	}

	target := filepath.Join(s.backupDir, BackupName(inst.Name, profileName, time.Now()))
	progress.Report("Archiving %s", dataDir)

	result, err := s.writeArchive(ctx, dataDir, target)
	if err != nil {
		op.Error = err.Error()
		return nil, err
	}
	result.Instance = inst.Name
	result.Profile = profileName

	op.Archive = result.Path
	op.Applied = result.Files
	op.Total = result.Files

	progress.Report("Wrote %s (%d files, %s)", filepath.Base(result.Path), result.Files, humanize.Bytes(uint64(result.Bytes)))
	log.Info().Str("archive", result.Path).Int("files", result.Files).Int64("bytes", result.Bytes).Msg("backup written")
	return result, nil
}

// writeArchive zips the tree under root into a temp file next to target and
// renames it into place
func (s *Service) writeArchive(ctx context.Context, root, target string) (*domain.BackupResult, error) {
	tempFile, err := os.CreateTemp(filepath.Dir(target), ".backup-*.zip")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := tempFile.Name()

	fail := func(err error) (*domain.BackupResult, error) {
		tempFile.Close()
		os.Remove(tempPath)
		return nil, err
	}

	zipWriter := zip.NewWriter(tempFile)
	result := &domain.BackupResult{Path: target}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if s.config.ExcludeFromBackup(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		// Symlinks are archived as the files they point to
		if info.Mode()&os.ModeSymlink != 0 {
			if info, err = os.Stat(path); err != nil {
				return fmt.Errorf("resolving %s: %w", relPath, err)
			}
			if info.IsDir() {
				// WalkDir does not descend into linked directories
				return nil
			}
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = relPath
		if info.IsDir() {
			header.Name += "/"
			header.Method = zip.Store
			_, err = zipWriter.CreateHeader(header)
			return err
		}
		header.Method = zip.Deflate

		writer, err := zipWriter.CreateHeader(header)
		if err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		n, err := io.Copy(writer, file)
		if err != nil {
			return fmt.Errorf("archiving %s: %w", relPath, err)
		}
		result.Files++
		result.Bytes += n
		return nil
	})
	if err != nil {
		zipWriter.Close()
		return fail(fmt.Errorf("archiving %s: %w", root, err))
	}

	if err := zipWriter.Close(); err != nil {
		return fail(fmt.Errorf("finalizing archive: %w", err))
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("moving archive into place: %w", err)
	}

	return result, nil
}
