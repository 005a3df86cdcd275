// Package transfer copies and removes whole filesystem entries (files,
// directories and symlinks) for moving mods between the cache and a data
// directory.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"kpm/internal/domain"
)

// Transferer copies and removes filesystem entries
type Transferer interface {
	Copy(src, dst string) error
	Remove(path string) error
}

// FS implements Transferer on the local filesystem
type FS struct{}

// New creates a filesystem transferer
func New() *FS {
	return &FS{}
}

// Remove deletes a file, a directory tree or a symlink. Write protection is
// cleared before deleting so read-only trees can be removed.
func (t *FS) Remove(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return &domain.TransferError{Op: "remove", Path: path, Err: err}
	}

	if info.Mode()&os.ModeSymlink != 0 || !info.IsDir() {
		if err := removeFile(path, info); err != nil {
			return &domain.TransferError{Op: "remove", Path: path, Err: err}
		}
		return nil
	}

	if err := makeWritable(path); err != nil {
		return &domain.TransferError{Op: "remove", Path: path, Err: err}
	}
	if err := os.RemoveAll(path); err != nil {
		return &domain.TransferError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// removeFile deletes a single non-directory entry. The parent must be
// writable for the unlink to succeed.
func removeFile(path string, info fs.FileInfo) error {
	if info.Mode()&os.ModeSymlink == 0 && info.Mode().Perm()&0200 == 0 {
		if err := os.Chmod(path, info.Mode().Perm()|0200); err != nil {
			return fmt.Errorf("clearing read-only flag: %w", err)
		}
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	return nil
}

// makeWritable adds owner rwx to every directory and owner w to every file
// under root. Symlinks are not followed.
func makeWritable(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directory: fix its permissions and retry the walk below it
			if d != nil && d.IsDir() && errors.Is(err, fs.ErrPermission) {
				if cerr := os.Chmod(path, 0700); cerr != nil {
					return fmt.Errorf("clearing read-only flag on %s: %w", path, cerr)
				}
				return makeWritable(path)
			}
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		perm := info.Mode().Perm()
		want := perm | 0200
		if d.IsDir() {
			want = perm | 0700
		}
		if want != perm {
			if err := os.Chmod(path, want); err != nil {
				return fmt.Errorf("clearing read-only flag on %s: %w", path, err)
			}
		}
		return nil
	})
}

// Copy replaces dst with a copy of src. An existing dst is removed first.
// Directories are copied recursively, files keep their mode and modification
// time and symlinks are recreated as symlinks.
func (t *FS) Copy(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return &domain.TransferError{Op: "copy", Path: src, Err: err}
	}

	if _, err := os.Lstat(dst); err == nil {
		if err := t.Remove(dst); err != nil {
			return err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &domain.TransferError{Op: "copy", Path: dst, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &domain.TransferError{Op: "copy", Path: dst, Err: fmt.Errorf("creating parent dir: %w", err)}
	}

	if err := copyEntry(src, dst, info); err != nil {
		return &domain.TransferError{Op: "copy", Path: src, Err: err}
	}
	return nil
}

func copyEntry(src, dst string, info fs.FileInfo) error {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return copySymlink(src, dst)
	case info.IsDir():
		return copyDir(src, dst, info)
	case info.Mode().IsRegular():
		return copyFile(src, dst, info)
	default:
		return fmt.Errorf("unsupported file type %s", info.Mode().Type())
	}
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("reading symlink: %w", err)
	}
	if err := os.Symlink(target, dst); err != nil {
		return fmt.Errorf("creating symlink: %w", err)
	}
	return nil
}

func copyDir(src, dst string, info fs.FileInfo) error {
	// Owner rwx while filling; the source mode is restored afterwards
	if err := os.Mkdir(dst, info.Mode().Perm()|0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("reading directory: %w", err)
	}

	for _, entry := range entries {
		s := filepath.Join(src, entry.Name())
		d := filepath.Join(dst, entry.Name())
		childInfo, err := os.Lstat(s)
		if err != nil {
			return err
		}
		if err := copyEntry(s, d, childInfo); err != nil {
			return err
		}
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("setting directory mode: %w", err)
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func copyFile(src, dst string, info fs.FileInfo) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()|0200)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", dst, cerr)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copying file: %w", err)
	}

	if err = out.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err = os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("setting file times: %w", err)
	}
	return nil
}
