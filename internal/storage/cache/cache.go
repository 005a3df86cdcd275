// Package cache manages the shared mod cache: a flat directory whose
// immediate children are mods addressed by name.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"kpm/internal/domain"
)

// Cache manages the central mod cache
type Cache struct {
	basePath string
}

// New creates a new cache manager
func New(basePath string) *Cache {
	return &Cache{basePath: basePath}
}

// Dir returns the cache directory
func (c *Cache) Dir() string {
	return c.basePath
}

// EnsureDir creates the cache directory if it is missing
func (c *Cache) EnsureDir() error {
	if err := os.MkdirAll(c.basePath, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	return nil
}

// Path returns the location of a mod in the cache
func (c *Cache) Path(name string) string {
	return filepath.Join(c.basePath, name)
}

// Exists checks if a mod entry is cached. Symlinks count even when dangling.
// Names that are not a single path element are never cached.
func (c *Cache) Exists(name string) bool {
	if domain.ValidateName(name) != nil {
		return false
	}
	_, err := os.Lstat(c.Path(name))
	return err == nil
}

// List returns the names of all cached mods in natural order.
// A missing cache directory is an empty cache.
func (c *Cache) List() ([]string, error) {
	entries, err := os.ReadDir(c.basePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("listing cache: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	domain.SortNatural(names)

	return names, nil
}

// Size returns the total size in bytes of a cached mod
func (c *Cache) Size(name string) (int64, error) {
	var totalSize int64
	err := filepath.WalkDir(c.Path(name), func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		totalSize += info.Size()
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("calculating size of %s: %w", name, err)
	}

	return totalSize, nil
}
