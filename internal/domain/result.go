package domain

import "fmt"

// ProgressFunc receives status messages during long operations. It is called
// synchronously and must not block.
type ProgressFunc func(msg string)

// Report calls fn with a formatted message when fn is set
func (fn ProgressFunc) Report(format string, args ...any) {
	if fn != nil {
		fn(fmt.Sprintf(format, args...))
	}
}

// ItemError is a per-item failure collected during a batch operation
type ItemError struct {
	Name string
	Err  error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

// ItemNames returns the names of the failed items
func ItemNames(errs []ItemError) []string {
	names := make([]string, len(errs))
	for i, e := range errs {
		names[i] = e.Name
	}
	return names
}

// ApplyResult is the outcome of applying a profile to an instance
type ApplyResult struct {
	Instance string
	Profile  string
	Applied  int         // Mods copied into the data directory
	Total    int         // Mods declared by the profile
	Removed  []string    // Entries cleared from the data directory
	Missing  []string    // Declared mods absent from the cache
	Failed   []ItemError // Declared mods that failed to copy
	Warnings []string    // Non-fatal hook failures
}

// Success reports whether every declared mod was applied
func (r *ApplyResult) Success() bool {
	return r.Applied == r.Total && len(r.Missing) == 0 && len(r.Failed) == 0
}

// UpdateResult is the outcome of rebuilding a profile from a data directory
type UpdateResult struct {
	Instance string
	Profile  string
	Mods     []string    // Natural-sorted mod list written to the profile
	Added    []string    // Entries promoted into the cache
	Failed   []ItemError // Entries that could not be promoted (still listed in Mods)
	Warnings []string
}

// BackupResult describes a written backup archive
type BackupResult struct {
	Instance string
	Profile  string
	Path     string
	Files    int
	Bytes    int64
}

// OrphanScan lists cache entries no profile references. Skipped holds the
// profiles, as "instance/profile", that could not be read; their mods may be
// listed as orphans.
type OrphanScan struct {
	Orphans []string
	Skipped []string
}

// Complete reports whether every profile was read
func (s *OrphanScan) Complete() bool {
	return len(s.Skipped) == 0
}

// CleanupResult is the outcome of removing orphaned mods from the cache
type CleanupResult struct {
	Removed []string
	Failed  []ItemError
}

// ImportResult is the outcome of adding a mod archive to the cache
type ImportResult struct {
	Archive  string
	Release  string      // Mod name from the archive file name
	Version  string      // Version from the archive file name, if any
	Added    []string    // New cache entries
	Replaced []string    // Cache entries overwritten
	Skipped  []string    // Already cached and left alone
	Failed   []ItemError // Entries that could not be copied
}
