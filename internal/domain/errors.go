package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInstanceNotFound = errors.New("instance not found")
	ErrInstanceExists   = errors.New("instance already exists")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrProfileExists    = errors.New("profile already exists")
	ErrModNotFound      = errors.New("mod not found in cache")
	ErrDataDirMissing   = errors.New("data directory missing")
	ErrUpdateCancelled  = errors.New("update cancelled")
	ErrStoreCorrupt     = errors.New("store corrupt")
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// TransferError reports a failed copy or remove of a single filesystem entry
type TransferError struct {
	Op   string // "copy" or "remove"
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ValidateName rejects names that cannot be used as a single path element.
// Instance and profile names end up as directory and file names.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}
