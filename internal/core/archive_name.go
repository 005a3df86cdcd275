package core

import (
	"path/filepath"
	"regexp"
	"strings"
)

// ArchiveName is the mod name and version read from a release archive's file name
type ArchiveName struct {
	Name    string
	Version string // Empty when the file name carries none
}

// String returns "Name Version", or just the name
func (a ArchiveName) String() string {
	if a.Version == "" {
		return a.Name
	}
	return a.Name + " " + a.Version
}

// versionSuffix matches a trailing release version such as -2.14.3.0,
// _v1.1.9 or " 1.12.5". At least two numeric components are required so
// names like "Mod2" keep their digits.
var versionSuffix = regexp.MustCompile(`^(.+?)[-_ ]+[vV]?(\d+(?:\.\d+)+[0-9A-Za-z.-]*)$`)

// archiveExtensions are stripped before parsing, longest first
var archiveExtensions = []string{".tar.gz", ".zip", ".7z", ".rar"}

// ParseArchiveName splits a release archive file name like
// "MechJeb2-2.14.3.0.zip" into mod name and version. File names without a
// recognisable version yield the bare name.
func ParseArchiveName(filename string) ArchiveName {
	name := filepath.Base(filename)
	lower := strings.ToLower(name)
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(lower, ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}

	matches := versionSuffix.FindStringSubmatch(name)
	if matches == nil {
		return ArchiveName{Name: name}
	}
	return ArchiveName{Name: matches[1], Version: matches[2]}
}
