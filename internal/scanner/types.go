// Package scanner collects the candidate files of a search.
// It walks the search root applying hidden-entry, skip-list, depth,
// extension, .gitignore and binary-content filters.
package scanner

import (
	"strings"
	"time"

	"github.com/Aman-CERP/argus/internal/model"
)

// FileInfo describes one collected file.
type FileInfo struct {
	Path     string         // Absolute path
	RelPath  string         // Path relative to the search root
	Size     int64          // File size in bytes
	ModTime  time.Time      // Last modification time
	Category model.Category // Category derived from the extension
}

// Options configures a walk.
type Options struct {
	// Root is the directory to walk. Empty means the working directory.
	Root string

	// MaxDepth limits recursion: 1 collects only files directly in Root.
	// Zero means unlimited.
	MaxDepth int

	// IncludeHidden collects dot-prefixed files and enters dot-prefixed
	// directories (skip-listed directories stay excluded).
	IncludeHidden bool

	// Extensions is an allowlist, compared case-insensitively with or
	// without a leading dot. Empty allows every extension.
	Extensions []string

	// OCR keeps image files, which are useless without recognition.
	OCR bool

	// RespectGitignore applies .gitignore files found under Root.
	RespectGitignore bool

	// Exclude lists absolute paths never collected, such as the cache file.
	Exclude []string
}

// ScanResult is returned from the scanner channel.
type ScanResult struct {
	File  *FileInfo
	Error error
}

// skipDirs are never entered, whatever the hidden-entry setting.
var skipDirs = map[string]bool{
	"node_modules": true,
	"target":       true,
	"__pycache__":  true,
	".git":         true,
	".svn":         true,
	".hg":          true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	".cache":       true,
	".npm":         true,
	".cargo":       true,
}

// IsSkippedDir reports whether a directory with this base name is always
// skipped.
func IsSkippedDir(name string) bool {
	return skipDirs[name]
}

func extensionSet(exts []string) map[string]bool {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")
		if e != "" {
			set[e] = true
		}
	}
	return set
}
