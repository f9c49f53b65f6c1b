// Package search runs a pattern search over a directory tree.
//
// An Engine collects candidate files, extracts their text on a fixed pool of
// workers, matches the pattern line by line and ranks the matching files.
// Extracted text can be kept in a content cache between runs.
package search

import (
	"path/filepath"
	"runtime"

	"github.com/Aman-CERP/argus/internal/cache"
)

// DefaultLimit is the number of results returned when no limit is given.
const DefaultLimit = 20

// SearchConfig describes one search.
type SearchConfig struct {
	Directory     string
	Pattern       string
	CaseSensitive bool
	UseRegex      bool
	OCR           bool

	// Limit caps the number of ranked results. Zero or less means unlimited.
	Limit int

	// MaxDepth limits recursion; zero means unlimited.
	MaxDepth      int
	IncludeHidden bool
	Extensions    []string

	// ShowPreview is carried for presentation; the engine ignores it.
	ShowPreview      bool
	RespectGitignore bool

	// Workers is the size of the worker pool. Zero means one per CPU.
	Workers int

	// ScannedPDFThreshold overrides the text-layer length below which PDFs
	// are sent through OCR. Zero keeps the extractor default.
	ScannedPDFThreshold int
}

// DefaultSearchConfig returns the configuration used by the CLI when no flag
// or config file says otherwise.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Directory: ".",
		Limit:     DefaultLimit,
		Workers:   runtime.NumCPU(),
	}
}

func (c SearchConfig) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// CacheConfig controls the content cache.
type CacheConfig struct {
	// SaveCache writes new extractions back to the cache file after the run.
	SaveCache bool
	// UseCache reads unchanged files' text from the cache file.
	UseCache bool
	// CacheFile overrides the cache location. Empty means DefaultFileName
	// in the search root.
	CacheFile string
}

// Enabled reports whether the run touches the cache at all.
func (c CacheConfig) Enabled() bool {
	return c.UseCache || c.SaveCache
}

// Path returns the cache file location for root.
func (c CacheConfig) Path(root string) string {
	if c.CacheFile != "" {
		if filepath.IsAbs(c.CacheFile) {
			return c.CacheFile
		}
		if abs, err := filepath.Abs(c.CacheFile); err == nil {
			return abs
		}
		return c.CacheFile
	}
	return filepath.Join(root, cache.DefaultFileName)
}
