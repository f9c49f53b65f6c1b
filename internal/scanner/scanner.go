package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/argus/internal/gitignore"
	"github.com/Aman-CERP/argus/internal/model"
)

// gitignoreCacheSize bounds the number of parsed .gitignore files kept.
const gitignoreCacheSize = 1000

// resultBuffer is the capacity of the Scan channel.
const resultBuffer = 64

// ErrInvalidRoot is returned when the root is missing or not a directory.
var ErrInvalidRoot = errors.New("invalid search root")

// Scanner collects candidate files. It is safe for concurrent use and keeps
// parsed .gitignore files between walks.
type Scanner struct {
	gitignoreCache *lru.Cache[string, *gitignore.Matcher]
	cacheMu        sync.Mutex
}

// New creates a Scanner.
func New() (*Scanner, error) {
	cache, err := lru.New[string, *gitignore.Matcher](gitignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitignore cache: %w", err)
	}
	return &Scanner{gitignoreCache: cache}, nil
}

// ResolveRoot returns the absolute form of root after checking that it is an
// existing directory.
func ResolveRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: directory does not exist: %s", ErrInvalidRoot, abs)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: not a directory: %s", ErrInvalidRoot, abs)
	}
	return abs, nil
}

// Scan walks opts.Root in the background and streams accepted files in
// lexical order. The channel is closed when the walk ends. Root validation
// happens before Scan returns.
func (s *Scanner) Scan(ctx context.Context, opts Options) (<-chan ScanResult, error) {
	absRoot, err := ResolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	results := make(chan ScanResult, resultBuffer)
	go func() {
		defer close(results)
		s.walk(ctx, absRoot, opts, results)
	}()
	return results, nil
}

// Collect runs Scan and gathers every accepted file.
func (s *Scanner) Collect(ctx context.Context, opts Options) ([]FileInfo, error) {
	ch, err := s.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}

	var (
		files   []FileInfo
		scanErr error
	)
	for r := range ch {
		if r.Error != nil {
			scanErr = r.Error
			continue
		}
		files = append(files, *r.File)
	}
	return files, scanErr
}

func (s *Scanner) walk(ctx context.Context, absRoot string, opts Options, results chan<- ScanResult) {
	exts := extensionSet(opts.Extensions)
	excluded := make(map[string]bool, len(opts.Exclude))
	for _, p := range opts.Exclude {
		if abs, err := filepath.Abs(p); err == nil {
			excluded[abs] = true
		}
	}

	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // unreadable entries are skipped
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		name := d.Name()
		depth := strings.Count(relPath, string(filepath.Separator)) + 1

		if d.IsDir() {
			if s.skipDir(name, relPath, depth, absRoot, opts) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil // symlinks and special files are not followed
		}
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			return nil
		}
		if opts.MaxDepth > 0 && depth > opts.MaxDepth {
			return nil
		}
		if excluded[path] {
			return nil
		}

		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		if exts != nil && !exts[strings.ToLower(ext)] {
			return nil
		}
		if opts.RespectGitignore && s.isGitignored(relPath, absRoot) {
			return nil
		}

		category := model.CategoryFromExtension(ext)
		if !keepCategory(category, path, opts.OCR) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		file := &FileInfo{
			Path:     path,
			RelPath:  relPath,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
			Category: category,
		}
		select {
		case results <- ScanResult{File: file}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		select {
		case results <- ScanResult{Error: err}:
		case <-ctx.Done():
		}
	}
}

func (s *Scanner) skipDir(name, relPath string, depth int, absRoot string, opts Options) bool {
	if IsSkippedDir(name) {
		return true
	}
	if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	// Files inside would sit one level deeper than the directory.
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return true
	}
	return opts.RespectGitignore && s.isGitignoredDir(relPath, absRoot)
}

// keepCategory applies the per-category content filter.
func keepCategory(category model.Category, path string, ocr bool) bool {
	switch category {
	case model.CategoryPDF, model.CategoryDocx:
		return true
	case model.CategoryImage:
		return ocr
	default:
		return !IsBinary(path)
	}
}

func (s *Scanner) isGitignored(relPath, absRoot string) bool {
	return s.gitignoreMatch(relPath, absRoot, false)
}

func (s *Scanner) isGitignoredDir(relPath, absRoot string) bool {
	return s.gitignoreMatch(relPath, absRoot, true)
}

// gitignoreMatch consults the root .gitignore and every .gitignore in the
// directories leading to relPath.
func (s *Scanner) gitignoreMatch(relPath, absRoot string, isDir bool) bool {
	slashPath := filepath.ToSlash(relPath)
	if s.matcherFor(absRoot, "").Match(slashPath, isDir) {
		return true
	}

	dirs := strings.Split(filepath.ToSlash(filepath.Dir(relPath)), "/")
	base := ""
	for _, part := range dirs {
		if part == "." || part == "" {
			continue
		}
		if base == "" {
			base = part
		} else {
			base += "/" + part
		}
		if s.matcherFor(filepath.Join(absRoot, filepath.FromSlash(base)), base).Match(slashPath, isDir) {
			return true
		}
	}
	return false
}

// matcherFor returns the cached matcher for dir's .gitignore. Directories
// without one cache a nil matcher, which matches nothing.
func (s *Scanner) matcherFor(dir, base string) *gitignore.Matcher {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if m, ok := s.gitignoreCache.Get(dir); ok {
		return m
	}
	m, err := gitignore.FromFile(filepath.Join(dir, ".gitignore"), base)
	if err != nil {
		m = nil
	}
	s.gitignoreCache.Add(dir, m)
	return m
}

// InvalidateGitignoreCache drops every parsed .gitignore, e.g. after one of
// them changed on disk.
func (s *Scanner) InvalidateGitignoreCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gitignoreCache.Purge()
}
