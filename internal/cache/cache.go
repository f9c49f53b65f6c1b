// Package cache persists extracted text between search runs.
//
// A cache is a single JSON document mapping file paths to their extracted
// text plus a (modification time, size) fingerprint. An entry whose file no
// longer matches its fingerprint is stale and ignored. Documents written by a
// different format version are rejected outright.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Aman-CERP/argus/internal/model"
)

// FormatVersion is the only document version this build reads or writes.
const FormatVersion = 1

// DefaultFileName is the cache file created in the search root.
const DefaultFileName = ".argus_index.json"

// Load failure kinds. Use errors.Is against a returned error.
var (
	ErrNotFound        = errors.New("cache file not found")
	ErrIO              = errors.New("cache I/O error")
	ErrParse           = errors.New("failed to parse cache")
	ErrVersionMismatch = errors.New("cache version mismatch")
)

// LoadError describes why Load failed.
type LoadError struct {
	Kind error
	Path string
	// Expected and Found are set for ErrVersionMismatch.
	Expected int
	Found    int
	Err      error
}

func (e *LoadError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrVersionMismatch):
		return fmt.Sprintf("%v: expected %d, found %d", e.Kind, e.Expected, e.Found)
	case e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
	default:
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	}
}

// Is matches the failure kind.
func (e *LoadError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Entry is the cached extraction of one file.
type Entry struct {
	Path     string         `json:"path"`
	Category model.Category `json:"file_type"`
	Text     string         `json:"extracted_text"`
	// ModifiedAt is the file's modification time in Unix seconds.
	ModifiedAt int64 `json:"modified_timestamp"`
	SizeBytes  int64 `json:"file_size"`
}

// NewEntry builds an entry fingerprinted with info.
func NewEntry(path string, category model.Category, text string, info fs.FileInfo) Entry {
	return Entry{
		Path:       path,
		Category:   category,
		Text:       text,
		ModifiedAt: info.ModTime().Unix(),
		SizeBytes:  info.Size(),
	}
}

// Stale reports whether info no longer matches the recorded fingerprint.
func (e Entry) Stale(info fs.FileInfo) bool {
	return e.ModifiedAt != info.ModTime().Unix() || e.SizeBytes != info.Size()
}

// Cache is the persisted document. It is not safe for concurrent mutation;
// concurrent ValidEntry calls are fine while nothing writes.
type Cache struct {
	Version   int              `json:"version"`
	Directory string           `json:"directory"`
	CreatedAt int64            `json:"created_at"`
	UpdatedAt int64            `json:"updated_at"`
	Entries   map[string]Entry `json:"entries"`
}

var now = time.Now

// New returns an empty cache for root.
func New(root string) *Cache {
	ts := now().Unix()
	return &Cache{
		Version:   FormatVersion,
		Directory: root,
		CreatedAt: ts,
		UpdatedAt: ts,
		Entries:   make(map[string]Entry),
	}
}

// Load reads the cache document at path. Failures are *LoadError values.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Kind: ErrNotFound, Path: path}
		}
		return nil, &LoadError{Kind: ErrIO, Path: path, Err: err}
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &LoadError{Kind: ErrParse, Path: path, Err: err}
	}
	if c.Version != FormatVersion {
		return nil, &LoadError{Kind: ErrVersionMismatch, Path: path, Expected: FormatVersion, Found: c.Version}
	}
	if c.Entries == nil {
		c.Entries = make(map[string]Entry)
	}
	return &c, nil
}

// ValidEntry returns the entry for path if the file still matches its
// fingerprint. It stats the file on every call.
func (c *Cache) ValidEntry(path string) (Entry, bool) {
	entry, ok := c.Entries[path]
	if !ok {
		return Entry{}, false
	}
	info, err := os.Stat(path)
	if err != nil || entry.Stale(info) {
		return Entry{}, false
	}
	return entry, true
}

// Upsert inserts or replaces the entry for entry.Path.
func (c *Cache) Upsert(entry Entry) {
	if c.Entries == nil {
		c.Entries = make(map[string]Entry)
	}
	c.Entries[entry.Path] = entry
}

// PruneMissing drops entries whose files no longer exist and returns how
// many were removed.
func (c *Cache) PruneMissing() int {
	removed := 0
	for path := range c.Entries {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			delete(c.Entries, path)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	return len(c.Entries)
}

// Snapshot returns the entries sorted by path.
func (c *Cache) Snapshot() []Entry {
	out := make([]Entry, 0, len(c.Entries))
	for _, e := range c.Entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// CountByCategory returns the number of entries per category.
func (c *Cache) CountByCategory() map[model.Category]int {
	counts := make(map[model.Category]int)
	for _, e := range c.Entries {
		counts[e.Category]++
	}
	return counts
}

// Save stamps UpdatedAt and writes the document to path, creating parent
// directories. The write goes through a temp file and rename while holding
// the cache's advisory lock.
func (c *Cache) Save(path string) error {
	c.UpdatedAt = now().Unix()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %v", ErrIO, err)
	}

	lock := newFileLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrIO, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write: %v", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close: %v", ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename: %v", ErrIO, err)
	}
	return nil
}

// Remove deletes the cache file and its lock file. A missing file is not an
// error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	_ = os.Remove(path + ".lock")
	return nil
}
