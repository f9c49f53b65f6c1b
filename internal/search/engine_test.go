package search

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/argus/internal/cache"
	argerr "github.com/Aman-CERP/argus/internal/errors"
	"github.com/Aman-CERP/argus/internal/model"
	"github.com/Aman-CERP/argus/internal/ocr"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func runSearch(t *testing.T, cfg SearchConfig, cacheCfg CacheConfig, opts ...Option) Report {
	t.Helper()
	engine, err := NewEngine(cfg, cacheCfg, opts...)
	require.NoError(t, err)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)
	return report
}

// fakeEngine returns fixed text for every image.
type fakeEngine struct {
	text   string
	closed *atomic.Int32
}

func (f fakeEngine) Recognize(_ context.Context, _ string) (string, error) {
	return f.text, nil
}

func (f fakeEngine) Close() error {
	if f.closed != nil {
		f.closed.Add(1)
	}
	return nil
}

func TestRun_LiteralSearch(t *testing.T) {
	// Given: one file with two occurrences on separate lines
	root := writeFiles(t, map[string]string{"test.txt": "Hello World\nHello Go\nGoodbye World"})

	// When: searching for the literal
	report := runSearch(t, SearchConfig{Directory: root, Pattern: "Hello"}, CacheConfig{})

	// Then: one result with both matches
	require.Len(t, report.Results, 1)
	assert.Equal(t, 2, report.Results[0].MatchCount())
	assert.Equal(t, 2, report.Stats.TotalMatches)
	assert.Equal(t, 1, report.Stats.FilesScanned)
	assert.Equal(t, 1, report.Stats.FilesMatched)
	assert.Positive(t, report.Results[0].Confidence)
	assert.Equal(t, filepath.Join(root, "test.txt"), report.Results[0].Path)
}

func TestRun_PatternModes(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		cfg      SearchConfig
		expected int
	}{
		{"case insensitive", "hello HELLO Hello", SearchConfig{Pattern: "hello"}, 3},
		{"case sensitive", "hello HELLO Hello", SearchConfig{Pattern: "hello", CaseSensitive: true}, 1},
		{"regex tokens", "foo123 bar456 baz789", SearchConfig{Pattern: `\w+\d+`, UseRegex: true}, 3},
		{"overlapping literal", "aaaa", SearchConfig{Pattern: "aa"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeFiles(t, map[string]string{"f.txt": tt.content})
			cfg := tt.cfg
			cfg.Directory = root

			report := runSearch(t, cfg, CacheConfig{})

			require.Len(t, report.Results, 1)
			assert.Equal(t, tt.expected, report.Results[0].MatchCount())
		})
	}
}

func TestNewEngine_FatalErrors(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name string
		cfg  SearchConfig
		code string
	}{
		{"invalid regex", SearchConfig{Directory: root, Pattern: "(unclosed", UseRegex: true}, argerr.ErrCodeInvalidPattern},
		{"missing root", SearchConfig{Directory: filepath.Join(root, "missing"), Pattern: "x"}, argerr.ErrCodeInvalidPath},
		{"root is a file", SearchConfig{Directory: file, Pattern: "x"}, argerr.ErrCodeInvalidPath},
		{"empty pattern", SearchConfig{Directory: root, Pattern: ""}, argerr.ErrCodePatternEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.cfg, CacheConfig{})
			require.Error(t, err)
			assert.Equal(t, tt.code, argerr.GetCode(err))
			assert.True(t, argerr.IsFatal(err))
		})
	}
}

func TestRun_RankingAndLimit(t *testing.T) {
	// Given: files with 1, 3 and 2 matches
	root := writeFiles(t, map[string]string{
		"one.txt":   "needle",
		"three.txt": "needle\nneedle\nneedle",
		"two.txt":   "needle\nneedle",
	})

	t.Run("ordered by match count", func(t *testing.T) {
		report := runSearch(t, SearchConfig{Directory: root, Pattern: "needle"}, CacheConfig{})
		require.Len(t, report.Results, 3)
		assert.Equal(t, "three.txt", report.Results[0].FileName())
		assert.Equal(t, "two.txt", report.Results[1].FileName())
		assert.Equal(t, "one.txt", report.Results[2].FileName())
	})

	t.Run("limit truncates after ranking", func(t *testing.T) {
		report := runSearch(t, SearchConfig{Directory: root, Pattern: "needle", Limit: 1}, CacheConfig{})
		require.Len(t, report.Results, 1)
		assert.Equal(t, "three.txt", report.Results[0].FileName())
		assert.Equal(t, 3, report.Stats.FilesMatched)
		assert.Equal(t, 6, report.Stats.TotalMatches)
	})
}

func TestRun_ZeroMatchFilesDropped(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.txt": "nothing here", "b.go": "package b"})

	report := runSearch(t, SearchConfig{Directory: root, Pattern: "needle"}, CacheConfig{})

	assert.Empty(t, report.Results)
	assert.Empty(t, report.Failures)
	assert.Equal(t, 2, report.Stats.FilesScanned)
	assert.Zero(t, report.Stats.FilesSkipped)
}

func TestRun_ByCategoryCountsMatchedFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a.txt":  "key key",
		"b.md":   "key",
		"c.go":   "// key",
		"d.py":   "nothing",
		"e.json": `{"key": 1}`,
	})

	report := runSearch(t, SearchConfig{Directory: root, Pattern: "key"}, CacheConfig{})

	assert.Equal(t, 3, report.Stats.ByCategory[model.CategoryText])
	assert.Equal(t, 1, report.Stats.ByCategory[model.CategoryCode])
	assert.Equal(t, 4, report.Stats.FilesMatched)
}

func TestRun_ImageWithoutOCREngineIsSkipped(t *testing.T) {
	// Given: OCR requested but no engine available
	root := writeFiles(t, map[string]string{"scan.png": "not really a png", "a.txt": "word"})

	// When: searching with OCR on
	report := runSearch(t, SearchConfig{Directory: root, Pattern: "word", OCR: true}, CacheConfig{})

	// Then: the image is counted as skipped and listed with a reason
	assert.Equal(t, 2, report.Stats.FilesScanned)
	assert.Equal(t, 1, report.Stats.FilesSkipped)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "scan.png", report.Failures[0].FileName())
	assert.Contains(t, report.Failures[0].FailureReason, "OCR not available")
	assert.Empty(t, report.Failures[0].Matches)
	require.Len(t, report.Results, 1)
}

func TestRun_ImageThroughOCR(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"scan1.png": "x",
		"scan2.jpg": "y",
		"scan3.png": "z",
	})

	var created, closed atomic.Int32
	factory := func() (ocr.Engine, error) {
		created.Add(1)
		return fakeEngine{text: "  Invoice total\n\n  due now  ", closed: &closed}, nil
	}

	report := runSearch(t,
		SearchConfig{Directory: root, Pattern: "invoice", OCR: true, Workers: 2},
		CacheConfig{},
		WithOCRFactory(factory))

	require.Len(t, report.Results, 3)
	assert.Equal(t, model.CategoryImage, report.Results[0].Category)
	assert.Equal(t, "Invoice", report.Results[0].Matches[0].MatchedText)
	assert.Equal(t, 3, report.Stats.ByCategory[model.CategoryImage])

	// Then: at most one engine per worker, each closed after the run
	assert.LessOrEqual(t, created.Load(), int32(2))
	assert.Equal(t, created.Load(), closed.Load())
}

func TestRun_ImagesIgnoredWithoutOCR(t *testing.T) {
	root := writeFiles(t, map[string]string{"scan.png": "x"})

	report := runSearch(t, SearchConfig{Directory: root, Pattern: "x"}, CacheConfig{})

	assert.Zero(t, report.Stats.FilesScanned)
}

func TestRun_SaveAndReuseCache(t *testing.T) {
	// Given: a saved cache for a tree
	root := writeFiles(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"})
	cacheCfg := CacheConfig{SaveCache: true}

	first := runSearch(t, SearchConfig{Directory: root, Pattern: "alpha"}, cacheCfg)
	assert.Equal(t, CacheFresh, first.CacheState)
	assert.True(t, first.CacheSaved)
	assert.Equal(t, 2, first.CacheEntries)
	assert.Equal(t, filepath.Join(root, cache.DefaultFileName), first.CachePath)

	// And: the cached text for a.txt is altered without touching the file
	c, err := cache.Load(first.CachePath)
	require.NoError(t, err)
	entry := c.Entries[filepath.Join(root, "a.txt")]
	entry.Text = "only-in-cache"
	c.Upsert(entry)
	require.NoError(t, c.Save(first.CachePath))

	// When: searching with the cache
	second := runSearch(t, SearchConfig{Directory: root, Pattern: "only-in-cache"}, CacheConfig{UseCache: true})

	// Then: the text came from the cache, and the cache file was not searched
	assert.Equal(t, CacheLoaded, second.CacheState)
	assert.False(t, second.CacheSaved)
	require.Len(t, second.Results, 1)
	assert.Equal(t, "a.txt", second.Results[0].FileName())
}

func TestRun_StaleEntryIsReextracted(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.txt": "old words"})
	cacheCfg := CacheConfig{SaveCache: true, UseCache: true}
	runSearch(t, SearchConfig{Directory: root, Pattern: "old"}, cacheCfg)

	// When: the file grows
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("brand new words"), 0o644))
	report := runSearch(t, SearchConfig{Directory: root, Pattern: "new"}, cacheCfg)

	// Then: the new content is found and the cache refreshed
	require.Len(t, report.Results, 1)
	c, err := cache.Load(report.CachePath)
	require.NoError(t, err)
	assert.Equal(t, "brand new words\n", c.Entries[filepath.Join(root, "a.txt")].Text)
}

func TestRun_CachePrunesDeletedFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.txt": "a", "b.txt": "b"})
	cacheCfg := CacheConfig{SaveCache: true}
	first := runSearch(t, SearchConfig{Directory: root, Pattern: "a"}, cacheCfg)
	require.Equal(t, 2, first.CacheEntries)

	require.NoError(t, os.Remove(filepath.Join(root, "b.txt")))
	second := runSearch(t, SearchConfig{Directory: root, Pattern: "a"}, cacheCfg)

	assert.Equal(t, 1, second.CacheEntries)
}

func TestRun_CacheLoadFailurePolicy(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.txt": "word", ".argus_index.json": "{not json"})

	t.Run("use only disables caching", func(t *testing.T) {
		engine, err := NewEngine(SearchConfig{Directory: root, Pattern: "word"}, CacheConfig{UseCache: true})
		require.NoError(t, err)
		assert.Equal(t, CacheDisabled, engine.CacheState())

		report, err := engine.Run(context.Background())
		require.NoError(t, err)
		assert.Len(t, report.Results, 1)
		assert.False(t, report.CacheSaved)
	})

	t.Run("save starts fresh", func(t *testing.T) {
		engine, err := NewEngine(SearchConfig{Directory: root, Pattern: "word"}, CacheConfig{SaveCache: true})
		require.NoError(t, err)
		assert.Equal(t, CacheFresh, engine.CacheState())

		report, err := engine.Run(context.Background())
		require.NoError(t, err)
		assert.True(t, report.CacheSaved)

		_, err = cache.Load(report.CachePath)
		assert.NoError(t, err)
	})
}

func TestRun_CacheSaveFailureIsWarning(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.txt": "word", "blocker": "file, not a dir"})

	// Given: a cache path whose parent is a regular file
	cacheFile := filepath.Join(root, "blocker", "index.json")

	report := runSearch(t, SearchConfig{Directory: root, Pattern: "word"}, CacheConfig{SaveCache: true, CacheFile: cacheFile})

	require.Len(t, report.Results, 1)
	assert.False(t, report.CacheSaved)
	require.Error(t, report.CacheErr)
	assert.Equal(t, argerr.ErrCodeCacheSave, argerr.GetCode(report.CacheErr))
}

func TestRun_ReusedEngineSeesChanges(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.txt": "needle"})
	engine, err := NewEngine(SearchConfig{Directory: root, Pattern: "needle"}, CacheConfig{SaveCache: true, UseCache: true})
	require.NoError(t, err)

	first, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Results, 1)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("needle needle more text"), 0o644))
	second, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, second.Results, 2)
	assert.Equal(t, 2, second.CacheEntries)
}

func TestRun_Progress(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.txt": "x", "b.txt": "x", "c.txt": "x", "d.txt": "x"})

	var (
		mu      sync.Mutex
		updates []Progress
	)
	progress := func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, p)
	}

	runSearch(t, SearchConfig{Directory: root, Pattern: "x", Workers: 3}, CacheConfig{}, WithProgress(progress), WithProgressInterval(time.Millisecond))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, updates)
	assert.True(t, updates[0].Scanning)
	assert.False(t, updates[0].Done())
	last := updates[len(updates)-1]
	assert.Equal(t, 4, last.Total)
	assert.Equal(t, 4, last.Processed)
	assert.True(t, last.Done())
	for i := 2; i < len(updates); i++ {
		assert.GreaterOrEqual(t, updates[i].Processed, updates[i-1].Processed)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.txt": "x"})
	engine, err := NewEngine(SearchConfig{Directory: root, Pattern: "x"}, CacheConfig{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := engine.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
}

func TestCacheConfig_Path(t *testing.T) {
	root := t.TempDir()

	assert.Equal(t, filepath.Join(root, ".argus_index.json"), CacheConfig{}.Path(root))
	assert.Equal(t, "/abs/idx.json", CacheConfig{CacheFile: "/abs/idx.json"}.Path(root))

	rel := CacheConfig{CacheFile: "idx.json"}.Path(root)
	assert.True(t, filepath.IsAbs(rel))
	assert.Equal(t, "idx.json", filepath.Base(rel))

	assert.False(t, CacheConfig{}.Enabled())
	assert.True(t, CacheConfig{UseCache: true}.Enabled())
}

func TestDefaultSearchConfig(t *testing.T) {
	cfg := DefaultSearchConfig()
	assert.Equal(t, ".", cfg.Directory)
	assert.Equal(t, DefaultLimit, cfg.Limit)
	assert.Positive(t, cfg.Workers)
}
