package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/argus/internal/cache"
	argerr "github.com/Aman-CERP/argus/internal/errors"
	"github.com/Aman-CERP/argus/internal/extract"
	"github.com/Aman-CERP/argus/internal/match"
	"github.com/Aman-CERP/argus/internal/model"
	"github.com/Aman-CERP/argus/internal/ocr"
	"github.com/Aman-CERP/argus/internal/ranking"
	"github.com/Aman-CERP/argus/internal/scanner"
)

// CacheState describes how the cache was set up for a search.
type CacheState int

const (
	// CacheDisabled means the run neither reads nor writes a cache.
	CacheDisabled CacheState = iota
	// CacheLoaded means an existing cache file was loaded.
	CacheLoaded
	// CacheFresh means loading failed and an empty cache will be saved.
	CacheFresh
)

// String returns the state name.
func (s CacheState) String() string {
	switch s {
	case CacheLoaded:
		return "loaded"
	case CacheFresh:
		return "fresh"
	default:
		return "disabled"
	}
}

// Report is the outcome of one run.
type Report struct {
	// Results are the ranked matching files, truncated to the limit.
	Results []model.FileResult
	// Failures are files whose extraction failed, in encounter order.
	Failures []model.FileResult
	Stats    model.RunStatistics

	CacheState   CacheState
	CachePath    string
	CacheEntries int
	CacheSaved   bool
	// CacheErr is set when saving the cache failed. The run still succeeds.
	CacheErr error
}

// Option configures an Engine.
type Option func(*Engine)

// WithProgress sets a callback for progress updates.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// WithProgressInterval sets the minimum gap between progress callbacks.
func WithProgressInterval(d time.Duration) Option {
	return func(e *Engine) { e.progressInterval = d }
}

// WithOCRFactory sets how per-worker OCR engines are built. Without it OCR
// is reported as unavailable.
func WithOCRFactory(f ocr.Factory) Option {
	return func(e *Engine) { e.ocrFactory = f }
}

// WithScanner reuses a scanner, keeping its parsed .gitignore files.
func WithScanner(s *scanner.Scanner) Option {
	return func(e *Engine) {
		if s != nil {
			e.scanner = s
		}
	}
}

// Engine runs searches for one configuration. Run may be called repeatedly
// (watch mode reuses the engine and its cache) but not concurrently.
type Engine struct {
	cfg      SearchConfig
	cacheCfg CacheConfig

	root      string
	cachePath string
	matcher   match.Matcher

	cache      *cache.Cache
	cacheState CacheState

	scanner          *scanner.Scanner
	ocrFactory       ocr.Factory
	progress         ProgressFunc
	progressInterval time.Duration
}

// NewEngine validates the search root, compiles the pattern and sets up the
// cache. Root and pattern problems are fatal *errors.ArgusError values.
func NewEngine(cfg SearchConfig, cacheCfg CacheConfig, opts ...Option) (*Engine, error) {
	root, err := scanner.ResolveRoot(cfg.Directory)
	if err != nil {
		return nil, argerr.New(argerr.ErrCodeInvalidPath, err.Error(), err).
			WithDetail("directory", cfg.Directory).
			WithSuggestion("Pass an existing directory with -d")
	}

	matcher, err := match.New(cfg.Pattern, match.Options{Regex: cfg.UseRegex, CaseSensitive: cfg.CaseSensitive})
	if err != nil {
		if errors.Is(err, match.ErrEmptyPattern) {
			return nil, argerr.New(argerr.ErrCodePatternEmpty, err.Error(), err)
		}
		return nil, argerr.New(argerr.ErrCodeInvalidPattern, err.Error(), err).
			WithDetail("pattern", cfg.Pattern).
			WithSuggestion("Check the regular expression syntax, or search literally without --regex")
	}

	e := &Engine{
		cfg:       cfg,
		cacheCfg:  cacheCfg,
		root:      root,
		cachePath: cacheCfg.Path(root),
		matcher:   matcher,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scanner == nil {
		if e.scanner, err = scanner.New(); err != nil {
			return nil, argerr.InternalError("failed to create scanner", err)
		}
	}

	e.loadCache()
	return e, nil
}

// loadCache applies the cache policy: load when reading or writing is
// requested; on failure start empty when saving, otherwise run uncached.
func (e *Engine) loadCache() {
	if !e.cacheCfg.Enabled() {
		return
	}

	c, err := cache.Load(e.cachePath)
	if err == nil {
		e.cache, e.cacheState = c, CacheLoaded
		slog.Info("cache_loaded",
			slog.String("path", e.cachePath),
			slog.Int("entries", c.Len()))
		return
	}

	if e.cacheCfg.SaveCache {
		e.cache, e.cacheState = cache.New(e.root), CacheFresh
		if !errors.Is(err, cache.ErrNotFound) {
			slog.Warn("cache_load_failed_starting_fresh",
				slog.String("path", e.cachePath),
				slog.String("error", err.Error()))
		}
		return
	}

	slog.Warn("cache_load_failed_disabled",
		slog.String("path", e.cachePath),
		slog.String("error", err.Error()))
}

// Root returns the absolute search root.
func (e *Engine) Root() string { return e.root }

// CachePath returns the cache file location, whether or not caching is on.
func (e *Engine) CachePath() string { return e.cachePath }

// CacheState reports how the cache was set up.
func (e *Engine) CacheState() CacheState { return e.cacheState }

// CacheLen returns the number of cached entries, or 0 without a cache.
func (e *Engine) CacheLen() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.Len()
}

// Config returns the search configuration.
func (e *Engine) Config() SearchConfig { return e.cfg }

// Run executes the search. Per-file failures never abort the run; they are
// counted as skipped and listed in Report.Failures. Cancelling ctx stops
// dispatching new files, and Run then returns the partial report with the
// context error.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	start := time.Now()

	if e.progress != nil {
		e.progress(Progress{Scanning: true})
	}
	files, err := e.scanner.Collect(ctx, e.scanOptions())
	if err != nil && ctx.Err() == nil {
		slog.Warn("scan_incomplete", slog.String("root", e.root), slog.String("error", err.Error()))
	}

	slog.Info("search_started",
		slog.String("root", e.root),
		slog.String("pattern", e.cfg.Pattern),
		slog.Int("files", len(files)),
		slog.Int("workers", e.cfg.workers()))

	run := &runState{
		stats:    model.NewRunStatistics(),
		progress: newProgressTracker(len(files), e.progress, e.progressInterval),
	}
	e.process(ctx, files, run)

	report := Report{
		Failures:   run.failures,
		Stats:      run.stats,
		CacheState: e.cacheState,
		CachePath:  e.cachePath,
	}
	if e.cache != nil {
		e.mergeCache(run.newEntries, &report)
	}

	report.Results = ranking.Top(run.results, e.cfg.Limit)
	report.Stats.Duration = time.Since(start)

	slog.Info("search_complete",
		slog.Int("files_scanned", report.Stats.FilesScanned),
		slog.Int("files_matched", report.Stats.FilesMatched),
		slog.Int("total_matches", report.Stats.TotalMatches),
		slog.Int("files_skipped", report.Stats.FilesSkipped),
		slog.Duration("duration", report.Stats.Duration))

	return report, ctx.Err()
}

func (e *Engine) scanOptions() scanner.Options {
	return scanner.Options{
		Root:             e.root,
		MaxDepth:         e.cfg.MaxDepth,
		IncludeHidden:    e.cfg.IncludeHidden,
		Extensions:       e.cfg.Extensions,
		OCR:              e.cfg.OCR,
		RespectGitignore: e.cfg.RespectGitignore,
		Exclude:          []string{e.cachePath, e.cachePath + ".lock"},
	}
}

// runState is the state shared by the workers of one run. Each slice has its
// own lock, held only for the append.
type runState struct {
	resultsMu sync.Mutex
	results   []model.FileResult
	failures  []model.FileResult

	statsMu sync.Mutex
	stats   model.RunStatistics

	entriesMu  sync.Mutex
	newEntries []cache.Entry

	progress *progressTracker
}

// worker is the per-goroutine state. Its OCR handle is never shared.
type worker struct {
	handle    *ocr.Handle
	extractor *extract.Extractor
}

func (e *Engine) newWorker() *worker {
	w := &worker{}
	opts := []extract.Option{extract.WithScannedPDFThreshold(e.cfg.ScannedPDFThreshold)}
	if e.cfg.OCR {
		w.handle = ocr.NewHandle(e.ocrFactory)
		opts = append(opts, extract.WithOCR(w.handle))
	}
	w.extractor = extract.New(opts...)
	return w
}

func (w *worker) close() {
	if w.handle == nil {
		return
	}
	if err := w.handle.Close(); err != nil {
		slog.Debug("ocr_close_failed", slog.String("error", err.Error()))
	}
}

// process fans files out over the worker pool. A pool of worker states sized
// to the errgroup limit guarantees every running task finds a free worker.
func (e *Engine) process(ctx context.Context, files []scanner.FileInfo, run *runState) {
	n := e.cfg.workers()
	if n > len(files) {
		n = len(files)
	}
	if n == 0 {
		return
	}

	pool := make(chan *worker, n)
	for i := 0; i < n; i++ {
		pool <- e.newWorker()
	}
	defer func() {
		close(pool)
		for w := range pool {
			w.close()
		}
	}()

	var g errgroup.Group
	g.SetLimit(n)

	for _, f := range files {
		if ctx.Err() != nil {
			slog.Info("search_cancelled", slog.Int("processed", run.progress.count()), slog.Int("total", len(files)))
			break
		}
		g.Go(func() error {
			w := <-pool
			defer func() { pool <- w }()
			e.processFile(ctx, w, f, run)
			return nil
		})
	}
	_ = g.Wait()
}

// processFile handles one file end to end and folds it into run.
func (e *Engine) processFile(ctx context.Context, w *worker, f scanner.FileInfo, run *runState) {
	defer run.progress.advance(f.Path)

	result := e.searchFile(ctx, w, f, run)

	run.statsMu.Lock()
	run.stats.Record(result)
	run.statsMu.Unlock()

	if result == nil {
		return
	}
	run.resultsMu.Lock()
	if result.Failed() {
		run.failures = append(run.failures, *result)
	} else {
		run.results = append(run.results, *result)
	}
	run.resultsMu.Unlock()
}

// searchFile returns nil for files that produced no matches.
func (e *Engine) searchFile(ctx context.Context, w *worker, f scanner.FileInfo, run *runState) *model.FileResult {
	info, err := os.Stat(f.Path)
	if err != nil {
		slog.Debug("stat_failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		return nil
	}

	var text string
	if entry, ok := e.cachedEntry(f.Path); ok {
		text = entry.Text
	} else {
		outcome := w.extractor.Extract(ctx, f.Path, f.Category, e.cfg.OCR)
		if !outcome.Succeeded {
			slog.Debug("extract_failed",
				slog.String("path", f.Path),
				slog.String("kind", outcome.Kind.String()),
				slog.String("code", outcome.Kind.Code()),
				slog.String("reason", outcome.FailureReason))
			return &model.FileResult{
				Path:          f.Path,
				Category:      f.Category,
				FileSizeBytes: info.Size(),
				FailureReason: outcome.FailureReason,
			}
		}
		text = outcome.Text
		if e.cache != nil && e.cacheCfg.SaveCache {
			run.entriesMu.Lock()
			run.newEntries = append(run.newEntries, cache.NewEntry(f.Path, f.Category, text, info))
			run.entriesMu.Unlock()
		}
	}

	matches := e.matcher.FindAll(text)
	if len(matches) == 0 {
		return nil
	}
	result := &model.FileResult{
		Path:          f.Path,
		Category:      f.Category,
		Matches:       matches,
		FileSizeBytes: info.Size(),
	}
	ranking.Score(result)
	return result
}

// cachedEntry reads the cache, which no worker writes during a run.
func (e *Engine) cachedEntry(path string) (cache.Entry, bool) {
	if e.cache == nil {
		return cache.Entry{}, false
	}
	return e.cache.ValidEntry(path)
}

// mergeCache folds the run's extractions into the cache and saves it when
// saving was requested. A failed save is reported, not returned.
func (e *Engine) mergeCache(entries []cache.Entry, report *Report) {
	if e.cacheCfg.SaveCache {
		for _, entry := range entries {
			e.cache.Upsert(entry)
		}
		if pruned := e.cache.PruneMissing(); pruned > 0 {
			slog.Debug("cache_pruned", slog.Int("entries", pruned))
		}

		if err := e.cache.Save(e.cachePath); err != nil {
			report.CacheErr = argerr.New(argerr.ErrCodeCacheSave, fmt.Sprintf("failed to save index: %v", err), err).
				WithDetail("path", e.cachePath)
			slog.Warn("cache_save_failed", slog.String("path", e.cachePath), slog.String("error", err.Error()))
		} else {
			report.CacheSaved = true
			slog.Info("cache_saved", slog.String("path", e.cachePath), slog.Int("entries", e.cache.Len()))
		}
	}
	report.CacheEntries = e.cache.Len()
}
