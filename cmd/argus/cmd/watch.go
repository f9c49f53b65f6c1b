package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/argus/internal/config"
	argerr "github.com/Aman-CERP/argus/internal/errors"
	"github.com/Aman-CERP/argus/internal/ocr"
	"github.com/Aman-CERP/argus/internal/output"
	"github.com/Aman-CERP/argus/internal/scanner"
	"github.com/Aman-CERP/argus/internal/search"
	"github.com/Aman-CERP/argus/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	opts := newSearchFlags()

	cmd := &cobra.Command{
		Use:   "watch <pattern>",
		Short: "Search, then search again whenever files change",
		Long: `Run a search and keep watching the directory. Each batch of file changes
triggers a new search. The content index is always read and refreshed, so
only changed files are extracted again.

Press Ctrl+C to stop.`,
		Example: `  argus watch "TODO" -d ./docs -n
  argus watch invoice -o -f json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, joinPattern(args), opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, pattern string, f *searchFlags) error {
	cfg, err := loadSearchConfig(cmd, f)
	if err != nil {
		return err
	}
	cfg.Cache.Save, cfg.Cache.Use = true, true

	sc, err := scanner.New()
	if err != nil {
		return argerr.InternalError("failed to create scanner", err)
	}
	engine, err := search.NewEngine(cfg.SearchFor(f.directory, pattern), cfg.CacheSettings(),
		search.WithOCRFactory(ocr.NewFactory(cfg.OCRSettings())),
		search.WithScanner(sc))
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	out := output.New(stdout)
	status := output.New(cmd.ErrOrStderr())
	if f.format == "text" && !f.noBanner && output.IsTerminal(stdout) {
		out.Banner()
	}

	session := &watchSession{
		cfg:     cfg,
		engine:  engine,
		scanner: sc,
		pattern: pattern,
		flags:   f,
		stdout:  stdout,
		out:     out,
		status:  status,
	}
	if err := session.search(ctx); err != nil {
		return err
	}

	w, err := watcher.New(watcher.Options{
		Debounce:      cfg.Watch.DebounceDuration(),
		IncludeHidden: cfg.Search.IncludeHidden,
		Gitignore:     cfg.Search.RespectGitignore,
		Ignore:        cacheFileFilter(engine.Root(), engine.CachePath()),
	})
	if err != nil {
		return err
	}

	status.Statusf("👀", "Watching %s for changes (Ctrl+C to stop)", engine.Root())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, engine.Root())
	})
	g.Go(func() error {
		return session.loop(gctx, w)
	})

	err = g.Wait()
	if dropped := w.DroppedBatches(); dropped > 0 {
		slog.Warn("watch_batches_dropped", slog.Uint64("count", dropped))
	}
	if ctx.Err() != nil {
		status.Status("", "Stopped.")
		return nil
	}
	return err
}

// cacheFileFilter ignores the index file and the temp files written while
// saving it, which would otherwise retrigger every search.
func cacheFileFilter(root, cachePath string) watcher.IgnoreFunc {
	rel, err := filepath.Rel(root, cachePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}
	rel = filepath.ToSlash(rel)
	return func(p string, isDir bool) bool {
		return !isDir && (p == rel || strings.HasPrefix(p, rel+"."))
	}
}

func touchesGitignore(batch []watcher.FileEvent) bool {
	for _, e := range batch {
		if path.Base(e.Path) == ".gitignore" {
			return true
		}
	}
	return false
}

// watchSession re-runs one engine and prints each report.
type watchSession struct {
	cfg     *config.Config
	engine  *search.Engine
	scanner *scanner.Scanner
	pattern string
	flags   *searchFlags
	stdout  io.Writer
	out     *output.Writer
	status  *output.Writer
}

func (s *watchSession) loop(ctx context.Context, w *watcher.Watcher) error {
	events, errs := w.Events(), w.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-events:
			if !ok {
				return nil
			}
			slog.Debug("watch_batch_received", slog.Int("events", len(batch)))
			if touchesGitignore(batch) {
				s.scanner.InvalidateGitignoreCache()
			}
			s.status.Statusf("🔄", "%d change(s) detected, searching again", len(batch))
			if err := s.search(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

func (s *watchSession) search(ctx context.Context) error {
	started := time.Now()
	report, err := s.engine.Run(ctx)
	if err != nil {
		return err
	}
	reportCache(s.status, report)
	recordHistory(ctx, s.cfg, s.pattern, s.engine.Root(), started, report)

	if s.flags.format == "json" {
		return output.WriteReport(s.stdout, jsonReport(s.pattern, s.engine.Root(), report, s.flags.verbose))
	}
	s.out.Results(report.Results, report.Stats, s.cfg.Search.Preview)
	if s.flags.verbose {
		s.out.Skipped(report.Failures)
	}
	return nil
}
