package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/argus/internal/cache"
	"github.com/Aman-CERP/argus/internal/config"
	argerr "github.com/Aman-CERP/argus/internal/errors"
	"github.com/Aman-CERP/argus/internal/history"
	"github.com/Aman-CERP/argus/internal/ocr"
	"github.com/Aman-CERP/argus/internal/opener"
	"github.com/Aman-CERP/argus/internal/output"
	"github.com/Aman-CERP/argus/internal/search"
	"github.com/Aman-CERP/argus/internal/ui"
)

// searchFlags holds the flags shared by the root command, search and watch.
type searchFlags struct {
	directory      string
	limit          int
	caseSensitive  bool
	ocr            bool
	regex          bool
	preview        bool
	extensions     []string
	maxDepth       int
	hidden         bool
	gitignore      bool
	noBanner       bool
	nonInteractive bool
	saveIndex      bool
	useIndex       bool
	indexFile      string
	workers        int
	format         string
	verbose        bool
	noHistory      bool
}

func newSearchFlags() *searchFlags {
	return &searchFlags{directory: ".", format: "text"}
}

func (f *searchFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.directory, "directory", "d", ".", "Directory to search")
	fl.IntVarP(&f.limit, "limit", "l", search.DefaultLimit, "Maximum number of results (0 = unlimited)")
	fl.BoolVarP(&f.caseSensitive, "case-sensitive", "s", false, "Match case exactly")
	fl.BoolVarP(&f.ocr, "ocr", "o", false, "Read images and scanned PDFs with OCR")
	fl.BoolVarP(&f.regex, "regex", "r", false, "Treat the pattern as a regular expression")
	fl.BoolVarP(&f.preview, "preview", "p", false, "Show a preview of the first match")
	fl.StringSliceVarP(&f.extensions, "extensions", "e", nil, "Only search these extensions (comma separated)")
	fl.IntVar(&f.maxDepth, "max-depth", 0, "Maximum directory depth (0 = unlimited)")
	fl.BoolVarP(&f.hidden, "hidden", "H", false, "Include hidden files and directories")
	fl.BoolVar(&f.gitignore, "gitignore", false, "Skip files ignored by .gitignore")
	fl.BoolVar(&f.noBanner, "no-banner", false, "Do not print the banner")
	fl.BoolVarP(&f.nonInteractive, "non-interactive", "n", false, "Print results without the selector, with plain progress lines")
	fl.BoolVarP(&f.saveIndex, "save-index", "i", false, "Save extracted text to the index file")
	fl.BoolVarP(&f.useIndex, "use-index", "I", false, "Reuse extracted text from the index file")
	fl.StringVar(&f.indexFile, "index-file", "", "Index file path (default: <directory>/"+cache.DefaultFileName+")")
	fl.IntVarP(&f.workers, "workers", "j", 0, "Number of parallel workers (default: CPU count)")
	fl.StringVarP(&f.format, "format", "f", "text", "Output format: text or json")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "List files that could not be read")
	fl.BoolVar(&f.noHistory, "no-history", false, "Do not record this search in history")
}

// apply overrides cfg with the flags the user set explicitly.
func (f *searchFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("limit") {
		cfg.Search.Limit = f.limit
	}
	if changed("case-sensitive") {
		cfg.Search.CaseSensitive = f.caseSensitive
	}
	if changed("regex") {
		cfg.Search.Regex = f.regex
	}
	if changed("preview") {
		cfg.Search.Preview = f.preview
	}
	if changed("extensions") {
		cfg.Search.Extensions = f.extensions
	}
	if changed("max-depth") {
		cfg.Search.MaxDepth = f.maxDepth
	}
	if changed("hidden") {
		cfg.Search.IncludeHidden = f.hidden
	}
	if changed("gitignore") {
		cfg.Search.RespectGitignore = f.gitignore
	}
	if changed("workers") {
		cfg.Search.Workers = f.workers
	}
	if changed("ocr") {
		cfg.OCR.Enabled = f.ocr
	}
	if changed("save-index") {
		cfg.Cache.Save = f.saveIndex
	}
	if changed("use-index") {
		cfg.Cache.Use = f.useIndex
	}
	if changed("index-file") {
		cfg.Cache.File = f.indexFile
	}
	if f.noHistory {
		cfg.History.Enabled = false
	}
}

func (f *searchFlags) validate() error {
	switch f.format {
	case "text", "json":
	default:
		return argerr.New(argerr.ErrCodeInvalidFormat,
			fmt.Sprintf("unknown output format %q", f.format), nil).
			WithSuggestion("Use --format text or --format json")
	}
	if f.limit < 0 {
		return argerr.New(argerr.ErrCodeInvalidLimit,
			fmt.Sprintf("limit must be non-negative, got %d", f.limit), nil)
	}
	return nil
}

func newSearchCmd() *cobra.Command {
	opts := newSearchFlags()

	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search a directory for a pattern",
		Long: `Search every supported file under a directory for a pattern.

Text and code files, PDFs (text layer), DOCX documents and, with --ocr,
images and scanned PDFs are searched. Results are ranked by relevance.`,
		Example: `  argus search "TODO"
  argus search "err(or)?s?" -r -d ./internal -e go,md
  argus search invoice -o -I -i`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, joinPattern(args), opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

// joinPattern lets multi-word patterns be passed unquoted.
func joinPattern(args []string) string {
	return strings.Join(args, " ")
}

// loadSearchConfig loads configuration for the flags' directory and applies
// explicit flags on top.
func loadSearchConfig(cmd *cobra.Command, f *searchFlags) (*config.Config, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(f.directory)
	if err != nil {
		return nil, argerr.ConfigError("failed to load configuration", err).
			WithSuggestion("Run 'argus config show' to check the effective configuration")
	}
	f.apply(cmd, cfg)
	return cfg, nil
}

func runSearch(ctx context.Context, cmd *cobra.Command, pattern string, f *searchFlags) error {
	cfg, err := loadSearchConfig(cmd, f)
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	jsonOut := f.format == "json"

	out := output.New(stdout)
	status := output.New(stderr)
	if !jsonOut && !f.noBanner && output.IsTerminal(stdout) {
		out.Banner()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine, renderer, err := newEngine(ctx, cfg, f.directory, pattern, stderr, f.nonInteractive, cancel)
	if err != nil {
		return err
	}
	if engine.CacheState() == search.CacheLoaded {
		status.Statusf("📂", "Loaded index with %d entries", engine.CacheLen())
	}

	started := time.Now()
	report, runErr := engine.Run(ctx)
	renderer.Complete(ui.CompletionStats{
		Scanned:  report.Stats.FilesScanned,
		Matched:  report.Stats.FilesMatched,
		Skipped:  report.Stats.FilesSkipped,
		Duration: report.Stats.Duration,
	})
	_ = renderer.Stop()

	reportCache(status, report)
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			status.Warning("Search interrupted")
		}
		return runErr
	}

	recordHistory(ctx, cfg, pattern, engine.Root(), started, report)

	if jsonOut {
		return output.WriteReport(stdout, jsonReport(pattern, engine.Root(), report, f.verbose))
	}

	out.Results(report.Results, report.Stats, cfg.Search.Preview)
	if f.verbose {
		out.Skipped(report.Failures)
	}

	if f.nonInteractive || !ui.IsTTY(os.Stdin) || !ui.IsTTY(stdout) {
		return nil
	}
	return selectAndOpen(ctx, stdout, out, report)
}

// newEngine builds the engine and its progress display. The renderer
// cancels the run when the user interrupts it.
func newEngine(ctx context.Context, cfg *config.Config, dir, pattern string, progressOut io.Writer, plain bool, cancel context.CancelFunc) (*search.Engine, ui.Renderer, error) {
	renderer := ui.NewRenderer(ui.NewConfig(progressOut,
		ui.WithForcePlain(plain),
		ui.WithNoColor(ui.DetectNoColor()),
		ui.WithDirectory(dir)))
	if tui, ok := renderer.(*ui.TUIRenderer); ok {
		tui.OnInterrupt = cancel
	}

	engine, err := search.NewEngine(cfg.SearchFor(dir, pattern), cfg.CacheSettings(),
		search.WithOCRFactory(ocr.NewFactory(cfg.OCRSettings())),
		search.WithProgress(func(p search.Progress) {
			stage := ui.StageSearching
			if p.Scanning {
				stage = ui.StageScanning
			}
			renderer.UpdateProgress(ui.ProgressEvent{
				Stage:       stage,
				Current:     p.Processed,
				Total:       p.Total,
				CurrentFile: p.Path,
			})
		}))
	if err != nil {
		return nil, nil, err
	}
	if err := renderer.Start(ctx); err != nil {
		return nil, nil, err
	}
	return engine, renderer, nil
}

func reportCache(status *output.Writer, report search.Report) {
	if report.CacheErr != nil {
		status.Warningf("Could not save index: %v", report.CacheErr)
		return
	}
	if report.CacheSaved {
		status.Statusf("💾", "Saved index with %d entries", report.CacheEntries)
	}
}

func jsonReport(pattern, root string, report search.Report, verbose bool) output.Report {
	r := output.Report{
		Pattern:   pattern,
		Directory: root,
		Results:   report.Results,
		Stats:     report.Stats,
	}
	if verbose {
		r.Skipped = report.Failures
	}
	if report.CacheState != search.CacheDisabled {
		r.Cache = &output.CacheSummary{
			Path:    report.CachePath,
			State:   report.CacheState.String(),
			Entries: report.CacheEntries,
			Saved:   report.CacheSaved,
		}
		if report.CacheErr != nil {
			r.Cache.Error = report.CacheErr.Error()
		}
	}
	return r
}

// recordHistory stores the run when history is enabled. Failures are
// logged and never fail the search.
func recordHistory(ctx context.Context, cfg *config.Config, pattern, root string, started time.Time, report search.Report) {
	if !cfg.History.Enabled || cfg.History.Path == "" {
		return
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		slog.Warn("history_open_failed", slog.String("path", cfg.History.Path), slog.String("error", err.Error()))
		return
	}
	defer func() { _ = store.Close() }()

	run := history.NewRun(pattern, root, started, report.Stats)
	run.Regex = cfg.Search.Regex
	run.CaseSensitive = cfg.Search.CaseSensitive
	run.OCR = cfg.OCR.Enabled
	run.CacheState = report.CacheState.String()
	if err := store.Record(ctx, run); err != nil {
		slog.Warn("history_record_failed", slog.String("error", err.Error()))
	}
}

// selectAndOpen loops over the selector until the user exits, opening each
// chosen result.
func selectAndOpen(ctx context.Context, stdout io.Writer, out *output.Writer, report search.Report) error {
	if len(report.Results) == 0 {
		return nil
	}

	cursor := 0
	for {
		index, ok, err := ui.Select(ctx, os.Stdin, stdout, report.Results, cursor, ui.DetectNoColor())
		if err != nil {
			return err
		}
		if !ok {
			out.Goodbye()
			return nil
		}

		path := report.Results[index].Path
		if err := opener.Open(path); err != nil {
			slog.Warn("open_failed",
				slog.String("path", path),
				slog.String("code", argerr.GetCode(err)),
				slog.String("error", err.Error()))
			out.Error(err.Error())
		} else {
			out.Successf("Opened %s", path)
		}
		cursor = index
	}
}
