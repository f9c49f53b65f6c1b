package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/argus/internal/history"
	"github.com/Aman-CERP/argus/internal/ocr"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
	// StatusSkip indicates the check does not apply on this platform or
	// configuration.
	StatusSkip
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	case StatusSkip:
		return "SKIP"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the status by name for --json output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Target describes what a search would touch.
type Target struct {
	// Root is the search root.
	Root string
	// CachePath is the index file location. Empty skips the index checks.
	CachePath string
	// HistoryPath is the history database. Empty skips the history check.
	HistoryPath string
	// OCR is the configured backend.
	OCR ocr.Config
	// OCREnabled makes OCR problems failures instead of warnings.
	OCREnabled bool
}

// Probes construct OCR engines. Tests replace them.
type Probes struct {
	Lib     func(language, dataPath string) (ocr.Engine, error)
	CLI     func(language, dataPath string) (ocr.Engine, error)
	Factory func(cfg ocr.Config) ocr.Factory
}

func defaultProbes() Probes {
	return Probes{
		Lib: func(language, dataPath string) (ocr.Engine, error) {
			e, err := ocr.NewTesseractLib(language, dataPath)
			if err != nil {
				return nil, err
			}
			return e, nil
		},
		CLI: func(language, dataPath string) (ocr.Engine, error) {
			e, err := ocr.NewTesseractCLI(language, dataPath)
			if err != nil {
				return nil, err
			}
			return e, nil
		},
		Factory: ocr.NewFactory,
	}
}

// Checker performs preflight validation checks.
type Checker struct {
	verbose bool
	output  io.Writer
	probes  Probes
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose enables verbose output.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// WithProbes replaces the OCR engine constructors.
func WithProbes(p Probes) Option {
	return func(c *Checker) {
		c.probes = p
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		output: os.Stdout,
		probes: defaultProbes(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs all preflight checks and returns the results.
func (c *Checker) RunAll(ctx context.Context, t Target) []CheckResult {
	results := []CheckResult{c.CheckRoot(t.Root)}

	if t.CachePath != "" {
		dir := filepath.Dir(t.CachePath)
		results = append(results, c.CheckWritePermissions(dir), c.CheckDiskSpace(dir))
	}
	results = append(results, c.CheckFileDescriptors())
	results = append(results, c.CheckOCR(t.OCR, t.OCREnabled)...)
	if t.HistoryPath != "" {
		results = append(results, c.CheckHistory(ctx, t.HistoryPath))
	}
	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns a summary status string for the results.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	hasCriticalFailure := false

	for _, r := range results {
		if r.IsCritical() {
			hasCriticalFailure = true
		}
		if r.Status == StatusWarn || (r.Status == StatusFail && !r.Required) {
			hasWarnings = true
		}
	}

	if hasCriticalFailure {
		return "failed"
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "Argus System Check")
	_, _ = fmt.Fprintln(c.output, "==================")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "       %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(c.SummaryStatus(results)))

	var warnings, errs []string
	for _, r := range results {
		if r.IsCritical() {
			errs = append(errs, r.Name+": "+r.Message)
		} else if r.Status == StatusWarn || r.Status == StatusFail {
			warnings = append(warnings, r.Name+": "+r.Message)
		}
	}

	if len(errs) > 0 {
		_, _ = fmt.Fprintln(c.output)
		_, _ = fmt.Fprintf(c.output, "%d error(s):\n", len(errs))
		for _, e := range errs {
			_, _ = fmt.Fprintf(c.output, "  - %s\n", e)
		}
	}

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(c.output)
		_, _ = fmt.Fprintf(c.output, "%d warning(s):\n", len(warnings))
		for _, w := range warnings {
			_, _ = fmt.Fprintf(c.output, "  - %s\n", w)
		}
	}
}

// CheckRoot checks that the search root is a readable directory.
func (c *Checker) CheckRoot(root string) CheckResult {
	result := CheckResult{Name: "search_root", Required: true}

	info, err := os.Stat(root)
	switch {
	case err != nil:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot access %s: %v", root, err)
		return result
	case !info.IsDir():
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s is not a directory", root)
		return result
	}

	if _, err := os.ReadDir(root); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot list %s: %v", root, err)
		return result
	}

	result.Status = StatusPass
	result.Message = root
	return result
}

// CheckWritePermissions checks that the index can be written to dir. Only
// --save-index needs it, so a failure is not critical.
func (c *Checker) CheckWritePermissions(dir string) CheckResult {
	result := CheckResult{Name: "index_writable"}

	f, err := os.CreateTemp(dir, ".argus-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot write to %s", dir)
		result.Details = err.Error()
		return result
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	result.Status = StatusPass
	result.Message = dir
	return result
}

// CheckOCR reports which OCR backends load and which one the configuration
// resolves to. With OCR enabled an unusable configuration fails.
func (c *Checker) CheckOCR(cfg ocr.Config, enabled bool) []CheckResult {
	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}

	lib := CheckResult{Name: "ocr_libtesseract"}
	if e, err := c.probes.Lib(lang, cfg.DataPath); err != nil {
		lib.Status = StatusWarn
		lib.Message = "not available"
		lib.Details = err.Error()
	} else {
		_ = e.Close()
		lib.Status = StatusPass
		lib.Message = "loaded"
	}

	cli := CheckResult{Name: "ocr_tesseract_cli"}
	if e, err := c.probes.CLI(lang, cfg.DataPath); err != nil {
		cli.Status = StatusWarn
		cli.Message = "not found on PATH"
		cli.Details = err.Error()
	} else {
		_ = e.Close()
		cli.Status = StatusPass
		cli.Message = "found"
	}

	backend := CheckResult{Name: "ocr_backend", Required: enabled}
	engine, err := c.probes.Factory(cfg)()
	var unavailable ocr.Unavailable
	switch {
	case err != nil:
		backend.Status = StatusFail
		backend.Message = err.Error()
	case asUnavailable(engine, &unavailable):
		backend.Status = StatusWarn
		if enabled {
			backend.Status = StatusFail
		}
		backend.Message = "no OCR engine; images and scanned PDFs will be skipped"
		backend.Details = unavailable.Reason
	default:
		backend.Status = StatusPass
		backend.Message = backendName(engine)
	}
	if err == nil {
		_ = engine.Close()
	}

	return []CheckResult{lib, cli, backend}
}

func asUnavailable(e ocr.Engine, out *ocr.Unavailable) bool {
	u, ok := e.(ocr.Unavailable)
	if ok {
		*out = u
	}
	return ok
}

func backendName(e ocr.Engine) string {
	switch e.(type) {
	case *ocr.TesseractLib:
		return "libtesseract"
	case *ocr.TesseractCLI:
		return "tesseract CLI"
	default:
		return fmt.Sprintf("%T", e)
	}
}

// CheckHistory opens the history database.
func (c *Checker) CheckHistory(ctx context.Context, path string) CheckResult {
	result := CheckResult{Name: "history"}

	store, err := history.Open(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = "cannot open history database"
		result.Details = err.Error()
		return result
	}
	defer func() { _ = store.Close() }()

	summary, err := store.Summarize(ctx, 0)
	if err != nil {
		result.Status = StatusFail
		result.Message = "cannot read history database"
		result.Details = err.Error()
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s (%d runs)", path, summary.Runs)
	return result
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
		TB = 1024 * GB
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
