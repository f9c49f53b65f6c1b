package output

import (
	"fmt"
	"time"

	"github.com/Aman-CERP/argus/internal/history"
)

// History prints previous runs, newest first.
func (w *Writer) History(runs []history.Run) {
	if len(runs) == 0 {
		w.Status("📜", "No searches recorded yet.")
		return
	}

	now := time.Now()
	w.Status("📜", w.styles.banner.Render(fmt.Sprintf("Last %d searches:", len(runs))))
	_, _ = fmt.Fprintln(w.out)
	for _, r := range runs {
		flags := runFlags(r)
		_, _ = fmt.Fprintf(w.out, "  %s  %s %s\n",
			w.styles.dim.Render(fmt.Sprintf("%-14s", FormatTime(r.StartedAt, now))),
			w.styles.success.Render(fmt.Sprintf("%q", r.Pattern)),
			w.styles.dim.Render(flags))
		_, _ = fmt.Fprintf(w.out, "     %s\n", w.styles.dim.Render(fmt.Sprintf(
			"%s • %d matches in %d/%d files • %s",
			w.displayPath(r.Directory),
			r.TotalMatches, r.FilesMatched, r.FilesScanned, FormatDuration(r.DurationMS))))
	}
	_, _ = fmt.Fprintln(w.out)
}

// HistorySummary prints aggregated history statistics.
func (w *Writer) HistorySummary(s history.Summary) {
	w.Statusf("📊", "%d searches, %d without matches", s.Runs, s.ZeroResults)
	for _, b := range history.Buckets {
		if n := s.ByLatency[b]; n > 0 {
			_, _ = fmt.Fprintf(w.out, "     %-9s %d\n", b, n)
		}
	}
	if len(s.TopPatterns) > 0 {
		w.Status("🔥", "Most searched:")
		for _, p := range s.TopPatterns {
			_, _ = fmt.Fprintf(w.out, "     %-24q %d\n", p.Pattern, p.Count)
		}
	}
}

func runFlags(r history.Run) string {
	flags := ""
	if r.Regex {
		flags += "[regex]"
	}
	if r.CaseSensitive {
		flags += "[case]"
	}
	if r.OCR {
		flags += "[ocr]"
	}
	return flags
}
