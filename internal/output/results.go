package output

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Aman-CERP/argus/internal/model"
)

const (
	barWidth      = 12
	barFilled     = "█"
	barEmpty      = "░"
	previewLength = 80
	pathLength    = 60
)

// Results prints the statistics block followed by every ranked result.
func (w *Writer) Results(results []model.FileResult, stats model.RunStatistics, showPreview bool) {
	_, _ = fmt.Fprintln(w.out)
	w.Stats(stats)
	_, _ = fmt.Fprintln(w.out)

	if len(results) == 0 {
		_, _ = fmt.Fprintf(w.out, "  %s\n\n", w.styles.warning.Render("No matches found. Try a different search term or directory."))
		return
	}

	_, _ = fmt.Fprintf(w.out, "  %s %s\n\n",
		w.styles.success.Render("Found"),
		fmt.Sprintf("%d files with matches:", len(results)))

	for i := range results {
		w.result(i+1, &results[i], showPreview)
	}
}

// Stats prints the one-line run summary and the per-category breakdown.
func (w *Writer) Stats(stats model.RunStatistics) {
	s := w.styles
	_, _ = fmt.Fprintf(w.out, "  📊 %s %s %s %s %s %s %s %s %s\n",
		s.dim.Render("Stats:"),
		s.scanned.Render(fmt.Sprint(stats.FilesScanned)),
		s.dim.Render("files scanned,"),
		s.matches.Render(fmt.Sprint(stats.TotalMatches)),
		s.dim.Render("matches in"),
		s.files.Render(fmt.Sprint(stats.FilesMatched)),
		s.dim.Render("files"),
		s.dim.Render("•"),
		s.duration.Render(FormatDuration(stats.DurationMillis())))

	if breakdown := categoryBreakdown(stats.ByCategory); breakdown != "" {
		_, _ = fmt.Fprintf(w.out, "  📁 %s\n", s.dim.Render(breakdown))
	}
}

// Skipped lists files whose content could not be extracted.
func (w *Writer) Skipped(failures []model.FileResult) {
	if len(failures) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w.out, "  %s\n", w.styles.warning.Render(fmt.Sprintf("Skipped %d files:", len(failures))))
	for _, f := range failures {
		_, _ = fmt.Fprintf(w.out, "     %s %s\n", w.styles.dim.Render(w.displayPath(f.Path)), f.FailureReason)
	}
	_, _ = fmt.Fprintln(w.out)
}

func (w *Writer) result(rank int, r *model.FileResult, showPreview bool) {
	s := w.styles
	_, _ = fmt.Fprintf(w.out, "  %s %s %s %s %s %s\n",
		s.rank(rank).Render(fmt.Sprintf("#%d", rank)),
		r.Category.Icon(),
		s.fileName(r.Category.Color()).Render(r.FileName()),
		s.dim.Render("•"),
		s.matches.Render(fmt.Sprintf("%d matches", r.MatchCount())),
		fmt.Sprintf("[%s %s]", w.confidenceBar(r.Confidence), s.dim.Render(FormatPercent(r.Confidence))))

	_, _ = fmt.Fprintf(w.out, "     📍 %s\n", s.dim.Render(w.displayPath(r.Path)))

	if showPreview {
		if preview, ok := r.Preview(previewLength); ok {
			_, _ = fmt.Fprintf(w.out, "     💬 %s\n", w.highlight(preview, r.Matches[0].MatchedText))
		}
	}
	_, _ = fmt.Fprintln(w.out)
}

// displayPath shortens long paths from the left, tightening the limit on
// narrow terminals.
func (w *Writer) displayPath(path string) string {
	limit := pathLength
	if w.width > 0 && w.width-8 < limit && w.width-8 >= 20 {
		limit = w.width - 8
	}
	return truncateLeft(path, limit)
}

func (w *Writer) confidenceBar(confidence float64) string {
	filled := ConfidenceCells(confidence)
	return w.styles.barFilled.Render(strings.Repeat(barFilled, filled)) +
		w.styles.dim.Render(strings.Repeat(barEmpty, barWidth-filled))
}

// highlight emphasises the first case-insensitive occurrence of match.
func (w *Writer) highlight(text, match string) string {
	start, end := indexFold(text, match)
	if start < 0 {
		return w.styles.preview.Render(text)
	}
	runes := []rune(text)
	return w.styles.preview.Render(string(runes[:start])) +
		w.styles.highlight.Render(string(runes[start:end])) +
		w.styles.preview.Render(string(runes[end:]))
}

// ConfidenceCells returns how many of the bar cells a confidence fills.
func ConfidenceCells(confidence float64) int {
	if confidence <= 0 {
		return 0
	}
	if confidence >= 1 {
		return barWidth
	}
	return int(confidence*barWidth + 0.5)
}

// FormatPercent renders a confidence as a whole percentage.
func FormatPercent(confidence float64) string {
	return fmt.Sprintf("%.0f%%", confidence*100)
}

// FormatDuration renders milliseconds as "850ms" below one second and
// "1.25s" above.
func FormatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.2fs", float64(ms)/1000)
}

// categoryBreakdown renders non-zero category counts in category order.
func categoryBreakdown(counts map[model.Category]int) string {
	var parts []string
	for _, c := range model.Categories {
		if n := counts[c]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %s: %d", c.Icon(), c, n))
		}
	}
	return strings.Join(parts, " • ")
}

// indexFold finds needle in text ignoring case and returns rune offsets, or
// -1 when absent.
func indexFold(text, needle string) (int, int) {
	hay := []rune(text)
	pat := []rune(needle)
	if len(pat) == 0 || len(pat) > len(hay) {
		return -1, -1
	}
outer:
	for i := 0; i+len(pat) <= len(hay); i++ {
		for j, r := range pat {
			if unicode.ToLower(hay[i+j]) != unicode.ToLower(r) {
				continue outer
			}
		}
		return i, i + len(pat)
	}
	return -1, -1
}
