package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/argus/internal/output"
)

// previewLength matches the CLI preview width.
const previewLength = 80

// FormatSearchResults renders a search as markdown for the tool's text content.
func FormatSearchResults(out SearchOutput) string {
	if len(out.Results) == 0 {
		return fmt.Sprintf("No matches found for \"%s\" in %s", out.Pattern, out.Directory)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search Results for \"%s\"\n\n", out.Pattern)
	fmt.Fprintf(&sb, "Found %d file", len(out.Results))
	if len(out.Results) != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " with matches (%d files scanned, %d skipped, %s)\n\n",
		out.Stats.FilesScanned, out.Stats.FilesSkipped, output.FormatDuration(out.Stats.DurationMS))

	for i, r := range out.Results {
		fmt.Fprintf(&sb, "### %d. %s\n\n", i+1, r.Path)
		fmt.Fprintf(&sb, "**Category:** %s | **Matches:** %d | **Confidence:** %s\n\n",
			r.Category, r.MatchCount, output.FormatPercent(r.Confidence))
		for _, l := range r.Lines {
			if l.Line > 0 {
				fmt.Fprintf(&sb, "- line %d: `%s`\n", l.Line, inlineCode(l.Context))
			} else {
				fmt.Fprintf(&sb, "- `%s`\n", inlineCode(l.Context))
			}
		}
		if len(r.Lines) > 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// FormatCacheInfo renders a cache description as markdown.
func FormatCacheInfo(info CacheInfoOutput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Cache %s\n\n", info.Path)
	fmt.Fprintf(&sb, "- **Version:** %d\n", info.Version)
	fmt.Fprintf(&sb, "- **Directory:** %s\n", info.Directory)
	if info.UpdatedAt != "" {
		fmt.Fprintf(&sb, "- **Updated:** %s\n", info.UpdatedAt)
	}
	fmt.Fprintf(&sb, "- **Entries:** %d\n", info.Entries)
	fmt.Fprintf(&sb, "- **Size:** %s\n", output.FormatBytes(info.SizeBytes))
	return sb.String()
}

// inlineCode trims a line for an inline code span.
func inlineCode(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "`", "'"))
	if r := []rune(s); len(r) > previewLength {
		s = string(r[:previewLength]) + "..."
	}
	return s
}
