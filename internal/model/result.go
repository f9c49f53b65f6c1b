package model

import (
	"path/filepath"
	"strings"
)

// Match is one occurrence of the pattern within one line of extracted text.
type Match struct {
	// MatchedText is the exact text that matched, in its original case.
	MatchedText string `json:"matched_text"`
	// LineContext is the full line the match was found on.
	LineContext string `json:"line_context"`
	// LineNumber is 1-indexed; nil when the extraction mode lost line numbering.
	LineNumber *int `json:"line_number,omitempty"`
	// Column is the 0-indexed character offset of the match within the line.
	Column *int `json:"column,omitempty"`
}

// NewMatch creates a match with position information.
func NewMatch(matched, line string, lineNumber, column int) Match {
	return Match{
		MatchedText: matched,
		LineContext: line,
		LineNumber:  &lineNumber,
		Column:      &column,
	}
}

// FileResult is the outcome of searching one file.
type FileResult struct {
	Path          string   `json:"path"`
	Category      Category `json:"category"`
	Matches       []Match  `json:"matches,omitempty"`
	Confidence    float64  `json:"confidence"`
	FileSizeBytes int64    `json:"file_size_bytes"`
	// FailureReason is set when extraction failed; such results carry no matches.
	FailureReason string `json:"failure_reason,omitempty"`
}

// Failed reports whether extraction failed for this file.
func (r FileResult) Failed() bool {
	return r.FailureReason != ""
}

// MatchCount returns the number of matches.
func (r FileResult) MatchCount() int {
	return len(r.Matches)
}

// FileName returns the base name of the path, or "unknown".
func (r FileResult) FileName() string {
	name := filepath.Base(r.Path)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "unknown"
	}
	return name
}

// Preview returns the trimmed context of the first match, truncated to
// maxLen characters with a trailing ellipsis. ok is false without matches.
func (r FileResult) Preview(maxLen int) (preview string, ok bool) {
	if len(r.Matches) == 0 {
		return "", false
	}
	context := strings.TrimSpace(r.Matches[0].LineContext)
	runes := []rune(context)
	if maxLen > 0 && len(runes) > maxLen {
		return string(runes[:maxLen]) + "...", true
	}
	return context, true
}
