package mcp

import (
	"time"

	"github.com/Aman-CERP/argus/internal/model"
	"github.com/Aman-CERP/argus/internal/output"
)

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Pattern       string   `json:"pattern" jsonschema:"text or regular expression to search for"`
	Directory     string   `json:"directory,omitempty" jsonschema:"directory to search, relative to the server root; default is the root"`
	Regex         bool     `json:"regex,omitempty" jsonschema:"treat pattern as a regular expression"`
	CaseSensitive bool     `json:"case_sensitive,omitempty" jsonschema:"match case exactly"`
	OCR           bool     `json:"ocr,omitempty" jsonschema:"run OCR on images and scanned PDFs"`
	Limit         int      `json:"limit,omitempty" jsonschema:"maximum number of files returned, default from config"`
	MaxDepth      int      `json:"max_depth,omitempty" jsonschema:"maximum directory depth, 0 for unlimited"`
	Extensions    []string `json:"extensions,omitempty" jsonschema:"only search files with these extensions, e.g. go, md"`
	UseCache      bool     `json:"use_cache,omitempty" jsonschema:"read unchanged files from the content cache"`
	SaveCache     bool     `json:"save_cache,omitempty" jsonschema:"write extracted text back to the content cache"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Pattern   string               `json:"pattern" jsonschema:"the pattern that was searched"`
	Directory string               `json:"directory" jsonschema:"absolute search root"`
	Results   []SearchResultOutput `json:"results" jsonschema:"matching files, best first"`
	Stats     StatsOutput          `json:"stats" jsonschema:"run counters"`
}

// StatsOutput mirrors model.RunStatistics with string category keys.
type StatsOutput struct {
	FilesScanned int            `json:"files_scanned"`
	FilesMatched int            `json:"files_matched"`
	TotalMatches int            `json:"total_matches"`
	FilesSkipped int            `json:"files_skipped"`
	ByCategory   map[string]int `json:"by_category" jsonschema:"matched files per category"`
	DurationMS   int64          `json:"duration_ms"`
}

// SearchResultOutput is one matching file.
type SearchResultOutput struct {
	Path       string      `json:"path" jsonschema:"absolute file path"`
	Category   string      `json:"category" jsonschema:"text, code, pdf, docx, image or other"`
	Confidence float64     `json:"confidence" jsonschema:"relevance between 0 and 1"`
	MatchCount int         `json:"match_count" jsonschema:"number of matches in the file"`
	Preview    string      `json:"preview,omitempty" jsonschema:"context of the first match"`
	Lines      []LineMatch `json:"lines,omitempty" jsonschema:"first matches with line numbers"`
}

// LineMatch is one match inside a result.
type LineMatch struct {
	Line    int    `json:"line,omitempty" jsonschema:"1-based line number when known"`
	Text    string `json:"text" jsonschema:"the matched text"`
	Context string `json:"context" jsonschema:"the full line"`
}

// CacheInfoInput defines the input schema for the cache_info tool.
type CacheInfoInput struct {
	Directory string `json:"directory,omitempty" jsonschema:"search root whose cache to inspect; default is the server root"`
	IndexFile string `json:"index_file,omitempty" jsonschema:"explicit cache file path"`
}

// CacheInfoOutput defines the output schema for the cache_info tool.
type CacheInfoOutput struct {
	Path       string         `json:"path" jsonschema:"cache file location"`
	Version    int            `json:"version" jsonschema:"cache format version"`
	Directory  string         `json:"directory" jsonschema:"root the cache was built for"`
	CreatedAt  string         `json:"created_at,omitempty" jsonschema:"RFC 3339 creation time"`
	UpdatedAt  string         `json:"updated_at,omitempty" jsonschema:"RFC 3339 time of the last save"`
	Entries    int            `json:"entries" jsonschema:"number of cached files"`
	ByCategory map[string]int `json:"by_category" jsonschema:"cached files per category"`
	SizeBytes  int64          `json:"size_bytes" jsonschema:"cache file size"`
}

func toStatsOutput(s model.RunStatistics) StatsOutput {
	return StatsOutput{
		FilesScanned: s.FilesScanned,
		FilesMatched: s.FilesMatched,
		TotalMatches: s.TotalMatches,
		FilesSkipped: s.FilesSkipped,
		ByCategory:   categoryKeys(s.ByCategory),
		DurationMS:   s.DurationMillis(),
	}
}

func toCacheInfoOutput(info output.CacheInfo) CacheInfoOutput {
	out := CacheInfoOutput{
		Path:       info.Path,
		Version:    info.Version,
		Directory:  info.Directory,
		Entries:    info.Entries,
		ByCategory: categoryKeys(info.ByCategory),
		SizeBytes:  info.SizeBytes,
	}
	if !info.CreatedAt.IsZero() {
		out.CreatedAt = info.CreatedAt.Format(time.RFC3339)
	}
	if !info.UpdatedAt.IsZero() {
		out.UpdatedAt = info.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

func categoryKeys(counts map[model.Category]int) map[string]int {
	out := make(map[string]int, len(counts))
	for c, n := range counts {
		out[c.Key()] = n
	}
	return out
}

// maxLinesPerResult caps LineMatch entries per file.
const maxLinesPerResult = 5

// toResultOutput converts a ranked result to its MCP form.
func toResultOutput(r model.FileResult) SearchResultOutput {
	out := SearchResultOutput{
		Path:       r.Path,
		Category:   r.Category.Key(),
		Confidence: r.Confidence,
		MatchCount: r.MatchCount(),
	}
	if preview, ok := r.Preview(previewLength); ok {
		out.Preview = preview
	}
	for i, m := range r.Matches {
		if i == maxLinesPerResult {
			break
		}
		lm := LineMatch{Text: m.MatchedText, Context: m.LineContext}
		if m.LineNumber != nil {
			lm.Line = *m.LineNumber
		}
		out.Lines = append(out.Lines, lm)
	}
	return out
}
