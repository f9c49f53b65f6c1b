// Package match finds pattern occurrences in extracted text.
//
// Matching is strictly per line: the text is split on line breaks and each
// line is scanned independently, so a match never spans two lines.
package match

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/Aman-CERP/argus/internal/model"
)

// ErrEmptyPattern is returned when constructing a matcher for an empty pattern.
var ErrEmptyPattern = errors.New("search pattern is empty")

// Options selects the pattern strategy.
type Options struct {
	// Regex compiles the pattern as a regular expression instead of a literal.
	Regex bool
	// CaseSensitive disables case folding.
	CaseSensitive bool
}

// Matcher finds all matches of a compiled pattern in a text.
type Matcher interface {
	// FindAll returns every match in text, in line order.
	FindAll(text string) []model.Match
	// Pattern returns the source pattern.
	Pattern() string
}

// New compiles pattern according to opts. An invalid regular expression is
// returned as an error wrapping the regexp syntax error.
func New(pattern string, opts Options) (Matcher, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}
	if opts.Regex {
		return newRegexMatcher(pattern, opts.CaseSensitive)
	}
	return newLiteralMatcher(pattern, opts.CaseSensitive), nil
}

// Lines splits text into lines, dropping a trailing carriage return from each.
// A trailing newline does not produce an empty final line.
func Lines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

type regexMatcher struct {
	source string
	re     *regexp.Regexp
}

func newRegexMatcher(pattern string, caseSensitive bool) (*regexMatcher, error) {
	flags := "(?m)"
	if !caseSensitive {
		flags = "(?mi)"
	}
	re, err := regexp.Compile(flags + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return &regexMatcher{source: pattern, re: re}, nil
}

func (m *regexMatcher) Pattern() string { return m.source }

func (m *regexMatcher) FindAll(text string) []model.Match {
	var matches []model.Match
	for i, line := range Lines(text) {
		for _, loc := range m.re.FindAllStringIndex(line, -1) {
			// Zero-width matches carry no searchable text.
			if loc[0] == loc[1] {
				continue
			}
			column := len([]rune(line[:loc[0]]))
			matches = append(matches, model.NewMatch(line[loc[0]:loc[1]], line, i+1, column))
		}
	}
	return matches
}

type literalMatcher struct {
	source        string
	needle        []rune
	caseSensitive bool
}

func newLiteralMatcher(pattern string, caseSensitive bool) *literalMatcher {
	needle := []rune(pattern)
	if !caseSensitive {
		needle = foldRunes(needle)
	}
	return &literalMatcher{source: pattern, needle: needle, caseSensitive: caseSensitive}
}

func (m *literalMatcher) Pattern() string { return m.source }

func (m *literalMatcher) FindAll(text string) []model.Match {
	var matches []model.Match
	n := len(m.needle)
	for i, line := range Lines(text) {
		original := []rune(line)
		haystack := original
		if !m.caseSensitive {
			haystack = foldRunes(original)
		}

		// The cursor moves one character past each match start so that
		// overlapping occurrences are all reported.
		for start := 0; start+n <= len(haystack); {
			pos := indexRunes(haystack[start:], m.needle)
			if pos < 0 {
				break
			}
			at := start + pos
			matches = append(matches, model.NewMatch(string(original[at:at+n]), line, i+1, at))
			start = at + 1
		}
	}
	return matches
}

// foldRunes lowercases rune by rune so indexes line up with the original.
func foldRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func indexRunes(haystack, needle []rune) int {
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		if haystack[i] != needle[0] {
			continue
		}
		found := true
		for j := 1; j < n; j++ {
			if haystack[i+j] != needle[j] {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}
	return -1
}
