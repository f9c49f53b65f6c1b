package gitignore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Matcher answers whether a slash-separated path relative to the search root
// is ignored. Rules are evaluated in order and the last matching rule wins,
// so a later "!pattern" re-includes what an earlier rule excluded.
//
// A Matcher is immutable once built and safe for concurrent use.
type Matcher struct {
	rules []rule
}

type rule struct {
	re       *regexp.Regexp
	negate   bool
	dirOnly  bool
	anchored bool
	// base is the directory (relative to the root) holding the .gitignore.
	base string
}

// New returns a Matcher built from gitignore-formatted content whose rules
// apply below base. An empty base means the search root.
func New(r io.Reader, base string) (*Matcher, error) {
	base = strings.Trim(filepath.ToSlash(base), "/")
	m := &Matcher{}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if rl, ok := compile(sc.Text(), base); ok {
			m.rules = append(m.rules, rl)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read gitignore: %w", err)
	}
	return m, nil
}

// FromFile parses the .gitignore file at path.
func FromFile(path, base string) (*Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gitignore: %w", err)
	}
	defer f.Close()
	return New(f, base)
}

// FromPatterns builds a Matcher from individual pattern lines.
func FromPatterns(patterns ...string) *Matcher {
	m, _ := New(strings.NewReader(strings.Join(patterns, "\n")), "")
	return m
}

// Len returns the number of active rules.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

// Match reports whether path is ignored. isDir tells whether path itself is
// a directory. Anything below an ignored directory is ignored too.
func (m *Matcher) Match(path string, isDir bool) bool {
	if m == nil {
		return false
	}
	path = strings.Trim(filepath.ToSlash(path), "/")

	ignored := false
	for _, rl := range m.rules {
		if rl.matches(path, isDir) {
			ignored = !rl.negate
		}
	}
	return ignored
}

func (rl rule) matches(path string, isDir bool) bool {
	if rl.base != "" {
		if !strings.HasPrefix(path, rl.base+"/") {
			return false
		}
		path = path[len(rl.base)+1:]
	}

	parts := strings.Split(path, "/")
	for i := range parts {
		last := i == len(parts)-1
		if rl.dirOnly && last && !isDir {
			continue
		}

		subject := parts[i]
		if rl.anchored {
			subject = strings.Join(parts[:i+1], "/")
		}
		if rl.re.MatchString(subject) {
			return true
		}
	}
	return false
}

// compile turns one gitignore line into a rule. Blank lines and comments
// yield ok == false.
func compile(line, base string) (rule, bool) {
	line = trimTrailingSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}

	rl := rule{base: base}
	switch {
	case strings.HasPrefix(line, `\#`), strings.HasPrefix(line, `\!`):
		line = line[1:]
	case strings.HasPrefix(line, "!"):
		rl.negate = true
		line = line[1:]
	}

	if strings.HasSuffix(line, "/") {
		rl.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		rl.anchored = true
		line = strings.TrimLeft(line, "/")
	}
	if strings.Contains(line, "/") {
		rl.anchored = true
	}
	if line == "" {
		return rule{}, false
	}

	re, err := regexp.Compile("^" + globToRegexp(line) + "$")
	if err != nil {
		return rule{}, false
	}
	rl.re = re
	return rl, true
}

// trimTrailingSpace drops unescaped trailing spaces; "\ " keeps one space.
func trimTrailingSpace(line string) string {
	line = strings.TrimRight(line, "\r\t")
	for strings.HasSuffix(line, " ") {
		if strings.HasSuffix(line, `\ `) {
			return line[:len(line)-2] + " "
		}
		line = line[:len(line)-1]
	}
	return strings.TrimLeft(line, " \t")
}

func globToRegexp(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				atStart := i == 0 || glob[i-1] == '/'
				switch {
				case atStart && i+2 < len(glob) && glob[i+2] == '/':
					b.WriteString("(?:.*/)?")
					i += 2
					continue
				case atStart && i+2 == len(glob):
					b.WriteString(".*")
					i++
					continue
				}
			}
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end + 1
		case '\\':
			if i+1 < len(glob) {
				i++
				b.WriteString(regexp.QuoteMeta(string(glob[i])))
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}
