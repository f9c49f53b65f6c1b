package extract

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// extractText reads a file as UTF-8, honouring a UTF-8 or UTF-16 byte order
// mark. Invalid sequences become U+FFFD. Lines beyond maxLines are dropped.
func (e *Extractor) extractText(path string) Outcome {
	f, err := os.Open(path)
	if err != nil {
		return Failure(KindOpenFailure, "Failed to open file: %v", err)
	}
	defer f.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	r := bufio.NewReader(transform.NewReader(f, decoder))

	var b strings.Builder
	for lines := 0; lines < e.maxLines; {
		line, err := r.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			b.WriteString(line)
			b.WriteByte('\n')
			lines++
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if b.Len() == 0 {
				return Failure(KindDecodeFailure, "Failed to read file: %v", err)
			}
			break
		}
	}
	return Success(b.String())
}

// cleanLines trims every line and drops the blank ones.
func cleanLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
