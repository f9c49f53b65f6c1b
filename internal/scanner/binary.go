package scanner

import (
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how much of a file the content heuristics read.
const sniffLen = 8192

// IsBinary reports whether the file at path looks like binary content.
//
// Magic-byte detection runs first: PDFs and images are documents, other
// application/* types are binary unless they are JSON, XML or JavaScript.
// Undetected content falls back to ratios over the first 8 KiB: more than
// 10% NUL bytes, or more than 20% control characters other than \n, \r
// and \t. Unreadable files are not considered binary.
func IsBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false
	}
	return IsBinaryContent(buf[:n])
}

// IsBinaryContent applies the IsBinary rules to a content prefix.
func IsBinaryContent(head []byte) bool {
	if len(head) == 0 {
		return false
	}

	if mime := detectedMIME(head); mime != "" {
		if mime == "application/pdf" || strings.HasPrefix(mime, "image/") {
			return false
		}
		if strings.HasPrefix(mime, "application/") &&
			!strings.Contains(mime, "json") &&
			!strings.Contains(mime, "xml") &&
			!strings.Contains(mime, "javascript") {
			return true
		}
	}

	var nul, control int
	for _, b := range head {
		switch {
		case b == 0:
			nul++
			control++
		case b < 32 && b != '\n' && b != '\r' && b != '\t':
			control++
		}
	}
	n := len(head)
	return nul > n/10 || control > n/5
}

// detectedMIME returns the sniffed media type without parameters, or "" when
// nothing more specific than the generic fallbacks was recognized.
func detectedMIME(head []byte) string {
	m := mimetype.Detect(head)
	mime, _, _ := strings.Cut(m.String(), ";")
	switch mime {
	case "application/octet-stream", "text/plain":
		return ""
	}
	return mime
}
