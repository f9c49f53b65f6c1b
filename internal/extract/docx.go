package extract

import (
	"archive/zip"
	"html"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// maxDocxBody caps the decompressed size of document.xml.
const maxDocxBody = 256 * 1024 * 1024

func (e *Extractor) extractDocx(path string) Outcome {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return Failure(KindParseFailure, "Failed to extract DOCX text: read as zip: %v", err)
	}
	defer zr.Close()

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return Failure(KindParseFailure, "Failed to extract DOCX text: %s not found", docxBody)
	}

	rc, err := body.Open()
	if err != nil {
		return Failure(KindParseFailure, "Failed to extract DOCX text: %v", err)
	}
	defer rc.Close()

	xml, err := io.ReadAll(io.LimitReader(rc, maxDocxBody))
	if err != nil {
		return Failure(KindDecodeFailure, "Failed to extract DOCX text: read %s: %v", docxBody, err)
	}
	return Success(DocxText(string(xml)))
}

// DocxText scans WordprocessingML for <w:t> runs. A newline is emitted at
// every </w:p>; blank lines are removed from the result. Nested or malformed
// markup is tolerated, not validated.
func DocxText(xml string) string {
	var (
		out    strings.Builder
		run    strings.Builder
		inText bool
	)

	for i := 0; i < len(xml); {
		c := xml[i]
		if c != '<' {
			if inText {
				run.WriteByte(c)
			}
			i++
			continue
		}

		end := strings.IndexByte(xml[i+1:], '>')
		var tag string
		if end < 0 {
			tag = xml[i+1:]
			i = len(xml)
		} else {
			tag = xml[i+1 : i+1+end]
			i += end + 2
		}

		switch {
		case isTextRunStart(tag):
			inText = true
			run.Reset()
		case tag == "/w:t":
			if inText {
				out.WriteString(html.UnescapeString(run.String()))
			}
			inText = false
		case tag == "/w:p" || strings.HasPrefix(tag, "/w:p "):
			out.WriteByte('\n')
		}
	}

	return cleanLines(out.String())
}

// isTextRunStart matches <w:t> and <w:t xml:space="preserve"> but not
// <w:t/>, <w:tab/> or <w:tbl>.
func isTextRunStart(tag string) bool {
	if !strings.HasPrefix(tag, "w:t") || strings.HasSuffix(tag, "/") {
		return false
	}
	rest := tag[len("w:t"):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '\r'
}
