package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/Aman-CERP/argus/internal/ocr"
	"github.com/Aman-CERP/argus/internal/pdfimage"
)

func (e *Extractor) extractPDF(ctx context.Context, path string, ocrEnabled bool) Outcome {
	data, err := os.ReadFile(path)
	if err != nil {
		return Failure(KindOpenFailure, "Failed to open file: %v", err)
	}

	layer, parseErr := pdfTextLayer(data)
	cleaned := cleanLines(layer)

	if !ocrEnabled {
		if parseErr != nil {
			return Failure(KindParseFailure, "Failed to extract PDF text: %v", parseErr)
		}
		return Success(cleaned)
	}
	if utf8.RuneCountInString(cleaned) >= e.scannedThreshold {
		return Success(cleaned)
	}

	if e.ocr == nil {
		if cleaned != "" {
			return Success(cleaned)
		}
		return Failure(KindOCRUnavailable, "PDF has no text layer and %v", ocr.ErrUnavailable)
	}

	recovered, recErr := pdfimage.Recover(ctx, data, e.ocr, e.workDir)
	if recErr != nil {
		slog.Debug("pdf_ocr_fallback_empty", slog.String("path", path), slog.String("error", recErr.Error()))
		if cleaned != "" {
			return Success(cleaned)
		}
		if parseErr != nil {
			return Failure(KindNoExtractable, "No extractable text: %v; %v", parseErr, recErr)
		}
		return Failure(KindNoExtractable, "No extractable text: %v", recErr)
	}

	if cleaned == "" {
		return Success(recovered)
	}
	return Success(cleaned + "\n\n" + recovered)
}

// pdfTextLayer returns the PDF's text layer, one output line per text row.
// The parser panics on some malformed files; each page is guarded.
func pdfTextLayer(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		func() {
			defer func() { _ = recover() }()
			page := reader.Page(i)
			if page.V.IsNull() {
				return
			}

			rows, rowErr := page.GetTextByRow()
			if rowErr == nil {
				for _, row := range rows {
					for _, t := range row.Content {
						b.WriteString(t.S)
					}
					b.WriteByte('\n')
				}
				return
			}

			for _, t := range page.Content().Text {
				b.WriteString(t.S)
			}
			b.WriteByte('\n')
		}()
	}
	return b.String(), nil
}
