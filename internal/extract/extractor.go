// Package extract turns files of every supported category into searchable
// plain text.
//
// Extraction never returns an error: every failure is reported as an Outcome
// carrying a FailureKind and a human-readable reason, so one bad file cannot
// abort a search run.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"

	argerr "github.com/Aman-CERP/argus/internal/errors"
	"github.com/Aman-CERP/argus/internal/model"
	"github.com/Aman-CERP/argus/internal/ocr"
)

// Limits applied when no option overrides them.
const (
	DefaultMaxFileSize         int64 = 50 * 1024 * 1024
	DefaultMaxLines                  = 100_000
	DefaultScannedPDFThreshold       = 100
)

// FailureKind classifies why extraction failed.
type FailureKind string

const (
	KindNone             FailureKind = ""
	KindFileTooLarge     FailureKind = "file-too-large"
	KindOpenFailure      FailureKind = "open-failure"
	KindDecodeFailure    FailureKind = "decode-failure"
	KindParseFailure     FailureKind = "parse-failure"
	KindOCRUnavailable   FailureKind = "ocr-unavailable"
	KindOCREngineFailure FailureKind = "ocr-engine-failure"
	KindNoExtractable    FailureKind = "no-extractable-text"
)

func (k FailureKind) String() string {
	if k == KindNone {
		return "none"
	}
	return string(k)
}

// Code returns the structured error code logged for a failure of this kind.
func (k FailureKind) Code() string {
	switch k {
	case KindNone:
		return ""
	case KindOCRUnavailable:
		return argerr.ErrCodeOCRUnavailable
	case KindOCREngineFailure:
		return argerr.ErrCodeOCRFailed
	default:
		return argerr.ErrCodeExtractionFailed
	}
}

// Outcome is the result of one extraction attempt. Text is empty whenever
// Succeeded is false.
type Outcome struct {
	Text          string
	Succeeded     bool
	FailureReason string
	Kind          FailureKind
}

// Success returns a successful outcome.
func Success(text string) Outcome {
	return Outcome{Text: text, Succeeded: true}
}

// Failure returns a failed outcome with a formatted reason.
func Failure(kind FailureKind, format string, args ...any) Outcome {
	return Outcome{Kind: kind, FailureReason: fmt.Sprintf(format, args...)}
}

// Recognizer is the OCR capability used for images and scanned PDFs.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithOCR sets the recognizer used when OCR is enabled.
func WithOCR(r Recognizer) Option {
	return func(e *Extractor) { e.ocr = r }
}

// WithScannedPDFThreshold sets the character count below which a PDF's text
// layer is considered too sparse and OCR fallback is attempted.
func WithScannedPDFThreshold(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.scannedThreshold = n
		}
	}
}

// WithMaxFileSize overrides the file size cap.
func WithMaxFileSize(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxFileSize = n
		}
	}
}

// WithMaxLines overrides the per-file line cap for text files.
func WithMaxLines(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxLines = n
		}
	}
}

// WithWorkDir sets where temporary images for PDF OCR are written.
func WithWorkDir(dir string) Option {
	return func(e *Extractor) { e.workDir = dir }
}

// Extractor dispatches files to the strategy for their category. An
// Extractor holding a recognizer belongs to one worker.
type Extractor struct {
	ocr              Recognizer
	scannedThreshold int
	maxFileSize      int64
	maxLines         int
	workDir          string
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		scannedThreshold: DefaultScannedPDFThreshold,
		maxFileSize:      DefaultMaxFileSize,
		maxLines:         DefaultMaxLines,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the text of the file at path according to category.
func (e *Extractor) Extract(ctx context.Context, path string, category model.Category, ocrEnabled bool) Outcome {
	if info, err := os.Stat(path); err == nil && info.Size() > e.maxFileSize {
		return Failure(KindFileTooLarge, "File too large: %d bytes (max: %d bytes)", info.Size(), e.maxFileSize)
	}

	switch category {
	case model.CategoryPDF:
		return e.extractPDF(ctx, path, ocrEnabled)
	case model.CategoryDocx:
		return e.extractDocx(path)
	case model.CategoryImage:
		if !ocrEnabled {
			return Failure(KindOCRUnavailable, "OCR not enabled for images")
		}
		return e.extractImage(ctx, path)
	default:
		return e.extractText(path)
	}
}

func (e *Extractor) extractImage(ctx context.Context, path string) Outcome {
	if e.ocr == nil {
		return Failure(KindOCRUnavailable, "%s", ocr.ErrUnavailable)
	}
	text, err := e.ocr.Recognize(ctx, path)
	if err != nil {
		return ocrFailure(err)
	}
	return Success(ocr.Clean(text))
}

func ocrFailure(err error) Outcome {
	if errors.Is(err, ocr.ErrUnavailable) {
		return Failure(KindOCRUnavailable, "%v", err)
	}
	return Failure(KindOCREngineFailure, "%v", err)
}
