// Package ocr recognizes text in raster images.
//
// Three engines are available: libtesseract bound at runtime through purego,
// the tesseract command-line tool, and an Unavailable engine that always
// fails. Engines are not safe for concurrent use; give each worker its own
// Handle.
package ocr

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable is returned when no OCR backend can be used.
var ErrUnavailable = errors.New("OCR not available")

// Engine recognizes text in an image file.
type Engine interface {
	// Recognize returns the cleaned text found in the image at imagePath.
	Recognize(ctx context.Context, imagePath string) (string, error)
	// Close releases engine resources.
	Close() error
}

// Unavailable is an Engine that fails every call with ErrUnavailable.
type Unavailable struct {
	// Reason optionally explains why no backend was found.
	Reason string
}

// Recognize always fails.
func (u Unavailable) Recognize(_ context.Context, _ string) (string, error) {
	if u.Reason != "" {
		return "", &unavailableError{reason: u.Reason}
	}
	return "", ErrUnavailable
}

// Close is a no-op.
func (Unavailable) Close() error { return nil }

type unavailableError struct {
	reason string
}

func (e *unavailableError) Error() string { return ErrUnavailable.Error() + ": " + e.reason }
func (e *unavailableError) Unwrap() error { return ErrUnavailable }

// Clean trims each line of raw OCR output and drops blank lines.
func Clean(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
