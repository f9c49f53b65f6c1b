//go:build !darwin && !linux

package ocr

import (
	"context"
	"fmt"
	"runtime"
)

// TesseractLib is unavailable on this platform.
type TesseractLib struct{}

// NewTesseractLib always fails outside darwin and linux.
func NewTesseractLib(_, _ string) (*TesseractLib, error) {
	return nil, fmt.Errorf("libtesseract binding unsupported on %s", runtime.GOOS)
}

// Recognize implements Engine.
func (*TesseractLib) Recognize(_ context.Context, _ string) (string, error) {
	return "", ErrUnavailable
}

// Close implements Engine.
func (*TesseractLib) Close() error { return nil }
