package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultCLITimeout bounds a single tesseract invocation.
const DefaultCLITimeout = 2 * time.Minute

// CommandRunner runs an external command and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements CommandRunner. Stderr is folded into the returned error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// TesseractCLI is an Engine that shells out to the tesseract executable.
type TesseractCLI struct {
	Binary   string
	Language string
	DataPath string
	Timeout  time.Duration
	Runner   CommandRunner
}

// NewTesseractCLI locates the tesseract binary on PATH.
func NewTesseractCLI(language, dataPath string) (*TesseractCLI, error) {
	bin, err := exec.LookPath("tesseract")
	if err != nil {
		return nil, fmt.Errorf("tesseract executable not found: %w", err)
	}
	return &TesseractCLI{
		Binary:   bin,
		Language: language,
		DataPath: dataPath,
		Timeout:  DefaultCLITimeout,
		Runner:   ExecRunner{},
	}, nil
}

// Args returns the command-line arguments used to recognize imagePath.
func (t *TesseractCLI) Args(imagePath string) []string {
	args := []string{imagePath, "stdout"}
	if t.Language != "" {
		args = append(args, "-l", t.Language)
	}
	if t.DataPath != "" {
		args = append(args, "--tessdata-dir", t.DataPath)
	}
	return args
}

// Recognize implements Engine.
func (t *TesseractCLI) Recognize(ctx context.Context, imagePath string) (string, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	runner := t.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	bin := t.Binary
	if bin == "" {
		bin = "tesseract"
	}

	out, err := runner.Run(ctx, bin, t.Args(imagePath)...)
	if err != nil {
		return "", fmt.Errorf("OCR extraction failed: %w", err)
	}
	return Clean(string(out)), nil
}

// Close is a no-op.
func (*TesseractCLI) Close() error { return nil }
