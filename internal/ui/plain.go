package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// plainStep is the percentage granularity of plain progress lines.
const plainStep = 10

// PlainRenderer outputs plain text progress (for CI/pipes). It prints one
// line per completed tenth of the work rather than one per file.
type PlainRenderer struct {
	mu       sync.Mutex
	out      io.Writer
	stage    Stage
	lastStep int
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output, stage: StageScanning, lastStep: -1}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Stage != r.stage {
		r.stage = event.Stage
		r.lastStep = -1
	}
	if event.Total <= 0 {
		return
	}

	step := event.Current * 100 / event.Total / plainStep
	if step <= r.lastStep {
		return
	}
	r.lastStep = step
	_, _ = fmt.Fprintf(r.out, "[%s] %d/%d files\n", event.Stage.Icon(), event.Current, event.Total)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "[%s] %d files scanned, %d matched in %s",
		StageComplete.Icon(), stats.Scanned, stats.Matched, stats.Duration.Round(time.Millisecond))
	if stats.Skipped > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d skipped)", stats.Skipped)
	}
	_, _ = fmt.Fprintln(r.out)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}
