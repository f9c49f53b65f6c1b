package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRenderer_UpdateProgress_OutputFormat(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: updating progress
	r.UpdateProgress(ProgressEvent{Stage: StageSearching, Current: 50, Total: 100, CurrentFile: "src/main.go"})

	// Then: output is correctly formatted
	assert.Equal(t, "[SEARCH] 50/100 files\n", buf.String())
}

func TestPlainRenderer_UpdateProgress_OneLinePerTenth(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: reporting every file of 100
	for i := 1; i <= 100; i++ {
		r.UpdateProgress(ProgressEvent{Stage: StageSearching, Current: i, Total: 100})
	}

	// Then: the first update and each 10% step print once
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 11)
	assert.Equal(t, "[SEARCH] 1/100 files", lines[0])
	assert.Equal(t, "[SEARCH] 10/100 files", lines[1])
	assert.Equal(t, "[SEARCH] 100/100 files", lines[10])
}

func TestPlainRenderer_UpdateProgress_ZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.UpdateProgress(ProgressEvent{Stage: StageScanning})

	assert.Empty(t, buf.String())
}

func TestPlainRenderer_StageChangeResetsSteps(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.UpdateProgress(ProgressEvent{Stage: StageScanning, Current: 5, Total: 5})
	r.UpdateProgress(ProgressEvent{Stage: StageSearching, Current: 0, Total: 5})

	assert.Contains(t, buf.String(), "[SCAN] 5/5 files")
	assert.Contains(t, buf.String(), "[SEARCH] 0/5 files")
}

func TestPlainRenderer_Complete(t *testing.T) {
	tests := []struct {
		name     string
		stats    CompletionStats
		contains string
		excludes string
	}{
		{
			name:     "without skipped",
			stats:    CompletionStats{Scanned: 12, Matched: 3, Duration: 1500 * time.Millisecond},
			contains: "[DONE] 12 files scanned, 3 matched in 1.5s",
			excludes: "skipped",
		},
		{
			name:     "with skipped",
			stats:    CompletionStats{Scanned: 4, Matched: 1, Skipped: 2, Duration: time.Millisecond},
			contains: "(2 skipped)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			r := NewPlainRenderer(NewConfig(buf))
			require.NoError(t, r.Start(context.Background()))

			r.Complete(tt.stats)
			require.NoError(t, r.Stop())

			assert.Contains(t, buf.String(), tt.contains)
			if tt.excludes != "" {
				assert.NotContains(t, buf.String(), tt.excludes)
			}
			assert.NotContains(t, buf.String(), "\x1b[")
		})
	}
}
