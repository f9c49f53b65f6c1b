package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStage_String(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
		icon  string
	}{
		{StageScanning, "Scanning", "SCAN"},
		{StageSearching, "Searching", "SEARCH"},
		{StageComplete, "Complete", "DONE"},
		{Stage(42), "Unknown", "???"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stage.String())
			assert.Equal(t, tt.icon, tt.stage.Icon())
		})
	}
}

func TestIsTTY_NonTerminals(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))
}

func TestNewConfig_Options(t *testing.T) {
	// Given: default config
	buf := &bytes.Buffer{}
	cfg := NewConfig(buf)

	// Then: has sensible defaults
	assert.NotNil(t, cfg.Output)
	assert.False(t, cfg.ForcePlain)
	assert.False(t, cfg.NoColor)

	// When: applying options
	cfg = NewConfig(buf, WithForcePlain(true), WithNoColor(true), WithDirectory("/src"))

	// Then: they are reflected
	assert.True(t, cfg.ForcePlain)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "/src", cfg.Directory)
}

func TestNewRenderer_NonTTYIsPlain(t *testing.T) {
	r := NewRenderer(NewConfig(&bytes.Buffer{}))

	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestDetectCI(t *testing.T) {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		t.Setenv(v, "")
	}
	// t.Setenv with "" still counts as set.
	assert.True(t, DetectCI())
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestGetStyles_NoColorRendersVerbatim(t *testing.T) {
	styles := GetStyles(true)

	assert.Equal(t, "text", styles.Header.Render("text"))
	assert.Equal(t, "> item", styles.Selected.Render("> item"))
}
