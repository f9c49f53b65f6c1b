package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config at an empty temp dir and clears ARGUS_*
// variables the tests touch.
func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	for _, key := range []string{
		"ARGUS_LIMIT", "ARGUS_WORKERS", "ARGUS_MAX_DEPTH", "ARGUS_GITIGNORE", "ARGUS_HIDDEN",
		"ARGUS_CACHE_FILE", "ARGUS_OCR", "ARGUS_OCR_BACKEND", "ARGUS_OCR_LANGUAGE",
		"ARGUS_OCR_DATAPATH", "ARGUS_SCANNED_PDF_THRESHOLD", "TESSDATA_PREFIX",
		"ARGUS_HISTORY", "ARGUS_HISTORY_PATH", "ARGUS_WATCH_DEBOUNCE", "ARGUS_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	return xdg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// =============================================================================
// Defaults
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)
	assert.Equal(t, 20, cfg.Search.Limit)
	assert.Equal(t, runtime.NumCPU(), cfg.Search.Workers)
	assert.False(t, cfg.Search.RespectGitignore)
	assert.False(t, cfg.Cache.Save)
	assert.False(t, cfg.Cache.Use)
	assert.False(t, cfg.OCR.Enabled)
	assert.Equal(t, "auto", cfg.OCR.Backend)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 100, cfg.OCR.ScannedPDFThreshold)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "history.db", filepath.Base(cfg.History.Path))
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.DebounceDuration())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFiles_ReturnsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search, cfg.Search)
	assert.Empty(t, cfg.Sources)
}

// =============================================================================
// Layering
// =============================================================================

func TestLoad_ProjectYAMLOverridesDefaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	// Given: a project config setting a few keys
	writeFile(t, filepath.Join(dir, ".argus.yaml"), `
search:
  limit: 5
  regex: true
  extensions: [go, md]
ocr:
  enabled: true
`)

	// When: loading
	cfg, err := Load(dir)

	// Then: set keys change, absent keys keep their defaults
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Search.Limit)
	assert.True(t, cfg.Search.Regex)
	assert.Equal(t, []string{"go", "md"}, cfg.Search.Extensions)
	assert.True(t, cfg.OCR.Enabled)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, runtime.NumCPU(), cfg.Search.Workers)
	assert.Equal(t, []string{filepath.Join(dir, ".argus.yaml")}, cfg.Sources)
}

func TestLoad_ProjectTOML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".argus.toml"), `
log_level = "debug"

[cache]
save = true
file = "idx.json"

[watch]
debounce = "1s"
`)

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Cache.Save)
	assert.Equal(t, "idx.json", cfg.Cache.File)
	assert.Equal(t, time.Second, cfg.Watch.DebounceDuration())
}

func TestLoad_UserThenProject(t *testing.T) {
	xdg := isolate(t)
	dir := t.TempDir()

	// Given: user config sets limit and language, project overrides limit
	userPath := filepath.Join(xdg, "argus", "config.yaml")
	writeFile(t, userPath, "search:\n  limit: 50\nocr:\n  language: deu\n")
	projectPath := filepath.Join(dir, ".argus.yml")
	writeFile(t, projectPath, "search:\n  limit: 7\n")

	cfg, err := Load(dir)

	// Then: project wins on limit, user value survives elsewhere
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.Limit)
	assert.Equal(t, "deu", cfg.OCR.Language)
	assert.Equal(t, []string{userPath, projectPath}, cfg.Sources)
}

func TestLoad_ProjectFilePrecedence(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".argus.yaml"), "search:\n  limit: 1\n")
	writeFile(t, filepath.Join(dir, ".argus.toml"), "[search]\nlimit = 2\n")

	assert.Equal(t, filepath.Join(dir, ".argus.yaml"), FindProjectConfig(dir))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Search.Limit)
}

func TestLoad_EmptyFileIsAccepted(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".argus.yaml"), "\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Search.Limit)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"malformed yaml", ".argus.yaml", "search: [unclosed"},
		{"unknown yaml key", ".argus.yaml", "search:\n  bogus: 1\n"},
		{"malformed toml", ".argus.toml", "[search\nlimit = 1"},
		{"negative limit", ".argus.yaml", "search:\n  limit: -1\n"},
		{"bad backend", ".argus.yaml", "ocr:\n  backend: magic\n"},
		{"bad log level", ".argus.yaml", "log_level: loud\n"},
		{"bad debounce", ".argus.yaml", "watch:\n  debounce: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, tt.file), tt.content)

			_, err := Load(dir)

			assert.Error(t, err)
		})
	}
}

// =============================================================================
// Environment overrides
// =============================================================================

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".argus.yaml"), "search:\n  limit: 5\n")

	// Given: env variables for several sections
	t.Setenv("ARGUS_LIMIT", "9")
	t.Setenv("ARGUS_WORKERS", "3")
	t.Setenv("ARGUS_OCR", "true")
	t.Setenv("ARGUS_OCR_BACKEND", "cli")
	t.Setenv("ARGUS_HISTORY", "false")
	t.Setenv("ARGUS_LOG_LEVEL", "warn")
	t.Setenv("ARGUS_WATCH_DEBOUNCE", "2s")

	cfg, err := Load(dir)

	// Then: env beats the project file
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Search.Limit)
	assert.Equal(t, 3, cfg.Search.Workers)
	assert.True(t, cfg.OCR.Enabled)
	assert.Equal(t, "cli", cfg.OCR.Backend)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.Watch.DebounceDuration())
}

func TestLoad_EnvIgnoresUnparseable(t *testing.T) {
	isolate(t)
	t.Setenv("ARGUS_LIMIT", "lots")
	t.Setenv("ARGUS_OCR", "maybe")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Search.Limit)
	assert.False(t, cfg.OCR.Enabled)
}

func TestLoad_TessdataPrefixFallback(t *testing.T) {
	isolate(t)
	t.Setenv("TESSDATA_PREFIX", "/usr/share/tessdata")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/usr/share/tessdata", cfg.OCR.DataPath)

	t.Setenv("ARGUS_OCR_DATAPATH", "/opt/tessdata")
	cfg, err = Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/opt/tessdata", cfg.OCR.DataPath)
}

// =============================================================================
// Paths and writing
// =============================================================================

func TestGetUserConfigPath(t *testing.T) {
	xdg := isolate(t)

	// Given: nothing on disk, the yaml path is reported
	assert.Equal(t, filepath.Join(xdg, "argus", "config.yaml"), GetUserConfigPath())

	// When: only a toml file exists
	tomlPath := filepath.Join(xdg, "argus", "config.toml")
	writeFile(t, tomlPath, "log_level = \"info\"\n")

	// Then: it is picked up
	assert.Equal(t, tomlPath, GetUserConfigPath())
}

func TestWriteFile_RoundTrip(t *testing.T) {
	isolate(t)

	for _, name := range []string{".argus.yaml", ".argus.toml"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := NewConfig()
			cfg.Search.Limit = 3
			cfg.Search.Extensions = []string{"txt"}
			cfg.OCR.Enabled = true

			require.NoError(t, cfg.WriteFile(filepath.Join(dir, name)))

			loaded, err := Load(dir)
			require.NoError(t, err)
			assert.Equal(t, 3, loaded.Search.Limit)
			assert.Equal(t, []string{"txt"}, loaded.Search.Extensions)
			assert.True(t, loaded.OCR.Enabled)
		})
	}
}

func TestMarshal_OmitsSources(t *testing.T) {
	cfg := NewConfig()
	cfg.Sources = []string{"/somewhere/.argus.yaml"}

	data, err := cfg.Marshal("yaml")

	require.NoError(t, err)
	assert.Contains(t, string(data), "search:")
	assert.NotContains(t, string(data), "somewhere")
}

// =============================================================================
// Backups
// =============================================================================

func TestBackupFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".argus.yaml")

	t.Run("missing file", func(t *testing.T) {
		backup, err := BackupFile(path)
		require.NoError(t, err)
		assert.Empty(t, backup)
	})

	t.Run("copies content", func(t *testing.T) {
		writeFile(t, path, "search:\n  limit: 4\n")

		backup, err := BackupFile(path)

		require.NoError(t, err)
		data, err := os.ReadFile(backup)
		require.NoError(t, err)
		assert.Equal(t, "search:\n  limit: 4\n", string(data))
		assert.Contains(t, filepath.Base(backup), ".argus.yaml"+BackupSuffix+".")
	})
}

func TestBackupFile_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".argus.yaml")
	writeFile(t, path, "log_level: info\n")

	// Given: older backups already on disk
	for _, stamp := range []string{"20240101-000000", "20240102-000000", "20240103-000000", "20240104-000000"} {
		writeFile(t, path+BackupSuffix+"."+stamp, "old")
	}

	// When: a new backup is taken
	newest, err := BackupFile(path)
	require.NoError(t, err)

	// Then: only MaxBackups remain, newest first
	backups, err := ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, MaxBackups)
	assert.Equal(t, newest, backups[0])
	assert.Equal(t, path+BackupSuffix+".20240104-000000", backups[1])
	assert.Equal(t, path+BackupSuffix+".20240103-000000", backups[2])
}

func TestRestoreBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".argus.yaml")
	backup := path + BackupSuffix + ".20240101-000000"
	writeFile(t, backup, "search:\n  limit: 1\n")
	writeFile(t, path, "search:\n  limit: 2\n")

	require.NoError(t, RestoreBackup(backup, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "search:\n  limit: 1\n", string(data))

	backups, err := ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

func TestRestoreBackup_MissingBackup(t *testing.T) {
	dir := t.TempDir()
	err := RestoreBackup(filepath.Join(dir, "nope"), filepath.Join(dir, ".argus.yaml"))
	assert.Error(t, err)
}
