package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every per-user location (config, logs, history) at a
// temp directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("ARGUS_HISTORY_PATH", filepath.Join(home, "history.db"))
	t.Setenv("NO_COLOR", "1")
	return home
}

func createTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	_ = stopProfilingAndLogging(root, nil)
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"search", "cache", "watch", "history", "serve", "config", "version", "logs", "doctor"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := root.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"debug", "profile-cpu", "profile-mem", "profile-trace"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_NoArgsPrintsHelp(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t)

	require.NoError(t, err)
	assert.Contains(t, stdout, "argus [pattern]")
}

func TestRootCmd_PatternIsSearchShorthand(t *testing.T) {
	// Given: a tree with one matching file
	isolate(t)
	dir := createTree(t, map[string]string{"notes.txt": "find the needle\n"})

	// When: the pattern is given without the search subcommand
	stdout, _, err := execute(t, "needle", "-d", dir, "-n", "--no-history")

	// Then: the search ran
	require.NoError(t, err)
	assert.Contains(t, stdout, "notes.txt")
}

func TestRootCmd_Profiling(t *testing.T) {
	isolate(t)
	dir := createTree(t, map[string]string{"a.txt": "x\n"})
	cpu := filepath.Join(t.TempDir(), "cpu.prof")

	_, _, err := execute(t, "search", "x", "-d", dir, "-n", "--no-history", "--profile-cpu", cpu)

	require.NoError(t, err)
	info, err := os.Stat(cpu)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRootCmd_DebugWritesLogFile(t *testing.T) {
	home := isolate(t)
	dir := createTree(t, map[string]string{"a.txt": "x\n"})

	_, _, err := execute(t, "search", "x", "-d", dir, "-n", "--no-history", "--debug")

	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(home, ".argus", "logs", "argus.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "search_started")
}
