package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpCreate, "CREATE"},
		{OpModify, "MODIFY"},
		{OpDelete, "DELETE"},
		{OpRename, "RENAME"},
		{Operation(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()
	assert.Equal(t, 500*time.Millisecond, opts.Debounce)
	assert.Equal(t, 16, opts.EventBufferSize)

	opts = Options{Debounce: time.Second, EventBufferSize: 2}.WithDefaults()
	assert.Equal(t, time.Second, opts.Debounce)
	assert.Equal(t, 2, opts.EventBufferSize)
}

func TestWatcher_Ignored(t *testing.T) {
	w := &Watcher{opts: Options{Ignore: func(rel string, _ bool) bool { return rel == ".argus_index.json" || rel == "skip.me" }}}

	tests := []struct {
		rel   string
		isDir bool
		want  bool
	}{
		{"notes.txt", false, false},
		{"src/main.go", false, false},
		{"node_modules/pkg/index.js", false, true},
		{"node_modules", true, true},
		{".git/HEAD", false, true},
		{".hidden.txt", false, true},
		{"docs/.secret/a.txt", false, true},
		{"skip.me", false, true},
		{"target", false, false},
		{"", false, true},
		{"../outside.txt", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, w.ignored(tt.rel, tt.isDir))
		})
	}

	w.opts.IncludeHidden = true
	assert.False(t, w.ignored(".hidden.txt", false))
	assert.True(t, w.ignored(".git/HEAD", false))
}

func TestWatcher_IgnoredGitignore(t *testing.T) {
	w := &Watcher{opts: Options{Gitignore: true}}

	assert.False(t, w.ignored(".gitignore", false))
	assert.False(t, w.ignored("src/.gitignore", false))
	assert.True(t, w.ignored(".hidden/.gitignore", false))
	assert.True(t, w.ignored(".gitignore", true))

	w.opts.Gitignore = false
	assert.True(t, w.ignored(".gitignore", false))
}

func startWatcher(t *testing.T, root string, opts Options) *Watcher {
	t.Helper()
	w, err := New(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, root) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	// Let Run register the directories.
	time.Sleep(100 * time.Millisecond)
	return w
}

func nextBatch(t *testing.T, w *Watcher) []FileEvent {
	t.Helper()
	select {
	case batch, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return batch
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for watcher batch")
		return nil
	}
}

func TestWatcher_ReportsFileChanges(t *testing.T) {
	// Given: a watched directory
	root := t.TempDir()
	w := startWatcher(t, root, Options{Debounce: 50 * time.Millisecond})

	// When: a file is created
	require.NoError(t, os.WriteFile(filepath.Join(root, "new.txt"), []byte("hello"), 0o644))

	// Then: a batch mentions it
	batch := nextBatch(t, w)
	require.NotEmpty(t, batch)
	assert.Equal(t, "new.txt", batch[0].Path)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, Options{Debounce: 50 * time.Millisecond})

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	nextBatch(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "inner.txt"), []byte("x"), 0o644))

	var paths []string
	for _, e := range nextBatch(t, w) {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "sub/inner.txt")
}

func TestWatcher_IgnoredPathsProduceNothing(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, Options{
		Debounce: 50 * time.Millisecond,
		Ignore:   func(rel string, _ bool) bool { return rel == "cache.json" },
	})

	require.NoError(t, os.WriteFile(filepath.Join(root, "cache.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0o644))

	select {
	case batch := <-w.Events():
		t.Fatalf("unexpected batch %v", batch)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StopClosesChannels(t *testing.T) {
	w, err := New(DefaultOptions())
	require.NoError(t, err)

	w.Stop()
	w.Stop()

	_, ok := <-w.Events()
	assert.False(t, ok)
	_, ok = <-w.Errors()
	assert.False(t, ok)
}
