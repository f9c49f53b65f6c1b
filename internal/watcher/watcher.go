package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aman-CERP/argus/internal/scanner"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
	// OpRename indicates a file or directory was renamed away.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a file system event.
type FileEvent struct {
	// Path is relative to the watched root, slash separated.
	Path      string
	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// IgnoreFunc reports whether a root-relative path should produce no events.
type IgnoreFunc func(relPath string, isDir bool) bool

// Options configures the watcher behavior.
type Options struct {
	// Debounce is the quiet period before a batch is emitted.
	Debounce time.Duration

	// EventBufferSize is the capacity of the batch channel.
	EventBufferSize int

	// IncludeHidden watches dot files and directories.
	IncludeHidden bool

	// Gitignore reports .gitignore changes even when hidden files are
	// excluded.
	Gitignore bool

	// Ignore filters additional paths, e.g. the cache file.
	Ignore IgnoreFunc
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		Debounce:        500 * time.Millisecond,
		EventBufferSize: 16,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.Debounce <= 0 {
		o.Debounce = defaults.Debounce
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}

// Watcher watches a directory tree with fsnotify.
type Watcher struct {
	fs        *fsnotify.Watcher
	debouncer *Debouncer
	opts      Options
	root      string

	events chan []FileEvent
	errors chan error

	mu             sync.RWMutex
	stopped        bool
	stopOnce       sync.Once
	droppedBatches atomic.Uint64
}

// New creates a watcher. Call Run to start it.
func New(opts Options) (*Watcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		fs:        fsw,
		debouncer: NewDebouncer(opts.Debounce),
		opts:      opts,
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
	}, nil
}

// Run watches root until ctx is cancelled or Stop is called. The Events and
// Errors channels are closed when Run returns.
func (w *Watcher) Run(ctx context.Context, root string) error {
	defer w.Stop()

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	w.root = abs

	if err := w.addRecursive(abs); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		w.forward()
	}()
	defer func() {
		w.Stop()
		<-forwardDone
	}()

	slog.Debug("watcher_started", slog.String("root", abs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// handle converts, filters and queues one fsnotify event.
func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}
	if w.ignored(rel, isDir) {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir {
			if err := w.addRecursive(event.Name); err != nil {
				w.emitError(err)
			}
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// chmod only
		return
	}

	w.debouncer.Add(FileEvent{Path: rel, Operation: op, IsDir: isDir, Timestamp: time.Now()})
}

// ignored applies the scanner's directory skip list, the hidden-file rule
// and the caller's filter to every path component.
func (w *Watcher) ignored(rel string, isDir bool) bool {
	if rel == "." || rel == "" || strings.HasPrefix(rel, "../") {
		return true
	}
	parts := strings.Split(rel, "/")
	for i, part := range parts {
		last := i == len(parts)-1
		if (!last || isDir) && scanner.IsSkippedDir(part) {
			return true
		}
		if !w.opts.IncludeHidden && strings.HasPrefix(part, ".") {
			if last && !isDir && w.opts.Gitignore && part == ".gitignore" {
				continue
			}
			return true
		}
	}
	return w.opts.Ignore != nil && w.opts.Ignore(rel, isDir)
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(w.root, path)
		if rel != "." && w.ignored(filepath.ToSlash(rel), true) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			// The directory may already be gone.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		return nil
	})
}

func (w *Watcher) forward() {
	for batch := range w.debouncer.Output() {
		w.emitEvents(batch)
	}
}

func (w *Watcher) emitEvents(batch []FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.events <- batch:
	default:
		count := w.droppedBatches.Add(1)
		slog.Warn("watch_batch_dropped",
			slog.Int("batch_size", len(batch)),
			slog.Uint64("total_dropped_batches", count))
	}
}

func (w *Watcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.errors <- err:
	default:
	}
}

// Stop releases resources and closes the channels. Safe to call multiple
// times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.debouncer.Stop()
		_ = w.fs.Close()

		w.mu.Lock()
		w.stopped = true
		close(w.events)
		close(w.errors)
		w.mu.Unlock()
	})
}

// Events returns the channel of debounced event batches.
func (w *Watcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns the channel of non-fatal watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// DroppedBatches returns the number of batches dropped because the consumer
// fell behind.
func (w *Watcher) DroppedBatches() uint64 {
	return w.droppedBatches.Load()
}
