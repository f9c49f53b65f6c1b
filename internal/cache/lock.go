package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// fileLock serializes writers of one cache file across processes, e.g. a
// watch loop and a one-off search saving into the same root.
// The lock file lives next to the cache at <path>.lock.
type fileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

func newFileLock(cachePath string) *fileLock {
	lockPath := cachePath + ".lock"
	return &fileLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock blocks until the exclusive lock is held.
func (l *fileLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire cache lock: %w", err)
	}
	l.locked = true
	return nil
}

// Unlock releases the lock; calling it when not locked is a no-op.
func (l *fileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release cache lock: %w", err)
	}
	return nil
}
