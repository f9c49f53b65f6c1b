package search

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// DefaultProgressInterval is the minimum gap between progress callbacks.
const DefaultProgressInterval = 50 * time.Millisecond

// Progress is a snapshot of a running search.
type Progress struct {
	Processed int
	Total     int
	// Path is the file that was just finished.
	Path string
	// Scanning is set on the single update sent before file discovery.
	Scanning bool
}

// Done reports whether every file has been processed.
func (p Progress) Done() bool {
	return !p.Scanning && p.Processed >= p.Total
}

// ProgressFunc receives progress updates. Calls are serialized.
type ProgressFunc func(Progress)

// progressTracker counts processed files and forwards throttled snapshots.
// The final update is never dropped.
type progressTracker struct {
	total     int
	processed atomic.Int64
	fn        ProgressFunc
	limiter   *rate.Limiter
	mu        sync.Mutex
}

func newProgressTracker(total int, fn ProgressFunc, interval time.Duration) *progressTracker {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &progressTracker{
		total:   total,
		fn:      fn,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// advance records one processed file.
func (p *progressTracker) advance(path string) {
	done := p.processed.Add(1)
	if p.fn == nil {
		return
	}
	if int(done) < p.total && !p.limiter.Allow() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.fn(Progress{Processed: int(p.processed.Load()), Total: p.total, Path: path})
}

func (p *progressTracker) count() int {
	return int(p.processed.Load())
}
