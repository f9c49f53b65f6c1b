package watcher

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Debouncer coalesces events per path and emits them as one batch once no
// event has arrived for the window. Merging follows the first and latest
// operation for a path:
//   - CREATE then MODIFY stays CREATE
//   - CREATE then DELETE cancels out
//   - DELETE then CREATE becomes MODIFY
//   - otherwise the latest operation wins
type Debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	pending map[string]pendingEvent
	timer   *time.Timer
	output  chan []FileEvent
	stopped bool
}

type pendingEvent struct {
	first Operation
	event FileEvent
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]pendingEvent),
		output:  make(chan []FileEvent, 10),
	}
}

// Add queues an event and restarts the quiet window.
func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if prev, ok := d.pending[event.Path]; ok {
		merged, keep := merge(prev, event)
		if keep {
			d.pending[event.Path] = merged
		} else {
			delete(d.pending, event.Path)
		}
	} else {
		d.pending[event.Path] = pendingEvent{first: event.Operation, event: event}
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// merge folds next into prev. keep is false when the two cancel out.
func merge(prev pendingEvent, next FileEvent) (pendingEvent, bool) {
	switch {
	case prev.first == OpCreate && next.Operation == OpDelete:
		return pendingEvent{}, false
	case prev.first == OpCreate && next.Operation == OpModify:
		prev.event.Timestamp = next.Timestamp
		return prev, true
	case prev.first == OpDelete && next.Operation == OpCreate:
		next.Operation = OpModify
		return pendingEvent{first: OpModify, event: next}, true
	default:
		prev.event = next
		return prev, true
	}
}

// flush emits pending events sorted by path.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	batch := make([]FileEvent, 0, len(d.pending))
	for _, p := range d.pending {
		batch = append(batch, p.event)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	d.pending = make(map[string]pendingEvent)

	select {
	case d.output <- batch:
	default:
		slog.Warn("debouncer_output_full", slog.Int("batch_size", len(batch)))
	}
}

// Pending returns the number of paths waiting for the window to close.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Output returns the channel of batches. It is closed by Stop.
func (d *Debouncer) Output() <-chan []FileEvent {
	return d.output
}

// Stop discards pending events and closes the output channel. Safe to call
// multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
