package ui

import (
	"sync"
	"time"
)

const (
	// speedInterval is the minimum gap between throughput samples.
	speedInterval = 500 * time.Millisecond

	// speedSmoothing weights a new throughput sample in the running average.
	speedSmoothing = 0.2

	// etaSmoothing weights a new ETA estimate against the previous one.
	etaSmoothing = 0.3
)

// ProgressTracker holds progress state for the TUI. It is safe for
// concurrent use.
type ProgressTracker struct {
	mu          sync.RWMutex
	stage       Stage
	current     int
	total       int
	currentFile string
	stageStart  time.Time
	lastETA     time.Duration

	lastCurrent int
	lastSample  time.Time
	speed       float64
	avgSpeed    float64
	samples     int
}

// ProgressStats is a snapshot of the tracker.
type ProgressStats struct {
	Stage       Stage
	Current     int
	Total       int
	Progress    float64
	ETA         time.Duration
	CurrentFile string
	// Speed and AvgSpeed are in files per second.
	Speed    float64
	AvgSpeed float64
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{stage: StageScanning, stageStart: now, lastSample: now}
}

// SetStage transitions to a new stage and resets counters.
func (p *ProgressTracker) SetStage(stage Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.stage = stage
	p.total = total
	p.current = 0
	p.currentFile = ""
	p.stageStart = now
	p.lastETA = 0
	p.lastCurrent = 0
	p.lastSample = now
	p.speed = 0
	p.avgSpeed = 0
	p.samples = 0
}

// Update records progress within the current stage.
func (p *ProgressTracker) Update(current, total int, file string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	if total > 0 {
		p.total = total
	}
	if file != "" {
		p.currentFile = file
	}
	p.sample(time.Now())
}

// sample updates throughput; callers hold the lock.
func (p *ProgressTracker) sample(now time.Time) {
	elapsed := now.Sub(p.lastSample)
	if elapsed < speedInterval {
		return
	}
	if delta := p.current - p.lastCurrent; delta > 0 {
		p.speed = float64(delta) / elapsed.Seconds()
		p.samples++
		if p.samples == 1 {
			p.avgSpeed = p.speed
		} else {
			p.avgSpeed = speedSmoothing*p.speed + (1-speedSmoothing)*p.avgSpeed
		}
	}
	p.lastCurrent = p.current
	p.lastSample = now
}

// Progress returns completion in [0, 1].
func (p *ProgressTracker) Progress() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.progress()
}

func (p *ProgressTracker) progress() float64 {
	if p.total == 0 {
		return 0
	}
	return min(float64(p.current)/float64(p.total), 1)
}

// Stats returns a snapshot. It takes the write lock because the ETA is
// smoothed against the previous estimate.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return ProgressStats{
		Stage:       p.stage,
		Current:     p.current,
		Total:       p.total,
		Progress:    p.progress(),
		ETA:         p.eta(),
		CurrentFile: p.currentFile,
		Speed:       p.speed,
		AvgSpeed:    p.avgSpeed,
	}
}

func (p *ProgressTracker) eta() time.Duration {
	progress := p.progress()
	if p.current == 0 || progress <= 0 || progress >= 1 {
		return 0
	}

	elapsed := time.Since(p.stageStart)
	remaining := time.Duration(float64(elapsed)/progress) - elapsed
	if remaining < 0 {
		return 0
	}
	if p.lastETA == 0 {
		p.lastETA = remaining
		return remaining
	}
	p.lastETA = time.Duration(etaSmoothing*float64(remaining) + (1-etaSmoothing)*float64(p.lastETA))
	return p.lastETA
}
