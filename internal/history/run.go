// Package history records completed search runs in a local SQLite database.
// Nothing leaves the machine.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/argus/internal/model"
)

// Run is one completed search.
type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Directory string    `json:"directory"`
	Pattern   string    `json:"pattern"`

	Regex         bool `json:"regex"`
	CaseSensitive bool `json:"case_sensitive"`
	OCR           bool `json:"ocr"`

	FilesScanned int `json:"files_scanned"`
	FilesMatched int `json:"files_matched"`
	TotalMatches int `json:"total_matches"`
	FilesSkipped int `json:"files_skipped"`

	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	CacheState string        `json:"cache_state"`
}

// NewRun builds a Run from the statistics of a finished search. The ID is a
// fresh random UUID.
func NewRun(pattern, directory string, startedAt time.Time, stats model.RunStatistics) Run {
	return Run{
		ID:           uuid.NewString(),
		StartedAt:    startedAt,
		Directory:    directory,
		Pattern:      pattern,
		FilesScanned: stats.FilesScanned,
		FilesMatched: stats.FilesMatched,
		TotalMatches: stats.TotalMatches,
		FilesSkipped: stats.FilesSkipped,
		Duration:     stats.Duration,
		DurationMS:   stats.Duration.Milliseconds(),
	}
}

// IsZeroResult reports whether the run matched nothing.
func (r Run) IsZeroResult() bool {
	return r.FilesMatched == 0
}

// LatencyBucket is a coarse run duration class.
type LatencyBucket string

const (
	BucketUnder100ms LatencyBucket = "<100ms"
	BucketUnder1s    LatencyBucket = "100ms-1s"
	BucketUnder10s   LatencyBucket = "1s-10s"
	BucketOver10s    LatencyBucket = ">=10s"
)

// Buckets lists every LatencyBucket from fastest to slowest.
var Buckets = []LatencyBucket{BucketUnder100ms, BucketUnder1s, BucketUnder10s, BucketOver10s}

// LatencyToBucket converts a duration to its bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < 100*time.Millisecond:
		return BucketUnder100ms
	case d < time.Second:
		return BucketUnder1s
	case d < 10*time.Second:
		return BucketUnder10s
	default:
		return BucketOver10s
	}
}

// PatternCount is how often a pattern was searched.
type PatternCount struct {
	Pattern string    `json:"pattern"`
	Count   int64     `json:"count"`
	LastRun time.Time `json:"last_run"`
}

// Summary aggregates the stored runs.
type Summary struct {
	Runs        int64                   `json:"runs"`
	ZeroResults int64                   `json:"zero_results"`
	ByLatency   map[LatencyBucket]int64 `json:"by_latency"`
	TopPatterns []PatternCount          `json:"top_patterns"`
}
