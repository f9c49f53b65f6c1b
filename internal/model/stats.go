package model

import "time"

// RunStatistics accumulates counters for one search run.
// It is owned by the orchestrator and must be treated as read-only once the
// run has completed.
type RunStatistics struct {
	FilesScanned int `json:"files_scanned"`
	FilesMatched int `json:"files_matched"`
	TotalMatches int `json:"total_matches"`
	// FilesSkipped counts files whose extraction failed.
	FilesSkipped int `json:"files_skipped"`
	// ByCategory counts matched files per category.
	ByCategory map[Category]int `json:"by_category"`
	Duration   time.Duration    `json:"duration_ns"`
}

// NewRunStatistics returns zeroed statistics.
func NewRunStatistics() RunStatistics {
	return RunStatistics{ByCategory: make(map[Category]int)}
}

// Record folds one processed file into the statistics. A nil result means the
// file was scanned but produced neither matches nor a failure.
func (s *RunStatistics) Record(result *FileResult) {
	s.FilesScanned++
	if result == nil {
		return
	}
	if result.Failed() {
		s.FilesSkipped++
		return
	}
	if n := result.MatchCount(); n > 0 {
		s.FilesMatched++
		s.TotalMatches += n
		if s.ByCategory == nil {
			s.ByCategory = make(map[Category]int)
		}
		s.ByCategory[result.Category]++
	}
}

// DurationMillis returns the run duration in milliseconds.
func (s RunStatistics) DurationMillis() int64 {
	return s.Duration.Milliseconds()
}
