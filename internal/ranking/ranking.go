// Package ranking scores matching files and orders search results.
package ranking

import (
	"math"
	"sort"

	"github.com/Aman-CERP/argus/internal/model"
)

const (
	// matchWeight and densityWeight must sum to 1.
	matchWeight   = 0.7
	densityWeight = 0.3

	maxMatchScore = 5.0
	maxDensity    = 10.0

	// emptyFileDensity is used when the file size is unknown or zero.
	emptyFileDensity = 0.5
)

// Confidence returns a relevance score in [0, 1] for a file with matchCount
// matches and the given size. Files without matches score 0.
func Confidence(matchCount int, sizeBytes int64) float64 {
	if matchCount <= 0 {
		return 0
	}

	n := float64(matchCount)
	matchScore := math.Min(math.Log(n)+1, maxMatchScore) / maxMatchScore

	density := emptyFileDensity
	if sizeKB := float64(sizeBytes) / 1024; sizeKB > 0 {
		density = math.Min(n/sizeKB, maxDensity) / maxDensity
	}

	score := matchWeight*matchScore + densityWeight*density
	return math.Max(0, math.Min(1, score))
}

// Score fills in the confidence of r from its matches and size.
func Score(r *model.FileResult) {
	r.Confidence = Confidence(r.MatchCount(), r.FileSizeBytes)
}

// Less reports whether a ranks strictly before b: more matches first, then
// higher confidence.
func Less(a, b model.FileResult) bool {
	if a.MatchCount() != b.MatchCount() {
		return a.MatchCount() > b.MatchCount()
	}
	return a.Confidence > b.Confidence
}

// Sort orders results in place. Equal results keep their encounter order.
func Sort(results []model.FileResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return Less(results[i], results[j])
	})
}

// Top sorts results and truncates them to limit. A limit <= 0 keeps all.
func Top(results []model.FileResult, limit int) []model.FileResult {
	Sort(results)
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
