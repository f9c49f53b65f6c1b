package ranking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/argus/internal/model"
)

func withMatches(path string, n int, confidence float64) model.FileResult {
	return model.FileResult{
		Path:       path,
		Matches:    make([]model.Match, n),
		Confidence: confidence,
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		size     int64
		expected float64
	}{
		{"no matches", 0, 1024, 0},
		// matchScore = 1/5, density = 1/10
		{"one match in 1KiB", 1, 1024, 0.7*0.2 + 0.3*0.1},
		// zero size uses the fixed density
		{"one match empty file", 1, 0, 0.7*0.2 + 0.3*0.5},
		// density capped at 10 matches/KiB
		{"dense small file", 100, 10, 0.7*math.Min(math.Log(100)+1, 5)/5 + 0.3},
		// match score capped at 5
		{"huge match count", 1000, 1 << 30, 0.7 + 0.3*(1000.0/(1<<20))/10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Confidence(tt.count, tt.size), 1e-9)
		})
	}
}

func TestConfidence_AlwaysInUnitRange(t *testing.T) {
	for _, count := range []int{1, 2, 7, 50, 10000} {
		for _, size := range []int64{0, 1, 512, 4096, 1 << 26} {
			c := Confidence(count, size)
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 1.0)
		}
	}
}

func TestSort_MatchCountThenConfidence(t *testing.T) {
	// Given: results in scrambled order
	results := []model.FileResult{
		withMatches("few", 1, 0.9),
		withMatches("many-low", 5, 0.2),
		withMatches("many-high", 5, 0.8),
		withMatches("mid", 3, 0.1),
	}

	// When: sorting
	Sort(results)

	// Then: more matches first, confidence breaks ties
	var order []string
	for _, r := range results {
		order = append(order, r.Path)
	}
	assert.Equal(t, []string{"many-high", "many-low", "mid", "few"}, order)
}

func TestSort_StableForEqualKeys(t *testing.T) {
	results := []model.FileResult{
		withMatches("a", 2, 0.5),
		withMatches("b", 2, 0.5),
		withMatches("c", 2, 0.5),
	}

	Sort(results)

	assert.Equal(t, "a", results[0].Path)
	assert.Equal(t, "b", results[1].Path)
	assert.Equal(t, "c", results[2].Path)
}

func TestSort_PreOrderProperty(t *testing.T) {
	results := []model.FileResult{
		withMatches("a", 1, 0.3), withMatches("b", 4, 0.1), withMatches("c", 4, 0.6),
		withMatches("d", 2, 0.9), withMatches("e", 1, 0.8), withMatches("f", 9, 0.0),
	}

	Sort(results)

	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		assert.GreaterOrEqual(t, prev.MatchCount(), cur.MatchCount())
		if prev.MatchCount() == cur.MatchCount() {
			assert.GreaterOrEqual(t, prev.Confidence, cur.Confidence)
		}
	}
}

func TestTop(t *testing.T) {
	results := []model.FileResult{
		withMatches("a", 1, 0), withMatches("b", 3, 0), withMatches("c", 2, 0),
	}

	top := Top(results, 2)
	assert.Len(t, top, 2)
	assert.Equal(t, "b", top[0].Path)
	assert.Equal(t, "c", top[1].Path)

	all := Top(results, 0)
	assert.Len(t, all, 3)
}

func TestScore(t *testing.T) {
	r := model.FileResult{Matches: make([]model.Match, 1), FileSizeBytes: 1024}
	Score(&r)
	assert.InDelta(t, 0.17, r.Confidence, 1e-9)
}
