package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCmd_Empty(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "history")

	require.NoError(t, err)
	assert.Contains(t, stdout, "No searches recorded yet.")
}

func TestHistoryCmd_ListStatsClear(t *testing.T) {
	// Given: three searches, one without matches
	isolate(t)
	dir := createTree(t, map[string]string{"a.txt": "alpha beta\n"})
	for _, pattern := range []string{"alpha", "alpha", "gamma"} {
		_, _, err := execute(t, "search", pattern, "-d", dir, "-n")
		require.NoError(t, err)
	}

	// When: listing with a limit
	stdout, _, err := execute(t, "history", "--limit", "2")

	// Then: the newest runs are shown
	require.NoError(t, err)
	assert.Contains(t, stdout, "Last 2 searches:")
	assert.Contains(t, stdout, `"gamma"`)

	// When: asking for statistics
	stdout, _, err = execute(t, "history", "--stats", "--json")

	// Then
	require.NoError(t, err)
	var summary struct {
		Runs        int64 `json:"runs"`
		ZeroResults int64 `json:"zero_results"`
		TopPatterns []struct {
			Pattern string `json:"pattern"`
			Count   int64  `json:"count"`
		} `json:"top_patterns"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, int64(3), summary.Runs)
	assert.Equal(t, int64(1), summary.ZeroResults)
	require.NotEmpty(t, summary.TopPatterns)
	assert.Equal(t, "alpha", summary.TopPatterns[0].Pattern)
	assert.Equal(t, int64(2), summary.TopPatterns[0].Count)

	// When: clearing
	stdout, _, err = execute(t, "history", "--clear")
	require.NoError(t, err)
	assert.Contains(t, stdout, "History cleared")

	// Then: nothing is left
	stdout, _, err = execute(t, "history", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", stdout)
}

func TestHistoryCmd_NoHistoryFlag(t *testing.T) {
	isolate(t)
	dir := createTree(t, map[string]string{"a.txt": "alpha\n"})

	_, _, err := execute(t, "search", "alpha", "-d", dir, "-n", "--no-history")
	require.NoError(t, err)

	stdout, _, err := execute(t, "history", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", stdout)
}
