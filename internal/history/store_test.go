package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/argus/internal/model"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRun(pattern string, startedAt time.Time, matched int, d time.Duration) Run {
	stats := model.NewRunStatistics()
	stats.FilesScanned = 10
	stats.FilesMatched = matched
	stats.TotalMatches = matched * 2
	stats.Duration = d
	return NewRun(pattern, "/work", startedAt, stats)
}

func TestNewRun(t *testing.T) {
	stats := model.NewRunStatistics()
	stats.FilesScanned = 5
	stats.FilesMatched = 2
	stats.TotalMatches = 7
	stats.FilesSkipped = 1
	stats.Duration = 1500 * time.Millisecond
	now := time.Now()

	run := NewRun("todo", "/src", now, stats)

	assert.Len(t, run.ID, 36)
	assert.Equal(t, "todo", run.Pattern)
	assert.Equal(t, "/src", run.Directory)
	assert.Equal(t, 5, run.FilesScanned)
	assert.Equal(t, 2, run.FilesMatched)
	assert.Equal(t, 7, run.TotalMatches)
	assert.Equal(t, 1, run.FilesSkipped)
	assert.Equal(t, int64(1500), run.DurationMS)
	assert.False(t, run.IsZeroResult())
	assert.NotEqual(t, run.ID, NewRun("todo", "/src", now, stats).ID)
}

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected LatencyBucket
	}{
		{0, BucketUnder100ms},
		{99 * time.Millisecond, BucketUnder100ms},
		{100 * time.Millisecond, BucketUnder1s},
		{time.Second, BucketUnder10s},
		{10 * time.Second, BucketOver10s},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, LatencyToBucket(tt.d))
		})
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestStore_RecordAndList(t *testing.T) {
	// Given: three runs recorded out of order
	store := setupStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC)

	first := testRun("alpha", base, 1, 20*time.Millisecond)
	second := testRun("beta", base.Add(time.Minute), 0, 2*time.Second)
	third := testRun("gamma", base.Add(2*time.Minute), 3, 300*time.Millisecond)
	third.Regex = true
	third.CacheState = "loaded"
	for _, r := range []Run{second, first, third} {
		require.NoError(t, store.Record(ctx, r))
	}

	// When: listing with a limit
	runs, err := store.List(ctx, 2)
	require.NoError(t, err)

	// Then: newest first, fields round-trip
	require.Len(t, runs, 2)
	assert.Equal(t, third.ID, runs[0].ID)
	assert.Equal(t, second.ID, runs[1].ID)
	assert.True(t, runs[0].Regex)
	assert.Equal(t, "loaded", runs[0].CacheState)
	assert.Equal(t, 3, runs[0].FilesMatched)
	assert.Equal(t, 300*time.Millisecond, runs[0].Duration)
	assert.True(t, runs[0].StartedAt.Equal(third.StartedAt))

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_ListEmpty(t *testing.T) {
	store := setupStore(t)

	runs, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestStore_RecordRequiresID(t *testing.T) {
	store := setupStore(t)

	err := store.Record(context.Background(), Run{Pattern: "x"})
	assert.Error(t, err)
}

func TestStore_Get(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	run := testRun("needle", time.Now(), 2, time.Second)
	require.NoError(t, store.Record(ctx, run))

	got, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "needle", got.Pattern)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_TopPatterns(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Now()

	for i, p := range []string{"a", "b", "a", "c", "a", "b"} {
		require.NoError(t, store.Record(ctx, testRun(p, base.Add(time.Duration(i)*time.Second), 1, time.Millisecond)))
	}

	top, err := store.TopPatterns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].Pattern)
	assert.Equal(t, int64(3), top[0].Count)
	assert.Equal(t, "b", top[1].Pattern)
	assert.Equal(t, int64(2), top[1].Count)
}

func TestStore_Summarize(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, store.Record(ctx, testRun("a", base, 0, 50*time.Millisecond)))
	require.NoError(t, store.Record(ctx, testRun("a", base.Add(time.Second), 2, 500*time.Millisecond)))
	require.NoError(t, store.Record(ctx, testRun("b", base.Add(2*time.Second), 0, 20*time.Second)))

	summary, err := store.Summarize(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, int64(3), summary.Runs)
	assert.Equal(t, int64(2), summary.ZeroResults)
	assert.Equal(t, int64(1), summary.ByLatency[BucketUnder100ms])
	assert.Equal(t, int64(1), summary.ByLatency[BucketUnder1s])
	assert.Equal(t, int64(1), summary.ByLatency[BucketOver10s])
	require.Len(t, summary.TopPatterns, 2)
	assert.Equal(t, "a", summary.TopPatterns[0].Pattern)
}

func TestStore_Clear(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Record(ctx, testRun("a", time.Now(), 1, time.Millisecond)))

	require.NoError(t, store.Clear(ctx))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
	top, err := store.TopPatterns(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestStore_Reopen(t *testing.T) {
	// Given: a run written by one store
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	run := testRun("persist", time.Now(), 1, time.Millisecond)
	require.NoError(t, store.Record(context.Background(), run))
	require.NoError(t, store.Close())

	// When: reopening the same file
	store, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// Then: the run is still there
	got, err := store.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, "persist", got.Pattern)
	assert.Equal(t, path, store.Path())
}
