package preds

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCacheRoundTrip(t *testing.T) {
	cache, err := NewSnapshotCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	records := []*MatchPrediction{
		{MatchURL: "https://example.test/analysis-a-vs-b-betting-tip/", Date: "2026-08-31", CorrectScore: "1:0", GoalProb: 0.7},
		{MatchURL: "https://example.test/analysis-c-vs-d-betting-tip/", Date: "2026-08-31", CorrectScore: "2:1", GoalProb: 0.8},
	}
	require.NoError(t, cache.Put(SnapshotKindMatches, "2026-08-31", records))

	var got []*MatchPrediction
	require.True(t, cache.Get(SnapshotKindMatches, "2026-08-31", &got))
	require.Len(t, got, 2)
	assert.Equal(t, records[0].MatchURL, got[0].MatchURL)
	assert.Equal(t, records[1].CorrectScore, got[1].CorrectScore)
}

func TestSnapshotCacheMissOnUnknownDate(t *testing.T) {
	cache, err := NewSnapshotCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	var got []*MatchPrediction
	assert.False(t, cache.Get(SnapshotKindMatches, "2026-09-01", &got))
}

func TestSnapshotCacheKindsAreSeparate(t *testing.T) {
	cache, err := NewSnapshotCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	require.NoError(t, cache.Put(SnapshotKindMatches, "2026-08-31", []*MatchPrediction{{MatchURL: "x", Date: "2026-08-31"}}))

	var vip []*VIPEntry
	assert.False(t, cache.Get(SnapshotKindVIP, "2026-08-31", &vip))
}

func TestSnapshotCacheExpiry(t *testing.T) {
	cache, err := NewSnapshotCache(t.TempDir(), time.Nanosecond)
	require.NoError(t, err)

	require.NoError(t, cache.Put(SnapshotKindMatches, "2026-08-31", []*MatchPrediction{{MatchURL: "x", Date: "2026-08-31"}}))
	time.Sleep(time.Millisecond)

	var got []*MatchPrediction
	assert.False(t, cache.Get(SnapshotKindMatches, "2026-08-31", &got))
}

func TestSnapshotCacheCorruptionIsAMiss(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewSnapshotCache(dir, time.Hour)
	require.NoError(t, err)

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", SnapshotKindMatches, "2026-08-31"))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var got []*MatchPrediction
	assert.False(t, cache.Get(SnapshotKindMatches, "2026-08-31", &got))

	// A fresh write recovers the entry
	require.NoError(t, cache.Put(SnapshotKindMatches, "2026-08-31", []*MatchPrediction{{MatchURL: "x", Date: "2026-08-31"}}))
	assert.True(t, cache.Get(SnapshotKindMatches, "2026-08-31", &got))
}
