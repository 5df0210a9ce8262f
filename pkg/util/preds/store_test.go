package preds

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "stattip.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreSaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	a := cleanPrediction()
	a.Date = "2026-08-31"
	b := cleanPrediction()
	b.MatchURL = "https://www.mybets.today/analysis-gamma-vs-delta-betting-tip/"
	b.Date = "2026-08-31"
	b.Anomalies = []string{AnomalyRareScore, AnomalyScoreOver}

	require.NoError(t, store.SavePredictions([]*MatchPrediction{a, b}))

	loaded, err := store.PredictionsForDate("2026-08-31")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	byURL := map[string]*MatchPrediction{}
	for _, p := range loaded {
		byURL[p.MatchURL] = p
	}
	require.Contains(t, byURL, a.MatchURL)
	require.Contains(t, byURL, b.MatchURL)

	assert.Equal(t, a.CorrectScore, byURL[a.MatchURL].CorrectScore)
	assert.InDelta(t, a.GoalProb, byURL[a.MatchURL].GoalProb, 0.0001)

	// Anomalies survive the summary-column round trip
	assert.Equal(t, b.Anomalies, byURL[b.MatchURL].Anomalies)
}

func TestStoreSaveIsAnUpsert(t *testing.T) {
	store := newTestStore(t)

	p := cleanPrediction()
	p.Date = "2026-08-31"
	require.NoError(t, store.Save(p))

	p.CorrectScore = "3:1"
	p.QualityScore = 80
	require.NoError(t, store.Save(p))

	loaded, err := store.PredictionsForDate("2026-08-31")
	require.NoError(t, err)
	require.Len(t, loaded, 1, "same match and date must update, not duplicate")
	assert.Equal(t, "3:1", loaded[0].CorrectScore)
	assert.Equal(t, 80.0, loaded[0].QualityScore)
}

func TestStoreDatesAreIndependent(t *testing.T) {
	store := newTestStore(t)

	p := cleanPrediction()
	p.Date = "2026-08-31"
	require.NoError(t, store.Save(p))

	q := cleanPrediction()
	q.Date = "2026-09-01"
	require.NoError(t, store.Save(q))

	loaded, err := store.PredictionsForDate("2026-09-01")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "2026-09-01", loaded[0].Date)
}

func TestStoreBulkSaveRollsBackOnFailure(t *testing.T) {
	store := newTestStore(t)

	good := cleanPrediction()
	good.Date = "2026-08-31"
	// No primary key, so the save hook fails mid-batch
	bad := &MatchPrediction{}

	err := store.SavePredictions([]*MatchPrediction{good, bad})
	require.Error(t, err)

	loaded, err := store.PredictionsForDate("2026-08-31")
	require.NoError(t, err)
	assert.Empty(t, loaded, "a failed batch must not persist earlier records")
}

func TestStoreRejectsMissingPrimaryKey(t *testing.T) {
	store := newTestStore(t)

	err := store.Save(&MatchPrediction{})
	require.Error(t, err)
}
