package preds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatePrediction(t *testing.T) {
	p := cleanPrediction()
	p.CorrectScore = "2:1"
	p.BttsProb = 60
	p.Over15Prob = 70

	acc, err := EvaluatePrediction(p, "2:1")
	require.NoError(t, err)
	require.NotNil(t, acc)

	assert.True(t, acc.ExactScoreCorrect)
	assert.True(t, acc.ResultCorrect)
	assert.Equal(t, 0, acc.GoalDifferenceError)
	assert.Equal(t, 0, acc.TotalGoalsError)
	assert.True(t, acc.BttsCorrect)
	assert.True(t, acc.Over15Correct)
}

func TestEvaluatePredictionNearMiss(t *testing.T) {
	p := cleanPrediction()
	p.CorrectScore = "2:1"
	p.BttsProb = 60
	p.Over15Prob = 70

	// 1:0 keeps the home win but misses everything else
	acc, err := EvaluatePrediction(p, "1:0")
	require.NoError(t, err)
	require.NotNil(t, acc)

	assert.False(t, acc.ExactScoreCorrect)
	assert.True(t, acc.ResultCorrect)
	assert.Equal(t, 0, acc.GoalDifferenceError)
	assert.Equal(t, 2, acc.TotalGoalsError)
	assert.False(t, acc.BttsCorrect)
	assert.False(t, acc.Over15Correct)
}

func TestEvaluatePredictionSkipsDegraded(t *testing.T) {
	p := cleanPrediction()
	p.Degraded = true

	acc, err := EvaluatePrediction(p, "1:0")
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestEvaluatePredictionRejectsMalformedScore(t *testing.T) {
	_, err := EvaluatePrediction(cleanPrediction(), "two one")
	require.Error(t, err)
}

func TestEvaluateStored(t *testing.T) {
	store := newTestStore(t)

	hit := cleanPrediction()
	hit.Date = "2026-08-31"
	miss := cleanPrediction()
	miss.MatchURL = "https://www.mybets.today/analysis-gamma-vs-delta-betting-tip/"
	miss.Date = "2026-08-31"
	require.NoError(t, store.SavePredictions([]*MatchPrediction{hit, miss}))

	// Only one match has a final score; the other is skipped
	report, err := EvaluateStored(store, "2026-08-31", map[string]string{
		hit.MatchURL: "1:0",
	})
	require.NoError(t, err)

	require.Len(t, report.Matches, 1)
	assert.True(t, report.Matches[0].ExactScoreCorrect)
	require.NotNil(t, report.Aggregate)
	assert.Equal(t, 1, report.Aggregate.TotalMatches)
	assert.InDelta(t, 100.0, report.Aggregate.ExactScoreRate, 0.0001)
}

func TestEvaluateStoredRejectsMalformedScore(t *testing.T) {
	store := newTestStore(t)

	p := cleanPrediction()
	p.Date = "2026-08-31"
	require.NoError(t, store.Save(p))

	_, err := EvaluateStored(store, "2026-08-31", map[string]string{p.MatchURL: "abandoned"})
	require.Error(t, err)
}

func TestAggregateAccuracies(t *testing.T) {
	reliable := cleanPrediction()
	shaky := cleanPrediction()
	shaky.MatchURL = "https://www.mybets.today/analysis-gamma-vs-delta-betting-tip/"
	shaky.Reliable = false

	preds := map[string]*MatchPrediction{
		reliable.MatchURL: reliable,
		shaky.MatchURL:    shaky,
	}

	accs := []*PredictionAccuracy{
		{MatchURL: reliable.MatchURL, ExactScoreCorrect: true, ResultCorrect: true, BttsCorrect: true, Over15Correct: true},
		{MatchURL: shaky.MatchURL, ResultCorrect: false, TotalGoalsError: 2, GoalDifferenceError: 1},
	}

	agg := AggregateAccuracies(accs, preds)
	require.NotNil(t, agg)

	assert.Equal(t, 2, agg.TotalMatches)
	assert.InDelta(t, 50.0, agg.ExactScoreRate, 0.0001)
	assert.InDelta(t, 50.0, agg.ResultRate, 0.0001)
	assert.InDelta(t, 1.0, agg.AvgTotalGoalsError, 0.0001)
	assert.Equal(t, 1, agg.ReliableMatches)
	assert.InDelta(t, 100.0, agg.ReliableResultRate, 0.0001)

	assert.Nil(t, AggregateAccuracies(nil, nil))
}
