package preds

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, fetcher Fetcher) *Pipeline {
	t.Helper()
	cfg := DefaultConfig()
	cfg.CacheDir = t.TempDir()
	cfg.DbPath = ""

	scorer := NewStaticScorer()
	require.NoError(t, scorer.Warm())

	cache, err := NewSnapshotCache(cfg.CacheDir, cfg.CacheTTL.Std())
	require.NoError(t, err)

	return NewPipeline(
		cfg,
		fetcher,
		NewMyBetsExtractor(cfg.Leagues),
		NewGoalModel(cfg, scorer),
		NewQualityGate(cfg),
		cache,
		nil,
		NewPipelineMetrics(),
	)
}

func TestScoreEntry(t *testing.T) {
	p := newTestPipeline(t, &stubFetcher{})

	pred := cleanPrediction()
	pred.HomeForm, pred.AwayForm = "WWWWW", "LLLLL"
	pred.HomeOver, pred.AwayOver = 80, 20

	entry := p.scoreEntry(pred)

	assert.Greater(t, entry.ReliabilityScore, 0.0)
	assert.Less(t, entry.ReliabilityScore, 110.0)
	assert.Equal(t, CertaintyLabel(entry.ReliabilityScore), entry.CertaintyLevel)
	assert.InDelta(t, (100-entry.ReliabilityScore)/2, entry.ErrorMargin, 0.0001)
	assert.Contains(t, entry.Rationale, "layProb (40%)")

	assert.GreaterOrEqual(t, entry.PoissonProb, 0.0)
	assert.LessOrEqual(t, entry.PoissonProb, 100.0)
	assert.Greater(t, entry.EloProb, 50.0, "dominant home form wins the Elo comparison")
	assert.Greater(t, entry.FormEdge, 0.0)
}

func TestEloWinProb(t *testing.T) {
	p := newTestPipeline(t, &stubFetcher{})

	assert.InDelta(t, 50.0, p.eloWinProb("WDWDW", "WDWDW"), 0.0001)
	assert.Greater(t, p.eloWinProb("WWWWW", "LLLLL"), 50.0)
	assert.Less(t, p.eloWinProb("LLLLL", "WWWWW"), 50.0)

	// Unknown form falls back to the rating baseline on both sides
	assert.InDelta(t, 50.0, p.eloWinProb(DefaultForm, DefaultForm), 0.0001)
}

func TestFormEdgeBounds(t *testing.T) {
	p := newTestPipeline(t, &stubFetcher{})

	edge := p.formEdge("WWWWW", "LLLLL")
	assert.Greater(t, edge, 0.0)
	assert.LessOrEqual(t, edge, 100.0)

	assert.InDelta(t, -edge, p.formEdge("LLLLL", "WWWWW"), 0.0001)
	assert.Equal(t, 0.0, p.formEdge("WDLDW", "WDLDW"))
}

func TestCertaintyLabel(t *testing.T) {
	assert.Equal(t, CertaintyVerySafe, CertaintyLabel(95))
	assert.Equal(t, CertaintyProbable, CertaintyLabel(90))
	assert.Equal(t, CertaintyProbable, CertaintyLabel(70))
	assert.Equal(t, CertaintyToConsider, CertaintyLabel(69.9))
	assert.Equal(t, CertaintyToConsider, CertaintyLabel(50))
	assert.Equal(t, CertaintyLowReliability, CertaintyLabel(49.9))
}

func TestRankVIPOrdersAndTruncates(t *testing.T) {
	p := newTestPipeline(t, &stubFetcher{})
	date := time.Now().Format("2006-01-02")

	// Seed the analysis cache so ranking needs no network. Ascending
	// lay probability makes the expected order the reverse of insertion.
	var records []*MatchPrediction
	for i := 0; i < 20; i++ {
		r := cleanPrediction()
		r.MatchURL = fmt.Sprintf("https://www.mybets.today/analysis-team%02d-vs-other-betting-tip/", i)
		r.Date = date
		r.CorrectScoreProb = float64(40 - i)
		r.LayProb = float64(60 + i)
		records = append(records, r)
	}
	require.NoError(t, p.cache.Put(SnapshotKindMatches, date, records))

	entries, err := p.RankVIP(date)
	require.NoError(t, err)

	require.Len(t, entries, p.cfg.ShortlistSize)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].ReliabilityScore, entries[i].ReliabilityScore,
			"shortlist must be sorted by descending reliability")
	}
	assert.Equal(t, records[19].MatchURL, entries[0].MatchURL,
		"the highest lay probability ranks first")
}

func TestRankVIPUsesItsOwnCache(t *testing.T) {
	p := newTestPipeline(t, &stubFetcher{})
	date := time.Now().Format("2006-01-02")

	cached := []*VIPEntry{{
		MatchPrediction:  *cleanPrediction(),
		ReliabilityScore: 88,
		CertaintyLevel:   CertaintyProbable,
	}}
	require.NoError(t, p.cache.Put(SnapshotKindVIP, date, cached))

	entries, err := p.RankVIP(date)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 88.0, entries[0].ReliabilityScore)
}
