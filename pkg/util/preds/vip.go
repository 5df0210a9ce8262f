package preds

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/stattip/stattip/internal/logger"
)

/////////////////////////////////////////////////////////////////////////
////// VIP Ranking
/////////////////////////////////////////////////////////////////////////

// RankVIP produces the reliability-ranked shortlist for a date. It has
// its own cache entry on top of the analysis cache, so a repeated VIP
// request within the TTL touches no network at all.
func (p *Pipeline) RankVIP(date string) ([]*VIPEntry, error) {
	var cached []*VIPEntry
	if p.cache.Get(SnapshotKindVIP, date, &cached) {
		p.metrics.CacheLookups.WithLabelValues(SnapshotKindVIP, "hit").Inc()
		return cached, nil
	}
	p.metrics.CacheLookups.WithLabelValues(SnapshotKindVIP, "miss").Inc()

	preds, err := p.Analyze(date)
	if err != nil {
		return nil, err
	}

	entries := make([]*VIPEntry, 0, len(preds))
	for _, pred := range preds {
		entries = append(entries, p.scoreEntry(pred))
	}

	// Stable sort keeps listing order for equal scores
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ReliabilityScore > entries[j].ReliabilityScore
	})
	if len(entries) > p.cfg.ShortlistSize {
		entries = entries[:p.cfg.ShortlistSize]
	}

	logger.Info("VIP shortlist for", date, "holds", len(entries), "matches")

	if err := p.cache.Put(SnapshotKindVIP, date, entries); err != nil {
		logger.Warn("Failed to cache VIP shortlist for", date, err)
	}
	return entries, nil
}

// scoreEntry recomputes the auxiliary signals for one prediction and
// blends everything into the reliability score
func (p *Pipeline) scoreEntry(pred *MatchPrediction) *VIPEntry {
	cfg := p.cfg

	poissonProb := p.poissonProxyProb(pred)
	eloProb := p.eloWinProb(pred.HomeForm, pred.AwayForm)
	formEdge := p.formEdge(pred.HomeForm, pred.AwayForm)

	features := [6]float64{
		pred.LayProb / 100,
		pred.GoalProb,
		pred.FirstHalfGoalProb / 100,
		pred.BttsProb / 100,
		poissonProb / 100,
		eloProb / 100,
	}
	refined := p.model.scorer.Score(features) * 100

	score := (pred.LayProb*cfg.WeightLay +
		pred.GoalProb*100*cfg.WeightGoal +
		pred.FirstHalfGoalProb*cfg.WeightFirstHalf +
		pred.BttsProb*cfg.WeightBtts +
		refined*cfg.WeightRefined +
		poissonProb*cfg.WeightPoisson +
		eloProb*cfg.WeightElo +
		formEdge*cfg.WeightFormEdge) / cfg.BlendDivisor

	errorMargin := (100 - score) / 2

	rationale := fmt.Sprintf(
		"Reliability blended from: layProb (%.0f%%), goalProb (%.0f%%), firstHalfGoalProb (%.0f%%), "+
			"bttsProb (%.0f%%), refinement (%.0f%%), Poisson (%.0f%%), Elo (%.0f%%), formEdge (%.0f%%). "+
			"Estimated error margin: +-%.2f%%",
		cfg.WeightLay*100, cfg.WeightGoal*100, cfg.WeightFirstHalf*100,
		cfg.WeightBtts*100, cfg.WeightRefined*100, cfg.WeightPoisson*100,
		cfg.WeightElo*100, cfg.WeightFormEdge*100, errorMargin)

	return &VIPEntry{
		MatchPrediction:  *pred,
		ReliabilityScore: score,
		CertaintyLevel:   CertaintyLabel(score),
		ErrorMargin:      errorMargin,
		Rationale:        rationale,
		PoissonProb:      poissonProb,
		EloProb:          eloProb,
		FormEdge:         formEdge,
	}
}

// poissonProxyProb is a single-cell 1:1 estimate from simplified
// lambdas, used only to diversify the ranking. The over rate is scaled
// to a goals contribution before it joins the lambda.
func (p *Pipeline) poissonProxyProb(pred *MatchPrediction) float64 {
	l1 := winRate(pred.HomeForm) + pred.HomeOver/100*p.cfg.OverRateScale
	l2 := winRate(pred.AwayForm) + pred.AwayOver/100*p.cfg.OverRateScale
	return clampPct(poisson(1, l1) * poisson(1, l2) * 100)
}

// winRate counts wins in a form token as a fraction of games played
func winRate(form string) float64 {
	if !validForm(form) {
		return 0
	}
	return float64(strings.Count(form, "W")) / float64(len(form))
}

// eloWinProb derives per-team ratings from the weighted form score and
// returns the home side's logistic win probability as a percentage
func (p *Pipeline) eloWinProb(homeForm, awayForm string) float64 {
	home := p.cfg.EloBase + p.model.FormScore(homeForm)*p.cfg.EloSpread
	away := p.cfg.EloBase + p.model.FormScore(awayForm)*p.cfg.EloSpread
	return 100 / (1 + math.Pow(10, (away-home)/p.cfg.EloScale))
}

// formEdge expresses the momentum-aware form differential on a
// -100..100 scale, positive favouring the home side
func (p *Pipeline) formEdge(homeForm, awayForm string) float64 {
	home := p.model.FormScore(homeForm) + p.model.MomentumBonus(homeForm)
	away := p.model.FormScore(awayForm) + p.model.MomentumBonus(awayForm)
	edge := (home - away) / 3 * 100
	return math.Min(100, math.Max(-100, edge))
}
