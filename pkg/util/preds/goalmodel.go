package preds

import (
	"fmt"
	"math"
	"strings"

	"github.com/stattip/stattip/internal/logger"
)

// GoalModel derives scoreline and goal-market probabilities from raw
// signals using a Poisson model over per-team expected goals. The model
// is stateless; all tuning lives in the Config.
type GoalModel struct {
	cfg    *Config
	scorer RefinementPort
}

// NewGoalModel creates a model with the given refinement port.
// The port must already be warm.
func NewGoalModel(cfg *Config, scorer RefinementPort) *GoalModel {
	return &GoalModel{cfg: cfg, scorer: scorer}
}

/////////////////////////////////////////////////////////////////////////
////// Form Scoring
/////////////////////////////////////////////////////////////////////////

// FormScore converts a 5-character form token into a recency-weighted
// point score on a 0-3 scale. The leftmost character is the most recent
// result and carries the highest weight. Tokens that are not exactly
// five W/D/L characters score 0.
func (m *GoalModel) FormScore(form string) float64 {
	if !validForm(form) {
		return 0
	}
	var total, weightSum float64
	for i, c := range form {
		// a short weight table reuses its final entry for older games
		w := m.cfg.FormWeights[len(m.cfg.FormWeights)-1]
		if i < len(m.cfg.FormWeights) {
			w = m.cfg.FormWeights[i]
		}
		weightSum += w
		switch c {
		case 'W':
			total += w * m.cfg.FormWinPoints
		case 'D':
			total += w * m.cfg.FormDrawPoints
		case 'L':
			total += w * m.cfg.FormLossPoints
		}
	}
	if weightSum == 0 {
		return 0
	}
	return total / weightSum
}

// MomentumBonus returns the configured bonus when the two most recent
// results are both wins, else 0
func (m *GoalModel) MomentumBonus(form string) float64 {
	if validForm(form) && strings.HasPrefix(form, "WW") {
		return m.cfg.MomentumBonus
	}
	return 0
}

func validForm(form string) bool {
	if len(form) != 5 {
		return false
	}
	for _, c := range form {
		if c != 'W' && c != 'D' && c != 'L' {
			return false
		}
	}
	return true
}

/////////////////////////////////////////////////////////////////////////
////// Expected Goals
/////////////////////////////////////////////////////////////////////////

// Lambdas computes both teams' expected goals from over rates and form.
// Only the home side receives the home-advantage multiplier. Results are
// clamped to non-negative.
func (m *GoalModel) Lambdas(s *RawSignals) (home, away float64) {
	home = (s.HomeOver/100)*m.cfg.OverRateScale +
		(m.FormScore(s.HomeForm)+m.MomentumBonus(s.HomeForm))*m.cfg.FormScale
	home *= m.cfg.HomeAdvantage
	away = (s.AwayOver/100)*m.cfg.OverRateScale +
		(m.FormScore(s.AwayForm)+m.MomentumBonus(s.AwayForm))*m.cfg.FormScale
	return math.Max(0, home), math.Max(0, away)
}

// adjustLambda nudges a lambda by up to +-10% according to how far the
// team's own BTTS rate sits from 50%. Teams that score and concede often
// trend attacking, teams that rarely do trend defensive.
func (m *GoalModel) adjustLambda(lambda, btts float64) float64 {
	return math.Max(0, lambda*(1+(btts/100-0.5)*m.cfg.BttsAdjustment))
}

// poisson returns P(X=k) for X ~ Poisson(lambda). k is capped well below
// any factorial overflow by the scoreline table bound.
func poisson(k int, lambda float64) float64 {
	f := 1.0
	for i := 2; i <= k; i++ {
		f *= float64(i)
	}
	return math.Exp(-lambda) * math.Pow(lambda, float64(k)) / f
}

/////////////////////////////////////////////////////////////////////////
////// Prediction
/////////////////////////////////////////////////////////////////////////

// Predict runs the full model over one match's signals and returns the
// populated prediction record. Quality fields are left at their
// defaults for the gate to fill in.
func (m *GoalModel) Predict(s *RawSignals) *MatchPrediction {
	p := &MatchPrediction{
		MatchURL:     s.MatchURL,
		Date:         s.Date,
		HomeTeam:     s.HomeTeam,
		AwayTeam:     s.AwayTeam,
		League:       s.League,
		KickoffTime:  s.KickoffTime,
		HomeForm:     s.HomeForm,
		AwayForm:     s.AwayForm,
		HomeOver:     s.HomeOver,
		AwayOver:     s.AwayOver,
		HomeBtts:     s.HomeBtts,
		AwayBtts:     s.AwayBtts,
		HomeClean:    s.HomeClean,
		AwayClean:    s.AwayClean,
		OtherProb:    s.OtherProb,
		QualityScore: 100,
		Reliable:     true,
	}

	lambda1, lambda2 := m.Lambdas(s)
	adj1 := m.adjustLambda(lambda1, s.HomeBtts)
	adj2 := m.adjustLambda(lambda2, s.AwayBtts)
	p.HomeExpectedGoals = adj1
	p.AwayExpectedGoals = adj2

	// Scoreline table over the adjusted lambdas. The best cell is the
	// reported correct score.
	bestProb := 0.0
	bestScore := "0:0"
	over15 := 0.0
	for g1 := 0; g1 <= m.cfg.MaxGoals; g1++ {
		for g2 := 0; g2 <= m.cfg.MaxGoals; g2++ {
			prob := poisson(g1, adj1) * poisson(g2, adj2) * 100
			if prob > bestProb {
				bestProb = prob
				bestScore = scoreline(g1, g2)
			}
			if g1+g2 > 1 {
				over15 += prob
			}
		}
	}
	p.CorrectScore = bestScore
	p.CorrectScoreProb = clampPct(bestProb)
	p.LayProb = clampPct(100 - p.CorrectScoreProb)
	p.Over15Prob = clampPct(over15)

	// BTTS reconciliation. The text average and the Poisson estimate
	// are blended once with equal weight.
	textBtts := (s.HomeBtts + s.AwayBtts) / 2
	pZero1 := poisson(0, adj1)
	pZero2 := poisson(0, adj2)
	poissonBtts := (1 - pZero1 - pZero2 + pZero1*pZero2) * 100
	p.BttsProb = clampPct((textBtts + clampPct(poissonBtts)) / 2)

	// First-half goal probability scales the adjusted lambdas by the
	// share of the match the half represents
	noGoalHalf := math.Exp(-adj1*m.cfg.HalfTimeScale) * math.Exp(-adj2*m.cfg.HalfTimeScale)
	p.FirstHalfGoalProb = clampPct((1 - noGoalHalf) * 100)

	// Overall goal probability starts as an equal blend of three
	// estimators, then is averaged with the refinement port's score
	basic := 1 - (s.HomeClean+s.AwayClean)/200
	anyGoals := 1 - math.Exp(-lambda1)*math.Exp(-lambda2)
	refined := 1 - pZero1*pZero2
	blend := (clamp01(basic) + anyGoals + refined) / 3

	features := [6]float64{
		adj1, adj2,
		p.BttsProb / 100,
		p.FirstHalfGoalProb / 100,
		s.HomeOver / 100,
		s.AwayOver / 100,
	}
	scored := m.scorer.Score(features)
	p.GoalProb = clamp01((blend + scored) / 2)

	logger.Debug("modelled", s.HomeTeam, "vs", s.AwayTeam,
		"lambdas", adj1, adj2, "score", p.CorrectScore, "goalProb", p.GoalProb)
	return p
}

func scoreline(g1, g2 int) string {
	return fmt.Sprintf("%d:%d", g1, g2)
}

func clampPct(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
