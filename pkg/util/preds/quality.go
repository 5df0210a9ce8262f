package preds

import (
	"math"

	"github.com/stattip/stattip/internal/logger"
)

// Anomaly labels appended by the gate, stable for storage and display
const (
	AnomalyScoreOver    = "score/over inconsistency"
	AnomalyScoreBtts    = "score/BTTS inconsistency"
	AnomalyRareScore    = "suspicious score probability"
	AnomalyFormCollapse = "offensive prediction against two teams in total form collapse"
)

// Deductions per anomaly, taken from a starting score of 100
const (
	deductScoreOver    = 25
	deductScoreBtts    = 20
	deductRareScore    = 20
	deductFormCollapse = 25
)

// QualityGate scores each prediction's internal consistency. It never
// rejects a record; it deducts from the quality score, appends anomaly
// labels, and marks records below the configured floor unreliable.
// Discarding is the pipeline's call, not the gate's.
type QualityGate struct {
	cfg *Config
}

// NewQualityGate creates a gate using the config's quality floor
func NewQualityGate(cfg *Config) *QualityGate {
	return &QualityGate{cfg: cfg}
}

// Check runs the validation pass and every consistency rule over one
// prediction, mutating only its quality fields
func (g *QualityGate) Check(p *MatchPrediction) *MatchPrediction {
	hard := g.clampRanges(p)

	score := 100.0
	home, away, haveScore := ScorelineGoals(p.CorrectScore)

	// A scoreline with two or more goals should agree with the over-1.5
	// market derived from the same table
	if haveScore && home+away >= 2 && p.Over15Prob < 40 {
		score -= deductScoreOver
		p.Anomalies = append(p.Anomalies, AnomalyScoreOver)
	}

	// A scoreline with both sides on the sheet should agree with BTTS
	if haveScore && home > 0 && away > 0 && p.BttsProb < 30 {
		score -= deductScoreBtts
		p.Anomalies = append(p.Anomalies, AnomalyScoreBtts)
	}

	// Exact scores rarely exceed 40% in a Poisson table with sane
	// lambdas; anything higher means degenerate inputs
	if p.CorrectScoreProb > 40 {
		score -= deductRareScore
		p.Anomalies = append(p.Anomalies, AnomalyRareScore)
	}

	if p.HomeForm == "LLLLL" && p.AwayForm == "LLLLL" && p.Over15Prob > 80 {
		score -= deductFormCollapse
		p.Anomalies = append(p.Anomalies, AnomalyFormCollapse)
	}

	p.QualityScore = math.Max(0, score)
	p.Reliable = !hard && p.QualityScore >= g.cfg.QualityFloor
	if !p.Reliable {
		logger.Debug("unreliable prediction", p.HomeTeam, "vs", p.AwayTeam,
			"quality", p.QualityScore, "anomalies", len(p.Anomalies))
	}
	return p
}

// clampRanges forces every probability field back into its legal range.
// Returns true when any value was NaN or out of range, which marks the
// record unreliable regardless of its quality score.
func (g *QualityGate) clampRanges(p *MatchPrediction) bool {
	hard := false
	fix := func(v *float64, lo, hi float64) {
		if math.IsNaN(*v) || *v < lo || *v > hi {
			hard = true
			if math.IsNaN(*v) {
				*v = lo
			} else {
				*v = math.Min(hi, math.Max(lo, *v))
			}
		}
	}
	fix(&p.CorrectScoreProb, 0, 100)
	fix(&p.LayProb, 0, 100)
	fix(&p.BttsProb, 0, 100)
	fix(&p.Over15Prob, 0, 100)
	fix(&p.FirstHalfGoalProb, 0, 100)
	fix(&p.GoalProb, 0, 1)
	fix(&p.HomeExpectedGoals, 0, math.Inf(1))
	fix(&p.AwayExpectedGoals, 0, math.Inf(1))
	return hard
}

// WellFormed reports whether every probability field is a number in its
// legal range. The pipeline's filter drops records that are not.
func WellFormed(p *MatchPrediction) bool {
	inRange := func(v, lo, hi float64) bool {
		return !math.IsNaN(v) && v >= lo && v <= hi
	}
	return inRange(p.CorrectScoreProb, 0, 100) &&
		inRange(p.LayProb, 0, 100) &&
		inRange(p.BttsProb, 0, 100) &&
		inRange(p.Over15Prob, 0, 100) &&
		inRange(p.FirstHalfGoalProb, 0, 100) &&
		inRange(p.GoalProb, 0, 1)
}
