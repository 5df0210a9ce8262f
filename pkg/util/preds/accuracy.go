package preds

import (
	"fmt"
)

// PredictionAccuracy is the per-match comparison of a stored prediction
// against the final score
type PredictionAccuracy struct {
	MatchURL            string  `json:"match"`
	HomeTeam            string  `json:"homeTeam"`
	AwayTeam            string  `json:"awayTeam"`
	PredictedScore      string  `json:"predictedScore"`
	ActualScore         string  `json:"actualScore"`
	ExactScoreCorrect   bool    `json:"exactScoreCorrect"`
	ResultCorrect       bool    `json:"resultCorrect"`
	GoalDifferenceError int     `json:"goalDifferenceError"`
	TotalGoalsError     int     `json:"totalGoalsError"`
	BttsCorrect         bool    `json:"bttsCorrect"`
	Over15Correct       bool    `json:"over15Correct"`
	GoalProb            float64 `json:"goalProb"`
}

// AggregateAccuracy summarises a batch of per-match evaluations
type AggregateAccuracy struct {
	TotalMatches       int     `json:"totalMatches"`
	ExactScoreRate     float64 `json:"exactScoreRate"`
	ResultRate         float64 `json:"resultRate"`
	BttsRate           float64 `json:"bttsRate"`
	Over15Rate         float64 `json:"over15Rate"`
	AvgGoalDiffError   float64 `json:"avgGoalDifferenceError"`
	AvgTotalGoalsError float64 `json:"avgTotalGoalsError"`
	ReliableMatches    int     `json:"reliableMatches"`
	ReliableResultRate float64 `json:"reliableResultRate"`
}

// EvaluatePrediction compares one prediction with a final score given
// as "G1:G2". Returns an error for malformed input; degraded records
// evaluate to nil with no error since they predicted nothing.
func EvaluatePrediction(p *MatchPrediction, actualScore string) (*PredictionAccuracy, error) {
	actualHome, actualAway, ok := ScorelineGoals(actualScore)
	if !ok {
		return nil, fmt.Errorf("malformed actual score %q, want G1:G2", actualScore)
	}
	if p.Degraded {
		return nil, nil
	}
	predHome, predAway, ok := ScorelineGoals(p.CorrectScore)
	if !ok {
		return nil, nil
	}

	acc := &PredictionAccuracy{
		MatchURL:       p.MatchURL,
		HomeTeam:       p.HomeTeam,
		AwayTeam:       p.AwayTeam,
		PredictedScore: p.CorrectScore,
		ActualScore:    actualScore,
		GoalProb:       p.GoalProb,
	}

	acc.ExactScoreCorrect = predHome == actualHome && predAway == actualAway
	acc.ResultCorrect = matchResult(predHome, predAway) == matchResult(actualHome, actualAway)
	acc.GoalDifferenceError = absInt((predHome - predAway) - (actualHome - actualAway))
	acc.TotalGoalsError = absInt((predHome + predAway) - (actualHome + actualAway))

	// Market calls use 50% as the decision threshold
	actualBtts := actualHome > 0 && actualAway > 0
	acc.BttsCorrect = (p.BttsProb >= 50) == actualBtts
	actualOver15 := actualHome+actualAway > 1
	acc.Over15Correct = (p.Over15Prob >= 50) == actualOver15

	return acc, nil
}

// AggregateAccuracies folds per-match evaluations into batch rates.
// Returns nil for an empty batch.
func AggregateAccuracies(accs []*PredictionAccuracy, preds map[string]*MatchPrediction) *AggregateAccuracy {
	if len(accs) == 0 {
		return nil
	}

	agg := &AggregateAccuracy{TotalMatches: len(accs)}
	var exact, result, btts, over int
	var goalDiffErr, totalGoalsErr int
	var reliableResult int

	for _, acc := range accs {
		if acc.ExactScoreCorrect {
			exact++
		}
		if acc.ResultCorrect {
			result++
		}
		if acc.BttsCorrect {
			btts++
		}
		if acc.Over15Correct {
			over++
		}
		goalDiffErr += acc.GoalDifferenceError
		totalGoalsErr += acc.TotalGoalsError

		if p, ok := preds[acc.MatchURL]; ok && p.Reliable {
			agg.ReliableMatches++
			if acc.ResultCorrect {
				reliableResult++
			}
		}
	}

	n := float64(len(accs))
	agg.ExactScoreRate = float64(exact) / n * 100
	agg.ResultRate = float64(result) / n * 100
	agg.BttsRate = float64(btts) / n * 100
	agg.Over15Rate = float64(over) / n * 100
	agg.AvgGoalDiffError = float64(goalDiffErr) / n
	agg.AvgTotalGoalsError = float64(totalGoalsErr) / n
	if agg.ReliableMatches > 0 {
		agg.ReliableResultRate = float64(reliableResult) / float64(agg.ReliableMatches) * 100
	}
	return agg
}

// AccuracyReport pairs per-match evaluations with their aggregate
type AccuracyReport struct {
	Matches   []*PredictionAccuracy `json:"matches"`
	Aggregate *AggregateAccuracy    `json:"aggregate"`
}

// EvaluateStored scores the stored predictions for a date against the
// supplied final results, keyed by match URL. Matches without a
// supplied result are skipped; degraded records evaluate to nothing.
func EvaluateStored(store *Store, date string, scores map[string]string) (*AccuracyReport, error) {
	stored, err := store.PredictionsForDate(date)
	if err != nil {
		return nil, err
	}

	byURL := make(map[string]*MatchPrediction, len(stored))
	var accs []*PredictionAccuracy
	for _, p := range stored {
		byURL[p.MatchURL] = p
		actual, ok := scores[p.MatchURL]
		if !ok {
			continue
		}
		acc, err := EvaluatePrediction(p, actual)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s: %w", p.MatchURL, err)
		}
		if acc != nil {
			accs = append(accs, acc)
		}
	}

	return &AccuracyReport{Matches: accs, Aggregate: AggregateAccuracies(accs, byURL)}, nil
}

// matchResult classifies a scoreline as home win, draw or away win
func matchResult(home, away int) string {
	switch {
	case home > away:
		return "H"
	case home < away:
		return "A"
	default:
		return "D"
	}
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
