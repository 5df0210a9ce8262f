package preds

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Compile-time check to ensure MatchPrediction implements Persistable
var _ Persistable = (*MatchPrediction)(nil)

// MatchPrediction is the fully processed record for one match: the raw
// extracted signals plus the goal model's derived markets and the quality
// verdict. Percentage fields are 0-100; GoalProb alone is a fraction in
// 0-1. A record with Reliable=false is still well-formed; reliability is
// advisory, not a validity gate.
type MatchPrediction struct {
	// Primary key
	MatchURL string `json:"match" column:"match_url" dbtype:"TEXT NOT NULL" primary:"true"`
	Date     string `json:"date" column:"date" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`

	// Extracted signals
	HomeTeam    string  `json:"homeTeam" column:"home_team" dbtype:"TEXT"`
	AwayTeam    string  `json:"awayTeam" column:"away_team" dbtype:"TEXT"`
	League      string  `json:"league" column:"league" dbtype:"TEXT" index:"true"`
	KickoffTime string  `json:"time" column:"kickoff_time" dbtype:"TEXT"`
	HomeForm    string  `json:"team1Form" column:"home_form" dbtype:"TEXT"`
	AwayForm    string  `json:"team2Form" column:"away_form" dbtype:"TEXT"`
	HomeOver    float64 `json:"team1Over" column:"home_over" dbtype:"REAL DEFAULT 0.0"`
	AwayOver    float64 `json:"team2Over" column:"away_over" dbtype:"REAL DEFAULT 0.0"`
	HomeBtts    float64 `json:"team1Btts" column:"home_btts" dbtype:"REAL DEFAULT 0.0"`
	AwayBtts    float64 `json:"team2Btts" column:"away_btts" dbtype:"REAL DEFAULT 0.0"`
	HomeClean   float64 `json:"team1Clean" column:"home_clean" dbtype:"REAL DEFAULT 0.0"`
	AwayClean   float64 `json:"team2Clean" column:"away_clean" dbtype:"REAL DEFAULT 0.0"`
	OtherProb   float64 `json:"otherProb" column:"other_prob" dbtype:"REAL DEFAULT 0.0"`

	// Expected goals after all adjustments
	HomeExpectedGoals float64 `json:"homeExpectedGoals" column:"home_expected_goals" dbtype:"REAL DEFAULT 0.0"`
	AwayExpectedGoals float64 `json:"awayExpectedGoals" column:"away_expected_goals" dbtype:"REAL DEFAULT 0.0"`

	// Derived markets (percentages)
	CorrectScore      string  `json:"correctScore" column:"correct_score" dbtype:"TEXT"`
	CorrectScoreProb  float64 `json:"correctScoreProb" column:"correct_score_prob" dbtype:"REAL DEFAULT 0.0"`
	LayProb           float64 `json:"layProb" column:"lay_prob" dbtype:"REAL DEFAULT 0.0"`
	BttsProb          float64 `json:"bttsProb" column:"btts_prob" dbtype:"REAL DEFAULT 0.0"`
	Over15Prob        float64 `json:"over15Prob" column:"over15_prob" dbtype:"REAL DEFAULT 0.0"`
	FirstHalfGoalProb float64 `json:"firstHalfGoalProb" column:"first_half_goal_prob" dbtype:"REAL DEFAULT 0.0"`

	// Overall goal probability, fraction in 0-1 (distinct scale by design)
	GoalProb float64 `json:"goalProb" column:"goal_prob" dbtype:"REAL DEFAULT 0.0"`

	// Quality verdict
	QualityScore   float64  `json:"qualityScore" column:"quality_score" dbtype:"REAL DEFAULT 100.0"`
	Anomalies      []string `json:"anomalies,omitempty"`
	AnomalySummary string   `json:"-" column:"anomaly_summary" dbtype:"TEXT"`
	Reliable       bool     `json:"reliable" column:"reliable" dbtype:"BOOLEAN DEFAULT 1"`

	// Degraded records carry the failure that produced them and are
	// excluded from the reliable set but still counted.
	Degraded    bool   `json:"-" column:"degraded" dbtype:"BOOLEAN DEFAULT 0"`
	ErrorMarker string `json:"error,omitempty" column:"error_marker" dbtype:"TEXT"`

	// Metadata
	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updatedAt" column:"updated_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

// NewDegradedPrediction builds the minimal record for a match whose fetch
// or extraction failed. Fields sit at their defaults; the error marker
// records why.
func NewDegradedPrediction(matchURL, date string, cause error) *MatchPrediction {
	home, away := TeamNamesFromURL(matchURL)
	return &MatchPrediction{
		MatchURL:     matchURL,
		Date:         date,
		HomeTeam:     home,
		AwayTeam:     away,
		League:       "Unknown",
		KickoffTime:  DefaultTime,
		HomeForm:     DefaultForm,
		AwayForm:     DefaultForm,
		CorrectScore: DefaultScore,
		QualityScore: 0,
		Reliable:     false,
		Degraded:     true,
		ErrorMarker:  cause.Error(),
	}
}

// ScorelineGoals parses a "G1:G2" scoreline. ok is false for the "N/A"
// default or any malformed value.
func ScorelineGoals(score string) (home, away int, ok bool) {
	parts := strings.Split(score, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return h, a, true
}

/////////////////////////////////////////////////////////////////////////
////// Persistable Interface Implementation
/////////////////////////////////////////////////////////////////////////

// GetTableName returns the table name for predictions
func (p *MatchPrediction) GetTableName() string {
	return "prediction"
}

// GetPrimaryKey returns the compound primary key as a map
func (p *MatchPrediction) GetPrimaryKey() map[string]any {
	return map[string]any{
		"match_url": p.MatchURL,
		"date":      p.Date,
	}
}

// BeforeSave derives stored fields and stamps timestamps
func (p *MatchPrediction) BeforeSave() error {
	if p.MatchURL == "" || p.Date == "" {
		return fmt.Errorf("prediction is missing its primary key (match %q, date %q)", p.MatchURL, p.Date)
	}
	p.AnomalySummary = strings.Join(p.Anomalies, ";")
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return nil
}

// AfterLoad rebuilds the in-memory fields a SELECT cannot scan directly
func (p *MatchPrediction) AfterLoad() {
	if p.AnomalySummary != "" {
		p.Anomalies = strings.Split(p.AnomalySummary, ";")
	}
}

// VIPEntry is a read-side projection of a MatchPrediction carrying the
// composite reliability score and its explanation. Never persisted as a
// primary record.
type VIPEntry struct {
	MatchPrediction

	ReliabilityScore float64 `json:"reliabilityScore"`
	CertaintyLevel   string  `json:"certaintyLevel"`
	ErrorMargin      float64 `json:"errorMargin"`
	Rationale        string  `json:"evaluationCriteria"`

	PoissonProb float64 `json:"poissonProb"`
	EloProb     float64 `json:"eloProb"`
	FormEdge    float64 `json:"formEdge"`
}

// Certainty labels, ordered from most to least confident
const (
	CertaintyVerySafe       = "very-safe"
	CertaintyProbable       = "probable"
	CertaintyToConsider     = "to-consider"
	CertaintyLowReliability = "low-reliability"
)

// CertaintyLabel buckets a reliability score into its label
func CertaintyLabel(score float64) string {
	switch {
	case score > 90:
		return CertaintyVerySafe
	case score >= 70:
		return CertaintyProbable
	case score >= 50:
		return CertaintyToConsider
	default:
		return CertaintyLowReliability
	}
}
