package preds

// Defaults applied when a pattern does not match. Absence of a signal is
// not an error; downstream validation flags records built mostly from
// defaults.
const (
	DefaultTime  = "N/A"
	DefaultScore = "N/A"
	DefaultForm  = "N/A"
)

// RawSignals holds the statistical signals extracted from one match
// preview page. Created fresh per fetch and never mutated afterwards.
// All rate fields are percentages in 0-100 with 0 as the missing-pattern
// default. Form strings are five W/D/L characters, most recent first.
type RawSignals struct {
	MatchURL string `json:"match"`
	Date     string `json:"date"`

	HomeTeam string `json:"homeTeam"`
	AwayTeam string `json:"awayTeam"`
	League   string `json:"league"`

	KickoffTime string `json:"time"`

	TippedScore     string  `json:"tippedScore"`
	TippedScoreConf float64 `json:"tippedScoreConf"`
	// Secondary confidence from the looser "exact final score" phrase;
	// kept as an independent extraction for downstream blending.
	LayBasisConf float64 `json:"layBasisConf"`

	HomeBtts float64 `json:"homeBtts"`
	AwayBtts float64 `json:"awayBtts"`

	HomeForm string `json:"homeForm"`
	AwayForm string `json:"awayForm"`

	HomeOver float64 `json:"homeOver"`
	AwayOver float64 `json:"awayOver"`

	HomeClean float64 `json:"homeClean"`
	AwayClean float64 `json:"awayClean"`

	OtherProb float64 `json:"otherProb"`

	// Number of occurrences seen by the two-per-signal document scan.
	// Document order is assumed home-team-first; this count lets captured
	// pages audit that assumption.
	BttsOccurrences int `json:"-"`
}

// NewRawSignals returns a RawSignals with every field at its documented
// default for the given match and date
func NewRawSignals(matchURL, date string) *RawSignals {
	home, away := TeamNamesFromURL(matchURL)
	return &RawSignals{
		MatchURL:    matchURL,
		Date:        date,
		HomeTeam:    home,
		AwayTeam:    away,
		League:      "Unknown",
		KickoffTime: DefaultTime,
		TippedScore: DefaultScore,
		HomeForm:    DefaultForm,
		AwayForm:    DefaultForm,
	}
}
