package preds

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings such as
// "12h" or "500ms"
type Duration time.Duration

// UnmarshalYAML parses a duration string
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration back to its string form
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the duration as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LeagueKeywords maps a league display name to the lowercase keywords that
// identify it in page text. First match wins.
type LeagueKeywords struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Config contains every parameter that influences pipeline outcomes.
// Historical pipeline variants are presets of this one structure rather
// than separate code paths.
type Config struct {
	// === SOURCE ===

	BaseURL string `yaml:"baseUrl"` // prediction site root, no trailing slash

	// === FETCH / RETRY ===

	MaxRetries        int      `yaml:"maxRetries"`        // attempts per URL (default: 3)
	RetryDelay        Duration `yaml:"retryDelay"`        // fixed inter-attempt delay (default: 2s)
	FetchTimeout      Duration `yaml:"fetchTimeout"`      // per-attempt timeout (default: 10s)
	UserAgent         string   `yaml:"userAgent"`         // constant browser-like User-Agent
	RequestsPerSecond float64  `yaml:"requestsPerSecond"` // request pacing across the batch (default: 4)

	// === CACHE / PERSISTENCE ===

	CacheDir string   `yaml:"cacheDir"` // per-date snapshot directory
	CacheTTL Duration `yaml:"cacheTtl"` // snapshot lifetime from last write (default: 24h)
	DbPath   string   `yaml:"dbPath"`   // sqlite prediction history, empty disables the store

	// === GOAL MODEL ===

	// Form weighting, most recent game first; W=3 D=1 L=0 points before
	// weighting, normalized by total weight to a 0-3 scale.
	FormWeights    []float64 `yaml:"formWeights"`
	FormWinPoints  float64   `yaml:"formWinPoints"`
	FormDrawPoints float64   `yaml:"formDrawPoints"`
	FormLossPoints float64   `yaml:"formLossPoints"`

	MomentumBonus  float64 `yaml:"momentumBonus"`  // added when the two most recent results are wins (default: 0.3)
	OverRateScale  float64 `yaml:"overRateScale"`  // over-2.5 rate contribution to lambda (default: 1.5)
	FormScale      float64 `yaml:"formScale"`      // form score contribution to lambda (default: 0.3)
	HomeAdvantage  float64 `yaml:"homeAdvantage"`  // home lambda multiplier (default: 1.15)
	BttsAdjustment float64 `yaml:"bttsAdjustment"` // max lambda swing from BTTS deviation (default: 0.2 = +/-10%)
	HalfTimeScale  float64 `yaml:"halfTimeScale"`  // proportion of goals falling in the first half (default: 0.45)
	MaxGoals       int     `yaml:"maxGoals"`       // scoreline grid bound per side, 0..MaxGoals (default: 5)

	// === QUALITY GATE ===

	QualityFloor float64 `yaml:"qualityFloor"` // below this score a record is marked unreliable (default: 60)

	// === VIP RANKER ===

	ShortlistSize int `yaml:"shortlistSize"` // shortlist bound, 15-25 (default: 15)

	EloBase   float64 `yaml:"eloBase"`   // rating baseline (default: 1500)
	EloSpread float64 `yaml:"eloSpread"` // rating swing across the form scale (default: 200)
	EloScale  float64 `yaml:"eloScale"`  // logistic divisor for rating difference (default: 400)

	// Reliability blend, documented not learned. The weighted sum is
	// divided by BlendDivisor to centre scores near 0-100.
	WeightLay       float64 `yaml:"weightLay"`
	WeightGoal      float64 `yaml:"weightGoal"`
	WeightFirstHalf float64 `yaml:"weightFirstHalf"`
	WeightBtts      float64 `yaml:"weightBtts"`
	WeightRefined   float64 `yaml:"weightRefined"`
	WeightPoisson   float64 `yaml:"weightPoisson"`
	WeightElo       float64 `yaml:"weightElo"`
	WeightFormEdge  float64 `yaml:"weightFormEdge"`
	BlendDivisor    float64 `yaml:"blendDivisor"`

	// === LEAGUE DETECTION ===

	Leagues []LeagueKeywords `yaml:"leagues"`
}

// DefaultConfig returns the standard configuration
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	assets := filepath.Join(home, ".stattip")

	return &Config{
		BaseURL: "https://www.mybets.today",

		MaxRetries:        3,
		RetryDelay:        Duration(2 * time.Second),
		FetchTimeout:      Duration(10 * time.Second),
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		RequestsPerSecond: 4,

		CacheDir: filepath.Join(assets, "cache"),
		CacheTTL: Duration(24 * time.Hour),
		DbPath:   filepath.Join(assets, "stattip.db"),

		FormWeights:    []float64{1.5, 1.2, 1.0, 0.8, 0.5},
		FormWinPoints:  3,
		FormDrawPoints: 1,
		FormLossPoints: 0,

		MomentumBonus:  0.3,
		OverRateScale:  1.5,
		FormScale:      0.3,
		HomeAdvantage:  1.15,
		BttsAdjustment: 0.2,
		HalfTimeScale:  0.45,
		MaxGoals:       5,

		QualityFloor: 60,

		ShortlistSize: 15,

		EloBase:   1500,
		EloSpread: 200,
		EloScale:  400,

		WeightLay:       0.4,
		WeightGoal:      0.3,
		WeightFirstHalf: 0.2,
		WeightBtts:      0.1,
		WeightRefined:   0.2,
		WeightPoisson:   0.2,
		WeightElo:       0.1,
		WeightFormEdge:  0.1,
		BlendDivisor:    1.5,

		Leagues: []LeagueKeywords{
			{Name: "Premier League", Keywords: []string{"premier league", "epl"}},
			{Name: "La Liga", Keywords: []string{"la liga", "liga bbva"}},
			{Name: "Serie A", Keywords: []string{"serie a", "calcio"}},
			{Name: "Bundesliga", Keywords: []string{"bundesliga"}},
			{Name: "Ligue 1", Keywords: []string{"ligue 1"}},
			{Name: "Champions League", Keywords: []string{"champions league", "ucl"}},
			{Name: "Europa League", Keywords: []string{"europa league", "uel"}},
		},
	}
}

// LoadConfig overlays the YAML file at path onto the defaults. A missing
// path returns the defaults untouched.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all configuration values are within reasonable ranges
func (c *Config) Validate() error {
	if c.MaxRetries < 1 {
		return fmt.Errorf("MaxRetries must be at least 1, got: %d", c.MaxRetries)
	}
	if len(c.FormWeights) == 0 {
		return fmt.Errorf("FormWeights must not be empty")
	}
	for i, w := range c.FormWeights {
		if w <= 0 {
			return fmt.Errorf("FormWeights[%d] must be positive, got: %f", i, w)
		}
	}
	if c.HomeAdvantage < 1.0 || c.HomeAdvantage > 1.5 {
		return fmt.Errorf("HomeAdvantage should be between 1.0 and 1.5, got: %f", c.HomeAdvantage)
	}
	if c.BttsAdjustment < 0 || c.BttsAdjustment > 1 {
		return fmt.Errorf("BttsAdjustment should be between 0 and 1, got: %f", c.BttsAdjustment)
	}
	if c.HalfTimeScale <= 0 || c.HalfTimeScale >= 1 {
		return fmt.Errorf("HalfTimeScale should be between 0 and 1, got: %f", c.HalfTimeScale)
	}
	if c.MaxGoals < 3 {
		return fmt.Errorf("MaxGoals should be at least 3 to capture realistic scores, got: %d", c.MaxGoals)
	}
	if c.ShortlistSize < 1 || c.ShortlistSize > 25 {
		return fmt.Errorf("ShortlistSize should be between 1 and 25, got: %d", c.ShortlistSize)
	}
	if c.BlendDivisor <= 0 {
		return fmt.Errorf("BlendDivisor must be positive, got: %f", c.BlendDivisor)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CacheTTL must be positive, got: %s", c.CacheTTL.Std())
	}
	return nil
}

// ListURL returns the fixture list URL for a supported date parameter
// ("yesterday", "today", "tomorrow", "after-tomorrow")
func (c *Config) ListURL(dateParam string) string {
	if dateParam == "today" {
		return c.BaseURL + "/soccer-predictions/"
	}
	return c.BaseURL + "/soccer-predictions/" + dateParam + "/"
}
