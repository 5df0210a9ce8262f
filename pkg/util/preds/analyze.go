package preds

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stattip/stattip/internal/logger"
)

// ErrUnsupportedDate is returned when the requested date falls outside
// the upstream site's published window of yesterday through the day
// after tomorrow.
var ErrUnsupportedDate = errors.New("date outside the supported yesterday to after-tomorrow window")

// Fetcher retrieves one page. The production implementation wraps the
// shared HTTP client with its retry policy; tests substitute fixtures.
type Fetcher interface {
	Fetch(url string) ([]byte, error)
}

// Pipeline wires fetch, extraction, modelling, quality checks, caching
// and persistence into the two public operations Analyze and RankVIP.
type Pipeline struct {
	cfg       *Config
	fetcher   Fetcher
	extractor SignalExtractor
	model     *GoalModel
	gate      *QualityGate
	cache     *SnapshotCache
	store     *Store
	metrics   *PipelineMetrics
}

// NewPipeline assembles a pipeline. store may be nil to disable
// persistence; everything else is required.
func NewPipeline(cfg *Config, fetcher Fetcher, extractor SignalExtractor,
	model *GoalModel, gate *QualityGate, cache *SnapshotCache,
	store *Store, metrics *PipelineMetrics) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		model:     model,
		gate:      gate,
		cache:     cache,
		store:     store,
		metrics:   metrics,
	}
}

/////////////////////////////////////////////////////////////////////////
////// Date Window
/////////////////////////////////////////////////////////////////////////

// ResolveDateParam maps a YYYY-MM-DD date onto the upstream site's
// named path segments. Only yesterday through after-tomorrow exist on
// the site; anything else returns ErrUnsupportedDate.
func ResolveDateParam(date string, now time.Time) (string, error) {
	target, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", date, err)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// Compare calendar dates rather than subtracting times; a clock
	// change makes the midnight-to-midnight gap 23 or 25 hours and a
	// duration division lands in the wrong day.
	params := []string{"yesterday", "today", "tomorrow", "after-tomorrow"}
	for i, param := range params {
		day := today.AddDate(0, 0, i-1)
		if target.Year() == day.Year() && target.YearDay() == day.YearDay() {
			return param, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedDate, date)
}

/////////////////////////////////////////////////////////////////////////
////// Analysis
/////////////////////////////////////////////////////////////////////////

// Analyze produces the full prediction set for a date. A fresh cache
// entry short-circuits the whole pipeline. Individual match failures
// degrade to marked records rather than failing the run; the returned
// set contains only well-formed records, with degraded ones filtered
// out at the end.
func (p *Pipeline) Analyze(date string) ([]*MatchPrediction, error) {
	param, err := ResolveDateParam(date, time.Now())
	if err != nil {
		return nil, err
	}

	var cached []*MatchPrediction
	if p.cache.Get(SnapshotKindMatches, date, &cached) {
		p.metrics.CacheLookups.WithLabelValues(SnapshotKindMatches, "hit").Inc()
		return cached, nil
	}
	p.metrics.CacheLookups.WithLabelValues(SnapshotKindMatches, "miss").Inc()

	start := time.Now()
	defer func() {
		p.metrics.AnalyzeDuration.Observe(time.Since(start).Seconds())
	}()

	listURL := p.cfg.ListURL(param)
	logger.Info("Analyzing matches for", date, "from", listURL)

	listHTML, err := p.fetchPage(listURL, "listing")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch the daily listing: %w", err)
	}

	links, err := p.extractor.FixtureLinks(listHTML, p.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture links: %w", err)
	}
	if len(links) == 0 {
		logger.Warn("No fixtures found for", date)
		return []*MatchPrediction{}, nil
	}
	logger.Info("Found", len(links), "fixtures for", date)

	// Fan out one goroutine per match. The indexed slice keeps results
	// in listing order regardless of completion order.
	results := make([]*MatchPrediction, len(links))
	var wg sync.WaitGroup
	for i, link := range links {
		wg.Add(1)
		go func(i int, link string) {
			defer wg.Done()
			results[i] = p.analyzeMatch(link, date)
		}(i, link)
	}
	wg.Wait()

	kept := make([]*MatchPrediction, 0, len(results))
	degraded := 0
	for _, r := range results {
		if r.Degraded || !WellFormed(r) {
			degraded++
			p.metrics.MatchesProcessed.WithLabelValues("degraded").Inc()
			continue
		}
		p.metrics.MatchesProcessed.WithLabelValues("ok").Inc()
		p.metrics.QualityScore.Observe(r.QualityScore)
		kept = append(kept, r)
	}
	if degraded > 0 {
		logger.Warn(fmt.Sprintf("%d/%d matches degraded for", degraded, len(results)), date)
	}

	if err := p.cache.Put(SnapshotKindMatches, date, kept); err != nil {
		logger.Warn("Failed to cache predictions for", date, err)
	}
	if p.store != nil {
		if err := p.store.SavePredictions(kept); err != nil {
			logger.Warn("Failed to persist predictions for", date, err)
		}
	}

	return kept, nil
}

// analyzeMatch runs one match end to end. Any failure yields a
// degraded record carrying the cause.
func (p *Pipeline) analyzeMatch(link, date string) *MatchPrediction {
	html, err := p.fetchPage(link, "match")
	if err != nil {
		logger.Warn("Failed to fetch", link, err)
		return NewDegradedPrediction(link, date, err)
	}

	signals, err := p.extractor.Extract(html, link, date)
	if err != nil {
		logger.Warn("Failed to extract signals from", link, err)
		return NewDegradedPrediction(link, date, err)
	}
	p.countDefaults(signals)

	return p.gate.Check(p.model.Predict(signals))
}

func (p *Pipeline) fetchPage(url, kind string) ([]byte, error) {
	start := time.Now()
	body, err := p.fetcher.Fetch(url)
	p.metrics.FetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.FetchesTotal.WithLabelValues(kind, "error").Inc()
		return nil, err
	}
	p.metrics.FetchesTotal.WithLabelValues(kind, "ok").Inc()
	return body, nil
}

// countDefaults records which signals came back at their default so a
// drift in the upstream page format shows up in the metrics before it
// shows up as bad predictions
func (p *Pipeline) countDefaults(s *RawSignals) {
	if s.TippedScore == DefaultScore {
		p.metrics.SignalDefaults.WithLabelValues("tipped_score").Inc()
	}
	if s.HomeForm == DefaultForm || s.AwayForm == DefaultForm {
		p.metrics.SignalDefaults.WithLabelValues("form").Inc()
	}
	if s.HomeOver == 0 && s.AwayOver == 0 {
		p.metrics.SignalDefaults.WithLabelValues("over_rate").Inc()
	}
	if s.HomeBtts == 0 && s.AwayBtts == 0 {
		p.metrics.SignalDefaults.WithLabelValues("btts").Inc()
	}
	if s.KickoffTime == DefaultTime {
		p.metrics.SignalDefaults.WithLabelValues("kickoff").Inc()
	}
}
