package preds

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/stattip/stattip/internal/logger"
	"github.com/stattip/stattip/pkg/util"
)

// SignalExtractor turns raw page bytes into structured signals.
// Implementations must degrade rather than fail: a page missing a signal
// yields the documented default for that field, not an error. An error is
// returned only when the page cannot be parsed at all.
type SignalExtractor interface {
	// FixtureLinks returns the absolute URLs of every analysis page
	// linked from a daily listing page, in document order, de-duplicated.
	FixtureLinks(listHTML []byte, baseURL string) ([]string, error)

	// Extract pulls all match signals from one analysis page.
	Extract(matchHTML []byte, matchURL, date string) (*RawSignals, error)
}

/////////////////////////////////////////////////////////////////////////
////// Regex Catalogue
/////////////////////////////////////////////////////////////////////////

// The analysis pages are prose, not structured markup, so most signals
// come from sentence patterns. The page is reduced to markdown first
// which flattens tag noise but can leave *, _, | and - around the text,
// hence the tolerant separator classes.
var (
	reExactScoreWithTime = regexp.MustCompile(`says (\d+:\d+) to be the exact final score with (\d+)%`)
	reScoreConfidence    = regexp.MustCompile(`the exact final score with (\d+)%`)
	reBttsYes            = regexp.MustCompile(`have a Yes in both teams have scored in (\d+)% of the games in their last 10 games\.`)
	reForm               = regexp.MustCompile(`PRE GAME FORM[\s|*_:\-]*([WDL]{5})[\s|*_:\-]*([WDL]{5})`)
	reOver25             = regexp.MustCompile(`have Over 2\.5 goals scored in (\d+)% of the games in their last 10 games\.`)
	reCleanSheet         = regexp.MustCompile(`kept a clean sheet in (\d+)% of the games in their last 10 games\.`)
	reKickoff            = regexp.MustCompile(`kicks off at (\d{2}:\d{2})`)
	reAnalysisLink       = regexp.MustCompile(`analysis-.+-betting-tip`)
)

/////////////////////////////////////////////////////////////////////////
////// MyBets Extractor
/////////////////////////////////////////////////////////////////////////

// MyBetsExtractor extracts signals from mybets.today pages
type MyBetsExtractor struct {
	leagues []LeagueKeywords
}

// NewMyBetsExtractor creates an extractor using the given league keyword table
func NewMyBetsExtractor(leagues []LeagueKeywords) *MyBetsExtractor {
	return &MyBetsExtractor{leagues: leagues}
}

// FixtureLinks finds the analysis page URLs on a daily listing page
func (e *MyBetsExtractor) FixtureLinks(listHTML []byte, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(listHTML)))
	if err != nil {
		return nil, fmt.Errorf("error parsing listing page: %w", err)
	}

	seen := make(map[string]bool)
	links := []string{}
	doc.Find(".event-fixtures a").Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !reAnalysisLink.MatchString(href) {
			return
		}
		if !strings.HasPrefix(href, "http") {
			href = baseURL + href
		}
		if seen[href] {
			return
		}
		seen[href] = true
		links = append(links, href)
	})
	return links, nil
}

// Extract pulls every signal from one analysis page. Missing signals fall
// back to 0 or "N/A" and are logged at debug level only, since partial
// pages are routine.
func (e *MyBetsExtractor) Extract(matchHTML []byte, matchURL, date string) (*RawSignals, error) {
	page := string(matchHTML)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("error parsing analysis page: %w", err)
	}

	// Reduce the page to markdown for the sentence-pattern scans. The
	// raw HTML splits sentences across tags which breaks the regexes.
	text, err := htmltomarkdown.ConvertString(page)
	if err != nil {
		logger.Warn("markdown reduction failed for", matchURL, "falling back to raw text")
		text = doc.Text()
	}

	s := NewRawSignals(matchURL, date)
	s.League = e.classifyLeague(text)

	e.extractScoreline(text, s)
	e.extractBtts(text, s)
	e.extractForm(text, s)
	e.extractOverAndClean(text, s)
	e.extractKickoff(doc, s)
	e.extractOtherProb(doc, s)

	return s, nil
}

// extractScoreline reads the tipped exact score and its confidence.
// The full pattern carries both; when only the trailing half matches the
// confidence is kept and the score stays at its default.
func (e *MyBetsExtractor) extractScoreline(text string, s *RawSignals) {
	if m := reExactScoreWithTime.FindStringSubmatch(text); m != nil {
		s.TippedScore = m[1]
		s.TippedScoreConf = util.ParsePercent(m[2])
		s.LayBasisConf = s.TippedScoreConf
		return
	}
	if m := reScoreConfidence.FindStringSubmatch(text); m != nil {
		s.TippedScoreConf = util.ParsePercent(m[1])
		s.LayBasisConf = s.TippedScoreConf
		return
	}
	logger.Debug("no tipped score found for", s.MatchURL)
}

// extractBtts reads the two BTTS percentages. The page states them home
// side first. Pages occasionally repeat the sentence in a summary block,
// so the occurrence count is kept for the quality gate.
func (e *MyBetsExtractor) extractBtts(text string, s *RawSignals) {
	all := reBttsYes.FindAllStringSubmatch(text, -1)
	s.BttsOccurrences = len(all)
	if len(all) >= 1 {
		s.HomeBtts = util.ParsePercent(all[0][1])
	}
	if len(all) >= 2 {
		s.AwayBtts = util.ParsePercent(all[1][1])
	}
}

// extractForm reads both five-character form strings from the pre-game
// form banner
func (e *MyBetsExtractor) extractForm(text string, s *RawSignals) {
	if m := reForm.FindStringSubmatch(text); m != nil {
		s.HomeForm = m[1]
		s.AwayForm = m[2]
	}
}

// extractOverAndClean reads the over-2.5 and clean-sheet rates, first
// occurrence home, second away
func (e *MyBetsExtractor) extractOverAndClean(text string, s *RawSignals) {
	if all := reOver25.FindAllStringSubmatch(text, 2); len(all) > 0 {
		s.HomeOver = util.ParsePercent(all[0][1])
		if len(all) > 1 {
			s.AwayOver = util.ParsePercent(all[1][1])
		}
	}
	if all := reCleanSheet.FindAllStringSubmatch(text, 2); len(all) > 0 {
		s.HomeClean = util.ParsePercent(all[0][1])
		if len(all) > 1 {
			s.AwayClean = util.ParsePercent(all[1][1])
		}
	}
}

// extractKickoff reads the kickoff time from the first paragraph that
// states one
func (e *MyBetsExtractor) extractKickoff(doc *goquery.Document, s *RawSignals) {
	doc.Find("p").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if m := reKickoff.FindStringSubmatch(sel.Text()); m != nil {
			s.KickoffTime = m[1]
			return false
		}
		return true
	})
}

// extractOtherProb reads the "Other" cell of the correct score widget.
// The label element is followed by a sibling holding the percentage.
func (e *MyBetsExtractor) extractOtherProb(doc *goquery.Document, s *RawSignals) {
	doc.Find(".predictionlabel").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Text()) != "Other" {
			return true
		}
		s.OtherProb = util.ParsePercent(strings.TrimSpace(sel.Next().Text()))
		return false
	})
}

// classifyLeague maps page text to a league name via the keyword table.
// First table entry with any matching keyword wins.
func (e *MyBetsExtractor) classifyLeague(text string) string {
	lower := strings.ToLower(text)
	for _, lk := range e.leagues {
		for _, kw := range lk.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return lk.Name
			}
		}
	}
	return "Unknown"
}

/////////////////////////////////////////////////////////////////////////
////// URL Helpers
/////////////////////////////////////////////////////////////////////////

// TeamNamesFromURL recovers readable team names from an analysis URL of
// the shape .../analysis-<home>-vs-<away>-betting-tip... Both names fall
// back to "Unknown" when the URL does not follow the pattern.
func TeamNamesFromURL(matchURL string) (home, away string) {
	home, away = "Unknown", "Unknown"

	idx := strings.LastIndex(matchURL, "analysis-")
	if idx < 0 {
		return home, away
	}
	slug := matchURL[idx+len("analysis-"):]
	if cut := strings.Index(slug, "-betting-tip"); cut >= 0 {
		slug = slug[:cut]
	}
	parts := strings.SplitN(slug, "-vs-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return home, away
	}
	return util.TitleFromSlug(parts[0]), util.TitleFromSlug(parts[1])
}
