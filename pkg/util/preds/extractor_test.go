package preds

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAnalysisPage = `<html><body>
<p>This match kicks off at 19:45 at the City Ground.</p>
<h2>Match Preview</h2>
<p>Our algorithm says 2:0 to be the exact final score with 24% probability.</p>
<p>PRE GAME FORM WWDWL LDLLD</p>
<p>Alpha United have a Yes in both teams have scored in 70% of the games in their last 10 games.</p>
<p>Omega City have a Yes in both teams have scored in 30% of the games in their last 10 games.</p>
<p>Alpha United have Over 2.5 goals scored in 80% of the games in their last 10 games.</p>
<p>Omega City have Over 2.5 goals scored in 20% of the games in their last 10 games.</p>
<p>Alpha United kept a clean sheet in 40% of the games in their last 10 games.</p>
<p>Omega City kept a clean sheet in 60% of the games in their last 10 games.</p>
<p>Both sides meet in the Premier League this weekend.</p>
<div class="predictions">
  <span class="predictionlabel">2:0</span><span>24%</span>
  <span class="predictionlabel">Other</span><span>12%</span>
</div>
</body></html>`

const testMatchURL = "https://www.mybets.today/soccer-predictions/analysis-alpha-united-vs-omega-city-betting-tip/"

func TestExtractFullPage(t *testing.T) {
	e := NewMyBetsExtractor(DefaultConfig().Leagues)

	s, err := e.Extract([]byte(testAnalysisPage), testMatchURL, "2026-08-31")
	require.NoError(t, err)

	assert.Equal(t, "Alpha United", s.HomeTeam)
	assert.Equal(t, "Omega City", s.AwayTeam)
	assert.Equal(t, "Premier League", s.League)
	assert.Equal(t, "19:45", s.KickoffTime)

	assert.Equal(t, "2:0", s.TippedScore)
	assert.Equal(t, 24.0, s.TippedScoreConf)

	assert.Equal(t, "WWDWL", s.HomeForm)
	assert.Equal(t, "LDLLD", s.AwayForm)

	assert.Equal(t, 70.0, s.HomeBtts)
	assert.Equal(t, 30.0, s.AwayBtts)
	assert.Equal(t, 2, s.BttsOccurrences)

	assert.Equal(t, 80.0, s.HomeOver)
	assert.Equal(t, 20.0, s.AwayOver)
	assert.Equal(t, 40.0, s.HomeClean)
	assert.Equal(t, 60.0, s.AwayClean)

	assert.Equal(t, 12.0, s.OtherProb)
}

func TestExtractEmptyPageYieldsDefaults(t *testing.T) {
	e := NewMyBetsExtractor(DefaultConfig().Leagues)

	s, err := e.Extract([]byte("<html><body><p>Nothing here.</p></body></html>"), testMatchURL, "2026-08-31")
	require.NoError(t, err)

	assert.Equal(t, DefaultScore, s.TippedScore)
	assert.Equal(t, DefaultTime, s.KickoffTime)
	assert.Equal(t, DefaultForm, s.HomeForm)
	assert.Equal(t, DefaultForm, s.AwayForm)
	assert.Equal(t, 0.0, s.HomeOver)
	assert.Equal(t, 0.0, s.AwayBtts)
	assert.Equal(t, 0.0, s.OtherProb)
	assert.Equal(t, "Unknown", s.League)

	// Team names still come from the URL
	assert.Equal(t, "Alpha United", s.HomeTeam)
	assert.Equal(t, "Omega City", s.AwayTeam)
}

func TestExtractConfidenceWithoutScore(t *testing.T) {
	e := NewMyBetsExtractor(DefaultConfig().Leagues)

	page := "<html><body><p>We predict the exact final score with 18% probability.</p></body></html>"
	s, err := e.Extract([]byte(page), testMatchURL, "2026-08-31")
	require.NoError(t, err)

	assert.Equal(t, DefaultScore, s.TippedScore)
	assert.Equal(t, 18.0, s.TippedScoreConf)
}

func TestFixtureLinks(t *testing.T) {
	e := NewMyBetsExtractor(DefaultConfig().Leagues)

	list := `<html><body><div class="event-fixtures">
	  <a href="/soccer-predictions/analysis-alpha-vs-omega-betting-tip/">Alpha v Omega</a>
	  <a href="/soccer-predictions/analysis-alpha-vs-omega-betting-tip/">Alpha v Omega again</a>
	  <a href="https://www.mybets.today/soccer-predictions/analysis-gamma-vs-delta-betting-tip/">Gamma v Delta</a>
	  <a href="/soccer-predictions/tomorrow/">Tomorrow</a>
	</div></body></html>`

	links, err := e.FixtureLinks([]byte(list), "https://www.mybets.today")
	require.NoError(t, err)

	require.Len(t, links, 2, "duplicates and non-analysis links are dropped")
	assert.Equal(t, "https://www.mybets.today/soccer-predictions/analysis-alpha-vs-omega-betting-tip/", links[0])
	assert.Equal(t, "https://www.mybets.today/soccer-predictions/analysis-gamma-vs-delta-betting-tip/", links[1])
}

func TestFixtureLinksEmptyListing(t *testing.T) {
	e := NewMyBetsExtractor(DefaultConfig().Leagues)

	links, err := e.FixtureLinks([]byte("<html><body></body></html>"), "https://www.mybets.today")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestTeamNamesFromURL(t *testing.T) {
	cases := []struct {
		url        string
		home, away string
	}{
		{testMatchURL, "Alpha United", "Omega City"},
		{"https://x.test/analysis-real-madrid-vs-fc-barcelona-betting-tip/", "Real Madrid", "Fc Barcelona"},
		{"https://x.test/soccer-predictions/", "Unknown", "Unknown"},
		{"https://x.test/analysis-no-separator-betting-tip/", "Unknown", "Unknown"},
	}
	for _, c := range cases {
		t.Run(c.url, func(t *testing.T) {
			home, away := TeamNamesFromURL(c.url)
			assert.Equal(t, c.home, home, fmt.Sprintf("home for %s", c.url))
			assert.Equal(t, c.away, away, fmt.Sprintf("away for %s", c.url))
		})
	}
}
