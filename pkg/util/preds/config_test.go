package preds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stattip.yaml")
	overlay := []byte("shortlistSize: 20\nhomeAdvantage: 1.2\ncacheTtl: 12h\n")
	require.NoError(t, os.WriteFile(path, overlay, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.ShortlistSize)
	assert.Equal(t, 1.2, cfg.HomeAdvantage)
	assert.Equal(t, "12h0m0s", cfg.CacheTTL.Std().String())

	// Untouched keys keep their defaults
	assert.Equal(t, "https://www.mybets.today", cfg.BaseURL)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestLoadConfigMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().ShortlistSize, cfg.ShortlistSize)
}

func TestLoadConfigRejectsBadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stattip.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shortlistSize: 40\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	mutations := []func(*Config){
		func(c *Config) { c.MaxRetries = 0 },
		func(c *Config) { c.HomeAdvantage = 2.0 },
		func(c *Config) { c.HalfTimeScale = 1.5 },
		func(c *Config) { c.MaxGoals = 1 },
		func(c *Config) { c.ShortlistSize = 0 },
		func(c *Config) { c.ShortlistSize = 26 },
		func(c *Config) { c.BlendDivisor = 0 },
		func(c *Config) { c.FormWeights = nil },
		func(c *Config) { c.FormWeights = []float64{1, -1, 1, 1, 1} },
	}
	for i, mutate := range mutations {
		cfg := DefaultConfig()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), "mutation %d should fail validation", i)
	}
}

func TestListURL(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://www.mybets.today/soccer-predictions/", cfg.ListURL("today"))
	assert.Equal(t, "https://www.mybets.today/soccer-predictions/tomorrow/", cfg.ListURL("tomorrow"))
	assert.Equal(t, "https://www.mybets.today/soccer-predictions/yesterday/", cfg.ListURL("yesterday"))
}
