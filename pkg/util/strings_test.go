package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePercent(t *testing.T) {
	assert.Equal(t, 61.0, ParsePercent("61%"))
	assert.Equal(t, 61.0, ParsePercent(" 61 "))
	assert.Equal(t, 12.5, ParsePercent("12.5%"))
	assert.Equal(t, 0.0, ParsePercent(""))
	assert.Equal(t, 0.0, ParsePercent("n/a"))
	assert.Equal(t, 0.0, ParsePercent("%"))
}

func TestTitleFromSlug(t *testing.T) {
	assert.Equal(t, "Manchester United", TitleFromSlug("manchester-united"))
	assert.Equal(t, "Alpha", TitleFromSlug("alpha"))
	assert.Equal(t, "", TitleFromSlug(""))
}

func TestGetAsFloat(t *testing.T) {
	f, err := GetAsFloat("3.5")
	require.NoError(t, err)
	assert.Equal(t, 3.5, f)

	f, err = GetAsFloat(7)
	require.NoError(t, err)
	assert.Equal(t, 7.0, f)

	_, err = GetAsFloat("seven")
	require.Error(t, err)
}

func TestGetAsInteger(t *testing.T) {
	i, err := GetAsInteger("42")
	require.NoError(t, err)
	assert.Equal(t, 42, i)

	_, err = GetAsInteger([]string{})
	require.Error(t, err)
}
