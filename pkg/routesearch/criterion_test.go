package routesearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCriterion(t *testing.T) {
	for value, want := range map[string]Criterion{
		"":                Fastest,
		"fastest":         Fastest,
		"FEWEST_SWITCHES": FewestSwitches,
		"cheapest":        Cheapest,
	} {
		got, err := ParseCriterion(value)
		require.NoError(t, err, value)
		assert.Equal(t, want, got, value)
	}

	_, err := ParseCriterion("shortest")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestParseSwitches(t *testing.T) {
	got, err := ParseSwitches("", []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, got)

	got, err = ParseSwitches("all", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)

	got, err = ParseSwitches("2, 0,2", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, got)
	assert.Equal(t, "0,2", FormatSwitches(got))

	for _, value := range []string{"3", "-1", "a", ","} {
		_, err := ParseSwitches(value, nil)
		assert.ErrorIs(t, err, ErrInvalidRequest, value)
	}
}
