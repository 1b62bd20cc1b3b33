package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnockoutWithByes(t *testing.T) {
	matches, err := NewKnockoutGenerator().Generate([]int{11, 12, 13, 14, 15})
	require.NoError(t, err)
	require.Len(t, matches, 7)

	first := matches[0]
	assert.Equal(t, "R1M1", first.UID)
	assert.Equal(t, 11, *first.HomeTeamID)
	assert.Equal(t, 15, *first.AwayTeamID)
	assert.False(t, first.IsBye)

	for _, m := range matches[1:4] {
		assert.True(t, m.IsBye, m.UID)
		assert.Nil(t, m.AwayTeamID)
	}

	semi := matches[4]
	assert.Equal(t, 2, semi.Round)
	require.NotNil(t, semi.HomeSourceUID)
	assert.Equal(t, "R1M1", *semi.HomeSourceUID)
	assert.Equal(t, 12, *semi.AwayTeamID)

	final := matches[6]
	assert.Equal(t, "R3M1", final.UID)
	assert.Equal(t, "R2M1", *final.HomeSourceUID)
	assert.Equal(t, "R2M2", *final.AwaySourceUID)
}

func TestKnockoutPowerOfTwo(t *testing.T) {
	matches, err := NewKnockoutGenerator().Generate([]int{1, 2, 3, 4})
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.False(t, m.IsBye)
	}
	assert.Equal(t, []int{1, 3}, []int{*matches[0].HomeTeamID, *matches[0].AwayTeamID})
}

func TestRoundRobinPairsEveryTeamOnce(t *testing.T) {
	for _, teams := range [][]int{{1, 2, 3, 4}, {5, 6, 7}} {
		matches, err := NewRoundRobinGenerator().Generate(teams)
		require.NoError(t, err)
		assert.Len(t, matches, len(teams)*(len(teams)-1)/2)

		seen := map[[2]int]bool{}
		for _, m := range matches {
			a, b := *m.HomeTeamID, *m.AwayTeamID
			if a > b {
				a, b = b, a
			}
			key := [2]int{a, b}
			assert.False(t, seen[key], "pair %v repeated", key)
			seen[key] = true
		}
	}
}

func TestNotEnoughTeams(t *testing.T) {
	_, err := NewKnockoutGenerator().Generate([]int{1})
	assert.ErrorIs(t, err, ErrNotEnoughTeams)
	_, err = NewRoundRobinGenerator().Generate(nil)
	assert.ErrorIs(t, err, ErrNotEnoughTeams)
}

func TestForFormat(t *testing.T) {
	g, err := ForFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatKnockout, g.Name())

	g, err = ForFormat(FormatRoundRobin)
	require.NoError(t, err)
	assert.Equal(t, FormatRoundRobin, g.Name())

	_, err = ForFormat("swiss")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
