package models_test

import (
	"encoding/json"
	"testing"

	"github.com/Dosada05/meetbasket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreFormat(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"pair", `[78, 65]`, "78 : 65"},
		{"pair of floats", `[21.0, 19]`, "21 : 19"},
		{"named", `{"home": 3, "away": 11}`, "3 : 11"},
		{"named legacy keys", `{"teamA": 50, "teamB": 48}`, "50 : 48"},
		{"string", `"abgebrochen"`, "abgebrochen"},
		{"blank string", `"  "`, "-"},
		{"null", `null`, "-"},
		{"short array", `[1]`, "-"},
		{"non numeric array", `["a", "b"]`, "-"},
		{"unknown object", `{"x": 1}`, "-"},
		{"number", `42`, "-"},
		{"fractional", `[1.5, 2]`, "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s models.Score
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &s))
			assert.Equal(t, tt.want, s.Format())
		})
	}

	assert.Equal(t, "-", models.Score{}.Format())
}

func TestScoreKeepsItsShape(t *testing.T) {
	for raw, want := range map[string]string{
		`[78,65]`:              `[78,65]`,
		`{"home":3,"away":11}`: `{"away":11,"home":3}`,
		`"n/a"`:                `"n/a"`,
		`null`:                 `null`,
	} {
		var s models.Score
		require.NoError(t, json.Unmarshal([]byte(raw), &s))
		out, err := json.Marshal(s)
		require.NoError(t, err)
		assert.JSONEq(t, want, string(out))
	}
}

func TestScoreScan(t *testing.T) {
	var s models.Score
	require.NoError(t, s.Scan([]byte(`[1,2]`)))
	assert.Equal(t, models.PairScore(1, 2), s)

	require.NoError(t, s.Scan(nil))
	assert.False(t, s.IsSet())

	v, err := models.Score{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, s.Scan(12))
}

func TestParseGameResult(t *testing.T) {
	cases := map[string]models.GameResult{
		"Team A gewinnt": models.ResultTeamA,
		"teamA":          models.ResultTeamA,
		"team_a":         models.ResultTeamA,
		"Team B gewinnt": models.ResultTeamB,
		"teamB":          models.ResultTeamB,
		"Unentschieden":  models.ResultDraw,
		"draw":           models.ResultDraw,
		"":               models.ResultNone,
	}
	for raw, want := range cases {
		got, err := models.ParseGameResult(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := models.ParseGameResult("Team C gewinnt")
	assert.ErrorIs(t, err, models.ErrInvalidGameResult)
}

func TestWinningTeamID(t *testing.T) {
	a, b := 1, 2
	g := &models.Game{TeamAID: &a, TeamBID: &b, Result: models.ResultTeamB}
	require.NotNil(t, g.WinningTeamID())
	assert.Equal(t, 2, *g.WinningTeamID())

	g.Result = models.ResultDraw
	assert.Nil(t, g.WinningTeamID())
	assert.True(t, g.HasTeam(1))
	assert.False(t, g.HasTeam(3))
}
