package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

const ScorePlaceholder = "-"

type ScoreKind int

const (
	ScoreUnset ScoreKind = iota
	ScorePair
	ScoreNamed
	ScoreFreeform
)

// Score is the final score of a game. Clients send it as a two-element array,
// an object with named sides, or a free-form string; all of them round-trip.
type Score struct {
	Kind ScoreKind
	Home int
	Away int
	Text string
}

func PairScore(a, b int) Score       { return Score{Kind: ScorePair, Home: a, Away: b} }
func NamedScore(home, away int) Score { return Score{Kind: ScoreNamed, Home: home, Away: away} }
func FreeformScore(text string) Score { return Score{Kind: ScoreFreeform, Text: text} }

func (s Score) IsSet() bool { return s.Kind != ScoreUnset }

// Format renders the score for display and never fails.
func (s Score) Format() string {
	switch s.Kind {
	case ScorePair, ScoreNamed:
		return fmt.Sprintf("%d : %d", s.Home, s.Away)
	case ScoreFreeform:
		if strings.TrimSpace(s.Text) == "" {
			return ScorePlaceholder
		}
		return s.Text
	default:
		return ScorePlaceholder
	}
}

func (s Score) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case ScorePair:
		return json.Marshal([2]int{s.Home, s.Away})
	case ScoreNamed:
		return json.Marshal(map[string]int{"home": s.Home, "away": s.Away})
	case ScoreFreeform:
		return json.Marshal(s.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is lenient: anything it cannot interpret becomes an unset score.
func (s *Score) UnmarshalJSON(data []byte) error {
	*s = Score{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '[':
		var pair []json.Number
		if err := json.Unmarshal(data, &pair); err != nil || len(pair) != 2 {
			return nil
		}
		a, okA := numberToInt(pair[0])
		b, okB := numberToInt(pair[1])
		if okA && okB {
			*s = PairScore(a, b)
		}
	case '{':
		var named map[string]json.Number
		if err := json.Unmarshal(data, &named); err != nil {
			return nil
		}
		for _, keys := range [][2]string{{"home", "away"}, {"teamA", "teamB"}, {"team_a", "team_b"}} {
			hv, okH := named[keys[0]]
			av, okA := named[keys[1]]
			if !okH || !okA {
				continue
			}
			h, okH := numberToInt(hv)
			a, okA := numberToInt(av)
			if okH && okA {
				*s = NamedScore(h, a)
			}
			return nil
		}
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err == nil {
			*s = FreeformScore(text)
		}
	}
	return nil
}

func numberToInt(n json.Number) (int, bool) {
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Value stores the score as JSONB text; an unset score is NULL.
func (s Score) Value() (driver.Value, error) {
	if s.Kind == ScoreUnset {
		return nil, nil
	}
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Score) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = Score{}
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Score", src)
	}
}

// GameResult is the declared outcome of a game.
type GameResult string

const (
	ResultNone  GameResult = ""
	ResultTeamA GameResult = "team_a"
	ResultTeamB GameResult = "team_b"
	ResultDraw  GameResult = "draw"
)

var ErrInvalidGameResult = errors.New("invalid game result")

// ParseGameResult accepts the enumerated values and the legacy free-text forms
// ("Team A gewinnt", "teamA", ...) and normalizes them.
func ParseGameResult(raw string) (GameResult, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.TrimSuffix(v, " gewinnt")
	v = strings.TrimSuffix(v, " wins")
	v = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(v)
	switch v {
	case "":
		return ResultNone, nil
	case "teama", "a", "home":
		return ResultTeamA, nil
	case "teamb", "b", "away":
		return ResultTeamB, nil
	case "draw", "tie", "unentschieden":
		return ResultDraw, nil
	}
	return ResultNone, fmt.Errorf("%w: %q", ErrInvalidGameResult, raw)
}
