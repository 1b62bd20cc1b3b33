package brackets

import (
	"errors"
	"fmt"
)

// Format - формат сетки турнира.
type Format string

const (
	FormatKnockout   Format = "knockout"
	FormatRoundRobin Format = "round_robin"
)

var (
	ErrNotEnoughTeams = errors.New("at least two teams are required to build a bracket")
	ErrUnknownFormat  = errors.New("unknown bracket format")
)

// Match - одна игра сетки. Для матчей следующих раундов команды
// неизвестны, вместо них указаны UID матчей-источников.
type Match struct {
	UID          string `json:"uid"`
	Round        int    `json:"round"`
	OrderInRound int    `json:"order_in_round"`

	HomeTeamID *int `json:"home_team_id,omitempty"`
	AwayTeamID *int `json:"away_team_id,omitempty"`

	HomeSourceUID *string `json:"home_source_uid,omitempty"`
	AwaySourceUID *string `json:"away_source_uid,omitempty"`

	IsBye bool `json:"is_bye"`
}

type Generator interface {
	Generate(teamIDs []int) ([]Match, error)
	Name() Format
}

func ForFormat(format Format) (Generator, error) {
	switch format {
	case "", FormatKnockout:
		return NewKnockoutGenerator(), nil
	case FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func matchUID(round, order int) string {
	return fmt.Sprintf("R%dM%d", round, order)
}
