package models

import "time"

type GameStatus string

const (
	GameStatusScheduled GameStatus = "scheduled"
	GameStatusCompleted GameStatus = "completed"
	GameStatusCancelled GameStatus = "cancelled"
)

type Game struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	CourtID         int        `json:"court_id"`
	OrganizerID     int        `json:"organizer_id"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes"`
	MaxPlayers      int        `json:"max_players"`
	SkillLevel      *string    `json:"skill_level,omitempty"`
	TeamAID         *int       `json:"team_a_id,omitempty"`
	TeamBID         *int       `json:"team_b_id,omitempty"`
	Result          GameResult `json:"result,omitempty"`
	Score           Score      `json:"score"`
	Status          GameStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`

	Court        *Court        `json:"court,omitempty"`
	Organizer    *User         `json:"organizer,omitempty"`
	TeamA        *Team         `json:"team_a,omitempty"`
	TeamB        *Team         `json:"team_b,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
	Stats        []PlayerStat  `json:"stats,omitempty"`
}

// WinningTeamID resolves the declared result to a team id. It returns nil for
// draws, unset results, or when the winning side has no team attached.
func (g *Game) WinningTeamID() *int {
	if g == nil {
		return nil
	}
	switch g.Result {
	case ResultTeamA:
		return g.TeamAID
	case ResultTeamB:
		return g.TeamBID
	}
	return nil
}

// HasTeam reports whether teamID is one of the two sides of the game.
func (g *Game) HasTeam(teamID int) bool {
	return (g.TeamAID != nil && *g.TeamAID == teamID) || (g.TeamBID != nil && *g.TeamBID == teamID)
}

// Participant links a user to a game and optionally to one of its team sides.
type Participant struct {
	GameID   int       `json:"game_id"`
	UserID   int       `json:"user_id"`
	TeamID   *int      `json:"team_id,omitempty"`
	Username string    `json:"username,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// PlayerStat holds per-game numbers for one user. A nil field was not recorded.
type PlayerStat struct {
	GameID              int  `json:"game_id"`
	UserID              int  `json:"user_id"`
	Points              *int `json:"points,omitempty"`
	Rebounds            *int `json:"rebounds,omitempty"`
	Assists             *int `json:"assists,omitempty"`
	Steals              *int `json:"steals,omitempty"`
	Blocks              *int `json:"blocks,omitempty"`
	FreeThrowsMade      *int `json:"free_throws_made,omitempty"`
	FreeThrowsAttempted *int `json:"free_throws_attempted,omitempty"`
}

// GameListItem is the summary shape returned by the game list endpoint.
type GameListItem struct {
	ID              int         `json:"id"`
	Title           string      `json:"title"`
	Court           *Court      `json:"court,omitempty"`
	ScheduledAt     time.Time   `json:"scheduled_at"`
	DurationMinutes int         `json:"duration_minutes"`
	SkillLevel      *string     `json:"skill_level,omitempty"`
	Organizer       string      `json:"organizer"`
	OrganizerID     int         `json:"organizer_id"`
	Players         GamePlayers `json:"players"`
	IsFull          bool        `json:"is_full"`
	Result          GameResult  `json:"result,omitempty"`
	Score           Score       `json:"score"`
	ScoreDisplay    string      `json:"score_display"`
	Status          GameStatus  `json:"status"`
}

type GamePlayers struct {
	Joined int      `json:"joined"`
	Max    int      `json:"max"`
	Names  []string `json:"names"`
}
