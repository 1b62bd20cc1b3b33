// Package stats derives a player's record, totals and achievement badges from
// their participation history. Everything here is pure: nothing is persisted,
// so results always reflect the history passed in.
package stats

import (
	"time"

	"github.com/Dosada05/meetbasket/models"
)

// Participation is one game the user took part in, with the user's own
// participant row and stat line (nil when no stats were recorded).
type Participation struct {
	Game        models.Game
	Participant models.Participant
	Stat        *models.PlayerStat
}

// History is everything the aggregation needs about one user.
type History struct {
	UserID         int
	Participations []Participation
	GamesOrganized int
	Tournaments    int
}

type Outcome string

const (
	OutcomeWin     Outcome = "win"
	OutcomeLoss    Outcome = "loss"
	OutcomeDraw    Outcome = "draw"
	OutcomeUnknown Outcome = "unknown"
)

// GameLine is the per-game row of a player's stat sheet.
type GameLine struct {
	GameID       int       `json:"game_id"`
	Title        string    `json:"title"`
	Date         time.Time `json:"date"`
	CourtID      int       `json:"court_id"`
	CourtName    string    `json:"court_name,omitempty"`
	Points       int       `json:"points"`
	Rebounds     int       `json:"rebounds"`
	Assists      int       `json:"assists"`
	ScoreDisplay string    `json:"score"`
	Outcome      Outcome   `json:"outcome"`
}

type Summary struct {
	TotalGames         int        `json:"total_games"`
	Wins               int        `json:"wins"`
	Losses             int        `json:"losses"`
	WinRate            float64    `json:"win_rate"`
	TotalPoints        int        `json:"total_points"`
	TotalRebounds      int        `json:"total_rebounds"`
	TotalAssists       int        `json:"total_assists"`
	AvgPoints          float64    `json:"avg_points"`
	AvgRebounds        float64    `json:"avg_rebounds"`
	CourtsPlayed       int        `json:"courts_played"`
	GamesOrganized     int        `json:"games_organized"`
	Tournaments        int        `json:"tournaments"`
	BestHotStreak      int        `json:"best_hot_streak"`
	BestScoringStreak  int        `json:"best_scoring_streak"`
	Badges             []Badge    `json:"badges"`
	AchievedBadgeCount int        `json:"achieved_badge_count"`
	RecentGames        []GameLine `json:"recent_games"`
}
