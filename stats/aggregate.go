package stats

import (
	"math"
	"sort"

	"github.com/Dosada05/meetbasket/models"
)

const (
	hotGamePoints       = 15 // strictly more than this
	scoringGamePoints   = 10
	boardGameRebounds   = 10
	perfectFTMinAttempt = 5
	recentGamesLimit    = 10
)

// Counters are the raw accumulations the badge predicates run against.
type Counters struct {
	TotalGames     int
	Wins           int
	Losses         int
	TotalPoints    int
	TotalRebounds  int
	TotalAssists   int
	DistinctCourts int
	GamesOrganized int
	Tournaments    int

	BestHotStreak     int
	BestScoringStreak int

	HadReboundGame   bool
	HadDoubleDouble  bool
	HadCompleteLine  bool
	HadPerfectFTGame bool
}

// Accumulate walks the participations once, in chronological order.
func Accumulate(h History) (Counters, []GameLine) {
	parts := make([]Participation, len(h.Participations))
	copy(parts, h.Participations)
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].Game.ScheduledAt.Before(parts[j].Game.ScheduledAt)
	})

	c := Counters{GamesOrganized: h.GamesOrganized, Tournaments: h.Tournaments}
	courts := make(map[int]struct{})
	hotStreak, scoringStreak := 0, 0
	lines := make([]GameLine, 0, len(parts))

	for _, p := range parts {
		c.TotalGames++
		courts[p.Game.CourtID] = struct{}{}

		var points, rebounds, assists int
		if p.Stat != nil {
			points = valueOf(p.Stat.Points)
			rebounds = valueOf(p.Stat.Rebounds)
			assists = valueOf(p.Stat.Assists)
		}

		c.TotalPoints += points
		c.TotalRebounds += rebounds
		c.TotalAssists += assists

		if points > hotGamePoints {
			hotStreak++
		} else {
			hotStreak = 0
		}
		c.BestHotStreak = max(c.BestHotStreak, hotStreak)

		if points >= scoringGamePoints {
			scoringStreak++
		} else {
			scoringStreak = 0
		}
		c.BestScoringStreak = max(c.BestScoringStreak, scoringStreak)

		if rebounds >= boardGameRebounds {
			c.HadReboundGame = true
		}
		if points >= scoringGamePoints && rebounds >= boardGameRebounds {
			c.HadDoubleDouble = true
		}
		if completeLine(p.Stat) {
			c.HadCompleteLine = true
		}
		if perfectFreeThrows(p.Stat) {
			c.HadPerfectFTGame = true
		}

		outcome := ResolveOutcome(&p.Game, p.Participant.TeamID)
		switch outcome {
		case OutcomeWin:
			c.Wins++
		case OutcomeLoss:
			c.Losses++
		}

		line := GameLine{
			GameID:       p.Game.ID,
			Title:        p.Game.Title,
			Date:         p.Game.ScheduledAt,
			CourtID:      p.Game.CourtID,
			Points:       points,
			Rebounds:     rebounds,
			Assists:      assists,
			ScoreDisplay: p.Game.Score.Format(),
			Outcome:      outcome,
		}
		if p.Game.Court != nil {
			line.CourtName = p.Game.Court.Name
		}
		lines = append(lines, line)
	}
	c.DistinctCourts = len(courts)
	return c, lines
}

// ResolveOutcome compares the user's team side with the declared winner.
// A loss needs both a resolved winner and a team for the user.
func ResolveOutcome(g *models.Game, userTeamID *int) Outcome {
	if g.Result == models.ResultDraw {
		return OutcomeDraw
	}
	winner := g.WinningTeamID()
	if winner == nil || userTeamID == nil {
		return OutcomeUnknown
	}
	if *winner == *userTeamID {
		return OutcomeWin
	}
	return OutcomeLoss
}

// Summarize runs the accumulation and evaluates the badge catalog.
func Summarize(h History) Summary {
	c, lines := Accumulate(h)
	badges := EvaluateBadges(c)

	s := Summary{
		TotalGames:        c.TotalGames,
		Wins:              c.Wins,
		Losses:            c.Losses,
		TotalPoints:       c.TotalPoints,
		TotalRebounds:     c.TotalRebounds,
		TotalAssists:      c.TotalAssists,
		CourtsPlayed:      c.DistinctCourts,
		GamesOrganized:    c.GamesOrganized,
		Tournaments:       c.Tournaments,
		BestHotStreak:     c.BestHotStreak,
		BestScoringStreak: c.BestScoringStreak,
		Badges:            badges,
	}
	if decided := c.Wins + c.Losses; decided > 0 {
		s.WinRate = round2(float64(c.Wins) / float64(decided) * 100)
	}
	if c.TotalGames > 0 {
		s.AvgPoints = round2(float64(c.TotalPoints) / float64(c.TotalGames))
		s.AvgRebounds = round2(float64(c.TotalRebounds) / float64(c.TotalGames))
	}
	for _, b := range badges {
		if b.Achieved {
			s.AchievedBadgeCount++
		}
	}

	// newest first
	recent := make([]GameLine, 0, min(len(lines), recentGamesLimit))
	for i := len(lines) - 1; i >= 0 && len(recent) < recentGamesLimit; i-- {
		recent = append(recent, lines[i])
	}
	s.RecentGames = recent
	return s
}

func valueOf(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func completeLine(s *models.PlayerStat) bool {
	return s != nil && s.Points != nil && s.Rebounds != nil && s.Assists != nil && s.Steals != nil && s.Blocks != nil
}

func perfectFreeThrows(s *models.PlayerStat) bool {
	if s == nil || s.FreeThrowsMade == nil || s.FreeThrowsAttempted == nil {
		return false
	}
	return *s.FreeThrowsAttempted >= perfectFTMinAttempt && *s.FreeThrowsMade == *s.FreeThrowsAttempted
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
