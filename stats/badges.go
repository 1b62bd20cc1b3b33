package stats

type Badge struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Achieved    bool   `json:"achieved"`
}

type badgeRule struct {
	name        string
	description string
	achieved    func(Counters) bool
}

// catalog order is the display order.
var catalog = []badgeRule{
	{"First Game", "Play your first game", func(c Counters) bool { return c.TotalGames >= 1 }},
	{"Rookie", "Play 10 games", func(c Counters) bool { return c.TotalGames >= 10 }},
	{"Regular", "Play 25 games", func(c Counters) bool { return c.TotalGames >= 25 }},
	{"Veteran", "Play 100 games", func(c Counters) bool { return c.TotalGames >= 100 }},
	{"First Win", "Win your first game", func(c Counters) bool { return c.Wins >= 1 }},
	{"Winner", "Win 10 games", func(c Counters) bool { return c.Wins >= 10 }},
	{"Champion", "Win 50 games", func(c Counters) bool { return c.Wins >= 50 }},
	{"Scorer", "Score 100 points", func(c Counters) bool { return c.TotalPoints >= 100 }},
	{"Sharpshooter", "Score 500 points", func(c Counters) bool { return c.TotalPoints >= 500 }},
	{"Legend", "Score 1000 points", func(c Counters) bool { return c.TotalPoints >= 1000 }},
	{"Hot Hand", "Score more than 15 points in 3 games in a row", func(c Counters) bool { return c.BestHotStreak >= 3 }},
	{"Consistent", "Score at least 10 points in 5 games in a row", func(c Counters) bool { return c.BestScoringStreak >= 5 }},
	{"Board Man", "Grab 10 rebounds in a game", func(c Counters) bool { return c.HadReboundGame }},
	{"Glass Cleaner", "Grab 100 rebounds", func(c Counters) bool { return c.TotalRebounds >= 100 }},
	{"Double Double", "10 points and 10 rebounds in one game", func(c Counters) bool { return c.HadDoubleDouble }},
	{"All-Rounder", "Record points, rebounds, assists, steals and blocks in one game", func(c Counters) bool { return c.HadCompleteLine }},
	{"Perfect Shooter", "Hit every free throw in a game with at least 5 attempts", func(c Counters) bool { return c.HadPerfectFTGame }},
	{"Explorer", "Play on 5 different courts", func(c Counters) bool { return c.DistinctCourts >= 5 }},
	{"Globetrotter", "Play on 10 different courts", func(c Counters) bool { return c.DistinctCourts >= 10 }},
	{"Organizer", "Organize 5 games", func(c Counters) bool { return c.GamesOrganized >= 5 }},
	{"Tournament Player", "Take part in a tournament", func(c Counters) bool { return c.Tournaments >= 1 }},
}

// EvaluateBadges maps every catalog entry to its achieved flag.
func EvaluateBadges(c Counters) []Badge {
	out := make([]Badge, len(catalog))
	for i, rule := range catalog {
		out[i] = Badge{Name: rule.name, Description: rule.description, Achieved: rule.achieved(c)}
	}
	return out
}

func CatalogSize() int { return len(catalog) }
