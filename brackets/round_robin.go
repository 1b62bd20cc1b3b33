package brackets

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() Format {
	return FormatRoundRobin
}

// Generate строит круговой турнир методом вращения (circle method):
// каждая команда играет с каждой ровно один раз, по одной игре за тур.
// При нечетном числе команд одна из них в каждом туре отдыхает.
func (g *RoundRobinGenerator) Generate(teamIDs []int) ([]Match, error) {
	if len(teamIDs) < 2 {
		return nil, ErrNotEnoughTeams
	}

	ring := make([]int, len(teamIDs))
	copy(ring, teamIDs)
	const rest = 0
	if len(ring)%2 == 1 {
		ring = append(ring, rest)
	}
	n := len(ring)

	matches := make([]Match, 0, n*(n-1)/2)
	for r := 1; r < n; r++ {
		order := 0
		for i := 0; i < n/2; i++ {
			home, away := ring[i], ring[n-1-i]
			if home == rest || away == rest {
				continue
			}
			order++
			h, a := home, away
			matches = append(matches, Match{
				UID:          matchUID(r, order),
				Round:        r,
				OrderInRound: order,
				HomeTeamID:   &h,
				AwayTeamID:   &a,
			})
		}
		// первая позиция закреплена, остальные сдвигаются по кругу
		last := ring[n-1]
		copy(ring[2:], ring[1:n-1])
		ring[1] = last
	}
	return matches, nil
}
