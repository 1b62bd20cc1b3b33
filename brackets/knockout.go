package brackets

import "math/bits"

type KnockoutGenerator struct{}

func NewKnockoutGenerator() Generator {
	return &KnockoutGenerator{}
}

func (g *KnockoutGenerator) Name() Format {
	return FormatKnockout
}

type slot struct {
	teamID    *int
	sourceUID *string
	empty     bool
}

// Generate строит олимпийскую сетку. Команды идут в порядке регистрации,
// до ближайшей степени двойки сетка добивается пустыми слотами (bye).
func (g *KnockoutGenerator) Generate(teamIDs []int) ([]Match, error) {
	n := len(teamIDs)
	if n < 2 {
		return nil, ErrNotEnoughTeams
	}

	rounds := bits.Len(uint(n - 1))
	size := 1 << rounds

	// пустые слоты распределяются через один, чтобы два bye не встретились
	slots := make([]slot, size)
	byes := size - n
	next := 0
	for i := 0; i < size; i += 2 {
		id := teamIDs[next]
		slots[i] = slot{teamID: &id}
		next++
	}
	for i := 1; i < size; i += 2 {
		if byes > 0 && i >= size-2*byes {
			slots[i] = slot{empty: true}
			continue
		}
		id := teamIDs[next]
		slots[i] = slot{teamID: &id}
		next++
	}

	matches := make([]Match, 0, size-1)
	for r := 1; r <= rounds; r++ {
		nextSlots := make([]slot, 0, len(slots)/2)
		for i := 0; i < len(slots); i += 2 {
			home, away := slots[i], slots[i+1]
			uid := matchUID(r, i/2+1)
			m := Match{
				UID:           uid,
				Round:         r,
				OrderInRound:  i/2 + 1,
				HomeTeamID:    home.teamID,
				AwayTeamID:    away.teamID,
				HomeSourceUID: home.sourceUID,
				AwaySourceUID: away.sourceUID,
			}
			if away.empty {
				m.IsBye = true
				nextSlots = append(nextSlots, slot{teamID: home.teamID})
			} else {
				nextSlots = append(nextSlots, slot{sourceUID: &uid})
			}
			matches = append(matches, m)
		}
		slots = nextSlots
	}
	return matches, nil
}
