package engine

import (
	"slices"

	"dungeon-dash-server/internal/domain"
	"dungeon-dash-server/pkg/rng"
)

// PartitionGroups перемешивает игроков и делит их на ceil(n/size) групп
// по кругу, так что ни одна группа не больше size. Если при этом остается
// группа из одного игрока, групп становится n/2 и одиночка вливается
// в соседнюю.
func PartitionGroups(s *rng.Stream, ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	size = max(size, 2)
	shuffled := slices.Clone(ids)
	rng.Shuffle(s, shuffled)

	n := len(shuffled)
	k := (n + size - 1) / size
	if k > 1 && n < 2*k {
		k = n / 2
	}
	groups := make([][]string, k)
	for i, id := range shuffled {
		groups[i%k] = append(groups[i%k], id)
	}
	return groups
}

// PickGroupWinner - больше целей, затем больше прогресса, при равенстве
// решает поток.
func PickGroupWinner(s *rng.Stream, members []*domain.Player) *domain.Player {
	better := func(a, b *domain.Player) int {
		if d := len(a.CompletedObjectives) - len(b.CompletedObjectives); d != 0 {
			return d
		}
		return a.Stats.Progress - b.Stats.Progress
	}

	var top []*domain.Player
	for _, m := range members {
		switch {
		case len(top) == 0:
			top = []*domain.Player{m}
		case better(m, top[0]) > 0:
			top = []*domain.Player{m}
		case better(m, top[0]) == 0:
			top = append(top, m)
		}
	}
	if len(top) == 1 {
		return top[0]
	}
	winner, _ := rng.Choice(s, top)
	return winner
}

func (r *Room) groupMembers(ids []string) []*domain.Player {
	var out []*domain.Player
	for _, id := range ids {
		if p, ok := r.players[id]; ok && p.IsAlive {
			out = append(out, p)
		}
	}
	return out
}
