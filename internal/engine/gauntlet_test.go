package engine

import (
	"fmt"
	"testing"
	"time"

	"dungeon-dash-server/internal/domain"
	"dungeon-dash-server/pkg/rng"
)

func TestPartitionGroups_SizeBounds(t *testing.T) {
	cfg := NewConfig()

	for _, n := range []int{2, 3, 4, 5, 9, 11, 21, 51, 54, 99, 100} {
		t.Run(fmt.Sprintf("alive_%d", n), func(t *testing.T) {
			ids := make([]string, n)
			for i := range ids {
				ids[i] = fmt.Sprintf("p%d", i)
			}
			size := cfg.GroupSize(n)
			groups := PartitionGroups(rng.New("groups"), ids, size)

			// Одиночку при size=2 добавляют в соседнюю группу.
			limit := max(size, 3)
			if size > 2 || n%2 == 0 {
				limit = size
			}

			seen := make(map[string]int)
			for gi, g := range groups {
				if len(g) < 2 || len(g) > 5 {
					t.Errorf("group %d has %d members, want 2..5", gi, len(g))
				}
				if len(g) > limit {
					t.Errorf("group %d has %d members, tier size %d", gi, len(g), size)
				}
				for _, id := range g {
					seen[id]++
				}
			}
			if len(seen) != n {
				t.Errorf("%d distinct players in groups, want %d", len(seen), n)
			}
			for id, c := range seen {
				if c != 1 {
					t.Errorf("player %s appears %d times", id, c)
				}
			}
		})
	}
}

func TestPartitionGroups_Deterministic(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	a := PartitionGroups(rng.New("same"), ids, 3)
	b := PartitionGroups(rng.New("same"), ids, 3)
	if fmt.Sprint(a) != fmt.Sprint(b) {
		t.Errorf("same seed gave %v and %v", a, b)
	}
	if ids[0] != "a" || ids[6] != "g" {
		t.Error("PartitionGroups must not reorder its input")
	}
}

func TestPickGroupWinner(t *testing.T) {
	now := time.Unix(0, 0)
	mk := func(id string, objectives, progress int) *domain.Player {
		p := domain.NewPlayer(id, "c-"+id, id, now)
		for i := 0; i < objectives; i++ {
			p.CompleteObjective(id + string(rune('a'+i)))
		}
		p.Stats.Progress = progress
		return p
	}

	tests := []struct {
		name    string
		members []*domain.Player
		want    string
	}{
		{"more objectives", []*domain.Player{mk("a", 1, 90), mk("b", 2, 0)}, "b"},
		{"progress breaks tie", []*domain.Player{mk("a", 1, 10), mk("b", 1, 40)}, "b"},
		{"single member", []*domain.Player{mk("a", 0, 0)}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PickGroupWinner(rng.New("w"), tt.members); got.ID != tt.want {
				t.Errorf("winner = %s, want %s", got.ID, tt.want)
			}
		})
	}
}
