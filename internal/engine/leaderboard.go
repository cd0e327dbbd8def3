package engine

import (
	"sort"
	"time"

	"dungeon-dash-server/internal/domain"
	"dungeon-dash-server/pkg/api"
)

// Leaderboard сортирует игроков: больше целей, затем больше прогресса,
// затем по имени и ID для стабильности.
func Leaderboard(players []*domain.Player) []api.LeaderboardEntry {
	sorted := make([]*domain.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if len(a.CompletedObjectives) != len(b.CompletedObjectives) {
			return len(a.CompletedObjectives) > len(b.CompletedObjectives)
		}
		if a.Stats.Progress != b.Stats.Progress {
			return a.Stats.Progress > b.Stats.Progress
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	entries := make([]api.LeaderboardEntry, len(sorted))
	for i, p := range sorted {
		entries[i] = api.LeaderboardEntry{
			Rank:       i + 1,
			ID:         p.ID,
			Name:       p.Name,
			Objectives: len(p.CompletedObjectives),
			Progress:   p.Stats.Progress,
			IsAlive:    p.IsAlive,
		}
	}
	return entries
}

func (r *Room) scheduleLeaderboard(now time.Time) {
	if r.cfg.LeaderboardInterval <= 0 {
		return
	}
	r.sched.Schedule(timerLeaderboard, now.Add(r.cfg.LeaderboardInterval), r.pushLeaderboard)
}

// pushLeaderboard рассылает таблицу и ставит следующий пересчет.
func (r *Room) pushLeaderboard(now time.Time) {
	defer r.scheduleLeaderboard(now)
	if len(r.players) == 0 || r.phase == PhaseResults {
		return
	}
	r.broadcast(api.EventLeaderboardUpdate, api.LeaderboardPayload{Entries: Leaderboard(r.playerList())})
}
