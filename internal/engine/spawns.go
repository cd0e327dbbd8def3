package engine

import (
	"dungeon-dash-server/pkg/dungeon"
)

// SpawnRegistry - занятость точек спавна текущего этажа. Хранит копию
// точек, сам этаж не меняется.
type SpawnRegistry struct {
	points []dungeon.SpawnPoint
}

// NewSpawnRegistry копирует точки этажа; все свободны.
func NewSpawnRegistry(points []dungeon.SpawnPoint) *SpawnRegistry {
	cp := make([]dungeon.SpawnPoint, len(points))
	copy(cp, points)
	for i := range cp {
		cp[i].PlayerID = nil
	}
	return &SpawnRegistry{points: cp}
}

// Claim выдает игроку первую свободную точку. Если у игрока уже есть
// точка, возвращает ее.
func (r *SpawnRegistry) Claim(playerID string) (dungeon.SpawnPoint, bool) {
	if sp, ok := r.Of(playerID); ok {
		return sp, true
	}
	for i := range r.points {
		if r.points[i].PlayerID == nil {
			id := playerID
			r.points[i].PlayerID = &id
			return r.points[i], true
		}
	}
	return dungeon.SpawnPoint{}, false
}

// Release освобождает точку игрока.
func (r *SpawnRegistry) Release(playerID string) bool {
	for i := range r.points {
		if p := r.points[i].PlayerID; p != nil && *p == playerID {
			r.points[i].PlayerID = nil
			return true
		}
	}
	return false
}

// Of возвращает точку, занятую игроком.
func (r *SpawnRegistry) Of(playerID string) (dungeon.SpawnPoint, bool) {
	for _, sp := range r.points {
		if sp.PlayerID != nil && *sp.PlayerID == playerID {
			return sp, true
		}
	}
	return dungeon.SpawnPoint{}, false
}

// Fallback - точка для игрока, которому не хватило свободной.
func (r *SpawnRegistry) Fallback() (dungeon.SpawnPoint, bool) {
	if len(r.points) == 0 {
		return dungeon.SpawnPoint{}, false
	}
	return r.points[0], true
}

// Free - число свободных точек.
func (r *SpawnRegistry) Free() int {
	n := 0
	for _, sp := range r.points {
		if sp.PlayerID == nil {
			n++
		}
	}
	return n
}

// Points - снимок точек для mapData.
func (r *SpawnRegistry) Points() []dungeon.SpawnPoint {
	out := make([]dungeon.SpawnPoint, len(r.points))
	copy(out, r.points)
	return out
}
