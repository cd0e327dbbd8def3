package domain

import "math"

// Position - точка в мировых координатах (пиксели).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo возвращает расстояние до другой точки.
func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Shift возвращает новую позицию со смещением, не меняя текущую.
func (p Position) Shift(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Tile переводит позицию в индексы тайла (деление с округлением вниз).
func (p Position) Tile(tileSize int) (int, int) {
	ts := float64(tileSize)
	return int(math.Floor(p.X / ts)), int(math.Floor(p.Y / ts))
}

// Normalize возвращает единичный вектор. Нулевой вектор остается нулевым.
func (p Position) Normalize() Position {
	l := math.Hypot(p.X, p.Y)
	if l == 0 {
		return Position{}
	}
	return Position{X: p.X / l, Y: p.Y / l}
}
