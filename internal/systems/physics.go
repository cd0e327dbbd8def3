package systems

import (
	"math"

	"dungeon-dash-server/internal/domain"
	"dungeon-dash-server/pkg/dungeon"
	"dungeon-dash-server/pkg/logger"

	"github.com/sirupsen/logrus"
)

// diagonalFactor - доля радиуса для диагональных точек хитбокса.
const diagonalFactor = 0.7

// Arena - то, что физике нужно знать об этаже: сетка тайлов и размеры.
// Сетка не меняется, пока этаж активен.
type Arena struct {
	Tiles    *dungeon.Grid
	TileSize int
	Radius   float64
}

// NewArena собирает арену этажа.
func NewArena(tiles *dungeon.Grid, tileSize int, radius float64) Arena {
	return Arena{Tiles: tiles, TileSize: tileSize, Radius: radius}
}

// PixelWidth - ширина мира в пикселях.
func (a Arena) PixelWidth() float64 {
	if a.Tiles == nil {
		return 0
	}
	return float64(a.Tiles.Width() * a.TileSize)
}

// PixelHeight - высота мира в пикселях.
func (a Arena) PixelHeight() float64 {
	if a.Tiles == nil {
		return 0
	}
	return float64(a.Tiles.Height() * a.TileSize)
}

// Solid сообщает, блокирует ли точка мира движение: вне сетки или над
// стеной (значение > 0).
func (a Arena) Solid(x, y float64) bool {
	if a.Tiles == nil || a.TileSize <= 0 {
		return true
	}
	ts := float64(a.TileSize)
	tx := int(math.Floor(x / ts))
	ty := int(math.Floor(y / ts))
	v, ok := a.Tiles.Get(tx, ty)
	return !ok || v > 0
}

// Collides проверяет круглый хитбокс игрока по 8 точкам: 4 по осям на
// расстоянии радиуса и 4 по диагоналям на 0.7 радиуса.
func (a Arena) Collides(p domain.Position) bool {
	r := a.Radius
	d := r * diagonalFactor
	samples := [8][2]float64{
		{p.X + r, p.Y},
		{p.X - r, p.Y},
		{p.X, p.Y + r},
		{p.X, p.Y - r},
		{p.X + d, p.Y + d},
		{p.X + d, p.Y - d},
		{p.X - d, p.Y + d},
		{p.X - d, p.Y - d},
	}
	for _, s := range samples {
		if a.Solid(s[0], s[1]) {
			return true
		}
	}
	return false
}

// Clamp удерживает центр игрока внутри мира с учетом радиуса.
func (a Arena) Clamp(p domain.Position) domain.Position {
	return domain.Position{
		X: clamp(p.X, a.Radius, a.PixelWidth()-a.Radius),
		Y: clamp(p.Y, a.Radius, a.PixelHeight()-a.Radius),
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// HasLineOfSight проверяет прямую видимость между двумя тайлами.
// Использует алгоритм Брезенхэма (только целочисленная арифметика).
// Стартовый и конечный тайлы не проверяются.
func HasLineOfSight(tiles *dungeon.Grid, x0, y0, x1, y1 int) bool {
	losLogger := logger.Log.WithFields(logrus.Fields{
		"component": "physics_system",
		"function":  "HasLineOfSight",
	})

	if x0 == x1 && y0 == y1 {
		return true
	}

	sx, sy := sign(x1-x0), sign(y1-y0)
	dx, dy := abs(x1-x0), abs(y1-y0)
	err := dx - dy
	startX, startY := x0, y0

	for {
		isStart := x0 == startX && y0 == startY
		isEnd := x0 == x1 && y0 == y1

		if !isStart && !isEnd {
			v, ok := tiles.Get(x0, y0)
			if !ok || v > 0 {
				losLogger.WithField("blocking_point", dungeon.Point{X: x0, Y: y0}).Debug("line of sight blocked")
				return false
			}
		}

		if isEnd {
			return true
		}

		e2 := err * 2
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
