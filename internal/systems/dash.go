package systems

import (
	"math"

	"dungeon-dash-server/internal/domain"
)

// DashResult - начало и конец рывка для интерполяции на клиенте.
type DashResult struct {
	Start   domain.Position
	End     domain.Position
	HitWall bool
}

// ResolveDash двигает игрока по нормализованному направлению шагами step
// и останавливается на последнем шаге без столкновения.
func ResolveDash(a Arena, from, direction domain.Position, distance, step float64) DashResult {
	res := DashResult{Start: from, End: from}

	dir := direction.Normalize()
	if dir == (domain.Position{}) || distance <= 0 || step <= 0 {
		return res
	}

	steps := int(math.Ceil(distance / step))
	for i := 1; i <= steps; i++ {
		d := math.Min(float64(i)*step, distance)
		next := from.Shift(dir.X*d, dir.Y*d)
		if a.Collides(next) {
			res.HitWall = true
			break
		}
		res.End = next
	}
	return res
}
