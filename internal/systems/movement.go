package systems

import (
	"dungeon-dash-server/internal/domain"
)

// MoveInput - одна команда движения от клиента.
type MoveInput struct {
	Left, Right, Up, Down bool
	DeltaMs               float64
}

// MovementResult - результат вычисления движения
type MovementResult struct {
	Position domain.Position
	Collided bool // полный шаг был заблокирован
}

// ResolveMove вычисляет новую позицию. Не меняет состояние игрока!
// При столкновении пробует по очереди: полный шаг, только X, только Y,
// остаться на месте. Итог всегда в границах мира.
func ResolveMove(a Arena, from domain.Position, in MoveInput, speed float64) MovementResult {
	step := speed * in.DeltaMs / 1000

	var dx, dy float64
	if in.Left {
		dx -= step
	}
	if in.Right {
		dx += step
	}
	if in.Up {
		dy -= step
	}
	if in.Down {
		dy += step
	}

	if dx == 0 && dy == 0 {
		return MovementResult{Position: from}
	}

	res := MovementResult{Position: from}
	full := from.Shift(dx, dy)
	switch {
	case !a.Collides(full):
		res.Position = full
	case dx != 0 && !a.Collides(from.Shift(dx, 0)):
		res.Position = from.Shift(dx, 0)
		res.Collided = true
	case dy != 0 && !a.Collides(from.Shift(0, dy)):
		res.Position = from.Shift(0, dy)
		res.Collided = true
	default:
		res.Collided = true
	}

	res.Position = a.Clamp(res.Position)
	return res
}
