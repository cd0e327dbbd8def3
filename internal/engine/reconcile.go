package engine

import (
	"math"
	"time"

	"dungeon-dash-server/internal/systems"
	"dungeon-dash-server/pkg/api"
)

// reconcile применяет накопленные команды движения: по seq, с
// разрешением столкновений. Каждый игрок получает одно подтверждение
// за тик, остальные - одно playerMoved.
func (r *Room) reconcile(time.Time) {
	speed := r.cfg.MoveSpeed * r.speedFactor()

	for _, id := range r.order {
		p := r.players[id]
		batch := r.inputs[id].Drain()
		if len(batch) == 0 || !p.IsAlive {
			continue
		}

		collided := false
		for _, in := range batch {
			res := systems.ResolveMove(r.arena, p.Position, systems.MoveInput{
				Left:    in.Left,
				Right:   in.Right,
				Up:      in.Up,
				Down:    in.Down,
				DeltaMs: clampDelta(in.Delta, r.cfg.MaxInputDelta),
			}, speed)

			p.Stats.Distance += p.Position.DistanceTo(res.Position)
			p.Position = res.Position
			if res.Collided {
				collided = true
				p.Stats.Collisions++
				r.metrics.IncCollision()
			}
			p.LastProcessedInputSeq = in.Seq
			r.explore(p)
		}

		r.broadcastExcept(p.ClientID, api.EventPlayerMoved, api.PlayerMovedPayload{
			ID:  p.ID,
			X:   p.Position.X,
			Y:   p.Position.Y,
			Seq: p.LastProcessedInputSeq,
		})
		r.ack(p, p.LastProcessedInputSeq, collided)
	}
}

// clampDelta ограничивает длительность одной команды.
func clampDelta(deltaMs, limit float64) float64 {
	if deltaMs < 0 || math.IsNaN(deltaMs) {
		return 0
	}
	if limit > 0 && deltaMs > limit {
		return limit
	}
	return deltaMs
}

// queueInput ставит команду движения в очередь игрока.
func (r *Room) queueInput(playerID string, in api.InputPayload) {
	q, ok := r.inputs[playerID]
	if !ok {
		return
	}
	switch q.Push(in) {
	case InputStale:
		r.metrics.IncOldSeqIgnored()
	case InputDuplicate:
		r.metrics.IncDuplicate()
	default:
		r.metrics.IncAccepted()
	}
}
