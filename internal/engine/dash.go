package engine

import (
	"time"

	"dungeon-dash-server/internal/domain"
	"dungeon-dash-server/internal/systems"
	"dungeon-dash-server/pkg/api"
)

// dash выполняет рывок сразу, вне очереди движения. Каждый потраченный
// заряд восстанавливает свой таймер.
func (r *Room) dash(now time.Time, p *domain.Player, in api.InputPayload) {
	if !p.IsAlive || in.Direction == nil {
		return
	}
	if in.Seq <= p.LastDashSeq {
		r.metrics.IncOldSeqIgnored()
		return
	}
	p.LastDashSeq = in.Seq

	cooldownEnd := now.Add(r.dashCooldown())
	slot, ok := p.ConsumeCharge(cooldownEnd)
	if !ok {
		r.ack(p, in.Seq, false)
		return
	}

	dir := domain.Position{X: in.Direction.X, Y: in.Direction.Y}
	res := systems.ResolveDash(r.arena, p.Position, dir, r.cfg.DashDistance, r.cfg.DashStep)

	p.Stats.Distance += res.Start.DistanceTo(res.End)
	p.Stats.Dashes++
	p.Position = res.End
	r.explore(p)
	r.metrics.IncDash()

	playerID := p.ID
	r.sched.Schedule(dashTimer(playerID, slot), cooldownEnd, func(time.Time) {
		if p, ok := r.players[playerID]; ok {
			p.RestoreCharge(slot)
		}
	})

	r.broadcast(api.EventPlayerDashed, api.PlayerDashedPayload{
		ID:      p.ID,
		StartX:  res.Start.X,
		StartY:  res.Start.Y,
		EndX:    res.End.X,
		EndY:    res.End.Y,
		HitWall: res.HitWall,
		Seq:     in.Seq,
	})
	r.ack(p, in.Seq, res.HitWall)
}
