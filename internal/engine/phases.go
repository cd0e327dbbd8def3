package engine

import (
	"math"
	"time"

	"dungeon-dash-server/pkg/api"

	"github.com/sirupsen/logrus"
)

// setPhase переключает фазу и ставит таймер ее окончания.
func (r *Room) setPhase(now time.Time, phase Phase, duration time.Duration, next func(time.Time)) {
	r.phase = phase
	r.phaseEnds = now.Add(duration)
	if next != nil {
		r.sched.Schedule(timerPhase, r.phaseEnds, next)
	} else {
		r.sched.Cancel(timerPhase)
	}

	payload := api.PhaseChangePayload{
		Phase:    string(phase),
		Duration: duration.Milliseconds(),
		EndTime:  api.UnixMillis(r.phaseEnds),
		Level:    r.level,
	}
	r.broadcast(api.EventPhaseChange, payload)
	r.publish("phase", payload)
	r.AddLog("phase changed to "+string(phase), "PHASE")
}

func (r *Room) countdownActive() bool {
	_, ok := r.sched.Pending(timerCountdown)
	return ok
}

func (r *Room) allFlagged(flag func(i int) bool) bool {
	if len(r.order) == 0 {
		return false
	}
	for i := range r.order {
		if !flag(i) {
			return false
		}
	}
	return true
}

func (r *Room) allLoaded() bool {
	return r.allFlagged(func(i int) bool { return r.players[r.order[i]].MapLoaded })
}

func (r *Room) allReady() bool {
	return r.allFlagged(func(i int) bool { return r.players[r.order[i]].Ready })
}

// evaluateLobby запускает, отменяет или завершает отсчет в LOBBY.
func (r *Room) evaluateLobby(now time.Time) {
	if r.phase != PhaseLobby || r.disposed {
		return
	}
	if len(r.players) < r.cfg.MinPlayers {
		if r.countdownActive() {
			r.cancelCountdown("not enough players")
		}
		return
	}
	if r.allReady() {
		r.startDungeon(now)
		return
	}
	if !r.countdownActive() && r.allLoaded() {
		r.startCountdown(now)
	}
}

func (r *Room) startCountdown(now time.Time) {
	r.countdownEnds = now.Add(r.cfg.CountdownDuration)
	r.sched.Schedule(timerCountdown, r.countdownEnds, r.startDungeon)
	r.sched.Schedule(timerCountdownTick, now.Add(time.Second), r.countdownTick)

	r.broadcast(api.EventCountdownStarted, api.CountdownPayload{
		Remaining: int(math.Ceil(r.cfg.CountdownDuration.Seconds())),
		EndTime:   api.UnixMillis(r.countdownEnds),
	})
	r.log.WithField("players", len(r.players)).Info("countdown started")
}

func (r *Room) countdownTick(now time.Time) {
	remaining := int(math.Ceil(r.countdownEnds.Sub(now).Seconds()))
	if remaining <= 0 {
		return
	}
	r.broadcast(api.EventCountdownUpdate, api.CountdownPayload{
		Remaining: remaining,
		EndTime:   api.UnixMillis(r.countdownEnds),
	})
	r.sched.Schedule(timerCountdownTick, now.Add(time.Second), r.countdownTick)
}

func (r *Room) cancelCountdown(reason string) {
	r.sched.Cancel(timerCountdown)
	r.sched.Cancel(timerCountdownTick)
	r.countdownEnds = time.Time{}
	r.broadcast(api.EventCountdownCancelled, api.CountdownCancelledPayload{Reason: reason})
	r.log.WithField("reason", reason).Info("countdown cancelled")
}

// startDungeon входит в DUNGEON. Первый раз используется лобби-этаж,
// дальше генерируется следующий уровень по числу живых.
func (r *Room) startDungeon(now time.Time) {
	r.sched.Cancel(timerCountdown)
	r.sched.Cancel(timerCountdownTick)
	r.countdownEnds = time.Time{}

	if r.level == 0 {
		r.level = 1
	} else {
		next := r.level + 1
		floor, err := r.generate(next, r.aliveCount()+r.cfg.SpareSpawns)
		if err != nil {
			r.log.WithField("floor_level", next).WithError(err).Error("floor generation failed, replaying current floor")
			r.installFloor(r.floor)
		} else {
			r.level = next
			r.installFloor(floor)
		}
		r.placeAll()
	}

	for _, p := range r.players {
		r.cancelDashTimers(p.ID)
		p.ResetCharges()
		p.Group = -1
		p.Ready = false
		r.inputs[p.ID].Clear()
	}
	r.groups = nil

	r.setPhase(now, PhaseDungeon, r.cfg.DungeonDuration, r.startGauntlet)
	r.broadcastMapData()
	r.log.WithFields(logrus.Fields{
		"floor_level": r.level,
		"alive":       r.aliveCount(),
		"spawns":      len(r.floor.SpawnPoints),
	}).Info("dungeon started")
}

// startGauntlet делит живых на группы.
func (r *Room) startGauntlet(now time.Time) {
	alive := r.alivePlayers()
	if len(alive) <= 1 {
		r.endGame(now, "last_survivor")
		return
	}

	ids := make([]string, len(alive))
	for i, p := range alive {
		ids[i] = p.ID
	}
	r.groups = PartitionGroups(r.rng, ids, r.cfg.GroupSize(len(ids)))

	groups := make([]api.GauntletGroup, len(r.groups))
	for gi, g := range r.groups {
		for _, id := range g {
			r.players[id].Group = gi
		}
		groups[gi] = api.GauntletGroup{Index: gi, PlayerIDs: g}
	}

	r.setPhase(now, PhaseGauntlet, r.cfg.GauntletDuration, r.resolveGauntlet)
	r.broadcast(api.EventGauntletStarted, api.GauntletStartedPayload{Groups: groups})
}

// resolveGauntlet оставляет в каждой группе одного победителя.
func (r *Room) resolveGauntlet(now time.Time) {
	for gi, g := range r.groups {
		members := r.groupMembers(g)
		if len(members) == 0 {
			continue
		}
		winner := PickGroupWinner(r.rng, members)
		winner.Stats.GauntletsWon++
		for _, m := range members {
			if m == winner {
				continue
			}
			m.IsAlive = false
			r.broadcast(api.EventPlayerEliminated, api.PlayerEliminatedPayload{ID: m.ID, WinnerID: winner.ID, Group: gi})
		}
	}
	for _, p := range r.players {
		p.Group = -1
		if p.IsAlive {
			p.Stats.FloorsCleared++
		}
	}
	r.groups = nil

	if r.aliveCount() <= 1 {
		r.endGame(now, "last_survivor")
		return
	}
	r.startDungeon(now)
}

// endGame переводит комнату в RESULTS и закрывает ее после паузы.
func (r *Room) endGame(now time.Time, reason string) {
	if r.phase == PhaseResults || r.disposed {
		return
	}
	r.sched.Cancel(timerCountdown)
	r.sched.Cancel(timerCountdownTick)
	r.endEvent(now)
	r.locked = true

	board := Leaderboard(r.playerList())
	var winner *api.LeaderboardEntry
	for i := range board {
		if board[i].IsAlive {
			winner = &board[i]
			break
		}
	}

	r.setPhase(now, PhaseResults, r.cfg.ResultsGrace, nil)
	ended := api.GameEndedPayload{Reason: reason, Winner: winner, Leaderboard: board}
	r.broadcast(api.EventGameEnded, ended)
	r.publish("ended", ended)

	for _, p := range r.players {
		r.flushStats(p, winner != nil && winner.ID == p.ID)
	}
	r.log.WithFields(logrus.Fields{
		"reason":  reason,
		"players": len(r.players),
	}).Info("game ended")

	if len(r.players) == 0 {
		r.Dispose()
		return
	}
	r.sched.Schedule(timerDispose, r.phaseEnds, func(time.Time) {
		for _, id := range r.order {
			r.transport.Disconnect(r.players[id].ClientID)
		}
		r.Dispose()
	})
}
