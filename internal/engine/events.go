package engine

import (
	"time"

	"dungeon-dash-server/pkg/api"
	"dungeon-dash-server/pkg/rng"
)

// GlobalEvent - временный модификатор для всей комнаты.
type GlobalEvent struct {
	ID                 string
	Name               string
	Description        string
	Weight             float64
	SpeedFactor        float64 // множитель скорости движения
	DashCooldownFactor float64 // множитель перезарядки рывка
}

// DefaultEvents - каталог событий с весами.
func DefaultEvents() []GlobalEvent {
	return []GlobalEvent{
		{ID: "speed_surge", Name: "Speed Surge", Description: "Everyone moves faster", Weight: 3, SpeedFactor: 1.5, DashCooldownFactor: 1},
		{ID: "sluggish", Name: "Sluggish", Description: "The air grows thick", Weight: 2, SpeedFactor: 0.6, DashCooldownFactor: 1},
		{ID: "dash_frenzy", Name: "Dash Frenzy", Description: "Dashes recharge in a blink", Weight: 2, SpeedFactor: 1, DashCooldownFactor: 0.3},
		{ID: "darkness", Name: "Darkness", Description: "The torches go out", Weight: 1, SpeedFactor: 1, DashCooldownFactor: 1},
	}
}

// activeEvent - событие, действующее до EndsAt.
type activeEvent struct {
	GlobalEvent
	EndsAt time.Time
}

// pickEvent выбирает событие по весам.
func pickEvent(s *rng.Stream, catalogue []GlobalEvent) (GlobalEvent, bool) {
	weights := make([]float64, len(catalogue))
	for i, e := range catalogue {
		weights[i] = e.Weight
	}
	return rng.WeightedChoice(s, weights, catalogue)
}

func (e *activeEvent) payload(duration time.Duration) api.GlobalEventPayload {
	return api.GlobalEventPayload{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Duration:    duration.Milliseconds(),
		EndTime:     api.UnixMillis(e.EndsAt),
		SpeedFactor: e.SpeedFactor,
	}
}

// speedFactor текущего события; 1 без события.
func (r *Room) speedFactor() float64 {
	if r.event == nil || r.event.SpeedFactor <= 0 {
		return 1
	}
	return r.event.SpeedFactor
}

// dashCooldown с учетом события.
func (r *Room) dashCooldown() time.Duration {
	if r.event == nil || r.event.DashCooldownFactor <= 0 {
		return r.cfg.DashCooldown
	}
	return time.Duration(float64(r.cfg.DashCooldown) * r.event.DashCooldownFactor)
}

// scheduleEvents ставит периодический запуск глобальных событий.
func (r *Room) scheduleEvents(now time.Time) {
	if r.cfg.GlobalEventInterval <= 0 || len(r.cfg.Events) == 0 {
		return
	}
	r.sched.Schedule(timerEventNext, now.Add(r.cfg.GlobalEventInterval), r.fireEvent)
}

// fireEvent запускает событие, только пока идет игра.
func (r *Room) fireEvent(now time.Time) {
	defer r.scheduleEvents(now)

	if !r.phase.Active() || r.event != nil {
		return
	}
	picked, ok := pickEvent(r.rng, r.cfg.Events)
	if !ok {
		return
	}
	r.event = &activeEvent{GlobalEvent: picked, EndsAt: now.Add(r.cfg.GlobalEventDuration)}
	r.sched.Schedule(timerEventEnd, r.event.EndsAt, r.endEvent)

	r.AddLog("global event started: "+picked.Name, "EVENT")
	r.broadcast(api.EventGlobalEvent, r.event.payload(r.cfg.GlobalEventDuration))
	r.publish("event", r.event.payload(r.cfg.GlobalEventDuration))
}

// endEvent снимает действующее событие.
func (r *Room) endEvent(time.Time) {
	if r.event == nil {
		return
	}
	ended := r.event
	r.event = nil
	r.sched.Cancel(timerEventEnd)
	r.broadcast(api.EventGlobalEventEnded, api.GlobalEventPayload{ID: ended.ID, Name: ended.Name})
}
