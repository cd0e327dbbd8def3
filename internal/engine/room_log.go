package engine

import (
	"dungeon-dash-server/internal/domain"
	"dungeon-dash-server/pkg/api"
	"dungeon-dash-server/pkg/dungeon"

	"github.com/sirupsen/logrus"
)

// AddLog пишет событие игры в лог комнаты
func (r *Room) AddLog(text, logType string) {
	r.log.WithFields(logrus.Fields{
		"component":   "game_log",
		"log_type":    logType,
		"phase":       r.phase,
		"floor_level": r.level,
	}).Info(text)
}

// publish отправляет событие комнаты в шину. Ошибки шины не влияют на игру.
func (r *Room) publish(kind string, payload any) {
	subject := "dungeon.room." + r.ID + "." + kind
	if err := r.bus.Publish(subject, payload); err != nil {
		r.log.WithField("subject", subject).WithError(err).Debug("bus publish failed")
	}
}

func (r *Room) broadcast(event string, payload any) {
	r.transport.BroadcastAll(event, payload)
}

func (r *Room) broadcastExcept(clientID, event string, payload any) {
	r.transport.BroadcastAll(event, payload, clientID)
}

// mapDataPayload - этаж с текущей занятостью точек спавна.
type mapDataPayload struct {
	*dungeon.Floor
	SpawnPoints []dungeon.SpawnPoint `json:"spawnPoints"`
}

func (r *Room) mapData() mapDataPayload {
	return mapDataPayload{Floor: r.floor, SpawnPoints: r.spawns.Points()}
}

func (r *Room) sendMapData(clientID string) {
	r.transport.Send(clientID, api.EventMapData, r.mapData())
}

func (r *Room) broadcastMapData() {
	r.broadcast(api.EventMapData, r.mapData())
}

func playerView(p *domain.Player) api.PlayerView {
	return api.PlayerView{
		ID:         p.ID,
		Name:       p.Name,
		X:          p.Position.X,
		Y:          p.Position.Y,
		IsAlive:    p.IsAlive,
		Ready:      p.Ready,
		Progress:   p.Stats.Progress,
		Objectives: len(p.CompletedObjectives),
	}
}

func (r *Room) playerViews() []api.PlayerView {
	views := make([]api.PlayerView, 0, len(r.order))
	for _, id := range r.order {
		views = append(views, playerView(r.players[id]))
	}
	return views
}

func dashChargeViews(p *domain.Player) []api.DashChargeView {
	out := make([]api.DashChargeView, len(p.DashCharges))
	for i, c := range p.DashCharges {
		out[i] = api.DashChargeView{Available: c.Available}
		if !c.Available {
			out[i].CooldownEndTime = api.UnixMillis(c.CooldownEndTime)
		}
	}
	return out
}

// ack подтверждает отправителю авторитетную позицию.
func (r *Room) ack(p *domain.Player, seq uint64, collided bool) {
	r.transport.Send(p.ClientID, api.EventInputAck, api.InputAckPayload{
		Seq:         seq,
		X:           p.Position.X,
		Y:           p.Position.Y,
		Collided:    collided,
		DashCharges: dashChargeViews(p),
	})
}
