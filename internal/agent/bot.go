package agent

import (
	"context"
	"encoding/json"
	"time"

	"dungeon-dash-server/internal/engine"
	"dungeon-dash-server/internal/network"
	"dungeon-dash-server/internal/systems"
	"dungeon-dash-server/pkg/api"
	"dungeon-dash-server/pkg/dungeon"
	"dungeon-dash-server/pkg/logger"
	"dungeon-dash-server/pkg/rng"
	"dungeon-dash-server/pkg/utils"

	"github.com/sirupsen/logrus"
)

// Bot представляет собой "Игрока-компьютера" (Headless Agent).
// Он подключается к хабу так же, как websocket-клиент, и отправляет
// команды через GameService, как readPump.
//
// Жизненный цикл:
//  1. NewBot -> регистрация в хабе, получение личного канала (Inbox).
//  2. Run -> вход в комнату, затем цикл: события из Inbox и тикер ввода.
//  3. На mapData бот сообщает mapLoaded и ready.
//  4. В DUNGEON/GAUNTLET бот бродит по этажу, иногда делает рывок и
//     забирает цели рядом с собой.
type Bot struct {
	ClientID string
	Name     string
	Service  *engine.GameService
	Hub      *network.Broadcaster
	Inbox    chan api.Envelope

	// Период отправки ввода.
	InputEvery time.Duration
	// Вероятность рывка на каждом шаге.
	DashChance float64

	rng      *rng.Stream
	log      *logrus.Entry
	playerID string
	phase    string
	seq      uint64
	pos      api.Vector
	heading  int
	charges  int
	floor    *botFloor
	claimed  map[dungeon.Point]bool
}

// botFloor - то, что боту нужно от mapData.
type botFloor struct {
	TileSize int            `json:"tileSize"`
	Layers   dungeon.Layers `json:"layers"`
}

// headings - 8 направлений движения.
var headings = []api.InputPayload{
	{Up: true}, {Down: true}, {Left: true}, {Right: true},
	{Up: true, Left: true}, {Up: true, Right: true},
	{Down: true, Left: true}, {Down: true, Right: true},
}

var interactionByProp = map[int]string{
	dungeon.PropChest:    "chest",
	dungeon.PropShrine:   "shrine",
	dungeon.PropFountain: "fountain",
}

func NewBot(name, seed string, service *engine.GameService, hub *network.Broadcaster) *Bot {
	clientID := "bot_" + utils.ShortID()
	return &Bot{
		ClientID:   clientID,
		Name:       name,
		Service:    service,
		Hub:        hub,
		Inbox:      hub.Register(clientID),
		InputEvery: 100 * time.Millisecond,
		DashChance: 0.05,
		rng:        rng.New(seed + "/" + name),
		log:        logger.Log.WithFields(logrus.Fields{"component": "bot", "bot": name}),
		charges:    2,
		claimed:    make(map[dungeon.Point]bool),
	}
}

// Run входит в комнату и играет, пока комната не закроет канал или не
// отменится ctx.
func (b *Bot) Run(ctx context.Context, roomID string) error {
	defer b.Hub.Unregister(b.ClientID)
	defer b.Service.Leave(b.ClientID)

	room, playerID, err := b.Service.Join(ctx, b.ClientID, b.Name, roomID, nil)
	if err != nil {
		return err
	}
	b.playerID = playerID
	b.log = b.log.WithField("room", room.ID)
	b.log.Info("bot joined")

	ticker := time.NewTicker(b.InputEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-b.Inbox:
			if !ok {
				b.log.Info("bot disconnected")
				return nil
			}
			b.handle(env)
		case <-ticker.C:
			if b.phase == string(engine.PhaseDungeon) || b.phase == string(engine.PhaseGauntlet) {
				b.step()
			}
		}
	}
}

// handle обновляет локальную картину по событию сервера.
func (b *Bot) handle(env api.Envelope) {
	switch env.Type {
	case api.EventWelcome:
		var w api.WelcomePayload
		if b.decode(env, &w) {
			b.pos = w.Position
			b.phase = w.Phase
		}
	case api.EventMapData:
		var f botFloor
		if !b.decode(env, &f) || f.Layers.Tiles == nil {
			return
		}
		b.floor = &f
		b.claimed = make(map[dungeon.Point]bool)
		b.send(api.EventMapLoaded, nil)
		b.send(api.EventReady, nil)
	case api.EventPhaseChange:
		var p api.PhaseChangePayload
		if b.decode(env, &p) {
			b.phase = p.Phase
		}
	case api.EventInputAck:
		var ack api.InputAckPayload
		if !b.decode(env, &ack) {
			return
		}
		b.pos = api.Vector{X: ack.X, Y: ack.Y}
		b.charges = 0
		for _, c := range ack.DashCharges {
			if c.Available {
				b.charges++
			}
		}
		if ack.Collided {
			b.heading = b.rng.Int(0, len(headings)-1)
		}
	case api.EventError:
		var e api.ErrorPayload
		if b.decode(env, &e) {
			b.log.WithField("error", e.Message).Debug("server rejected command")
		}
	}
}

// step - один шаг бота: цель рядом, иначе рывок или движение.
func (b *Bot) step() {
	if b.floor != nil {
		if p, kind, ok := b.nearbyProp(); ok {
			b.claimed[p] = true
			b.send(api.EventInteraction, api.InteractionPayload{Type: kind, TileX: p.X, TileY: p.Y})
			return
		}
	}

	b.seq++
	in := headings[b.heading]
	in.Seq = b.seq
	if b.charges > 0 && b.rng.Probability(b.DashChance) {
		dx, dy := 0.0, 0.0
		switch {
		case in.Left:
			dx = -1
		case in.Right:
			dx = 1
		}
		switch {
		case in.Up:
			dy = -1
		case in.Down:
			dy = 1
		}
		b.charges--
		b.send(api.EventPlayerInput, api.InputPayload{Seq: b.seq, Type: api.InputTypeDash, Direction: &api.Vector{X: dx, Y: dy}})
		return
	}
	in.Delta = float64(b.InputEvery.Milliseconds())
	b.send(api.EventPlayerInput, in)
}

// nearbyProp ищет несобранную цель в радиусе досягаемости и в прямой
// видимости.
func (b *Bot) nearbyProp() (dungeon.Point, string, bool) {
	const reach = 2
	ts := b.floor.TileSize
	if ts <= 0 {
		return dungeon.Point{}, "", false
	}
	px, py := int(b.pos.X)/ts, int(b.pos.Y)/ts
	for y := py - reach; y <= py+reach; y++ {
		for x := px - reach; x <= px+reach; x++ {
			v, ok := b.floor.Layers.Props.Get(x, y)
			kind, known := interactionByProp[v]
			p := dungeon.Point{X: x, Y: y}
			if !ok || !known || b.claimed[p] {
				continue
			}
			if systems.HasLineOfSight(b.floor.Layers.Tiles, px, py, x, y) {
				return p, kind, true
			}
		}
	}
	return dungeon.Point{}, "", false
}

func (b *Bot) decode(env api.Envelope, v any) bool {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		b.log.WithField("event", env.Type).WithError(err).Warn("bad payload")
		return false
	}
	return true
}

func (b *Bot) send(event string, payload any) {
	env, err := api.NewEnvelope(event, payload)
	if err != nil {
		b.log.WithError(err).Error("failed to encode command")
		return
	}
	if !b.Service.Handle(b.ClientID, env) {
		b.log.WithField("event", event).Debug("command dropped")
	}
}
