package engine

import (
	"errors"
	"fmt"
	"time"

	"dungeon-dash-server/internal/domain"
	"dungeon-dash-server/internal/engine/handlers"
	"dungeon-dash-server/internal/systems"
	"dungeon-dash-server/pkg/api"
	"dungeon-dash-server/pkg/dungeon"
)

// commandCtx передает хендлеру комнату и отправителя.
type commandCtx struct {
	room   *Room
	player *domain.Player
	now    time.Time
}

// commands - общий для всех комнат реестр. После init только читается.
var commands = newCommandRegistry()

func newCommandRegistry() *handlers.Registry[*commandCtx] {
	reg := handlers.NewRegistry[*commandCtx]()
	reg.Register(api.EventReady, handlers.WithEmptyPayload(handleReady))
	reg.Register(api.EventMapLoaded, handlers.WithEmptyPayload(handleMapLoaded))
	reg.Register(api.EventRequestMapData, handlers.WithEmptyPayload(handleRequestMapData))
	reg.Register(api.EventPlayerInput, handlers.WithPayload(handleInput))
	reg.Register(api.EventPlayerInputBatch, handlers.WithPayload(handleInputBatch))
	reg.Register(api.EventChat, handlers.WithPayload(handleChat))
	reg.Register(api.EventInteraction, handlers.WithPayload(handleInteraction))
	return reg
}

func handleReady(ctx *commandCtx) error {
	if ctx.room.phase != PhaseLobby {
		return nil
	}
	ctx.player.Ready = true
	ctx.room.evaluateLobby(ctx.now)
	return nil
}

func handleMapLoaded(ctx *commandCtx) error {
	ctx.player.MapLoaded = true
	ctx.room.evaluateLobby(ctx.now)
	return nil
}

func handleRequestMapData(ctx *commandCtx) error {
	ctx.room.sendMapData(ctx.player.ClientID)
	return nil
}

func handleInput(ctx *commandCtx, in api.InputPayload) error {
	if in.IsDash() {
		ctx.room.dash(ctx.now, ctx.player, in)
		return nil
	}
	ctx.room.queueInput(ctx.player.ID, in)
	return nil
}

func handleInputBatch(ctx *commandCtx, batch api.InputBatchPayload) error {
	for _, in := range batch.Inputs {
		if err := handleInput(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

func handleChat(ctx *commandCtx, msg api.ChatPayload) error {
	ctx.room.broadcast(api.EventChat, api.ChatMessagePayload{
		ID:   ctx.player.ID,
		Name: ctx.player.Name,
		Text: api.TrimChat(msg.Text),
	})
	return nil
}

// interactionProps - какой проп нужен для каждого типа взаимодействия.
var interactionProps = map[string]int{
	"chest":    dungeon.PropChest,
	"shrine":   dungeon.PropShrine,
	"fountain": dungeon.PropFountain,
}

var (
	errNothingThere = errors.New("nothing to interact with")
	errTooFar       = errors.New("target is out of reach")
)

// handleInteraction засчитывает цель за сундук, алтарь или фонтан рядом
// с игроком и в прямой видимости.
func handleInteraction(ctx *commandCtx, in api.InteractionPayload) error {
	r, p := ctx.room, ctx.player
	if !r.phase.Active() || !p.IsAlive {
		return nil
	}
	want, ok := interactionProps[in.Type]
	if !ok {
		return fmt.Errorf("unknown interaction %q", in.Type)
	}
	if prop, ok := r.floor.Layers.Props.Get(in.TileX, in.TileY); !ok || prop != want {
		return errNothingThere
	}

	px, py := p.Position.Tile(r.floor.TileSize)
	if max(abs(px-in.TileX), abs(py-in.TileY)) > r.cfg.InteractionReach {
		return errTooFar
	}
	if !systems.HasLineOfSight(r.floor.Layers.Tiles, px, py, in.TileX, in.TileY) {
		return errTooFar
	}

	objective := fmt.Sprintf("%s:%d:%d:%d", in.Type, r.level, in.TileX, in.TileY)
	if !p.CompleteObjective(objective) {
		return nil
	}
	switch in.Type {
	case "chest":
		p.Items = append(p.Items, "treasure")
	case "fountain":
		r.cancelDashTimers(p.ID)
		p.ResetCharges()
	}

	r.broadcast(api.EventObjectiveCompleted, api.ObjectiveCompletedPayload{
		ID:        p.ID,
		Objective: objective,
		Total:     len(p.CompletedObjectives),
	})
	r.AddLog(p.Name+" completed "+objective, "OBJECTIVE")
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
