package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"dungeon-dash-server/internal/domain"
	"dungeon-dash-server/pkg/api"
	"dungeon-dash-server/pkg/dungeon"
	"dungeon-dash-server/pkg/logger"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func envelope(t *testing.T, event string, payload any) api.Envelope {
	t.Helper()
	env, err := api.NewEnvelope(event, payload)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	return env
}

func send(t *testing.T, r *Room, clientID, event string, payload any) {
	t.Helper()
	if err := r.HandleMessage(clientID, envelope(t, event, payload)); err != nil {
		t.Fatalf("HandleMessage(%s, %s): %v", clientID, event, err)
	}
}

// advance двигает часы по секунде и делает тик после каждого шага.
func advance(r *Room, clock *manualClock, d time.Duration) {
	for d > 0 {
		step := min(d, time.Second)
		r.Step(clock.Advance(step))
		d -= step
	}
}

// startMatch заводит клиентов и переводит комнату в DUNGEON через ready.
func startMatch(t *testing.T, r *Room, clients ...string) {
	t.Helper()
	for _, c := range clients {
		mustJoin(t, r, c)
	}
	for _, c := range clients {
		send(t, r, c, api.EventReady, nil)
	}
	if r.phase != PhaseDungeon {
		t.Fatalf("phase = %s, want DUNGEON", r.phase)
	}
}

func playerOf(t *testing.T, r *Room, clientID string) *domain.Player {
	t.Helper()
	pid, ok := r.byClient[clientID]
	if !ok {
		t.Fatalf("client %s has no player", clientID)
	}
	return r.players[pid]
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestRoom_NewRoomStartsInLobby(t *testing.T) {
	r, _, _ := newTestRoom(t, nil)

	if r.phase != PhaseLobby {
		t.Errorf("phase = %s, want LOBBY", r.phase)
	}
	if got := len(r.floor.SpawnPoints); got < r.cfg.LobbySpawns {
		t.Errorf("lobby floor has %d spawns, want at least %d", got, r.cfg.LobbySpawns)
	}
	if !r.Joinable() {
		t.Error("new room must be joinable")
	}
	if info := r.Info(); info.Phase != PhaseLobby || info.Players != 0 {
		t.Errorf("Info() = %+v", info)
	}
}

func TestRoom_Join(t *testing.T) {
	r, tr, _ := newTestRoom(t, nil)

	mustJoin(t, r, "c1")
	mustJoin(t, r, "c2")

	if tr.count("c1", api.EventWelcome) != 1 || tr.count("c1", api.EventMapData) != 1 {
		t.Error("joining client must receive welcome and mapData")
	}
	if tr.count("c1", api.EventPlayerJoined) != 1 {
		t.Error("existing client must be told about the newcomer")
	}
	if tr.count("c2", api.EventPlayerJoined) != 0 {
		t.Error("newcomer must not receive its own playerJoined")
	}

	p1, p2 := playerOf(t, r, "c1"), playerOf(t, r, "c2")
	if p1.SpawnID == "" || p1.SpawnID == p2.SpawnID {
		t.Errorf("spawns = %q, %q; want distinct claimed spawns", p1.SpawnID, p2.SpawnID)
	}

	if _, err := r.Join("c1", "again", nil); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("second join err = %v, want ErrAlreadyJoined", err)
	}
}

func TestRoom_JoinUsesIdentityName(t *testing.T) {
	r, _, _ := newTestRoom(t, nil)

	_, err := r.Join("c1", "guest", &Identity{UserID: "u1", DisplayName: "Alice"})
	if err != nil {
		t.Fatal(err)
	}
	p := playerOf(t, r, "c1")
	if p.Name != "Alice" || p.UserID != "u1" {
		t.Errorf("player = %q/%q, want Alice/u1", p.Name, p.UserID)
	}
}

func TestRoom_RoomFull(t *testing.T) {
	r, _, _ := newTestRoom(t, func(c *Config) { c.MaxPlayers = 2 })

	mustJoin(t, r, "c1")
	mustJoin(t, r, "c2")
	if _, err := r.Join("c3", "x", nil); !errors.Is(err, ErrRoomFull) {
		t.Errorf("err = %v, want ErrRoomFull", err)
	}
	if r.Joinable() {
		t.Error("full room must not be joinable")
	}
}

func TestRoom_LobbyGrowsWhenSpawnsRunOut(t *testing.T) {
	r, tr, _ := newTestRoom(t, func(c *Config) { c.LobbySpawns = 2 })
	initial := len(r.floor.SpawnPoints)

	for i := 0; i <= initial; i++ {
		mustJoin(t, r, string(rune('a'+i)))
	}

	if got := len(r.floor.SpawnPoints); got <= initial {
		t.Fatalf("spawns = %d, want more than %d after growth", got, initial)
	}
	seen := map[string]bool{}
	for _, p := range r.players {
		if p.SpawnID == "" || seen[p.SpawnID] {
			t.Errorf("player %s has spawn %q", p.ID, p.SpawnID)
		}
		seen[p.SpawnID] = true
	}
	if tr.count("a", api.EventMapData) < 2 {
		t.Error("existing clients must receive the regrown floor")
	}
}

func TestRoom_SinglePlayerStaysInLobby(t *testing.T) {
	r, tr, clock := newTestRoom(t, nil)
	mustJoin(t, r, "c1")

	send(t, r, "c1", api.EventMapLoaded, nil)
	send(t, r, "c1", api.EventReady, nil)
	advance(r, clock, time.Minute)

	if r.phase != PhaseLobby {
		t.Errorf("phase = %s, want LOBBY", r.phase)
	}
	if tr.count("c1", api.EventCountdownStarted) != 0 {
		t.Error("countdown must not start below the minimum")
	}
}

func TestRoom_CountdownStartsDungeon(t *testing.T) {
	r, tr, clock := newTestRoom(t, nil)
	mustJoin(t, r, "c1")
	mustJoin(t, r, "c2")

	send(t, r, "c1", api.EventMapLoaded, nil)
	if r.countdownActive() {
		t.Fatal("countdown started before everyone loaded the map")
	}
	send(t, r, "c2", api.EventMapLoaded, nil)
	if tr.count("c1", api.EventCountdownStarted) != 1 {
		t.Fatal("countdownStarted not sent")
	}

	for i := 0; i < 9; i++ {
		advance(r, clock, time.Second)
		if r.phase != PhaseLobby {
			t.Fatalf("left lobby after %ds", i+1)
		}
	}
	advance(r, clock, time.Second)

	if r.phase != PhaseDungeon {
		t.Fatalf("phase = %s, want DUNGEON", r.phase)
	}
	if r.level != 1 {
		t.Errorf("level = %d, want 1", r.level)
	}
	if got := tr.count("c2", api.EventCountdownUpdate); got != 9 {
		t.Errorf("countdownUpdate = %d, want 9", got)
	}
	payload, ok := tr.last("c1", api.EventPhaseChange)
	if !ok || payload.(api.PhaseChangePayload).Phase != string(PhaseDungeon) {
		t.Errorf("phaseChange = %+v", payload)
	}
}

func TestRoom_CountdownCancelledBelowMinimum(t *testing.T) {
	r, tr, clock := newTestRoom(t, nil)
	mustJoin(t, r, "c1")
	mustJoin(t, r, "c2")
	send(t, r, "c1", api.EventMapLoaded, nil)
	send(t, r, "c2", api.EventMapLoaded, nil)

	advance(r, clock, 3*time.Second)
	r.Leave("c2")

	if tr.count("c1", api.EventCountdownCancelled) != 1 {
		t.Error("countdownCancelled not sent")
	}
	advance(r, clock, 15*time.Second)
	if r.phase != PhaseLobby {
		t.Errorf("phase = %s, want LOBBY", r.phase)
	}
}

func TestRoom_AllReadySkipsCountdown(t *testing.T) {
	r, tr, _ := newTestRoom(t, nil)
	startMatch(t, r, "c1", "c2")

	if tr.count("c1", api.EventCountdownStarted) != 0 {
		t.Error("ready players must not wait for a countdown")
	}
	for _, p := range r.players {
		if p.Ready {
			t.Errorf("player %s still ready after start", p.ID)
		}
	}
}

func TestRoom_LogFieldsKeepLevelFree(t *testing.T) {
	prev := logger.Log.GetLevel()
	logger.Log.SetLevel(logrus.InfoLevel)
	hook := test.NewLocal(logger.Log)
	t.Cleanup(func() {
		logger.Log.ReplaceHooks(make(logrus.LevelHooks))
		logger.Log.SetLevel(prev)
	})

	r, _, _ := newTestRoom(t, nil)
	startMatch(t, r, "c1", "c2")

	withFloor := 0
	for _, e := range hook.AllEntries() {
		if _, ok := e.Data["level"]; ok {
			t.Errorf("entry %q carries a level field", e.Message)
		}
		if _, ok := e.Data["floor_level"]; ok {
			withFloor++
		}
	}
	if withFloor == 0 {
		t.Error("no entry carries floor_level")
	}
}

func TestRoom_LastLobbyLeaveDisposes(t *testing.T) {
	r, _, _ := newTestRoom(t, nil)
	mustJoin(t, r, "c1")
	r.Leave("c1")

	select {
	case <-r.Done():
	default:
		t.Fatal("empty lobby must be disposed")
	}
	r.Dispose()
}

func TestRoom_MoveAndAck(t *testing.T) {
	r, tr, clock := newTestRoom(t, nil)
	mustJoin(t, r, "c1")
	mustJoin(t, r, "c2")
	useFloor(r, openFloor(20, 20, 32, [2]float64{100, 100}, [2]float64{300, 300}))

	send(t, r, "c1", api.EventPlayerInput, api.InputPayload{Seq: 1, Left: true, Delta: 16.67})
	r.Step(clock.Advance(50 * time.Millisecond))

	p := playerOf(t, r, "c1")
	if !approx(p.Position.X, 94.999) || p.Position.Y != 100 {
		t.Errorf("position = %+v, want (94.999, 100)", p.Position)
	}

	ack, ok := tr.last("c1", api.EventInputAck)
	if !ok || ack.(api.InputAckPayload).Seq != 1 {
		t.Errorf("ack = %+v", ack)
	}
	if tr.count("c1", api.EventPlayerMoved) != 0 {
		t.Error("mover must not receive its own playerMoved")
	}
	if tr.count("c2", api.EventPlayerMoved) != 1 {
		t.Error("other players must receive playerMoved")
	}
}

func TestRoom_BatchIsIdempotent(t *testing.T) {
	r, tr, clock := newTestRoom(t, nil)
	mustJoin(t, r, "c1")
	mustJoin(t, r, "c2")
	useFloor(r, openFloor(20, 20, 32, [2]float64{200, 200}, [2]float64{400, 400}))

	batch := api.InputBatchPayload{Inputs: []api.InputPayload{
		{Seq: 1, Left: true, Delta: 16.67},
		{Seq: 2, Left: true, Delta: 16.67},
	}}
	send(t, r, "c1", api.EventPlayerInputBatch, batch)
	send(t, r, "c1", api.EventPlayerInputBatch, batch)
	r.Step(clock.Advance(50 * time.Millisecond))

	p := playerOf(t, r, "c1")
	want := 200 - 2*5.001
	if !approx(p.Position.X, want) {
		t.Fatalf("x = %v, want %v", p.Position.X, want)
	}
	if got := tr.count("c1", api.EventInputAck); got != 1 {
		t.Errorf("acks = %d, want one per tick", got)
	}

	send(t, r, "c1", api.EventPlayerInputBatch, batch)
	r.Step(clock.Advance(50 * time.Millisecond))
	if !approx(p.Position.X, want) {
		t.Errorf("replayed batch moved the player to %v", p.Position.X)
	}

	m := r.metrics.Snapshot()
	if m["duplicates"] != int64(2) || m["old_seq_ignored"] != int64(2) {
		t.Errorf("metrics = %v", m)
	}
}

func TestRoom_OutOfOrderInputsApplied(t *testing.T) {
	r, tr, clock := newTestRoom(t, nil)
	mustJoin(t, r, "c1")
	mustJoin(t, r, "c2")
	useFloor(r, openFloor(20, 20, 32, [2]float64{200, 200}, [2]float64{400, 400}))

	send(t, r, "c1", api.EventPlayerInput, api.InputPayload{Seq: 5, Up: true, Delta: 50})
	send(t, r, "c1", api.EventPlayerInput, api.InputPayload{Seq: 3, Left: true, Delta: 50})
	r.Step(clock.Advance(50 * time.Millisecond))

	p := playerOf(t, r, "c1")
	if !approx(p.Position.X, 185) || !approx(p.Position.Y, 185) {
		t.Errorf("position = %+v, want both inputs applied", p.Position)
	}
	if p.LastProcessedInputSeq != 5 {
		t.Errorf("last seq = %d, want 5", p.LastProcessedInputSeq)
	}
	ack, _ := tr.last("c1", api.EventInputAck)
	if ack.(api.InputAckPayload).Seq != 5 {
		t.Errorf("ack seq = %d, want 5", ack.(api.InputAckPayload).Seq)
	}
}

func TestRoom_OversizedDeltaClamped(t *testing.T) {
	r, _, clock := newTestRoom(t, nil)
	mustJoin(t, r, "c1")
	mustJoin(t, r, "c2")
	useFloor(r, openFloor(40, 40, 32, [2]float64{600, 600}, [2]float64{100, 100}))

	send(t, r, "c1", api.EventPlayerInput, api.InputPayload{Seq: 1, Right: true, Delta: 5000})
	r.Step(clock.Advance(50 * time.Millisecond))

	p := playerOf(t, r, "c1")
	if !approx(p.Position.X, 630) {
		t.Errorf("x = %v, want 630", p.Position.X)
	}
}

func TestRoom_DashCooldown(t *testing.T) {
	r, tr, clock := newTestRoom(t, func(c *Config) { c.PlayerRadius = 6 })
	mustJoin(t, r, "c1")
	mustJoin(t, r, "c2")

	floor := openFloor(12, 6, 16, [2]float64{48, 48}, [2]float64{24, 72})
	for y := 0; y < 6; y++ {
		floor.Layers.Tiles.Set(9, y, dungeon.TileWall)
	}
	useFloor(r, floor)

	p := playerOf(t, r, "c1")
	dash := func(seq uint64) {
		send(t, r, "c1", api.EventPlayerInput, api.InputPayload{
			Seq: seq, Type: api.InputTypeDash, Direction: &api.Vector{X: 1},
		})
	}

	dash(1)
	if !approx(p.Position.X, 136) || p.Position.Y != 48 {
		t.Fatalf("dash ended at %+v, want (136, 48)", p.Position)
	}
	if p.AvailableCharges() != 1 {
		t.Fatalf("charges = %d, want 1", p.AvailableCharges())
	}
	dashed, ok := tr.last("c2", api.EventPlayerDashed)
	if !ok || !dashed.(api.PlayerDashedPayload).HitWall {
		t.Errorf("playerDashed = %+v", dashed)
	}

	dash(1)
	if p.AvailableCharges() != 1 {
		t.Error("replayed dash seq consumed a charge")
	}

	r.Step(clock.Advance(r.cfg.DashCooldown - time.Millisecond))
	if p.AvailableCharges() != 1 {
		t.Fatal("charge restored before cooldown")
	}
	r.Step(clock.Advance(time.Millisecond))
	if p.AvailableCharges() != 2 {
		t.Errorf("charges = %d, want 2 after cooldown", p.AvailableCharges())
	}
}

func TestRoom_DashWithoutCharges(t *testing.T) {
	r, tr, _ := newTestRoom(t, nil)
	mustJoin(t, r, "c1")
	mustJoin(t, r, "c2")
	useFloor(r, openFloor(40, 40, 32, [2]float64{300, 300}, [2]float64{900, 900}))
	p := playerOf(t, r, "c1")

	for seq := uint64(1); seq <= 3; seq++ {
		send(t, r, "c1", api.EventPlayerInput, api.InputPayload{
			Seq: seq, Type: api.InputTypeDash, Direction: &api.Vector{Y: 1},
		})
	}

	if got := tr.count("c2", api.EventPlayerDashed); got != 2 {
		t.Errorf("dashes = %d, want 2", got)
	}
	if got := tr.count("c1", api.EventInputAck); got != 3 {
		t.Errorf("acks = %d, want 3", got)
	}
	if !approx(p.Position.Y, 300+2*r.cfg.DashDistance) {
		t.Errorf("y = %v", p.Position.Y)
	}
}

func TestRoom_Interaction(t *testing.T) {
	r, tr, _ := newTestRoom(t, nil)
	startMatch(t, r, "c1", "c2")

	floor := openFloor(20, 10, 32, [2]float64{3*32 + 16, 3*32 + 16}, [2]float64{16, 16})
	floor.Layers.Props.Set(5, 3, dungeon.PropChest)
	floor.Layers.Props.Set(3, 5, dungeon.PropFountain)
	floor.Layers.Tiles.Set(3, 4, dungeon.TileWall)
	floor.Layers.Props.Set(12, 3, dungeon.PropShrine)
	useFloor(r, floor)
	p := playerOf(t, r, "c1")

	send(t, r, "c1", api.EventInteraction, api.InteractionPayload{Type: "chest", TileX: 5, TileY: 3})
	send(t, r, "c1", api.EventInteraction, api.InteractionPayload{Type: "chest", TileX: 5, TileY: 3})

	if len(p.CompletedObjectives) != 1 || len(p.Items) != 1 {
		t.Errorf("objectives = %v, items = %v", p.CompletedObjectives, p.Items)
	}
	if got := tr.count("c2", api.EventObjectiveCompleted); got != 1 {
		t.Errorf("objectiveCompleted = %d, want 1", got)
	}

	tests := []struct {
		name string
		in   api.InteractionPayload
	}{
		{"wrong prop", api.InteractionPayload{Type: "shrine", TileX: 5, TileY: 3}},
		{"out of reach", api.InteractionPayload{Type: "shrine", TileX: 12, TileY: 3}},
		{"wall in the way", api.InteractionPayload{Type: "fountain", TileX: 3, TileY: 5}},
		{"unknown type", api.InteractionPayload{Type: "door", TileX: 5, TileY: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.HandleMessage("c1", envelope(t, api.EventInteraction, tt.in)); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if len(p.CompletedObjectives) != 1 {
		t.Errorf("objectives = %v", p.CompletedObjectives)
	}
}

func TestRoom_ChatRelayed(t *testing.T) {
	r, tr, _ := newTestRoom(t, nil)
	mustJoin(t, r, "c1")
	mustJoin(t, r, "c2")

	send(t, r, "c1", api.EventChat, api.ChatPayload{Text: "  hi  "})

	msg, ok := tr.last("c2", api.EventChat)
	if !ok || msg.(api.ChatMessagePayload).Text != "hi" {
		t.Errorf("chat = %+v", msg)
	}
}

func TestRoom_UnknownCommandRejected(t *testing.T) {
	r, tr, _ := newTestRoom(t, nil)
	mustJoin(t, r, "c1")

	err := r.HandleMessage("c1", api.Envelope{Type: "teleport"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if tr.count("c1", api.EventError) != 1 {
		t.Error("client must receive an error event")
	}
	if err := r.HandleMessage("ghost", api.Envelope{Type: api.EventReady}); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("err = %v, want ErrUnknownPlayer", err)
	}
}

func TestRoom_LeaderboardPushed(t *testing.T) {
	r, tr, clock := newTestRoom(t, nil)
	mustJoin(t, r, "c1")
	mustJoin(t, r, "c2")

	advance(r, clock, r.cfg.LeaderboardInterval)

	board, ok := tr.last("c1", api.EventLeaderboardUpdate)
	if !ok || len(board.(api.LeaderboardPayload).Entries) != 2 {
		t.Errorf("leaderboard = %+v", board)
	}
}

func TestRoom_GlobalEvent(t *testing.T) {
	r, tr, clock := newTestRoom(t, func(c *Config) {
		c.GlobalEventInterval = 5 * time.Second
		c.GlobalEventDuration = 3 * time.Second
		c.Events = []GlobalEvent{{ID: "haste", Name: "Haste", Weight: 1, SpeedFactor: 2, DashCooldownFactor: 0.5}}
	})

	mustJoin(t, r, "c1")
	advance(r, clock, 5*time.Second)
	if tr.count("c1", api.EventGlobalEvent) != 0 {
		t.Fatal("global event fired in the lobby")
	}

	mustJoin(t, r, "c2")
	send(t, r, "c1", api.EventReady, nil)
	send(t, r, "c2", api.EventReady, nil)
	advance(r, clock, 5*time.Second)

	if tr.count("c1", api.EventGlobalEvent) != 1 {
		t.Fatal("globalEvent not sent")
	}
	if r.speedFactor() != 2 || r.dashCooldown() != r.cfg.DashCooldown/2 {
		t.Errorf("factors = %v, %v", r.speedFactor(), r.dashCooldown())
	}

	advance(r, clock, 3*time.Second)
	if tr.count("c1", api.EventGlobalEventEnded) != 1 {
		t.Error("globalEventEnded not sent")
	}
	if r.speedFactor() != 1 {
		t.Errorf("speed factor = %v after the event", r.speedFactor())
	}
}

func TestRoom_GauntletFlow(t *testing.T) {
	r, tr, clock := newTestRoom(t, nil)
	clients := []string{"c1", "c2", "c3", "c4"}
	startMatch(t, r, clients...)

	advance(r, clock, r.cfg.DungeonDuration)
	if r.phase != PhaseGauntlet {
		t.Fatalf("phase = %s, want GAUNTLET", r.phase)
	}
	if len(r.groups) != 2 {
		t.Fatalf("groups = %v, want 2 pairs", r.groups)
	}
	groups := make([][]string, len(r.groups))
	for i, g := range r.groups {
		groups[i] = append([]string(nil), g...)
		for _, id := range g {
			if r.players[id].Group != i {
				t.Errorf("player %s group = %d, want %d", id, r.players[id].Group, i)
			}
		}
	}

	// Зритель: вход во время гаунтлета.
	spectator := mustJoin(t, r, "c5")
	if r.players[spectator].IsAlive {
		t.Error("player joining mid-gauntlet must spectate")
	}

	advance(r, clock, r.cfg.GauntletDuration)
	if r.phase != PhaseDungeon || r.level != 2 {
		t.Fatalf("phase = %s level = %d, want DUNGEON level 2", r.phase, r.level)
	}
	for i, g := range groups {
		alive := 0
		for _, id := range g {
			if r.players[id].IsAlive {
				alive++
			}
		}
		if alive != 1 {
			t.Errorf("group %d has %d survivors, want 1", i, alive)
		}
	}
	if got := tr.count("c1", api.EventPlayerEliminated); got != 2 {
		t.Errorf("playerEliminated = %d, want 2", got)
	}

	advance(r, clock, r.cfg.DungeonDuration+r.cfg.GauntletDuration)
	if r.phase != PhaseResults {
		t.Fatalf("phase = %s, want RESULTS", r.phase)
	}
	ended, ok := tr.last("c5", api.EventGameEnded)
	if !ok {
		t.Fatal("gameEnded not sent")
	}
	g := ended.(api.GameEndedPayload)
	if g.Winner == nil || !r.players[g.Winner.ID].IsAlive || r.aliveCount() != 1 {
		t.Errorf("winner = %+v, alive = %d", g.Winner, r.aliveCount())
	}
	if _, err := r.Join("c6", "late", nil); !errors.Is(err, ErrRoomLocked) {
		t.Errorf("join in RESULTS err = %v, want ErrRoomLocked", err)
	}

	advance(r, clock, r.cfg.ResultsGrace)
	select {
	case <-r.Done():
	default:
		t.Fatal("room not disposed after results")
	}
	if len(tr.disconnected) != 5 {
		t.Errorf("disconnected = %v, want all 5 clients", tr.disconnected)
	}
}

func TestRoom_ResultsFreezeInput(t *testing.T) {
	r, tr, clock := newTestRoom(t, nil)
	startMatch(t, r, "c1", "c2")
	r.endGame(clock.Now(), "test")
	p := playerOf(t, r, "c1")
	before := p.Position
	tr.reset()

	send(t, r, "c1", api.EventPlayerInput, api.InputPayload{Seq: 1, Right: true, Delta: 50})
	r.Step(clock.Advance(50 * time.Millisecond))

	if p.Position != before {
		t.Errorf("position changed in RESULTS: %+v", p.Position)
	}
	if tr.count("c1", api.EventInputAck) != 0 {
		t.Error("input acknowledged in RESULTS")
	}
}

func TestRoom_AbandonedMidGame(t *testing.T) {
	r, tr, _ := newTestRoom(t, nil)
	startMatch(t, r, "c1", "c2")

	r.Leave("c1")
	if r.phase != PhaseDungeon {
		t.Fatalf("phase = %s, want DUNGEON with one player left", r.phase)
	}
	if tr.count("c2", api.EventPlayerLeft) != 1 {
		t.Error("playerLeft not sent")
	}

	r.Leave("c2")
	if r.phase != PhaseResults {
		t.Errorf("phase = %s, want RESULTS", r.phase)
	}
	select {
	case <-r.Done():
	default:
		t.Fatal("abandoned room must be disposed")
	}
	if r.sched.Len() != 0 {
		t.Errorf("%d timers left after dispose", r.sched.Len())
	}
}
