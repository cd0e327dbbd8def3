package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"dungeon-dash-server/internal/domain"
	"dungeon-dash-server/internal/infrastructure/persistence"
	"dungeon-dash-server/internal/messaging"
	"dungeon-dash-server/internal/systems"
	"dungeon-dash-server/pkg/api"
	"dungeon-dash-server/pkg/dungeon"
	"dungeon-dash-server/pkg/logger"
	"dungeon-dash-server/pkg/rng"
	"dungeon-dash-server/pkg/utils"

	"github.com/sirupsen/logrus"
)

// Phase - состояние комнаты.
type Phase string

const (
	PhaseLobby    Phase = "LOBBY"
	PhaseDungeon  Phase = "DUNGEON"
	PhaseGauntlet Phase = "GAUNTLET"
	PhaseResults  Phase = "RESULTS"
)

// Active - идет матч (ввод и глобальные события работают).
func (p Phase) Active() bool {
	return p == PhaseDungeon || p == PhaseGauntlet
}

// Имена таймеров комнаты.
const (
	timerCountdown     = "countdown"
	timerCountdownTick = "countdown:tick"
	timerPhase         = "phase"
	timerLeaderboard   = "leaderboard"
	timerEventNext     = "event:next"
	timerEventEnd      = "event:end"
	timerDispose       = "dispose"
)

func dashTimer(playerID string, slot int) string {
	return fmt.Sprintf("dash:%s:%d", playerID, slot)
}

// FloorArchiver сохраняет сгенерированные этажи.
type FloorArchiver interface {
	Save(floor *dungeon.Floor) (string, error)
}

// Deps - внешние зависимости комнаты. Nil-поля заменяются заглушками.
type Deps struct {
	Transport Transport
	Store     persistence.Store
	Bus       messaging.Publisher
	Archive   FloorArchiver
	Clock     Clock
}

// JoinRequest - заявка на вход, обрабатывается горутиной комнаты.
type JoinRequest struct {
	ClientID string
	Name     string
	Identity *Identity
	result   chan joinResult
}

type joinResult struct {
	playerID string
	err      error
}

// ClientMessage - сообщение клиента для комнаты.
type ClientMessage struct {
	ClientID string
	Env      api.Envelope
}

// RoomInfo - снимок комнаты для отладки. Обновляется после каждого тика.
type RoomInfo struct {
	ID        string         `json:"id"`
	Phase     Phase          `json:"phase"`
	Level     int            `json:"level"`
	Players   int            `json:"players"`
	Alive     int            `json:"alive"`
	Locked    bool           `json:"locked"`
	PhaseEnds int64          `json:"phaseEnds,omitempty"`
	Event     string         `json:"event,omitempty"`
	Metrics   map[string]any `json:"metrics"`
}

// Room - одна игровая сессия. Все состояние принадлежит горутине Run;
// снаружи с комнатой общаются через каналы и Submit*.
type Room struct {
	ID   string
	seed string
	cfg  Config

	transport Transport
	store     persistence.Store
	bus       messaging.Publisher
	archive   FloorArchiver
	clock     Clock

	rng     *rng.Stream
	sched   *Scheduler
	metrics *RoomMetrics
	log     *logrus.Entry

	phase         Phase
	phaseEnds     time.Time
	countdownEnds time.Time
	level         int
	floor         *dungeon.Floor
	arena         systems.Arena
	spawns        *SpawnRegistry
	event         *activeEvent
	groups        [][]string

	players  map[string]*domain.Player // playerID -> игрок
	order    []string                  // порядок входа
	byClient map[string]string         // clientID -> playerID
	inputs   map[string]*InputQueue
	flushed  map[string]bool // статистика уже отправлена в хранилище

	locked   bool
	disposed bool

	// Каналы коммуникации
	JoinChan    chan JoinRequest
	LeaveChan   chan string // clientID
	CommandChan chan ClientMessage

	done      chan struct{}
	closeOnce sync.Once
	onDispose func(*Room)

	info      atomic.Pointer[RoomInfo]
	floorSnap atomic.Pointer[dungeon.Floor]
	joinable  atomic.Bool
}

// NewRoom создает комнату в LOBBY и генерирует лобби-этаж.
func NewRoom(id string, cfg Config, deps Deps) (*Room, error) {
	r := &Room{
		ID:        id,
		seed:      cfg.Seed + "/" + id,
		cfg:       cfg,
		transport: deps.Transport,
		store:     deps.Store,
		bus:       deps.Bus,
		archive:   deps.Archive,
		clock:     deps.Clock,

		sched:   NewScheduler(),
		metrics: &RoomMetrics{},
		log: logger.Log.WithFields(logrus.Fields{
			"component": "room",
			"room":      id,
		}),

		phase:    PhaseLobby,
		players:  make(map[string]*domain.Player),
		byClient: make(map[string]string),
		inputs:   make(map[string]*InputQueue),
		flushed:  make(map[string]bool),

		JoinChan:    make(chan JoinRequest, 16),
		LeaveChan:   make(chan string, 64),
		CommandChan: make(chan ClientMessage, 1024),
		done:        make(chan struct{}),
	}
	if r.clock == nil {
		r.clock = SystemClock
	}
	if r.bus == nil {
		r.bus = messaging.Nop{}
	}
	if r.transport == nil {
		return nil, fmt.Errorf("room %s: transport is required", id)
	}
	r.rng = rng.New(r.seed)

	floor, err := r.generate(1, max(r.cfg.LobbySpawns, r.cfg.MinPlayers))
	if err != nil {
		return nil, fmt.Errorf("room %s: lobby floor: %w", id, err)
	}
	r.installFloor(floor)

	now := r.clock.Now()
	r.scheduleLeaderboard(now)
	r.scheduleEvents(now)
	r.updateSnapshot()

	r.log.WithField("seed", r.seed).Info("room created")
	return r, nil
}

// OnDispose задает колбэк, вызываемый один раз при закрытии комнаты.
func (r *Room) OnDispose(fn func(*Room)) {
	r.onDispose = fn
}

// Run запускает цикл комнаты. Возвращается после Dispose или отмены ctx.
func (r *Room) Run(ctx context.Context) {
	r.log.Info("room loop started")
	ticker := time.NewTicker(r.cfg.TickInterval())
	defer ticker.Stop()

	for !r.disposed {
		select {
		case <-ctx.Done():
			r.Dispose()
		case req := <-r.JoinChan:
			id, err := r.Join(req.ClientID, req.Name, req.Identity)
			req.result <- joinResult{playerID: id, err: err}
		case clientID := <-r.LeaveChan:
			r.Leave(clientID)
		case msg := <-r.CommandChan:
			_ = r.HandleMessage(msg.ClientID, msg.Env)
		case <-ticker.C:
			r.Step(r.clock.Now())
		}
	}
	r.log.Info("room loop stopped")
}

// Done закрывается при Dispose.
func (r *Room) Done() <-chan struct{} { return r.done }

// SubmitJoin передает заявку на вход в горутину комнаты и ждет ответа.
func (r *Room) SubmitJoin(ctx context.Context, clientID, name string, ident *Identity) (string, error) {
	req := JoinRequest{ClientID: clientID, Name: name, Identity: ident, result: make(chan joinResult, 1)}
	select {
	case r.JoinChan <- req:
	case <-r.done:
		return "", ErrRoomLocked
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case res := <-req.result:
		return res.playerID, res.err
	case <-r.done:
		select {
		case res := <-req.result:
			return res.playerID, res.err
		default:
			return "", ErrRoomLocked
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SubmitLeave сообщает об уходе клиента.
func (r *Room) SubmitLeave(clientID string) {
	select {
	case r.LeaveChan <- clientID:
	case <-r.done:
	}
}

// SubmitMessage ставит сообщение в очередь комнаты. false, если комната
// закрыта или канал полон.
func (r *Room) SubmitMessage(clientID string, env api.Envelope) bool {
	select {
	case r.CommandChan <- ClientMessage{ClientID: clientID, Env: env}:
		return true
	case <-r.done:
		return false
	default:
		r.metrics.IncChanFull()
		return false
	}
}

// Joinable - можно ли направить сюда нового игрока. Безопасно из любой
// горутины.
func (r *Room) Joinable() bool { return r.joinable.Load() }

// Info - последний снимок комнаты.
func (r *Room) Info() RoomInfo {
	if info := r.info.Load(); info != nil {
		return *info
	}
	return RoomInfo{ID: r.ID}
}

// Floor - текущий этаж (для отладки).
func (r *Room) Floor() *dungeon.Floor { return r.floorSnap.Load() }

// Step - один фиксированный тик: таймеры, затем ввод.
func (r *Room) Step(now time.Time) {
	if r.disposed {
		return
	}
	start := time.Now()
	r.sched.RunDue(now)
	if !r.disposed && r.phase != PhaseResults {
		r.reconcile(now)
	}
	r.metrics.AddTick(time.Since(start).Nanoseconds())
	r.updateSnapshot()
}

// Join добавляет игрока. Вызывается только из горутины комнаты.
func (r *Room) Join(clientID, name string, ident *Identity) (string, error) {
	if r.locked || r.disposed || r.phase == PhaseResults {
		return "", ErrRoomLocked
	}
	if _, ok := r.byClient[clientID]; ok {
		return "", ErrAlreadyJoined
	}
	if len(r.players) >= r.cfg.MaxPlayers {
		return "", ErrRoomFull
	}

	now := r.clock.Now()
	if ident != nil && ident.DisplayName != "" {
		name = ident.DisplayName
	}
	p := domain.NewPlayer(utils.GenerateID(), clientID, name, now)
	if ident != nil {
		p.UserID = ident.UserID
	}
	if r.phase == PhaseGauntlet {
		// Посреди гаунтлета можно только смотреть.
		p.IsAlive = false
	}

	r.players[p.ID] = p
	r.order = append(r.order, p.ID)
	r.byClient[clientID] = p.ID
	r.inputs[p.ID] = NewInputQueue(0)

	if r.phase == PhaseLobby && r.spawns.Free() == 0 {
		r.growLobby(len(r.players))
	}
	if _, ok := r.spawns.Of(p.ID); !ok {
		r.placePlayer(p)
	}
	r.transport.Attach(clientID)

	r.transport.Send(clientID, api.EventWelcome, api.WelcomePayload{
		PlayerID: p.ID,
		RoomID:   r.ID,
		Position: api.Vector{X: p.Position.X, Y: p.Position.Y},
		Phase:    string(r.phase),
		Players:  r.playerViews(),
	})
	r.sendMapData(clientID)
	r.broadcastExcept(clientID, api.EventPlayerJoined, playerView(p))

	r.log.WithFields(logrus.Fields{
		"player": p.ID,
		"name":   p.Name,
		"phase":  r.phase,
		"alive":  p.IsAlive,
	}).Info("player joined")

	r.evaluateLobby(now)
	r.updateSnapshot()
	return p.ID, nil
}

// Leave убирает игрока клиента. Неизвестный клиент игнорируется.
func (r *Room) Leave(clientID string) {
	pid, ok := r.byClient[clientID]
	if !ok {
		return
	}
	p := r.players[pid]
	now := r.clock.Now()

	delete(r.players, pid)
	delete(r.byClient, clientID)
	delete(r.inputs, pid)
	r.order = slices.DeleteFunc(r.order, func(id string) bool { return id == pid })
	r.spawns.Release(pid)
	r.cancelDashTimers(pid)
	r.transport.Detach(clientID)

	r.broadcast(api.EventPlayerLeft, api.PlayerLeftPayload{ID: pid})
	r.flushStats(p, false)
	r.log.WithField("player", pid).Info("player left")

	switch {
	case r.phase == PhaseLobby && len(r.players) == 0:
		r.Dispose()
	case r.phase == PhaseLobby:
		r.evaluateLobby(now)
	case r.phase.Active() && len(r.players) == 0:
		r.endGame(now, "abandoned")
	case r.phase.Active() && r.aliveCount() == 0:
		r.endGame(now, "eliminated")
	}
	r.updateSnapshot()
}

// HandleMessage разбирает сообщение клиента. В RESULTS ввод заморожен.
func (r *Room) HandleMessage(clientID string, env api.Envelope) error {
	if r.disposed || r.phase == PhaseResults {
		return nil
	}
	pid, ok := r.byClient[clientID]
	if !ok {
		return ErrUnknownPlayer
	}
	ctx := &commandCtx{room: r, player: r.players[pid], now: r.clock.Now()}
	if err := commands.Dispatch(ctx, env.Type, env.Payload); err != nil {
		r.log.WithFields(logrus.Fields{
			"player": pid,
			"event":  env.Type,
		}).WithError(err).Debug("command rejected")
		r.transport.Send(clientID, api.EventError, api.ErrorPayload{Message: err.Error()})
		return err
	}
	return nil
}

// Dispose снимает все таймеры и закрывает комнату. Повторный вызов ничего
// не делает.
func (r *Room) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.locked = true
	r.sched.CancelAll()
	for _, id := range r.order {
		r.transport.Detach(r.players[id].ClientID)
	}
	r.updateSnapshot()
	r.closeOnce.Do(func() { close(r.done) })
	if r.onDispose != nil {
		r.onDispose(r)
	}
	r.log.Info("room disposed")
}

// generate строит этаж. Случайные сбои размещения повторяются с новым
// сидом, ошибки конфигурации - нет.
func (r *Room) generate(level, players int) (*dungeon.Floor, error) {
	dcfg := r.cfg.Dungeon
	dcfg.PlayerCount = players

	var lastErr error
	for attempt := 0; attempt <= r.cfg.GenerateRetries; attempt++ {
		seed := r.seed
		if attempt > 0 {
			seed = fmt.Sprintf("%s#%d", r.seed, attempt)
		}
		floor, err := dungeon.Generate(seed, level, dcfg)
		if err == nil {
			r.archiveFloor(floor)
			return floor, nil
		}
		lastErr = err
		if dungeon.IsConfigError(err) {
			break
		}
		r.log.WithFields(logrus.Fields{
			"floor_level": level,
			"attempt":     attempt,
		}).WithError(err).Warn("floor generation failed, retrying")
	}
	return nil, lastErr
}

func (r *Room) archiveFloor(floor *dungeon.Floor) {
	if r.archive == nil {
		return
	}
	if _, err := r.archive.Save(floor); err != nil {
		r.log.WithError(err).Warn("failed to archive floor")
	}
}

// installFloor делает этаж текущим. Этаж после этого не меняется.
func (r *Room) installFloor(floor *dungeon.Floor) {
	r.floor = floor
	r.arena = systems.NewArena(floor.Layers.Tiles, floor.TileSize, r.cfg.PlayerRadius)
	r.spawns = NewSpawnRegistry(floor.SpawnPoints)
	r.floorSnap.Store(floor)
	for _, p := range r.players {
		p.ResetExploration()
		p.MapLoaded = false
		p.SpawnID = ""
	}
}

// placePlayer ставит игрока на его точку спавна.
func (r *Room) placePlayer(p *domain.Player) {
	sp, ok := r.spawns.Claim(p.ID)
	if ok {
		p.SpawnID = sp.ID
	} else {
		sp, ok = r.spawns.Fallback()
		r.log.WithField("player", p.ID).Warn("no free spawn point, sharing one")
	}
	if ok {
		p.Position = domain.Position{X: sp.X, Y: sp.Y}
	} else {
		p.Position = domain.Position{X: r.arena.PixelWidth() / 2, Y: r.arena.PixelHeight() / 2}
	}
	r.explore(p)
}

// placeAll расставляет всех игроков заново: живые первыми.
func (r *Room) placeAll() {
	ids := slices.Clone(r.order)
	slices.SortStableFunc(ids, func(a, b string) int {
		pa, pb := r.players[a], r.players[b]
		switch {
		case pa.IsAlive == pb.IsAlive:
			return 0
		case pa.IsAlive:
			return -1
		}
		return 1
	})
	for _, id := range ids {
		r.placePlayer(r.players[id])
	}
}

// growLobby перегенерирует лобби-этаж, когда кончились точки спавна.
func (r *Room) growLobby(players int) {
	capacity := max(players+r.cfg.SpareSpawns, 2*len(r.floor.SpawnPoints))
	floor, err := r.generate(1, capacity)
	if err != nil {
		r.log.WithError(err).Error("failed to grow lobby floor")
		return
	}
	r.installFloor(floor)
	r.placeAll()
	r.broadcastMapData()
	r.log.WithField("spawns", capacity).Info("lobby floor grown")
}

// explore отмечает тайл под игроком.
func (r *Room) explore(p *domain.Player) {
	tiles := r.floor.Layers.Tiles
	x, y := p.Position.Tile(r.floor.TileSize)
	if tiles.InBounds(x, y) {
		p.Explore(y*tiles.Width() + x)
	}
}

func (r *Room) playerList() []*domain.Player {
	out := make([]*domain.Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

func (r *Room) alivePlayers() []*domain.Player {
	var out []*domain.Player
	for _, id := range r.order {
		if p := r.players[id]; p.IsAlive {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) aliveCount() int { return len(r.alivePlayers()) }

func (r *Room) cancelDashTimers(playerID string) {
	for slot := 0; slot < domain.DashChargeSlots; slot++ {
		r.sched.Cancel(dashTimer(playerID, slot))
	}
}

// flushStats отправляет статистику игрока в хранилище один раз.
// Хранилище не должно тормозить игру, поэтому запись идет в фоне.
func (r *Room) flushStats(p *domain.Player, won bool) {
	if r.store == nil || p.UserID == "" || r.flushed[p.ID] {
		return
	}
	r.flushed[p.ID] = true

	delta := persistence.StatsDelta{
		GamesPlayed:   1,
		Objectives:    len(p.CompletedObjectives),
		Progress:      p.Stats.Progress,
		FloorsCleared: p.Stats.FloorsCleared,
		Dashes:        p.Stats.Dashes,
		Distance:      p.Stats.Distance,
	}
	if won {
		delta.Wins = 1
	}
	store, userID, log := r.store, p.UserID, r.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.UpdatePlayerStats(ctx, userID, delta); err != nil {
			log.WithField("user", userID).WithError(err).Warn("failed to update player stats")
		}
	}()
}

func (r *Room) updateSnapshot() {
	info := &RoomInfo{
		ID:      r.ID,
		Phase:   r.phase,
		Level:   r.level,
		Players: len(r.players),
		Alive:   r.aliveCount(),
		Locked:  r.locked,
		Metrics: r.metrics.Snapshot(),
	}
	if !r.phaseEnds.IsZero() {
		info.PhaseEnds = r.phaseEnds.UnixMilli()
	}
	if r.event != nil {
		info.Event = r.event.ID
	}
	r.info.Store(info)
	r.joinable.Store(!r.locked && !r.disposed && r.phase != PhaseResults && len(r.players) < r.cfg.MaxPlayers)
}
