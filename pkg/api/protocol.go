package api

import (
	"encoding/json"
	"time"
)

// Имена событий. Совпадают с тем, что ожидает клиент; менять нельзя.
const (
	// Клиент -> сервер
	EventJoin             = "join"
	EventReady            = "ready"
	EventPlayerInput      = "playerInput"
	EventPlayerInputBatch = "playerInputBatch"
	EventChat             = "chat"
	EventRequestMapData   = "requestMapData"
	EventMapLoaded        = "mapLoaded"
	EventInteraction      = "interaction"

	// Сервер -> клиент
	EventWelcome            = "welcome"
	EventMapData            = "mapData"
	EventPlayerJoined       = "playerJoined"
	EventPlayerLeft         = "playerLeft"
	EventPlayerMoved        = "playerMoved"
	EventInputAck           = "inputAck"
	EventPlayerDashed       = "playerDashed"
	EventPhaseChange        = "phaseChange"
	EventCountdownStarted   = "countdownStarted"
	EventCountdownUpdate    = "countdownUpdate"
	EventCountdownCancelled = "countdownCancelled"
	EventLeaderboardUpdate  = "leaderboardUpdate"
	EventGlobalEvent        = "globalEvent"
	EventGlobalEventEnded   = "globalEventEnded"
	EventGauntletStarted    = "gauntletStarted"
	EventPlayerEliminated   = "playerEliminated"
	EventObjectiveCompleted = "objectiveCompleted"
	EventGameEnded          = "gameEnded"
	EventError              = "error"
)

// InputTypeDash - значение поля type у playerInput для рывка.
const InputTypeDash = "dash"

// Envelope - единый формат сообщения в обе стороны:
// {"type": "<event>", "payload": {...}}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope упаковывает payload. Ошибка возможна только для типов,
// которые json не умеет кодировать.
func NewEnvelope(event string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: event}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: event, Payload: raw}, nil
}

// Vector - точка или направление в мировых пикселях.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// --- КЛИЕНТ -> СЕРВЕР ---

// JoinPayload - первое сообщение после открытия сокета.
// Email пустой у гостя.
type JoinPayload struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Room  string `json:"room,omitempty"`
}

// InputPayload - одна команда движения или рывка.
type InputPayload struct {
	Seq       uint64  `json:"seq"`
	Type      string  `json:"type,omitempty"`
	Left      bool    `json:"left"`
	Right     bool    `json:"right"`
	Up        bool    `json:"up"`
	Down      bool    `json:"down"`
	Delta     float64 `json:"delta"` // мс с прошлой команды
	Direction *Vector `json:"direction,omitempty"`
}

// IsDash - команда рывка, а не движения.
func (p InputPayload) IsDash() bool {
	return p.Type == InputTypeDash
}

// InputBatchPayload - пачка команд, накопленных клиентом между отправками.
type InputBatchPayload struct {
	Inputs []InputPayload `json:"inputs"`
}

// ChatPayload - сообщение в чат комнаты.
type ChatPayload struct {
	Text string `json:"text"`
}

// InteractionPayload - взаимодействие с объектом на тайле.
type InteractionPayload struct {
	Type  string `json:"type"`
	TileX int    `json:"tileX"`
	TileY int    `json:"tileY"`
}

// --- СЕРВЕР -> КЛИЕНТ ---

// PlayerView - публичное состояние игрока.
type PlayerView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	IsAlive    bool    `json:"isAlive"`
	Ready      bool    `json:"ready"`
	Progress   int     `json:"progress"`
	Objectives int     `json:"objectives"`
}

// WelcomePayload отправляется только что подключившемуся игроку.
type WelcomePayload struct {
	PlayerID string       `json:"playerId"`
	RoomID   string       `json:"roomId"`
	Position Vector       `json:"position"`
	Phase    string       `json:"phase"`
	Players  []PlayerView `json:"players"`
}

// PlayerLeftPayload - игрок покинул комнату.
type PlayerLeftPayload struct {
	ID string `json:"id"`
}

// PlayerMovedPayload - авторитетная позиция после обработки команды seq.
type PlayerMovedPayload struct {
	ID  string  `json:"id"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Seq uint64  `json:"seq"`
}

// DashChargeView - состояние слота рывка.
type DashChargeView struct {
	Available       bool  `json:"available"`
	CooldownEndTime int64 `json:"cooldownEndTime,omitempty"` // unix ms
}

// InputAckPayload - подтверждение отправителю.
type InputAckPayload struct {
	Seq         uint64           `json:"seq"`
	X           float64          `json:"x"`
	Y           float64          `json:"y"`
	Collided    bool             `json:"collided"`
	DashCharges []DashChargeView `json:"dashCharges"`
}

// PlayerDashedPayload - начало и конец рывка.
type PlayerDashedPayload struct {
	ID      string  `json:"id"`
	StartX  float64 `json:"startX"`
	StartY  float64 `json:"startY"`
	EndX    float64 `json:"endX"`
	EndY    float64 `json:"endY"`
	HitWall bool    `json:"hitWall"`
	Seq     uint64  `json:"seq"`
}

// PhaseChangePayload - смена фазы. Duration в мс, EndTime - unix ms.
type PhaseChangePayload struct {
	Phase    string `json:"phase"`
	Duration int64  `json:"duration"`
	EndTime  int64  `json:"endTime"`
	Level    int    `json:"level,omitempty"`
}

// CountdownPayload используется для countdownStarted и countdownUpdate.
type CountdownPayload struct {
	Remaining int   `json:"remaining"` // секунды
	EndTime   int64 `json:"endTime"`
}

// CountdownCancelledPayload - отсчет сброшен.
type CountdownCancelledPayload struct {
	Reason string `json:"reason"`
}

// LeaderboardEntry - строка таблицы лидеров.
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Objectives int    `json:"objectives"`
	Progress   int    `json:"progress"`
	IsAlive    bool   `json:"isAlive"`
}

// LeaderboardPayload - leaderboardUpdate.
type LeaderboardPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// GlobalEventPayload - глобальный модификатор.
type GlobalEventPayload struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Duration    int64   `json:"duration,omitempty"` // мс
	EndTime     int64   `json:"endTime,omitempty"`
	SpeedFactor float64 `json:"speedFactor,omitempty"`
}

// GauntletGroup - одна группа гаунтлета.
type GauntletGroup struct {
	Index     int      `json:"index"`
	PlayerIDs []string `json:"playerIds"`
}

// GauntletStartedPayload - состав групп.
type GauntletStartedPayload struct {
	Groups []GauntletGroup `json:"groups"`
}

// PlayerEliminatedPayload - игрок проиграл в своей группе.
type PlayerEliminatedPayload struct {
	ID       string `json:"id"`
	WinnerID string `json:"winnerId"`
	Group    int    `json:"group"`
}

// ObjectiveCompletedPayload - игрок выполнил цель.
type ObjectiveCompletedPayload struct {
	ID        string `json:"id"`
	Objective string `json:"objective"`
	Total     int    `json:"total"`
}

// ChatMessagePayload - сообщение чата от сервера.
type ChatMessagePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// GameEndedPayload - итог матча.
type GameEndedPayload struct {
	Reason      string             `json:"reason"`
	Winner      *LeaderboardEntry  `json:"winner"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// ErrorPayload - ошибка обработки запроса клиента.
type ErrorPayload struct {
	Message string `json:"message"`
}

// UnixMillis - время для клиента.
func UnixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
