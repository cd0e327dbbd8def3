package engine

import (
	"fmt"
	"time"

	"dungeon-dash-server/pkg/dungeon"
	"dungeon-dash-server/pkg/utils"
)

// GauntletTier - размер группы гаунтлета, пока живых игроков не больше
// MaxAlive. MaxAlive = 0 означает "без ограничения".
type GauntletTier struct {
	MaxAlive  int
	GroupSize int
}

// DefaultGauntletTiers - 2/3/4/5 игроков в группе при <=10/<=20/<=50/>50 живых.
func DefaultGauntletTiers() []GauntletTier {
	return []GauntletTier{
		{MaxAlive: 10, GroupSize: 2},
		{MaxAlive: 20, GroupSize: 3},
		{MaxAlive: 50, GroupSize: 4},
		{MaxAlive: 0, GroupSize: 5},
	}
}

// Config хранит параметры запуска движка
type Config struct {
	// Seed - мастер-зерно. Комната N получает Seed/room-N, этаж - level-N внутри.
	Seed string

	TickRate   int // тиков в секунду
	MinPlayers int
	MaxPlayers int

	CountdownDuration   time.Duration
	DungeonDuration     time.Duration
	GauntletDuration    time.Duration
	ResultsGrace        time.Duration
	LeaderboardInterval time.Duration
	GlobalEventInterval time.Duration
	GlobalEventDuration time.Duration

	MoveSpeed     float64 // пикселей в секунду
	PlayerRadius  float64
	MaxInputDelta float64 // мс, верхняя граница delta одной команды

	DashDistance float64
	DashStep     float64
	DashCooldown time.Duration

	InteractionReach int // в тайлах
	LobbySpawns      int // спавнов на лобби-этаже до первого расширения
	SpareSpawns      int // запас спавнов для входа посреди игры
	GenerateRetries  int

	GauntletTiers []GauntletTier
	Events        []GlobalEvent

	Dungeon dungeon.Config
}

// NewConfig создает конфиг по умолчанию (случайный сид)
func NewConfig() Config {
	return Config{
		Seed: utils.ShortID(),

		TickRate:   20,
		MinPlayers: 2,
		MaxPlayers: 100,

		CountdownDuration:   10 * time.Second,
		DungeonDuration:     180 * time.Second,
		GauntletDuration:    60 * time.Second,
		ResultsGrace:        10 * time.Second,
		LeaderboardInterval: 2 * time.Second,
		GlobalEventInterval: 45 * time.Second,
		GlobalEventDuration: 15 * time.Second,

		MoveSpeed:     300,
		PlayerRadius:  12,
		MaxInputDelta: 100,

		DashDistance: 160,
		DashStep:     8,
		DashCooldown: 3 * time.Second,

		InteractionReach: 2,
		LobbySpawns:      8,
		SpareSpawns:      2,
		GenerateRetries:  3,

		GauntletTiers: DefaultGauntletTiers(),
		Events:        DefaultEvents(),

		Dungeon: dungeon.DefaultConfig(),
	}
}

// TickInterval - период фиксированного тика.
func (c Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return 50 * time.Millisecond
	}
	return time.Second / time.Duration(c.TickRate)
}

// TileSize - размер тайла текущей конфигурации генератора.
func (c Config) TileSize() int {
	return c.Dungeon.TileSize
}

// GroupSize выбирает размер группы гаунтлета по числу живых.
func (c Config) GroupSize(alive int) int {
	for _, t := range c.GauntletTiers {
		if t.MaxAlive == 0 || alive <= t.MaxAlive {
			return max(t.GroupSize, 2)
		}
	}
	return 2
}

// Validate проверяет конфиг при старте сервиса.
func (c Config) Validate() error {
	switch {
	case c.MinPlayers < 1:
		return fmt.Errorf("min players must be at least 1")
	case c.MaxPlayers < c.MinPlayers:
		return fmt.Errorf("max players (%d) below min players (%d)", c.MaxPlayers, c.MinPlayers)
	case c.MoveSpeed <= 0 || c.PlayerRadius <= 0:
		return fmt.Errorf("move speed and player radius must be positive")
	case c.DashStep <= 0:
		return fmt.Errorf("dash step must be positive")
	case len(c.GauntletTiers) == 0:
		return fmt.Errorf("at least one gauntlet tier is required")
	}
	return c.Dungeon.Validate()
}
