package dungeon

import (
	"fmt"
	"strings"
)

// SpawnStrategy - способ встраивания комнат спавна в этаж.
// На один этаж выбирается ровно одна стратегия.
type SpawnStrategy uint8

const (
	// SpawnPerimeter режет тонкие полосы по краям карты до BSP.
	SpawnPerimeter SpawnStrategy = iota
	// SpawnBufferRing расширяет карту буферным кольцом и ставит спавны в нем.
	SpawnBufferRing
	// SpawnCircular расставляет спавны по окружности вокруг готового подземелья.
	SpawnCircular
)

func (s SpawnStrategy) String() string {
	switch s {
	case SpawnPerimeter:
		return "perimeter"
	case SpawnBufferRing:
		return "buffer"
	case SpawnCircular:
		return "circular"
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

func (s SpawnStrategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSpawnStrategy разбирает имя стратегии (для флагов и env).
func ParseSpawnStrategy(name string) (SpawnStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "perimeter", "":
		return SpawnPerimeter, nil
	case "buffer", "ring", "buffer-ring":
		return SpawnBufferRing, nil
	case "circular", "radial":
		return SpawnCircular, nil
	}
	return SpawnPerimeter, fmt.Errorf("%w: unknown spawn strategy %q", ErrInvalidConfig, name)
}

// RoomQuota - сколько комнат данного типа разместить. Count = -1 значит
// "заполнить все оставшиеся пустые листья".
type RoomQuota struct {
	Type     string
	Count    int
	Required bool
}

// Config хранит параметры генерации этажа.
type Config struct {
	// Размеры карты для этажа 1 и одного игрока; см. SizeFor.
	BaseWidth      int
	BaseHeight     int
	SizePerPlayer  float64 // прирост стороны карты на игрока
	ShrinkPerLevel int     // уменьшение стороны карты за этаж
	MinWidth       int
	MinHeight      int

	// Параметры BSP
	Iterations            int
	MinLeafSize           int
	ContainerMinimumRatio float64
	SplitRetries          int
	AxisRatioThreshold    float64 // при превышении режем вдоль большей оси
	SplitVariance         float64 // 0..0.5, сужение смещения к центру

	CorridorWidth       int
	ComplexCorridorSpan int // длиннее этого L-коридор строится с двумя изгибами
	ExtraConnectivity   bool
	ExtraEdgeRatio      float64 // доля дополнительных ребер после MST
	Metric              DistanceMetric

	// Спавн
	Strategy     SpawnStrategy
	PlayerCount  int
	SpawnMargin  int     // зазор вокруг комнаты спавна в полосе
	BufferWidth  int     // ширина буферного кольца
	RadiusBuffer int     // отступ окружности от радиуса подземелья
	RadialJitter float64 // ±доля радиуса
	SpawnSwath   int     // ширина прорубаемого пути от спавна

	TorchChance float64
	TileSize    int // размер тайла в мировых единицах (пикселях)

	Quotas []RoomQuota
}

// DefaultConfig возвращает параметры по умолчанию.
func DefaultConfig() Config {
	return Config{
		BaseWidth:      56,
		BaseHeight:     56,
		SizePerPlayer:  1.5,
		ShrinkPerLevel: 4,
		MinWidth:       40,
		MinHeight:      40,

		Iterations:            5,
		MinLeafSize:           10,
		ContainerMinimumRatio: 0.45,
		SplitRetries:          30,
		AxisRatioThreshold:    1.5,
		SplitVariance:         0.3,

		CorridorWidth:       3,
		ComplexCorridorSpan: 40,
		ExtraConnectivity:   true,
		ExtraEdgeRatio:      0.1,
		Metric:              Euclidean,

		Strategy:     SpawnPerimeter,
		PlayerCount:  4,
		SpawnMargin:  1,
		BufferWidth:  10,
		RadiusBuffer: 6,
		RadialJitter: 0.1,
		SpawnSwath:   3,

		TorchChance: 0.4,
		TileSize:    32,

		Quotas: DefaultQuotas(),
	}
}

// DefaultQuotas - обязательные комнаты по одной, остальное - монстры.
func DefaultQuotas() []RoomQuota {
	return []RoomQuota{
		{Type: RoomTypeBoss, Count: 1, Required: true},
		{Type: RoomTypeEntrance, Count: 1, Required: true},
		{Type: RoomTypeHeal, Count: 1, Required: true},
		{Type: RoomTypeTreasure, Count: 1, Required: true},
		{Type: RoomTypeMonsters, Count: -1},
	}
}

// SizeFor считает размер внутреннего подземелья: растет с числом игроков,
// уменьшается с номером этажа.
func (c Config) SizeFor(level, players int) (int, int) {
	if level < 1 {
		level = 1
	}
	grow := int(c.SizePerPlayer * float64(max(players-1, 0)))
	shrink := c.ShrinkPerLevel * (level - 1)
	w := max(c.BaseWidth+grow-shrink, c.MinWidth)
	h := max(c.BaseHeight+grow-shrink, c.MinHeight)
	return w, h
}

// Validate проверяет параметры до начала генерации.
func (c Config) Validate() error {
	switch {
	case c.MinLeafSize <= 0:
		return fmt.Errorf("%w: MinLeafSize must be positive", ErrInvalidConfig)
	case c.ContainerMinimumRatio <= 0 || c.ContainerMinimumRatio > 1:
		return fmt.Errorf("%w: ContainerMinimumRatio must be in (0,1]", ErrInvalidConfig)
	case c.CorridorWidth <= 0:
		return fmt.Errorf("%w: CorridorWidth must be positive", ErrInvalidConfig)
	case c.PlayerCount < 0:
		return fmt.Errorf("%w: PlayerCount must not be negative", ErrInvalidConfig)
	case c.TileSize <= 0:
		return fmt.Errorf("%w: TileSize must be positive", ErrInvalidConfig)
	case c.SplitVariance < 0 || c.SplitVariance > 0.5:
		return fmt.Errorf("%w: SplitVariance must be in [0,0.5]", ErrInvalidConfig)
	}
	return nil
}
