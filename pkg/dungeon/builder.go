package dungeon

import (
	"errors"
	"fmt"
	"time"

	"dungeon-dash-server/pkg/logger"
	"dungeon-dash-server/pkg/rng"

	"github.com/sirupsen/logrus"
)

// LevelBuilder предоставляет fluent API для генерации этажа.
//
//	floor, err := dungeon.NewLevel(1, "seed").WithPlayers(8).WithStrategy(dungeon.SpawnCircular).Build()
type LevelBuilder struct {
	level     int
	seed      string
	cfg       Config
	templates *TemplateSet
	err       error
}

// NewLevel создает builder с конфигурацией по умолчанию.
func NewLevel(level int, seed string) *LevelBuilder {
	return &LevelBuilder{level: max(level, 1), seed: seed, cfg: DefaultConfig()}
}

// WithConfig заменяет конфигурацию целиком.
func (b *LevelBuilder) WithConfig(cfg Config) *LevelBuilder {
	b.cfg = cfg
	return b
}

// WithPlayers задает число комнат спавна.
func (b *LevelBuilder) WithPlayers(n int) *LevelBuilder {
	b.cfg.PlayerCount = n
	return b
}

// WithStrategy выбирает стратегию спавна.
func (b *LevelBuilder) WithStrategy(s SpawnStrategy) *LevelBuilder {
	b.cfg.Strategy = s
	return b
}

// WithTemplates задает каталог шаблонов.
func (b *LevelBuilder) WithTemplates(ts *TemplateSet) *LevelBuilder {
	b.templates = ts
	return b
}

// WithTemplateList строит каталог из списка; ошибка проявится в Build.
func (b *LevelBuilder) WithTemplateList(templates []RoomTemplate) *LevelBuilder {
	b.templates, b.err = NewTemplateSet(templates)
	return b
}

// Build собирает этаж: стратегия спавна (с BSP внутри) -> размещение комнат
// -> коридоры -> растеризация.
func (b *LevelBuilder) Build() (*Floor, error) {
	if b.err != nil {
		return nil, b.err
	}
	cfg := b.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.templates == nil {
		ts, err := NewTemplateSet(DefaultTemplates())
		if err != nil {
			return nil, err
		}
		b.templates = ts
	}

	start := time.Now()
	log := logger.Log.WithFields(logrus.Fields{
		"component":   "generator",
		"seed":        b.seed,
		"floor_level": b.level,
		"strategy":    cfg.Strategy.String(),
	})

	s := rng.New(b.seed).Derive(fmt.Sprintf("level-%d", b.level))
	n := cfg.PlayerCount
	w, h := cfg.SizeFor(b.level, n)
	ids := &idGen{}

	var (
		lay layout
		err error
	)
	switch cfg.Strategy {
	case SpawnPerimeter:
		lay, err = layoutPerimeter(w, h, n, b.templates, s, cfg, ids)
	case SpawnBufferRing:
		lay, err = layoutBufferRing(w, h, n, b.templates, s, cfg, ids)
	case SpawnCircular:
		lay, err = layoutCircular(w, h, n, b.templates, s, cfg, ids)
	default:
		err = fmt.Errorf("%w: strategy %d", ErrInvalidConfig, cfg.Strategy)
	}
	if err != nil {
		return nil, err
	}

	tree := &Tree{Root: lay.root(ids)}

	p := newPlacer(tree, b.templates, s)
	for _, q := range cfg.Quotas {
		if _, err := p.placeByType(q.Type, q.Count, q.Required); err != nil {
			return nil, fmt.Errorf("place %s rooms: %w", q.Type, err)
		}
	}
	if n > 0 {
		if _, err := p.placeByType(RoomTypeSpawn, len(lay.spawns), true); err != nil {
			return nil, fmt.Errorf("place spawn rooms: %w", err)
		}
	}

	var dungeonRooms, spawnRooms []*Room
	for _, r := range tree.Rooms() {
		if r.Type != RoomTypeSpawn {
			dungeonRooms = append(dungeonRooms, r)
		}
	}
	for _, c := range lay.spawns {
		spawnRooms = append(spawnRooms, c.Room)
	}
	if err := checkSpawnOverlap(spawnRooms, dungeonRooms); err != nil {
		return nil, err
	}

	if cfg.ExtraConnectivity {
		tree.Links = append(tree.Links, connectRooms(dungeonRooms, cfg, s)...)
	}
	tree.Links = append(tree.Links, connectSpawns(spawnRooms, dungeonRooms, lay.swath, cfg.Metric, s)...)

	if err := tree.Validate(); err != nil {
		return nil, err
	}

	layers, err := Rasterize(tree, b.templates, s, cfg.TorchChance)
	if err != nil {
		return nil, err
	}

	floor := &Floor{
		Seed:        b.seed,
		Level:       b.level,
		Width:       lay.bounds.W,
		Height:      lay.bounds.H,
		TileSize:    cfg.TileSize,
		Strategy:    cfg.Strategy,
		Layers:      layers,
		Rooms:       tree.Rooms(),
		SpawnPoints: spawnPoints(spawnRooms, b.templates, cfg.TileSize),
		Tree:        tree,
	}

	if bad := floor.UnconnectedSpawns(); len(bad) > 0 {
		log.WithField("spawns", bad).Warn("spawn points not connected to dungeon")
	}

	log.WithFields(logrus.Fields{
		"width":    floor.Width,
		"height":   floor.Height,
		"rooms":    len(floor.Rooms),
		"spawns":   len(floor.SpawnPoints),
		"duration": time.Since(start).String(),
	}).Info("floor generated")

	return floor, nil
}

// connectRooms строит MST по центрам комнат и добавляет немного случайных
// ребер для петель.
func connectRooms(rooms []*Room, cfg Config, s *rng.Stream) []*Corridor {
	centers := make([]Point, len(rooms))
	for i, r := range rooms {
		centers[i] = r.CenterPoint()
	}
	edges := MinimumSpanningTree(centers, cfg.Metric)
	edges = append(edges, ExtraEdges(centers, edges, cfg.ExtraEdgeRatio, cfg.Metric, s)...)

	links := make([]*Corridor, 0, len(edges))
	for _, e := range edges {
		links = append(links, Route(centers[e.A], centers[e.B], cfg.CorridorWidth, cfg.ComplexCorridorSpan, s))
	}
	return links
}

// Generate - короткий вызов для стандартного каталога.
func Generate(seed string, level int, cfg Config) (*Floor, error) {
	return NewLevel(level, seed).WithConfig(cfg).Build()
}

// IsConfigError сообщает, что генерация упала из-за данных (нет шаблона,
// неверный конфиг), а не из-за неудачного сида. Такие ошибки повторная
// попытка с другим сидом не исправит.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrNoTemplate) || errors.Is(err, ErrInvalidConfig)
}
