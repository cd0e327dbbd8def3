package dungeon

import (
	"fmt"
	"sort"
)

// Типы комнат.
const (
	RoomTypeBoss     = "boss"
	RoomTypeEntrance = "entrance"
	RoomTypeHeal     = "heal"
	RoomTypeTreasure = "treasure"
	RoomTypeMonsters = "monsters"
	RoomTypeSpawn    = "spawn"
)

// Коды тайлов (слой tiles) до постобработки.
const (
	TileFloor = 0
	TileWall  = 1
	TileHole  = -1
)

// Коды пропов (слой props).
const (
	PropNone     = 0
	PropTorch    = 10
	PropChest    = 11
	PropShrine   = 12
	PropFountain = 13
	PropSpawn    = 21
)

// Коды монстров (слой monsters).
const (
	MonsterNone = iota
	MonsterSlime
	MonsterSkeleton
	MonsterBat
	MonsterBoss
)

// TemplateLayers - слои шаблона. Каждый слой совпадает с размером шаблона.
type TemplateLayers struct {
	Tiles    [][]int `json:"tiles"`
	Props    [][]int `json:"props"`
	Monsters [][]int `json:"monsters"`
}

// RoomTemplate - неизменяемое описание комнаты.
type RoomTemplate struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Layers TemplateLayers `json:"layers"`
}

// Fits проверяет, влезает ли шаблон в контейнер.
func (t *RoomTemplate) Fits(r Rect) bool {
	return t.Width <= r.W && t.Height <= r.H
}

func (t *RoomTemplate) Area() int { return t.Width * t.Height }

// Validate проверяет, что каждый слой точно совпадает с размером шаблона.
func (t *RoomTemplate) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("template %s: empty footprint", t.ID)
	}
	layers := map[string][][]int{
		"tiles":    t.Layers.Tiles,
		"props":    t.Layers.Props,
		"monsters": t.Layers.Monsters,
	}
	for name, layer := range layers {
		if len(layer) != t.Height {
			return fmt.Errorf("template %s: layer %s has %d rows, want %d", t.ID, name, len(layer), t.Height)
		}
		for y, row := range layer {
			if len(row) != t.Width {
				return fmt.Errorf("template %s: layer %s row %d has %d cells, want %d", t.ID, name, y, len(row), t.Width)
			}
		}
	}
	return nil
}

// MarkerPoint ищет в слое props маркер спавна. false - маркера нет.
func (t *RoomTemplate) MarkerPoint() (Point, bool) {
	for y, row := range t.Layers.Props {
		for x, v := range row {
			if v == PropSpawn {
				return Point{X: x, Y: y}, true
			}
		}
	}
	return Point{}, false
}

// Room - размещенная комната. Шаблон хранится по ID, контейнер - по ID,
// чтобы структура сериализовалась без циклов.
type Room struct {
	ID int `json:"id"`
	Rect
	TemplateID  string `json:"template"`
	Type        string `json:"type"`
	ContainerID int    `json:"containerId"`
}

// TemplateSet - каталог шаблонов, сгруппированный по типу.
type TemplateSet struct {
	byID   map[string]*RoomTemplate
	byType map[string][]*RoomTemplate
}

// NewTemplateSet проверяет шаблоны и строит индексы. Внутри типа шаблоны
// отсортированы по убыванию площади, при равенстве - по ID.
func NewTemplateSet(templates []RoomTemplate) (*TemplateSet, error) {
	ts := &TemplateSet{
		byID:   make(map[string]*RoomTemplate, len(templates)),
		byType: make(map[string][]*RoomTemplate),
	}
	for i := range templates {
		t := &templates[i]
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := ts.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		ts.byID[t.ID] = t
		ts.byType[t.Type] = append(ts.byType[t.Type], t)
	}
	for _, list := range ts.byType {
		sort.Slice(list, func(i, j int) bool {
			if list[i].Area() != list[j].Area() {
				return list[i].Area() > list[j].Area()
			}
			return list[i].ID < list[j].ID
		})
	}
	return ts, nil
}

// Get возвращает шаблон по ID.
func (ts *TemplateSet) Get(id string) (*RoomTemplate, bool) {
	t, ok := ts.byID[id]
	return t, ok
}

// ByType возвращает шаблоны типа от большего к меньшему.
func (ts *TemplateSet) ByType(roomType string) []*RoomTemplate {
	return ts.byType[roomType]
}

// Smallest - минимальный шаблон типа (для оценки места под спавны).
func (ts *TemplateSet) Smallest(roomType string) (*RoomTemplate, bool) {
	list := ts.byType[roomType]
	if len(list) == 0 {
		return nil, false
	}
	return list[len(list)-1], true
}

// --- Встроенный каталог ---

// decor описывает, чем украсить комнату.
type decor struct {
	pillars  bool
	holes    bool
	prop     int // проп в центре
	monster  int // монстры по углам
	spawnMkr bool
}

// buildTemplate собирает шаблон: весь пол проходим (края и центральный крест
// остаются пустыми, чтобы коридоры, входящие с любой стороны, не упирались
// в декор).
func buildTemplate(id, roomType string, w, h int, d decor) RoomTemplate {
	tiles := makeLayer(w, h)
	props := makeLayer(w, h)
	monsters := makeLayer(w, h)

	cx, cy := w/2, h/2
	decorated := func(x, y int) bool {
		if x == 0 || y == 0 || x == w-1 || y == h-1 {
			return false
		}
		return abs(x-cx) >= 3 && abs(y-cy) >= 3
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !decorated(x, y) {
				continue
			}
			switch {
			case d.pillars && x%3 == 1 && y%3 == 1:
				tiles[y][x] = TileWall
			case d.holes && (x+y)%4 == 0:
				tiles[y][x] = TileHole
				if y+1 < h-1 && decorated(x, y+1) {
					tiles[y+1][x] = TileHole
				}
			}
		}
	}

	if d.prop != PropNone {
		props[cy][cx] = d.prop
	}
	if d.spawnMkr {
		props[cy][cx] = PropSpawn
	}
	if d.monster != MonsterNone && w > 4 && h > 4 {
		for _, p := range []Point{{1, 1}, {w - 2, 1}, {1, h - 2}, {w - 2, h - 2}} {
			if tiles[p.Y][p.X] == TileFloor {
				monsters[p.Y][p.X] = d.monster
			}
		}
	}

	return RoomTemplate{
		ID:     id,
		Type:   roomType,
		Width:  w,
		Height: h,
		Layers: TemplateLayers{Tiles: tiles, Props: props, Monsters: monsters},
	}
}

func makeLayer(w, h int) [][]int {
	layer := make([][]int, h)
	for y := range layer {
		layer[y] = make([]int, w)
	}
	return layer
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// DefaultTemplates возвращает встроенный каталог комнат.
func DefaultTemplates() []RoomTemplate {
	return []RoomTemplate{
		buildTemplate("boss_large", RoomTypeBoss, 12, 12, decor{pillars: true, monster: MonsterBoss}),
		buildTemplate("boss_medium", RoomTypeBoss, 10, 10, decor{pillars: true, monster: MonsterBoss}),
		buildTemplate("boss_small", RoomTypeBoss, 8, 8, decor{monster: MonsterBoss}),

		buildTemplate("entrance_hall", RoomTypeEntrance, 8, 8, decor{}),
		buildTemplate("entrance_small", RoomTypeEntrance, 6, 6, decor{}),

		buildTemplate("heal_fountain", RoomTypeHeal, 8, 7, decor{prop: PropFountain}),
		buildTemplate("heal_shrine", RoomTypeHeal, 6, 6, decor{prop: PropShrine}),

		buildTemplate("treasure_vault", RoomTypeTreasure, 9, 8, decor{holes: true, prop: PropChest}),
		buildTemplate("treasure_nook", RoomTypeTreasure, 6, 6, decor{prop: PropChest}),

		buildTemplate("monsters_cavern", RoomTypeMonsters, 14, 12, decor{holes: true, monster: MonsterSkeleton}),
		buildTemplate("monsters_hall", RoomTypeMonsters, 12, 10, decor{pillars: true, monster: MonsterSkeleton}),
		buildTemplate("monsters_den", RoomTypeMonsters, 10, 8, decor{holes: true, monster: MonsterSlime}),
		buildTemplate("monsters_pit", RoomTypeMonsters, 8, 8, decor{monster: MonsterSlime}),
		buildTemplate("monsters_roost", RoomTypeMonsters, 6, 6, decor{monster: MonsterBat}),

		buildTemplate("spawn_camp", RoomTypeSpawn, 6, 6, decor{spawnMkr: true}),
		buildTemplate("spawn_small", RoomTypeSpawn, 5, 5, decor{}),
	}
}
