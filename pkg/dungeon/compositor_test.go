package dungeon

import (
	"encoding/json"
	"testing"

	"dungeon-dash-server/pkg/rng"
)

// createTestGrid строит сетку из строк: '#' - стена, '.' - пол, 'o' - дыра.
func createTestGrid(t *testing.T, rows ...string) *Grid {
	t.Helper()
	g := NewGrid(len(rows[0]), len(rows), TileFloor)
	for y, row := range rows {
		for x, ch := range row {
			switch ch {
			case '#':
				g.Set(x, y, TileWall)
			case 'o':
				g.Set(x, y, TileHole)
			}
		}
	}
	return g
}

func TestGrid_CloneIsDeep(t *testing.T) {
	original := NewGrid(4, 3, TileWall)
	copyGrid := original.Clone()

	copyGrid.Set(1, 1, 99)
	copyGrid.FillRect(Rect{W: 2, H: 2}, -5)

	if v, _ := original.Get(1, 1); v != TileWall {
		t.Errorf("mutating the clone changed the original: %d", v)
	}
	if original.Count(func(v int) bool { return v != TileWall }) != 0 {
		t.Error("original grid was modified")
	}

	layers := NewLayers(3, 3)
	lc := layers.Clone()
	lc.Props.Set(0, 0, PropChest)
	if v, _ := layers.Props.Get(0, 0); v != PropNone {
		t.Error("Layers.Clone shares prop storage")
	}
}

func TestGrid_Bounds(t *testing.T) {
	g := NewGrid(3, 2, 0)

	tests := []struct {
		x, y int
		ok   bool
	}{
		{0, 0, true},
		{2, 1, true},
		{3, 0, false},
		{0, 2, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		if _, ok := g.Get(tt.x, tt.y); ok != tt.ok {
			t.Errorf("Get(%d,%d) ok = %v, want %v", tt.x, tt.y, ok, tt.ok)
		}
		if set := g.Set(tt.x, tt.y, 7); set != tt.ok {
			t.Errorf("Set(%d,%d) = %v, want %v", tt.x, tt.y, set, tt.ok)
		}
	}
	if g.At(-1, -1, 42) != 42 {
		t.Error("At should return default outside the grid")
	}
}

func TestGrid_JSONRows(t *testing.T) {
	g := createTestGrid(t, "#.", ".#")
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[[1,0],[0,1]]" {
		t.Errorf("json = %s", data)
	}

	var back Grid
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(g) {
		t.Error("decoded grid differs")
	}

	if _, err := GridFromRows([][]int{{1, 2}, {3}}); err == nil {
		t.Error("expected error for ragged rows")
	}
}

func TestWallMask_AllNeighbourhoodsMapped(t *testing.T) {
	// Перебираем все 256 окружений центральной стены.
	offsets := []Point{{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}}
	for bits := 0; bits < 256; bits++ {
		g := NewGrid(3, 3, TileFloor)
		g.Set(1, 1, TileWall)
		for i, o := range offsets {
			if bits&(1<<i) != 0 {
				g.Set(1+o.X, 1+o.Y, TileWall)
			}
		}
		mask := WallMask(g, 1, 1)
		if _, ok := WallSprite(mask); !ok {
			t.Errorf("neighbourhood %08b produced unmapped mask %d", bits, mask)
		}
	}
}

func TestWallMask_Cases(t *testing.T) {
	tests := []struct {
		name   string
		rows   []string
		x, y   int
		mask   uint8
		sprite int
	}{
		{"isolated", []string{"...", ".#.", "..."}, 1, 1, 0, SpriteIsolated},
		{"diagonal only ignored", []string{"..#", ".#.", "..."}, 1, 1, 0, SpriteIsolated},
		{"surrounded", []string{"###", "###", "###"}, 1, 1, 255, 46},
		{"front face", []string{"###", "###", "..."}, 1, 1, maskN | maskNE | maskE | maskW | maskNW, SpriteWallFront},
		{"left end", []string{".##", ".##", "..."}, 1, 1, maskN | maskNE | maskE, SpriteWallLeft},
		{"right end", []string{"##.", "##.", "..."}, 1, 1, maskN | maskW | maskNW, SpriteWallRight},
		{"edge counts as solid", []string{"#..", "#..", "..."}, 0, 0, maskN | maskW | maskNW | maskS | maskSW, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := createTestGrid(t, tt.rows...)
			mask := WallMask(g, tt.x, tt.y)
			if mask != tt.mask {
				t.Fatalf("mask = %d, want %d", mask, tt.mask)
			}
			sprite, ok := WallSprite(mask)
			if !ok {
				t.Fatalf("mask %d unmapped", mask)
			}
			if tt.sprite != 0 && sprite != tt.sprite {
				t.Errorf("sprite = %d, want %d", sprite, tt.sprite)
			}
		})
	}
}

func TestWallSprite_Table(t *testing.T) {
	masks := WallMasks()
	if len(masks) != 47 {
		t.Fatalf("table has %d entries, want 47", len(masks))
	}
	seen := make(map[int]bool)
	for mask, sprite := range masks {
		if sprite < 1 || sprite > 47 {
			t.Errorf("mask %d maps to sprite %d outside 1..47", mask, sprite)
		}
		if seen[sprite] {
			t.Errorf("sprite %d used twice", sprite)
		}
		seen[sprite] = true
	}
	if _, ok := WallSprite(maskNE); ok {
		t.Error("diagonal-only mask must not be in the table")
	}
}

func TestApplyMasks_Holes(t *testing.T) {
	g := createTestGrid(t,
		"#####",
		"#.o.#",
		"#.o.#",
		"#.o.#",
		"#####",
	)
	if err := applyMasks(g); err != nil {
		t.Fatal(err)
	}

	want := []int{HoleTop, HoleShaft, HoleShaft}
	for i, w := range want {
		if v, _ := g.Get(2, 1+i); v != w {
			t.Errorf("hole at row %d = %d, want %d", 1+i, v, w)
		}
	}
	if v, _ := g.Get(1, 1); v != TileFloor {
		t.Errorf("floor changed to %d", v)
	}
	if g.Count(func(v int) bool { return v == TileWall }) == g.Count(func(v int) bool { return v > 0 }) {
		t.Error("walls were not converted to sprites")
	}
}

func TestRasterize_Order(t *testing.T) {
	// Один лист с комнатой и коридор, проходящий сквозь нее.
	ids := &idGen{}
	root := ids.container(Rect{W: 20, H: 12})
	tree := &Tree{Root: NewLeaf(root)}

	tpl := buildTemplate("pillared", RoomTypeMonsters, 8, 8, decor{pillars: true, monster: MonsterSlime})
	set := mustTemplateSet(t, tpl)
	p := newPlacer(tree, set, rng.New("order"))
	room := p.place(root, &tpl)
	tree.Links = []*Corridor{{Rect: hSpan(0, 19, room.Y+1, 3)}}

	layers, err := Rasterize(tree, set, rng.New("order"), 1)
	if err != nil {
		t.Fatal(err)
	}

	// Колонна шаблона перекрывает коридор.
	pillarX, pillarY := room.X+1, room.Y+1
	if v, _ := layers.Tiles.Get(pillarX, pillarY); v <= 0 {
		t.Errorf("pillar at (%d,%d) = %d, want wall sprite", pillarX, pillarY, v)
	}
	// Коридор вне комнаты - пол.
	if v, _ := layers.Tiles.Get(0, room.Y+1); v != TileFloor {
		t.Errorf("corridor tile = %d, want floor", v)
	}
	if layers.Monsters.Count(func(v int) bool { return v == MonsterSlime }) == 0 {
		t.Error("monsters layer was not stamped")
	}

	// При шансе 1 факел стоит на каждой лицевой стене и только на ней.
	for y := 0; y < layers.Tiles.Height(); y++ {
		for x := 0; x < layers.Tiles.Width(); x++ {
			tile, _ := layers.Tiles.Get(x, y)
			prop, _ := layers.Props.Get(x, y)
			if (prop == PropTorch) != IsTorchWall(tile) {
				t.Fatalf("torch mismatch at (%d,%d): tile %d prop %d", x, y, tile, prop)
			}
		}
	}
}
