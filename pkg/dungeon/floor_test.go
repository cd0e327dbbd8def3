package dungeon

import (
	"slices"
	"testing"
)

func TestComponentLabels(t *testing.T) {
	g := createTestGrid(t,
		"..#..",
		"..#o.",
		"###..",
		".#...",
	)
	labels := ComponentLabels(g)
	at := func(x, y int) int32 { return labels[y*g.Width()+x] }

	if at(2, 0) != 0 || at(1, 3) != 0 {
		t.Error("walls must have label 0")
	}
	if at(0, 0) == 0 || at(0, 0) != at(1, 1) {
		t.Error("top-left floor must share one label")
	}
	if at(3, 0) != at(3, 1) || at(3, 1) != at(4, 3) {
		t.Error("hole must connect to the floor around it")
	}
	if at(0, 0) == at(3, 0) || at(0, 3) == at(0, 0) || at(0, 3) == at(3, 0) {
		t.Error("separate regions share a label")
	}

	// Совпадает с заливкой от каждой клетки.
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if at(x, y) == 0 {
				continue
			}
			Reachable(g, Point{X: x, Y: y}).Each(func(p Point) {
				if at(p.X, p.Y) != at(x, y) {
					t.Errorf("(%d,%d) reaches (%d,%d) with a different label", x, y, p.X, p.Y)
				}
			})
		}
	}
}

func TestFloor_UnconnectedSpawns(t *testing.T) {
	const tile = 16
	g := createTestGrid(t,
		"......#...",
		"......#...",
		"######....",
		"..#.......",
	)
	spawnAt := func(id string, x, y int) SpawnPoint {
		return SpawnPoint{ID: id, X: float64(x*tile + tile/2), Y: float64(y*tile + tile/2)}
	}
	floor := &Floor{
		TileSize: tile,
		Layers:   Layers{Tiles: g},
		Rooms: []*Room{
			{ID: 0, Rect: Rect{X: 7, Y: 0, W: 3, H: 3}, Type: RoomTypeBoss},
			{ID: 1, Rect: Rect{X: 0, Y: 0, W: 2, H: 2}, Type: RoomTypeSpawn},
		},
		SpawnPoints: []SpawnPoint{
			spawnAt("linked", 3, 3),
			spawnAt("cut_off", 1, 1),
			spawnAt("in_wall", 2, 3),
			spawnAt("outside", 20, 20),
		},
	}

	got := floor.UnconnectedSpawns()
	want := []string{"cut_off", "in_wall", "outside"}
	if !slices.Equal(got, want) {
		t.Errorf("UnconnectedSpawns() = %v, want %v", got, want)
	}
}
