package dungeon

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

// SpawnPoint - точка появления игрока. X/Y в мировых пикселях,
// RoomX/RoomY/Width/Height - комната спавна в тайлах.
// PlayerID выставляется один раз при занятии и сбрасывается при уходе.
type SpawnPoint struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	RoomX    int     `json:"roomX"`
	RoomY    int     `json:"roomY"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	PlayerID *string `json:"playerId"`
}

// Tile возвращает клетку, в которой стоит точка.
func (sp SpawnPoint) Tile(tileSize int) Point {
	return Point{X: int(sp.X) / tileSize, Y: int(sp.Y) / tileSize}
}

// Floor - готовый этаж. После Build не меняется; следующий этаж заменяет
// его целиком.
type Floor struct {
	Seed        string        `json:"seed"`
	Level       int           `json:"level"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	TileSize    int           `json:"tileSize"`
	Strategy    SpawnStrategy `json:"strategy"`
	Layers      Layers        `json:"layers"`
	Rooms       []*Room       `json:"rooms"`
	SpawnPoints []SpawnPoint  `json:"spawnPoints"`
	Tree        *Tree         `json:"tree"`
}

// RoomsOfType возвращает комнаты заданного типа.
func (f *Floor) RoomsOfType(roomType string) []*Room {
	var out []*Room
	for _, r := range f.Rooms {
		if r.Type == roomType {
			out = append(out, r)
		}
	}
	return out
}

// Walkable - клетка проходима (пол или дыра).
func (f *Floor) Walkable(x, y int) bool {
	v, ok := f.Layers.Tiles.Get(x, y)
	return ok && v <= 0
}

// Reachable - заливка по проходимым клеткам от from.
func Reachable(tiles *Grid, from Point) mapset.Set[Point] {
	visited := mapset.New[Point]()
	if v, ok := tiles.Get(from.X, from.Y); !ok || v > 0 {
		return visited
	}
	queue := []Point{from}
	visited.Put(from)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range [4]Point{{0, -1}, {1, 0}, {0, 1}, {-1, 0}} {
			next := Point{X: p.X + d.X, Y: p.Y + d.Y}
			if visited.Has(next) {
				continue
			}
			if v, ok := tiles.Get(next.X, next.Y); ok && v <= 0 {
				visited.Put(next)
				queue = append(queue, next)
			}
		}
	}
	return visited
}

// ComponentLabels размечает связные области проходимых клеток за один
// проход. Метка клетки (x, y) лежит в labels[y*w+x]; у стен метка 0,
// области нумеруются с 1.
func ComponentLabels(tiles *Grid) []int32 {
	w, h := tiles.Width(), tiles.Height()
	labels := make([]int32, w*h)
	queue := make([]int, 0, 64)
	var next int32

	for start := range labels {
		if labels[start] != 0 || tiles.cells[start] > 0 {
			continue
		}
		next++
		labels[start] = next
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w
			for _, d := range [4]Point{{0, -1}, {1, 0}, {0, 1}, {-1, 0}} {
				nx, ny := x+d.X, y+d.Y
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if labels[j] == 0 && tiles.cells[j] <= 0 {
					labels[j] = next
					queue = append(queue, j)
				}
			}
		}
	}
	return labels
}

// UnconnectedSpawns возвращает ID точек спавна, из которых по полу не
// дойти до центра ни одной комнаты подземелья.
func (f *Floor) UnconnectedSpawns() []string {
	tiles := f.Layers.Tiles
	labels := ComponentLabels(tiles)
	labelAt := func(p Point) int32 {
		if !tiles.InBounds(p.X, p.Y) {
			return 0
		}
		return labels[p.Y*tiles.Width()+p.X]
	}

	targets := make(map[int32]bool)
	for _, r := range f.Rooms {
		if r.Type == RoomTypeSpawn {
			continue
		}
		if l := labelAt(r.CenterPoint()); l != 0 {
			targets[l] = true
		}
	}

	var out []string
	for _, sp := range f.SpawnPoints {
		if l := labelAt(sp.Tile(f.TileSize)); l == 0 || !targets[l] {
			out = append(out, sp.ID)
		}
	}
	return out
}

// Summary - короткое описание для логов и инспектора архива.
func (f *Floor) Summary() string {
	counts := make(map[string]int)
	for _, r := range f.Rooms {
		counts[r.Type]++
	}
	return fmt.Sprintf("level=%d seed=%q %dx%d strategy=%s rooms=%d (boss=%d entrance=%d heal=%d treasure=%d monsters=%d spawn=%d) spawnPoints=%d",
		f.Level, f.Seed, f.Width, f.Height, f.Strategy, len(f.Rooms),
		counts[RoomTypeBoss], counts[RoomTypeEntrance], counts[RoomTypeHeal],
		counts[RoomTypeTreasure], counts[RoomTypeMonsters], counts[RoomTypeSpawn],
		len(f.SpawnPoints))
}

// spawnPoints строит точки по комнатам спавна: маркер 21 в шаблоне, иначе
// центр комнаты.
func spawnPoints(rooms []*Room, set *TemplateSet, tileSize int) []SpawnPoint {
	points := make([]SpawnPoint, 0, len(rooms))
	half := float64(tileSize) / 2
	for i, r := range rooms {
		sp := SpawnPoint{
			ID:     fmt.Sprintf("spawn_%d", i),
			RoomX:  r.X,
			RoomY:  r.Y,
			Width:  r.W,
			Height: r.H,
		}
		tx, ty := r.Center()
		if tpl, ok := set.Get(r.TemplateID); ok {
			if m, ok := tpl.MarkerPoint(); ok {
				tx, ty = r.X+m.X, r.Y+m.Y
			}
		}
		sp.X = float64(tx*tileSize) + half
		sp.Y = float64(ty*tileSize) + half
		points = append(points, sp)
	}
	return points
}
