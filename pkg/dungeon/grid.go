package dungeon

import (
	"encoding/json"
	"fmt"
)

// Grid - двумерный буфер целых чисел фиксированного размера.
// Хранится построчно в одном срезе.
type Grid struct {
	w, h  int
	cells []int
}

// NewGrid создает сетку, заполненную fill.
func NewGrid(w, h, fill int) *Grid {
	g := &Grid{w: w, h: h, cells: make([]int, w*h)}
	if fill != 0 {
		g.Fill(fill)
	}
	return g
}

// GridFromRows копирует строки в новую сетку. Строки должны быть одной длины.
func GridFromRows(rows [][]int) (*Grid, error) {
	h := len(rows)
	if h == 0 {
		return NewGrid(0, 0, 0), nil
	}
	w := len(rows[0])
	g := NewGrid(w, h, 0)
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("row %d has %d cells, want %d", y, len(row), w)
		}
		copy(g.cells[y*w:(y+1)*w], row)
	}
	return g, nil
}

func (g *Grid) Width() int  { return g.w }
func (g *Grid) Height() int { return g.h }

// InBounds проверяет координаты.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.w && y < g.h
}

// Get возвращает значение клетки; ok=false за пределами сетки.
func (g *Grid) Get(x, y int) (int, bool) {
	if !g.InBounds(x, y) {
		return 0, false
	}
	return g.cells[y*g.w+x], true
}

// At - Get без флага, за пределами возвращает def.
func (g *Grid) At(x, y, def int) int {
	if v, ok := g.Get(x, y); ok {
		return v
	}
	return def
}

// Set записывает значение; false если клетка вне сетки.
func (g *Grid) Set(x, y, v int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	g.cells[y*g.w+x] = v
	return true
}

// Fill заполняет всю сетку.
func (g *Grid) Fill(v int) {
	for i := range g.cells {
		g.cells[i] = v
	}
}

// FillRect заполняет прямоугольник, обрезая его по границам сетки.
func (g *Grid) FillRect(r Rect, v int) {
	x0, y0 := max(r.X, 0), max(r.Y, 0)
	x1, y1 := min(r.Right(), g.w), min(r.Bottom(), g.h)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			g.cells[y*g.w+x] = v
		}
	}
}

// Stamp накладывает подсетку в точку (ox, oy). Ячейки вне сетки отбрасываются.
func (g *Grid) Stamp(ox, oy int, src [][]int) {
	for y, row := range src {
		for x, v := range row {
			g.Set(ox+x, oy+y, v)
		}
	}
}

// Clone возвращает глубокую копию.
func (g *Grid) Clone() *Grid {
	c := &Grid{w: g.w, h: g.h, cells: make([]int, len(g.cells))}
	copy(c.cells, g.cells)
	return c
}

// Rows возвращает копию в виде [][]int.
func (g *Grid) Rows() [][]int {
	rows := make([][]int, g.h)
	for y := range rows {
		rows[y] = make([]int, g.w)
		copy(rows[y], g.cells[y*g.w:(y+1)*g.w])
	}
	return rows
}

// Count считает клетки, для которых pred истинно.
func (g *Grid) Count(pred func(v int) bool) int {
	n := 0
	for _, v := range g.cells {
		if pred(v) {
			n++
		}
	}
	return n
}

// Equal сравнивает размеры и содержимое.
func (g *Grid) Equal(other *Grid) bool {
	if g.w != other.w || g.h != other.h {
		return false
	}
	for i, v := range g.cells {
		if other.cells[i] != v {
			return false
		}
	}
	return true
}

func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Rows())
}

func (g *Grid) UnmarshalJSON(data []byte) error {
	var rows [][]int
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	parsed, err := GridFromRows(rows)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}

// Layers - три слоя этажа одинакового размера.
type Layers struct {
	Tiles    *Grid `json:"tiles"`
	Props    *Grid `json:"props"`
	Monsters *Grid `json:"monsters"`
}

// NewLayers создает слои: tiles - все стены, остальное пусто.
func NewLayers(w, h int) Layers {
	return Layers{
		Tiles:    NewGrid(w, h, TileWall),
		Props:    NewGrid(w, h, PropNone),
		Monsters: NewGrid(w, h, MonsterNone),
	}
}

// Clone копирует все слои.
func (l Layers) Clone() Layers {
	return Layers{Tiles: l.Tiles.Clone(), Props: l.Props.Clone(), Monsters: l.Monsters.Clone()}
}
