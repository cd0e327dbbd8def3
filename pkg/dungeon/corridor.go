package dungeon

import (
	"dungeon-dash-server/pkg/rng"
)

// Corridor - прямоугольный проход. Для L-образных и сложных маршрутов
// добавляются второй и третий сегменты.
type Corridor struct {
	Rect
	SecondSegment *Rect `json:"secondSegment,omitempty"`
	ThirdSegment  *Rect `json:"thirdSegment,omitempty"`
}

// Horizontal - направление первого сегмента.
func (c *Corridor) Horizontal() bool {
	return c.W > c.H
}

// Segments возвращает все сегменты коридора.
func (c *Corridor) Segments() []Rect {
	segs := []Rect{c.Rect}
	if c.SecondSegment != nil {
		segs = append(segs, *c.SecondSegment)
	}
	if c.ThirdSegment != nil {
		segs = append(segs, *c.ThirdSegment)
	}
	return segs
}

func (c *Corridor) translate(dx, dy int) {
	c.Rect = c.Rect.Translate(dx, dy)
	if c.SecondSegment != nil {
		r := c.SecondSegment.Translate(dx, dy)
		c.SecondSegment = &r
	}
	if c.ThirdSegment != nil {
		r := c.ThirdSegment.Translate(dx, dy)
		c.ThirdSegment = &r
	}
}

// hSpan - горизонтальная полоса толщиной width, симметрично вокруг линии y.
func hSpan(x1, x2, y, width int) Rect {
	lo, hi := min(x1, x2), max(x1, x2)
	half := width / 2
	return Rect{X: lo - half, Y: y - half, W: hi - lo + width, H: width}
}

// vSpan - вертикальная полоса толщиной width, симметрично вокруг линии x.
func vSpan(y1, y2, x, width int) Rect {
	lo, hi := min(y1, y2), max(y1, y2)
	half := width / 2
	return Rect{X: x - half, Y: lo - half, W: width, H: hi - lo + width}
}

// SiblingCorridor соединяет центры двух соседних контейнеров.
func SiblingCorridor(a, b *Container, width int, s *rng.Stream) *Corridor {
	return StraightOrL(a.CenterPoint(), b.CenterPoint(), width, s)
}

// StraightOrL строит прямой коридор, если точки на одной оси, иначе L-образный.
func StraightOrL(a, b Point, width int, s *rng.Stream) *Corridor {
	switch {
	case a.Y == b.Y:
		return &Corridor{Rect: hSpan(a.X, b.X, a.Y, width)}
	case a.X == b.X:
		return &Corridor{Rect: vSpan(a.Y, b.Y, a.X, width)}
	}
	return LCorridor(a, b, width, s)
}

// LCorridor - L-образный коридор; какая нога идет первой, решает поток.
func LCorridor(a, b Point, width int, s *rng.Stream) *Corridor {
	if s.Probability(0.5) {
		// сначала по горизонтали, изгиб в (b.X, a.Y)
		second := vSpan(a.Y, b.Y, b.X, width)
		return &Corridor{Rect: hSpan(a.X, b.X, a.Y, width), SecondSegment: &second}
	}
	// сначала по вертикали, изгиб в (a.X, b.Y)
	second := hSpan(a.X, b.X, b.Y, width)
	return &Corridor{Rect: vSpan(a.Y, b.Y, a.X, width), SecondSegment: &second}
}

// ComplexCorridor - маршрут с двумя изгибами для длинных пролетов.
func ComplexCorridor(a, b Point, width int, s *rng.Stream) *Corridor {
	if s.Probability(0.5) {
		mx := s.Int(min(a.X, b.X), max(a.X, b.X))
		second := vSpan(a.Y, b.Y, mx, width)
		third := hSpan(mx, b.X, b.Y, width)
		return &Corridor{Rect: hSpan(a.X, mx, a.Y, width), SecondSegment: &second, ThirdSegment: &third}
	}
	my := s.Int(min(a.Y, b.Y), max(a.Y, b.Y))
	second := hSpan(a.X, b.X, my, width)
	third := vSpan(my, b.Y, b.X, width)
	return &Corridor{Rect: vSpan(a.Y, my, a.X, width), SecondSegment: &second, ThirdSegment: &third}
}

// Route выбирает форму коридора: прямой, L, или с двумя изгибами,
// если манхэттенская длина больше complexSpan.
func Route(a, b Point, width, complexSpan int, s *rng.Stream) *Corridor {
	if a.X == b.X || a.Y == b.Y {
		return StraightOrL(a, b, width, s)
	}
	if complexSpan > 0 && Manhattan.Distance(a, b) > float64(complexSpan) {
		return ComplexCorridor(a, b, width, s)
	}
	return LCorridor(a, b, width, s)
}

// Carve прорубает пол во всех клетках коридора (с обрезкой по границам).
func (c *Corridor) Carve(g *Grid) {
	for _, seg := range c.Segments() {
		g.FillRect(seg, TileFloor)
	}
}
