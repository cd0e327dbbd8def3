package dungeon

import "math"

// Point - точка в тайлах.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect - прямоугольник в тайлах, выровненный по осям.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"width"`
	H int `json:"height"`
}

// Center возвращает центр (целочисленное деление).
func (r Rect) Center() (int, int) {
	return r.X + r.W/2, r.Y + r.H/2
}

func (r Rect) CenterPoint() Point {
	x, y := r.Center()
	return Point{X: x, Y: y}
}

func (r Rect) Area() int   { return r.W * r.H }
func (r Rect) Right() int  { return r.X + r.W }
func (r Rect) Bottom() int { return r.Y + r.H }

// Intersects проверяет строгое пересечение (касание краями не считается).
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.Right() && r.Right() > other.X &&
		r.Y < other.Bottom() && r.Bottom() > other.Y
}

// Contains проверяет, лежит ли тайл внутри прямоугольника.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Inflate расширяет прямоугольник на d тайлов во все стороны.
func (r Rect) Inflate(d int) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Translate сдвигает прямоугольник.
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Ratio - min(w/h, h/w). Для вырожденного прямоугольника 0.
func (r Rect) Ratio() float64 {
	if r.W <= 0 || r.H <= 0 {
		return 0
	}
	w, h := float64(r.W), float64(r.H)
	return math.Min(w/h, h/w)
}

// DistanceMetric - метрика расстояния между центрами комнат.
type DistanceMetric uint8

const (
	Euclidean DistanceMetric = iota
	Manhattan
)

// Distance считает расстояние между двумя точками.
func (m DistanceMetric) Distance(a, b Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	if m == Manhattan {
		return math.Abs(dx) + math.Abs(dy)
	}
	return math.Hypot(dx, dy)
}
