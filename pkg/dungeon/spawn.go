package dungeon

import (
	"fmt"
	"math"

	"dungeon-dash-server/pkg/logger"
	"dungeon-dash-server/pkg/rng"

	"github.com/sirupsen/logrus"
)

// maxGrowSteps ограничивает расширение карты под спавны.
const maxGrowSteps = 32

// layout - результат стратегии спавна до размещения комнат: общие границы,
// корень внутреннего подземелья и контейнеры под комнаты спавна.
type layout struct {
	bounds Rect
	inner  *Node
	spawns []*Container
	swath  int
}

// root собирает корень дерева. Без спавнов корнем остается само подземелье.
func (l layout) root(ids *idGen) *Node {
	if len(l.spawns) == 0 {
		return l.inner
	}
	children := make([]*Node, 0, len(l.spawns)+1)
	children = append(children, l.inner)
	for _, c := range l.spawns {
		children = append(children, NewLeaf(c))
	}
	return NewCluster(ids.container(l.bounds), children...)
}

// spawnFootprint - сторона квадратного контейнера спавна с зазором.
func spawnFootprint(set *TemplateSet, cfg Config) (int, error) {
	tpl, ok := set.Smallest(RoomTypeSpawn)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoTemplate, RoomTypeSpawn)
	}
	return max(tpl.Width, tpl.Height) + 2*cfg.SpawnMargin, nil
}

// perSide - сколько спавнов приходится на сторону.
func perSide(n int) int {
	return (n + 3) / 4
}

// sideCounts раскладывает n спавнов по сторонам (верх, право, низ, лево),
// не больше perSide(n) на сторону.
func sideCounts(n int) [4]int {
	var counts [4]int
	per := perSide(n)
	for side := 0; side < 4 && n > 0; side++ {
		counts[side] = min(per, n)
		n -= counts[side]
	}
	return counts
}

func buildInner(area Rect, s *rng.Stream, cfg Config, ids *idGen) *Node {
	return splitTree(ids.container(area), cfg.Iterations, s, cfg, ids)
}

// layoutPerimeter: до BSP от каждого края отрезается полоса толщиной в
// контейнер спавна, полосы делятся на ячейки, центр делится обычным BSP.
func layoutPerimeter(w, h, n int, set *TemplateSet, s *rng.Stream, cfg Config, ids *idGen) (layout, error) {
	t, err := spawnFootprint(set, cfg)
	if err != nil {
		return layout{}, err
	}
	counts := sideCounts(n)
	per := perSide(n)

	// Боковые полосы короче на два угла; под них и растим карту.
	for step := 0; per*t > h-2*t || per*t > w || w-2*t < 2*cfg.MinLeafSize || h-2*t < 2*cfg.MinLeafSize; step++ {
		if step >= maxGrowSteps {
			return layout{}, fmt.Errorf("%w: %d players on %dx%d", ErrSpawnCapacity, n, w, h)
		}
		w += t
		h += t
	}

	strips := [4]Rect{
		{X: 0, Y: 0, W: w, H: t},           // верх
		{X: w - t, Y: t, W: t, H: h - 2*t}, // право
		{X: 0, Y: h - t, W: w, H: t},       // низ
		{X: 0, Y: t, W: t, H: h - 2*t},     // лево
	}

	l := layout{bounds: Rect{W: w, H: h}, swath: cfg.CorridorWidth}
	l.inner = buildInner(Rect{X: t, Y: t, W: w - 2*t, H: h - 2*t}, s, cfg, ids)

	for side, strip := range strips {
		k := counts[side]
		if k == 0 {
			continue
		}
		horizontal := strip.W > strip.H
		length := strip.H
		if horizontal {
			length = strip.W
		}
		cell := length / k
		for i := 0; i < k; i++ {
			size := cell
			if i == k-1 {
				size = length - cell*(k-1)
			}
			var r Rect
			if horizontal {
				r = Rect{X: strip.X + i*cell, Y: strip.Y, W: size, H: strip.H}
			} else {
				r = Rect{X: strip.X, Y: strip.Y + i*cell, W: strip.W, H: size}
			}
			c := ids.container(r)
			c.Spawn = true
			l.spawns = append(l.spawns, c)
		}
	}
	return l, nil
}

// layoutBufferRing: карта расширяется кольцом шириной BufferWidth, BSP
// работает только внутри исходных границ, спавны равномерно стоят в кольце.
func layoutBufferRing(w, h, n int, set *TemplateSet, s *rng.Stream, cfg Config, ids *idGen) (layout, error) {
	t, err := spawnFootprint(set, cfg)
	if err != nil {
		return layout{}, err
	}
	b := max(cfg.BufferWidth, t)
	counts := sideCounts(n)
	per := perSide(n)

	for step := 0; per*t > min(w, h); step++ {
		if step >= maxGrowSteps {
			return layout{}, fmt.Errorf("%w: %d players on %dx%d", ErrSpawnCapacity, n, w, h)
		}
		w += t
		h += t
	}

	l := layout{bounds: Rect{W: w + 2*b, H: h + 2*b}, swath: max(cfg.SpawnSwath, 1)}
	l.inner = buildInner(Rect{X: b, Y: b, W: w, H: h}, s, cfg, ids)

	// Ячейки идут вдоль внутренней стороны, спавн - квадрат t*t в центре ячейки.
	off := (b - t) / 2
	for side := 0; side < 4; side++ {
		k := counts[side]
		if k == 0 {
			continue
		}
		length := w
		if side%2 == 1 {
			length = h
		}
		slot := length / k
		for i := 0; i < k; i++ {
			along := b + i*slot + (slot-t)/2
			var r Rect
			switch side {
			case 0:
				r = Rect{X: along, Y: off, W: t, H: t}
			case 1:
				r = Rect{X: b + w + off, Y: along, W: t, H: t}
			case 2:
				r = Rect{X: along, Y: b + h + off, W: t, H: t}
			case 3:
				r = Rect{X: off, Y: along, W: t, H: t}
			}
			c := ids.container(r)
			c.Spawn = true
			l.spawns = append(l.spawns, c)
		}
	}
	return l, nil
}

// layoutCircular: подземелье строится как обычно и переносится в центр
// карты, спавны стоят по окружности вокруг него с разбросом радиуса.
func layoutCircular(w, h, n int, set *TemplateSet, s *rng.Stream, cfg Config, ids *idGen) (layout, error) {
	t, err := spawnFootprint(set, cfg)
	if err != nil {
		return layout{}, err
	}

	inner := buildInner(Rect{W: w, H: h}, s, cfg, ids)
	if n == 0 {
		return layout{bounds: Rect{W: w, H: h}, inner: inner}, nil
	}

	r := math.Hypot(float64(w), float64(h)) / 2
	// окружность должна вмещать n контейнеров с запасом
	ring := float64(n) * (float64(t)*1.5 + 2) / (2 * math.Pi * 0.9)
	radius := math.Max(r+float64(cfg.RadiusBuffer+t), ring)

	reach := int(math.Ceil(radius*(1+cfg.RadialJitter))) + t
	side := 2*reach + 2
	center := side / 2

	dx, dy := center-w/2, center-h/2
	(&Tree{Root: inner}).Translate(dx, dy)
	innerBounds := inner.Container.Rect

	l := layout{bounds: Rect{W: side, H: side}, inner: inner, swath: cfg.CorridorWidth}

	phase := s.Float(0, 2*math.Pi)
	placed := make([]Rect, 0, n)
	at := func(i int, jitter float64) Rect {
		angle := phase + 2*math.Pi*float64(i)/float64(n)
		rr := radius * (1 + jitter)
		cx := float64(center) + rr*math.Cos(angle)
		cy := float64(center) + rr*math.Sin(angle)
		return Rect{X: int(math.Round(cx)) - t/2, Y: int(math.Round(cy)) - t/2, W: t, H: t}
	}
	free := func(r Rect) bool {
		if r.Intersects(innerBounds) || !l.bounds.Contains(r.X, r.Y) || !l.bounds.Contains(r.Right()-1, r.Bottom()-1) {
			return false
		}
		for _, p := range placed {
			if r.Intersects(p) {
				return false
			}
		}
		return true
	}

	for i := 0; i < n; i++ {
		jitter := s.Float(-cfg.RadialJitter, cfg.RadialJitter)
		r := at(i, jitter)
		if !free(r) {
			r = at(i, 0)
			if !free(r) {
				return layout{}, fmt.Errorf("%w: circular spawn %d at radius %.1f", ErrSpawnOverlap, i, radius)
			}
		}
		placed = append(placed, r)
		c := ids.container(r)
		c.Spawn = true
		l.spawns = append(l.spawns, c)
	}
	return l, nil
}

// connectSpawns соединяет каждую комнату спавна с ближайшей комнатой
// подземелья L-коридором. Без комнат подземелья только пишет в лог.
func connectSpawns(spawns []*Room, dungeon []*Room, width int, metric DistanceMetric, s *rng.Stream) []*Corridor {
	if len(dungeon) == 0 {
		logger.Log.WithField("component", "spawn").Warn("no dungeon rooms to connect spawn rooms to")
		return nil
	}
	centers := make([]Point, len(dungeon))
	for i, r := range dungeon {
		centers[i] = r.CenterPoint()
	}

	links := make([]*Corridor, 0, len(spawns))
	for _, sp := range spawns {
		from := sp.CenterPoint()
		idx, ok := NearestIndex(from, centers, metric)
		if !ok {
			continue
		}
		links = append(links, StraightOrL(from, centers[idx], width, s))
		logger.Log.WithFields(logrus.Fields{
			"component": "spawn",
			"spawn":     sp.ID,
			"target":    dungeon[idx].ID,
		}).Debug("spawn room connected")
	}
	return links
}

// checkSpawnOverlap проверяет, что комнаты спавна не пересекают ни друг
// друга, ни комнаты подземелья.
func checkSpawnOverlap(spawns, dungeon []*Room) error {
	for i, a := range spawns {
		for _, b := range spawns[i+1:] {
			if a.Intersects(b.Rect) {
				return fmt.Errorf("%w: spawn rooms %d and %d", ErrSpawnOverlap, a.ID, b.ID)
			}
		}
		for _, b := range dungeon {
			if a.Intersects(b.Rect) {
				return fmt.Errorf("%w: spawn room %d and %s room %d", ErrSpawnOverlap, a.ID, b.Type, b.ID)
			}
		}
	}
	return nil
}
