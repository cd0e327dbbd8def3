package dungeon

import (
	"sort"

	"dungeon-dash-server/pkg/rng"

	"github.com/zyedidia/generic/mapset"
)

// Edge - ребро графа связности между комнатами (индексы в срезе точек).
type Edge struct {
	A, B int
	Dist float64
}

func (e Edge) key() [2]int {
	if e.A < e.B {
		return [2]int{e.A, e.B}
	}
	return [2]int{e.B, e.A}
}

// NearestIndex возвращает индекс ближайшей точки. false - если кандидатов нет.
// При равных расстояниях побеждает меньший индекс.
func NearestIndex(from Point, candidates []Point, metric DistanceMetric) (int, bool) {
	best, bestDist := -1, 0.0
	for i, p := range candidates {
		d := metric.Distance(from, p)
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best != -1
}

// unionFind - система непересекающихся множеств с сжатием путей.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) bool {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return false
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
	return true
}

// MinimumSpanningTree - алгоритм Краскала по всем парам точек.
func MinimumSpanningTree(points []Point, metric DistanceMetric) []Edge {
	n := len(points)
	if n < 2 {
		return nil
	}

	edges := make([]Edge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, Edge{A: i, B: j, Dist: metric.Distance(points[i], points[j])})
		}
	}
	// Стабильная сортировка: при равных весах порядок определяют индексы,
	// поэтому результат не зависит от реализации sort.
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Dist < edges[j].Dist
	})

	uf := newUnionFind(n)
	mst := make([]Edge, 0, n-1)
	for _, e := range edges {
		if uf.union(e.A, e.B) {
			mst = append(mst, e)
			if len(mst) == n-1 {
				break
			}
		}
	}
	return mst
}

// ExtraEdges добавляет ~ratio*len(points) случайных ребер для петель,
// пропуская уже существующие.
func ExtraEdges(points []Point, existing []Edge, ratio float64, metric DistanceMetric, s *rng.Stream) []Edge {
	n := len(points)
	if n < 3 || ratio <= 0 {
		return nil
	}
	want := max(int(float64(n)*ratio), 1)

	seen := mapset.New[[2]int]()
	for _, e := range existing {
		seen.Put(e.key())
	}

	var extra []Edge
	// ограничиваем число попыток, чтобы на плотных графах не крутиться вечно
	for attempts := 0; len(extra) < want && attempts < want*20; attempts++ {
		a := s.Int(0, n-1)
		b := s.Int(0, n-1)
		if a == b {
			continue
		}
		e := Edge{A: a, B: b, Dist: metric.Distance(points[a], points[b])}
		if seen.Has(e.key()) {
			continue
		}
		seen.Put(e.key())
		extra = append(extra, e)
	}
	return extra
}
