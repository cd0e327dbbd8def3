package dungeon

import (
	"testing"

	"dungeon-dash-server/pkg/rng"
)

func TestNearestIndex(t *testing.T) {
	points := []Point{{0, 0}, {10, 10}, {3, 4}}

	tests := []struct {
		name   string
		points []Point
		from   Point
		metric DistanceMetric
		want   int
	}{
		{"euclidean", points, Point{4, 4}, Euclidean, 2},
		{"manhattan", points, Point{9, 9}, Manhattan, 1},
		{"tie prefers lower index", []Point{{0, 0}, {10, 10}}, Point{5, 5}, Manhattan, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NearestIndex(tt.from, tt.points, tt.metric)
			if !ok || got != tt.want {
				t.Errorf("NearestIndex = %d,%v, want %d", got, ok, tt.want)
			}
		})
	}

	if _, ok := NearestIndex(Point{}, nil, Euclidean); ok {
		t.Error("expected false for empty candidates")
	}
}

func TestMinimumSpanningTree(t *testing.T) {
	// Квадрат и одна далекая точка: MST берет три стороны и ближайшее ребро до нее.
	points := []Point{{0, 0}, {10, 0}, {0, 10}, {10, 10}, {50, 10}}
	edges := MinimumSpanningTree(points, Euclidean)

	if len(edges) != len(points)-1 {
		t.Fatalf("MST has %d edges, want %d", len(edges), len(points)-1)
	}

	total := 0.0
	uf := newUnionFind(len(points))
	for _, e := range edges {
		total += e.Dist
		uf.union(e.A, e.B)
	}
	if total != 70 {
		t.Errorf("MST weight = %v, want 70", total)
	}
	root := uf.find(0)
	for i := range points {
		if uf.find(i) != root {
			t.Errorf("point %d not connected by MST", i)
		}
	}
}

func TestExtraEdges_NoDuplicates(t *testing.T) {
	var points []Point
	for i := 0; i < 20; i++ {
		points = append(points, Point{X: i * 7 % 50, Y: i * 13 % 50})
	}
	mst := MinimumSpanningTree(points, Manhattan)
	extra := ExtraEdges(points, mst, 0.1, Manhattan, rng.New("loops"))

	if len(extra) != 2 {
		t.Errorf("got %d extra edges, want 2 (10%% of 20)", len(extra))
	}

	seen := make(map[[2]int]bool)
	for _, e := range mst {
		seen[e.key()] = true
	}
	for _, e := range extra {
		if e.A == e.B {
			t.Errorf("self loop %v", e)
		}
		if seen[e.key()] {
			t.Errorf("duplicate edge %v", e)
		}
		seen[e.key()] = true
	}
}
