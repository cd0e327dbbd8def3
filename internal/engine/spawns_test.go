package engine

import (
	"testing"

	"dungeon-dash-server/pkg/dungeon"
)

func TestSpawnRegistry(t *testing.T) {
	taken := "ghost"
	reg := NewSpawnRegistry([]dungeon.SpawnPoint{
		{ID: "spawn_0", X: 10, Y: 10, PlayerID: &taken},
		{ID: "spawn_1", X: 20, Y: 20},
	})

	if reg.Free() != 2 {
		t.Fatalf("Free() = %d, want 2 (floor claims must be reset)", reg.Free())
	}

	a, ok := reg.Claim("a")
	if !ok || a.ID != "spawn_0" {
		t.Fatalf("Claim(a) = %v, %v", a.ID, ok)
	}
	again, _ := reg.Claim("a")
	if again.ID != "spawn_0" || reg.Free() != 1 {
		t.Error("second claim by the same player should return the same point")
	}

	b, ok := reg.Claim("b")
	if !ok || b.ID != "spawn_1" {
		t.Fatalf("Claim(b) = %v, %v", b.ID, ok)
	}
	if _, ok := reg.Claim("c"); ok {
		t.Error("claimed a point from a full registry")
	}

	if !reg.Release("a") || reg.Release("a") {
		t.Error("Release should succeed exactly once")
	}
	c, ok := reg.Claim("c")
	if !ok || c.ID != "spawn_0" {
		t.Errorf("released point not reused: %v, %v", c.ID, ok)
	}

	pts := reg.Points()
	pts[0].ID = "mutated"
	if reg.Points()[0].ID != "spawn_0" {
		t.Error("Points() must return a copy")
	}
}
