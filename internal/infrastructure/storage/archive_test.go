package storage

import (
	"bytes"
	"testing"

	"dungeon-dash-server/pkg/dungeon"
)

func TestArchive_RoundTrip(t *testing.T) {
	floor, err := dungeon.NewLevel(2, "archive").WithPlayers(4).Build()
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	archive, err := NewFloorArchive(dir)
	if err != nil {
		t.Fatal(err)
	}
	path, err := archive.Save(floor)
	if err != nil {
		t.Fatal(err)
	}

	got, header, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if int(header.Level) != floor.Level || int(header.Width) != floor.Width {
		t.Errorf("header = %+v", header)
	}
	if got.Seed != floor.Seed || got.Strategy != floor.Strategy || got.TileSize != floor.TileSize {
		t.Errorf("metadata mismatch: %+v", got)
	}
	if !got.Layers.Tiles.Equal(floor.Layers.Tiles) ||
		!got.Layers.Props.Equal(floor.Layers.Props) ||
		!got.Layers.Monsters.Equal(floor.Layers.Monsters) {
		t.Error("layers differ after round trip")
	}
	if len(got.Rooms) != len(floor.Rooms) || len(got.SpawnPoints) != len(floor.SpawnPoints) {
		t.Fatalf("rooms %d/%d spawns %d/%d", len(got.Rooms), len(floor.Rooms), len(got.SpawnPoints), len(floor.SpawnPoints))
	}
	if err := got.Tree.Validate(); err != nil {
		t.Errorf("restored tree invalid: %v", err)
	}
	if len(got.Tree.Rooms()) != len(floor.Tree.Rooms()) {
		t.Errorf("tree rooms = %d, want %d", len(got.Tree.Rooms()), len(floor.Tree.Rooms()))
	}
	for _, room := range got.Tree.Rooms() {
		found := false
		for _, r := range got.Rooms {
			if r == room {
				found = true
			}
		}
		if !found {
			t.Errorf("tree room %d is not shared with Floor.Rooms", room.ID)
		}
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"Bad magic", append([]byte("NOPE"), make([]byte, 40)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode(bytes.NewReader(tt.data)); err == nil {
				t.Error("Decode accepted invalid data")
			}
		})
	}
}
