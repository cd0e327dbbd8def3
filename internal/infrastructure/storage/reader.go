package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"dungeon-dash-server/pkg/dungeon"

	"github.com/vmihailenco/msgpack/v5"
)

// Load читает этаж из файла архива.
func Load(path string) (*dungeon.Floor, *FloorFileHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	return Decode(bufio.NewReader(f))
}

// Decode читает заголовок и тело, восстанавливая сетки и дерево.
func Decode(r io.Reader) (*dungeon.Floor, *FloorFileHeader, error) {
	// 1. Читаем заголовок целиком
	var header FloorFileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Валидация
	if string(header.Magic[:]) != MagicHeader {
		return nil, nil, fmt.Errorf("invalid magic")
	}
	if header.Version != Version1 {
		return nil, nil, fmt.Errorf("unsupported version: %d (expected %d)", header.Version, Version1)
	}

	// 2. Читаем тело
	body := make([]byte, header.BodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, fmt.Errorf("failed to read body: %w", err)
	}

	var rec floorRecord
	dec := msgpack.NewDecoder(bytes.NewReader(body))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&rec); err != nil {
		return nil, nil, fmt.Errorf("failed to decode floor: %w", err)
	}

	floor, err := fromRecord(rec)
	if err != nil {
		return nil, nil, err
	}
	return floor, &header, nil
}

func fromRecord(rec floorRecord) (*dungeon.Floor, error) {
	strategy, err := dungeon.ParseSpawnStrategy(rec.Strategy)
	if err != nil {
		return nil, err
	}
	floor := &dungeon.Floor{
		Seed:        rec.Seed,
		Level:       rec.Level,
		Width:       rec.Width,
		Height:      rec.Height,
		TileSize:    rec.TileSize,
		Strategy:    strategy,
		Rooms:       rec.Rooms,
		SpawnPoints: rec.SpawnPoints,
	}

	grids := [3]**dungeon.Grid{&floor.Layers.Tiles, &floor.Layers.Props, &floor.Layers.Monsters}
	for i, rows := range [3][][]int{rec.Tiles, rec.Props, rec.Monsters} {
		g, err := dungeon.GridFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		*grids[i] = g
	}

	// Комнаты в контейнерах указывают на те же объекты, что и Floor.Rooms.
	byID := make(map[int]*dungeon.Room, len(rec.Rooms))
	for _, room := range rec.Rooms {
		byID[room.ID] = room
	}
	if rec.Root != nil {
		floor.Tree = &dungeon.Tree{Root: fromNodeRecord(rec.Root, byID), Links: rec.Links}
	}
	return floor, nil
}

func fromNodeRecord(rec *nodeRecord, rooms map[int]*dungeon.Room) *dungeon.Node {
	if rec == nil {
		return nil
	}
	if c := rec.Container; c != nil && c.Room != nil {
		if shared, ok := rooms[c.Room.ID]; ok {
			c.Room = shared
		}
	}
	n := &dungeon.Node{
		Kind:      dungeon.NodeKind(rec.Kind),
		Container: rec.Container,
		Left:      fromNodeRecord(rec.Left, rooms),
		Right:     fromNodeRecord(rec.Right, rooms),
	}
	for _, c := range rec.Children {
		n.Children = append(n.Children, fromNodeRecord(c, rooms))
	}
	return n
}
