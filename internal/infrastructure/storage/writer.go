package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"dungeon-dash-server/pkg/dungeon"
	"dungeon-dash-server/pkg/rng"
	"dungeon-dash-server/pkg/utils"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	MagicHeader string = `CDFL` // 4 байта
	Version1    uint32 = 1
)

// FloorFileHeader — это точное представление заголовка файла в памяти.
// binary.Write умеет писать это целиком, так как тут нет слайсов и строк, только массивы и числа.
type FloorFileHeader struct {
	Magic     [4]byte // 4 байта
	Version   uint32  // 4 байта
	Timestamp int64   // 8 байт
	SeedHash  uint32  // 4 байта
	Level     int32   // 4 байта
	Width     int32   // 4 байта
	Height    int32   // 4 байта
	TileSize  int32   // 4 байта
	BodyLen   uint32  // 4 байта, длина msgpack-тела
}

// nodeRecord - узел дерева без методов и с Kind в виде числа.
type nodeRecord struct {
	Kind      uint8              `json:"kind"`
	Container *dungeon.Container `json:"container"`
	Left      *nodeRecord        `json:"left,omitempty"`
	Right     *nodeRecord        `json:"right,omitempty"`
	Children  []*nodeRecord      `json:"children,omitempty"`
}

// floorRecord - тело архива.
type floorRecord struct {
	Seed        string               `json:"seed"`
	Level       int                  `json:"level"`
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	TileSize    int                  `json:"tileSize"`
	Strategy    string               `json:"strategy"`
	Tiles       [][]int              `json:"tiles"`
	Props       [][]int              `json:"props"`
	Monsters    [][]int              `json:"monsters"`
	Rooms       []*dungeon.Room      `json:"rooms"`
	SpawnPoints []dungeon.SpawnPoint `json:"spawnPoints"`
	Root        *nodeRecord          `json:"root"`
	Links       []*dungeon.Corridor  `json:"links"`
}

// FloorArchive сохраняет этажи в каталог.
type FloorArchive struct {
	SaveDir string
}

// NewFloorArchive создает каталог, если его нет.
func NewFloorArchive(dir string) (*FloorArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}
	return &FloorArchive{SaveDir: dir}, nil
}

// Save пишет этаж в новый файл и возвращает путь.
func (a *FloorArchive) Save(floor *dungeon.Floor) (string, error) {
	filename := fmt.Sprintf("floor_%s_lvl%d_%d.cdfl",
		utils.DeterministicID(floor.Seed)[:8], floor.Level, time.Now().UnixNano())
	path := filepath.Join(a.SaveDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := Encode(w, floor); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return path, nil
}

// Encode пишет заголовок и msgpack-тело.
func Encode(w io.Writer, floor *dungeon.Floor) error {
	var body bytes.Buffer
	enc := msgpack.NewEncoder(&body)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(toRecord(floor)); err != nil {
		return fmt.Errorf("failed to encode floor: %w", err)
	}

	header := FloorFileHeader{
		Version:   Version1,
		Timestamp: time.Now().Unix(),
		SeedHash:  rng.HashSeed(floor.Seed),
		Level:     int32(floor.Level),
		Width:     int32(floor.Width),
		Height:    int32(floor.Height),
		TileSize:  int32(floor.TileSize),
		BodyLen:   uint32(body.Len()),
	}
	copy(header.Magic[:], MagicHeader) // Копируем строку в массив [4]byte

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return fmt.Errorf("failed to write body: %w", err)
	}
	return nil
}

func toRecord(f *dungeon.Floor) floorRecord {
	rec := floorRecord{
		Seed:        f.Seed,
		Level:       f.Level,
		Width:       f.Width,
		Height:      f.Height,
		TileSize:    f.TileSize,
		Strategy:    f.Strategy.String(),
		Rooms:       f.Rooms,
		SpawnPoints: f.SpawnPoints,
	}
	if f.Layers.Tiles != nil {
		rec.Tiles = f.Layers.Tiles.Rows()
		rec.Props = f.Layers.Props.Rows()
		rec.Monsters = f.Layers.Monsters.Rows()
	}
	if f.Tree != nil {
		rec.Root = toNodeRecord(f.Tree.Root)
		rec.Links = f.Tree.Links
	}
	return rec
}

func toNodeRecord(n *dungeon.Node) *nodeRecord {
	if n == nil {
		return nil
	}
	rec := &nodeRecord{
		Kind:      uint8(n.Kind),
		Container: n.Container,
		Left:      toNodeRecord(n.Left),
		Right:     toNodeRecord(n.Right),
	}
	for _, c := range n.Children {
		rec.Children = append(rec.Children, toNodeRecord(c))
	}
	return rec
}
