package dungeon

import (
	"fmt"

	"dungeon-dash-server/pkg/rng"
)

// Rasterize превращает дерево в три слоя тайлов. Порядок шагов важен:
// более поздние записи перекрывают ранние.
//
//  1. tiles - все стены, props/monsters - пусто;
//  2. коридоры (все сегменты) прорубаются в пол;
//  3. шаблоны комнат штампуются поверх коридоров;
//  4. стены получают спрайт по маске соседей, дыры - -1 или -2;
//  5. факелы на лицевых стенах с вероятностью torchChance.
func Rasterize(tree *Tree, set *TemplateSet, s *rng.Stream, torchChance float64) (Layers, error) {
	bounds := tree.Root.Container.Rect
	layers := NewLayers(bounds.W, bounds.H)

	for _, c := range tree.Corridors() {
		c.Carve(layers.Tiles)
	}

	for _, room := range tree.Rooms() {
		tpl, ok := set.Get(room.TemplateID)
		if !ok {
			return Layers{}, fmt.Errorf("%w: room %d references %q", ErrNoTemplate, room.ID, room.TemplateID)
		}
		layers.Tiles.Stamp(room.X, room.Y, tpl.Layers.Tiles)
		layers.Props.Stamp(room.X, room.Y, tpl.Layers.Props)
		layers.Monsters.Stamp(room.X, room.Y, tpl.Layers.Monsters)
	}

	if err := applyMasks(layers.Tiles); err != nil {
		return Layers{}, err
	}
	placeTorches(layers, s, torchChance)
	return layers, nil
}

// applyMasks заменяет стены индексами спрайтов, а дыры - вариантом дыры.
// Маски считаются по исходной сетке, чтобы результат не зависел от порядка
// обхода.
func applyMasks(tiles *Grid) error {
	src := tiles.Clone()
	for y := 0; y < src.Height(); y++ {
		for x := 0; x < src.Width(); x++ {
			v, _ := src.Get(x, y)
			switch {
			case v > 0:
				mask := WallMask(src, x, y)
				sprite, ok := WallSprite(mask)
				if !ok {
					return fmt.Errorf("%w: mask %d at (%d,%d)", ErrUnmappedMask, mask, x, y)
				}
				tiles.Set(x, y, sprite)
			case v < 0:
				if above, ok := src.Get(x, y-1); ok && above < 0 {
					tiles.Set(x, y, HoleShaft)
				} else {
					tiles.Set(x, y, HoleTop)
				}
			}
		}
	}
	return nil
}

// IsTorchWall - стена с полом снизу, на которой может висеть факел.
func IsTorchWall(sprite int) bool {
	return sprite == SpriteWallFront || sprite == SpriteWallLeft || sprite == SpriteWallRight
}

func placeTorches(layers Layers, s *rng.Stream, chance float64) {
	if chance <= 0 {
		return
	}
	for y := 0; y < layers.Tiles.Height(); y++ {
		for x := 0; x < layers.Tiles.Width(); x++ {
			v, _ := layers.Tiles.Get(x, y)
			if !IsTorchWall(v) {
				continue
			}
			if p, _ := layers.Props.Get(x, y); p != PropNone {
				continue
			}
			if s.Probability(chance) {
				layers.Props.Set(x, y, PropTorch)
			}
		}
	}
}
