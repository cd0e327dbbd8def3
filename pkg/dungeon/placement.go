package dungeon

import (
	"fmt"

	"dungeon-dash-server/pkg/logger"
	"dungeon-dash-server/pkg/rng"

	"github.com/sirupsen/logrus"
	"github.com/zyedidia/generic/mapset"
)

// placer расставляет шаблоны по листьям дерева.
type placer struct {
	tree   *Tree
	set    *TemplateSet
	rng    *rng.Stream
	nextID int
}

func newPlacer(tree *Tree, set *TemplateSet, s *rng.Stream) *placer {
	p := &placer{tree: tree, set: set, rng: s}
	for _, r := range tree.Rooms() {
		p.nextID = max(p.nextID, r.ID+1)
	}
	return p
}

// candidates - листья без комнаты. Контейнеры спавна отдаются только
// комнатам спавна, и наоборот.
func (p *placer) candidates(roomType string) []*Container {
	spawn := roomType == RoomTypeSpawn
	var out []*Container
	for _, leaf := range p.tree.Leaves() {
		if leaf.Room == nil && leaf.Spawn == spawn {
			out = append(out, leaf)
		}
	}
	return out
}

// placeByType размещает до count комнат типа roomType (count=-1 - во все
// свободные листья). Для обязательных типов нехватка шаблонов, контейнеров
// или места - ошибка; для остальных лист просто остается пустым.
func (p *placer) placeByType(roomType string, count int, required bool) (int, error) {
	log := logger.Log.WithFields(logrus.Fields{"component": "placement", "type": roomType})

	templates := p.set.ByType(roomType)
	if len(templates) == 0 {
		if required {
			return 0, fmt.Errorf("%w: %s", ErrNoTemplate, roomType)
		}
		log.Warn("no templates for room type, skipping")
		return 0, nil
	}

	pool := p.candidates(roomType)
	if len(pool) == 0 && count != 0 {
		if required {
			return 0, fmt.Errorf("%w: %s", ErrNoContainer, roomType)
		}
		return 0, nil
	}

	target := count
	if count < 0 {
		target = len(pool)
	}

	used := mapset.New[string]()
	placed := 0
	for placed < target && len(pool) > 0 {
		i := p.rng.Int(0, len(pool)-1)
		c := pool[i]
		pool = append(pool[:i], pool[i+1:]...)

		tpl := pickTemplate(templates, c.Rect, used)
		if tpl == nil {
			log.WithFields(logrus.Fields{"container": c.ID, "w": c.W, "h": c.H}).
				Debug("no template fits container, leaving it empty")
			continue
		}

		p.place(c, tpl)
		used.Put(tpl.ID)
		placed++
	}

	if required && placed < target {
		return placed, fmt.Errorf("%w: %s placed %d of %d", ErrRequiredRoomMissing, roomType, placed, target)
	}
	return placed, nil
}

// place центрирует шаблон в контейнере. Повторно в тот же лист не ставит.
func (p *placer) place(c *Container, tpl *RoomTemplate) *Room {
	if c.Room != nil {
		return c.Room
	}
	room := &Room{
		ID: p.nextID,
		Rect: Rect{
			X: c.X + (c.W-tpl.Width)/2,
			Y: c.Y + (c.H-tpl.Height)/2,
			W: tpl.Width,
			H: tpl.Height,
		},
		TemplateID:  tpl.ID,
		Type:        tpl.Type,
		ContainerID: c.ID,
	}
	p.nextID++
	c.Room = room
	return room
}

// pickTemplate выбирает самый большой еще не использованный шаблон, который
// влезает; если таких нет - самый большой влезающий среди использованных.
// templates отсортированы по убыванию площади.
func pickTemplate(templates []*RoomTemplate, r Rect, used mapset.Set[string]) *RoomTemplate {
	var fallback *RoomTemplate
	for _, t := range templates {
		if !t.Fits(r) {
			continue
		}
		if !used.Has(t.ID) {
			return t
		}
		if fallback == nil {
			fallback = t
		}
	}
	return fallback
}

// PlaceRooms выполняет квоты по порядку. Квоты с Count=-1 обычно идут
// последними и заполняют остаток.
func PlaceRooms(tree *Tree, set *TemplateSet, quotas []RoomQuota, s *rng.Stream) error {
	p := newPlacer(tree, set, s)
	for _, q := range quotas {
		if _, err := p.placeByType(q.Type, q.Count, q.Required); err != nil {
			return err
		}
	}
	return nil
}
