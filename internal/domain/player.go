package domain

import (
	"time"

	"github.com/zyedidia/generic/mapset"
)

// DashChargeSlots - число независимых зарядов рывка.
const DashChargeSlots = 2

// DashCharge - один слот рывка. После траты восстанавливается отдельным
// таймером в CooldownEndTime.
type DashCharge struct {
	Available       bool      `json:"available"`
	CooldownEndTime time.Time `json:"cooldownEndTime"`
}

// PlayerStats - счетчики игрока за матч.
type PlayerStats struct {
	Progress      int     `json:"progress"` // исследованные тайлы
	Distance      float64 `json:"distance"`
	Dashes        int     `json:"dashes"`
	Collisions    int     `json:"collisions"`
	FloorsCleared int     `json:"floorsCleared"`
	GauntletsWon  int     `json:"gauntletsWon"`
}

// Identity - проверенный снаружи пользователь. nil означает гостя.
type Identity struct {
	UserID      string
	DisplayName string
}

// Player - состояние игрока в комнате. Не сохраняется ядром, живет пока
// игрок в комнате.
type Player struct {
	ID       string   `json:"id"`
	ClientID string   `json:"-"`
	UserID   string   `json:"userId,omitempty"`
	Name     string   `json:"name"`
	Position Position `json:"position"`

	Stats               PlayerStats `json:"stats"`
	Items               []string    `json:"items"`
	Abilities           []string    `json:"abilities"`
	CompletedObjectives []string    `json:"completedObjectives"`

	IsAlive   bool `json:"isAlive"`
	Ready     bool `json:"ready"`
	MapLoaded bool `json:"mapLoaded"`

	DashCharges           [DashChargeSlots]DashCharge `json:"dashCharges"`
	LastProcessedInputSeq uint64                      `json:"lastProcessedInputSeq"`
	LastDashSeq           uint64                      `json:"-"`

	SpawnID  string    `json:"spawnId,omitempty"`
	Group    int       `json:"group"` // группа гаунтлета, -1 вне гаунтлета
	JoinedAt time.Time `json:"joinedAt"`

	explored mapset.Set[int]
}

// NewPlayer создает живого игрока с двумя полными зарядами рывка.
func NewPlayer(id, clientID, name string, now time.Time) *Player {
	p := &Player{
		ID:                  id,
		ClientID:            clientID,
		Name:                name,
		Items:               []string{},
		Abilities:           []string{"dash"},
		CompletedObjectives: []string{},
		IsAlive:             true,
		Group:               -1,
		JoinedAt:            now,
		explored:            mapset.New[int](),
	}
	for i := range p.DashCharges {
		p.DashCharges[i].Available = true
	}
	return p
}

// AvailableCharges считает готовые заряды.
func (p *Player) AvailableCharges() int {
	n := 0
	for _, c := range p.DashCharges {
		if c.Available {
			n++
		}
	}
	return n
}

// ConsumeCharge тратит первый готовый слот и возвращает его индекс.
func (p *Player) ConsumeCharge(cooldownEnd time.Time) (int, bool) {
	for i := range p.DashCharges {
		if p.DashCharges[i].Available {
			p.DashCharges[i] = DashCharge{Available: false, CooldownEndTime: cooldownEnd}
			return i, true
		}
	}
	return -1, false
}

// RestoreCharge возвращает ровно один слот.
func (p *Player) RestoreCharge(slot int) {
	if slot < 0 || slot >= len(p.DashCharges) {
		return
	}
	p.DashCharges[slot] = DashCharge{Available: true}
}

// ResetCharges заряжает все слоты (новый этаж).
func (p *Player) ResetCharges() {
	for i := range p.DashCharges {
		p.DashCharges[i] = DashCharge{Available: true}
	}
}

// Explore отмечает тайл (индекс y*width+x) и увеличивает прогресс, если он
// новый.
func (p *Player) Explore(tileIndex int) bool {
	if p.explored.Has(tileIndex) {
		return false
	}
	p.explored.Put(tileIndex)
	p.Stats.Progress++
	return true
}

// ResetExploration очищает набор тайлов для нового этажа. Прогресс
// накапливается между этажами.
func (p *Player) ResetExploration() {
	p.explored = mapset.New[int]()
}

// HasObjective проверяет, выполнена ли цель.
func (p *Player) HasObjective(id string) bool {
	for _, o := range p.CompletedObjectives {
		if o == id {
			return true
		}
	}
	return false
}

// CompleteObjective добавляет цель один раз.
func (p *Player) CompleteObjective(id string) bool {
	if p.HasObjective(id) {
		return false
	}
	p.CompletedObjectives = append(p.CompletedObjectives, id)
	return true
}
