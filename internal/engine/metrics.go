package engine

import (
	"sync/atomic"
)

// RoomMetrics - счетчики комнаты для /debug/rooms. Пишет горутина
// комнаты, читает HTTP-хендлер.
type RoomMetrics struct {
	TickCount      int64
	InputsAccepted int64
	OldSeqIgnored  int64 // seq <= курсора
	Duplicates     int64 // повтор seq в очереди
	Collisions     int64
	Dashes         int64
	ChanFull       int64 // сообщение отброшено, канал комнаты полон
	TotalTickNs    int64
}

func (m *RoomMetrics) IncAccepted()      { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *RoomMetrics) IncOldSeqIgnored() { atomic.AddInt64(&m.OldSeqIgnored, 1) }
func (m *RoomMetrics) IncDuplicate()     { atomic.AddInt64(&m.Duplicates, 1) }
func (m *RoomMetrics) IncCollision()     { atomic.AddInt64(&m.Collisions, 1) }
func (m *RoomMetrics) IncDash()          { atomic.AddInt64(&m.Dashes, 1) }
func (m *RoomMetrics) IncChanFull()      { atomic.AddInt64(&m.ChanFull, 1) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot возвращает копию счетчиков для вывода в JSON.
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":      tick,
		"inputs_accepted": atomic.LoadInt64(&m.InputsAccepted),
		"old_seq_ignored": atomic.LoadInt64(&m.OldSeqIgnored),
		"duplicates":      atomic.LoadInt64(&m.Duplicates),
		"collisions":      atomic.LoadInt64(&m.Collisions),
		"dashes":          atomic.LoadInt64(&m.Dashes),
		"chan_full":       atomic.LoadInt64(&m.ChanFull),
		"avg_tick_ms":     avgMs,
	}
}
