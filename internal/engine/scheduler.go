package engine

import (
	"container/heap"
	"time"
)

// timerItem обертка для элемента очереди приоритетов
type timerItem struct {
	Name  string
	At    time.Time // Приоритет. Чем раньше, тем раньше срабатывает.
	Fn    func(now time.Time)
	Index int    // Индекс в куче (нужен для update)
	seq   uint64 // порядок постановки для равных At
}

// timerQueue реализует heap.Interface и хранит timerItems
type timerQueue []*timerItem

func (pq timerQueue) Len() int { return len(pq) }

func (pq timerQueue) Less(i, j int) bool {
	if pq[i].At.Equal(pq[j].At) {
		return pq[i].seq < pq[j].seq
	}
	return pq[i].At.Before(pq[j].At)
}

func (pq timerQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *timerQueue) Push(x any) {
	item := x.(*timerItem)
	item.Index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *timerQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // избегаем утечки памяти
	item.Index = -1 // для безопасности
	*pq = old[0 : n-1]
	return item
}

// Scheduler - именованные таймеры комнаты на одной куче. Не потокобезопасен:
// им пользуется только горутина комнаты.
type Scheduler struct {
	queue  timerQueue
	byName map[string]*timerItem
	seq    uint64
}

// NewScheduler создает пустой планировщик.
func NewScheduler() *Scheduler {
	return &Scheduler{byName: make(map[string]*timerItem)}
}

// Schedule ставит таймер. Таймер с тем же именем переносится.
func (s *Scheduler) Schedule(name string, at time.Time, fn func(now time.Time)) {
	s.seq++
	if item, ok := s.byName[name]; ok {
		item.At = at
		item.Fn = fn
		item.seq = s.seq
		heap.Fix(&s.queue, item.Index)
		return
	}
	item := &timerItem{Name: name, At: at, Fn: fn, seq: s.seq}
	heap.Push(&s.queue, item)
	s.byName[name] = item
}

// Cancel снимает таймер. false, если такого не было.
func (s *Scheduler) Cancel(name string) bool {
	item, ok := s.byName[name]
	if !ok {
		return false
	}
	heap.Remove(&s.queue, item.Index)
	delete(s.byName, name)
	return true
}

// Pending возвращает время срабатывания таймера.
func (s *Scheduler) Pending(name string) (time.Time, bool) {
	item, ok := s.byName[name]
	if !ok {
		return time.Time{}, false
	}
	return item.At, true
}

// Next - ближайшее время срабатывания.
func (s *Scheduler) Next() (time.Time, bool) {
	if len(s.queue) == 0 {
		return time.Time{}, false
	}
	return s.queue[0].At, true
}

// RunDue выполняет все таймеры с At <= now по порядку и возвращает их число.
// Колбэк может ставить и снимать таймеры.
func (s *Scheduler) RunDue(now time.Time) int {
	n := 0
	for len(s.queue) > 0 && !s.queue[0].At.After(now) {
		item := heap.Pop(&s.queue).(*timerItem)
		delete(s.byName, item.Name)
		item.Fn(now)
		n++
	}
	return n
}

// CancelAll снимает все таймеры.
func (s *Scheduler) CancelAll() {
	s.queue = nil
	s.byName = make(map[string]*timerItem)
}

// Len - число активных таймеров.
func (s *Scheduler) Len() int { return len(s.queue) }
