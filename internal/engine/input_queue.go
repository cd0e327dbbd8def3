package engine

import (
	"slices"

	"dungeon-dash-server/pkg/api"
)

// PushResult - что стало с командой при постановке в очередь.
type PushResult int

const (
	InputQueued PushResult = iota
	InputDuplicate
	InputStale
)

// InputQueue - очередь команд одного игрока, ключ - seq. Повтор seq
// заменяет старую запись, seq <= курсора отбрасывается.
type InputQueue struct {
	pending map[uint64]api.InputPayload
	cursor  uint64
}

// NewInputQueue создает очередь с курсором cursor.
func NewInputQueue(cursor uint64) *InputQueue {
	return &InputQueue{pending: make(map[uint64]api.InputPayload), cursor: cursor}
}

// Push добавляет команду.
func (q *InputQueue) Push(in api.InputPayload) PushResult {
	if in.Seq <= q.cursor {
		return InputStale
	}
	_, dup := q.pending[in.Seq]
	q.pending[in.Seq] = in
	if dup {
		return InputDuplicate
	}
	return InputQueued
}

// Drain забирает все команды по возрастанию seq и сдвигает курсор.
func (q *InputQueue) Drain() []api.InputPayload {
	if len(q.pending) == 0 {
		return nil
	}
	seqs := make([]uint64, 0, len(q.pending))
	for seq := range q.pending {
		seqs = append(seqs, seq)
	}
	slices.Sort(seqs)

	out := make([]api.InputPayload, 0, len(seqs))
	for _, seq := range seqs {
		out = append(out, q.pending[seq])
	}
	q.cursor = seqs[len(seqs)-1]
	clear(q.pending)
	return out
}

// Clear отбрасывает ожидающие команды, курсор остается.
func (q *InputQueue) Clear() {
	clear(q.pending)
}

// Cursor - последний обработанный seq.
func (q *InputQueue) Cursor() uint64 { return q.cursor }

// Len - число ожидающих команд.
func (q *InputQueue) Len() int { return len(q.pending) }
