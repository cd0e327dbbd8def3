package engine

import (
	"testing"

	"dungeon-dash-server/pkg/api"
)

func TestInputQueue(t *testing.T) {
	q := NewInputQueue(0)

	steps := []struct {
		name string
		in   api.InputPayload
		want PushResult
	}{
		{"Later seq first", api.InputPayload{Seq: 5, Right: true}, InputQueued},
		{"Earlier seq", api.InputPayload{Seq: 3, Left: true}, InputQueued},
		{"Duplicate keeps most recent", api.InputPayload{Seq: 3, Up: true}, InputDuplicate},
	}
	for _, st := range steps {
		t.Run(st.name, func(t *testing.T) {
			if got := q.Push(st.in); got != st.want {
				t.Errorf("Push(seq=%d) = %v, want %v", st.in.Seq, got, st.want)
			}
		})
	}

	got := q.Drain()
	if len(got) != 2 || got[0].Seq != 3 || got[1].Seq != 5 {
		t.Fatalf("Drain() = %+v, want seq 3 then 5", got)
	}
	if !got[0].Up || got[0].Left {
		t.Error("duplicate seq should keep the most recent payload")
	}
	if q.Cursor() != 5 {
		t.Errorf("Cursor() = %d, want 5", q.Cursor())
	}

	if q.Push(api.InputPayload{Seq: 4}) != InputStale {
		t.Error("seq behind cursor accepted")
	}
	if q.Push(api.InputPayload{Seq: 5}) != InputStale {
		t.Error("seq equal to cursor accepted")
	}
	if q.Drain() != nil {
		t.Error("empty queue drained something")
	}

	q.Push(api.InputPayload{Seq: 6})
	q.Clear()
	if q.Len() != 0 || q.Cursor() != 5 {
		t.Errorf("Clear: len=%d cursor=%d", q.Len(), q.Cursor())
	}
}
