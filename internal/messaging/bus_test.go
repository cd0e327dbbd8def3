package messaging

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus, err := NewBus()
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.Start(); err != nil {
		t.Fatal(err)
	}
	defer bus.Close()

	type msg struct {
		subject string
		data    []byte
	}
	got := make(chan msg, 1)
	unsub, err := bus.Subscribe("dungeon.room.*.phase", func(subject string, data []byte) {
		got <- msg{subject, data}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer unsub()

	if err := bus.Publish("dungeon.room.r1.phase", map[string]string{"phase": "DUNGEON"}); err != nil {
		t.Fatal(err)
	}

	select {
	case m := <-got:
		if m.subject != "dungeon.room.r1.phase" {
			t.Errorf("subject = %s", m.subject)
		}
		var payload map[string]string
		if err := json.Unmarshal(m.data, &payload); err != nil || payload["phase"] != "DUNGEON" {
			t.Errorf("payload = %s (%v)", m.data, err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestBus_NotStarted(t *testing.T) {
	bus, err := NewBus()
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.Publish("x", 1); err == nil {
		t.Error("publish before Start should fail")
	}
	if err := (Nop{}).Publish("x", 1); err != nil {
		t.Error("Nop must never fail")
	}
}
