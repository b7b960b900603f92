package events

import (
	"testing"
	"time"

	"github.com/jscyril/hsm/api"
)

func receive(t *testing.T, ch <-chan api.Snapshot) api.Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return api.Snapshot{}
}

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Close()

	for i := 1; i <= 100; i++ {
		bus.Publish(api.Snapshot{Seq: uint64(i)})
	}

	for i := 1; i <= 100; i++ {
		s := receive(t, sub.C())
		if s.Seq != uint64(i) {
			t.Fatalf("got seq %d, want %d", s.Seq, i)
		}
	}
}

func TestBusPublishDoesNotBlockOnIdleSubscriber(t *testing.T) {
	bus := NewBus()
	idle := bus.Subscribe()
	defer idle.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			bus.Publish(api.Snapshot{Seq: uint64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a subscriber that never reads")
	}
}

func TestBusSubscribeReceivesLatest(t *testing.T) {
	bus := NewBus()
	bus.Publish(api.Snapshot{Seq: 1})
	bus.Publish(api.Snapshot{Seq: 2})

	sub := bus.Subscribe()
	defer sub.Close()

	if s := receive(t, sub.C()); s.Seq != 2 {
		t.Errorf("first snapshot seq = %d, want 2", s.Seq)
	}
}

func TestBusSnapshotsAreCopies(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Close()

	queue := []api.Track{{ID: "a"}}
	bus.Publish(api.Snapshot{Queue: queue})
	queue[0].ID = "mutated"

	if s := receive(t, sub.C()); s.Queue[0].ID != "a" {
		t.Errorf("subscriber saw mutation: %q", s.Queue[0].ID)
	}
}

func TestBusCloseDrainsThenCloses(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()

	bus.Publish(api.Snapshot{Seq: 1})
	bus.Publish(api.Snapshot{Seq: 2})
	bus.Close()

	var got []uint64
	for s := range sub.C() {
		got = append(got, s.Seq)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got %v, want [1 2]", got)
	}

	late := bus.Subscribe()
	if s := receive(t, late.C()); s.Seq != 2 {
		t.Errorf("late subscriber got seq %d, want 2", s.Seq)
	}
	if _, ok := <-late.C(); ok {
		t.Error("late subscriber channel should close after the last snapshot")
	}
}

func TestSubscriptionClose(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	other := bus.Subscribe()
	defer other.Close()

	sub.Close()
	bus.Publish(api.Snapshot{Seq: 1})
	if s := receive(t, other.C()); s.Seq != 1 {
		t.Errorf("remaining subscriber got seq %d, want 1", s.Seq)
	}

	select {
	case _, ok := <-sub.C():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}
