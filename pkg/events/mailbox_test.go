package events

import (
	"testing"
	"time"
)

func TestMailboxFIFO(t *testing.T) {
	m := NewMailbox[int]()
	defer m.Close()

	for i := 0; i < 50; i++ {
		if !m.Push(i) {
			t.Fatalf("Push(%d) rejected", i)
		}
	}
	for i := 0; i < 50; i++ {
		select {
		case v := <-m.Out():
			if v != i {
				t.Fatalf("got %d, want %d", v, i)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out")
		}
	}
}

func TestMailboxPushAfterClose(t *testing.T) {
	m := NewMailbox[string]()
	m.Close()

	if m.Push("x") {
		t.Error("Push after Close should report false")
	}
	if _, ok := <-m.Out(); ok {
		t.Error("Out should be closed")
	}
}

func TestMailboxFinishDrains(t *testing.T) {
	m := NewMailbox[int]()
	m.Push(1)
	m.Push(2)
	m.Finish()

	if m.Push(3) {
		t.Error("Push after Finish should report false")
	}

	var got []int
	for v := range m.Out() {
		got = append(got, v)
	}
	if len(got) != 2 {
		t.Errorf("got %v, want [1 2]", got)
	}
}
