package playlist

import (
	"testing"

	"github.com/jscyril/hsm/api"
)

func tracks(ids ...string) []api.Track {
	out := make([]api.Track, len(ids))
	for i, id := range ids {
		out[i] = api.Track{ID: id, URI: "file:///music/" + id + ".mp3"}
	}
	return out
}

func currentID(q *Queue) string {
	t, ok := q.Current()
	if !ok {
		return ""
	}
	return t.ID
}

func TestNewQueue(t *testing.T) {
	q := NewQueue()
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if q.Index() != -1 {
		t.Errorf("Index() = %d, want -1", q.Index())
	}
	if _, ok := q.Current(); ok {
		t.Error("empty queue should have no current track")
	}
	if q.Start() {
		t.Error("Start on empty queue should report false")
	}
}

// moveTo selects entry i by walking from the head
func moveTo(t *testing.T, q *Queue, i int) {
	t.Helper()
	mode := q.LoopMode()
	q.SetLoopMode(api.LoopNone)
	defer q.SetLoopMode(mode)

	if !q.Start() {
		t.Fatal("Start on empty queue")
	}
	for range i {
		if !q.Next() {
			t.Fatalf("cannot move to %d", i)
		}
	}
}

func TestQueueNext(t *testing.T) {
	tests := []struct {
		name   string
		mode   api.LoopMode
		start  int
		wantOK bool
		want   string
	}{
		{"none middle", api.LoopNone, 0, true, "b"},
		{"none at end", api.LoopNone, 2, false, "c"},
		{"track stays", api.LoopTrack, 1, true, "b"},
		{"queue wraps", api.LoopQueue, 2, true, "a"},
		{"queue middle", api.LoopQueue, 1, true, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue()
			q.Add(tracks("a", "b", "c")...)
			q.SetLoopMode(tt.mode)
			moveTo(t, q, tt.start)

			if ok := q.Next(); ok != tt.wantOK {
				t.Errorf("Next() = %v, want %v", ok, tt.wantOK)
			}
			if got := currentID(q); got != tt.want {
				t.Errorf("current = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueuePrevious(t *testing.T) {
	tests := []struct {
		name   string
		mode   api.LoopMode
		start  int
		wantOK bool
		want   string
	}{
		{"none middle", api.LoopNone, 1, true, "a"},
		{"none at head", api.LoopNone, 0, false, "a"},
		{"track stays", api.LoopTrack, 1, true, "b"},
		{"queue wraps", api.LoopQueue, 0, true, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue()
			q.Add(tracks("a", "b", "c")...)
			q.SetLoopMode(tt.mode)
			moveTo(t, q, tt.start)

			if ok := q.Previous(); ok != tt.wantOK {
				t.Errorf("Previous() = %v, want %v", ok, tt.wantOK)
			}
			if got := currentID(q); got != tt.want {
				t.Errorf("current = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueueNextWithoutCursor(t *testing.T) {
	q := NewQueue()
	q.Add(tracks("a")...)
	if q.Next() {
		t.Error("Next without a cursor should report false")
	}
	if q.Previous() {
		t.Error("Previous without a cursor should report false")
	}
}

func TestQueueInsert(t *testing.T) {
	tests := []struct {
		name      string
		pos       api.InsertPosition
		cursor    int
		wantOrder []string
		wantIndex int
	}{
		{"end", api.InsertEnd, 1, []string{"a", "b", "c", "x", "y"}, 1},
		{"start keeps current", api.InsertStart, 1, []string{"x", "y", "a", "b", "c"}, 3},
		{"start while stopped", api.InsertStart, -1, []string{"x", "y", "a", "b", "c"}, -1},
		{"next after cursor", api.InsertNext, 1, []string{"a", "b", "x", "y", "c"}, 1},
		{"next while stopped", api.InsertNext, -1, []string{"x", "y", "a", "b", "c"}, -1},
		{"replace", api.InsertReplace, 1, []string{"x", "y"}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue()
			q.Add(tracks("a", "b", "c")...)
			if tt.cursor >= 0 {
				moveTo(t, q, tt.cursor)
			}

			q.Insert(tt.pos, tracks("x", "y")...)

			got := q.Tracks()
			if len(got) != len(tt.wantOrder) {
				t.Fatalf("Len = %d, want %d", len(got), len(tt.wantOrder))
			}
			for i, id := range tt.wantOrder {
				if got[i].ID != id {
					t.Errorf("track[%d] = %q, want %q", i, got[i].ID, id)
				}
			}
			if q.Index() != tt.wantIndex {
				t.Errorf("Index() = %d, want %d", q.Index(), tt.wantIndex)
			}
		})
	}
}

func TestQueueRemove(t *testing.T) {
	tests := []struct {
		name      string
		cursor    int
		remove    int
		wantIndex int
		wantID    string
	}{
		{"before cursor", 2, 0, 1, "c"},
		{"after cursor", 0, 2, 0, "a"},
		{"cursor moves to successor", 1, 1, 1, "c"},
		{"cursor falls off the end", 2, 2, -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue()
			q.Add(tracks("a", "b", "c")...)
			moveTo(t, q, tt.cursor)

			if err := q.Remove(tt.remove); err != nil {
				t.Fatal(err)
			}
			if q.Index() != tt.wantIndex {
				t.Errorf("Index() = %d, want %d", q.Index(), tt.wantIndex)
			}
			if got := currentID(q); got != tt.wantID {
				t.Errorf("current = %q, want %q", got, tt.wantID)
			}
		})
	}

	q := NewQueue()
	if err := q.Remove(0); err == nil {
		t.Error("Remove out of bounds should fail")
	}
}

func TestQueueTracksIsCopy(t *testing.T) {
	q := NewQueue()
	q.Add(tracks("a")...)
	got := q.Tracks()
	got[0].ID = "changed"
	if q.Tracks()[0].ID != "a" {
		t.Error("Tracks() should return a copy")
	}
}

func TestQueueHasNextHasPrevious(t *testing.T) {
	q := NewQueue()
	q.Add(tracks("a", "b")...)
	q.Start()

	if !q.HasNext() || q.HasPrevious() {
		t.Error("at head: want HasNext and not HasPrevious")
	}
	q.Next()
	if q.HasNext() || !q.HasPrevious() {
		t.Error("at tail: want HasPrevious and not HasNext")
	}
	q.SetLoopMode(api.LoopQueue)
	if !q.HasNext() {
		t.Error("queue loop should always have a next track")
	}
}

func TestQueueClear(t *testing.T) {
	q := NewQueue()
	q.Add(tracks("a", "b")...)
	q.Start()
	q.Clear()
	if q.Len() != 0 || q.Index() != -1 {
		t.Errorf("after Clear: Len=%d Index=%d", q.Len(), q.Index())
	}
}
