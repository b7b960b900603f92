package components

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jscyril/hsm/api"
)

func TestCursorMove(t *testing.T) {
	tests := []struct {
		name         string
		start        cursor
		key          string
		wantSelected int
		wantOffset   int
	}{
		{"down", cursor{}, "down", 1, 0},
		{"up at top", cursor{}, "up", 0, 0},
		{"down scrolls", cursor{Selected: 2}, "j", 3, 1},
		{"page down clamps", cursor{Selected: 8, Offset: 6}, "pgdown", 9, 7},
		{"home", cursor{Selected: 7, Offset: 5}, "home", 0, 0},
		{"end", cursor{}, "end", 9, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.start
			if !c.keyMove(tt.key, 10, 3) {
				t.Fatalf("key %q not handled", tt.key)
			}
			if c.Selected != tt.wantSelected || c.Offset != tt.wantOffset {
				t.Errorf("got selected=%d offset=%d, want %d/%d", c.Selected, c.Offset, tt.wantSelected, tt.wantOffset)
			}
		})
	}

	var c cursor
	if c.keyMove("x", 10, 3) {
		t.Error("unknown key reported as handled")
	}
}

func TestListDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp3", "A.flac", "notes.txt", ".hidden.mp3"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"zeta", "Alpha", ".git"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0755); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := ListDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	want := []string{"..", "Alpha", "zeta", "A.flac", "b.mp3"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("entries = %v, want %v", names, want)
		}
	}
	if entries[0].Path != filepath.Dir(dir) || !entries[0].IsDir {
		t.Errorf("parent entry = %+v", entries[0])
	}

	if _, err := ListDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFileBrowserEnter(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "album")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	song := filepath.Join(sub, "song.ogg")
	if err := os.WriteFile(song, nil, 0644); err != nil {
		t.Fatal(err)
	}

	fb := NewFileBrowser(dir, 80, 20)
	if fb.SelectedPath() != "" {
		t.Errorf("parent entry should not be selectable for enqueue")
	}
	fb, _ = fb.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got := fb.SelectedPath(); got != sub {
		t.Fatalf("SelectedPath = %q, want %q", got, sub)
	}
	if got := fb.EnterSelected(); got != "" {
		t.Fatalf("entering a directory returned %q", got)
	}
	if fb.Dir != sub {
		t.Fatalf("Dir = %q, want %q", fb.Dir, sub)
	}

	fb, _ = fb.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got := fb.EnterSelected(); got != song {
		t.Errorf("EnterSelected = %q, want %q", got, song)
	}

	fb, _ = fb.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if fb.Dir != dir {
		t.Errorf("backspace went to %q, want %q", fb.Dir, dir)
	}
}

func TestQueueLine(t *testing.T) {
	track := api.Track{Title: "Song", Artist: "Band", Duration: 65 * time.Second}
	if got, want := QueueLine(2, track, true), "▶   3. Band - Song  01:05"; got != want {
		t.Errorf("QueueLine = %q, want %q", got, want)
	}
	if got, want := QueueLine(0, api.Track{Title: "x"}, false), "    1. x  --:--"; got != want {
		t.Errorf("QueueLine = %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo wörld", 8); got != "héllo..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 8); got != "short" {
		t.Errorf("truncate = %q", got)
	}
}
