package mpris

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/rs/zerolog"

	"github.com/jscyril/hsm/api"
	playerrors "github.com/jscyril/hsm/pkg/errors"
	"github.com/jscyril/hsm/pkg/events"
)

type fakeStore struct {
	values map[string]interface{}
	sets   []string
}

func newFakeStore() *fakeStore {
	s := &fakeStore{values: map[string]interface{}{}}
	for name, p := range (&Server{handler: &handler{}}).properties()[playerIface] {
		s.values[name] = p.Value
	}
	return s
}

func (s *fakeStore) GetMust(iface, property string) interface{} {
	return s.values[property]
}

func (s *fakeStore) SetMust(iface, property string, v interface{}) {
	s.values[property] = v
	s.sets = append(s.sets, property)
}

type signal struct {
	name   string
	values []interface{}
}

func newTestNotifier() (*notifier, *fakeStore, *[]signal) {
	store := newFakeStore()
	var signals []signal
	n := &notifier{
		store: store,
		emit: func(name string, values ...interface{}) error {
			signals = append(signals, signal{name, values})
			return nil
		},
		logger: zerolog.Nop(),
	}
	return n, store, &signals
}

func sampleTrack() *api.Track {
	return &api.Track{
		ID:       "0a1b2c",
		URI:      "file:///music/song.flac",
		Title:    "Song",
		Artist:   "Band",
		Album:    "Record",
		Genre:    "Rock",
		Year:     1999,
		TrackNum: 3,
		Duration: 3 * time.Minute,
	}
}

func TestConversions(t *testing.T) {
	statuses := map[api.PlaybackStatus]string{
		api.StatusStopped: "Stopped",
		api.StatusPlaying: "Playing",
		api.StatusPaused:  "Paused",
	}
	for s, want := range statuses {
		if got := playbackStatus(s); got != want {
			t.Errorf("playbackStatus(%v) = %q, want %q", s, got, want)
		}
	}

	for _, m := range []api.LoopMode{api.LoopNone, api.LoopTrack, api.LoopQueue} {
		back, err := parseLoopStatus(loopStatus(m))
		if err != nil || back != m {
			t.Errorf("loop status round trip %v -> %q -> %v, %v", m, loopStatus(m), back, err)
		}
	}
	if _, err := parseLoopStatus("Shuffle"); err == nil {
		t.Error("parseLoopStatus accepted Shuffle")
	}

	if got := micros(1500 * time.Millisecond); got != 1500000 {
		t.Errorf("micros = %d", got)
	}
	if got := fromMicros(-2000000); got != -2*time.Second {
		t.Errorf("fromMicros = %v", got)
	}
}

func TestTrackObjectPath(t *testing.T) {
	if got := trackObjectPath(nil); got != noTrackPath {
		t.Errorf("trackObjectPath(nil) = %q", got)
	}
	p := trackObjectPath(sampleTrack())
	if !p.IsValid() {
		t.Errorf("%q is not a valid object path", p)
	}
	if id, ok := trackIDFromPath(p); !ok || id != "0a1b2c" {
		t.Errorf("trackIDFromPath(%q) = %q, %v", p, id, ok)
	}
	if _, ok := trackIDFromPath(noTrackPath); ok {
		t.Error("NoTrack path parsed as a track")
	}
}

func TestMetadata(t *testing.T) {
	md := metadata(sampleTrack())

	checks := map[string]interface{}{
		"mpris:trackid":        dbus.ObjectPath("/org/mpris/MediaPlayer2/Track/0a1b2c"),
		"mpris:length":         int64(180000000),
		"xesam:title":          "Song",
		"xesam:album":          "Record",
		"xesam:trackNumber":    int32(3),
		"xesam:contentCreated": "1999",
		"xesam:url":            "file:///music/song.flac",
	}
	for key, want := range checks {
		v, ok := md[key]
		if !ok {
			t.Errorf("metadata missing %s", key)
			continue
		}
		if v.Value() != want {
			t.Errorf("%s = %v, want %v", key, v.Value(), want)
		}
	}
	if artists, _ := md["xesam:artist"].Value().([]string); len(artists) != 1 || artists[0] != "Band" {
		t.Errorf("xesam:artist = %v", md["xesam:artist"])
	}

	empty := metadata(nil)
	if len(empty) != 1 || empty["mpris:trackid"].Value() != noTrackPath {
		t.Errorf("metadata(nil) = %v", empty)
	}
}

func TestNotifierEdgeTriggered(t *testing.T) {
	n, store, signals := newTestNotifier()

	snap := api.Snapshot{Status: api.StatusPlaying, Volume: 0.5, Current: sampleTrack(), Cause: "play"}
	n.apply(snap)
	want := map[string]bool{"PlaybackStatus": true, "Volume": true, "Metadata": true}
	for _, name := range store.sets {
		if !want[name] {
			t.Errorf("unexpected write of %s", name)
		}
		delete(want, name)
	}
	if len(want) != 0 {
		t.Errorf("missing writes: %v", want)
	}

	// Only the position moved
	store.sets = nil
	snap.Position = 2 * time.Second
	snap.Cause = "position-advanced"
	n.apply(snap)
	if len(store.sets) != 1 || store.sets[0] != "Position" {
		t.Errorf("writes after position update = %v, want [Position]", store.sets)
	}

	// Identical snapshot writes nothing
	store.sets = nil
	n.apply(snap)
	if len(store.sets) != 0 {
		t.Errorf("writes for unchanged snapshot = %v", store.sets)
	}

	store.sets = nil
	snap.Loop = api.LoopQueue
	n.apply(snap)
	if len(store.sets) != 1 || store.values["LoopStatus"] != "Playlist" {
		t.Errorf("loop change: writes = %v, LoopStatus = %v", store.sets, store.values["LoopStatus"])
	}

	if len(*signals) != 0 {
		t.Errorf("signals emitted without a seek: %v", *signals)
	}
}

func TestNotifierSeeked(t *testing.T) {
	next := &api.Track{ID: "b2", URI: "file:///music/next.flac", Title: "Next"}

	tests := []struct {
		name     string
		snap     api.Snapshot
		wantEmit bool
	}{
		{"seek-to within track", api.Snapshot{Status: api.StatusPlaying, Current: sampleTrack(), Position: 42 * time.Second, Cause: "seek-to"}, true},
		{"relative seek", api.Snapshot{Status: api.StatusPlaying, Current: sampleTrack(), Position: 42 * time.Second, Cause: "seek"}, true},
		{"seek ran into next track", api.Snapshot{Status: api.StatusPlaying, Current: next, Cause: "seek"}, false},
		{"seek ran off the queue", api.Snapshot{Status: api.StatusStopped, Index: -1, Cause: "seek"}, false},
		{"not a seek", api.Snapshot{Status: api.StatusPlaying, Current: sampleTrack(), Position: 42 * time.Second, Cause: "position-advanced"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, _, signals := newTestNotifier()
			n.apply(api.Snapshot{Status: api.StatusPlaying, Current: sampleTrack(), Cause: "play"})
			n.apply(tt.snap)

			if !tt.wantEmit {
				if len(*signals) != 0 {
					t.Errorf("signals = %v, want none", *signals)
				}
				return
			}
			if len(*signals) != 1 {
				t.Fatalf("signals = %v, want one Seeked", *signals)
			}
			got := (*signals)[0]
			if got.name != playerIface+".Seeked" || len(got.values) != 1 || got.values[0] != int64(42000000) {
				t.Errorf("signal = %+v", got)
			}
		})
	}
}

func TestNotifierNavigation(t *testing.T) {
	tests := []struct {
		name         string
		canNext      bool
		canPrevious  bool
		wantNext     bool
		wantPrevious bool
	}{
		{"middle of queue", true, true, true, true},
		{"last track without loop", false, true, false, true},
		{"first track without loop", true, false, true, false},
		{"stopped", false, false, false, false},
	}

	n, store, _ := newTestNotifier()
	for _, tt := range tests {
		store.sets = nil
		before := [2]interface{}{store.values["CanGoNext"], store.values["CanGoPrevious"]}

		n.apply(api.Snapshot{Status: api.StatusPlaying, Current: sampleTrack(), CanNext: tt.canNext, CanPrevious: tt.canPrevious})

		if store.values["CanGoNext"] != tt.wantNext || store.values["CanGoPrevious"] != tt.wantPrevious {
			t.Errorf("%s: CanGoNext=%v CanGoPrevious=%v", tt.name, store.values["CanGoNext"], store.values["CanGoPrevious"])
		}
		for _, name := range store.sets {
			if name == "CanGoNext" && before[0] == tt.wantNext {
				t.Errorf("%s: CanGoNext rewritten without a change", tt.name)
			}
			if name == "CanGoPrevious" && before[1] == tt.wantPrevious {
				t.Errorf("%s: CanGoPrevious rewritten without a change", tt.name)
			}
		}
	}
}

func TestNotifierRestoresRate(t *testing.T) {
	n, store, _ := newTestNotifier()
	// What prop.Properties keeps after a client writes Rate 0
	store.values["Rate"] = 0.0

	n.apply(api.Snapshot{Status: api.StatusPaused, Current: sampleTrack(), Cause: "pause"})
	if store.values["Rate"] != 1.0 {
		t.Errorf("Rate = %v, want 1.0", store.values["Rate"])
	}
}

// fakePlayer answers Status with a fixed snapshot and records commands
type fakePlayer struct {
	mu      sync.Mutex
	current *api.Track
	cmds    []api.Command
	err     error
}

func (p *fakePlayer) Submit(_ context.Context, cmd api.Command) (api.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cmd.Kind == api.CmdStatus {
		return api.Snapshot{Status: api.StatusPlaying, Current: p.current}, nil
	}
	p.cmds = append(p.cmds, cmd)
	return api.Snapshot{}, p.err
}

func (p *fakePlayer) Subscribe() *events.Subscription {
	return events.NewBus().Subscribe()
}

type fakeResolver struct{ uris []string }

func (r *fakeResolver) Resolve(_ context.Context, uris []string) ([]api.Track, error) {
	r.uris = append(r.uris, uris...)
	return []api.Track{{ID: "new", URI: uris[0]}}, nil
}

func newHandler(p *fakePlayer) (*handler, *fakeResolver) {
	r := &fakeResolver{}
	return &handler{player: p, resolver: r, logger: zerolog.Nop()}, r
}

func kinds(cmds []api.Command) string {
	return fmt.Sprint(func() []string {
		out := make([]string, len(cmds))
		for i, c := range cmds {
			out[i] = c.Kind.String()
		}
		return out
	}())
}

func TestPlayerMethods(t *testing.T) {
	p := &fakePlayer{}
	h, _ := newHandler(p)
	obj := playerObject{h}

	for _, call := range []func() *dbus.Error{obj.Play, obj.Pause, obj.PlayPause, obj.Stop, obj.Next, obj.Previous} {
		if err := call(); err != nil {
			t.Fatalf("call failed: %v", err)
		}
	}
	if got := kinds(p.cmds); got != "[play pause play-pause stop next previous]" {
		t.Errorf("commands = %s", got)
	}
	if !p.cmds[5].Soft {
		t.Error("Previous should be soft")
	}
}

func TestSeek(t *testing.T) {
	p := &fakePlayer{}
	h, _ := newHandler(p)
	obj := playerObject{h}

	if err := obj.Seek(0); err != nil || len(p.cmds) != 0 {
		t.Fatalf("Seek(0) = %v, commands = %v", err, p.cmds)
	}
	if err := obj.Seek(-5000000); err != nil {
		t.Fatal(err)
	}
	if len(p.cmds) != 1 || p.cmds[0].Kind != api.CmdSeek || p.cmds[0].Offset != -5*time.Second {
		t.Errorf("commands = %+v", p.cmds)
	}

	const limit = math.MaxInt64 / int64(time.Microsecond)
	tests := []struct {
		name   string
		micros int64
		want   time.Duration
	}{
		{"largest offset", math.MaxInt64, math.MaxInt64},
		{"just past the limit", limit + 1, math.MaxInt64},
		{"smallest offset", math.MinInt64, math.MinInt64},
		{"at the limit", limit, time.Duration(limit) * time.Microsecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePlayer{}
			h, _ := newHandler(p)
			if err := (playerObject{h}).Seek(tt.micros); err != nil {
				t.Fatal(err)
			}
			if len(p.cmds) != 1 || p.cmds[0].Offset != tt.want {
				t.Errorf("commands = %+v, want offset %v", p.cmds, tt.want)
			}
			if tt.micros > 0 && p.cmds[0].Offset < 0 {
				t.Errorf("forward seek wrapped to %v", p.cmds[0].Offset)
			}
		})
	}
}

func TestSetPosition(t *testing.T) {
	track := sampleTrack()
	path := trackObjectPath(track)

	tests := []struct {
		name   string
		id     dbus.ObjectPath
		pos    int64
		issued bool
	}{
		{"valid", path, 60000000, true},
		{"negative", path, -1, false},
		{"past end", path, 181000000, false},
		{"stale track", "/org/mpris/MediaPlayer2/Track/old", 1000000, false},
		{"no track path", noTrackPath, 1000000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePlayer{current: track}
			h, _ := newHandler(p)
			if err := (playerObject{h}).SetPosition(tt.id, tt.pos); err != nil {
				t.Fatalf("SetPosition() error = %v", err)
			}
			if !tt.issued {
				if len(p.cmds) != 0 {
					t.Errorf("commands = %+v, want none", p.cmds)
				}
				return
			}
			if len(p.cmds) != 1 {
				t.Fatalf("commands = %+v, want one seek-to", p.cmds)
			}
			cmd := p.cmds[0]
			if cmd.Kind != api.CmdSeekTo || cmd.Position != time.Minute || cmd.TrackID != track.ID {
				t.Errorf("command = %+v", cmd)
			}
		})
	}
}

func TestOpenUri(t *testing.T) {
	p := &fakePlayer{}
	h, r := newHandler(p)
	obj := playerObject{h}

	if err := obj.OpenUri("https://example.com/a.mp3"); err == nil || err.Name != errNotSupported {
		t.Errorf("OpenUri(https) = %v, want NotSupported", err)
	}
	if err := obj.OpenUri("file:///music/a.mp3"); err != nil {
		t.Fatalf("OpenUri(file) = %v", err)
	}
	if len(r.uris) != 1 || r.uris[0] != "file:///music/a.mp3" {
		t.Errorf("resolved = %v", r.uris)
	}
	if len(p.cmds) != 1 || p.cmds[0].Kind != api.CmdEnqueue || p.cmds[0].Insert != api.InsertEnd || len(p.cmds[0].Tracks) != 1 {
		t.Errorf("commands = %+v", p.cmds)
	}
}

func TestCommandFailureIsFailedError(t *testing.T) {
	p := &fakePlayer{err: playerrors.Command("next", playerrors.ErrNoTrack)}
	h, _ := newHandler(p)

	err := playerObject{h}.Next()
	if err == nil {
		t.Fatal("Next() error = nil")
	}
	if err.Name != "org.freedesktop.DBus.Error.Failed" {
		t.Errorf("error name = %s", err.Name)
	}
	if len(err.Body) != 1 || err.Body[0] != playerrors.ErrNoTrack.Error() {
		t.Errorf("error body = %v", err.Body)
	}
}

func TestRootMethods(t *testing.T) {
	p := &fakePlayer{}
	h, _ := newHandler(p)
	root := rootObject{h}

	if err := root.Raise(); err == nil || err.Name != errNotSupported {
		t.Errorf("Raise() = %v", err)
	}
	if err := root.Quit(); err != nil {
		t.Fatal(err)
	}
	if len(p.cmds) != 1 || p.cmds[0].Kind != api.CmdShutdown {
		t.Errorf("Quit issued %+v", p.cmds)
	}
}

func TestPropertyCallbacks(t *testing.T) {
	p := &fakePlayer{}
	h, _ := newHandler(p)

	if err := h.setVolume(&prop.Change{Value: 0.25}); err != nil {
		t.Fatal(err)
	}
	if err := h.setVolume(&prop.Change{Value: "loud"}); err == nil || err.Name != errInvalidArgs {
		t.Errorf("setVolume(string) = %v", err)
	}
	if err := h.setLoopStatus(&prop.Change{Value: "Playlist"}); err != nil {
		t.Fatal(err)
	}
	if err := h.setLoopStatus(&prop.Change{Value: "Sometimes"}); err == nil {
		t.Error("setLoopStatus accepted an unknown status")
	}
	if err := h.setRate(&prop.Change{Value: 0.0}); err != nil {
		t.Fatal(err)
	}
	if err := h.setRate(&prop.Change{Value: 2.0}); err == nil || err.Name != errNotSupported {
		t.Errorf("setRate(2) = %v", err)
	}

	if got := kinds(p.cmds); got != "[set-volume set-loop pause]" {
		t.Errorf("commands = %s", got)
	}
	if p.cmds[0].Volume != 0.25 || p.cmds[1].Loop != api.LoopQueue {
		t.Errorf("commands = %+v", p.cmds)
	}
}
