package mpris

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jscyril/hsm/api"
)

const (
	trackPathPrefix = "/org/mpris/MediaPlayer2/Track/"
	noTrackPath     = dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")
)

func playbackStatus(s api.PlaybackStatus) string {
	switch s {
	case api.StatusPlaying:
		return "Playing"
	case api.StatusPaused:
		return "Paused"
	default:
		return "Stopped"
	}
}

func loopStatus(m api.LoopMode) string {
	switch m {
	case api.LoopTrack:
		return "Track"
	case api.LoopQueue:
		return "Playlist"
	default:
		return "None"
	}
}

func parseLoopStatus(s string) (api.LoopMode, error) {
	switch s {
	case "None":
		return api.LoopNone, nil
	case "Track":
		return api.LoopTrack, nil
	case "Playlist":
		return api.LoopQueue, nil
	}
	return api.LoopNone, fmt.Errorf("unknown loop status %q", s)
}

func micros(d time.Duration) int64 {
	return d.Microseconds()
}

func fromMicros(us int64) time.Duration {
	const limit = math.MaxInt64 / int64(time.Microsecond)
	switch {
	case us > limit:
		return math.MaxInt64
	case us < -limit:
		return math.MinInt64
	}
	return time.Duration(us) * time.Microsecond
}

// trackObjectPath names a queue entry. Track IDs are hex, which is valid in
// an object path element.
func trackObjectPath(t *api.Track) dbus.ObjectPath {
	if t == nil || t.ID == "" {
		return noTrackPath
	}
	return dbus.ObjectPath(trackPathPrefix + t.ID)
}

// trackIDFromPath is the inverse of trackObjectPath
func trackIDFromPath(p dbus.ObjectPath) (string, bool) {
	id, ok := strings.CutPrefix(string(p), trackPathPrefix)
	return id, ok && id != ""
}

func metadata(t *api.Track) map[string]dbus.Variant {
	md := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(trackObjectPath(t)),
	}
	if t == nil {
		return md
	}

	md["xesam:url"] = dbus.MakeVariant(t.URI)
	if t.Title != "" {
		md["xesam:title"] = dbus.MakeVariant(t.Title)
	}
	if t.Artist != "" {
		md["xesam:artist"] = dbus.MakeVariant([]string{t.Artist})
	}
	if t.Album != "" {
		md["xesam:album"] = dbus.MakeVariant(t.Album)
	}
	if t.Genre != "" {
		md["xesam:genre"] = dbus.MakeVariant([]string{t.Genre})
	}
	if t.TrackNum > 0 {
		md["xesam:trackNumber"] = dbus.MakeVariant(int32(t.TrackNum))
	}
	if t.Year > 0 {
		md["xesam:contentCreated"] = dbus.MakeVariant(strconv.Itoa(t.Year))
	}
	if t.Duration > 0 {
		md["mpris:length"] = dbus.MakeVariant(micros(t.Duration))
	}
	return md
}
