package api

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// PlaybackStatus is the transport state of the player
type PlaybackStatus int

const (
	StatusStopped PlaybackStatus = iota
	StatusPlaying
	StatusPaused
)

func (s PlaybackStatus) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// MarshalText encodes the status by name
func (s PlaybackStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name
func (s *PlaybackStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "stopped":
		*s = StatusStopped
	case "playing":
		*s = StatusPlaying
	case "paused":
		*s = StatusPaused
	default:
		return fmt.Errorf("unknown playback status %q", string(b))
	}
	return nil
}

// LoopMode controls what happens at the end of a track or of the queue
type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopTrack
	LoopQueue
)

func (m LoopMode) String() string {
	switch m {
	case LoopTrack:
		return "track"
	case LoopQueue:
		return "queue"
	default:
		return "none"
	}
}

// Valid reports whether m is one of the known modes
func (m LoopMode) Valid() bool {
	return m >= LoopNone && m <= LoopQueue
}

// ParseLoopMode accepts the canonical names plus a few aliases used by clients
func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off":
		return LoopNone, nil
	case "track", "one", "on":
		return LoopTrack, nil
	case "queue", "all", "playlist":
		return LoopQueue, nil
	}
	return LoopNone, fmt.Errorf("unknown loop mode %q", s)
}

// MarshalText encodes the loop mode by name
func (m LoopMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a loop mode name
func (m *LoopMode) UnmarshalText(b []byte) error {
	mode, err := ParseLoopMode(string(b))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Track describes one playable queue entry. ID is unique per enqueue, so the
// same file queued twice yields two distinct tracks.
type Track struct {
	ID       string        `json:"id"`
	URI      string        `json:"uri"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist,omitempty"`
	Album    string        `json:"album,omitempty"`
	Genre    string        `json:"genre,omitempty"`
	Year     int           `json:"year,omitempty"`
	TrackNum int           `json:"track_number,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Path returns the local filesystem path behind the track URI
func (t Track) Path() string {
	if strings.HasPrefix(t.URI, "file://") {
		if u, err := url.Parse(t.URI); err == nil {
			return u.Path
		}
	}
	return t.URI
}

// FileURI converts an absolute path into a file:// URI
func FileURI(path string) string {
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}

// ErrorInfo tags a snapshot produced by a failure
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Snapshot is an immutable copy of the player state
type Snapshot struct {
	Seq      uint64         `json:"seq"`
	Status   PlaybackStatus `json:"status"`
	Loop     LoopMode       `json:"loop"`
	Volume   float64        `json:"volume"`
	Current  *Track         `json:"current,omitempty"`
	Position time.Duration  `json:"position"`
	Queue    []Track        `json:"queue"`
	Index    int            `json:"index"`
	Cause    string         `json:"cause,omitempty"`
	Err      *ErrorInfo     `json:"error,omitempty"`

	// CanNext and CanPrevious report whether Next or Previous would move
	// to a track (the same one, under LoopTrack)
	CanNext     bool `json:"can_next"`
	CanPrevious bool `json:"can_previous"`
}

// Clone returns a deep copy so the receiver can be handed to another goroutine
func (s Snapshot) Clone() Snapshot {
	c := s
	if s.Current != nil {
		t := *s.Current
		c.Current = &t
	}
	if s.Queue != nil {
		c.Queue = make([]Track, len(s.Queue))
		copy(c.Queue, s.Queue)
	}
	if s.Err != nil {
		e := *s.Err
		c.Err = &e
	}
	return c
}
