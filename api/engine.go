package api

import "time"

// EventType identifies an engine event
type EventType int

const (
	EventTrackFinished EventType = iota
	EventDecodeFailed
	EventPositionAdvanced
)

func (t EventType) String() string {
	switch t {
	case EventTrackFinished:
		return "track-finished"
	case EventDecodeFailed:
		return "decode-failed"
	case EventPositionAdvanced:
		return "position-advanced"
	}
	return "unknown"
}

// EngineEvent is reported asynchronously by an Engine. Gen is the generation
// of the Load or Seek the event belongs to.
type EngineEvent struct {
	Type    EventType
	Gen     uint64
	Elapsed time.Duration // PositionAdvanced
	Err     error         // DecodeFailed
}

// Engine plays one track at a time. Calls never block; failures are
// reported through Events.
type Engine interface {
	Load(gen uint64, track Track)
	Play()
	Pause()
	Stop()
	Seek(gen uint64, pos time.Duration)
	SetVolume(level float64)
	Events() <-chan EngineEvent
}
