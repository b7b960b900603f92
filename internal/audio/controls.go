package audio

import (
	"context"
	"time"

	"github.com/jscyril/hsm/api"
	"github.com/jscyril/hsm/pkg/events"
)

type engineOp int

const (
	opLoad engineOp = iota
	opPlay
	opPause
	opStop
	opSeek
	opVolume
	opFinished
)

type engineCommand struct {
	op    engineOp
	gen   uint64
	track api.Track
	pos   time.Duration
	level float64
}

// controls implements the non-blocking half of api.Engine shared by every
// backend: calls become commands in an unbounded mailbox drained by the
// backend's own goroutine.
type controls struct {
	commands *events.Mailbox[engineCommand]
	events   chan api.EngineEvent
}

func newControls() controls {
	return controls{
		commands: events.NewMailbox[engineCommand](),
		events:   make(chan api.EngineEvent, 32),
	}
}

// Events returns the engine event stream. It is closed when the engine stops.
func (c controls) Events() <-chan api.EngineEvent {
	return c.events
}

// Load prepares track paused; Play starts it
func (c controls) Load(gen uint64, track api.Track) {
	c.commands.Push(engineCommand{op: opLoad, gen: gen, track: track})
}

// Play resumes the loaded track
func (c controls) Play() {
	c.commands.Push(engineCommand{op: opPlay})
}

// Pause pauses the loaded track
func (c controls) Pause() {
	c.commands.Push(engineCommand{op: opPause})
}

// Stop unloads the current track
func (c controls) Stop() {
	c.commands.Push(engineCommand{op: opStop})
}

// Seek moves to pos within the loaded track
func (c controls) Seek(gen uint64, pos time.Duration) {
	c.commands.Push(engineCommand{op: opSeek, gen: gen, pos: pos})
}

// SetVolume sets the output level (0.0 to 1.0)
func (c controls) SetVolume(level float64) {
	c.commands.Push(engineCommand{op: opVolume, level: level})
}

func (c controls) emit(ctx context.Context, ev api.EngineEvent) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c controls) close() {
	c.commands.Close()
	close(c.events)
}
