package audio

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/jscyril/hsm/api"
	playerrors "github.com/jscyril/hsm/pkg/errors"
)

var _ api.Engine = (*NullEngine)(nil)

// NullEngine simulates playback on a wall clock without an audio device.
// It is used on headless hosts and in tests.
type NullEngine struct {
	controls
	interval time.Duration
	logger   zerolog.Logger

	gen      uint64
	track    api.Track
	loaded   bool
	playing  bool
	finished bool
	pos      time.Duration
	lastTick time.Time
}

// NewNullEngine creates a headless engine reporting position every interval
func NewNullEngine(interval time.Duration, logger zerolog.Logger) *NullEngine {
	return &NullEngine{
		controls: newControls(),
		interval: interval,
		logger:   logger.With().Str("component", "engine").Str("backend", "null").Logger(),
	}
}

// Start begins the engine goroutine
func (e *NullEngine) Start(ctx context.Context) {
	go e.run(ctx)
}

func (e *NullEngine) run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	defer e.close()

	for {
		select {
		case <-ctx.Done():
			return

		case cmd, ok := <-e.commands.Out():
			if !ok {
				return
			}
			e.handle(ctx, cmd)

		case now := <-ticker.C:
			e.tick(ctx, now)
		}
	}
}

func (e *NullEngine) handle(ctx context.Context, cmd engineCommand) {
	switch cmd.op {
	case opLoad:
		e.gen = cmd.gen
		e.loaded, e.playing, e.finished, e.pos = false, false, false, 0
		if err := checkSource(cmd.track); err != nil {
			e.logger.Warn().Err(err).Str("uri", cmd.track.URI).Msg("load failed")
			e.emit(ctx, api.EngineEvent{Type: api.EventDecodeFailed, Gen: e.gen, Err: err})
			return
		}
		e.track = cmd.track
		e.loaded = true

	case opPlay:
		if e.loaded && !e.finished && !e.playing {
			e.playing = true
			e.lastTick = time.Now()
		}

	case opPause:
		if e.playing {
			e.advance(time.Now())
			e.playing = false
		}

	case opStop:
		e.loaded, e.playing, e.finished, e.pos = false, false, false, 0

	case opSeek:
		e.gen = cmd.gen
		if !e.loaded {
			return
		}
		if e.finished {
			e.emit(ctx, api.EngineEvent{Type: api.EventTrackFinished, Gen: e.gen})
			return
		}
		e.pos = cmd.pos
		e.lastTick = time.Now()
	}
}

func (e *NullEngine) advance(now time.Time) {
	e.pos += now.Sub(e.lastTick)
	e.lastTick = now
}

func (e *NullEngine) tick(ctx context.Context, now time.Time) {
	if !e.playing {
		return
	}
	e.advance(now)

	if d := e.track.Duration; d > 0 && e.pos >= d {
		e.pos = d
		e.playing = false
		e.finished = true
		e.emit(ctx, api.EngineEvent{Type: api.EventTrackFinished, Gen: e.gen})
		return
	}
	e.emit(ctx, api.EngineEvent{Type: api.EventPositionAdvanced, Gen: e.gen, Elapsed: e.pos})
}

// checkSource fails the same way a real decoder would for missing or
// unsupported files
func checkSource(track api.Track) error {
	path := track.Path()
	if !IsSupported(path) {
		return playerrors.Engine("decode", track.ID, fmt.Errorf("%w: %s", playerrors.ErrInvalidFormat, path))
	}
	if _, err := os.Stat(path); err != nil {
		return playerrors.Engine("open", track.ID, err)
	}
	return nil
}
