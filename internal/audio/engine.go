package audio

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/rs/zerolog"

	"github.com/jscyril/hsm/api"
	playerrors "github.com/jscyril/hsm/pkg/errors"
)

// Ensure SpeakerEngine implements Engine interface at compile time
var _ api.Engine = (*SpeakerEngine)(nil)

// resampleQuality is the beep.Resample quality used when a file's rate
// differs from the device rate
const resampleQuality = 4

// SpeakerEngine plays tracks through the system audio device
type SpeakerEngine struct {
	controls
	sampleRate beep.SampleRate
	interval   time.Duration
	logger     zerolog.Logger

	// Owned by the run goroutine
	gen      uint64
	loadGen  uint64
	track    api.Track
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
	finished bool
	lastPos  time.Duration
}

// NewSpeakerEngine opens the audio device. Failure is fatal to the server.
func NewSpeakerEngine(sampleRate int, interval time.Duration, volume float64, logger zerolog.Logger) (*SpeakerEngine, error) {
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return nil, playerrors.Fatal("speaker init", fmt.Errorf("%w: %v", playerrors.ErrAudioOutput, err))
	}

	return &SpeakerEngine{
		controls:   newControls(),
		sampleRate: sr,
		interval:   interval,
		level:      volume,
		logger:     logger.With().Str("component", "engine").Logger(),
	}, nil
}

// Start begins the engine goroutine
func (e *SpeakerEngine) Start(ctx context.Context) {
	go e.run(ctx)
}

// run is the main command processing loop
func (e *SpeakerEngine) run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.cleanup()
			return

		case cmd, ok := <-e.commands.Out():
			if !ok {
				e.cleanup()
				return
			}
			e.handle(ctx, cmd)

		case <-ticker.C:
			e.reportPosition(ctx)
		}
	}
}

func (e *SpeakerEngine) handle(ctx context.Context, cmd engineCommand) {
	switch cmd.op {
	case opLoad:
		e.gen = cmd.gen
		if err := e.load(cmd.track); err != nil {
			e.logger.Warn().Err(err).Str("uri", cmd.track.URI).Msg("load failed")
			e.emit(ctx, api.EngineEvent{Type: api.EventDecodeFailed, Gen: e.gen, Err: err})
		}

	case opPlay:
		e.setPaused(false)

	case opPause:
		e.setPaused(true)

	case opStop:
		e.unload()

	case opSeek:
		e.gen = cmd.gen
		if e.streamer == nil {
			return
		}
		if e.finished {
			// The stream already ran out; nothing to reposition
			e.emit(ctx, api.EngineEvent{Type: api.EventTrackFinished, Gen: e.gen})
			return
		}
		if err := e.seekTo(cmd.pos); err != nil {
			e.emit(ctx, api.EngineEvent{Type: api.EventDecodeFailed, Gen: e.gen, Err: err})
		}

	case opVolume:
		e.level = cmd.level
		if e.volume != nil {
			speaker.Lock()
			e.volume.Volume, e.volume.Silent = gain(e.level)
			speaker.Unlock()
		}

	case opFinished:
		if cmd.gen != e.loadGen || e.streamer == nil {
			return
		}
		e.finished = true
		e.emit(ctx, api.EngineEvent{Type: api.EventTrackFinished, Gen: e.gen})
	}
}

// load decodes a track and queues it paused on the speaker
func (e *SpeakerEngine) load(track api.Track) error {
	e.unload()

	path := track.Path()
	file, err := os.Open(path)
	if err != nil {
		return playerrors.Engine("open", track.ID, err)
	}

	streamer, format, err := DecodeAudio(file, path)
	if err != nil {
		file.Close()
		return playerrors.Engine("decode", track.ID, err)
	}

	var source beep.Streamer = streamer
	if format.SampleRate != e.sampleRate {
		source = beep.Resample(resampleQuality, format.SampleRate, e.sampleRate, streamer)
	}

	e.streamer = streamer
	e.format = format
	e.track = track
	e.loadGen = e.gen
	e.ctrl = &beep.Ctrl{Streamer: source, Paused: true}
	vol, silent := gain(e.level)
	e.volume = &effects.Volume{
		Streamer: e.ctrl,
		Base:     2,
		Volume:   vol,
		Silent:   silent,
	}

	gen := e.loadGen
	speaker.Play(beep.Seq(e.volume, beep.Callback(func() {
		e.commands.Push(engineCommand{op: opFinished, gen: gen})
	})))

	e.logger.Debug().Str("track", track.ID).Str("uri", track.URI).Msg("track loaded")
	return nil
}

func (e *SpeakerEngine) setPaused(paused bool) {
	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = paused
	speaker.Unlock()
}

// seekTo seeks to a specific position
func (e *SpeakerEngine) seekTo(pos time.Duration) error {
	n := e.format.SampleRate.N(pos)
	speaker.Lock()
	defer speaker.Unlock()

	if length := e.streamer.Len(); n >= length {
		n = length - 1
	}
	if n < 0 {
		n = 0
	}
	if err := e.streamer.Seek(n); err != nil {
		return playerrors.Engine("seek", e.track.ID, err)
	}
	e.lastPos = e.format.SampleRate.D(n)
	return nil
}

// reportPosition emits the elapsed time while playing
func (e *SpeakerEngine) reportPosition(ctx context.Context) {
	if e.ctrl == nil || e.finished {
		return
	}

	speaker.Lock()
	paused := e.ctrl.Paused
	pos := e.format.SampleRate.D(e.streamer.Position())
	speaker.Unlock()

	if paused || pos == e.lastPos {
		return
	}
	e.lastPos = pos
	e.emit(ctx, api.EngineEvent{Type: api.EventPositionAdvanced, Gen: e.gen, Elapsed: pos})
}

// unload stops the current playback
func (e *SpeakerEngine) unload() {
	speaker.Clear()
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	e.ctrl = nil
	e.volume = nil
	e.finished = false
	e.lastPos = 0
}

// cleanup releases resources
func (e *SpeakerEngine) cleanup() {
	e.unload()
	e.close()
}
