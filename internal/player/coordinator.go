package player

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/jscyril/hsm/api"
	"github.com/jscyril/hsm/internal/playlist"
	playerrors "github.com/jscyril/hsm/pkg/errors"
	"github.com/jscyril/hsm/pkg/events"
)

// Options configures a Coordinator
type Options struct {
	Volume  float64
	Loop    api.LoopMode
	Signals <-chan os.Signal
	Logger  zerolog.Logger
}

type result struct {
	snap api.Snapshot
	err  error
}

type request struct {
	cmd   api.Command
	reply chan result
}

// Coordinator owns the player state. Every command and engine event is
// applied by the single Run goroutine, one at a time, and each change is
// published to subscribers as a Snapshot.
type Coordinator struct {
	engine   api.Engine
	requests chan request
	done     chan struct{}
	bus      *events.Bus
	signals  <-chan os.Signal
	logger   zerolog.Logger

	// Owned by the Run goroutine
	status   api.PlaybackStatus
	volume   float64
	position time.Duration
	queue    *playlist.Queue
	gen      uint64
	seq      uint64
}

// New creates a coordinator driving engine
func New(engine api.Engine, opts Options) *Coordinator {
	queue := playlist.NewQueue()
	queue.SetLoopMode(opts.Loop)

	return &Coordinator{
		engine:   engine,
		requests: make(chan request),
		done:     make(chan struct{}),
		bus:      events.NewBus(),
		signals:  opts.Signals,
		logger:   opts.Logger.With().Str("component", "player").Logger(),
		status:   api.StatusStopped,
		volume:   clampVolume(opts.Volume),
		queue:    queue,
	}
}

// Submit applies cmd and returns the resulting snapshot. Once the loop has
// stopped, or stops before answering, the error has kind shutdown.
func (c *Coordinator) Submit(ctx context.Context, cmd api.Command) (api.Snapshot, error) {
	req := request{cmd: cmd, reply: make(chan result, 1)}

	select {
	case c.requests <- req:
	case <-c.done:
		return api.Snapshot{}, playerrors.Shutdown(cmd.Kind.String())
	case <-ctx.Done():
		return api.Snapshot{}, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.snap, res.err
	case <-c.done:
		// The reply is written before done closes
		select {
		case res := <-req.reply:
			return res.snap, res.err
		default:
		}
		return api.Snapshot{}, playerrors.Shutdown(cmd.Kind.String())
	case <-ctx.Done():
		return api.Snapshot{}, ctx.Err()
	}
}

// Subscribe returns a stream of snapshots starting with the latest one
func (c *Coordinator) Subscribe() *events.Subscription {
	return c.bus.Subscribe()
}

// Done is closed once the coordinator has shut down
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Run is the event loop. It returns nil after a requested shutdown, a
// signal or ctx cancellation, and an error if the engine goes away.
func (c *Coordinator) Run(ctx context.Context) error {
	defer c.finish()

	engineEvents := c.engine.Events()
	c.engine.SetVolume(c.volume)
	c.publish("start", nil)
	c.logger.Info().Float64("volume", c.volume).Str("loop", c.queue.LoopMode().String()).Msg("player ready")

	for {
		// Shutdown sources win over anything else that is ready
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("context cancelled, shutting down")
			return nil
		case sig := <-c.signals:
			c.logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			c.logger.Info().Msg("context cancelled, shutting down")
			return nil

		case sig := <-c.signals:
			c.logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
			return nil

		case req := <-c.requests:
			if req.cmd.Kind == api.CmdShutdown {
				c.logger.Info().Msg("shutdown requested")
				c.stop()
				req.reply <- result{snap: c.snapshot("shutdown", nil)}
				return nil
			}
			c.handleRequest(req)

		case ev, ok := <-engineEvents:
			if !ok {
				return playerrors.Fatal("engine", errors.New("audio engine stopped unexpectedly"))
			}
			c.handleEngineEvent(ev)
		}
	}
}

// finish stops playback, fails pending requests and closes the bus
func (c *Coordinator) finish() {
	c.stop()
	close(c.done)
	c.publish("shutdown", nil)
	c.bus.Close()
	c.logger.Info().Msg("player stopped")
}

func (c *Coordinator) handleRequest(req request) {
	cause := req.cmd.Kind.String()

	if err := c.apply(req.cmd); err != nil {
		c.logger.Debug().Err(err).Str("command", cause).Msg("command rejected")
		req.reply <- result{snap: c.snapshot(cause, nil), err: err}
		return
	}

	var snap api.Snapshot
	if req.cmd.Kind == api.CmdStatus {
		snap = c.snapshot(cause, nil)
	} else {
		snap = c.publish(cause, nil)
	}
	c.logger.Debug().Str("command", cause).Str("status", snap.Status.String()).Msg("command applied")
	req.reply <- result{snap: snap}
}

func (c *Coordinator) handleEngineEvent(ev api.EngineEvent) {
	if ev.Gen != c.gen || c.status == api.StatusStopped {
		return
	}

	switch ev.Type {
	case api.EventPositionAdvanced:
		pos := ev.Elapsed
		if track, ok := c.current(); ok && track.Duration > 0 && pos > track.Duration {
			pos = track.Duration
		}
		if pos <= c.position {
			return
		}
		c.position = pos
		c.publish(ev.Type.String(), nil)

	case api.EventTrackFinished:
		c.advance()
		c.publish(ev.Type.String(), nil)

	case api.EventDecodeFailed:
		info := c.dropCurrent(ev.Err)
		c.publish(ev.Type.String(), info)
	}
}

// snapshot copies the current state
func (c *Coordinator) snapshot(cause string, info *api.ErrorInfo) api.Snapshot {
	s := api.Snapshot{
		Seq:      c.seq,
		Status:   c.status,
		Loop:     c.queue.LoopMode(),
		Volume:   c.volume,
		Position: c.position,
		Queue:    c.queue.Tracks(),
		Index:    -1,
		Cause:    cause,
		Err:      info,
	}
	if track, ok := c.current(); ok {
		s.Current = &track
		s.Index = c.queue.Index()
		s.CanNext = c.queue.HasNext()
		s.CanPrevious = c.queue.HasPrevious()
	}
	return s
}

func (c *Coordinator) publish(cause string, info *api.ErrorInfo) api.Snapshot {
	c.seq++
	snap := c.snapshot(cause, info)
	c.bus.Publish(snap)
	return snap
}
