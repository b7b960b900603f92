package player

import (
	"fmt"
	"math"
	"time"

	"github.com/jscyril/hsm/api"
	playerrors "github.com/jscyril/hsm/pkg/errors"
)

// softPreviousThreshold is how far into a track a soft Previous restarts it
// instead of going back
const softPreviousThreshold = 3 * time.Second

// apply validates and applies one command. A returned error means the state
// was left untouched.
func (c *Coordinator) apply(cmd api.Command) error {
	op := cmd.Kind.String()

	switch cmd.Kind {
	case api.CmdPlayPause:
		switch c.status {
		case api.StatusPlaying:
			c.pause()
		case api.StatusPaused:
			c.resume()
		default:
			return c.start(op)
		}

	case api.CmdPlay:
		switch c.status {
		case api.StatusPaused:
			c.resume()
		case api.StatusStopped:
			return c.start(op)
		}

	case api.CmdPause:
		if c.status == api.StatusPlaying {
			c.pause()
		}

	case api.CmdStop:
		c.stop()

	case api.CmdNext:
		if c.status == api.StatusStopped {
			return playerrors.Command(op, playerrors.ErrNoTrack)
		}
		c.advance()

	case api.CmdPrevious:
		if c.status == api.StatusStopped {
			return playerrors.Command(op, playerrors.ErrNoTrack)
		}
		c.retreat(cmd.Soft)

	case api.CmdSeek:
		if c.status == api.StatusStopped {
			return playerrors.Command(op, playerrors.ErrNoTrack)
		}
		c.seek(addSaturating(c.position, cmd.Offset))

	case api.CmdSeekTo:
		track, ok := c.current()
		if !ok {
			return playerrors.Command(op, playerrors.ErrNoTrack)
		}
		if cmd.TrackID != "" && cmd.TrackID != track.ID {
			return playerrors.Command(op, fmt.Errorf("%w: %s is not current", playerrors.ErrTrackNotFound, cmd.TrackID))
		}
		c.seek(cmd.Position)

	case api.CmdSetVolume:
		if math.IsNaN(cmd.Volume) {
			return playerrors.Command(op, playerrors.ErrInvalidVolume)
		}
		c.volume = clampVolume(cmd.Volume)
		c.engine.SetVolume(c.volume)

	case api.CmdSetLoopMode:
		if !cmd.Loop.Valid() {
			return playerrors.Command(op, fmt.Errorf("%w: %d", playerrors.ErrInvalidLoopMode, cmd.Loop))
		}
		c.queue.SetLoopMode(cmd.Loop)

	case api.CmdEnqueue:
		if len(cmd.Tracks) == 0 {
			return playerrors.Command(op, playerrors.ErrEmptyQueue)
		}
		if cmd.Insert == api.InsertReplace {
			c.stop()
		}
		c.queue.Insert(cmd.Insert, cmd.Tracks...)

	case api.CmdClear:
		c.stop()
		c.queue.Clear()

	case api.CmdStatus:

	default:
		return playerrors.Command(op, playerrors.ErrUnknownCommand)
	}
	return nil
}

// current returns the loaded track; there is none while stopped
func (c *Coordinator) current() (api.Track, bool) {
	if c.status == api.StatusStopped {
		return api.Track{}, false
	}
	return c.queue.Current()
}

// start begins playback at the head of the queue
func (c *Coordinator) start(op string) error {
	if !c.queue.Start() {
		return playerrors.Command(op, playerrors.ErrEmptyQueue)
	}
	c.loadCurrent(true)
	return nil
}

// loadCurrent hands the track under the cursor to the engine
func (c *Coordinator) loadCurrent(playing bool) {
	track, ok := c.queue.Current()
	if !ok {
		c.stop()
		return
	}

	c.gen++
	c.position = 0
	c.engine.Load(c.gen, track)
	if playing {
		c.engine.Play()
		c.status = api.StatusPlaying
	} else {
		c.status = api.StatusPaused
	}
	c.logger.Info().Str("track", track.ID).Str("title", track.Title).Msg("track loaded")
}

func (c *Coordinator) pause() {
	c.engine.Pause()
	c.status = api.StatusPaused
}

func (c *Coordinator) resume() {
	c.engine.Play()
	c.status = api.StatusPlaying
}

// stop unloads the engine and rewinds the cursor to the head
func (c *Coordinator) stop() {
	if c.status != api.StatusStopped {
		c.engine.Stop()
	}
	c.gen++
	c.status = api.StatusStopped
	c.position = 0
	c.queue.Reset()
}

// advance moves to the next track honoring the loop mode, stopping at the
// end of the queue
func (c *Coordinator) advance() {
	playing := c.status == api.StatusPlaying
	if !c.queue.Next() {
		c.stop()
		return
	}
	c.loadCurrent(playing)
}

// retreat moves to the previous track honoring the loop mode
func (c *Coordinator) retreat(soft bool) {
	if soft && c.position > softPreviousThreshold {
		c.restart()
		return
	}

	playing := c.status == api.StatusPlaying
	if !c.queue.Previous() {
		c.stop()
		return
	}
	c.loadCurrent(playing)
}

func (c *Coordinator) restart() {
	c.gen++
	c.engine.Seek(c.gen, 0)
	c.position = 0
}

// seek clamps target into the current track. Seeking to or past the end
// behaves as Next.
func (c *Coordinator) seek(target time.Duration) {
	track, _ := c.current()
	if target < 0 {
		target = 0
	}
	if track.Duration > 0 && target >= track.Duration {
		c.advance()
		return
	}

	c.gen++
	c.engine.Seek(c.gen, target)
	c.position = target
}

// dropCurrent removes a track the engine failed to decode and moves on the
// way Next would from the removed slot
func (c *Coordinator) dropCurrent(reason error) *api.ErrorInfo {
	track, _ := c.queue.Current()
	playing := c.status == api.StatusPlaying

	c.logger.Warn().Err(reason).Str("track", track.ID).Str("uri", track.URI).Msg("dropping undecodable track")
	if err := c.queue.Remove(c.queue.Index()); err != nil {
		c.logger.Debug().Err(err).Int("index", c.queue.Index()).Msg("remove failed track")
	}

	switch {
	case c.queue.Len() == 0:
		c.stop()
	case c.queue.Index() < 0:
		if c.queue.LoopMode() == api.LoopQueue {
			c.queue.Start()
			c.loadCurrent(playing)
		} else {
			c.stop()
		}
	default:
		c.loadCurrent(playing)
	}

	return &api.ErrorInfo{
		Kind:    string(playerrors.KindEngine),
		Message: fmt.Sprintf("%s: %s", track.URI, playerrors.Message(reason)),
	}
}

// addSaturating returns pos+offset, pinned to the int64 range instead of
// wrapping
func addSaturating(pos, offset time.Duration) time.Duration {
	sum := pos + offset
	switch {
	case offset > 0 && sum < pos:
		return math.MaxInt64
	case offset < 0 && sum > pos:
		return math.MinInt64
	}
	return sum
}

func clampVolume(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
