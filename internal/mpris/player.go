package mpris

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/rs/zerolog"

	"github.com/jscyril/hsm/api"
	playerrors "github.com/jscyril/hsm/pkg/errors"
	"github.com/jscyril/hsm/pkg/events"
)

// callTimeout bounds how long a bus method waits for the player
const callTimeout = 5 * time.Second

const errNotSupported = "org.freedesktop.DBus.Error.NotSupported"
const errInvalidArgs = "org.freedesktop.DBus.Error.InvalidArgs"

// Player is the command sink and snapshot source; implemented by
// *player.Coordinator
type Player interface {
	Submit(ctx context.Context, cmd api.Command) (api.Snapshot, error)
	Subscribe() *events.Subscription
}

// Resolver turns OpenUri arguments into queue entries
type Resolver interface {
	Resolve(ctx context.Context, uris []string) ([]api.Track, error)
}

// handler backs both exported interfaces. godbus exports every method with
// a trailing *dbus.Error result, so root and player methods live on
// separate types.
type handler struct {
	player   Player
	resolver Resolver
	logger   zerolog.Logger
}

func (h *handler) submit(cmd api.Command) *dbus.Error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	if _, err := h.player.Submit(ctx, cmd); err != nil {
		h.logger.Debug().Err(err).Str("command", cmd.Kind.String()).Msg("bus command failed")
		return dbus.MakeFailedError(errors.New(playerrors.Message(err)))
	}
	return nil
}

func notSupported(msg string) *dbus.Error {
	return dbus.NewError(errNotSupported, []interface{}{msg})
}

// rootObject implements org.mpris.MediaPlayer2
type rootObject struct{ *handler }

func (r rootObject) Raise() *dbus.Error {
	return notSupported("Raise is not supported")
}

func (r rootObject) Quit() *dbus.Error {
	return r.submit(api.Shutdown())
}

// playerObject implements org.mpris.MediaPlayer2.Player
type playerObject struct{ *handler }

func (p playerObject) Next() *dbus.Error      { return p.submit(api.Next()) }
func (p playerObject) Previous() *dbus.Error  { return p.submit(api.Previous(true)) }
func (p playerObject) Pause() *dbus.Error     { return p.submit(api.Pause()) }
func (p playerObject) PlayPause() *dbus.Error { return p.submit(api.PlayPause()) }
func (p playerObject) Stop() *dbus.Error      { return p.submit(api.Stop()) }
func (p playerObject) Play() *dbus.Error      { return p.submit(api.Play()) }

// Seek moves relative to the current position; offset is in microseconds
func (p playerObject) Seek(offset int64) *dbus.Error {
	if offset == 0 {
		return nil
	}
	return p.submit(api.Seek(fromMicros(offset)))
}

// SetPosition seeks within trackID. Requests for a track that is no longer
// current, or positions outside the track, are ignored.
func (p playerObject) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	if position < 0 {
		return nil
	}
	id, ok := trackIDFromPath(trackID)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	snap, err := p.player.Submit(ctx, api.Status())
	if err != nil {
		return dbus.MakeFailedError(errors.New(playerrors.Message(err)))
	}
	pos := fromMicros(position)
	if snap.Current == nil || snap.Current.ID != id || (snap.Current.Duration > 0 && pos > snap.Current.Duration) {
		return nil
	}

	cmd := api.SeekTo(pos)
	cmd.TrackID = id
	if _, err := p.player.Submit(ctx, cmd); err != nil {
		// The track changed between the two calls
		if errors.Is(err, playerrors.ErrTrackNotFound) {
			return nil
		}
		return dbus.MakeFailedError(errors.New(playerrors.Message(err)))
	}
	return nil
}

// OpenUri appends a local file or directory to the queue
func (p playerObject) OpenUri(uri string) *dbus.Error {
	if !strings.HasPrefix(uri, "file://") {
		return notSupported("only file:// URIs are supported")
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	tracks, err := p.resolver.Resolve(ctx, []string{uri})
	if err != nil {
		return dbus.MakeFailedError(errors.New(playerrors.Message(err)))
	}
	return p.submit(api.Enqueue(api.InsertEnd, tracks...))
}

// Property write callbacks. prop.Properties stores the written value after
// the callback returns; the notifier then overwrites it with what the
// player actually applied.

func (h *handler) setVolume(c *prop.Change) *dbus.Error {
	v, ok := c.Value.(float64)
	if !ok {
		return dbus.NewError(errInvalidArgs, []interface{}{"Volume must be a double"})
	}
	return h.submit(api.SetVolume(v))
}

func (h *handler) setLoopStatus(c *prop.Change) *dbus.Error {
	s, ok := c.Value.(string)
	if !ok {
		return dbus.NewError(errInvalidArgs, []interface{}{"LoopStatus must be a string"})
	}
	mode, err := parseLoopStatus(s)
	if err != nil {
		return dbus.NewError(errInvalidArgs, []interface{}{err.Error()})
	}
	return h.submit(api.SetLoopMode(mode))
}

func (h *handler) setRate(c *prop.Change) *dbus.Error {
	rate, ok := c.Value.(float64)
	if !ok {
		return dbus.NewError(errInvalidArgs, []interface{}{"Rate must be a double"})
	}
	switch rate {
	case 0:
		return h.submit(api.Pause())
	case 1:
		return nil
	}
	return notSupported("only a rate of 1.0 is supported")
}
