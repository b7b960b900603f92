// Package mpris exposes the player on the D-Bus session bus using the
// MPRIS v2 media player interfaces.
package mpris

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/rs/zerolog"

	"github.com/jscyril/hsm/internal/audio"
)

const (
	objectPath  = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	rootIface   = "org.mpris.MediaPlayer2"
	playerIface = "org.mpris.MediaPlayer2.Player"
	busPrefix   = "org.mpris.MediaPlayer2."
)

// Server owns the session bus connection
type Server struct {
	name    string
	handler *handler
	logger  zerolog.Logger

	conn     *dbus.Conn
	notifier *notifier
}

// New creates a server that will claim org.mpris.MediaPlayer2.<name>
func New(name string, player Player, resolver Resolver, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "mpris").Logger()
	return &Server{
		name:    name,
		handler: &handler{player: player, resolver: resolver, logger: logger},
		logger:  logger,
	}
}

// BusName is the well-known name the server requests
func (s *Server) BusName() string {
	return busPrefix + s.name
}

// Start connects to the session bus, exports the objects and claims the
// bus name
func (s *Server) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	if err := s.export(conn); err != nil {
		conn.Close()
		return err
	}

	reply, err := conn.RequestName(s.BusName(), dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("request name %s: %w", s.BusName(), err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return fmt.Errorf("bus name %s already taken", s.BusName())
	}

	s.conn = conn
	s.logger.Info().Str("name", s.BusName()).Msg("registered on session bus")
	return nil
}

func (s *Server) export(conn *dbus.Conn) error {
	root := rootObject{s.handler}
	player := playerObject{s.handler}

	if err := conn.Export(root, objectPath, rootIface); err != nil {
		return fmt.Errorf("export %s: %w", rootIface, err)
	}
	if err := conn.Export(player, objectPath, playerIface); err != nil {
		return fmt.Errorf("export %s: %w", playerIface, err)
	}

	props, err := prop.Export(conn, objectPath, s.properties())
	if err != nil {
		return fmt.Errorf("export properties: %w", err)
	}

	node := &introspect.Node{
		Name: string(objectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       rootIface,
				Methods:    introspect.Methods(root),
				Properties: props.Introspection(rootIface),
			},
			{
				Name:       playerIface,
				Methods:    introspect.Methods(player),
				Properties: props.Introspection(playerIface),
				Signals: []introspect.Signal{{
					Name: "Seeked",
					Args: []introspect.Arg{{Name: "Position", Type: "x"}},
				}},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), objectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("export introspection: %w", err)
	}

	s.notifier = &notifier{
		store: props,
		emit: func(name string, values ...interface{}) error {
			return conn.Emit(objectPath, name, values...)
		},
		logger: s.logger,
	}
	return nil
}

func (s *Server) properties() prop.Map {
	h := s.handler
	constant := func(v interface{}) *prop.Prop {
		return &prop.Prop{Value: v, Emit: prop.EmitConst}
	}

	return prop.Map{
		rootIface: {
			"CanQuit":             constant(true),
			"CanRaise":            constant(false),
			"Fullscreen":          constant(false),
			"CanSetFullscreen":    constant(false),
			"HasTrackList":        constant(false),
			"Identity":            constant("HomeSlashMusic"),
			"DesktopEntry":        constant("homeslashmusic"),
			"SupportedUriSchemes": constant([]string{"file"}),
			"SupportedMimeTypes":  constant(audio.SupportedMimeTypes()),
		},
		playerIface: {
			"PlaybackStatus": {Value: playbackStatus(0), Emit: prop.EmitTrue},
			"LoopStatus":     {Value: loopStatus(0), Writable: true, Emit: prop.EmitTrue, Callback: h.setLoopStatus},
			"Rate":           {Value: 1.0, Writable: true, Emit: prop.EmitTrue, Callback: h.setRate},
			"Metadata":       {Value: metadata(nil), Emit: prop.EmitTrue},
			"Volume":         {Value: 0.0, Writable: true, Emit: prop.EmitTrue, Callback: h.setVolume},
			"Position":       {Value: int64(0), Emit: prop.EmitFalse},
			"MinimumRate":    constant(1.0),
			"MaximumRate":    constant(1.0),
			"CanGoNext":      {Value: false, Emit: prop.EmitTrue},
			"CanGoPrevious":  {Value: false, Emit: prop.EmitTrue},
			"CanPlay":        constant(true),
			"CanPause":       constant(true),
			"CanSeek":        constant(true),
			"CanControl":     constant(true),
		},
	}
}

// Run mirrors player snapshots onto the bus until ctx is cancelled or the
// player shuts down
func (s *Server) Run(ctx context.Context) error {
	if s.notifier == nil {
		return fmt.Errorf("mpris server not started")
	}
	sub := s.handler.player.Subscribe()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-sub.C():
			if !ok {
				return nil
			}
			s.notifier.apply(snap)
		}
	}
}

// Close releases the bus name and disconnects
func (s *Server) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.ReleaseName(s.BusName()); err != nil {
		s.logger.Debug().Err(err).Msg("release name failed")
	}
	return s.conn.Close()
}
