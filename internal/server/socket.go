// Package server implements the local control listener: a Unix socket
// speaking the ipc protocol on behalf of the player.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jscyril/hsm/api"
	"github.com/jscyril/hsm/internal/ipc"
	playerrors "github.com/jscyril/hsm/pkg/errors"
)

// WriteTimeout bounds each response write
const WriteTimeout = 5 * time.Second

// Player accepts commands; implemented by *player.Coordinator
type Player interface {
	Submit(ctx context.Context, cmd api.Command) (api.Snapshot, error)
}

// Resolver turns client URIs into queue entries; implemented by
// *library.Library
type Resolver interface {
	Resolve(ctx context.Context, uris []string) ([]api.Track, error)
}

// SocketServer is the Unix socket control listener
type SocketServer struct {
	socketPath string
	version    string
	player     Player
	resolver   Resolver
	logger     zerolog.Logger

	listener net.Listener
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewSocketServer creates a listener for socketPath
func NewSocketServer(socketPath, version string, player Player, resolver Resolver, logger zerolog.Logger) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		version:    version,
		player:     player,
		resolver:   resolver,
		logger:     logger.With().Str("component", "socket").Logger(),
	}
}

// Start binds the socket. A socket another server still answers on is a
// fatal error; a leftover file from a dead server is replaced.
func (s *SocketServer) Start() error {
	if err := s.clearStale(); err != nil {
		return playerrors.Fatal("listen", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0700); err != nil {
		return playerrors.Fatal("listen", fmt.Errorf("create socket directory: %w", err))
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return playerrors.Fatal("listen", fmt.Errorf("failed to listen on %s: %w", s.socketPath, err))
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return playerrors.Fatal("listen", fmt.Errorf("restrict socket permissions: %w", err))
	}
	s.listener = listener

	s.logger.Info().Str("path", s.socketPath).Msg("listening")
	return nil
}

func (s *SocketServer) clearStale() error {
	if _, err := os.Lstat(s.socketPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	conn, err := net.DialTimeout("unix", s.socketPath, time.Second)
	if err == nil {
		conn.Close()
		return fmt.Errorf("%w: %s", playerrors.ErrSocketInUse, s.socketPath)
	}

	s.logger.Warn().Str("path", s.socketPath).Msg("removing stale socket")
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	return nil
}

// Serve accepts connections until ctx is cancelled, then waits for every
// connection handler and removes the socket file
func (s *SocketServer) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("socket server not started")
	}
	stop := context.AfterFunc(ctx, s.closeListener)
	defer stop()
	defer s.Stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn().Err(err).Msg("accept failed")
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

func (s *SocketServer) closeListener() {
	if s.listener != nil {
		s.listener.Close()
	}
}

// Stop closes the listener, waits for connection handlers and removes the
// socket file. Handlers only exit once their context is cancelled or their
// client hangs up.
func (s *SocketServer) Stop() {
	s.stopOnce.Do(func() {
		s.closeListener()
		s.wg.Wait()
		if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Msg("failed to remove socket")
		}
		s.logger.Info().Msg("socket server stopped")
	})
}

// handleConnection serves request/response round trips until the client
// hangs up, sends something malformed, or ctx is cancelled
func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	log := s.logger.With().Str("conn", strings.ReplaceAll(uuid.NewString(), "-", "")[:8]).Logger()
	log.Debug().Msg("client connected")
	defer log.Debug().Msg("client disconnected")

	// Wake a blocked read on shutdown; a pending Submit returns on its own
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	reader := bufio.NewReaderSize(conn, ipc.MaxLineBytes)
	for {
		req, err := ipc.ReadRequest(reader)
		if err != nil {
			if playerrors.KindOf(err) == playerrors.KindProtocol {
				log.Warn().Err(err).Msg("malformed request")
				s.write(conn, log, ipc.ErrorResponse(err))
				return
			}
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Debug().Err(err).Msg("read failed")
			}
			return
		}

		resp, fatal := s.dispatch(ctx, req)
		if !s.write(conn, log, resp) || fatal {
			return
		}
	}
}

// dispatch runs one request. The second result reports a protocol error,
// after which the connection is closed.
func (s *SocketServer) dispatch(ctx context.Context, req ipc.Request) (ipc.Response, bool) {
	if req.Command == ipc.CommandVersion {
		return ipc.Response{OK: true, Version: s.version}, false
	}

	cmd, err := req.ToCommand()
	if err != nil {
		return ipc.ErrorResponse(err), playerrors.KindOf(err) == playerrors.KindProtocol
	}

	if cmd.Kind == api.CmdEnqueue {
		tracks, err := s.resolver.Resolve(ctx, req.URIs)
		if err != nil {
			return ipc.ErrorResponse(err), false
		}
		cmd.Tracks = tracks
	}

	snap, err := s.player.Submit(ctx, cmd)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			err = playerrors.Shutdown(req.Command)
		}
		return ipc.ErrorResponse(err), false
	}
	return ipc.NewResponse(snap), false
}

func (s *SocketServer) write(conn net.Conn, log zerolog.Logger, resp ipc.Response) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if err := ipc.WriteMessage(conn, resp); err != nil {
		log.Debug().Err(err).Msg("write failed")
		return false
	}
	return true
}
