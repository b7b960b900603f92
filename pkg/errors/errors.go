package errors

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an error by who is at fault and how it propagates
type Kind string

const (
	// KindProtocol is a malformed or unknown request; the connection is closed
	KindProtocol Kind = "protocol"
	// KindCommand is a well-formed command that cannot apply to the current state
	KindCommand Kind = "command"
	// KindEngine is a decode or output failure reported by the audio engine
	KindEngine Kind = "engine"
	// KindFatal aborts startup
	KindFatal Kind = "fatal"
	// KindShutdown is returned to requests the server will never answer
	KindShutdown Kind = "shutdown"
)

// Sentinel errors for common conditions
var (
	ErrTrackNotFound    = errors.New("track not found")
	ErrInvalidFormat    = errors.New("unsupported audio format")
	ErrPlaybackFailed   = errors.New("playback failed")
	ErrEmptyQueue       = errors.New("playback queue is empty")
	ErrInvalidVolume    = errors.New("volume must be a number")
	ErrInvalidLoopMode  = errors.New("unknown loop mode")
	ErrNoTrack          = errors.New("no track loaded")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMalformedRequest = errors.New("malformed request")
	ErrRequestTooLarge  = errors.New("request line too long")
	ErrSocketInUse      = errors.New("control socket already in use")
	ErrAudioOutput      = errors.New("audio output unavailable")
	ErrShuttingDown     = errors.New("server is shutting down")
	ErrUnsupportedURI   = errors.New("unsupported uri scheme")
	ErrNotSupported     = errors.New("operation not supported")
)

// PlayerError wraps errors with additional context
type PlayerError struct {
	Kind  Kind   // Propagation class
	Op    string // Operation that failed
	Track string // Track ID or URI if applicable
	Err   error  // Underlying error
}

func (e *PlayerError) Error() string {
	if e.Track != "" {
		return fmt.Sprintf("%s failed for track %s: %v", e.Op, e.Track, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PlayerError) Unwrap() error {
	return e.Err
}

// NewPlayerError creates a new PlayerError
func NewPlayerError(kind Kind, op, track string, err error) *PlayerError {
	return &PlayerError{Kind: kind, Op: op, Track: track, Err: err}
}

// Protocol wraps err as a protocol error
func Protocol(op string, err error) *PlayerError {
	return NewPlayerError(KindProtocol, op, "", err)
}

// Command wraps err as a command error
func Command(op string, err error) *PlayerError {
	return NewPlayerError(KindCommand, op, "", err)
}

// Engine wraps err as an engine error for the given track
func Engine(op, track string, err error) *PlayerError {
	return NewPlayerError(KindEngine, op, track, err)
}

// Fatal wraps err as a startup failure
func Fatal(op string, err error) *PlayerError {
	return NewPlayerError(KindFatal, op, "", err)
}

// Shutdown reports that op was abandoned because the server is stopping
func Shutdown(op string) *PlayerError {
	return NewPlayerError(KindShutdown, op, "", ErrShuttingDown)
}

// KindOf classifies err. Unclassified errors are command errors.
func KindOf(err error) Kind {
	var pe *PlayerError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &pe) && pe.Kind != "":
		return pe.Kind
	case errors.Is(err, ErrShuttingDown):
		return KindShutdown
	case errors.Is(err, ErrUnknownCommand), errors.Is(err, ErrMalformedRequest), errors.Is(err, ErrRequestTooLarge):
		return KindProtocol
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindShutdown
	}
	return KindCommand
}

// Message returns the innermost meaningful text of err for display to clients
func Message(err error) string {
	if err == nil {
		return ""
	}
	if pe, ok := err.(*PlayerError); ok && pe.Err != nil {
		return pe.Err.Error()
	}
	return err.Error()
}

// ScanError represents an error during directory scanning
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan error at %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

