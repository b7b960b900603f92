// Package ipc defines the local control protocol: newline-delimited JSON
// requests and responses exchanged over a Unix socket.
package ipc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/jscyril/hsm/api"
	playerrors "github.com/jscyril/hsm/pkg/errors"
)

// MaxLineBytes bounds a single request or response line
const MaxLineBytes = 64 * 1024

// CommandVersion is answered by the listener itself
const CommandVersion = "version"

// Request is one line sent by a client
type Request struct {
	Command  string   `json:"command"`
	Offset   *float64 `json:"offset,omitempty"`   // seconds, signed
	Position *float64 `json:"position,omitempty"` // seconds
	Volume   *float64 `json:"volume,omitempty"`
	Loop     string   `json:"loop,omitempty"`
	URIs     []string `json:"uris,omitempty"`
	Insert   string   `json:"insert,omitempty"`
	Soft     bool     `json:"soft,omitempty"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Response is one line sent by the server
type Response struct {
	OK      bool          `json:"ok"`
	State   *api.Snapshot `json:"state,omitempty"`
	Version string        `json:"version,omitempty"`
	Error   *ErrorBody    `json:"error,omitempty"`
}

// RemoteError is a failure reported by the server
type RemoteError struct {
	Kind    playerrors.Kind
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Err returns the response's failure, if any
func (r Response) Err() error {
	if r.OK {
		return nil
	}
	if r.Error == nil {
		return &RemoteError{Kind: playerrors.KindProtocol, Message: "response without error body"}
	}
	return &RemoteError{Kind: playerrors.Kind(r.Error.Kind), Message: r.Error.Message}
}

// NewResponse wraps a snapshot in a success response
func NewResponse(snap api.Snapshot) Response {
	return Response{OK: true, State: &snap}
}

// ErrorResponse converts err into a failure response
func ErrorResponse(err error) Response {
	return Response{Error: &ErrorBody{
		Kind:    string(playerrors.KindOf(err)),
		Message: playerrors.Message(err),
	}}
}

// Seconds converts a duration to the wire representation
func Seconds(d time.Duration) *float64 {
	s := d.Seconds()
	return &s
}

func duration(seconds float64) (time.Duration, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || math.Abs(seconds) > math.MaxInt64/float64(time.Second) {
		return 0, fmt.Errorf("%w: time out of range", playerrors.ErrMalformedRequest)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// ToCommand validates the request and builds the player command. Enqueue
// commands carry no tracks yet; the caller resolves URIs.
func (r Request) ToCommand() (api.Command, error) {
	kind, ok := api.CommandKindByName(r.Command)
	if !ok {
		return api.Command{}, playerrors.Protocol("parse", fmt.Errorf("%w: %q", playerrors.ErrUnknownCommand, r.Command))
	}

	cmd := api.Command{Kind: kind}
	missing := func(field string) (api.Command, error) {
		return api.Command{}, playerrors.Protocol("parse", fmt.Errorf("%w: %s needs %q", playerrors.ErrMalformedRequest, r.Command, field))
	}

	switch kind {
	case api.CmdSeek:
		if r.Offset == nil {
			return missing("offset")
		}
		d, err := duration(*r.Offset)
		if err != nil {
			return api.Command{}, playerrors.Protocol("parse", err)
		}
		cmd.Offset = d

	case api.CmdSeekTo:
		if r.Position == nil {
			return missing("position")
		}
		d, err := duration(*r.Position)
		if err != nil {
			return api.Command{}, playerrors.Protocol("parse", err)
		}
		cmd.Position = d

	case api.CmdSetVolume:
		if r.Volume == nil {
			return missing("volume")
		}
		cmd.Volume = *r.Volume

	case api.CmdSetLoopMode:
		if r.Loop == "" {
			return missing("loop")
		}
		mode, err := api.ParseLoopMode(r.Loop)
		if err != nil {
			return api.Command{}, playerrors.Command("parse", fmt.Errorf("%w: %q", playerrors.ErrInvalidLoopMode, r.Loop))
		}
		cmd.Loop = mode

	case api.CmdEnqueue:
		if len(r.URIs) == 0 {
			return missing("uris")
		}
		pos, err := ParseInsert(r.Insert)
		if err != nil {
			return api.Command{}, playerrors.Protocol("parse", err)
		}
		cmd.Insert = pos

	case api.CmdPrevious:
		cmd.Soft = r.Soft
	}
	return cmd, nil
}

// ParseInsert parses an insert position; empty means end
func ParseInsert(s string) (api.InsertPosition, error) {
	switch s {
	case "", "end":
		return api.InsertEnd, nil
	case "next":
		return api.InsertNext, nil
	case "start":
		return api.InsertStart, nil
	case "replace":
		return api.InsertReplace, nil
	}
	return api.InsertEnd, fmt.Errorf("%w: unknown insert position %q", playerrors.ErrMalformedRequest, s)
}

// ReadRequest reads the next non-empty request line. I/O errors are returned
// as is; undecodable or oversized lines are protocol errors.
func ReadRequest(r *bufio.Reader) (Request, error) {
	var req Request
	line, err := readLine(r)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(line, &req); err != nil {
		return req, playerrors.Protocol("decode", fmt.Errorf("%w: %v", playerrors.ErrMalformedRequest, err))
	}
	return req, nil
}

// ReadResponse reads one response line
func ReadResponse(r *bufio.Reader) (Response, error) {
	var resp Response
	line, err := readLine(r)
	if err != nil {
		return resp, err
	}
	if err := json.Unmarshal(line, &resp); err != nil {
		return resp, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

func readLine(r *bufio.Reader) ([]byte, error) {
	for {
		line, err := r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			return nil, playerrors.Protocol("read", playerrors.ErrRequestTooLarge)
		}
		line = bytes.TrimSpace(line)
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				return line, nil
			}
			return nil, err
		}
		if len(line) > 0 {
			return line, nil
		}
	}
}

// WriteMessage writes v as a single JSON line
func WriteMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
