package ipc

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"
)

// Client is a connection to a running server. It is not safe for
// concurrent use.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to the control socket at path
func Dial(ctx context.Context, path string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", path, err)
	}
	return &Client{conn: conn, reader: bufio.NewReaderSize(conn, MaxLineBytes)}, nil
}

// Send writes one request and waits for its response. A response carrying
// an error is returned together with a *RemoteError.
func (c *Client) Send(ctx context.Context, req Request) (Response, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
	} else {
		_ = c.conn.SetDeadline(time.Time{})
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := WriteMessage(c.conn, req); err != nil {
		return Response{}, fmt.Errorf("send %s: %w", req.Command, err)
	}
	resp, err := ReadResponse(c.reader)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return Response{}, fmt.Errorf("receive %s: %w", req.Command, err)
	}
	return resp, resp.Err()
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}
