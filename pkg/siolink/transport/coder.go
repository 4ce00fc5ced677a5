package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
)

// CoderDialer dials websocket connections using github.com/coder/websocket.
// It is the engine's default transport.
type CoderDialer struct {
	// ReadLimit overrides the maximum inbound message size in bytes.
	// Zero keeps the library default.
	ReadLimit int64
}

// Dial implements Dialer.
func (d *CoderDialer) Dial(ctx context.Context, url string, headers map[string][]string) (Conn, error) {
	opts := &websocket.DialOptions{}
	if len(headers) > 0 {
		opts.HTTPHeader = make(http.Header, len(headers))
		for key, values := range headers {
			opts.HTTPHeader[key] = values
		}
	}

	conn, _, err := websocket.Dial(ctx, url, opts)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	if d.ReadLimit > 0 {
		conn.SetReadLimit(d.ReadLimit)
	}

	return &coderConn{conn: conn}, nil
}

type coderConn struct {
	conn *websocket.Conn
}

func (c *coderConn) Read(ctx context.Context) (string, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *coderConn) Write(ctx context.Context, frame string) error {
	return c.conn.Write(ctx, websocket.MessageText, []byte(frame))
}

func (c *coderConn) Close(reason string) error {
	return c.conn.Close(websocket.StatusNormalClosure, reason)
}
