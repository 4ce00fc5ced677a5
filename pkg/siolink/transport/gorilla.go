package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// GorillaDialer dials websocket connections using
// github.com/gorilla/websocket, for hosts already standardized on it.
type GorillaDialer struct {
	// HandshakeTimeout bounds the websocket upgrade. Zero keeps the
	// library default.
	HandshakeTimeout time.Duration
}

// Dial implements Dialer.
func (d *GorillaDialer) Dial(ctx context.Context, url string, headers map[string][]string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, url, http.Header(headers))
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	return &gorillaConn{conn: conn}, nil
}

type gorillaConn struct {
	conn *websocket.Conn
}

// Read honors a context deadline via the connection read deadline. A
// cancellation without a deadline does not interrupt a blocked read; the
// engine unblocks such reads by closing the connection.
func (c *gorillaConn) Read(ctx context.Context) (string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return "", err
		}
	} else if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return "", err
	}

	msgType, data, err := c.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	if msgType != websocket.TextMessage {
		return "", fmt.Errorf("unexpected message type %d", msgType)
	}
	return string(data), nil
}

func (c *gorillaConn) Write(ctx context.Context, frame string) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
	} else if err := c.conn.SetWriteDeadline(time.Time{}); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

func (c *gorillaConn) Close(reason string) error {
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage, message, deadline)
	return c.conn.Close()
}
