// Package transport defines the bidirectional text-message socket
// abstraction the engine runs over, plus websocket implementations of it.
//
// The engine only requires the small Dialer/Conn contract below; hosting
// environments with their own socket stack can supply one.
package transport

import (
	"context"
	"strings"
)

// Dialer opens a transport connection to a URL.
type Dialer interface {
	// Dial establishes the connection, applying the given headers to the
	// opening request. The context bounds connection establishment only.
	Dial(ctx context.Context, url string, headers map[string][]string) (Conn, error)
}

// Conn is one established bidirectional text-message connection.
//
// Write must be safe for sequential, non-overlapping invocation; the
// engine serializes its writes and never interleaves partial frames.
// Read is called from a single receive goroutine.
type Conn interface {
	// Read blocks until the next text message arrives, the context is
	// cancelled, or the connection fails.
	Read(ctx context.Context) (string, error)

	// Write sends one complete text message.
	Write(ctx context.Context, frame string) error

	// Close closes the connection, best effort.
	Close(reason string) error
}

// EndpointURL derives the connection URL from a configured base address:
// the trailing slash is trimmed and the protocol-version-4 websocket
// selector is appended.
func EndpointURL(base string) string {
	return strings.TrimRight(base, "/") + "/socket.io/?EIO=4&transport=websocket"
}
