package engine

import (
	"errors"
	"fmt"
)

// Error definitions for the client engine. Connection-attempt failures are
// reported through error notifications and retried by the reconnect loop;
// per-call failures are returned directly to the caller and never trigger
// reconnection.
var (
	// ErrNotConnected is returned when an emit or close is attempted
	// while the connection is not open.
	ErrNotConnected = errors.New("client is not connected")

	// ErrClientClosed is returned once the client has been closed or its
	// lifetime context cancelled. A closed client cannot be reused.
	ErrClientClosed = errors.New("client is closed")

	// ErrAckTimeout is returned by EmitWithAck when no reply arrives
	// within the configured timeout.
	ErrAckTimeout = errors.New("acknowledgement timed out")

	// ErrHandshakeTimeout indicates the transport-layer open frame did
	// not arrive within the handshake timeout.
	ErrHandshakeTimeout = errors.New("transport handshake timed out")

	// ErrNamespaceTimeout indicates the session-layer connect was not
	// acknowledged within the handshake timeout.
	ErrNamespaceTimeout = errors.New("namespace connect timed out")
)

// errPeerClosed marks a receive-path exit caused by the peer's transport
// close frame, which is a failure from the supervisor's point of view.
var errPeerClosed = errors.New("transport closed by peer")

// NamespaceError is a session-layer connect rejection. The payload is the
// server's error object, passed through verbatim.
type NamespaceError struct {
	Namespace string
	Payload   string
}

func (e *NamespaceError) Error() string {
	return fmt.Sprintf("namespace %s connect refused: %s", e.Namespace, e.Payload)
}
