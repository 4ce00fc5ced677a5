// Package packet implements the text frame codec for the two protocol
// layers: Engine.IO v4 framing (handshake, keep-alive, message envelopes)
// and the Socket.IO v5 packets carried inside message envelopes
// (namespace connect/disconnect, events, acks).
//
// All functions in this package are pure transformations over frame text.
package packet

import "fmt"

// EngineType is the Engine.IO frame type, the first character of every
// text frame on the wire.
type EngineType byte

const (
	EngineOpen    EngineType = '0' // handshake payload from the server
	EngineClose   EngineType = '1'
	EnginePing    EngineType = '2'
	EnginePong    EngineType = '3'
	EngineMessage EngineType = '4' // wraps a Socket.IO packet
	EngineUpgrade EngineType = '5'
	EngineNoop    EngineType = '6'
)

// SocketType is the Socket.IO packet type, the character immediately
// following an EngineMessage marker.
type SocketType byte

const (
	SocketConnect      SocketType = '0'
	SocketDisconnect   SocketType = '1'
	SocketEvent        SocketType = '2'
	SocketAck          SocketType = '3'
	SocketConnectError SocketType = '4'
)

// DefaultNamespace is the implicit namespace when a packet carries none.
const DefaultNamespace = "/"

// Frames that are sent verbatim.
const (
	PingFrame = "2"
	PongFrame = "3"
)

// Packet is one decoded inbound frame. It is transient: decoded, routed,
// and discarded.
type Packet struct {
	EngineType EngineType
	SocketType SocketType // only meaningful when EngineType == EngineMessage
	Namespace  string     // defaults to "/"
	AckID      int64      // correlation id, -1 when absent
	Payload    string     // remaining text, typically a JSON array literal
}

func (t EngineType) String() string {
	switch t {
	case EngineOpen:
		return "open"
	case EngineClose:
		return "close"
	case EnginePing:
		return "ping"
	case EnginePong:
		return "pong"
	case EngineMessage:
		return "message"
	case EngineUpgrade:
		return "upgrade"
	case EngineNoop:
		return "noop"
	}
	return fmt.Sprintf("unknown(%c)", byte(t))
}

func (t SocketType) String() string {
	switch t {
	case SocketConnect:
		return "connect"
	case SocketDisconnect:
		return "disconnect"
	case SocketEvent:
		return "event"
	case SocketAck:
		return "ack"
	case SocketConnectError:
		return "connect_error"
	}
	return fmt.Sprintf("unknown(%c)", byte(t))
}
