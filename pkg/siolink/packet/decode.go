package packet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Handshake is the payload of the Engine.IO open frame. It is immutable
// for the lifetime of one connection attempt and discarded on disconnect.
type Handshake struct {
	Sid          string   `json:"sid"`
	PingInterval int      `json:"pingInterval"` // milliseconds
	PingTimeout  int      `json:"pingTimeout"`  // milliseconds
	Upgrades     []string `json:"upgrades"`
}

// PingIntervalDuration returns the advertised keep-alive interval.
func (h *Handshake) PingIntervalDuration() time.Duration {
	return time.Duration(h.PingInterval) * time.Millisecond
}

// PingTimeoutDuration returns the advertised keep-alive timeout.
func (h *Handshake) PingTimeoutDuration() time.Duration {
	return time.Duration(h.PingTimeout) * time.Millisecond
}

// ParseHandshake decodes the JSON payload of an Engine.IO open frame.
// Unknown fields such as maxPayload are ignored.
func ParseHandshake(payload string) (*Handshake, error) {
	var h Handshake
	if err := json.Unmarshal([]byte(payload), &h); err != nil {
		return nil, fmt.Errorf("invalid handshake payload: %w", err)
	}
	if h.Sid == "" {
		return nil, fmt.Errorf("handshake payload missing sid")
	}
	return &h, nil
}

// Decode parses one inbound text frame into a Packet.
//
// The first character selects the Engine.IO type. For message frames the
// next character selects the Socket.IO type, followed by an optional
// namespace (text from '/' up to a comma), an optional run of digits
// interpreted as the correlation id, and the remaining text as payload.
func Decode(frame string) (Packet, error) {
	pkt := Packet{Namespace: DefaultNamespace, AckID: -1}

	if frame == "" {
		return pkt, fmt.Errorf("empty frame")
	}

	pkt.EngineType = EngineType(frame[0])
	rest := frame[1:]

	switch pkt.EngineType {
	case EngineOpen, EngineClose, EnginePing, EnginePong, EngineUpgrade, EngineNoop:
		pkt.Payload = rest
		return pkt, nil
	case EngineMessage:
		// fall through to the session layer below
	default:
		return pkt, fmt.Errorf("unknown transport frame type %q", frame[0])
	}

	if rest == "" {
		return pkt, fmt.Errorf("message frame missing session type")
	}
	pkt.SocketType = SocketType(rest[0])
	switch pkt.SocketType {
	case SocketConnect, SocketDisconnect, SocketEvent, SocketAck, SocketConnectError:
	default:
		return pkt, fmt.Errorf("unknown session frame type %q", rest[0])
	}
	rest = rest[1:]

	if strings.HasPrefix(rest, "/") {
		comma := strings.IndexByte(rest, ',')
		if comma < 0 {
			// A bare namespace with no trailing payload, e.g. "40/chat".
			pkt.Namespace = rest
			return pkt, nil
		}
		pkt.Namespace = rest[:comma]
		rest = rest[comma+1:]
	}

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		id, err := strconv.ParseInt(rest[:digits], 10, 64)
		if err != nil {
			return pkt, fmt.Errorf("invalid correlation id %q: %w", rest[:digits], err)
		}
		pkt.AckID = id
		rest = rest[digits:]
	}

	pkt.Payload = rest
	return pkt, nil
}

// DecodeEventPayload splits an event payload array into the event name and
// the remaining raw argument literals.
func DecodeEventPayload(payload string) (string, []string, error) {
	elems, err := SplitArray(payload)
	if err != nil {
		return "", nil, err
	}
	if len(elems) == 0 {
		return "", nil, fmt.Errorf("event payload has no event name")
	}
	name, err := Unquote(elems[0])
	if err != nil {
		return "", nil, fmt.Errorf("event name is not a string: %w", err)
	}
	return name, elems[1:], nil
}
