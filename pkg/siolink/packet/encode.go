package packet

import (
	"strconv"
	"strings"
)

// EncodeConnect builds the Socket.IO connect frame for a namespace.
// The auth payload, if any, is passed through verbatim; it must already be
// a JSON object.
//
// Default namespace: "40" or "40{auth}".
// Other namespaces: "40/chat," or "40/chat,{auth}".
func EncodeConnect(namespace, auth string) string {
	var sb strings.Builder
	sb.WriteByte(byte(EngineMessage))
	sb.WriteByte(byte(SocketConnect))
	if !isDefaultNamespace(namespace) {
		sb.WriteString(namespace)
		sb.WriteByte(',')
	}
	sb.WriteString(auth)
	return sb.String()
}

// EncodeDisconnect builds the Socket.IO disconnect frame for a namespace:
// "41" for the default namespace, "41/chat," otherwise.
func EncodeDisconnect(namespace string) string {
	var sb strings.Builder
	sb.WriteByte(byte(EngineMessage))
	sb.WriteByte(byte(SocketDisconnect))
	if !isDefaultNamespace(namespace) {
		sb.WriteString(namespace)
		sb.WriteByte(',')
	}
	return sb.String()
}

// EncodeEvent builds a Socket.IO event frame. ackID < 0 means no
// acknowledgement is requested.
//
// Each argument that already reads as a JSON object, array, number,
// boolean, or null is embedded verbatim; anything else is quoted and
// escaped as a JSON string. This lets callers pass pre-serialized JSON
// payloads or plain strings interchangeably.
func EncodeEvent(namespace string, ackID int64, event string, args []string) string {
	var sb strings.Builder
	sb.WriteByte(byte(EngineMessage))
	sb.WriteByte(byte(SocketEvent))
	if !isDefaultNamespace(namespace) {
		sb.WriteString(namespace)
		sb.WriteByte(',')
	}
	if ackID >= 0 {
		sb.WriteString(strconv.FormatInt(ackID, 10))
	}
	sb.WriteByte('[')
	writeQuoted(&sb, event)
	for _, arg := range args {
		sb.WriteByte(',')
		if IsJSONLiteral(arg) {
			sb.WriteString(arg)
		} else {
			writeQuoted(&sb, arg)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// IsJSONLiteral reports whether s can be embedded in a JSON array literal
// as-is: an object, array, number, boolean, or null. Strings deliberately
// do not qualify; they are always re-quoted so that plain text containing
// a leading quote cannot smuggle malformed JSON into a frame.
func IsJSONLiteral(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return false
	}
	switch t[0] {
	case '{':
		return balancedLiteral(t, '{', '}')
	case '[':
		return balancedLiteral(t, '[', ']')
	}
	if t == "true" || t == "false" || t == "null" {
		return true
	}
	return isNumberLiteral(t)
}

// balancedLiteral checks that s opens with open, ends with close, and that
// the delimiters balance outside of quoted strings. It is deliberately
// permissive: the payload is forwarded, not validated.
func balancedLiteral(s string, open, close byte) bool {
	if len(s) < 2 || s[len(s)-1] != close {
		return false
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0 && !inString
}

func isNumberLiteral(s string) bool {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return false
	}
	// ParseFloat accepts forms JSON does not ("1e", "+1", "Inf", hex).
	// Restrict to JSON number syntax characters.
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= '0' && ch <= '9':
		case ch == '-' || ch == '+' || ch == '.' || ch == 'e' || ch == 'E':
		default:
			return false
		}
	}
	return s[0] == '-' || (s[0] >= '0' && s[0] <= '9')
}

// writeQuoted appends s as a JSON string literal. It escapes only what the
// format requires, keeping frames byte-stable across encode/decode.
func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if ch < 0x20 {
				const hex = "0123456789abcdef"
				sb.WriteString(`\u00`)
				sb.WriteByte(hex[ch>>4])
				sb.WriteByte(hex[ch&0xf])
			} else {
				sb.WriteByte(ch)
			}
		}
	}
	sb.WriteByte('"')
}

func isDefaultNamespace(namespace string) bool {
	return namespace == "" || namespace == DefaultNamespace
}
