package packet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeConnect(t *testing.T) {
	t.Run("default namespace, no auth", func(t *testing.T) {
		assert.Equal(t, "40", EncodeConnect("/", ""))
		assert.Equal(t, "40", EncodeConnect("", ""))
	})

	t.Run("default namespace with auth", func(t *testing.T) {
		assert.Equal(t, `40{"token":"t"}`, EncodeConnect("/", `{"token":"t"}`))
	})

	t.Run("custom namespace, no auth", func(t *testing.T) {
		assert.Equal(t, "40/chat,", EncodeConnect("/chat", ""))
	})

	t.Run("custom namespace with auth", func(t *testing.T) {
		assert.Equal(t, `40/chat,{"token":"t"}`, EncodeConnect("/chat", `{"token":"t"}`))
	})
}

func TestEncodeDisconnect(t *testing.T) {
	assert.Equal(t, "41", EncodeDisconnect("/"))
	assert.Equal(t, "41/chat,", EncodeDisconnect("/chat"))
}

func TestEncodeEvent(t *testing.T) {
	t.Run("no arguments", func(t *testing.T) {
		assert.Equal(t, `42["ping"]`, EncodeEvent("/", -1, "ping", nil))
	})

	t.Run("with correlation id", func(t *testing.T) {
		assert.Equal(t, `427["ping"]`, EncodeEvent("/", 7, "ping", nil))
	})

	t.Run("namespace and correlation id", func(t *testing.T) {
		assert.Equal(t, `42/chat,12["msg","hi"]`,
			EncodeEvent("/chat", 12, "msg", []string{"hi"}))
	})

	t.Run("JSON literal arguments pass through verbatim", func(t *testing.T) {
		frame := EncodeEvent("/", -1, "update", []string{
			`{"x":1,"y":[1,2]}`,
			`[1,2,3]`,
			`42`,
			`-3.5e2`,
			`true`,
			`null`,
		})
		assert.Equal(t, `42["update",{"x":1,"y":[1,2]},[1,2,3],42,-3.5e2,true,null]`, frame)
	})

	t.Run("plain strings are quoted and escaped", func(t *testing.T) {
		frame := EncodeEvent("/", -1, "say", []string{`he said "hi"`, "line\nbreak", `back\slash`})
		assert.Equal(t, `42["say","he said \"hi\"","line\nbreak","back\\slash"]`, frame)
	})

	t.Run("event name is always quoted", func(t *testing.T) {
		assert.Equal(t, `42["true"]`, EncodeEvent("/", -1, "true", nil))
	})
}

func TestIsJSONLiteral(t *testing.T) {
	literals := []string{
		`{}`, `{"a":1}`, `[]`, `[1,2]`, `{"nested":{"deep":[{}]}}`,
		`0`, `42`, `-1`, `3.14`, `-3.5e2`, `1E6`,
		`true`, `false`, `null`,
	}
	for _, s := range literals {
		assert.True(t, IsJSONLiteral(s), "expected literal: %s", s)
	}

	notLiterals := []string{
		``, `hello`, `True`, `NULL`, `1.2.3`, `+1`, `0x10`, `Inf`, `NaN`,
		`"quoted"`, `{unbalanced`, `[1,2`, `{"a":1}trailing`,
	}
	for _, s := range notLiterals {
		assert.False(t, IsJSONLiteral(s), "expected non-literal: %s", s)
	}
}

func TestDecode(t *testing.T) {
	t.Run("transport frames", func(t *testing.T) {
		pkt, err := Decode("2")
		require.NoError(t, err)
		assert.Equal(t, EnginePing, pkt.EngineType)

		pkt, err = Decode("3")
		require.NoError(t, err)
		assert.Equal(t, EnginePong, pkt.EngineType)

		pkt, err = Decode(`0{"sid":"abc"}`)
		require.NoError(t, err)
		assert.Equal(t, EngineOpen, pkt.EngineType)
		assert.Equal(t, `{"sid":"abc"}`, pkt.Payload)

		pkt, err = Decode("1")
		require.NoError(t, err)
		assert.Equal(t, EngineClose, pkt.EngineType)
	})

	t.Run("session connect", func(t *testing.T) {
		pkt, err := Decode(`40{"sid":"xyz"}`)
		require.NoError(t, err)
		assert.Equal(t, EngineMessage, pkt.EngineType)
		assert.Equal(t, SocketConnect, pkt.SocketType)
		assert.Equal(t, "/", pkt.Namespace)

		pkt, err = Decode(`40/chat,{"sid":"xyz"}`)
		require.NoError(t, err)
		assert.Equal(t, "/chat", pkt.Namespace)
		assert.Equal(t, `{"sid":"xyz"}`, pkt.Payload)
	})

	t.Run("event frame", func(t *testing.T) {
		pkt, err := Decode(`42["msg","hi"]`)
		require.NoError(t, err)
		assert.Equal(t, SocketEvent, pkt.SocketType)
		assert.Equal(t, "/", pkt.Namespace)
		assert.Equal(t, int64(-1), pkt.AckID)
		assert.Equal(t, `["msg","hi"]`, pkt.Payload)
	})

	t.Run("event frame with namespace and id", func(t *testing.T) {
		pkt, err := Decode(`42/chat,12["msg"]`)
		require.NoError(t, err)
		assert.Equal(t, "/chat", pkt.Namespace)
		assert.Equal(t, int64(12), pkt.AckID)
		assert.Equal(t, `["msg"]`, pkt.Payload)
	})

	t.Run("ack frame", func(t *testing.T) {
		pkt, err := Decode(`437["ok"]`)
		require.NoError(t, err)
		assert.Equal(t, SocketAck, pkt.SocketType)
		assert.Equal(t, int64(7), pkt.AckID)
		assert.Equal(t, `["ok"]`, pkt.Payload)
	})

	t.Run("connect error frame", func(t *testing.T) {
		pkt, err := Decode(`44{"message":"denied"}`)
		require.NoError(t, err)
		assert.Equal(t, SocketConnectError, pkt.SocketType)
		assert.Equal(t, `{"message":"denied"}`, pkt.Payload)
	})

	t.Run("disconnect frame", func(t *testing.T) {
		pkt, err := Decode("41/chat,")
		require.NoError(t, err)
		assert.Equal(t, SocketDisconnect, pkt.SocketType)
		assert.Equal(t, "/chat", pkt.Namespace)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := Decode("")
		assert.Error(t, err)

		_, err = Decode("4")
		assert.Error(t, err)

		_, err = Decode("9")
		assert.Error(t, err)

		_, err = Decode("49")
		assert.Error(t, err)
	})
}

func TestParseHandshake(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		hs, err := ParseHandshake(`{"sid":"abc123","pingInterval":25000,"pingTimeout":20000,"upgrades":["websocket"],"maxPayload":1000000}`)
		require.NoError(t, err)
		assert.Equal(t, "abc123", hs.Sid)
		assert.Equal(t, 25*time.Second, hs.PingIntervalDuration())
		assert.Equal(t, 20*time.Second, hs.PingTimeoutDuration())
		assert.Equal(t, []string{"websocket"}, hs.Upgrades)
	})

	t.Run("missing sid", func(t *testing.T) {
		_, err := ParseHandshake(`{"pingInterval":25000}`)
		assert.Error(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseHandshake(`{`)
		assert.Error(t, err)
	})
}

func TestSplitArray(t *testing.T) {
	t.Run("nested delimiters do not split elements", func(t *testing.T) {
		elems, err := SplitArray(`["a", {"x":1,"y":[1,2]}, "b,c"]`)
		require.NoError(t, err)
		require.Len(t, elems, 3)
		assert.Equal(t, `"a"`, elems[0])
		assert.Equal(t, `{"x":1,"y":[1,2]}`, elems[1])
		assert.Equal(t, `"b,c"`, elems[2])
	})

	t.Run("empty array", func(t *testing.T) {
		elems, err := SplitArray(`[]`)
		require.NoError(t, err)
		assert.Empty(t, elems)
	})

	t.Run("escaped quotes inside strings", func(t *testing.T) {
		elems, err := SplitArray(`["a\"b", "c"]`)
		require.NoError(t, err)
		require.Len(t, elems, 2)
		assert.Equal(t, `"a\"b"`, elems[0])
		assert.Equal(t, `"c"`, elems[1])
	})

	t.Run("brackets inside strings are ignored", func(t *testing.T) {
		elems, err := SplitArray(`["[not,nested]", 1]`)
		require.NoError(t, err)
		require.Len(t, elems, 2)
		assert.Equal(t, `"[not,nested]"`, elems[0])
		assert.Equal(t, `1`, elems[1])
	})

	t.Run("not an array", func(t *testing.T) {
		_, err := SplitArray(`{"a":1}`)
		assert.Error(t, err)

		_, err = SplitArray(``)
		assert.Error(t, err)
	})

	t.Run("unterminated array", func(t *testing.T) {
		_, err := SplitArray(`["a", "b"`)
		assert.Error(t, err)
	})

	t.Run("trailing garbage", func(t *testing.T) {
		_, err := SplitArray(`["a"]extra`)
		assert.Error(t, err)
	})
}

func TestUnquote(t *testing.T) {
	s, err := Unquote(`"hello"`)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	s, err = Unquote(`"he said \"hi\""`)
	require.NoError(t, err)
	assert.Equal(t, `he said "hi"`, s)

	s, err = Unquote(`42`)
	require.NoError(t, err)
	assert.Equal(t, "42", s)

	_, err = Unquote(`"unterminated`)
	assert.Error(t, err)
}

func TestEventRoundTrip(t *testing.T) {
	args := []string{`{"x":1}`, `plain text`, `[1,2]`, `true`, `3.5`}
	frame := EncodeEvent("/room", 99, "state.update", args)

	pkt, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, EngineMessage, pkt.EngineType)
	assert.Equal(t, SocketEvent, pkt.SocketType)
	assert.Equal(t, "/room", pkt.Namespace)
	assert.Equal(t, int64(99), pkt.AckID)

	name, decoded, err := DecodeEventPayload(pkt.Payload)
	require.NoError(t, err)
	assert.Equal(t, "state.update", name)
	require.Len(t, decoded, len(args))

	// JSON literal arguments are preserved structurally.
	assert.Equal(t, `{"x":1}`, decoded[0])
	assert.Equal(t, `[1,2]`, decoded[2])
	assert.Equal(t, `true`, decoded[3])
	assert.Equal(t, `3.5`, decoded[4])

	// Plain strings come back as equivalent quoted strings.
	text, err := Unquote(decoded[1])
	require.NoError(t, err)
	assert.Equal(t, "plain text", text)
}
