// Package engine implements the client engine for the two-layer Socket.IO
// protocol: Engine.IO v4 transport negotiation carrying Socket.IO v5
// events and acknowledgements over a persistent text-message socket.
//
// A Client runs one connection attempt at a time through both handshake
// layers, keeps the connection alive by answering keep-alive pings,
// correlates emit-with-ack replies to their callers, and retries dropped
// connections with exponential backoff until closed. Notifications are
// queued and delivered only when the consumer calls ProcessCallbacks.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/siolink/siolink/pkg/siolink/o11y"
	"github.com/siolink/siolink/pkg/siolink/packet"
	"github.com/siolink/siolink/pkg/siolink/transport"
	"go.uber.org/zap"
)

// ConnectionState is the client's connection lifecycle state. It is
// written only by the reconnect loop; public operations read it.
type ConnectionState int32

const (
	StateClosed ConnectionState = iota
	StateConnecting
	StateOpen
)

func (s ConnectionState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	}
	return fmt.Sprintf("unknown(%d)", int32(s))
}

// SessionInfo describes one negotiated transport session. It is produced
// by the transport-layer handshake and discarded on disconnect.
type SessionInfo struct {
	Sid          string
	PingInterval time.Duration
	PingTimeout  time.Duration
	Upgrades     []string
}

// Client is a Socket.IO client engine. Build one with NewClient; a closed
// client cannot be reused.
type Client struct {
	// Endpoint configuration, immutable for the client lifetime.
	url              string
	namespace        string
	auth             string
	headers          map[string][]string
	logger           *zap.Logger
	dialer           transport.Dialer
	dialTimeout      time.Duration
	handshakeTimeout time.Duration
	ackTimeout       time.Duration
	backoff          backoffPolicy
	handler          EventHandler
	metrics          *engineMetrics
	tracing          o11y.TracingProvider

	acks      *ackRegistry
	callbacks *dispatcher

	// Lifetime state.
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started int32
	closing int32
	state   int32

	connMu  sync.RWMutex
	conn    transport.Conn
	writeMu sync.Mutex

	sessionMu sync.RWMutex
	session   *SessionInfo
}

// attemptLatches are the one-shot handshake signals for a single
// connection attempt. They are created fresh per attempt, before the
// receive path starts consuming, so a handshake frame that arrives
// immediately after transport connect cannot be missed.
type attemptLatches struct {
	open chan *packet.Handshake
	ns   chan error // nil for connect ack, *NamespaceError for rejection
}

// Connect starts the engine and blocks until the initial connection
// attempt completes both handshake layers or fails. Reconnection for
// later failures continues in the background until Close is called or the
// lifetime context is cancelled.
func (c *Client) Connect(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&c.started, 0, 1) {
		if c.isClosing() {
			return ErrClientClosed
		}
		return fmt.Errorf("client is already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})

	firstResult := make(chan error, 1)
	go c.run(firstResult)

	select {
	case err := <-firstResult:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the reconnect supervisor: it drives connection attempts, applies
// exponential backoff between failures, and stops on intentional close,
// lifetime cancellation, exhausted retries, or a clean receive-path end.
func (c *Client) run(firstResult chan<- error) {
	defer close(c.done)

	reported := false
	report := func(err error) {
		if !reported {
			reported = true
			firstResult <- err
		}
	}

	delay := c.backoff.initialDelay
	failures := 0

	for {
		if c.isClosing() || c.ctx.Err() != nil {
			break
		}

		c.setState(StateConnecting)
		readDone, err := c.connectOnce()
		if err == nil {
			report(nil)
			delay = c.backoff.initialDelay
			failures = 0

			// Block here while the connection is open.
			err = <-readDone
			c.teardown()
			c.setState(StateClosed)

			if err == nil || c.isClosing() || c.ctx.Err() != nil {
				c.enqueueClose(nil)
				break
			}
			c.logger.Warn("Connection lost", zap.Error(err))
			c.enqueueClose(err)
			c.enqueueError(fmt.Errorf("connection lost: %w", err))
		} else {
			c.teardown()
			c.setState(StateClosed)
			c.metrics.recordConnectFailure(context.Background(), "handshake")
			report(err)
			if c.isClosing() || c.ctx.Err() != nil {
				break
			}
			c.logger.Warn("Connection attempt failed", zap.Error(err))
			c.enqueueError(err)
		}

		if !c.backoff.enabled {
			break
		}
		failures++
		if c.backoff.exhausted(failures) {
			c.logger.Warn("Reconnect retries exhausted",
				zap.Int("failures", failures))
			break
		}

		c.logger.Info("Reconnecting after backoff",
			zap.Duration("delay", delay),
			zap.Int("failures", failures))
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-c.ctx.Done():
			timer.Stop()
		}
		delay = c.backoff.next(delay)
	}

	c.setState(StateClosed)
	report(ErrClientClosed)
	c.logger.Debug("Reconnect loop exited")
}

// connectOnce drives a single connection attempt through the transport
// dial, the transport-layer open handshake, and the session-layer connect.
// On success the connection is Open and the returned channel yields the
// receive path's exit error when the connection ends.
func (c *Client) connectOnce() (<-chan error, error) {
	start := time.Now()
	c.metrics.recordConnectAttempt(c.ctx)

	spanCtx := c.ctx
	var span o11y.Span
	if c.tracing != nil {
		spanCtx, span = c.tracing.StartSpan(c.ctx, "siolink.connect")
		span.SetAttributes(
			o11y.Label{Key: "url", Value: c.url},
			o11y.Label{Key: "namespace", Value: c.namespace},
		)
		defer span.End()
	}
	fail := func(phase string, err error) error {
		if span != nil {
			span.SetAttributes(o11y.Label{Key: "phase", Value: phase})
			span.SetStatus(o11y.SpanStatusError, err.Error())
		}
		return err
	}

	url := transport.EndpointURL(c.url)
	dialCtx, dialCancel := context.WithTimeout(spanCtx, c.dialTimeout)
	defer dialCancel()

	conn, err := c.dialer.Dial(dialCtx, url, c.headers)
	if err != nil {
		return nil, fail("dial", fmt.Errorf("transport connect failed: %w", err))
	}
	c.setConn(conn)
	c.logger.Debug("Transport connected", zap.String("url", url))

	// Latches must be armed before the receive path starts consuming.
	latches := &attemptLatches{
		open: make(chan *packet.Handshake, 1),
		ns:   make(chan error, 1),
	}
	readDone := make(chan error, 1)
	go c.readLoop(conn, latches, readDone)

	openTimer := time.NewTimer(c.handshakeTimeout)
	defer openTimer.Stop()

	var hs *packet.Handshake
	select {
	case hs = <-latches.open:
	case <-openTimer.C:
		return nil, fail("open", ErrHandshakeTimeout)
	case rerr := <-readDone:
		if rerr == nil {
			rerr = errPeerClosed
		}
		return nil, fail("open", fmt.Errorf("transport closed during handshake: %w", rerr))
	case <-c.ctx.Done():
		return nil, fail("open", ErrClientClosed)
	}
	c.setSession(hs)

	// The session-layer connect must go out before any other outbound
	// traffic on this connection.
	if err := c.writeFrame(c.ctx, packet.EncodeConnect(c.namespace, c.auth)); err != nil {
		return nil, fail("connect", fmt.Errorf("session connect send failed: %w", err))
	}

	nsTimer := time.NewTimer(c.handshakeTimeout)
	defer nsTimer.Stop()

	select {
	case nsErr := <-latches.ns:
		if nsErr != nil {
			return nil, fail("connect", nsErr)
		}
	case <-nsTimer.C:
		return nil, fail("connect", ErrNamespaceTimeout)
	case rerr := <-readDone:
		if rerr == nil {
			rerr = errPeerClosed
		}
		return nil, fail("connect", fmt.Errorf("transport closed during handshake: %w", rerr))
	case <-c.ctx.Done():
		return nil, fail("connect", ErrClientClosed)
	}

	c.setState(StateOpen)
	c.metrics.recordConnectDuration(c.ctx, time.Since(start))
	if span != nil {
		span.SetStatus(o11y.SpanStatusOK, "")
	}
	c.logger.Info("Connection open",
		zap.String("sid", hs.Sid),
		zap.String("namespace", c.namespace),
		zap.Duration("ping_interval", hs.PingIntervalDuration()))
	c.enqueueOpen()

	return readDone, nil
}

// readLoop is the receive path for one connection attempt. It answers
// keep-alive pings in receive order, feeds handshake latches, routes acks
// to the registry, and queues event notifications. Decode errors on
// individual frames are isolated; transport errors end the attempt.
func (c *Client) readLoop(conn transport.Conn, latches *attemptLatches, readDone chan<- error) {
	var exitErr error

loop:
	for {
		frame, err := conn.Read(c.ctx)
		if err != nil {
			if c.ctx.Err() == nil && !c.isClosing() {
				exitErr = err
			}
			break
		}
		c.metrics.recordFrameReceived(c.ctx)

		pkt, derr := packet.Decode(frame)
		if derr != nil {
			c.enqueueError(fmt.Errorf("frame decode failed: %w", derr))
			continue
		}

		switch pkt.EngineType {
		case packet.EnginePing:
			if werr := c.writeFrame(c.ctx, packet.PongFrame); werr != nil {
				if c.ctx.Err() == nil && !c.isClosing() {
					exitErr = werr
				}
				break loop
			}
		case packet.EngineOpen:
			hs, perr := packet.ParseHandshake(pkt.Payload)
			if perr != nil {
				c.enqueueError(perr)
				continue
			}
			select {
			case latches.open <- hs:
			default: // duplicate open, ignore
			}
		case packet.EngineClose:
			exitErr = errPeerClosed
			break loop
		case packet.EngineMessage:
			if closed := c.handleSessionPacket(pkt, latches); closed {
				break loop
			}
		default:
			// pong, upgrade, noop: nothing to do
		}
	}

	readDone <- exitErr
}

// handleSessionPacket routes one Socket.IO packet. It returns true when
// the peer requested a session disconnect, which ends the receive path
// cleanly.
func (c *Client) handleSessionPacket(pkt packet.Packet, latches *attemptLatches) bool {
	switch pkt.SocketType {
	case packet.SocketConnect:
		if pkt.Namespace != c.namespace {
			c.logger.Debug("Connect ack for unexpected namespace",
				zap.String("namespace", pkt.Namespace))
			return false
		}
		select {
		case latches.ns <- nil:
		default:
		}

	case packet.SocketConnectError:
		nsErr := &NamespaceError{Namespace: pkt.Namespace, Payload: pkt.Payload}
		select {
		case latches.ns <- nsErr:
		default:
			// Latch already settled; surface as a plain error.
			c.enqueueError(nsErr)
		}

	case packet.SocketEvent:
		name, args, err := packet.DecodeEventPayload(pkt.Payload)
		if err != nil {
			c.enqueueError(fmt.Errorf("event decode failed: %w", err))
			return false
		}
		c.enqueueEvent(name, args)

	case packet.SocketAck:
		if pkt.AckID < 0 {
			c.enqueueError(fmt.Errorf("ack frame missing correlation id"))
			return false
		}
		args, err := packet.SplitArray(pkt.Payload)
		if err != nil {
			c.enqueueError(fmt.Errorf("ack decode failed: %w", err))
			return false
		}
		c.acks.resolve(pkt.AckID, args)

	case packet.SocketDisconnect:
		c.logger.Info("Peer requested disconnect",
			zap.String("namespace", pkt.Namespace))
		return true
	}
	return false
}

// Emit sends an event without requesting an acknowledgement. Arguments
// that are already JSON literals are embedded verbatim; anything else is
// sent as a JSON string.
func (c *Client) Emit(ctx context.Context, event string, args ...string) error {
	if c.State() != StateOpen {
		return ErrNotConnected
	}
	return c.writeFrame(ctx, packet.EncodeEvent(c.namespace, -1, event, args))
}

// EmitWithAck sends an event with a correlation id and blocks until the
// matching reply arrives or the timeout elapses. It returns the raw JSON
// literals of the reply arguments. A timeout fails only this call; the
// connection is unaffected. timeout <= 0 uses the configured default.
func (c *Client) EmitWithAck(ctx context.Context, event string, args []string, timeout time.Duration) ([]string, error) {
	if c.State() != StateOpen {
		return nil, ErrNotConnected
	}
	if timeout <= 0 {
		timeout = c.ackTimeout
	}

	id := c.acks.nextID()
	slot, err := c.acks.register(id)
	if err != nil {
		return nil, err
	}

	if err := c.writeFrame(ctx, packet.EncodeEvent(c.namespace, id, event, args)); err != nil {
		c.acks.cancel(id)
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-slot:
		return res.args, res.err
	case <-timer.C:
		// First remover wins: if a reply raced the timer, expire is a
		// no-op and the slot already holds the reply.
		c.acks.expire(id)
		res := <-slot
		if res.err != nil {
			c.metrics.recordAckTimeout(ctx)
		}
		return res.args, res.err
	case <-ctx.Done():
		c.acks.cancel(id)
		return nil, ctx.Err()
	case <-c.ctx.Done():
		c.acks.cancel(id)
		return nil, ErrClientClosed
	}
}

// Close performs a best-effort graceful disconnect: the session-layer
// disconnect frame is sent, the transport is closed, and reconnection is
// suppressed permanently. Close blocks until the reconnect loop has
// exited. Queued notifications remain drainable afterwards.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closing, 0, 1) {
		return nil
	}
	c.logger.Info("Closing client")

	if c.State() == StateOpen {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := c.writeFrame(ctx, packet.EncodeDisconnect(c.namespace)); err != nil {
			c.logger.Debug("Disconnect frame not sent", zap.Error(err))
		}
		cancel()
	}

	c.closeConn("client disconnect")
	if c.cancel != nil {
		c.cancel()
	}
	if c.done != nil {
		<-c.done
	}
	c.setState(StateClosed)
	c.logger.Info("Client closed")
	return nil
}

// ProcessCallbacks runs every notification queued at the moment of the
// call and returns how many ran. Notifications queued while draining are
// deferred to the next call. Handlers therefore never run concurrently
// with each other and never on the protocol's own goroutine.
func (c *Client) ProcessCallbacks() int {
	n := c.callbacks.drain()
	if n > 0 {
		c.metrics.recordCallbacksQueued(context.Background(), -float64(n))
	}
	return n
}

// PendingCallbacks returns the number of queued, undelivered notifications.
func (c *Client) PendingCallbacks() int {
	return c.callbacks.size()
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	return ConnectionState(atomic.LoadInt32(&c.state))
}

// Session returns the current session info, or nil when not connected.
func (c *Client) Session() *SessionInfo {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	if c.session == nil {
		return nil
	}
	session := *c.session
	return &session
}

func (c *Client) setState(state ConnectionState) {
	atomic.StoreInt32(&c.state, int32(state))
}

func (c *Client) isClosing() bool {
	return atomic.LoadInt32(&c.closing) == 1
}

func (c *Client) setConn(conn transport.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

func (c *Client) closeConn(reason string) {
	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()
	if conn != nil {
		_ = conn.Close(reason)
	}
}

func (c *Client) setSession(hs *packet.Handshake) {
	c.sessionMu.Lock()
	c.session = &SessionInfo{
		Sid:          hs.Sid,
		PingInterval: hs.PingIntervalDuration(),
		PingTimeout:  hs.PingTimeoutDuration(),
		Upgrades:     hs.Upgrades,
	}
	c.sessionMu.Unlock()
}

func (c *Client) teardown() {
	c.closeConn("connection teardown")
	c.sessionMu.Lock()
	c.session = nil
	c.sessionMu.Unlock()
}

// writeFrame sends one frame through the serialized send path. Writes
// never overlap; callers from any goroutine share the same mutex.
func (c *Client) writeFrame(ctx context.Context, frame string) error {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	err := conn.Write(ctx, frame)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("transport write failed: %w", err)
	}
	c.metrics.recordFrameSent(ctx)
	return nil
}

func (c *Client) enqueueOpen() {
	handler := c.handler
	ctx := c.ctx
	c.callbacks.enqueue(func() { handler.OnOpen(ctx) })
	c.metrics.recordCallbacksQueued(ctx, 1)
}

func (c *Client) enqueueClose(err error) {
	handler := c.handler
	ctx := c.ctx
	c.callbacks.enqueue(func() { handler.OnClose(ctx, err) })
	c.metrics.recordCallbacksQueued(ctx, 1)
}

func (c *Client) enqueueError(err error) {
	handler := c.handler
	ctx := c.ctx
	c.logger.Debug("Queueing error notification", zap.Error(err))
	c.callbacks.enqueue(func() { handler.OnError(ctx, err) })
	c.metrics.recordCallbacksQueued(ctx, 1)
}

func (c *Client) enqueueEvent(name string, args []string) {
	handler := c.handler
	ctx := c.ctx
	c.callbacks.enqueue(func() { handler.OnEvent(ctx, name, args) })
	c.metrics.recordCallbacksQueued(ctx, 1)
}
