package engine

import (
	"fmt"
	"time"

	"github.com/siolink/siolink/pkg/siolink/o11y"
	"github.com/siolink/siolink/pkg/siolink/transport"
	"go.uber.org/zap"
)

// ClientBuilder provides a fluent interface for building clients.
// Endpoint configuration is immutable once the client is built.
type ClientBuilder struct {
	url              string
	namespace        string
	auth             string
	headers          map[string][]string
	logger           *zap.Logger
	dialer           transport.Dialer
	dialTimeout      time.Duration
	handshakeTimeout time.Duration
	ackTimeout       time.Duration
	initialDelay     time.Duration
	maxDelay         time.Duration
	backoffFactor    float64
	maxRetries       int
	reconnect        bool
	handler          EventHandler
	metricsProvider  o11y.MetricsProvider
	tracingProvider  o11y.TracingProvider
}

// NewClient creates a new client builder with defaults: default namespace,
// coder/websocket transport, 30s dial timeout, 10s handshake and ack
// timeouts, and unlimited reconnection backing off from 1s to 30s with
// factor 2.
func NewClient() *ClientBuilder {
	return &ClientBuilder{
		namespace:        "/",
		logger:           zap.NewNop(),
		dialer:           &transport.CoderDialer{},
		dialTimeout:      30 * time.Second,
		handshakeTimeout: 10 * time.Second,
		ackTimeout:       10 * time.Second,
		initialDelay:     1 * time.Second,
		maxDelay:         30 * time.Second,
		backoffFactor:    2.0,
		maxRetries:       -1, // unlimited
		reconnect:        true,
	}
}

// WithURL sets the base address of the server, e.g. "ws://host:8080/".
// The socket.io path and protocol selector are appended automatically.
func (b *ClientBuilder) WithURL(url string) *ClientBuilder {
	b.url = url
	return b
}

// WithNamespace sets the namespace to connect to. Default is "/".
func (b *ClientBuilder) WithNamespace(namespace string) *ClientBuilder {
	if namespace != "" {
		b.namespace = namespace
	}
	return b
}

// WithAuth sets an opaque authentication payload that is passed verbatim
// into the session-layer connect frame. It must be a JSON object, e.g.
// `{"token":"t"}`.
func (b *ClientBuilder) WithAuth(authJSON string) *ClientBuilder {
	b.auth = authJSON
	return b
}

// WithHeaders merges custom HTTP headers into the transport's opening
// request.
func (b *ClientBuilder) WithHeaders(headers map[string][]string) *ClientBuilder {
	if b.headers == nil {
		b.headers = make(map[string][]string)
	}
	for key, values := range headers {
		b.headers[key] = values
	}
	return b
}

// WithHeader sets a single HTTP header for the transport's opening request.
func (b *ClientBuilder) WithHeader(key, value string) *ClientBuilder {
	if b.headers == nil {
		b.headers = make(map[string][]string)
	}
	b.headers[key] = []string{value}
	return b
}

// WithLogger sets the logger for the client. Nil is ignored.
func (b *ClientBuilder) WithLogger(logger *zap.Logger) *ClientBuilder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithDialer sets the transport implementation used to open connections.
func (b *ClientBuilder) WithDialer(dialer transport.Dialer) *ClientBuilder {
	if dialer != nil {
		b.dialer = dialer
	}
	return b
}

// WithDialTimeout bounds transport connection establishment.
func (b *ClientBuilder) WithDialTimeout(timeout time.Duration) *ClientBuilder {
	if timeout > 0 {
		b.dialTimeout = timeout
	}
	return b
}

// WithHandshakeTimeout bounds each handshake stage (transport open,
// namespace connect) independently.
func (b *ClientBuilder) WithHandshakeTimeout(timeout time.Duration) *ClientBuilder {
	if timeout > 0 {
		b.handshakeTimeout = timeout
	}
	return b
}

// WithAckTimeout sets the default timeout for EmitWithAck when the caller
// does not supply one.
func (b *ClientBuilder) WithAckTimeout(timeout time.Duration) *ClientBuilder {
	if timeout > 0 {
		b.ackTimeout = timeout
	}
	return b
}

// WithInitialDelay sets the first reconnection backoff delay.
func (b *ClientBuilder) WithInitialDelay(delay time.Duration) *ClientBuilder {
	if delay > 0 {
		b.initialDelay = delay
	}
	return b
}

// WithMaxDelay caps the reconnection backoff delay.
func (b *ClientBuilder) WithMaxDelay(delay time.Duration) *ClientBuilder {
	if delay > 0 {
		b.maxDelay = delay
	}
	return b
}

// WithBackoffFactor sets the backoff multiplier. Values below 1.1 are
// ignored.
func (b *ClientBuilder) WithBackoffFactor(factor float64) *ClientBuilder {
	if factor >= 1.1 {
		b.backoffFactor = factor
	}
	return b
}

// WithMaxRetries limits consecutive failed reconnection attempts.
// -1 means unlimited.
func (b *ClientBuilder) WithMaxRetries(retries int) *ClientBuilder {
	if retries >= -1 {
		b.maxRetries = retries
	}
	return b
}

// WithReconnect enables or disables automatic reconnection after failures.
func (b *ClientBuilder) WithReconnect(enabled bool) *ClientBuilder {
	b.reconnect = enabled
	return b
}

// WithHandler sets the handler that receives open/close/error/event
// notifications via ProcessCallbacks.
func (b *ClientBuilder) WithHandler(handler EventHandler) *ClientBuilder {
	if handler != nil {
		b.handler = handler
	}
	return b
}

// WithMetrics sets the metrics provider for the client.
func (b *ClientBuilder) WithMetrics(provider o11y.MetricsProvider) *ClientBuilder {
	b.metricsProvider = provider
	return b
}

// WithTracing sets the tracing provider for the client.
func (b *ClientBuilder) WithTracing(provider o11y.TracingProvider) *ClientBuilder {
	b.tracingProvider = provider
	return b
}

// Build creates a new client with the configured options.
func (b *ClientBuilder) Build() (*Client, error) {
	if err := b.IsValid(); err != nil {
		return nil, err
	}

	handler := b.handler
	if handler == nil {
		handler = BaseHandler{}
	}

	client := &Client{
		url:              b.url,
		namespace:        b.namespace,
		auth:             b.auth,
		headers:          b.headers,
		logger:           b.logger,
		dialer:           b.dialer,
		dialTimeout:      b.dialTimeout,
		handshakeTimeout: b.handshakeTimeout,
		ackTimeout:       b.ackTimeout,
		backoff: backoffPolicy{
			initialDelay: b.initialDelay,
			maxDelay:     b.maxDelay,
			factor:       b.backoffFactor,
			maxRetries:   b.maxRetries,
			enabled:      b.reconnect,
		},
		handler:   handler,
		metrics:   newEngineMetrics(b.metricsProvider),
		tracing:   b.tracingProvider,
		acks:      newAckRegistry(b.logger),
		callbacks: &dispatcher{},
	}
	return client, nil
}

// IsValid checks that all required configuration is present.
func (b *ClientBuilder) IsValid() error {
	if b.url == "" {
		return fmt.Errorf("URL is required")
	}
	if b.namespace != "/" && b.namespace[0] != '/' {
		return fmt.Errorf("namespace must begin with '/'")
	}
	if b.maxDelay < b.initialDelay {
		return fmt.Errorf("max delay %v is below initial delay %v", b.maxDelay, b.initialDelay)
	}
	return nil
}
