package engine

import "context"

// EventHandler receives client notifications. Handlers are never invoked
// from the receive path: notifications are queued and run only when the
// consumer calls ProcessCallbacks, so handler code never races with itself
// and always executes on the consumer's schedule.
type EventHandler interface {
	// OnOpen is called after both handshake layers complete.
	OnOpen(ctx context.Context)

	// OnClose is called when the connection closes. err is nil for an
	// intentional or clean close.
	OnClose(ctx context.Context, err error)

	// OnError is called for connection-attempt failures and isolated
	// decode errors. The connection may still be retried afterwards.
	OnError(ctx context.Context, err error)

	// OnEvent is called for each inbound event. args are the raw JSON
	// literals of the event arguments, in order.
	OnEvent(ctx context.Context, event string, args []string)
}

// BaseHandler is a no-op EventHandler for embedding, so handlers only
// implement the notifications they care about.
type BaseHandler struct{}

func (BaseHandler) OnOpen(ctx context.Context) {}

func (BaseHandler) OnClose(ctx context.Context, err error) {}

func (BaseHandler) OnError(ctx context.Context, err error) {}

func (BaseHandler) OnEvent(ctx context.Context, event string, args []string) {}
