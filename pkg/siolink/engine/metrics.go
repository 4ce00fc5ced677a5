package engine

import (
	"context"
	"time"

	"github.com/siolink/siolink/pkg/siolink/o11y"
)

// engineMetrics holds the client's instruments. A nil *engineMetrics is
// valid and records nothing, so the hot paths stay branch-cheap when no
// provider is configured.
type engineMetrics struct {
	connectAttempts o11y.Counter
	connectFailures o11y.Counter
	connectDuration o11y.Histogram
	framesReceived  o11y.Counter
	framesSent      o11y.Counter
	ackTimeouts     o11y.Counter
	callbacksQueued o11y.Gauge
}

func newEngineMetrics(provider o11y.MetricsProvider) *engineMetrics {
	if provider == nil {
		return nil
	}
	return &engineMetrics{
		connectAttempts: provider.Counter("siolink.connect.attempts"),
		connectFailures: provider.Counter("siolink.connect.failures"),
		connectDuration: provider.Histogram("siolink.connect.duration"),
		framesReceived:  provider.Counter("siolink.frames.received"),
		framesSent:      provider.Counter("siolink.frames.sent"),
		ackTimeouts:     provider.Counter("siolink.acks.timeout"),
		callbacksQueued: provider.Gauge("siolink.callbacks.queued"),
	}
}

func (m *engineMetrics) recordConnectAttempt(ctx context.Context) {
	if m != nil {
		m.connectAttempts.Add(ctx, 1)
	}
}

func (m *engineMetrics) recordConnectFailure(ctx context.Context, phase string) {
	if m != nil {
		m.connectFailures.Add(ctx, 1, o11y.Label{Key: "phase", Value: phase})
	}
}

func (m *engineMetrics) recordConnectDuration(ctx context.Context, elapsed time.Duration) {
	if m != nil {
		m.connectDuration.Record(ctx, elapsed.Seconds())
	}
}

func (m *engineMetrics) recordFrameReceived(ctx context.Context) {
	if m != nil {
		m.framesReceived.Add(ctx, 1)
	}
}

func (m *engineMetrics) recordFrameSent(ctx context.Context) {
	if m != nil {
		m.framesSent.Add(ctx, 1)
	}
}

func (m *engineMetrics) recordAckTimeout(ctx context.Context) {
	if m != nil {
		m.ackTimeouts.Add(ctx, 1)
	}
}

func (m *engineMetrics) recordCallbacksQueued(ctx context.Context, delta float64) {
	if m != nil {
		m.callbacksQueued.Add(ctx, delta)
	}
}
