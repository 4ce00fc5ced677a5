package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ackResult is delivered to the emitter waiting on a correlation id:
// either the raw reply argument literals or a timeout failure.
type ackResult struct {
	args []string
	err  error
}

// ackRegistry maps correlation ids to pending reply slots. Ids are
// monotonic for the lifetime of the client and never reused, so a late
// reply after a timeout can never be misattributed to a newer emit.
//
// Mutations come from three contexts: the public API registering, the
// receive path resolving, and per-call timers expiring. Whichever removes
// the slot from the map first owns its completion; the slot channel is
// buffered so the winner never blocks.
type ackRegistry struct {
	logger *zap.Logger

	lastID int64

	mu      sync.Mutex
	pending map[int64]chan ackResult
}

func newAckRegistry(logger *zap.Logger) *ackRegistry {
	return &ackRegistry{
		logger:  logger,
		pending: make(map[int64]chan ackResult),
	}
}

// nextID returns a fresh, strictly increasing correlation id.
func (r *ackRegistry) nextID() int64 {
	return atomic.AddInt64(&r.lastID, 1)
}

// register inserts a new pending slot for id. Duplicate registration is a
// programming error given monotonic id generation.
func (r *ackRegistry) register(id int64) (chan ackResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pending[id]; exists {
		return nil, fmt.Errorf("correlation id %d is already pending", id)
	}
	slot := make(chan ackResult, 1)
	r.pending[id] = slot
	return slot, nil
}

// resolve completes the matching slot with the reply arguments. A missing
// id is a logged no-op: the timeout already claimed it.
func (r *ackRegistry) resolve(id int64, args []string) {
	slot, ok := r.take(id)
	if !ok {
		r.logger.Debug("Reply for unknown correlation id, dropping",
			zap.Int64("id", id))
		return
	}
	slot <- ackResult{args: args}
}

// expire completes the slot with a timeout failure, only if it is still
// pending. If a reply won the race the slot is already gone and the
// emitter will read the reply instead.
func (r *ackRegistry) expire(id int64) {
	slot, ok := r.take(id)
	if !ok {
		return
	}
	slot <- ackResult{err: ErrAckTimeout}
}

// cancel silently removes a slot whose emit failed or was abandoned.
func (r *ackRegistry) cancel(id int64) {
	r.take(id)
}

func (r *ackRegistry) take(id int64) (chan ackResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	return slot, ok
}

func (r *ackRegistry) pendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
