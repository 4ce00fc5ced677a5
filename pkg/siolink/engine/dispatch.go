package engine

import "sync"

// dispatcher is a first-in-first-out queue of notification actions.
// The receive path and connection transition points append; the consumer
// drains by calling ProcessCallbacks on its own schedule. This keeps
// handler execution off the protocol goroutine entirely.
type dispatcher struct {
	mu    sync.Mutex
	queue []func()
}

func (d *dispatcher) enqueue(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
}

// drain runs every action queued at the moment of the call and returns.
// Actions appended while draining are left for the next drain.
func (d *dispatcher) drain() int {
	d.mu.Lock()
	pending := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

func (d *dispatcher) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
