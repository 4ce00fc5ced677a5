package engine

import "time"

// backoffPolicy is the reconnect supervisor's retry schedule: plain
// exponential backoff with no jitter, starting at initialDelay and capped
// at maxDelay. The sequence is strictly non-decreasing.
type backoffPolicy struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	factor       float64
	maxRetries   int // -1 for unlimited
	enabled      bool
}

// next returns the delay that follows current in the backoff sequence.
func (p backoffPolicy) next(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * p.factor)
	if next > p.maxDelay {
		next = p.maxDelay
	}
	return next
}

// exhausted reports whether the retry budget is spent after the given
// number of consecutive failures.
func (p backoffPolicy) exhausted(failures int) bool {
	return p.maxRetries >= 0 && failures > p.maxRetries
}
