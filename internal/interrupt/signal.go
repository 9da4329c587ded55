// Package interrupt provides the one-shot cancellation signal threaded
// through every blocking operation in the storage protocol core: reads,
// writes, backfill endpoints, and rebalancing all accept a *Signal and are
// required to return or fail within a bounded wall-clock window after it is
// pulsed.
package interrupt

import "sync"

// Signal is a monotonic, pulse-once cancellation token. It is safe to share
// across goroutines and to pulse and check concurrently.
type Signal struct {
	once sync.Once
	ch   chan struct{}
}

// New returns a Signal that has not yet been pulsed.
func New() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Pulse fires the signal. Subsequent calls are no-ops: a Signal can only be
// pulsed once, matching the "monotonically pulsed at most once" contract.
func (s *Signal) Pulse() {
	s.once.Do(func() { close(s.ch) })
}

// Pulsed reports whether Pulse has been called.
func (s *Signal) Pulsed() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel that's closed once Pulse has been called, for use
// in select statements alongside I/O.
func (s *Signal) Done() <-chan struct{} {
	return s.ch
}

// Never is a Signal that is never pulsed, for call sites that have no
// cancellation source of their own.
func Never() *Signal {
	return New()
}
