package ring

import "context"

// Signal is the coalescing wait/raise primitive connecting the render engine
// back to the feeder. The feeder waits on it when Reserve fails; the engine
// raises it when occupancy drops below half capacity or a track finishes.
// Multiple raises between waits coalesce into one wakeup, which is all the
// feeder needs: it re-checks the ring after every wakeup anyway.
type Signal struct {
	ch chan struct{}
}

// NewSignal creates a Signal with no pending wakeup.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Raise wakes the waiter, if any. It never blocks and is safe to call from
// the render callback.
func (s *Signal) Raise() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until the signal is raised or ctx is done. A raise that
// happened before Wait is not lost.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
