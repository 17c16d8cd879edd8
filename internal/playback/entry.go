// Package playback tracks per-track frame accounting, the shared player
// status word, and the track queue that owns entry lifetime.
package playback

import "sync"

// Entry is one queued playable track. It carries the track's frame
// accounting under its own lock so the feed side (queued) and the render
// side (played) can update unrelated tracks without contending.
type Entry struct {
	ID string

	mu     sync.Mutex
	queued int64 // frames committed into the ring so far
	played int64 // frames consumed by the render engine
	total  int64 // total frame count, -1 until the track length is known
}

// NewEntry creates an entry with no frames and an unknown length.
func NewEntry(id string) *Entry {
	return &Entry{ID: id, total: -1}
}

// AddQueued records n more frames produced for this track.
func (e *Entry) AddQueued(n int64) {
	if n <= 0 {
		return
	}
	e.mu.Lock()
	e.queued += n
	e.mu.Unlock()
}

// SetTotalFrames records the track's final frame count, typically at
// end-of-stream. Completion becomes decidable from this point on.
func (e *Entry) SetTotalFrames(n int64) {
	e.mu.Lock()
	e.total = n
	e.mu.Unlock()
}

// Progress returns the current accounting snapshot: frames queued, frames
// played, and total frames (-1 while unknown).
func (e *Entry) Progress() (queued, played, total int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queued, e.played, e.total
}

// AttributePlayed credits up to n rendered frames to this track, clamped so
// played never exceeds the known total. It returns how many frames were
// actually attributed and whether the track just reached completion; the
// caller attributes any remainder to the successor track.
func (e *Entry) AttributePlayed(n int64) (attributed int64, finished bool) {
	if n < 0 {
		n = 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.total >= 0 {
		if rem := e.total - e.played; n > rem {
			n = rem
		}
	}
	e.played += n
	return n, e.total >= 0 && e.played == e.total
}

// Finished reports whether every frame of a known-length track has played.
func (e *Entry) Finished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total >= 0 && e.played == e.total
}

// RemainingToPlay returns total-played and true once the length is known.
func (e *Entry) RemainingToPlay() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.total < 0 {
		return 0, false
	}
	return e.total - e.played, true
}

// RemainingToQueue returns total-queued and true once the length is known.
func (e *Entry) RemainingToQueue() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.total < 0 {
		return 0, false
	}
	return e.total - e.queued, true
}
