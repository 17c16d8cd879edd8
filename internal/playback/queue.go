package playback

import (
	"log/slog"
	"sync"
)

// Queue owns the ordered list of tracks and the lifecycle of their entries.
// The feeder registers each track as it starts producing PCM for it; the
// render engine's finished notification advances the playing pointer through
// the same order. The engine itself only ever reads the State pointers.
type Queue struct {
	log   *slog.Logger
	state *State

	mu       sync.Mutex
	entries  []*Entry // feed order: entries[0] is the current playing track
	finished int64
	closed   bool
	done     chan struct{}
	doneOnce sync.Once
}

// NewQueue creates a queue bound to the given state. If log is nil,
// slog.Default() is used.
func NewQueue(state *State, log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	return &Queue{
		log:   log.With("component", "queue"),
		state: state,
		done:  make(chan struct{}),
	}
}

// Add registers a new track whose PCM is about to be produced. The entry
// becomes the current reading entry, and the current playing entry too if
// playback is idle. The playing check-and-set happens under the queue lock
// so it serializes against AdvancePlaying: a track added while the last
// entry is retiring is still promoted.
func (q *Queue) Add(id string) *Entry {
	e := NewEntry(id)

	q.mu.Lock()
	q.entries = append(q.entries, e)
	q.state.SetReading(e)
	if q.state.Playing() == nil {
		q.state.SetPlaying(e)
	}
	q.mu.Unlock()

	q.log.Info("track queued", "track", id)
	return e
}

// FinishReading clears the reading pointer once the feeder has produced the
// track's last frame.
func (q *Queue) FinishReading(e *Entry) {
	if q.state.Reading() == e {
		q.state.SetReading(nil)
	}
}

// AdvancePlaying is the render engine's finished notification. It retires
// the finished entry and promotes its successor to current playing, so the
// engine can attribute leftover frames of the same render period to it.
// When the queue is closed and the last entry retires, Done is signalled.
func (q *Queue) AdvancePlaying(finished *Entry) {
	q.mu.Lock()
	var next *Entry
	for i, e := range q.entries {
		if e == finished {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			if i < len(q.entries) {
				next = q.entries[i]
			}
			q.finished++
			break
		}
	}
	// Publish while still holding q.mu: a concurrent Add must observe
	// either the retired pointer gone or its own entry already promoted,
	// never a stale pointer it declines to replace.
	q.state.SetPlaying(next)
	drained := q.closed && len(q.entries) == 0
	q.mu.Unlock()

	_, played, _ := finished.Progress()
	q.log.Info("track finished", "track", finished.ID, "frames", played)
	if drained {
		q.signalDone()
	}
}

// Close marks that no further tracks will be added. Done is signalled once
// every already-queued track has finished (immediately, if none remain).
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	drained := len(q.entries) == 0
	q.mu.Unlock()

	if drained {
		q.signalDone()
	}
}

// Done is closed when the queue has been closed and every track finished.
func (q *Queue) Done() <-chan struct{} { return q.done }

// List returns the live entries in feed order, for the stats endpoint.
func (q *Queue) List() []*Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// FinishedCount returns how many tracks have completed playback.
func (q *Queue) FinishedCount() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.finished
}

func (q *Queue) signalDone() {
	q.doneOnce.Do(func() { close(q.done) })
}
