package playback

import (
	"strings"
	"sync"
)

// Status is the player status bitmask. Bits are not mutually exclusive:
// a running player is typically Running|Playing, Running|Rebuffering, or
// Running|WaitingForData.
type Status uint32

const (
	StatusRunning Status = 1 << iota
	StatusPlaying
	StatusPaused
	StatusWaitingForData
	StatusWaitingAfterSeek
	StatusRebuffering
	StatusStopped
)

// Has reports whether any of the given bits are set.
func (s Status) Has(flags Status) bool { return s&flags != 0 }

func (s Status) String() string {
	if s == 0 {
		return "none"
	}
	names := []struct {
		bit  Status
		name string
	}{
		{StatusRunning, "running"},
		{StatusPlaying, "playing"},
		{StatusPaused, "paused"},
		{StatusWaitingForData, "waitingForData"},
		{StatusWaitingAfterSeek, "waitingAfterSeek"},
		{StatusRebuffering, "rebuffering"},
		{StatusStopped, "stopped"},
	}
	var parts []string
	for _, n := range names {
		if s.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// State is the shared playback snapshot consulted by both the feed and
// render sides: status word, mute flag, and the current playing/reading
// entry pointers. Its lock is distinct from the ring bookkeeping so a buffer
// copy never delays a state transition.
type State struct {
	mu      sync.Mutex
	status  Status
	muted   bool
	playing *Entry
	reading *Entry
}

// NewState creates a running state waiting for its first data.
func NewState() *State {
	return &State{status: StatusRunning | StatusWaitingForData}
}

// Snapshot returns the current entries, status, and mute flag in one
// critical section. Callers release the lock before touching the ring.
func (st *State) Snapshot() (playing, reading *Entry, status Status, muted bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.playing, st.reading, st.status, st.muted
}

// Status returns the current status word.
func (st *State) Status() Status {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.status
}

// TransitionIf applies set/clear to the status word only if pred holds over
// the current value, and reports whether it did. The predicate runs under
// the state lock, making the whole operation an atomic compare-and-swap:
// a render-side transition can never clobber a user-initiated change that
// raced ahead of it.
func (st *State) TransitionIf(pred func(Status) bool, set, clear Status) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if pred != nil && !pred(st.status) {
		return false
	}
	st.status = (st.status &^ clear) | set
	return true
}

// SetMuted sets the mute flag.
func (st *State) SetMuted(muted bool) {
	st.mu.Lock()
	st.muted = muted
	st.mu.Unlock()
}

// Playing returns the current playing entry, or nil.
func (st *State) Playing() *Entry {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.playing
}

// SetPlaying replaces the current playing entry.
func (st *State) SetPlaying(e *Entry) {
	st.mu.Lock()
	st.playing = e
	st.mu.Unlock()
}

// Reading returns the current reading entry, or nil.
func (st *State) Reading() *Entry {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.reading
}

// SetReading replaces the current reading entry.
func (st *State) SetReading(e *Entry) {
	st.mu.Lock()
	st.reading = e
	st.mu.Unlock()
}
