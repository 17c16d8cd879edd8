// Package engine implements the real-time render protocol: once per device
// period it copies PCM frames out of the ring buffer into the output region,
// pads underruns with silence, attributes played frames to tracks across
// track boundaries, and signals the feeder when the ring has room again.
//
// Render never blocks and never allocates; its failure mode is silence, not
// an error. Locks are taken only for the brief state and entry bookkeeping
// windows, never across the memory copy or the finished notification.
package engine

import (
	"log/slog"

	"github.com/zsiec/timbre/internal/playback"
	"github.com/zsiec/timbre/internal/ring"
)

// Result reports the outcome of one render period.
type Result int

const (
	// ResultOK means the output region was filled, possibly with silence.
	ResultOK Result = iota
	// ResultNoData means no track is currently playing; the output region
	// holds silence and the caller may treat the period as idle.
	ResultNoData
)

// Config holds the buffering thresholds the engine gates playback on, all in
// frames. Each threshold is clamped per-track so a short track whose length
// is already known is never required to buffer more frames than it will ever
// have.
type Config struct {
	// StartFrames must be buffered before leaving WaitingForData.
	StartFrames int64
	// RebufferFrames must be buffered before leaving Rebuffering.
	RebufferFrames int64
	// SeekFrames must be buffered before leaving WaitingAfterSeek.
	SeekFrames int64
}

// DefaultSeekFrames is the post-seek restart threshold.
const DefaultSeekFrames = 1024

// Engine drains the ring buffer on behalf of the audio device. The device
// invokes Render serially, once per fixed period; the feeder runs
// concurrently on the other side of the ring.
type Engine struct {
	log        *slog.Logger
	cfg        Config
	state      *playback.State
	buf        *ring.Buffer
	refill     *ring.Signal
	onFinished func(*playback.Entry)
	stats      Stats
}

// New creates an Engine. onFinished is invoked with no engine, ring, or
// state lock held whenever a track's last frame has played; it is expected
// to promote the successor track to current playing before returning. If
// log is nil, slog.Default() is used.
func New(cfg Config, state *playback.State, buf *ring.Buffer, refill *ring.Signal, onFinished func(*playback.Entry), log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if cfg.SeekFrames == 0 {
		cfg.SeekFrames = DefaultSeekFrames
	}
	return &Engine{
		log:        log.With("component", "engine"),
		cfg:        cfg,
		state:      state,
		buf:        buf,
		refill:     refill,
		onFinished: onFinished,
	}
}

// Stats returns a point-in-time copy of the render counters.
func (e *Engine) Stats() Snapshot { return e.stats.Snapshot() }

// Render fills dst with the next frames frames of audio. dst is always
// fully written on return: buffered PCM first, zero bytes for any shortfall,
// so the caller always hands the device a complete period regardless of
// buffer state. A zero frame request returns immediately and changes
// nothing.
func (e *Engine) Render(dst []byte, frames int) Result {
	if frames <= 0 {
		return ResultOK
	}
	if max := len(dst) / e.buf.FrameBytes(); frames > max {
		frames = max
	}
	e.stats.renders.Add(1)

	playing, _, status, muted := e.state.Snapshot()

	if playing == nil {
		zero(dst[:frames*e.buf.FrameBytes()])
		return ResultNoData
	}

	used := e.buf.FramesUsed()
	copied := int64(0)

	if !e.waitForBuffer(status, playing, used) &&
		used > 0 && status.Has(playback.StatusRunning) && !status.Has(playback.StatusPaused) {
		n := int64(frames)
		if n > used {
			n = used
		}
		first, second := e.buf.Consume(n)
		if muted {
			// Silence on mute: the frames are consumed and attributed, just
			// never copied out.
			zero(dst[:len(first)+len(second)])
		} else {
			copy(dst, first)
			copy(dst[len(first):], second)
		}
		e.buf.Advance(n)
		copied = n
		e.stats.framesRendered.Add(n)

		e.state.TransitionIf(canPlay, playback.StatusPlaying,
			playback.StatusWaitingForData|playback.StatusWaitingAfterSeek|playback.StatusRebuffering)
	}

	if copied < int64(frames) {
		zero(dst[copied*int64(e.buf.FrameBytes()) : frames*e.buf.FrameBytes()])
		e.stats.silenceFrames.Add(int64(frames) - copied)

		// Underrun: recoverable, handled as silence plus a rebuffering
		// transition so the threshold gate applies next period.
		if !e.waitForBuffer(status, playing, used) && canPlay(status) {
			e.stats.underruns.Add(1)
			e.state.TransitionIf(canPlay, playback.StatusRebuffering, playback.StatusPlaying)
		}
	}

	finishedAny := false
	if copied > 0 {
		finishedAny = e.attribute(playing, copied)
	}

	if finishedAny || e.buf.FramesUsed() < e.buf.Capacity()/2 {
		e.refill.Raise()
		e.stats.signalsRaised.Add(1)
	}
	return ResultOK
}

// canPlay is the predicate for render-side status transitions: they apply
// only while the player is running and not paused, so a racing user pause
// is never clobbered.
func canPlay(s playback.Status) bool {
	return s.Has(playback.StatusRunning) && !s.Has(playback.StatusPaused)
}

// waitForBuffer reports whether the engine should keep emitting silence
// while the feeder refills the ring. Only the waiting statuses gate; the
// threshold for each is clamped to what the current track can still supply.
func (e *Engine) waitForBuffer(status playback.Status, playing *playback.Entry, used int64) bool {
	var threshold int64
	switch {
	case status.Has(playback.StatusWaitingForData):
		threshold = e.cfg.StartFrames
		if rem, ok := playing.RemainingToPlay(); ok && rem < threshold {
			threshold = rem
		}
	case status.Has(playback.StatusRebuffering):
		threshold = e.cfg.RebufferFrames
		if rem, ok := playing.RemainingToQueue(); ok && rem < threshold {
			threshold = rem
		}
	case status.Has(playback.StatusWaitingAfterSeek):
		threshold = e.cfg.SeekFrames
		if rem, ok := playing.RemainingToPlay(); ok && rem < threshold {
			threshold = rem
		}
	default:
		return false
	}
	return used < threshold
}

// attribute credits copied frames to the snapshotted current track, then to
// its successors: one render period can span the end of one track and the
// start of the next, and the ring itself is track-agnostic. Each finished
// track is reported via onFinished before any leftover frames are offered to
// the successor, because the successor only becomes current as a side effect
// of that notification. Leftover frames with no registered successor are
// dropped.
func (e *Engine) attribute(current *playback.Entry, frames int64) (finishedAny bool) {
	for frames > 0 && current != nil {
		attributed, finished := current.AttributePlayed(frames)
		frames -= attributed
		if !finished {
			// Either everything was attributed or the track cannot absorb
			// more; nothing further to hand to a successor.
			break
		}
		finishedAny = true
		e.stats.tracksFinished.Add(1)
		e.log.Debug("track complete", "track", current.ID)
		if e.onFinished != nil {
			e.onFinished(current)
		}
		next := e.state.Playing()
		if next == current {
			// The collaborator did not advance; stop rather than loop.
			break
		}
		current = next
	}
	return finishedAny
}

func zero(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
