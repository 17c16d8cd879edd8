package engine

import "sync/atomic"

// Stats accumulates render telemetry in a concurrency-safe manner using
// atomic counters: the render callback increments them lock-free and the
// stats endpoint reads point-in-time Snapshots.
type Stats struct {
	renders        atomic.Int64
	framesRendered atomic.Int64
	silenceFrames  atomic.Int64
	underruns      atomic.Int64
	tracksFinished atomic.Int64
	signalsRaised  atomic.Int64
}

// Snapshot is the JSON-serializable stats payload served by the debug API.
type Snapshot struct {
	Renders        int64 `json:"renders"`
	FramesRendered int64 `json:"framesRendered"`
	SilenceFrames  int64 `json:"silenceFrames"`
	Underruns      int64 `json:"underruns"`
	TracksFinished int64 `json:"tracksFinished"`
	SignalsRaised  int64 `json:"signalsRaised"`
}

// Snapshot returns a point-in-time copy of all counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Renders:        s.renders.Load(),
		FramesRendered: s.framesRendered.Load(),
		SilenceFrames:  s.silenceFrames.Load(),
		Underruns:      s.underruns.Load(),
		TracksFinished: s.tracksFinished.Load(),
		SignalsRaised:  s.signalsRaised.Load(),
	}
}
