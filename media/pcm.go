// Package media defines the PCM format types that flow through the Timbre
// playback engine, from the feed pipeline through the render callback.
package media

import "time"

// Default buffer sizing used by the player binary. The ring holds a few
// seconds of audio to absorb feed jitter; the render period matches the
// typical soundcard callback size.
const (
	DefaultRingSeconds  = 4
	DefaultPeriodFrames = 512
)

// Format describes interleaved PCM audio: one frame is one sample per
// channel at BytesPerSample bytes each. It is the unit of accounting for
// every layer of the engine.
type Format struct {
	SampleRate     int
	Channels       int
	BytesPerSample int
}

// BytesPerFrame returns the size of one interleaved frame in bytes.
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BytesPerSample
}

// BytesFor returns the byte size of n frames.
func (f Format) BytesFor(frames int) int {
	return frames * f.BytesPerFrame()
}

// FramesIn returns how many whole frames fit in n bytes.
func (f Format) FramesIn(bytes int) int {
	return bytes / f.BytesPerFrame()
}

// Duration returns the play time of n frames at this format's sample rate.
func (f Format) Duration(frames int64) time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	return time.Duration(frames * int64(time.Second) / int64(f.SampleRate))
}

// Valid reports whether the format describes playable PCM.
func (f Format) Valid() bool {
	return f.SampleRate > 0 && f.Channels > 0 && f.BytesPerSample > 0
}
