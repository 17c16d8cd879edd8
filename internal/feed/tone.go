package feed

import (
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/zsiec/timbre/media"
)

// ToneSource synthesizes a fixed-length sine tone as 16-bit PCM. It backs
// tests and the player's no-arguments smoke mode, where no media files are
// needed to exercise the full feed-ring-render path.
type ToneSource struct {
	format    media.Format
	freq      float64
	amplitude float64
	remaining int64 // frames
	phase     float64
}

// NewToneSource creates a tone of the given frequency and duration. The
// format must be 16-bit PCM.
func NewToneSource(format media.Format, freq float64, d time.Duration) *ToneSource {
	return &ToneSource{
		format:    format,
		freq:      freq,
		amplitude: 0.25,
		remaining: int64(d.Seconds() * float64(format.SampleRate)),
	}
}

// Format returns the tone's PCM format.
func (s *ToneSource) Format() media.Format { return s.format }

// ReadPCM fills p with the next chunk of the tone, io.EOF once the
// configured duration has been produced.
func (s *ToneSource) ReadPCM(p []byte) (int, error) {
	if s.remaining <= 0 {
		return 0, io.EOF
	}
	frames := int64(s.format.FramesIn(len(p)))
	if frames > s.remaining {
		frames = s.remaining
	}
	if frames == 0 {
		return 0, nil
	}

	step := 2 * math.Pi * s.freq / float64(s.format.SampleRate)
	for i := int64(0); i < frames; i++ {
		sample := int16(s.amplitude * math.Sin(s.phase) * math.MaxInt16)
		s.phase += step
		for ch := 0; ch < s.format.Channels; ch++ {
			off := (i*int64(s.format.Channels) + int64(ch)) * 2
			binary.LittleEndian.PutUint16(p[off:], uint16(sample))
		}
	}
	s.remaining -= frames
	return s.format.BytesFor(int(frames)), nil
}
