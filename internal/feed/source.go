// Package feed implements the produce side of the playback engine: pluggable
// PCM sources and the feeder goroutine that pushes their frames into the
// ring buffer, blocking on the refill signal when the ring is full.
package feed

import (
	"errors"

	"github.com/zsiec/timbre/media"
)

// Sentinel errors for feed setup. These enable callers to programmatically
// distinguish failure modes using errors.Is.
var (
	ErrFormatMismatch = errors.New("feed: source format does not match the engine format")
	ErrUnsupported    = errors.New("feed: unsupported PCM encoding")
)

// Source supplies already-decoded interleaved PCM. Implementations return
// whole frames only: the byte count from ReadPCM is always a multiple of the
// format's frame size. io.EOF marks the end of the track, after which the
// track's total length is known.
type Source interface {
	Format() media.Format
	ReadPCM(p []byte) (int, error)
}

// Track pairs a queue identity with the source producing its PCM.
type Track struct {
	ID     string
	Source Source
}
