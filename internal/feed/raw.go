package feed

import (
	"errors"
	"io"

	"github.com/zsiec/timbre/media"
)

// RawSource reads headerless interleaved PCM from an io.Reader. The caller
// declares the format; the stream is trusted to match it. A trailing partial
// frame is discarded.
type RawSource struct {
	r      io.Reader
	format media.Format
}

// NewRawSource wraps r as a PCM source of the given format.
func NewRawSource(r io.Reader, format media.Format) *RawSource {
	return &RawSource{r: r, format: format}
}

// Format returns the declared PCM format.
func (s *RawSource) Format() media.Format { return s.format }

// ReadPCM reads whole frames into p, returning io.EOF at end of stream.
func (s *RawSource) ReadPCM(p []byte) (int, error) {
	frameBytes := s.format.BytesPerFrame()
	aligned := len(p) - len(p)%frameBytes
	if aligned == 0 {
		return 0, nil
	}

	n, err := io.ReadFull(s.r, p[:aligned])
	if errors.Is(err, io.ErrUnexpectedEOF) {
		n -= n % frameBytes
		if n > 0 {
			return n, nil
		}
		return 0, io.EOF
	}
	return n, err
}
