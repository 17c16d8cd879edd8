package feed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/zsiec/timbre/media"
)

// WAVSource reads 16-bit PCM out of a WAV container. This is container
// parsing only; compressed formats are rejected at open time.
type WAVSource struct {
	f      *os.File
	dec    *wav.Decoder
	format media.Format
	buf    *audio.IntBuffer
}

// OpenWAV opens path and validates that it holds 16-bit PCM.
func OpenWAV(path string) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feed: open %s: %w", path, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("feed: %s: not a valid WAV file", path)
	}
	if dec.BitDepth != 16 {
		f.Close()
		return nil, fmt.Errorf("feed: %s: %d-bit samples: %w", path, dec.BitDepth, ErrUnsupported)
	}

	format := media.Format{
		SampleRate:     int(dec.SampleRate),
		Channels:       int(dec.NumChans),
		BytesPerSample: 2,
	}
	return &WAVSource{
		f:      f,
		dec:    dec,
		format: format,
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

// Format returns the file's PCM format.
func (s *WAVSource) Format() media.Format { return s.format }

// ReadPCM decodes up to len(p) bytes of interleaved little-endian s16
// samples, trimmed to whole frames. It returns io.EOF once the data chunk
// is exhausted.
func (s *WAVSource) ReadPCM(p []byte) (int, error) {
	want := len(p) / 2
	// Round down to whole frames.
	want -= want % s.format.Channels
	if want == 0 {
		return 0, nil
	}
	if cap(s.buf.Data) < want {
		s.buf.Data = make([]int, want)
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("feed: decode %s: %w", s.f.Name(), err)
	}
	if n == 0 {
		return 0, io.EOF
	}
	n -= n % s.format.Channels
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(int16(s.buf.Data[i])))
	}
	return n * 2, nil
}

// Close releases the underlying file.
func (s *WAVSource) Close() error { return s.f.Close() }
