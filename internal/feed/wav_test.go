package feed

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/timbre/media"
)

// writeWAV writes the given interleaved s16 samples as a stereo 48k WAV file
// and returns its path.
func writeWAV(t *testing.T, samples []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")

	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, 48000, 16, 2, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 48000},
		SourceBitDepth: 16,
		Data:           samples,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func TestWAVSource_RoundTrip(t *testing.T) {
	samples := make([]int, 2*500) // 500 stereo frames
	for i := range samples {
		samples[i] = (i % 1000) - 500
	}
	path := writeWAV(t, samples)

	src, err := OpenWAV(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, media.Format{SampleRate: 48000, Channels: 2, BytesPerSample: 2}, src.Format())

	var got []int16
	p := make([]byte, src.Format().BytesFor(128))
	for {
		n, err := src.ReadPCM(p)
		for i := 0; i < n/2; i++ {
			got = append(got, int16(binary.LittleEndian.Uint16(p[i*2:])))
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	require.Len(t, got, len(samples))
	for i, want := range samples {
		require.Equal(t, int16(want), got[i], "sample %d", i)
	}
}

func TestOpenWAV_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(path, []byte("this is not a wav file"), 0o644))

	_, err := OpenWAV(path)
	assert.Error(t, err)
}

func TestOpenWAV_Missing(t *testing.T) {
	_, err := OpenWAV(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}
