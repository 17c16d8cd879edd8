package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/timbre/media"
)

// writeWAV writes one second's worth of silence as a 16-bit WAV file with
// the given topology and returns its path.
func writeWAV(t *testing.T, dir string, rate, channels int) string {
	t.Helper()
	path := filepath.Join(dir, "track.wav")

	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		SourceBitDepth: 16,
		Data:           make([]int, rate*channels),
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

// writeRaw writes a short run of zero PCM and returns its path.
func writeRaw(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "track.pcm")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))
	return path
}

func TestBuildTracks_DefaultsToTones(t *testing.T) {
	f := media.Format{SampleRate: 48000, Channels: 2, BytesPerSample: 2}

	tracks, format, err := buildTracks(nil, f)

	require.NoError(t, err)
	assert.Equal(t, f, format)
	assert.Len(t, tracks, 2)
}

func TestBuildTracks_MixedWAVAndRawAgreeingFormats(t *testing.T) {
	dir := t.TempDir()
	wavPath := writeWAV(t, dir, 48000, 2)
	rawPath := writeRaw(t, dir)
	rawFormat := media.Format{SampleRate: 48000, Channels: 2, BytesPerSample: 2}

	tracks, format, err := buildTracks([]string{wavPath, rawPath}, rawFormat)

	require.NoError(t, err)
	assert.Equal(t, rawFormat, format)
	assert.Len(t, tracks, 2)
}

func TestBuildTracks_RawFormatMismatchFailsAtSetup(t *testing.T) {
	// A raw track whose environment format disagrees with the WAV-resolved
	// format must be rejected here, not mid-playback by the feeder.
	dir := t.TempDir()
	wavPath := writeWAV(t, dir, 48000, 2)
	rawPath := writeRaw(t, dir)
	rawFormat := media.Format{SampleRate: 44100, Channels: 2, BytesPerSample: 2}

	_, _, err := buildTracks([]string{wavPath, rawPath}, rawFormat)

	assert.Error(t, err)
}

func TestBuildTracks_WAVFormatMismatchFailsAtSetup(t *testing.T) {
	dir := t.TempDir()
	monoDir := filepath.Join(dir, "mono")
	require.NoError(t, os.Mkdir(monoDir, 0o755))
	stereo := writeWAV(t, dir, 48000, 2)
	mono := writeWAV(t, monoDir, 48000, 1)

	_, _, err := buildTracks([]string{stereo, mono}, media.Format{SampleRate: 48000, Channels: 2, BytesPerSample: 2})

	assert.Error(t, err)
}
