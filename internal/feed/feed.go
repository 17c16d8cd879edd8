package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/zsiec/timbre/internal/playback"
	"github.com/zsiec/timbre/internal/ring"
	"github.com/zsiec/timbre/media"
)

// Feeder pushes track PCM into the ring buffer, one track after another in
// queue order. When the ring cannot take a full chunk it parks on the refill
// signal until the render engine makes room; it never polls.
type Feeder struct {
	log         *slog.Logger
	queue       *playback.Queue
	buf         *ring.Buffer
	refill      *ring.Signal
	format      media.Format
	chunkFrames int
	tracks      []Track
}

// DefaultChunkFrames is how many frames the feeder moves per read.
const DefaultChunkFrames = 2048

// NewFeeder creates a feeder for the given tracks. The chunk size is clamped
// to the ring capacity so a reserve can always eventually succeed. If log is
// nil, slog.Default() is used.
func NewFeeder(queue *playback.Queue, buf *ring.Buffer, refill *ring.Signal, format media.Format, tracks []Track, log *slog.Logger) *Feeder {
	if log == nil {
		log = slog.Default()
	}
	chunk := DefaultChunkFrames
	if int64(chunk) > buf.Capacity() {
		chunk = int(buf.Capacity())
	}
	return &Feeder{
		log:         log.With("component", "feeder"),
		queue:       queue,
		buf:         buf,
		refill:      refill,
		format:      format,
		chunkFrames: chunk,
		tracks:      tracks,
	}
}

// Run feeds every track in order, then closes the queue so the player can
// drain and exit. It returns nil on context cancellation.
func (f *Feeder) Run(ctx context.Context) error {
	defer f.queue.Close()

	for _, t := range f.tracks {
		if err := f.feedTrack(ctx, t); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

// feedTrack streams one source into the ring until EOF, maintaining the
// track's queued-frame accounting and finalizing its length at end of
// stream.
func (f *Feeder) feedTrack(ctx context.Context, t Track) error {
	if t.Source.Format() != f.format {
		return fmt.Errorf("feed: track %s: %v vs %v: %w", t.ID, t.Source.Format(), f.format, ErrFormatMismatch)
	}

	entry := f.queue.Add(t.ID)
	scratch := make([]byte, f.format.BytesFor(f.chunkFrames))

	for {
		n, err := t.Source.ReadPCM(scratch)
		if frames := int64(f.format.FramesIn(n)); frames > 0 {
			if werr := f.write(ctx, scratch[:f.format.BytesFor(int(frames))], frames); werr != nil {
				return werr
			}
			entry.AddQueued(frames)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				queued, _, _ := entry.Progress()
				entry.SetTotalFrames(queued)
				f.queue.FinishReading(entry)
				f.log.Info("track fed", "track", t.ID, "frames", queued,
					"duration", f.format.Duration(queued))
				return nil
			}
			return fmt.Errorf("feed: track %s: %w", t.ID, err)
		}
	}
}

// write commits frames into the ring, waiting for the render side to free
// space whenever the reservation fails.
func (f *Feeder) write(ctx context.Context, data []byte, frames int64) error {
	for {
		first, second, ok := f.buf.Reserve(frames)
		if ok {
			copy(first, data)
			copy(second, data[len(first):])
			f.buf.Commit(frames)
			return nil
		}
		if err := f.refill.Wait(ctx); err != nil {
			return err
		}
	}
}
