// Package ring implements the fixed-capacity PCM ring buffer shared by the
// feed pipeline (producer) and the render engine (consumer), plus the refill
// signal the producer blocks on when the ring is full.
//
// The buffer is single-producer/single-consumer: the producer owns the write
// position, the consumer owns the read position, and the occupancy count is
// the only shared word. All bookkeeping is atomic so the render side never
// takes a lock on its hot path. Span payloads are only valid until the owning
// side calls Commit/Advance; callers must finish copying first.
package ring

import (
	"fmt"
	"sync/atomic"
)

// Buffer is a fixed-capacity circular store of interleaved PCM frames.
//
// Producer-side calls (Reserve, Commit) and consumer-side calls (Consume,
// Advance) may run concurrently with each other, but each side must be a
// single goroutine.
type Buffer struct {
	data       []byte
	capacity   int64 // frames
	frameBytes int

	used     atomic.Int64 // occupied frames, producer adds, consumer subtracts
	writePos int64        // next frame slot to write, producer-owned
	readPos  int64        // oldest unread frame slot, consumer-owned
}

// New creates a buffer holding capacityFrames frames of frameBytes bytes each.
func New(capacityFrames, frameBytes int) (*Buffer, error) {
	if capacityFrames <= 0 || frameBytes <= 0 {
		return nil, fmt.Errorf("ring: invalid geometry %d frames x %d bytes", capacityFrames, frameBytes)
	}
	return &Buffer{
		data:       make([]byte, capacityFrames*frameBytes),
		capacity:   int64(capacityFrames),
		frameBytes: frameBytes,
	}, nil
}

// Capacity returns the total frame capacity.
func (b *Buffer) Capacity() int64 { return b.capacity }

// FrameBytes returns the size of one frame in bytes.
func (b *Buffer) FrameBytes() int { return b.frameBytes }

// FramesUsed returns the current occupancy in frames.
func (b *Buffer) FramesUsed() int64 { return b.used.Load() }

// FramesFree returns the unoccupied frame count.
func (b *Buffer) FramesFree() int64 { return b.capacity - b.used.Load() }

// Reserve grants the producer writable space for n frames, split into at most
// two spans when the region wraps past the physical end of the store. It
// returns ok=false when fewer than n frames are free; the producer should
// then wait on the refill Signal and retry. The spans stay valid until the
// matching Commit.
func (b *Buffer) Reserve(n int64) (first, second []byte, ok bool) {
	if n < 0 || n > b.capacity {
		return nil, nil, false
	}
	if n == 0 {
		return nil, nil, true
	}
	if b.capacity-b.used.Load() < n {
		return nil, nil, false
	}
	first, second = b.spans(b.writePos, n)
	return first, second, true
}

// Commit publishes n frames previously granted by Reserve. It must be called
// only after the bytes are physically written into the reserved spans.
func (b *Buffer) Commit(n int64) {
	if n <= 0 {
		return
	}
	b.writePos = (b.writePos + n) % b.capacity
	b.used.Add(n)
}

// Consume returns readable spans covering min(max, FramesUsed()) frames
// without copying or retiring them. Both spans are computed before any copy
// so the caller knows the full shape of the read up front. The spans stay
// valid until the matching Advance.
func (b *Buffer) Consume(max int64) (first, second []byte) {
	if max <= 0 {
		return nil, nil
	}
	n := b.used.Load()
	if n > max {
		n = max
	}
	if n == 0 {
		return nil, nil
	}
	return b.spans(b.readPos, n)
}

// Advance retires n frames after the consumer has copied them out.
func (b *Buffer) Advance(n int64) {
	if n <= 0 {
		return
	}
	b.readPos = (b.readPos + n) % b.capacity
	b.used.Add(-n)
}

// Reset empties the buffer. Both sides must be quiescent; it is meant for
// seek/stop handling where the feeder and render callback are parked.
func (b *Buffer) Reset() {
	b.readPos = 0
	b.writePos = 0
	b.used.Store(0)
}

// spans slices the backing store into one or two contiguous byte ranges
// covering n frames starting at frame slot start.
func (b *Buffer) spans(start, n int64) (first, second []byte) {
	contiguous := b.capacity - start
	if contiguous > n {
		contiguous = n
	}
	first = b.data[start*int64(b.frameBytes) : (start+contiguous)*int64(b.frameBytes)]
	if wrapped := n - contiguous; wrapped > 0 {
		second = b.data[:wrapped*int64(b.frameBytes)]
	}
	return first, second
}
