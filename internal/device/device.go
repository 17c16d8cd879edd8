// Package device drives a malgo (miniaudio) playback device that invokes the
// render engine once per hardware period. It is the external scheduler of
// the engine: malgo's data callback runs on a real-time audio thread and the
// engine's contract (never block, silence on underrun) exists to serve it.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/zsiec/timbre/internal/engine"
	"github.com/zsiec/timbre/media"
)

// Config selects the output format and period size of the playback device.
type Config struct {
	Format media.Format
	// PeriodFrames is the requested callback size in frames.
	PeriodFrames int
}

// Device owns the malgo context and playback device.
type Device struct {
	log     *slog.Logger
	cfg     Config
	engine  *engine.Engine
	ctx     *malgo.AllocatedContext
	dev     *malgo.Device
	running atomic.Bool
}

// New creates a Device that renders through eng. If log is nil,
// slog.Default() is used.
func New(cfg Config, eng *engine.Engine, log *slog.Logger) *Device {
	if log == nil {
		log = slog.Default()
	}
	if cfg.PeriodFrames == 0 {
		cfg.PeriodFrames = media.DefaultPeriodFrames
	}
	return &Device{
		log:    log.With("component", "device"),
		cfg:    cfg,
		engine: eng,
	}
}

// Start initializes the audio backend and begins the periodic render
// callbacks. Malformed output topologies fail here, at setup time; the
// per-period hot path has no error surface. The device stops when ctx is
// cancelled.
func (d *Device) Start(ctx context.Context) error {
	if d.running.Load() {
		return fmt.Errorf("device: already running")
	}
	if !d.cfg.Format.Valid() || d.cfg.Format.BytesPerSample != 2 {
		return fmt.Errorf("device: unsupported output format %+v (16-bit PCM only)", d.cfg.Format)
	}

	mctx, err := malgo.InitContext([]malgo.Backend{backendFor(runtime.GOOS)}, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("device: init context: %w", err)
	}
	d.ctx = mctx

	devCfg := malgo.DefaultDeviceConfig(malgo.Playback)
	devCfg.Playback.Format = malgo.FormatS16
	devCfg.Playback.Channels = uint32(d.cfg.Format.Channels)
	devCfg.SampleRate = uint32(d.cfg.Format.SampleRate)
	devCfg.PeriodSizeInFrames = uint32(d.cfg.PeriodFrames)
	devCfg.Alsa.NoMMap = 1

	dev, err := malgo.InitDevice(mctx.Context, devCfg, malgo.DeviceCallbacks{
		Data: d.onData,
		Stop: d.onStop,
	})
	if err != nil {
		_ = mctx.Uninit()
		return fmt.Errorf("device: init device: %w", err)
	}
	d.dev = dev

	if err := dev.Start(); err != nil {
		dev.Uninit()
		_ = mctx.Uninit()
		return fmt.Errorf("device: start: %w", err)
	}
	d.running.Store(true)

	d.log.Info("playback device started",
		"rate", d.cfg.Format.SampleRate,
		"channels", d.cfg.Format.Channels,
		"period_frames", d.cfg.PeriodFrames,
	)

	go func() {
		<-ctx.Done()
		d.Stop()
	}()
	return nil
}

// Stop halts playback and releases the backend.
func (d *Device) Stop() {
	if !d.running.CompareAndSwap(true, false) {
		return
	}
	if d.dev != nil {
		_ = d.dev.Stop()
		d.dev.Uninit()
		d.dev = nil
	}
	if d.ctx != nil {
		_ = d.ctx.Uninit()
		d.ctx = nil
	}
	d.log.Info("playback device stopped")
}

// onData is the per-period callback on the audio thread. The engine fills
// the full output region every time, so shortfalls surface as silence rather
// than device-side glitches.
func (d *Device) onData(pOutput, _ []byte, frameCount uint32) {
	d.engine.Render(pOutput, int(frameCount))
}

// onStop fires when the backend stops the device outside our control.
func (d *Device) onStop() {
	if d.running.Load() {
		d.log.Warn("audio device stopped unexpectedly")
	}
}

// backendFor picks the native backend per platform, matching what miniaudio
// would probe first.
func backendFor(goos string) malgo.Backend {
	switch goos {
	case "linux":
		return malgo.BackendAlsa
	case "darwin":
		return malgo.BackendCoreaudio
	case "windows":
		return malgo.BackendWasapi
	default:
		return malgo.BackendNull
	}
}
