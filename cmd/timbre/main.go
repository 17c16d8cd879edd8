// Command timbre plays PCM audio files (WAV or raw) gaplessly through the
// system sound device, exposing feed/render telemetry over a local HTTP
// endpoint. With no arguments it plays a short test tone through the full
// feed-ring-render path.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/timbre/internal/device"
	"github.com/zsiec/timbre/internal/engine"
	"github.com/zsiec/timbre/internal/feed"
	"github.com/zsiec/timbre/internal/playback"
	"github.com/zsiec/timbre/internal/ring"
	"github.com/zsiec/timbre/media"
)

var version = "dev"

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	rawFormat := media.Format{
		SampleRate:     envInt("SAMPLE_RATE", 48000),
		Channels:       envInt("CHANNELS", 2),
		BytesPerSample: 2,
	}

	tracks, format, err := buildTracks(os.Args[1:], rawFormat)
	if err != nil {
		slog.Error("failed to open tracks", "error", err)
		os.Exit(1)
	}

	ringSeconds := envInt("RING_SECONDS", media.DefaultRingSeconds)
	periodFrames := envInt("PERIOD_FRAMES", media.DefaultPeriodFrames)
	statsAddr := envOr("STATS_ADDR", "127.0.0.1:4446")

	capacity := ringSeconds * format.SampleRate
	buf, err := ring.New(capacity, format.BytesPerFrame())
	if err != nil {
		slog.Error("failed to create ring buffer", "error", err)
		os.Exit(1)
	}

	state := playback.NewState()
	queue := playback.NewQueue(state, nil)
	refill := ring.NewSignal()

	eng := engine.New(engine.Config{
		StartFrames:    int64(capacity / 2),
		RebufferFrames: int64(capacity / 2),
	}, state, buf, refill, queue.AdvancePlaying, nil)

	feeder := feed.NewFeeder(queue, buf, refill, format, tracks, nil)
	dev := device.New(device.Config{Format: format, PeriodFrames: periodFrames}, eng, nil)

	slog.Info("timbre starting",
		"version", version,
		"tracks", len(tracks),
		"rate", format.SampleRate,
		"channels", format.Channels,
		"ring_frames", capacity,
		"stats", statsAddr,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return feeder.Run(ctx)
	})

	g.Go(func() error {
		if err := dev.Start(ctx); err != nil {
			return err
		}
		select {
		case <-queue.Done():
			// Give the device one last period to drain, then leave.
			time.Sleep(100 * time.Millisecond)
			slog.Info("playback complete")
			cancel()
		case <-ctx.Done():
		}
		dev.Stop()
		return nil
	})

	statsSrv := &http.Server{
		Addr:    statsAddr,
		Handler: statsHandler(eng, queue, state),
	}
	g.Go(func() error {
		slog.Info("stats endpoint listening", "addr", statsAddr)
		if err := statsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("stats server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return statsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("player error", "error", err)
		os.Exit(1)
	}
}

// buildTracks opens each path as a feed source. WAV files carry their own
// format; anything else is treated as raw PCM in the format given by the
// environment. Every track must agree on one format, checked here so a
// mismatch fails before playback starts rather than mid-stream. No paths at
// all yields a test tone so the whole pipeline can be exercised without
// media files.
func buildTracks(paths []string, rawFormat media.Format) ([]feed.Track, media.Format, error) {
	if len(paths) == 0 {
		f := rawFormat
		return []feed.Track{
			{ID: "tone-440", Source: feed.NewToneSource(f, 440, 3*time.Second)},
			{ID: "tone-880", Source: feed.NewToneSource(f, 880, 2*time.Second)},
		}, f, nil
	}

	var (
		tracks []feed.Track
		format media.Format
	)
	for _, path := range paths {
		id := filepath.Base(path)
		if strings.EqualFold(filepath.Ext(path), ".wav") {
			src, err := feed.OpenWAV(path)
			if err != nil {
				return nil, media.Format{}, err
			}
			if format == (media.Format{}) {
				format = src.Format()
			} else if src.Format() != format {
				return nil, media.Format{}, fmt.Errorf("%s: format %+v differs from %+v", path, src.Format(), format)
			}
			tracks = append(tracks, feed.Track{ID: id, Source: src})
			continue
		}

		if format == (media.Format{}) {
			format = rawFormat
		} else if rawFormat != format {
			return nil, media.Format{}, fmt.Errorf("%s: raw PCM format %+v differs from %+v", path, rawFormat, format)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, media.Format{}, err
		}
		tracks = append(tracks, feed.Track{ID: id, Source: feed.NewRawSource(f, rawFormat)})
	}
	return tracks, format, nil
}

// trackInfo is the per-track progress payload of the stats endpoint.
type trackInfo struct {
	ID     string `json:"id"`
	Queued int64  `json:"queued"`
	Played int64  `json:"played"`
	Total  int64  `json:"total"`
}

func statsHandler(eng *engine.Engine, queue *playback.Queue, state *playback.State) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		var tracks []trackInfo
		for _, e := range queue.List() {
			queued, played, total := e.Progress()
			tracks = append(tracks, trackInfo{ID: e.ID, Queued: queued, Played: played, Total: total})
		}
		payload := struct {
			Status         string          `json:"status"`
			Render         engine.Snapshot `json:"render"`
			TracksFinished int64           `json:"tracksFinished"`
			Tracks         []trackInfo     `json:"tracks"`
		}{
			Status:         state.Status().String(),
			Render:         eng.Stats(),
			TracksFinished: queue.FinishedCount(),
			Tracks:         tracks,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Debug("stats encode failed", "error", err)
		}
	})
	return mux
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring invalid value", "key", key, "value", v)
		return fallback
	}
	return n
}
