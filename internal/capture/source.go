package capture

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/kbinani/screenshot"
)

// Control lets a frame handler ask the source to stop delivering frames
type Control interface {
	Stop()
}

// FrameHandler is invoked on the capture goroutine for every delivered frame.
// Returning an error stops the source and is returned from Run.
type FrameHandler func(f RawFrame, ctl Control) error

// Source is a push based frame producer, modelled on OS capture APIs that
// drive a callback at display refresh rate.
type Source interface {
	// PixelFormat names the byte order of delivered frames as ffmpeg expects it
	PixelFormat() string
	// Run blocks, delivering frames to handler until it calls Stop, returns an
	// error, or ctx is cancelled.
	Run(ctx context.Context, handler FrameHandler) error
}

type stopFlag struct {
	stopped atomic.Bool
}

func (s *stopFlag) Stop() {
	s.stopped.Store(true)
}

// ScreenshotSource grabs the target rectangle on a fixed poll interval. Grab
// latency varies with screen content, so frames arrive irregularly and the
// Pacer restores a constant rate.
type ScreenshotSource struct {
	bounds   Bounds
	interval time.Duration
	grab     func(image.Rectangle) (*image.RGBA, error)
	logger   *slog.Logger
}

func NewScreenshotSource(bounds Bounds, interval time.Duration) *ScreenshotSource {
	return &ScreenshotSource{
		bounds:   bounds,
		interval: interval,
		grab:     screenshot.CaptureRect,
		logger:   slog.With("component", "capture"),
	}
}

func (s *ScreenshotSource) PixelFormat() string {
	return "rgba"
}

func (s *ScreenshotSource) Run(ctx context.Context, handler FrameHandler) error {
	rect := image.Rect(s.bounds.X, s.bounds.Y, s.bounds.X+s.bounds.Width, s.bounds.Y+s.bounds.Height)
	ctl := &stopFlag{}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var failures int
	for {
		img, err := s.grab(rect)
		if err != nil {
			failures++
			s.logger.Warn("failed to grab screen", "error", err, "consecutive", failures)
			if failures >= 30 {
				return fmt.Errorf("screen capture keeps failing: %w", err)
			}
		} else {
			failures = 0
			frame := RawFrame{
				Width:      img.Rect.Dx(),
				Height:     img.Rect.Dy(),
				Stride:     img.Stride,
				Pix:        img.Pix,
				CapturedAt: time.Now(),
			}
			if err := handler(frame, ctl); err != nil {
				return err
			}
		}

		if ctl.stopped.Load() {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
