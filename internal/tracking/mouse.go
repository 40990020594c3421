package tracking

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-vgo/robotgo"
	hook "github.com/robotn/gohook"
)

// Clock returns the time elapsed since the session started
type Clock func() time.Duration

// Active reports whether the session is still recording
type Active func() bool

// Listener delivers global input events into a Detector until ctx is done
type Listener interface {
	Listen(ctx context.Context, d *Detector, clock Clock, active Active) error
}

// HookListener reads the global mouse hook
type HookListener struct {
	logger *slog.Logger
}

func NewHookListener() *HookListener {
	return &HookListener{logger: slog.With("component", "hook")}
}

func (h *HookListener) Listen(ctx context.Context, d *Detector, clock Clock, active Active) error {
	events := hook.Start()
	h.logger.Debug("hook process started")
	defer func() {
		hook.End()
		h.logger.Debug("hook process stopped")
	}()

	Dispatch(ctx, events, d, clock, active)
	return nil
}

func isLeftButton(e hook.Event) bool {
	return e.Button == hook.MouseMap["left"] || e.Button == 1
}

// Dispatch routes hook events to the detector until ctx is cancelled or the
// channel closes.
func Dispatch(ctx context.Context, events <-chan hook.Event, d *Detector, clock Clock, active Active) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if !active() {
				continue
			}
			switch e.Kind {
			case hook.MouseDown:
				if isLeftButton(e) {
					d.Click(clock(), float64(e.X), float64(e.Y))
				}
			case hook.MouseMove, hook.MouseDrag:
				d.Move(clock(), float64(e.X), float64(e.Y))
			}
		}
	}
}

// Locator returns the current cursor position in screen coordinates
type Locator func() (x, y int)

// Poller samples the cursor position on a timer. Hooks do not fire while the
// pointer is still, so polling keeps the trajectory dense enough for panning.
type Poller struct {
	locate   Locator
	interval time.Duration
}

func NewPoller(interval time.Duration) *Poller {
	return NewPollerWith(robotgo.Location, interval)
}

func NewPollerWith(locate Locator, interval time.Duration) *Poller {
	return &Poller{locate: locate, interval: interval}
}

func (p *Poller) Run(ctx context.Context, d *Detector, clock Clock, active Active) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !active() {
				continue
			}
			x, y := p.locate()
			d.Move(clock(), float64(x), float64(y))
		}
	}
}
