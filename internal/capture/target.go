package capture

import (
	"errors"
	"fmt"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
)

var (
	ErrNoTarget      = errors.New("no capture target available")
	ErrInvalidBounds = errors.New("capture target has invalid bounds")
)

type Kind int

const (
	Monitor Kind = iota
	Window
)

func (k Kind) String() string {
	switch k {
	case Monitor:
		return "monitor"
	case Window:
		return "window"
	default:
		return "unknown"
	}
}

// Bounds is a rectangle in screen coordinates
type Bounds struct {
	X      int `msgpack:"x"`
	Y      int `msgpack:"y"`
	Width  int `msgpack:"width"`
	Height int `msgpack:"height"`
}

func (b Bounds) Valid() bool {
	return b.Width > 0 && b.Height > 0
}

// EvenSize returns the frame size the encoder accepts (yuv420p needs even dimensions)
func (b Bounds) EvenSize() (width, height int) {
	return b.Width &^ 1, b.Height &^ 1
}

func (b Bounds) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", b.Width, b.Height, b.X, b.Y)
}

// Target is what a recording session captures. It is resolved once when the
// session starts and never re-polled.
type Target struct {
	Kind    Kind   `msgpack:"kind"`
	Bounds  Bounds `msgpack:"bounds"`
	Display int    `msgpack:"display"`
	PID     int    `msgpack:"pid,omitempty"`
	Title   string `msgpack:"title,omitempty"`
}

// Resolver answers monitor and window geometry queries
type Resolver interface {
	Monitor(index int) (Target, error)
	Window(pid int) (Target, error)
}

// DesktopResolver resolves targets from the live desktop
type DesktopResolver struct{}

func (DesktopResolver) Monitor(index int) (Target, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return Target{}, ErrNoTarget
	}
	if index < 0 || index >= n {
		return Target{}, fmt.Errorf("%w: display %d of %d", ErrNoTarget, index, n)
	}

	rect := screenshot.GetDisplayBounds(index)
	target := Target{
		Kind:    Monitor,
		Display: index,
		Bounds: Bounds{
			X:      rect.Min.X,
			Y:      rect.Min.Y,
			Width:  rect.Dx(),
			Height: rect.Dy(),
		},
	}
	if !target.Bounds.Valid() {
		return Target{}, fmt.Errorf("%w: display %d is %s", ErrInvalidBounds, index, target.Bounds)
	}
	return target, nil
}

// Window resolves the main window of the process pid
func (DesktopResolver) Window(pid int) (Target, error) {
	if pid <= 0 {
		return Target{}, fmt.Errorf("%w: window capture needs a process id", ErrNoTarget)
	}

	x, y, w, h := robotgo.GetBounds(pid)
	target := Target{
		Kind:   Window,
		PID:    pid,
		Title:  robotgo.GetTitle(pid),
		Bounds: Bounds{X: x, Y: y, Width: w, Height: h},
	}
	if !target.Bounds.Valid() {
		return Target{}, fmt.Errorf("%w: window %d is %s", ErrInvalidBounds, pid, target.Bounds)
	}
	return target, nil
}
