package editing

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vedantwpatil/FocusFrame/internal/config"
	"github.com/vedantwpatil/FocusFrame/internal/tracking"
)

// Plan is everything the renderer needs for one export, on the trimmed
// timeline (t = 0 is the trim start).
type Plan struct {
	Project   *Project
	TrimStart float64
	Duration  float64
	Timeline  *Timeline

	// Cursor overlay motion in normalized coordinates; HasCursor is false
	// when nothing was logged or the cursor is hidden.
	CursorX   Track
	CursorY   Track
	HasCursor bool

	// Output size, 0 keeps the source size
	Width  int
	Height int
}

type Editor struct {
	config *config.Config
	logger *slog.Logger
}

func NewEditor(cfg *config.Config) *Editor {
	return &Editor{
		config: cfg,
		logger: slog.With("component", "editor"),
	}
}

// Plan compiles a project against a recording's logs. sourceDuration is the
// length of the source in seconds. When the project lists no effects they are
// generated from the recorded triple clicks.
func (e *Editor) Plan(p *Project, sourceDuration float64, clicks []tracking.ClickEvent, cursor []tracking.CursorSample) (*Plan, error) {
	p.ApplyDefaults(e.config)

	start, end := p.Trim.Start, p.Trim.End
	if end <= 0 || (sourceDuration > 0 && end > sourceDuration) {
		end = sourceDuration
	}
	if start < 0 || end <= start {
		return nil, fmt.Errorf("invalid trim range [%.3f, %.3f] for a %.3fs source", start, end, sourceDuration)
	}

	effects := p.Effects
	if len(effects) == 0 && len(clicks) > 0 {
		effects = EffectsFromClicks(clicks, e.config.Gesture.Cooldown, e.config.Zoom.DefaultScale, e.config.Zoom.DefaultEasing)
		e.logger.Info("generated zoom effects from clicks", "count", len(effects))
	}

	points := CursorTimeline(cursor, start)
	plan := &Plan{
		Project:   p,
		TrimStart: start,
		Duration:  end - start,
		Timeline:  Compile(start, end-start, effects, points, NewCompileOptions(e.config)),
	}

	if p.Cursor.IsVisible() {
		inRange := CursorWindow(points, 0, plan.Duration)
		plan.CursorX, plan.CursorY, plan.HasCursor = CursorTracks(inRange, e.config.Export.MaxCursorKeyframes)
	}

	w, h, err := ParseResolution(p.Resolution)
	if err != nil {
		e.logger.Warn("ignoring output resolution", "error", err)
	} else {
		plan.Width, plan.Height = w, h
	}
	return plan, nil
}

// CursorWindow returns the points inside [from, to] plus the nearest point
// on either side, so interpolation at the edges still sees real motion.
// points must be sorted by T.
func CursorWindow(points []CursorPoint, from, to float64) []CursorPoint {
	lo := sort.Search(len(points), func(i int) bool { return points[i].T >= from })
	hi := sort.Search(len(points), func(i int) bool { return points[i].T > to })
	if lo > 0 {
		lo--
	}
	if hi < len(points) {
		hi++
	}
	return points[lo:hi]
}

// CursorTracks builds the overlay tracks from cursor points, dropping samples
// that do not advance in time, and subsamples them to maxKeys.
func CursorTracks(points []CursorPoint, maxKeys int) (x, y Track, ok bool) {
	xs := make([]Keyframe, 0, len(points))
	ys := make([]Keyframe, 0, len(points))
	for _, pt := range points {
		if n := len(xs); n > 0 && pt.T <= xs[n-1].T {
			continue
		}
		xs = append(xs, Keyframe{T: pt.T, V: pt.X})
		ys = append(ys, Keyframe{T: pt.T, V: pt.Y})
	}
	if len(xs) == 0 {
		return Track{}, Track{}, false
	}
	return Track{keys: xs}.Subsample(maxKeys), Track{keys: ys}.Subsample(maxKeys), true
}
