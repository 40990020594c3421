package editing

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/vedantwpatil/FocusFrame/internal/config"
	"github.com/vedantwpatil/FocusFrame/internal/tracking"
)

// Easing presets, in seconds
var easings = map[string]float64{
	"slow":   0.5,
	"smooth": 0.3,
	"quick":  0.2,
	"rapid":  0.1,
}

const DefaultEasing = "smooth"

// EasingDuration returns the ramp length of a preset. An empty name means
// the default preset.
func EasingDuration(name string) (float64, error) {
	if name == "" {
		name = DefaultEasing
	}
	d, ok := easings[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown easing preset %q", name)
	}
	return d, nil
}

// Smoothstep is u²(3−2u) for u clamped to [0,1]
func Smoothstep(u float64) float64 {
	u = clamp(u, 0, 1)
	return u * u * (3 - 2*u)
}

// ZoomEffect is a user authored zoom. Times are seconds on the source file.
type ZoomEffect struct {
	Start   float64 `yaml:"start"`
	End     float64 `yaml:"end"`
	Scale   float64 `yaml:"scale"`
	TargetX float64 `yaml:"target_x"`
	TargetY float64 `yaml:"target_y"`
	Easing  string  `yaml:"easing,omitempty"`
}

func (e ZoomEffect) Validate() error {
	switch {
	case !(e.End > e.Start):
		return fmt.Errorf("end %.3fs is not after start %.3fs", e.End, e.Start)
	case !(e.Scale > 0):
		return fmt.Errorf("scale %g must be positive", e.Scale)
	case e.TargetX < 0 || e.TargetX > 1 || e.TargetY < 0 || e.TargetY > 1:
		return fmt.Errorf("target (%g, %g) is outside the frame", e.TargetX, e.TargetY)
	}
	if _, err := EasingDuration(e.Easing); err != nil {
		return err
	}
	return nil
}

// Trim selects [Start, End] seconds of the source. End 0 means the end of
// the source.
type Trim struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end,omitempty"`
}

// SkippedEffect records why an effect did not make it into the timeline
type SkippedEffect struct {
	Index  int
	Effect ZoomEffect
	Reason string
}

func (s SkippedEffect) Error() string {
	return fmt.Sprintf("effect %d skipped: %s", s.Index, s.Reason)
}

// CompiledEffect is one effect placed on the trimmed timeline. Within
// [Start-Lead, End] it zooms in, holds, then releases over Ease seconds.
type CompiledEffect struct {
	Index int
	Start float64
	End   float64
	Scale float64
	Ease  float64
	Lead  float64
	PanX  Track
	PanY  Track
}

// Window is the interval the effect contributes to
func (c CompiledEffect) Window() (from, to float64) {
	return c.Start - c.Lead, c.End
}

func (c CompiledEffect) active(t float64) bool {
	from, to := c.Window()
	return t >= from && t <= to
}

func (c CompiledEffect) rampIn(t float64) float64 {
	if c.Lead <= 0 {
		if t >= c.Start {
			return 1
		}
		return 0
	}
	return Smoothstep((t - (c.Start - c.Lead)) / c.Lead)
}

func (c CompiledEffect) rampOut(t float64) float64 {
	return Smoothstep((t - (c.End - c.Ease)) / c.Ease)
}

// ScaleAt is the effect's scale contribution, 0 outside its window
func (c CompiledEffect) ScaleAt(t float64) float64 {
	if !c.active(t) {
		return 0
	}
	return 1 + (c.Scale-1)*(c.rampIn(t)-c.rampOut(t))
}

// PanAt is the effect's pan contribution per axis (centre minus 0.5), 0
// outside its window.
func (c CompiledEffect) PanAt(t float64) (x, y float64) {
	if !c.active(t) {
		return 0, 0
	}
	return c.PanX.Eval(t) - 0.5, c.PanY.Eval(t) - 0.5
}

func smoothstepExpr(u string) string {
	return fmt.Sprintf("(%[1]s)*(%[1]s)*(3-2*(%[1]s))", u)
}

func (c CompiledEffect) rampInExpr() string {
	if c.Lead <= 0 {
		return "gte(t," + formatNum(c.Start) + ")"
	}
	from := c.Start - c.Lead
	return smoothstepExpr("clip((t" + signed(-from) + ")/" + formatNum(c.Lead) + ",0,1)")
}

func (c CompiledEffect) rampOutExpr() string {
	from := c.End - c.Ease
	return smoothstepExpr("clip((t" + signed(-from) + ")/" + formatNum(c.Ease) + ",0,1)")
}

func (c CompiledEffect) betweenExpr() string {
	from, to := c.Window()
	return "between(t," + formatNum(from) + "," + formatNum(to) + ")"
}

// ScaleExpr mirrors ScaleAt as an ffmpeg expression in t
func (c CompiledEffect) ScaleExpr() string {
	return fmt.Sprintf("%s*(1+%s*(%s-%s))",
		c.betweenExpr(), formatNum(c.Scale-1), c.rampInExpr(), c.rampOutExpr())
}

// PanExpr mirrors PanAt for one axis
func (c CompiledEffect) PanExpr(track Track) string {
	return fmt.Sprintf("%s*(%s-0.5)", c.betweenExpr(), track.Expr("t"))
}

// Timeline is the compiled result of an export request
type Timeline struct {
	Duration float64
	Effects  []CompiledEffect
	Skipped  []SkippedEffect
}

// Scale is max(1, sum of contributions)
func (tl *Timeline) Scale(t float64) float64 {
	sum := 0.0
	for _, e := range tl.Effects {
		sum += e.ScaleAt(t)
	}
	return math.Max(1, sum)
}

// Pan is 0.5 plus the sum of per-effect offsets, per axis
func (tl *Timeline) Pan(t float64) (x, y float64) {
	x, y = 0.5, 0.5
	for _, e := range tl.Effects {
		dx, dy := e.PanAt(t)
		x += dx
		y += dy
	}
	return x, y
}

func (tl *Timeline) ScaleExpr() string {
	if len(tl.Effects) == 0 {
		return "1"
	}
	parts := make([]string, len(tl.Effects))
	for i, e := range tl.Effects {
		parts[i] = e.ScaleExpr()
	}
	return "max(1," + strings.Join(parts, "+") + ")"
}

func (tl *Timeline) PanXExpr() string {
	return tl.panExpr(func(e CompiledEffect) Track { return e.PanX })
}

func (tl *Timeline) PanYExpr() string {
	return tl.panExpr(func(e CompiledEffect) Track { return e.PanY })
}

func (tl *Timeline) panExpr(axis func(CompiledEffect) Track) string {
	var b strings.Builder
	b.WriteString("0.5")
	for _, e := range tl.Effects {
		b.WriteString("+")
		b.WriteString(e.PanExpr(axis(e)))
	}
	return b.String()
}

// CompileOptions carries the tunables the compiler needs
type CompileOptions struct {
	AnticipationRatio float64
	Pan               PanSimulator
}

func NewCompileOptions(cfg *config.Config) CompileOptions {
	return CompileOptions{
		AnticipationRatio: cfg.Zoom.AnticipationRatio,
		Pan:               NewPanSimulator(cfg.Pan),
	}
}

// CursorTimeline converts session cursor samples into trimmed timeline
// seconds, sorted by time.
func CursorTimeline(samples []tracking.CursorSample, trimStart float64) []CursorPoint {
	points := make([]CursorPoint, len(samples))
	for i, s := range samples {
		points[i] = CursorPoint{T: float64(s.TimestampMs)/1000 - trimStart, X: s.X, Y: s.Y}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].T < points[j].T })
	return points
}

// Compile places effects on the trimmed timeline [0, duration]. Invalid,
// out of range and overlapping effects are skipped and reported rather than
// failing the export.
func Compile(trimStart, duration float64, effects []ZoomEffect, cursor []CursorPoint, opts CompileOptions) *Timeline {
	logger := slog.With("component", "compiler")
	tl := &Timeline{Duration: duration}

	skip := func(i int, e ZoomEffect, reason string) {
		tl.Skipped = append(tl.Skipped, SkippedEffect{Index: i, Effect: e, Reason: reason})
		logger.Warn("skipping zoom effect", "index", i, "start", e.Start, "end", e.End, "reason", reason)
	}

	order := make([]int, len(effects))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return effects[order[a]].Start < effects[order[b]].Start })

	for _, i := range order {
		e := effects[i]
		if err := e.Validate(); err != nil {
			skip(i, e, err.Error())
			continue
		}

		start, end := e.Start-trimStart, e.End-trimStart
		if end <= 0 || start >= duration {
			skip(i, e, "outside the trimmed range")
			continue
		}
		start, end = math.Max(start, 0), math.Min(end, duration)

		ease, _ := EasingDuration(e.Easing)
		ease = math.Min(ease, end-start)

		c := CompiledEffect{
			Index: i,
			Start: start,
			End:   end,
			Scale: e.Scale,
			Ease:  ease,
			Lead:  ease * opts.AnticipationRatio,
		}

		if prev, ok := overlapping(tl.Effects, c); ok {
			skip(i, e, fmt.Sprintf("overlaps effect %d", prev.Index))
			continue
		}

		c.PanX, c.PanY = opts.Pan.Simulate(e.TargetX, e.TargetY, e.Scale, start, end-ease, cursor)
		tl.Effects = append(tl.Effects, c)
	}

	shareKeyframes(tl.Effects, opts.Pan.MaxKeyframes)
	logger.Debug("timeline compiled", "effects", len(tl.Effects), "skipped", len(tl.Skipped))
	return tl
}

// shareKeyframes splits one keyframe budget across the pan tracks of all
// effects, since they are summed into a single expression per axis. When
// the share drops below two keyframes an effect holds its initial centre.
func shareKeyframes(effects []CompiledEffect, budget int) {
	if len(effects) == 0 || budget <= 0 {
		return
	}
	share := budget / len(effects)
	for i := range effects {
		e := &effects[i]
		if share < 2 {
			e.PanX = Constant(e.PanX.First().T, e.PanX.First().V)
			e.PanY = Constant(e.PanY.First().T, e.PanY.First().V)
			continue
		}
		e.PanX = e.PanX.Subsample(share)
		e.PanY = e.PanY.Subsample(share)
	}
}

// overlapping treats touching windows as overlapping: both effects would
// contribute 1 at the shared instant.
func overlapping(accepted []CompiledEffect, c CompiledEffect) (CompiledEffect, bool) {
	from, to := c.Window()
	for _, a := range accepted {
		aFrom, aTo := a.Window()
		if from <= aTo && aFrom <= to {
			return a, true
		}
	}
	return CompiledEffect{}, false
}
