package editing

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/vedantwpatil/FocusFrame/internal/config"
	"github.com/vedantwpatil/FocusFrame/internal/tracking"
)

func testOptions() CompileOptions {
	return NewCompileOptions(config.NewConfig())
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEasingDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want float64
		ok   bool
	}{
		{"slow", 0.5, true},
		{"smooth", 0.3, true},
		{"", 0.3, true},
		{"quick", 0.2, true},
		{"Rapid", 0.1, true},
		{"bouncy", 0, false},
	}
	for _, tt := range tests {
		got, err := EasingDuration(tt.name)
		if (err == nil) != tt.ok {
			t.Errorf("EasingDuration(%q) error = %v, want ok=%v", tt.name, err, tt.ok)
		}
		if got != tt.want {
			t.Errorf("EasingDuration(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEffectTiming(t *testing.T) {
	t.Parallel()

	effect := ZoomEffect{Start: 2, End: 5, Scale: 2, TargetX: 0.5, TargetY: 0.5, Easing: "quick"}
	tl := Compile(0, 10, []ZoomEffect{effect}, nil, testOptions())
	if len(tl.Effects) != 1 {
		t.Fatalf("compiled %d effects, skipped %v", len(tl.Effects), tl.Skipped)
	}

	checks := []struct {
		t, want float64
	}{
		{0, 1},
		{1.9, 1},
		{2.0, 2},
		{3.5, 2},
		{4.8, 2},
		{5.0, 1},
		{7, 1},
	}
	for _, c := range checks {
		if got := tl.Scale(c.t); !approx(got, c.want) {
			t.Errorf("scale(%v) = %v, want %v", c.t, got, c.want)
		}
	}

	// rising through the zoom-in, falling through the release
	prev := tl.Scale(1.9)
	for at := 1.9; at <= 2.0; at += 0.005 {
		s := tl.Scale(at)
		if s < prev-1e-12 {
			t.Errorf("scale decreased during zoom-in at %v: %v < %v", at, s, prev)
		}
		prev = s
	}
	prev = tl.Scale(4.8)
	for at := 4.8; at <= 5.0; at += 0.005 {
		s := tl.Scale(at)
		if s > prev+1e-12 {
			t.Errorf("scale increased during release at %v: %v > %v", at, s, prev)
		}
		prev = s
	}
}

func TestSmoothstep(t *testing.T) {
	t.Parallel()

	if Smoothstep(-1) != 0 || Smoothstep(0) != 0 || Smoothstep(1) != 1 || Smoothstep(2) != 1 {
		t.Error("smoothstep must clamp to [0,1]")
	}
	if !approx(Smoothstep(0.5), 0.5) {
		t.Errorf("Smoothstep(0.5) = %v", Smoothstep(0.5))
	}
}

func TestCompileSkipsInvalidEffects(t *testing.T) {
	t.Parallel()

	effects := []ZoomEffect{
		{Start: 3, End: 2, Scale: 2, TargetX: 0.5, TargetY: 0.5},
		{Start: 1, End: 2, Scale: 0, TargetX: 0.5, TargetY: 0.5},
		{Start: 1, End: 2, Scale: 2, TargetX: 1.5, TargetY: 0.5},
		{Start: 1, End: 2, Scale: 2, TargetX: 0.5, TargetY: 0.5, Easing: "wobbly"},
		{Start: 4, End: 6, Scale: 2, TargetX: 0.5, TargetY: 0.5},
	}
	tl := Compile(0, 10, effects, nil, testOptions())

	if len(tl.Effects) != 1 || tl.Effects[0].Index != 4 {
		t.Fatalf("want only effect 4 compiled, got %+v", tl.Effects)
	}
	if len(tl.Skipped) != 4 {
		t.Fatalf("want 4 skipped effects, got %d", len(tl.Skipped))
	}
	for _, s := range tl.Skipped {
		if s.Reason == "" || !strings.Contains(s.Error(), "skipped") {
			t.Errorf("skip entry without reason: %+v", s)
		}
	}
}

func TestCompileRejectsOverlap(t *testing.T) {
	t.Parallel()

	effects := []ZoomEffect{
		{Start: 5, End: 8, Scale: 2, TargetX: 0.5, TargetY: 0.5},
		{Start: 1, End: 4, Scale: 2, TargetX: 0.5, TargetY: 0.5},
		{Start: 3, End: 6, Scale: 3, TargetX: 0.5, TargetY: 0.5},
	}
	tl := Compile(0, 20, effects, nil, testOptions())

	if len(tl.Effects) != 2 {
		t.Fatalf("compiled %d effects, want 2", len(tl.Effects))
	}
	if len(tl.Skipped) != 1 || tl.Skipped[0].Index != 2 {
		t.Fatalf("want effect 2 skipped for overlap, got %+v", tl.Skipped)
	}
	// never additive
	for at := 0.0; at <= 10; at += 0.01 {
		if s := tl.Scale(at); s > 2+1e-9 {
			t.Fatalf("scale(%v) = %v exceeds the largest accepted effect", at, s)
		}
	}
}

func TestCompileTrim(t *testing.T) {
	t.Parallel()

	effects := []ZoomEffect{
		{Start: 1, End: 3, Scale: 2, TargetX: 0.5, TargetY: 0.5},   // before trim
		{Start: 4, End: 7, Scale: 2, TargetX: 0.5, TargetY: 0.5},   // starts before trim, clipped
		{Start: 9, End: 11, Scale: 2, TargetX: 0.5, TargetY: 0.5},  // inside
		{Start: 14, End: 20, Scale: 2, TargetX: 0.5, TargetY: 0.5}, // after trim
	}
	tl := Compile(5, 8, effects, nil, testOptions())

	if len(tl.Effects) != 2 {
		t.Fatalf("compiled %d effects, want 2 (skipped %+v)", len(tl.Effects), tl.Skipped)
	}
	clipped, inside := tl.Effects[0], tl.Effects[1]
	if clipped.Start != 0 || clipped.End != 2 {
		t.Errorf("clipped effect = [%v, %v], want [0, 2]", clipped.Start, clipped.End)
	}
	if inside.Start != 4 || inside.End != 6 {
		t.Errorf("shifted effect = [%v, %v], want [4, 6]", inside.Start, inside.End)
	}
	if !approx(tl.Scale(0), 2) {
		t.Errorf("clipped effect should already be zoomed at t=0, got %v", tl.Scale(0))
	}
}

func TestCompileShrinksEaseForShortEffects(t *testing.T) {
	t.Parallel()

	tl := Compile(0, 10, []ZoomEffect{{Start: 1, End: 1.2, Scale: 2, TargetX: 0.5, TargetY: 0.5, Easing: "slow"}}, nil, testOptions())
	if len(tl.Effects) != 1 {
		t.Fatalf("effect was skipped: %+v", tl.Skipped)
	}
	e := tl.Effects[0]
	if !approx(e.Ease, 0.2) {
		t.Errorf("Ease = %v, want 0.2", e.Ease)
	}
	if !approx(tl.Scale(1.2), 1) || !approx(tl.Scale(1), 2) {
		t.Errorf("scale(1) = %v scale(1.2) = %v", tl.Scale(1), tl.Scale(1.2))
	}
}

func TestPanContribution(t *testing.T) {
	t.Parallel()

	effect := ZoomEffect{Start: 2, End: 5, Scale: 2, TargetX: 0.9, TargetY: 0.1, Easing: "quick"}
	tl := Compile(0, 10, []ZoomEffect{effect}, nil, testOptions())

	x, y := tl.Pan(0)
	if x != 0.5 || y != 0.5 {
		t.Errorf("idle pan = (%v, %v), want centred", x, y)
	}
	// target is clamped into the viewport range and held through every phase
	for _, at := range []float64{1.95, 2, 3, 4.9, 5} {
		x, y := tl.Pan(at)
		if !approx(x, 0.75) || !approx(y, 0.25) {
			t.Errorf("pan(%v) = (%v, %v), want (0.75, 0.25)", at, x, y)
		}
	}
}

func TestTimelineExpressions(t *testing.T) {
	t.Parallel()

	if got := (&Timeline{}).ScaleExpr(); got != "1" {
		t.Errorf("empty ScaleExpr() = %q, want 1", got)
	}
	if got := (&Timeline{}).PanXExpr(); got != "0.5" {
		t.Errorf("empty PanXExpr() = %q, want 0.5", got)
	}

	effects := []ZoomEffect{
		{Start: 2, End: 5, Scale: 2, TargetX: 0.3, TargetY: 0.6, Easing: "quick"},
		{Start: 8, End: 9, Scale: 1.5, TargetX: 0.5, TargetY: 0.5},
	}
	tl := Compile(0, 10, effects, nil, testOptions())

	scale := tl.ScaleExpr()
	if !strings.HasPrefix(scale, "max(1,") {
		t.Errorf("ScaleExpr() should clamp at 1: %s", scale)
	}
	if got := strings.Count(scale, "between(t,"); got != 2 {
		t.Errorf("ScaleExpr() has %d windows, want 2: %s", got, scale)
	}
	if !strings.Contains(scale, "between(t,1.9,5)") {
		t.Errorf("first window should start at the anticipation lead: %s", scale)
	}
	if strings.Contains(scale, "if(") {
		t.Errorf("ScaleExpr() should not nest conditionals: %s", scale)
	}
	panX := tl.PanXExpr()
	if !strings.HasPrefix(panX, "0.5+between(") {
		t.Errorf("PanXExpr() = %s", panX)
	}
}

func TestEffectsFromClicks(t *testing.T) {
	t.Parallel()

	clicks := []tracking.ClickEvent{
		{TimestampMs: 1000, X: 0.2, Y: 0.3, Flags: tracking.TripleClick},
		{TimestampMs: 2000, X: 0.5, Y: 0.5},
		{TimestampMs: 4001, X: 0.8, Y: 0.7, Flags: tracking.TripleClick},
	}
	effects := EffectsFromClicks(clicks, 3*time.Second, 2, "smooth")
	if len(effects) != 2 {
		t.Fatalf("got %d effects, want 2", len(effects))
	}
	if effects[0].Start != 1 || !approx(effects[0].End, 3.7) {
		t.Errorf("first effect = [%v, %v], want [1, 3.7]", effects[0].Start, effects[0].End)
	}
	if effects[1].TargetX != 0.8 || effects[1].TargetY != 0.7 {
		t.Errorf("second effect target = (%v, %v)", effects[1].TargetX, effects[1].TargetY)
	}

	// triggers one cooldown apart compile without overlap
	tl := Compile(0, 10, effects, nil, testOptions())
	if len(tl.Effects) != 2 {
		t.Errorf("generated effects overlap: skipped %+v", tl.Skipped)
	}
}

func TestPanExpressionsShareKeyframeBudget(t *testing.T) {
	t.Parallel()

	var cursor []CursorPoint
	for ts := 0.0; ts <= 120; ts += 0.05 {
		cursor = append(cursor, CursorPoint{T: ts, X: 0.5 + 0.5*math.Sin(ts*2), Y: 0.5 + 0.5*math.Cos(ts*3)})
	}
	var effects []ZoomEffect
	for i := range 28 {
		start := float64(4*i) + 1
		effects = append(effects, ZoomEffect{Start: start, End: start + 2.5, Scale: 2, TargetX: 0.5, TargetY: 0.5, Easing: "quick"})
	}

	opts := testOptions()
	tl := Compile(0, 120, effects, cursor, opts)
	if len(tl.Effects) != len(effects) {
		t.Fatalf("compiled %d effects, want %d", len(tl.Effects), len(effects))
	}

	budget := opts.Pan.MaxKeyframes
	for name, expr := range map[string]string{"PanXExpr": tl.PanXExpr(), "PanYExpr": tl.PanYExpr()} {
		if got := strings.Count(expr, "clip("); got > budget {
			t.Errorf("%s() has %d keyframe segments, want at most %d", name, got, budget)
		}
	}

	keys := 0
	for _, e := range tl.Effects {
		keys += e.PanX.Len()
	}
	if keys > budget+len(tl.Effects) {
		t.Errorf("effects hold %d pan keyframes in total for a budget of %d", keys, budget)
	}

	// a lone effect keeps the whole budget
	one := Compile(0, 120, effects[:1], cursor, opts)
	if n := one.Effects[0].PanX.Len(); n < 3 || n > budget {
		t.Errorf("single effect PanX has %d keyframes, want a moving track within %d", n, budget)
	}
}
