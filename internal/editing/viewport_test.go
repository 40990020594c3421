package editing

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/vedantwpatil/FocusFrame/internal/config"
	"github.com/vedantwpatil/FocusFrame/internal/tracking"
)

func testSimulator() PanSimulator {
	return NewPanSimulator(config.NewConfig().Pan)
}

func TestViewportRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scale, lo, hi float64
	}{
		{2, 0.25, 0.75},
		{4, 0.125, 0.875},
		{1, 0.5, 0.5},
		{0.5, 0.5, 0.5},
	}
	for _, tt := range tests {
		lo, hi := ViewportRange(tt.scale)
		if lo != tt.lo || hi != tt.hi {
			t.Errorf("ViewportRange(%v) = [%v, %v], want [%v, %v]", tt.scale, lo, hi, tt.lo, tt.hi)
		}
	}
}

func TestSimulateStaysInViewport(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(7))
	sim := testSimulator()

	for run := 0; run < 50; run++ {
		var cursor []CursorPoint
		for ts := 0.0; ts < 10; ts += 0.05 {
			// jump between the edges to provoke maximal correction
			x, y := rng.Float64(), rng.Float64()
			if rng.Intn(3) == 0 {
				x, y = math.Round(x), math.Round(y)
			}
			cursor = append(cursor, CursorPoint{T: ts, X: x, Y: y})
		}
		tx, ty := rng.Float64(), rng.Float64()

		xs, ys := sim.Simulate(tx, ty, 2, 1, 9, cursor)
		for _, k := range append(xs.Keys(), ys.Keys()...) {
			if k.V < 0.25-1e-12 || k.V > 0.75+1e-12 {
				t.Fatalf("run %d: centre %v at t=%v left [0.25, 0.75]", run, k.V, k.T)
			}
		}
		if xs.Len() > sim.MaxKeyframes || ys.Len() > sim.MaxKeyframes {
			t.Fatalf("run %d: %d keyframes exceed the cap of %d", run, xs.Len(), sim.MaxKeyframes)
		}
		if xs.First().T != 1 || xs.Last().T != 9 {
			t.Errorf("run %d: trajectory spans [%v, %v], want [1, 9]", run, xs.First().T, xs.Last().T)
		}
	}
}

func TestSimulateWithoutSamplesIsStatic(t *testing.T) {
	t.Parallel()
	sim := testSimulator()

	cursor := []CursorPoint{{T: 0.5, X: 0.1, Y: 0.1}, {T: 12, X: 0.9, Y: 0.9}}
	xs, ys := sim.Simulate(0.1, 0.95, 2, 2, 8, cursor)
	if xs.Len() != 1 || ys.Len() != 1 {
		t.Fatalf("want a single keyframe per axis, got %d and %d", xs.Len(), ys.Len())
	}
	if xs.First().V != 0.25 || ys.First().V != 0.75 {
		t.Errorf("static centre = (%v, %v), want the clamped target (0.25, 0.75)", xs.First().V, ys.First().V)
	}
}

func TestSimulateDeadZone(t *testing.T) {
	t.Parallel()
	sim := testSimulator()

	// cursor wiggles inside the dead zone around the centre
	var cursor []CursorPoint
	for ts := 0.0; ts <= 4; ts += 0.05 {
		cursor = append(cursor, CursorPoint{T: ts, X: 0.5 + 0.05*math.Sin(ts*9), Y: 0.5})
	}
	xs, _ := sim.Simulate(0.5, 0.5, 2, 0, 4, cursor)
	for _, k := range xs.Keys() {
		if k.V != 0.5 {
			t.Fatalf("centre moved to %v at t=%v while the cursor stayed in the dead zone", k.V, k.T)
		}
	}
}

func TestSimulateFollowsCursor(t *testing.T) {
	t.Parallel()
	sim := testSimulator()

	cursor := []CursorPoint{{T: 0, X: 0.7, Y: 0.5}, {T: 5, X: 0.7, Y: 0.5}}
	xs, ys := sim.Simulate(0.3, 0.5, 2, 0, 5, cursor)

	if xs.First().V != 0.3 {
		t.Errorf("trajectory should start at the target, got %v", xs.First().V)
	}
	keys := xs.Keys()
	for i := 1; i < len(keys); i++ {
		if keys[i].V < keys[i-1].V {
			t.Fatalf("centre moved away from the cursor at t=%v", keys[i].T)
		}
	}
	// settles at the dead-zone edge: 0.7 - innerHalf
	innerHalf := 0.5 / 2 * (1 - 2*sim.InnerMargin)
	if got := xs.Last().V; math.Abs(got-(0.7-innerHalf)) > 1e-3 {
		t.Errorf("centre settled at %v, want about %v", got, 0.7-innerHalf)
	}
	if ys.Last().V != 0.5 {
		t.Errorf("y should not move, got %v", ys.Last().V)
	}
}

func TestCursorTimelineAndTracks(t *testing.T) {
	t.Parallel()

	samples := make([]tracking.CursorSample, 0, 500)
	for i := 0; i < 500; i++ {
		samples = append(samples, tracking.CursorSample{
			TimestampMs: int64(i * 50),
			X:           float64(i%100) / 100,
			Y:           0.5,
		})
	}
	points := CursorTimeline(samples, 2)
	if points[0].T != -2 || points[40].T != 0 {
		t.Errorf("trim offset not applied: %v, %v", points[0].T, points[40].T)
	}

	xs, ys, ok := CursorTracks(points, 100)
	if !ok {
		t.Fatal("expected cursor tracks")
	}
	if xs.Len() > 100 || ys.Len() > 100 {
		t.Errorf("cursor tracks have %d keyframes, cap is 100", xs.Len())
	}
	first, last := points[0], points[len(points)-1]
	if xs.Eval(first.T) != first.X || xs.Eval(last.T) != last.X {
		t.Error("cursor track endpoints must match the unsampled log")
	}

	if _, _, ok := CursorTracks(nil, 100); ok {
		t.Error("empty log should not produce tracks")
	}
}

func TestSimulateMergesCloseClosingKeyframe(t *testing.T) {
	t.Parallel()
	sim := testSimulator()

	var cursor []CursorPoint
	for ts := 0.0; ts < 5; ts += 0.05 {
		cursor = append(cursor, CursorPoint{T: ts, X: 0.1 + 0.16*ts, Y: 0.9 - 0.16*ts})
	}

	// the end lands just past a tick, closer than the printed precision
	for _, off := range []float64{5e-8, 3e-7, 9e-7} {
		end := 1 + 120.0/60 + off
		xs, ys := sim.Simulate(0.2, 0.8, 2, 1, end, cursor)

		keys := xs.Keys()
		for i := 1; i < len(keys); i++ {
			if gap := keys[i].T - keys[i-1].T; gap < minKeyGap {
				t.Errorf("end+%g: keyframes %d and %d are %g apart", off, i-1, i, gap)
			}
		}
		if last := xs.Last().T; last != end {
			t.Errorf("end+%g: last keyframe at %v, want %v", off, last, end)
		}
		for _, expr := range []string{xs.Expr("t"), ys.Expr("t")} {
			if strings.Contains(expr, ")/0,") {
				t.Errorf("end+%g: expression divides by zero: %s", off, expr)
			}
		}
	}
}
