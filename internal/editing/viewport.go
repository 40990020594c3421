package editing

import (
	"math"
	"sort"

	"github.com/vedantwpatil/FocusFrame/internal/config"
)

// CursorPoint is a cursor sample on the trimmed timeline, in seconds
type CursorPoint struct {
	T, X, Y float64
}

// minKeyGap is the smallest keyframe spacing formatNum prints as non-zero
const minKeyGap = 1e-6

// PanSimulator follows the cursor during an effect's hold phase. The
// viewport centre stays put while the cursor is inside a dead zone and is
// pulled towards it proportionally once it leaves, never far enough to show
// anything outside the frame.
type PanSimulator struct {
	RateHz       float64
	OutputEvery  int
	MaxKeyframes int
	InnerMargin  float64
	Gain         float64
}

func NewPanSimulator(cfg config.PanConfig) PanSimulator {
	return PanSimulator{
		RateHz:       float64(cfg.RateHz),
		OutputEvery:  cfg.OutputEvery,
		MaxKeyframes: cfg.MaxKeyframes,
		InnerMargin:  cfg.InnerMargin,
		Gain:         cfg.Gain,
	}
}

// ViewportRange is the interval the centre may take at the given scale
func ViewportRange(scale float64) (lo, hi float64) {
	lo, hi = 0.5/scale, 1-0.5/scale
	if lo > hi {
		return 0.5, 0.5
	}
	return lo, hi
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Simulate runs over [start, end] starting from the clamped target and
// returns the centre trajectory per axis. cursor must be sorted by T.
func (p PanSimulator) Simulate(targetX, targetY, scale, start, end float64, cursor []CursorPoint) (x, y Track) {
	lo, hi := ViewportRange(scale)
	cx, cy := clamp(targetX, lo, hi), clamp(targetY, lo, hi)

	if end <= start || !hasSamplesIn(cursor, start, end) {
		return Constant(start, cx), Constant(start, cy)
	}

	rate := p.RateHz
	if rate <= 0 {
		rate = 60
	}
	every := max(p.OutputEvery, 1)
	innerHalf := 0.5 / scale * (1 - 2*p.InnerMargin)

	step := 1 / rate
	ticks := int(math.Floor((end - start) * rate))
	var xs, ys []Keyframe
	emit := func(t float64) {
		// the closing tick can land within rounding distance of the previous one
		if n := len(xs); n > 0 && t-xs[n-1].T < minKeyGap {
			xs[n-1].V, ys[n-1].V = cx, cy
			return
		}
		xs = append(xs, Keyframe{T: t, V: cx})
		ys = append(ys, Keyframe{T: t, V: cy})
	}

	for i := 0; i <= ticks; i++ {
		t := start + float64(i)*step
		if i == ticks && math.Abs(end-t) < minKeyGap {
			t = end
		}
		if i > 0 {
			px, py := cursorAt(cursor, t)
			cx = clamp(cx+follow(px-cx, innerHalf, p.Gain), lo, hi)
			cy = clamp(cy+follow(py-cy, innerHalf, p.Gain), lo, hi)
		}
		if i%every == 0 || i == ticks {
			emit(t)
		}
	}
	if last := xs[len(xs)-1].T; end-last >= minKeyGap {
		px, py := cursorAt(cursor, end)
		cx = clamp(cx+follow(px-cx, innerHalf, p.Gain), lo, hi)
		cy = clamp(cy+follow(py-cy, innerHalf, p.Gain), lo, hi)
		emit(end)
	}

	x = Track{keys: xs}.Subsample(p.MaxKeyframes)
	y = Track{keys: ys}.Subsample(p.MaxKeyframes)
	return x, y
}

// follow returns how far the centre moves towards an offset d
func follow(d, innerHalf, gain float64) float64 {
	over := math.Abs(d) - innerHalf
	if over <= 0 {
		return 0
	}
	return math.Copysign(over*gain, d)
}

func hasSamplesIn(cursor []CursorPoint, start, end float64) bool {
	i := sort.Search(len(cursor), func(i int) bool { return cursor[i].T >= start })
	return i < len(cursor) && cursor[i].T <= end
}

// cursorAt interpolates between the samples around t, holding the first or
// last sample outside the logged range.
func cursorAt(cursor []CursorPoint, t float64) (x, y float64) {
	n := len(cursor)
	i := sort.Search(n, func(i int) bool { return cursor[i].T > t })
	switch {
	case i == 0:
		return cursor[0].X, cursor[0].Y
	case i == n:
		return cursor[n-1].X, cursor[n-1].Y
	}
	a, b := cursor[i-1], cursor[i]
	if b.T == a.T {
		return b.X, b.Y
	}
	u := (t - a.T) / (b.T - a.T)
	return a.X + (b.X-a.X)*u, a.Y + (b.Y-a.Y)*u
}
