package editing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrEmptyTrack         = errors.New("track has no keyframes")
	ErrUnorderedKeyframes = errors.New("keyframe times must be strictly increasing")
)

type Keyframe struct {
	T float64
	V float64
}

// Track is a piecewise linear function of time: linear between keyframes,
// constant before the first and after the last.
type Track struct {
	keys []Keyframe
}

func NewTrack(keys []Keyframe) (Track, error) {
	if len(keys) == 0 {
		return Track{}, ErrEmptyTrack
	}
	for i := 1; i < len(keys); i++ {
		if !(keys[i].T > keys[i-1].T) {
			return Track{}, fmt.Errorf("%w: t[%d]=%g after t[%d]=%g",
				ErrUnorderedKeyframes, i, keys[i].T, i-1, keys[i-1].T)
		}
	}
	return Track{keys: append([]Keyframe(nil), keys...)}, nil
}

// Constant is a single keyframe track
func Constant(t, v float64) Track {
	return Track{keys: []Keyframe{{T: t, V: v}}}
}

func (tr Track) Len() int {
	return len(tr.keys)
}

func (tr Track) Keys() []Keyframe {
	return append([]Keyframe(nil), tr.keys...)
}

func (tr Track) First() Keyframe {
	return tr.keys[0]
}

func (tr Track) Last() Keyframe {
	return tr.keys[len(tr.keys)-1]
}

// Eval returns the interpolated value at t
func (tr Track) Eval(t float64) float64 {
	n := len(tr.keys)
	if n == 0 {
		return 0
	}
	if t <= tr.keys[0].T {
		return tr.keys[0].V
	}
	if t >= tr.keys[n-1].T {
		return tr.keys[n-1].V
	}
	// first keyframe strictly after t; i >= 1 here
	i := sort.Search(n, func(i int) bool { return tr.keys[i].T > t })
	a, b := tr.keys[i-1], tr.keys[i]
	u := (t - a.T) / (b.T - a.T)
	return a.V + (b.V-a.V)*u
}

// Subsample keeps at most max keyframes, picked uniformly by index. The
// first and last keyframes always survive so the time range is unchanged.
func (tr Track) Subsample(max int) Track {
	n := len(tr.keys)
	if max < 2 {
		max = 2
	}
	if n <= max {
		return tr
	}
	keys := make([]Keyframe, max)
	for i := 0; i < max; i++ {
		idx := int(math.Round(float64(i) * float64(n-1) / float64(max-1)))
		keys[i] = tr.keys[idx]
	}
	return Track{keys: keys}
}

// Expr serializes the track as a flat ffmpeg expression in variable v:
//
//	v0 + sum((v[i+1]-v[i]) * clip((v-t[i])/(t[i+1]-t[i]), 0, 1))
//
// Each segment ramps from 0 to 1 across its own interval and stays
// saturated afterwards, so the sum reproduces Eval without nesting.
func (tr Track) Expr(v string) string {
	if len(tr.keys) == 0 {
		return "0"
	}
	var b strings.Builder
	b.WriteString(formatNum(tr.keys[0].V))
	for i := 0; i+1 < len(tr.keys); i++ {
		a, c := tr.keys[i], tr.keys[i+1]
		dv := c.V - a.V
		if dv == 0 {
			continue
		}
		b.WriteString(signed(dv))
		b.WriteString("*clip((")
		b.WriteString(v)
		b.WriteString(signed(-a.T))
		b.WriteString(")/")
		b.WriteString(formatNum(c.T - a.T))
		b.WriteString(",0,1)")
	}
	return b.String()
}

// formatNum prints v with at most 6 decimals and no exponent, which the
// ffmpeg expression parser always accepts.
func formatNum(v float64) string {
	v = math.Round(v*1e6) / 1e6
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// signed renders v with an explicit leading operator for concatenation
func signed(v float64) string {
	s := formatNum(v)
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}
