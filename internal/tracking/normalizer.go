package tracking

import "github.com/vedantwpatil/FocusFrame/internal/capture"

// Normalizer maps screen coordinates into the [0,1] space of a capture target.
// The bounds are fixed when the session starts; a window that moves afterwards
// is not followed.
type Normalizer struct {
	bounds capture.Bounds
}

func NewNormalizer(bounds capture.Bounds) Normalizer {
	return Normalizer{bounds: bounds}
}

func (n Normalizer) Bounds() capture.Bounds {
	return n.bounds
}

// Normalize returns ok == false when the point lies outside the target
func (n Normalizer) Normalize(rawX, rawY float64) (nx, ny float64, ok bool) {
	if !n.bounds.Valid() {
		return 0, 0, false
	}
	nx = (rawX - float64(n.bounds.X)) / float64(n.bounds.Width)
	ny = (rawY - float64(n.bounds.Y)) / float64(n.bounds.Height)
	if nx < 0 || nx > 1 || ny < 0 || ny > 1 {
		return 0, 0, false
	}
	return nx, ny, true
}

func (n Normalizer) Denormalize(nx, ny float64) (rawX, rawY float64) {
	rawX = float64(n.bounds.X) + nx*float64(n.bounds.Width)
	rawY = float64(n.bounds.Y) + ny*float64(n.bounds.Height)
	return rawX, rawY
}
