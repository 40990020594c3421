package editing

import (
	"time"

	"github.com/vedantwpatil/FocusFrame/internal/tracking"
)

// EffectsFromClicks turns recorded triple clicks into zoom effects centred on
// the click. Each effect lasts one cooldown minus its release, so the windows
// of consecutive triggers (at least one cooldown apart) never touch.
func EffectsFromClicks(clicks []tracking.ClickEvent, cooldown time.Duration, scale float64, easing string) []ZoomEffect {
	ease, err := EasingDuration(easing)
	if err != nil {
		ease, _ = EasingDuration(DefaultEasing)
		easing = DefaultEasing
	}
	length := cooldown.Seconds() - ease
	if length < ease {
		length = ease
	}

	effects := make([]ZoomEffect, 0, len(clicks))
	for _, c := range clicks {
		if c.Flags&tracking.TripleClick == 0 {
			continue
		}
		start := c.Seconds()
		effects = append(effects, ZoomEffect{
			Start:   start,
			End:     start + length,
			Scale:   scale,
			TargetX: c.X,
			TargetY: c.Y,
			Easing:  easing,
		})
	}
	return effects
}
