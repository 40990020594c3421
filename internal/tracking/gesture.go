package tracking

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/vedantwpatil/FocusFrame/internal/config"
)

type click struct {
	at   time.Duration
	x, y float64
}

// Detector turns raw pointer input into the session's click and cursor logs.
// It is called from the hook goroutine and the cursor poller concurrently.
type Detector struct {
	cfg  config.GestureConfig
	norm Normalizer
	log  *Log

	mu          sync.Mutex
	history     []click
	lastTrigger time.Duration
	triggered   bool
	lastSample  time.Duration
	sampled     bool

	logger *slog.Logger
}

func NewDetector(cfg config.GestureConfig, norm Normalizer, log *Log) *Detector {
	return &Detector{
		cfg:     cfg,
		norm:    norm,
		log:     log,
		history: make([]click, 0, 2),
		logger:  slog.With("component", "gesture"),
	}
}

// Click handles a left button press at session time at. It reports whether
// the press completed an accepted triple click.
func (d *Detector) Click(at time.Duration, rawX, rawY float64) bool {
	x, y, ok := d.norm.Normalize(rawX, rawY)
	if !ok {
		return false
	}
	c := click{at: at, x: x, y: y}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.qualifies(c) {
		if !d.triggered || at-d.lastTrigger > d.cfg.Cooldown {
			d.log.AddClick(ClickEvent{
				TimestampMs: at.Milliseconds(),
				X:           x,
				Y:           y,
				Flags:       TripleClick,
			})
			d.lastTrigger = at
			d.triggered = true
			d.history = d.history[:0]
			d.logger.Debug("triple click accepted", "at", at, "x", x, "y", y)
			return true
		}
		d.logger.Debug("triple click ignored during cooldown",
			"at", at, "since_last", at-d.lastTrigger)
	}

	if len(d.history) == 2 {
		d.history[0] = d.history[1]
		d.history = d.history[:1]
	}
	d.history = append(d.history, c)
	return false
}

func (d *Detector) qualifies(third click) bool {
	if len(d.history) < 2 {
		return false
	}
	first, second := d.history[0], d.history[1]
	if third.at-first.at > d.cfg.Window || third.at-second.at > d.cfg.PairGap {
		return false
	}
	return d.near(first, second) && d.near(second, third) && d.near(first, third)
}

func (d *Detector) near(a, b click) bool {
	return math.Hypot(a.x-b.x, a.y-b.y) <= d.cfg.Radius
}

// Move records a cursor sample when at least SampleInterval has passed since
// the previous one. Positions outside the target are dropped.
func (d *Detector) Move(at time.Duration, rawX, rawY float64) bool {
	x, y, ok := d.norm.Normalize(rawX, rawY)
	if !ok {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sampled && at-d.lastSample < d.cfg.SampleInterval {
		return false
	}
	d.lastSample = at
	d.sampled = true
	d.log.AddSample(CursorSample{TimestampMs: at.Milliseconds(), X: x, Y: y})
	return true
}
