package capture

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrSinkWrite = errors.New("failed to write frame to encoder")

// FrameSink receives paced frames. The buffer is reused after WriteFrame
// returns, so sinks that keep the data must copy it.
type FrameSink interface {
	WriteFrame(fb *FrameBuffer) error
}

// PacerStats is a snapshot of the pacing counters
type PacerStats struct {
	Captured   uint64
	Written    uint64
	Duplicated uint64
	Elapsed    time.Duration
}

// Pacer turns irregular captured frames into a constant frame rate stream.
// After every push at elapsed time e since the first frame, exactly
// ceil(e*fps) frames have been written (the first frame is always written).
// Gaps are filled by repeating the latest frame.
//
// A Pacer is owned by the capture goroutine and is not safe for concurrent use.
type Pacer struct {
	fps  float64
	buf  *FrameBuffer
	sink FrameSink
	now  func() time.Time

	start      time.Time
	started    bool
	written    uint64
	captured   uint64
	duplicated uint64
}

// NewPacer sizes the tight buffer for the given capture size, dropping the last
// row or column when a dimension is odd.
func NewPacer(width, height int, fps float64, sink FrameSink) (*Pacer, error) {
	width, height = width&^1, height&^1
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBounds, width, height)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("invalid target fps: %f", fps)
	}
	return &Pacer{
		fps:  fps,
		buf:  NewFrameBuffer(width, height),
		sink: sink,
		now:  time.Now,
	}, nil
}

// Size returns the even-aligned output frame size
func (p *Pacer) Size() (width, height int) {
	return p.buf.Width, p.buf.Height
}

// Push normalizes f into the tight buffer and writes every frame that is due.
// It returns the number of frames written for this push. Errors wrapping
// ErrSinkWrite are fatal to the session; ErrFrameGeometry only skips f.
func (p *Pacer) Push(f RawFrame) (int, error) {
	now := p.now()
	if !p.started {
		p.start = now
		p.started = true
	}
	p.captured++

	if err := p.buf.CopyFrom(f); err != nil {
		return 0, err
	}

	due := FramesDue(now.Sub(p.start), p.fps)
	if due < 1 {
		due = 1
	}

	n := 0
	for p.written < due {
		if err := p.sink.WriteFrame(p.buf); err != nil {
			return n, fmt.Errorf("%w: frame %d: %w", ErrSinkWrite, p.written, err)
		}
		p.written++
		n++
	}
	if n > 1 {
		p.duplicated += uint64(n - 1)
	}
	return n, nil
}

// Started returns the instant of the first pushed frame, which is t = 0 of
// the encoded stream.
func (p *Pacer) Started() (time.Time, bool) {
	return p.start, p.started
}

func (p *Pacer) Written() uint64 {
	return p.written
}

func (p *Pacer) Stats() PacerStats {
	stats := PacerStats{
		Captured:   p.captured,
		Written:    p.written,
		Duplicated: p.duplicated,
	}
	if p.started {
		stats.Elapsed = p.now().Sub(p.start)
	}
	return stats
}

// FramesDue returns ceil(elapsed*fps). Products within a nanosecond-scale
// tolerance of an integer round down so exact frame boundaries are not
// counted twice.
func FramesDue(elapsed time.Duration, fps float64) uint64 {
	if elapsed <= 0 || fps <= 0 {
		return 0
	}
	x := elapsed.Seconds() * fps
	return uint64(math.Ceil(x - 1e-9))
}
