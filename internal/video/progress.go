package video

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter receives export progress in [0,1]
type ProgressReporter interface {
	Report(progress float64)
	ReportError(err error)
	ReportComplete()
}

// ProgressBar draws a single updating line on a terminal
type ProgressBar struct {
	mu          sync.Mutex
	out         io.Writer
	width       int
	current     float64
	startTime   time.Time
	lastUpdate  time.Time
	description string
}

func NewProgressBar(description string) *ProgressBar {
	return NewProgressBarTo(os.Stdout, description)
}

func NewProgressBarTo(out io.Writer, description string) *ProgressBar {
	return &ProgressBar{
		out:         out,
		width:       30,
		startTime:   time.Now(),
		description: description,
	}
}

func (p *ProgressBar) Report(progress float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = clamp01(progress)

	// at most ten redraws a second
	if time.Since(p.lastUpdate) < 100*time.Millisecond {
		return
	}
	p.draw()
}

func (p *ProgressBar) draw() {
	p.lastUpdate = time.Now()
	completed := int(float64(p.width) * p.current)
	bar := strings.Repeat("=", completed) + strings.Repeat("-", p.width-completed)
	fmt.Fprintf(p.out, "\r%s [%s] %.1f%% Elapsed: %v",
		p.description,
		bar,
		p.current*100,
		time.Since(p.startTime).Round(time.Second),
	)
}

func (p *ProgressBar) ReportError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\nError: %v\n", err)
}

func (p *ProgressBar) ReportComplete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = 1
	p.draw()
	fmt.Fprintln(p.out)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
