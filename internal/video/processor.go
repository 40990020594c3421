package video

import (
	"context"
	"fmt"
	"os"
)

// Processor runs plain ffmpeg jobs that need no re-encode
type Processor struct {
	runner Runner
}

func NewProcessor(runner Runner) *Processor {
	return &Processor{runner: runner}
}

// TrimArgs cuts [start, end] seconds by stream copy. Cuts land on keyframes.
func TrimArgs(input, output string, start, end float64) []string {
	args := []string{"-hide_banner", "-ss", fmt.Sprintf("%.3f", start), "-i", input}
	if end > start {
		args = append(args, "-t", fmt.Sprintf("%.3f", end-start))
	}
	return append(args, "-map", "0", "-c", "copy", "-avoid_negative_ts", "make_zero", "-y", output)
}

// Trim writes the selected range of input to output without re-encoding.
// An end of 0 keeps everything after start.
func (p *Processor) Trim(ctx context.Context, input, output string, start, end float64) error {
	if start < 0 || (end != 0 && end <= start) {
		return fmt.Errorf("invalid trim range [%.3f, %.3f]", start, end)
	}
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("input file does not exist: %s", input)
	}

	stderr, err := p.runner.Run(ctx, TrimArgs(input, output, start, end), nil)
	if err != nil {
		return fmt.Errorf("failed to trim %s: %w\n%s", input, err, lastLines(stderr, 5))
	}
	return nil
}
