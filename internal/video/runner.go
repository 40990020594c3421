package video

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Runner executes ffmpeg. Run reports encoding progress through onProgress
// (which may be nil) and returns ffmpeg's stderr alongside any error.
type Runner interface {
	Run(ctx context.Context, args []string, onProgress func(time.Duration)) (stderr string, err error)
	Output(ctx context.Context, args []string) ([]byte, error)
}

// ExecRunner runs the ffmpeg binary found on PATH
type ExecRunner struct {
	Binary string
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{Binary: "ffmpeg"}
}

func (r *ExecRunner) Output(ctx context.Context, args []string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, r.Binary, args...).Output()
	if err != nil {
		return out, fmt.Errorf("failed to run %s: %w", r.Binary, err)
	}
	return out, nil
}

func (r *ExecRunner) Run(ctx context.Context, args []string, onProgress func(time.Duration)) (string, error) {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	stderr := &tailBuffer{max: 64 * 1024}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start %s: %w", r.Binary, err)
	}

	ParseProgress(stdout, onProgress)

	if err := cmd.Wait(); err != nil {
		return stderr.String(), err
	}
	return stderr.String(), nil
}

// ParseProgress reads ffmpeg "-progress" key=value output and reports the
// encoded position. out_time_ms is in microseconds despite its name.
func ParseProgress(r io.Reader, onProgress func(time.Duration)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok || onProgress == nil {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil || us < 0 {
				continue
			}
			onProgress(time.Duration(us) * time.Microsecond)
		}
	}
}

// tailBuffer keeps the last max bytes written to it
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

// lastLines returns at most n trailing non-empty lines of s
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
