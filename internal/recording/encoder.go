package recording

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/vedantwpatil/FocusFrame/internal/capture"
)

var ErrEncoderStart = errors.New("failed to start encoder")

// EncoderOptions describes the raw stream handed to the live encoder
type EncoderOptions struct {
	Output      string
	Width       int
	Height      int
	FPS         int
	PixelFormat string
	Codec       string
	Preset      string
	Buffers     int
}

// EncoderSink is where paced frames end up during a recording
type EncoderSink interface {
	capture.FrameSink
	Close() error
}

// EncoderFactory starts an encoder for one session
type EncoderFactory func(opts EncoderOptions) (EncoderSink, error)

// EncoderArgs builds the ffmpeg command line for raw frames on stdin
func EncoderArgs(opts EncoderOptions) []string {
	codec := opts.Codec
	if codec == "" {
		codec = "libx264"
	}
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", opts.PixelFormat,
		"-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-framerate", strconv.Itoa(opts.FPS),
		"-i", "-",
		"-c:v", codec,
		"-pix_fmt", "yuv420p",
	}
	if opts.Preset != "" {
		args = append(args, "-preset", opts.Preset)
	}
	return append(args, "-y", opts.Output)
}

// LiveEncoder feeds frames to an ffmpeg process through a ChannelSink
type LiveEncoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	sink   *ChannelSink
	stderr bytes.Buffer
}

// StartLiveEncoder spawns ffmpeg and returns once the process is running
func StartLiveEncoder(opts EncoderOptions) (EncoderSink, error) {
	e := &LiveEncoder{}
	e.cmd = exec.Command("ffmpeg", EncoderArgs(opts)...)
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get stdin pipe: %w", ErrEncoderStart, err)
	}
	e.stdin = stdin

	if err := e.cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoderStart, err)
	}
	e.sink = NewChannelSink(stdin, opts.Width, opts.Height, opts.Buffers)
	return e, nil
}

func (e *LiveEncoder) WriteFrame(fb *capture.FrameBuffer) error {
	return e.sink.WriteFrame(fb)
}

// Close flushes queued frames, closes ffmpeg's stdin and waits for it to
// finish the file.
func (e *LiveEncoder) Close() error {
	sinkErr := e.sink.Close()
	if err := e.stdin.Close(); err != nil && sinkErr == nil {
		sinkErr = fmt.Errorf("failed to close encoder input: %w", err)
	}

	if err := e.cmd.Wait(); err != nil {
		return errors.Join(sinkErr, fmt.Errorf("ffmpeg exited with %w: %s", err, stderrTail(e.stderr.String(), 5)))
	}
	return sinkErr
}

func stderrTail(s string, lines int) string {
	parts := strings.Split(strings.TrimSpace(s), "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, "\n")
}
