package video

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"
)

// Family groups encoders that share a quality control
type Family int

const (
	X264 Family = iota
	NVENC
	VideoToolbox
	QSV
	AMF
)

type Codec struct {
	Name     string
	Family   Family
	Hardware bool
}

var ErrUnknownQuality = errors.New("unknown quality preset")

var (
	Software         = Codec{Name: "libx264", Family: X264}
	h264VideoToolbox = Codec{Name: "h264_videotoolbox", Family: VideoToolbox, Hardware: true}
	h264NVENC        = Codec{Name: "h264_nvenc", Family: NVENC, Hardware: true}
	h264QSV          = Codec{Name: "h264_qsv", Family: QSV, Hardware: true}
	h264AMF          = Codec{Name: "h264_amf", Family: AMF, Hardware: true}
)

// hardware encoders in order of preference; VideoToolbox leads on darwin
var hardwarePreference = []Codec{h264NVENC, h264QSV, h264AMF}

// quality values per family for high, medium, low
var qualityTable = map[Family][3]string{
	X264:         {"18", "23", "28"},
	NVENC:        {"19", "24", "30"},
	VideoToolbox: {"70", "55", "40"},
	QSV:          {"20", "25", "31"},
	AMF:          {"18", "23", "28"},
}

func qualityIndex(quality string) (int, error) {
	switch quality {
	case "high", "":
		return 0, nil
	case "medium":
		return 1, nil
	case "low":
		return 2, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownQuality, quality)
}

// QualityArgs maps a quality preset onto the codec's own rate control
func QualityArgs(c Codec, quality string) ([]string, error) {
	i, err := qualityIndex(quality)
	if err != nil {
		return nil, err
	}
	v := qualityTable[c.Family][i]
	switch c.Family {
	case NVENC:
		return []string{"-rc", "vbr", "-cq", v, "-b:v", "0"}, nil
	case VideoToolbox:
		return []string{"-q:v", v}, nil
	case QSV:
		return []string{"-global_quality", v}, nil
	case AMF:
		return []string{"-rc", "cqp", "-qp_i", v, "-qp_p", v}, nil
	default:
		return []string{"-crf", v, "-preset", "medium"}, nil
	}
}

// EncodeError is the terminal failure of an export encode
type EncodeError struct {
	Encoder string
	Attempt int
	Stderr  string // last lines of ffmpeg's diagnostics
	Err     error
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("encoding with %s failed (attempt %d): %v", e.Encoder, e.Attempt, e.Err)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// EncodeJob is one export encode. Args hold everything up to the codec
// selection (inputs, filter graph, maps); the encoder appends the rest.
type EncodeJob struct {
	Args       []string
	Output     string
	Quality    string
	Extra      []string // container flags placed before the output
	OnProgress func(time.Duration)
}

// Encoder picks a hardware H.264 encoder when one is available and falls
// back to libx264 once if it fails.
type Encoder struct {
	runner   Runner
	hardware bool
	goos     string
	logger   *slog.Logger
}

func NewEncoder(runner Runner, hardware bool) *Encoder {
	return &Encoder{
		runner:   runner,
		hardware: hardware,
		goos:     runtime.GOOS,
		logger:   slog.With("component", "encoder"),
	}
}

// Detect probes ffmpeg for the preferred hardware encoder on this platform
func (e *Encoder) Detect(ctx context.Context) (Codec, bool) {
	out, err := e.runner.Output(ctx, []string{"-hide_banner", "-encoders"})
	if err != nil {
		e.logger.Debug("encoder probe failed", "error", err)
		return Codec{}, false
	}
	available := parseEncoders(out)

	candidates := hardwarePreference
	if e.goos == "darwin" {
		candidates = append([]Codec{h264VideoToolbox}, hardwarePreference...)
	}
	for _, c := range candidates {
		if available[c.Name] {
			return c, true
		}
	}
	return Codec{}, false
}

// parseEncoders reads the encoder names from "ffmpeg -encoders"
func parseEncoders(out []byte) map[string]bool {
	names := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// " V....D h264_nvenc  NVIDIA NVENC H.264 encoder"
		if len(fields) < 2 || len(fields[0]) != 6 || !strings.ContainsAny(fields[0][:1], "VAS") {
			continue
		}
		names[fields[1]] = true
	}
	return names
}

func (e *Encoder) args(c Codec, job EncodeJob) ([]string, error) {
	quality, err := QualityArgs(c, job.Quality)
	if err != nil {
		return nil, err
	}
	args := append([]string{}, job.Args...)
	args = append(args, "-c:v", c.Name)
	args = append(args, quality...)
	args = append(args, job.Extra...)
	return append(args, "-progress", "pipe:1", "-nostats", "-y", job.Output), nil
}

// Encode runs the job and returns the codec that produced the output
func (e *Encoder) Encode(ctx context.Context, job EncodeJob) (Codec, error) {
	codec := Software
	if e.hardware {
		if hw, ok := e.Detect(ctx); ok {
			codec = hw
		}
	}
	e.logger.Info("encoding", "encoder", codec.Name, "output", job.Output)

	err := e.attempt(ctx, codec, job, 1)
	if err == nil || !codec.Hardware || ctx.Err() != nil {
		return codec, err
	}

	e.logger.Warn("hardware encoder failed, retrying with software", "encoder", codec.Name, "error", err)
	if err := e.attempt(ctx, Software, job, 2); err != nil {
		return Software, err
	}
	return Software, nil
}

func (e *Encoder) attempt(ctx context.Context, c Codec, job EncodeJob, n int) error {
	args, err := e.args(c, job)
	if err != nil {
		return err
	}
	stderr, err := e.runner.Run(ctx, args, job.OnProgress)
	if err != nil {
		return &EncodeError{Encoder: c.Name, Attempt: n, Stderr: lastLines(stderr, 10), Err: err}
	}
	return nil
}
