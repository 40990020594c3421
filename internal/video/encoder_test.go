package video

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

const encodersOutput = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)
 V....D h264_nvenc           NVIDIA NVENC H.264 encoder (codec h264)
 V....D h264_videotoolbox    VideoToolbox H.264 Encoder (codec h264)
 A....D aac                  AAC (Advanced Audio Coding)
`

// fakeRunner records every ffmpeg invocation and fails encodes for the
// codecs listed in fail.
type fakeRunner struct {
	mu       sync.Mutex
	encoders string
	probeErr error
	fail     map[string]bool
	calls    [][]string
	progress []time.Duration
}

func (r *fakeRunner) Output(ctx context.Context, args []string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, args)
	r.mu.Unlock()
	if r.probeErr != nil {
		return nil, r.probeErr
	}
	return []byte(r.encoders), nil
}

func (r *fakeRunner) Run(ctx context.Context, args []string, onProgress func(time.Duration)) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, args)
	r.mu.Unlock()

	codec := argValue(args, "-c:v")
	if r.fail[codec] {
		return "frame=0\n[" + codec + "] Cannot load encoder\nConversion failed!", errors.New("exit status 1")
	}
	if onProgress != nil {
		for _, d := range r.progress {
			onProgress(d)
		}
	}
	return "", nil
}

func (r *fakeRunner) runs() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out [][]string
	for _, c := range r.calls {
		if slices.Contains(c, "-c:v") {
			out = append(out, c)
		}
	}
	return out
}

func argValue(args []string, key string) string {
	i := slices.Index(args, key)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

func newTestEncoder(r Runner, goos string) *Encoder {
	e := NewEncoder(r, true)
	e.goos = goos
	return e
}

func TestEncoderFallsBackOnce(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{encoders: encodersOutput, fail: map[string]bool{"h264_nvenc": true}}
	enc := newTestEncoder(runner, "linux")

	codec, err := enc.Encode(context.Background(), EncodeJob{Args: []string{"-i", "in.mp4"}, Output: "out.mp4", Quality: "medium"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if codec != Software {
		t.Errorf("final codec = %v, want libx264", codec.Name)
	}

	runs := runner.runs()
	if len(runs) != 2 {
		t.Fatalf("got %d encode attempts, want 2", len(runs))
	}
	if argValue(runs[0], "-c:v") != "h264_nvenc" || argValue(runs[0], "-cq") != "24" {
		t.Errorf("first attempt args = %v", runs[0])
	}
	if argValue(runs[1], "-c:v") != "libx264" || argValue(runs[1], "-crf") != "23" {
		t.Errorf("retry should use libx264 with crf 23: %v", runs[1])
	}
	if runs[1][len(runs[1])-1] != "out.mp4" {
		t.Errorf("output must come last: %v", runs[1])
	}
}

func TestEncoderGivesUpAfterSoftwareFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{encoders: encodersOutput, fail: map[string]bool{"h264_nvenc": true, "libx264": true}}
	enc := newTestEncoder(runner, "linux")

	_, err := enc.Encode(context.Background(), EncodeJob{Output: "out.mp4"})
	var encErr *EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected *EncodeError, got %v", err)
	}
	if encErr.Encoder != "libx264" || encErr.Attempt != 2 {
		t.Errorf("EncodeError = %s attempt %d, want libx264 attempt 2", encErr.Encoder, encErr.Attempt)
	}
	if !strings.Contains(encErr.Stderr, "Conversion failed!") {
		t.Errorf("stderr tail missing diagnostics: %q", encErr.Stderr)
	}
	if got := len(runner.runs()); got != 2 {
		t.Errorf("got %d attempts, want exactly 2", got)
	}
}

func TestEncoderSoftwareFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{probeErr: errors.New("no ffmpeg"), fail: map[string]bool{"libx264": true}}
	enc := newTestEncoder(runner, "linux")

	_, err := enc.Encode(context.Background(), EncodeJob{Output: "out.mp4"})
	var encErr *EncodeError
	if !errors.As(err, &encErr) || encErr.Attempt != 1 {
		t.Fatalf("expected a single failed attempt, got %v", err)
	}
	if got := len(runner.runs()); got != 1 {
		t.Errorf("got %d attempts, want 1", got)
	}
}

func TestEncoderHardwareDisabled(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{encoders: encodersOutput}
	enc := NewEncoder(runner, false)

	codec, err := enc.Encode(context.Background(), EncodeJob{Output: "out.mp4"})
	if err != nil || codec != Software {
		t.Fatalf("Encode = %v, %v; want libx264", codec.Name, err)
	}
	if len(runner.calls) != 1 {
		t.Errorf("hardware probe should be skipped, got %d calls", len(runner.calls))
	}
}

func TestDetectPreference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos     string
		encoders string
		want     string
	}{
		{"darwin", encodersOutput, "h264_videotoolbox"},
		{"linux", encodersOutput, "h264_nvenc"},
		{"windows", " V....D h264_amf  AMD AMF H.264 Encoder\n V....D h264_qsv  H.264 QSV\n", "h264_qsv"},
		{"linux", " V....D libx264  libx264\n", ""},
	}
	for _, tt := range tests {
		enc := newTestEncoder(&fakeRunner{encoders: tt.encoders}, tt.goos)
		codec, ok := enc.Detect(context.Background())
		if tt.want == "" {
			if ok {
				t.Errorf("%s: unexpected hardware encoder %s", tt.goos, codec.Name)
			}
			continue
		}
		if !ok || codec.Name != tt.want {
			t.Errorf("%s: Detect() = %q, want %q", tt.goos, codec.Name, tt.want)
		}
	}
}

func TestQualityArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		codec   Codec
		quality string
		key     string
		want    string
	}{
		{Software, "high", "-crf", "18"},
		{Software, "medium", "-crf", "23"},
		{Software, "low", "-crf", "28"},
		{h264NVENC, "high", "-cq", "19"},
		{h264VideoToolbox, "high", "-q:v", "70"},
		{h264VideoToolbox, "low", "-q:v", "40"},
		{h264QSV, "medium", "-global_quality", "25"},
		{h264AMF, "low", "-qp_p", "28"},
	}
	for _, tt := range tests {
		args, err := QualityArgs(tt.codec, tt.quality)
		if err != nil {
			t.Fatalf("QualityArgs(%s, %s) failed: %v", tt.codec.Name, tt.quality, err)
		}
		if got := argValue(args, tt.key); got != tt.want {
			t.Errorf("QualityArgs(%s, %s) %s = %q, want %q", tt.codec.Name, tt.quality, tt.key, got, tt.want)
		}
	}

	if _, err := QualityArgs(Software, "lossless"); !errors.Is(err, ErrUnknownQuality) {
		t.Errorf("expected ErrUnknownQuality, got %v", err)
	}
}
