package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vedantwpatil/FocusFrame/internal/capture"
	"github.com/vedantwpatil/FocusFrame/internal/config"
	"github.com/vedantwpatil/FocusFrame/internal/tracking"
)

var (
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
)

// Options selects what to record and where
type Options struct {
	Output  string
	Kind    capture.Kind
	Display int
	PID     int // process owning the window, Kind Window only
}

// DefaultOutputName is used when the caller gives no output path
func DefaultOutputName(now time.Time) string {
	return "recording_" + now.Format("20060102_150405") + ".mp4"
}

// RecordingSession owns the state of one recording: the capture goroutine,
// the input goroutines and the click and cursor logs they fill.
type RecordingSession struct {
	ID        uuid.UUID
	Target    capture.Target
	Output    string
	FPS       int
	StartedAt time.Time

	log      *tracking.Log
	detector *tracking.Detector
	active   atomic.Bool
	origin   atomic.Pointer[time.Time] // first captured frame, nil until then
	cancel   context.CancelFunc
	done     chan struct{}

	mu       sync.Mutex
	err      error
	stats    capture.PacerStats
	duration time.Duration
}

func (s *RecordingSession) IsRecording() bool {
	return s.active.Load()
}

func (s *RecordingSession) IsDone() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed once the session has fully stopped
func (s *RecordingSession) Done() <-chan struct{} {
	return s.done
}

// Err is the error that ended the session. Only meaningful after Done.
func (s *RecordingSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *RecordingSession) Stats() capture.PacerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Log returns the recorded clicks and cursor samples. Call it after the
// session is done; while recording the result is a moving snapshot.
func (s *RecordingSession) Log() ([]tracking.ClickEvent, []tracking.CursorSample) {
	return s.log.Snapshot()
}

// elapsed is the input clock. It counts from the first captured frame so
// click and cursor times line up with the encoded video.
func (s *RecordingSession) elapsed() time.Duration {
	origin := s.origin.Load()
	if origin == nil {
		return 0
	}
	return time.Since(*origin)
}

// capturing gates input: events before the first frame have no place on
// the video timeline and are dropped.
func (s *RecordingSession) capturing() bool {
	return s.active.Load() && s.origin.Load() != nil
}

func (s *RecordingSession) markOrigin(pacer *capture.Pacer) {
	if s.origin.Load() != nil {
		return
	}
	if start, ok := pacer.Started(); ok {
		s.origin.Store(&start)
	}
}

// Stop clears the active flag and waits for the capture goroutine to finish
// writing and for the encoder to close the file.
func (s *RecordingSession) Stop() error {
	s.active.Store(false)
	s.cancel()
	<-s.done
	return s.Err()
}

func (s *RecordingSession) sessionLog() *SessionLog {
	clicks, cursor := s.log.Snapshot()
	started := s.StartedAt
	if origin := s.origin.Load(); origin != nil {
		started = *origin
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &SessionLog{
		ID:        s.ID,
		Target:    s.Target,
		FPS:       s.FPS,
		StartedAt: started,
		Duration:  s.duration,
		Output:    s.Output,
		Frames:    s.stats.Written,
		Clicks:    clicks,
		Cursor:    cursor,
	}
}

// Recorder starts and stops recording sessions, one at a time
type Recorder struct {
	config     *config.Config
	resolver   capture.Resolver
	newSource  func(capture.Target, time.Duration) capture.Source
	newEncoder EncoderFactory
	listener   tracking.Listener
	locate     tracking.Locator

	mu      sync.Mutex
	current *RecordingSession
	logger  *slog.Logger
}

func NewRecorder(cfg *config.Config) *Recorder {
	return &Recorder{
		config:   cfg,
		resolver: capture.DesktopResolver{},
		newSource: func(t capture.Target, poll time.Duration) capture.Source {
			return capture.NewScreenshotSource(t.Bounds, poll)
		},
		newEncoder: StartLiveEncoder,
		listener:   tracking.NewHookListener(),
		logger:     slog.With("component", "recorder"),
	}
}

func (r *Recorder) resolve(opts Options) (capture.Target, error) {
	switch opts.Kind {
	case capture.Window:
		return r.resolver.Window(opts.PID)
	default:
		return r.resolver.Monitor(opts.Display)
	}
}

// Start resolves the target, spawns the encoder and begins capturing. The
// returned session keeps running until Stop is called or capture fails.
func (r *Recorder) Start(ctx context.Context, opts Options) (*RecordingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && !r.current.IsDone() {
		return nil, ErrAlreadyRecording
	}

	target, err := r.resolve(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve capture target: %w", err)
	}

	output := opts.Output
	if output == "" {
		output = filepath.Join(r.config.Recording.OutputDir, DefaultOutputName(time.Now()))
	}
	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	rc := r.config.Recording
	src := r.newSource(target, rc.PollInterval)
	width, height := target.Bounds.EvenSize()

	enc, err := r.newEncoder(EncoderOptions{
		Output:      output,
		Width:       width,
		Height:      height,
		FPS:         rc.TargetFPS,
		PixelFormat: src.PixelFormat(),
		Codec:       rc.Encoder,
		Preset:      rc.Preset,
		Buffers:     rc.SinkBuffers,
	})
	if err != nil {
		return nil, err
	}

	pacer, err := capture.NewPacer(target.Bounds.Width, target.Bounds.Height, float64(rc.TargetFPS), enc)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create pacer: %w", err)
	}

	log := tracking.NewLog()
	sctx, cancel := context.WithCancel(ctx)
	s := &RecordingSession{
		ID:        uuid.New(),
		Target:    target,
		Output:    output,
		FPS:       rc.TargetFPS,
		StartedAt: time.Now(),
		log:       log,
		detector:  tracking.NewDetector(r.config.Gesture, tracking.NewNormalizer(target.Bounds), log),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.active.Store(true)
	r.current = s

	r.logger.Info("recording started",
		"session", s.ID,
		"target", target.Kind,
		"bounds", target.Bounds,
		"fps", rc.TargetFPS,
		"output", output)

	go r.run(sctx, s, src, pacer, enc)
	return s, nil
}

func (r *Recorder) run(ctx context.Context, s *RecordingSession, src capture.Source, pacer *capture.Pacer, enc EncoderSink) {
	defer close(s.done)

	inputCtx, stopInput := context.WithCancel(ctx)
	var inputs sync.WaitGroup
	inputs.Add(2)
	go func() {
		defer inputs.Done()
		if err := r.listener.Listen(inputCtx, s.detector, s.elapsed, s.capturing); err != nil {
			r.logger.Warn("input listener failed", "error", err)
		}
	}()
	go func() {
		defer inputs.Done()
		poller := tracking.NewPoller(r.config.Gesture.SampleInterval)
		if r.locate != nil {
			poller = tracking.NewPollerWith(r.locate, r.config.Gesture.SampleInterval)
		}
		poller.Run(inputCtx, s.detector, s.elapsed, s.capturing)
	}()

	captureErr := src.Run(ctx, func(f capture.RawFrame, ctl capture.Control) error {
		if !s.active.Load() {
			ctl.Stop()
			return nil
		}
		_, err := pacer.Push(f)
		s.markOrigin(pacer)
		if err != nil {
			if errors.Is(err, capture.ErrFrameGeometry) {
				r.logger.Warn("skipping frame", "error", err)
				return nil
			}
			return err
		}
		return nil
	})
	s.active.Store(false)

	stopInput()
	inputs.Wait()

	closeErr := enc.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("failed to finalize recording: %w", closeErr)
	}

	s.mu.Lock()
	s.stats = pacer.Stats()
	s.duration = s.stats.Elapsed
	s.err = errors.Join(captureErr, closeErr)
	s.mu.Unlock()

	if err := s.sessionLog().Save(SidecarPath(s.Output)); err != nil {
		s.mu.Lock()
		s.err = errors.Join(s.err, err)
		s.mu.Unlock()
	}

	stats := s.Stats()
	clicks, cursor := s.log.Snapshot()
	if err := s.Err(); err != nil {
		r.logger.Error("recording stopped with error", "session", s.ID, "error", err)
	} else {
		r.logger.Info("recording finished",
			"session", s.ID,
			"frames", stats.Written,
			"duplicated", stats.Duplicated,
			"clicks", len(clicks),
			"cursor_samples", len(cursor))
	}
}

// Stop ends the current session and waits for the output to be finalized
func (r *Recorder) Stop() error {
	r.mu.Lock()
	s := r.current
	r.mu.Unlock()
	if s == nil || s.IsDone() {
		return ErrNotRecording
	}
	return s.Stop()
}

func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil && r.current.IsRecording()
}

// Current returns the latest session, running or finished
func (r *Recorder) Current() *RecordingSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
