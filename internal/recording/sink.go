package recording

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/vedantwpatil/FocusFrame/internal/capture"
)

var ErrSinkClosed = errors.New("frame sink is closed")

// ChannelSink hands frames to a single writer goroutine through a bounded
// queue of pooled buffers. When every buffer is in flight WriteFrame blocks,
// so a slow encoder slows capture down instead of losing frames.
type ChannelSink struct {
	w      io.Writer
	free   chan *capture.FrameBuffer
	frames chan *capture.FrameBuffer
	done   chan struct{}

	mu     sync.Mutex
	err    error
	closed bool

	written atomic.Uint64
}

func NewChannelSink(w io.Writer, width, height, buffers int) *ChannelSink {
	if buffers < 1 {
		buffers = 1
	}
	s := &ChannelSink{
		w:      w,
		free:   make(chan *capture.FrameBuffer, buffers),
		frames: make(chan *capture.FrameBuffer, buffers),
		done:   make(chan struct{}),
	}
	for i := 0; i < buffers; i++ {
		s.free <- capture.NewFrameBuffer(width, height)
	}
	go s.run()
	return s
}

func (s *ChannelSink) run() {
	defer close(s.done)
	for fb := range s.frames {
		// After the first failure buffers are only recycled
		if s.Err() == nil {
			if _, err := s.w.Write(fb.Pix); err != nil {
				s.setErr(fmt.Errorf("failed to write frame: %w", err))
			} else {
				s.written.Add(1)
			}
		}
		s.free <- fb
	}
}

func (s *ChannelSink) setErr(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// Err returns the first write error, if any
func (s *ChannelSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// WriteFrame copies fb into a pooled buffer and queues it. It returns the
// latched writer error once one has occurred.
func (s *ChannelSink) WriteFrame(fb *capture.FrameBuffer) error {
	s.mu.Lock()
	closed, err := s.closed, s.err
	s.mu.Unlock()
	if closed {
		return ErrSinkClosed
	}
	if err != nil {
		return err
	}

	buf := <-s.free
	if len(buf.Pix) != len(fb.Pix) {
		s.free <- buf
		return fmt.Errorf("%w: frame is %dx%d, sink expects %dx%d",
			capture.ErrFrameGeometry, fb.Width, fb.Height, buf.Width, buf.Height)
	}
	copy(buf.Pix, fb.Pix)
	s.frames <- buf
	return nil
}

// Written is the number of frames the writer goroutine has delivered
func (s *ChannelSink) Written() uint64 {
	return s.written.Load()
}

// Close drains queued frames and stops the writer. It must not be called
// concurrently with WriteFrame.
func (s *ChannelSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return s.Err()
	}
	s.closed = true
	s.mu.Unlock()

	close(s.frames)
	<-s.done
	return s.Err()
}
