package capture

import (
	"errors"
	"fmt"
	"time"
)

const BytesPerPixel = 4

var ErrFrameGeometry = errors.New("captured frame does not match the capture size")

// RawFrame is a frame as delivered by the capture source. Rows may be padded
// (Stride > Width*4). Pix is only valid for the duration of the callback.
type RawFrame struct {
	Width      int
	Height     int
	Stride     int // 0 means len(Pix)/Height
	Pix        []byte
	CapturedAt time.Time
}

// FrameBuffer is a tightly packed 4 bytes per pixel buffer
type FrameBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

func NewFrameBuffer(width, height int) *FrameBuffer {
	return &FrameBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// CopyFrom strips row padding from src into the buffer. Sources larger than the
// buffer (odd dimensions trimmed for the encoder) are cropped to the top-left.
func (b *FrameBuffer) CopyFrom(src RawFrame) error {
	tight := b.Width * BytesPerPixel

	pitch := src.Stride
	if pitch == 0 && src.Height > 0 {
		pitch = len(src.Pix) / src.Height
	}

	if src.Width < b.Width || src.Height < b.Height || pitch < tight {
		return fmt.Errorf("%w: got %dx%d pitch %d, want %dx%d",
			ErrFrameGeometry, src.Width, src.Height, pitch, b.Width, b.Height)
	}

	if pitch == tight {
		if len(src.Pix) < len(b.Pix) {
			return fmt.Errorf("%w: short buffer %d < %d", ErrFrameGeometry, len(src.Pix), len(b.Pix))
		}
		copy(b.Pix, src.Pix[:len(b.Pix)])
		return nil
	}

	for row := 0; row < b.Height; row++ {
		start := row * pitch
		end := start + tight
		if end > len(src.Pix) {
			return fmt.Errorf("%w: short buffer at row %d", ErrFrameGeometry, row)
		}
		copy(b.Pix[row*tight:(row+1)*tight], src.Pix[start:end])
	}
	return nil
}
