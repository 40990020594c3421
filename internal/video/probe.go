package video

import (
	"fmt"

	vidio "github.com/AlexEidt/Vidio"
)

// MediaInfo describes the first video stream of a file
type MediaInfo struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64 // seconds
}

type Prober interface {
	Probe(path string) (MediaInfo, error)
}

// VidioProber reads stream metadata through Vidio (ffprobe underneath)
type VidioProber struct{}

func (VidioProber) Probe(path string) (MediaInfo, error) {
	video, err := vidio.NewVideo(path)
	if err != nil {
		return MediaInfo{}, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	defer video.Close()

	info := MediaInfo{
		Width:    video.Width(),
		Height:   video.Height(),
		FPS:      video.FPS(),
		Duration: video.Duration(),
	}
	if info.Width <= 0 || info.Height <= 0 {
		return MediaInfo{}, fmt.Errorf("video %s has invalid dimensions %dx%d", path, info.Width, info.Height)
	}
	return info, nil
}
