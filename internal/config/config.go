package config

import (
	"fmt"
	"time"
)

type Config struct {
	Recording RecordingConfig `yaml:"recording" mapstructure:"recording"`
	Gesture   GestureConfig   `yaml:"gesture" mapstructure:"gesture"`
	Zoom      ZoomConfig      `yaml:"zoom" mapstructure:"zoom"`
	Pan       PanConfig       `yaml:"pan" mapstructure:"pan"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// RecordingConfig controls the live capture session
type RecordingConfig struct {
	TargetFPS    int           `yaml:"target_fps" mapstructure:"target_fps"`
	OutputDir    string        `yaml:"output_dir" mapstructure:"output_dir"`
	Display      int           `yaml:"display" mapstructure:"display"`
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"` // screenshot grab interval
	SinkBuffers  int           `yaml:"sink_buffers" mapstructure:"sink_buffers"`   // frames queued towards ffmpeg
	Encoder      string        `yaml:"encoder" mapstructure:"encoder"`
	Preset       string        `yaml:"preset" mapstructure:"preset"`
}

// GestureConfig tunes the triple-click detector and the cursor sampler
type GestureConfig struct {
	Window         time.Duration `yaml:"window" mapstructure:"window"`     // first to third click
	PairGap        time.Duration `yaml:"pair_gap" mapstructure:"pair_gap"` // second to third click
	Radius         float64       `yaml:"radius" mapstructure:"radius"`     // normalized units
	Cooldown       time.Duration `yaml:"cooldown" mapstructure:"cooldown"`
	SampleInterval time.Duration `yaml:"sample_interval" mapstructure:"sample_interval"`
}

type ZoomConfig struct {
	DefaultScale      float64 `yaml:"default_scale" mapstructure:"default_scale"`
	DefaultEasing     string  `yaml:"default_easing" mapstructure:"default_easing"`
	AnticipationRatio float64 `yaml:"anticipation_ratio" mapstructure:"anticipation_ratio"`
}

// PanConfig controls the viewport pan simulation
type PanConfig struct {
	RateHz       int     `yaml:"rate_hz" mapstructure:"rate_hz"`
	OutputEvery  int     `yaml:"output_every" mapstructure:"output_every"`
	MaxKeyframes int     `yaml:"max_keyframes" mapstructure:"max_keyframes"`
	InnerMargin  float64 `yaml:"inner_margin" mapstructure:"inner_margin"`
	Gain         float64 `yaml:"gain" mapstructure:"gain"`
}

type ExportConfig struct {
	Quality            string  `yaml:"quality" mapstructure:"quality"` // high, medium, low
	Format             string  `yaml:"format" mapstructure:"format"`   // mp4, mov, mkv
	Padding            float64 `yaml:"padding" mapstructure:"padding"`
	Background         string  `yaml:"background" mapstructure:"background"`
	Hardware           bool    `yaml:"hardware" mapstructure:"hardware"`
	CursorVisible      bool    `yaml:"cursor_visible" mapstructure:"cursor_visible"`
	CursorStyle        string  `yaml:"cursor_style" mapstructure:"cursor_style"` // dot, ring
	CursorSize         int     `yaml:"cursor_size" mapstructure:"cursor_size"`
	CursorColor        string  `yaml:"cursor_color" mapstructure:"cursor_color"`
	MaxCursorKeyframes int     `yaml:"max_cursor_keyframes" mapstructure:"max_cursor_keyframes"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

func NewConfig() *Config {
	return &Config{
		Recording: RecordingConfig{
			TargetFPS:    60,
			OutputDir:    "output",
			Display:      0,
			PollInterval: 10 * time.Millisecond,
			SinkBuffers:  4,
			Encoder:      "libx264",
			Preset:       "ultrafast",
		},
		Gesture: GestureConfig{
			Window:         800 * time.Millisecond,
			PairGap:        400 * time.Millisecond,
			Radius:         0.05,
			Cooldown:       3000 * time.Millisecond,
			SampleInterval: 50 * time.Millisecond,
		},
		Zoom: ZoomConfig{
			DefaultScale:      2.0,
			DefaultEasing:     "smooth",
			AnticipationRatio: 0.5,
		},
		Pan: PanConfig{
			RateHz:       60,
			OutputEvery:  6,
			MaxKeyframes: 40,
			InnerMargin:  0.2,
			Gain:         0.12,
		},
		Export: ExportConfig{
			Quality:            "high",
			Format:             "mp4",
			Padding:            0,
			Background:         "black",
			Hardware:           true,
			CursorVisible:      true,
			CursorStyle:        "dot",
			CursorSize:         24,
			CursorColor:        "white",
			MaxCursorKeyframes: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate rejects configurations that would break a session at runtime
func (c *Config) Validate() error {
	if c.Recording.TargetFPS <= 0 || c.Recording.TargetFPS > 240 {
		return fmt.Errorf("invalid target fps: %d", c.Recording.TargetFPS)
	}
	if c.Recording.OutputDir == "" {
		return fmt.Errorf("output dir is required")
	}
	if c.Recording.SinkBuffers < 1 {
		return fmt.Errorf("sink buffers must be at least 1, got %d", c.Recording.SinkBuffers)
	}
	if c.Recording.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval: %v", c.Recording.PollInterval)
	}
	if c.Gesture.PairGap <= 0 || c.Gesture.Window < c.Gesture.PairGap {
		return fmt.Errorf("gesture window %v must cover pair gap %v", c.Gesture.Window, c.Gesture.PairGap)
	}
	if c.Gesture.Radius <= 0 || c.Gesture.Radius > 1 {
		return fmt.Errorf("invalid gesture radius: %f", c.Gesture.Radius)
	}
	if c.Gesture.SampleInterval <= 0 {
		return fmt.Errorf("invalid sample interval: %v", c.Gesture.SampleInterval)
	}
	if c.Zoom.DefaultScale <= 1 {
		return fmt.Errorf("default zoom scale must be greater than 1, got %f", c.Zoom.DefaultScale)
	}
	if c.Zoom.AnticipationRatio <= 0 || c.Zoom.AnticipationRatio > 1 {
		return fmt.Errorf("invalid anticipation ratio: %f", c.Zoom.AnticipationRatio)
	}
	if c.Pan.RateHz <= 0 || c.Pan.OutputEvery <= 0 {
		return fmt.Errorf("invalid pan sampling: rate %d, every %d", c.Pan.RateHz, c.Pan.OutputEvery)
	}
	if c.Pan.MaxKeyframes < 2 || c.Export.MaxCursorKeyframes < 2 {
		return fmt.Errorf("keyframe limits must be at least 2")
	}
	if c.Pan.InnerMargin < 0 || c.Pan.InnerMargin >= 0.5 {
		return fmt.Errorf("invalid pan inner margin: %f", c.Pan.InnerMargin)
	}
	if c.Pan.Gain <= 0 || c.Pan.Gain > 1 {
		return fmt.Errorf("invalid pan gain: %f", c.Pan.Gain)
	}
	if c.Export.Padding < 0 || c.Export.Padding >= 0.5 {
		return fmt.Errorf("invalid padding: %f", c.Export.Padding)
	}
	switch c.Export.Quality {
	case "high", "medium", "low":
	default:
		return fmt.Errorf("unknown quality preset: %q", c.Export.Quality)
	}
	switch c.Export.Format {
	case "mp4", "mov", "mkv":
	default:
		return fmt.Errorf("unknown output format: %q", c.Export.Format)
	}
	return nil
}
